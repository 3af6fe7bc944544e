package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/bytedance/sonic"

	"github.com/rutno/clouddrive-go/tool"
	"github.com/rutno/clouddrive-go/types"
)

// CloudSink posts blobs to an HTTP upload endpoint as multipart form data,
// authenticated by app id and secret key fields.
type CloudSink struct {
	cfg    types.CloudSinkConfig
	client *http.Client
}

type cloudUploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	SID     string `json:"sid"`
	Message string `json:"message"`
}

// NewCloudSink creates a cloud sink using the shared bounded-timeout client.
func NewCloudSink(cfg types.CloudSinkConfig) *CloudSink {
	return &CloudSink{cfg: cfg, client: tool.UploadSinkClient}
}

func (s *CloudSink) Name() string { return "cloud" }

// Store uploads the blob as one multipart request. The request is bounded by
// the client timeout so a dead backend cannot stall upload finalization.
func (s *CloudSink) Store(ctx context.Context, localPath, originalName string) (Result, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: open blob: %v", types.ErrIOFailure, err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("%w: stat blob: %v", types.ErrIOFailure, err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("app_id", s.cfg.AppID)
	_ = writer.WriteField("secret_key", s.cfg.SecretKey)
	_ = writer.WriteField("path", s.cfg.Path)
	part, err := writer.CreateFormFile("file", originalName)
	if err != nil {
		return Result{}, fmt.Errorf("%w: build multipart body: %v", types.ErrUpstreamUnavailable, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return Result{}, fmt.Errorf("%w: read blob: %v", types.ErrIOFailure, err)
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("%w: finalize multipart body: %v", types.ErrUpstreamUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, &body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: build upload request: %v", types.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: cloud upload: %v", types.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: cloud upload returned %s", types.ErrUpstreamUnavailable, resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read cloud response: %v", types.ErrUpstreamUnavailable, err)
	}
	var parsed cloudUploadResponse
	if err := sonic.Unmarshal(payload, &parsed); err != nil {
		return Result{}, fmt.Errorf("%w: decode cloud response: %v", types.ErrUpstreamUnavailable, err)
	}
	if !parsed.Success {
		return Result{}, fmt.Errorf("%w: cloud upload rejected: %s", types.ErrUpstreamUnavailable, parsed.Message)
	}
	return Result{URL: parsed.URL, SID: parsed.SID, Size: stat.Size()}, nil
}
