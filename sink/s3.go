package sink

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rutno/clouddrive-go/tool"
	"github.com/rutno/clouddrive-go/types"
)

// S3Sink stores blobs in an S3-compatible bucket.
type S3Sink struct {
	cfg    types.S3SinkConfig
	client *minio.Client
}

// NewS3Sink creates an S3 sink. A client that cannot even be constructed is
// remembered as nil and reported on first Store.
func NewS3Sink(cfg types.S3SinkConfig) *S3Sink {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		tool.DefaultLogger.Errorf("Failed to create S3 client for %s: %v", cfg.Endpoint, err)
		client = nil
	}
	return &S3Sink{cfg: cfg, client: client}
}

func (s *S3Sink) Name() string { return "s3" }

// Store uploads the blob as one object keyed by its staged name.
func (s *S3Sink) Store(ctx context.Context, localPath, originalName string) (Result, error) {
	if s.client == nil {
		return Result{}, fmt.Errorf("%w: s3 client unavailable", types.ErrUpstreamUnavailable)
	}
	f, err := os.Open(localPath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: open blob: %v", types.ErrIOFailure, err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("%w: stat blob: %v", types.ErrIOFailure, err)
	}

	key := filepath.Base(localPath)
	contentType := mime.TypeByExtension(filepath.Ext(originalName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = s.client.PutObject(ctx, s.cfg.Bucket, key, f, stat.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: s3 put %s: %v", types.ErrUpstreamUnavailable, key, err)
	}

	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, key)
	return Result{URL: url, SID: key, Size: stat.Size()}, nil
}
