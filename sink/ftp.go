package sink

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/jlaffaye/ftp"

	"github.com/rutno/clouddrive-go/tool"
	"github.com/rutno/clouddrive-go/types"
)

// FTPSink stores blobs on a plain FTP server. Each Store dials a fresh
// connection; uploads are too infrequent to justify pooling control
// connections.
type FTPSink struct {
	cfg types.FTPSinkConfig
}

// NewFTPSink creates an FTP sink.
func NewFTPSink(cfg types.FTPSinkConfig) *FTPSink {
	return &FTPSink{cfg: cfg}
}

func (s *FTPSink) Name() string { return "ftp" }

// Store uploads the blob via STOR under the configured remote path.
func (s *FTPSink) Store(ctx context.Context, localPath, originalName string) (Result, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: open blob: %v", types.ErrIOFailure, err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("%w: stat blob: %v", types.ErrIOFailure, err)
	}

	port := s.cfg.Port
	if port == 0 {
		port = 21
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, port)
	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(tool.DefaultTimeout))
	if err != nil {
		return Result{}, fmt.Errorf("%w: dial ftp %s: %v", types.ErrUpstreamUnavailable, addr, err)
	}
	defer conn.Quit()

	if err := conn.Login(s.cfg.User, s.cfg.Password); err != nil {
		return Result{}, fmt.Errorf("%w: ftp login: %v", types.ErrUpstreamUnavailable, err)
	}

	remote := path.Join(s.cfg.Path, originalName)
	if err := conn.Stor(remote, f); err != nil {
		return Result{}, fmt.Errorf("%w: ftp store %s: %v", types.ErrUpstreamUnavailable, remote, err)
	}
	return Result{SID: remote, Size: stat.Size()}, nil
}
