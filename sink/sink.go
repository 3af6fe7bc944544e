// Package sink uploads finalized blobs to a configured storage backend.
// Every backend is best-effort: when it fails the caller keeps serving the
// locally staged copy.
package sink

import (
	"context"

	"github.com/rutno/clouddrive-go/types"
)

// Result describes where a blob ended up after a successful store.
type Result struct {
	// URL is the externally reachable download location, empty when the
	// backend does not expose one.
	URL string
	// SID is the backend's own identifier for the stored object.
	SID string
	// Size is the number of bytes stored.
	Size int64
}

// Sink stores a locally staged blob on a remote backend.
type Sink interface {
	// Name identifies the backend in logs.
	Name() string
	// Store uploads the blob at localPath, preserving originalName where the
	// backend supports it.
	Store(ctx context.Context, localPath, originalName string) (Result, error)
}

// FromConfig builds the sink selected by cfg. A "local" type (or anything
// unrecognized) yields nil, meaning blobs stay on local disk only.
func FromConfig(cfg types.StorageConfig) Sink {
	switch cfg.Type {
	case "cloud":
		return NewCloudSink(cfg.Cloud)
	case "ftp":
		return NewFTPSink(cfg.FTP)
	case "s3":
		return NewS3Sink(cfg.S3)
	default:
		return nil
	}
}
