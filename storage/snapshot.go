package storage

import (
	"context"
	"io"
)

// SnapshotResult describes a stored dataset snapshot.
type SnapshotResult struct {
	Key      string
	Location string
	ETag     string
}

// SnapshotUploader persists exported tournament datasets to an external
// object store.
type SnapshotUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*SnapshotResult, error)

	Delete(ctx context.Context, key string) error

	PublicURL(key string) string
}
