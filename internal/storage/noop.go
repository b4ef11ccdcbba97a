package storage

import (
	"context"
	"errors"
)

// NoopUploader rejects uploads when no blob backend is configured.
type NoopUploader struct{}

// Upload always fails, signalling that uploads are unavailable.
func (NoopUploader) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	return nil, errors.New("storage: uploader not configured")
}
