package storage

import "context"

// UploadInput describes one blob to persist.
type UploadInput struct {
	Key          string
	Body         []byte
	ContentType  string
	CacheControl string
}

// UploadResult describes the persisted artifact.
type UploadResult struct {
	URL  string
	ETag string
}

// Uploader stores blobs and returns their public URL. Complaint records
// keep only the returned URL strings.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}
