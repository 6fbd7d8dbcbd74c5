package entity

import (
	"context"
	"io"
)

type StorageRepository interface {
	// DownloadObject writes the object body to w and returns its declared content type.
	DownloadObject(ctx context.Context, bucket string, key string, w io.Writer) (string, error)
}

// Source is a fetched input image.
type Source struct {
	Body        []byte
	ContentType string
}

type SourceFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Source, error)
}
