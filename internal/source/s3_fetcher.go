package source

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"png_compression/entity"
)

// S3Fetcher reads s3://bucket/key sources through a StorageRepository.
type S3Fetcher struct {
	repo entity.StorageRepository
}

func NewS3Fetcher(repo entity.StorageRepository) *S3Fetcher {
	return &S3Fetcher{repo: repo}
}

func (f *S3Fetcher) Fetch(ctx context.Context, rawURL string) (*entity.Source, error) {
	bucket, key, err := ParseS3URL(rawURL)
	if err != nil {
		return nil, &entity.DownloadError{URL: rawURL, Err: err}
	}

	var buf bytes.Buffer
	contentType, err := f.repo.DownloadObject(ctx, bucket, key, &buf)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	return &entity.Source{Body: buf.Bytes(), ContentType: contentType}, nil
}

// ParseS3URL splits s3://bucket/key. The key keeps any nested slashes.
func ParseS3URL(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", errors.Errorf("not an s3 url: %s", rawURL)
	}

	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", errors.Errorf("s3 url needs a bucket and a key: %s", rawURL)
	}
	return bucket, key, nil
}
