package source

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"png_compression/entity"
)

const defaultContentType = "application/octet-stream"

// Fetcher picks a SourceFetcher by the URL scheme.
type Fetcher struct {
	schemes map[string]entity.SourceFetcher
}

var _ entity.SourceFetcher = (*Fetcher)(nil)

// NewFetcher serves http and https through httpFetcher. s3 is only available
// when s3Fetcher is non-nil.
func NewFetcher(httpFetcher, s3Fetcher entity.SourceFetcher) *Fetcher {
	f := &Fetcher{schemes: map[string]entity.SourceFetcher{
		"http":  httpFetcher,
		"https": httpFetcher,
	}}
	if s3Fetcher != nil {
		f.schemes["s3"] = s3Fetcher
	}
	return f
}

// Supports reports whether scheme has a fetcher.
func (f *Fetcher) Supports(scheme string) bool {
	_, ok := f.schemes[strings.ToLower(scheme)]
	return ok
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*entity.Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &entity.DownloadError{URL: rawURL, Err: err}
	}

	fetcher, ok := f.schemes[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, &entity.DownloadError{
			URL: rawURL,
			Err: errors.Errorf("unsupported URL scheme %q", u.Scheme),
		}
	}

	return fetcher.Fetch(ctx, rawURL)
}
