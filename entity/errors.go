package entity

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when an object id is unknown or expired.
	ErrNotFound = errors.New("Not found or expired")

	// ErrUnauthorized is returned when the bearer token does not match.
	ErrUnauthorized = errors.New("Unauthorized")

	// ErrMissingURL is returned when a compression request has no source url.
	ErrMissingURL = errors.New("Missing url")
)

// DownloadError reports a failed source fetch: either a transport failure
// (Err set) or a non-success status (Status set).
type DownloadError struct {
	URL    string
	Status int
	Err    error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Download failed: %v", e.Err)
	}
	return fmt.Sprintf("Download failed: %d", e.Status)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// UnsupportedMediaError reports a source that is not a PNG.
type UnsupportedMediaError struct {
	ContentType string
}

func (e *UnsupportedMediaError) Error() string {
	return "Only PNG is supported (Oxipng)."
}

// CompressionError reports a failed compressor run. Output holds what the tool printed.
type CompressionError struct {
	Err    error
	Output string
}

func (e *CompressionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("compression failed: %v: %s", e.Err, e.Output)
	}
	return fmt.Sprintf("compression failed: %v", e.Err)
}

func (e *CompressionError) Unwrap() error {
	return e.Err
}
