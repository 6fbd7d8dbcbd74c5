package source

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"png_compression/entity"
)

func TestHTTPFetcherReturnsBodyAndType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	src, err := NewHTTPFetcher(srv.Client()).Fetch(context.Background(), srv.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(src.Body))
	assert.Equal(t, "image/png", src.ContentType)
}

func TestHTTPFetcherNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewHTTPFetcher(nil).Fetch(context.Background(), srv.URL)

	var dErr *entity.DownloadError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, http.StatusNotFound, dErr.Status)
	assert.Equal(t, "Download failed: 404", dErr.Error())
}

func TestHTTPFetcherUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewHTTPFetcher(nil).Fetch(context.Background(), addr)

	var dErr *entity.DownloadError
	require.ErrorAs(t, err, &dErr)
	assert.Zero(t, dErr.Status)
	assert.Error(t, dErr.Err)
}

func TestHTTPFetcherMissingContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte{0x00, 0x01})
	}))
	defer srv.Close()

	src, err := NewHTTPFetcher(nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", src.ContentType)
}

type fakeStorage struct {
	bucket, key string
	body        string
	contentType string
	err         error
}

func (s *fakeStorage) DownloadObject(_ context.Context, bucket, key string, w io.Writer) (string, error) {
	s.bucket, s.key = bucket, key
	if s.err != nil {
		return "", s.err
	}
	_, err := io.WriteString(w, s.body)
	return s.contentType, err
}

func TestS3Fetcher(t *testing.T) {
	storage := &fakeStorage{body: "png-bytes", contentType: "image/png"}

	src, err := NewS3Fetcher(storage).Fetch(context.Background(), "s3://assets/img/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "assets", storage.bucket)
	assert.Equal(t, "img/logo.png", storage.key)
	assert.Equal(t, "png-bytes", string(src.Body))
	assert.Equal(t, "image/png", src.ContentType)
}

func TestS3FetcherPassesDownloadError(t *testing.T) {
	storage := &fakeStorage{err: &entity.DownloadError{URL: "s3://assets/x", Status: 404}}

	_, err := NewS3Fetcher(storage).Fetch(context.Background(), "s3://assets/x")

	var dErr *entity.DownloadError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, 404, dErr.Status)
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := ParseS3URL("s3://b/k/nested.png")
	require.NoError(t, err)
	assert.Equal(t, "b", bucket)
	assert.Equal(t, "k/nested.png", key)

	for _, bad := range []string{"s3://bucket-only", "s3:///key", "https://b/k"} {
		_, _, err := ParseS3URL(bad)
		assert.Error(t, err, bad)
	}
}

type recordingFetcher struct {
	name  string
	calls *[]string
}

func (f recordingFetcher) Fetch(_ context.Context, _ string) (*entity.Source, error) {
	*f.calls = append(*f.calls, f.name)
	return &entity.Source{}, nil
}

func TestFetcherDispatchesByScheme(t *testing.T) {
	var calls []string
	f := NewFetcher(recordingFetcher{"http", &calls}, recordingFetcher{"s3", &calls})

	for _, u := range []string{"http://h/a.png", "HTTPS://h/a.png", "s3://b/k"} {
		_, err := f.Fetch(context.Background(), u)
		require.NoError(t, err, u)
	}
	assert.Equal(t, []string{"http", "http", "s3"}, calls)
}

func TestFetcherRejectsUnknownScheme(t *testing.T) {
	var calls []string
	f := NewFetcher(recordingFetcher{"http", &calls}, nil)

	for _, u := range []string{"ftp://h/a.png", "s3://b/k", "not a url"} {
		_, err := f.Fetch(context.Background(), u)

		var dErr *entity.DownloadError
		assert.True(t, errors.As(err, &dErr), u)
	}
	assert.Empty(t, calls)
}

func TestFetcherSupports(t *testing.T) {
	var calls []string
	f := NewFetcher(recordingFetcher{"http", &calls}, nil)

	assert.True(t, f.Supports("HTTP"))
	assert.True(t, f.Supports("https"))
	assert.False(t, f.Supports("s3"))
}
