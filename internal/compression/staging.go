package compression

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
)

// staging is the pair of temporary files one request compresses between.
// Only the request that created it touches these paths.
type staging struct {
	dir     string
	inPath  string
	outPath string
}

// cleanupResult is the outcome of removing one staged file.
type cleanupResult struct {
	Path string
	Err  error
}

func newStaging(dir string) *staging {
	if dir == "" {
		dir = os.TempDir()
	}
	return &staging{dir: dir}
}

// writeInput puts body into a freshly named input file.
func (s *staging) writeInput(ctx context.Context, body []byte) error {
	_, span := otel.Tracer(traceName).Start(ctx, "StageInput")
	defer span.End()

	f, err := os.CreateTemp(s.dir, "in-*.png")
	if err != nil {
		return errors.Wrap(err, "create staged input")
	}
	defer f.Close()

	s.inPath = f.Name()

	if _, err := f.Write(body); err != nil {
		return errors.Wrap(err, "write staged input")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close staged input")
	}

	s.outPath = filepath.Join(s.dir, "out-"+uuid.NewString()+".png")
	return nil
}

func (s *staging) readOutput() ([]byte, error) {
	out, err := os.ReadFile(s.outPath)
	if err != nil {
		return nil, errors.Wrap(err, "read compressed output")
	}
	return out, nil
}

// cleanup attempts to remove every staged file and reports each outcome.
// A file that was never created is not an error.
func (s *staging) cleanup() []cleanupResult {
	var results []cleanupResult
	for _, p := range []string{s.inPath, s.outPath} {
		if p == "" {
			continue
		}
		err := os.Remove(p)
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
		results = append(results, cleanupResult{Path: p, Err: err})
	}
	return results
}
