package compression

import (
	"bytes"
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"png_compression/entity"
	tmetric "png_compression/internal/telemetry/metric"
	"png_compression/pkg/logger"
)

const (
	traceName = "compression"

	DefaultTTL      = 10 * time.Minute
	defaultFilename = "image"
	filesPath       = "/files/"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// toolError is implemented by compressor errors that carry the process output.
type toolError interface {
	error
	ToolOutput() string
}

// Options is the fixed per-process policy of the usecase.
type Options struct {
	TTL             time.Duration
	StagingDir      string
	FetchTimeout    time.Duration
	CompressTimeout time.Duration
	VerifySignature bool
}

type CompressionUsecase struct {
	fetcher    entity.SourceFetcher
	compressor entity.Compressor
	objects    *ObjectRepository
	history    entity.HistoryRepository
	events     entity.EventPublisher
	metrics    *tmetric.Collector
	l          logger.Interface
	opts       Options
}

var _ entity.CompressionUsecase = (*CompressionUsecase)(nil)

// Dependencies -. History, Events and Metrics are optional.
type Dependencies struct {
	Fetcher    entity.SourceFetcher
	Compressor entity.Compressor
	Objects    *ObjectRepository
	History    entity.HistoryRepository
	Events     entity.EventPublisher
	Metrics    *tmetric.Collector
	Logger     logger.Interface
}

func NewCompressionUsecase(deps Dependencies, opts Options) *CompressionUsecase {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	history := deps.History
	if history == nil {
		history = NopHistory{}
	}
	events := deps.Events
	if events == nil {
		events = NopEvents{}
	}

	return &CompressionUsecase{
		fetcher:    deps.Fetcher,
		compressor: deps.Compressor,
		objects:    deps.Objects,
		history:    history,
		events:     events,
		metrics:    deps.Metrics,
		l:          deps.Logger,
		opts:       opts,
	}
}

// Compress fetches req.URL, runs the compressor on it and publishes the result
// for the configured TTL. The work is not cancelled when ctx is, so a client
// that disconnects mid-request does not abort the compressor.
func (c *CompressionUsecase) Compress(ctx context.Context, req entity.CompressionRequest) (entity.CompressionResult, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := otel.Tracer(traceName).Start(ctx, "Compress")
	defer span.End()

	if req.URL == "" {
		return entity.CompressionResult{}, entity.ErrMissingURL
	}
	span.SetAttributes(attribute.String("source.url", req.URL))

	started := time.Now()
	run := &compressionRun{req: req}

	res, err := c.run(ctx, run)

	rec := entity.CompressionRecord{
		ObjectID:    res.ID,
		SourceURL:   req.URL,
		Status:      entity.StatusSucceeded,
		SourceBytes: run.sourceBytes,
		OutputBytes: res.OutputBytes,
		DurationMs:  time.Since(started).Milliseconds(),
	}
	if err != nil {
		rec.Status = entity.StatusFailed
		rec.FailedStage = string(run.stage)
		rec.Error = truncate(err.Error(), 1024)

		span.RecordError(err)
		span.SetStatus(codes.Error, string(run.stage))
		c.l.Error(err, "compression - "+string(run.stage))
	}
	c.metrics.ObserveCompression(rec.Status, run.stage, time.Since(started), run.sourceBytes, res.OutputBytes)

	if herr := c.history.Record(ctx, rec); herr != nil {
		c.l.Warn("compression history not recorded: %v", herr)
	}

	if err != nil {
		return entity.CompressionResult{}, err
	}

	ev := entity.CompressionEvent{
		ObjectID:          res.ID,
		URL:               res.URL,
		SuggestedFilename: res.SuggestedFilename,
		SourceURL:         req.URL,
		Expiry:            res.Expiry,
		SourceBytes:       res.SourceBytes,
		OutputBytes:       res.OutputBytes,
	}
	if perr := c.events.PublishCompressed(ctx, ev); perr != nil {
		c.l.Warn("compression event not published: %v", perr)
	}

	return res, nil
}

// compressionRun tracks where a single request is in its lifecycle.
type compressionRun struct {
	req         entity.CompressionRequest
	stage       entity.Stage
	sourceBytes int
}

func (c *CompressionUsecase) run(ctx context.Context, run *compressionRun) (entity.CompressionResult, error) {
	run.stage = entity.StageFetching
	src, err := c.fetch(ctx, run.req.URL)
	if err != nil {
		return entity.CompressionResult{}, err
	}
	run.sourceBytes = len(src.Body)

	run.stage = entity.StageValidating
	if err := c.validate(src); err != nil {
		return entity.CompressionResult{}, err
	}

	run.stage = entity.StageStaging
	st := newStaging(c.opts.StagingDir)
	defer c.cleanup(st)

	if err := st.writeInput(ctx, src.Body); err != nil {
		return entity.CompressionResult{}, err
	}

	run.stage = entity.StageCompressing
	if err := c.compress(ctx, st); err != nil {
		return entity.CompressionResult{}, err
	}

	run.stage = entity.StagePublishing
	out, err := st.readOutput()
	if err != nil {
		return entity.CompressionResult{}, err
	}

	obj := c.objects.Insert(ctx, out, entity.MimeTypePNG, c.opts.TTL)
	run.stage = entity.StagePublished

	c.l.Info("Published %s: %d -> %d bytes, expires %s", obj.ID, len(src.Body), len(out), obj.Expiry.Format(time.RFC3339))

	return entity.CompressionResult{
		ID:                obj.ID,
		URL:               strings.TrimRight(run.req.BaseURL, "/") + filesPath + obj.ID,
		SuggestedFilename: SuggestedFilename(run.req.Filename),
		Expiry:            obj.Expiry,
		SourceBytes:       len(src.Body),
		OutputBytes:       len(out),
	}, nil
}

func (c *CompressionUsecase) fetch(ctx context.Context, rawURL string) (*entity.Source, error) {
	ctx, span := otel.Tracer(traceName).Start(ctx, "FetchSource")
	defer span.End()

	if c.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.FetchTimeout)
		defer cancel()
	}

	src, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		var dErr *entity.DownloadError
		if !errors.As(err, &dErr) {
			err = &entity.DownloadError{URL: rawURL, Err: err}
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.String("source.content_type", src.ContentType),
		attribute.Int("source.bytes", len(src.Body)),
	)
	return src, nil
}

// validate trusts the declared content type; the byte signature is checked
// only when VerifySignature is on.
func (c *CompressionUsecase) validate(src *entity.Source) error {
	if !IsPNGContentType(src.ContentType) {
		return &entity.UnsupportedMediaError{ContentType: src.ContentType}
	}
	if c.opts.VerifySignature && !bytes.HasPrefix(src.Body, pngSignature) {
		return &entity.UnsupportedMediaError{ContentType: src.ContentType}
	}
	return nil
}

func (c *CompressionUsecase) compress(ctx context.Context, st *staging) error {
	ctx, span := otel.Tracer(traceName).Start(ctx, "RunCompressor")
	defer span.End()

	if c.opts.CompressTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.CompressTimeout)
		defer cancel()
	}

	if err := c.compressor.Compress(ctx, st.inPath, st.outPath); err != nil {
		var cErr *entity.CompressionError
		if errors.As(err, &cErr) {
			return err
		}
		cErr = &entity.CompressionError{Err: err}
		var tool toolError
		if errors.As(err, &tool) {
			cErr.Output = tool.ToolOutput()
		}
		return cErr
	}
	return nil
}

func (c *CompressionUsecase) cleanup(st *staging) {
	for _, r := range st.cleanup() {
		if r.Err != nil {
			c.l.Warn("staged file %s not removed: %v", r.Path, r.Err)
		}
	}
}

// GetObject returns a published object, or entity.ErrNotFound.
func (c *CompressionUsecase) GetObject(ctx context.Context, id string) (entity.StoredObject, error) {
	return c.objects.Lookup(ctx, id)
}

// IsPNGContentType reports whether a declared content type names PNG.
// An empty header counts as application/octet-stream.
func IsPNGContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "png")
}

// SuggestedFilename appends .png to the caller's hint, or to "image" without one.
func SuggestedFilename(hint string) string {
	if hint == "" {
		hint = defaultFilename
	}
	return hint + ".png"
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
