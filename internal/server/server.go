package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"png_compression/config"
	"png_compression/entity"
	"png_compression/internal/compression"
	v1 "png_compression/internal/controller/http/v1"
	"png_compression/internal/controller/rmq"
	"png_compression/internal/db/gorm/mysql"
	"png_compression/internal/source"
	"png_compression/internal/storage/s3repo"
	tmetric "png_compression/internal/telemetry/metric"
	ttrace "png_compression/internal/telemetry/trace"
	"png_compression/pkg/httpserver"
	"png_compression/pkg/logger"
	"png_compression/pkg/oxipng"
)

// NewServer ...
func NewServer() *Server {
	return &Server{}
}

type Server struct {
	traceProviderCloseFn []ttrace.CloseFunc
	closers              []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

func (s *Server) onShutdown(name string, fn func() error) {
	s.closers = append(s.closers, namedCloser{name, fn})
}

// Run builds every dependency from cfg, serves HTTP and blocks until SIGINT,
// SIGTERM or a server failure, then shuts down in reverse order.
func (s *Server) Run(ctx context.Context, cfg *config.Config) error {
	l := logger.New(cfg.Log.Level)
	l.Info("Starting %s %s...", cfg.App.Name, cfg.App.Version)

	if err := s.InitGlobalProvider(ctx, cfg); err != nil {
		l.Error(err, "app - Run - InitGlobalProvider")
		return err
	}

	handler, err := s.build(ctx, cfg, l)
	if err != nil {
		l.Error(err, "app - Run - build")
		s.shutdown(l, cfg)
		return err
	}

	httpServer := httpserver.New(handler,
		httpserver.Port(cfg.Server.Port),
		httpserver.ReadTimeout(cfg.Server.ReadTimeout),
		httpserver.WriteTimeout(cfg.Server.WriteTimeout),
		httpserver.ShutdownTimeout(cfg.Server.ShutdownTimeout),
	)
	l.Info("%s listening on :%s", cfg.App.Name, cfg.Server.Port)

	// Waiting signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-interrupt:
		l.Info("app - Run - signal: " + sig.String())
	case err = <-httpServer.Notify():
		l.Error(err, "app - Run - httpServer.Notify")
	}

	// Shutdown
	if shutdownErr := httpServer.Shutdown(); shutdownErr != nil {
		l.Error(shutdownErr, "app - Run - httpServer.Shutdown")
	}
	s.shutdown(l, cfg)

	l.Info("server exited properly")
	return err
}

func (s *Server) build(ctx context.Context, cfg *config.Config, l logger.Interface) (http.Handler, error) {
	objects := compression.NewObjectRepository(l, cfg.Store.SweepInterval)
	s.onShutdown("object store", func() error {
		objects.Close()
		return nil
	})

	fetcher, err := newFetcher(ctx, cfg, l)
	if err != nil {
		return nil, err
	}

	deps := compression.Dependencies{
		Fetcher:    fetcher,
		Compressor: oxipng.New(cfg.Compressor.OxipngPath),
		Objects:    objects,
		Metrics: tmetric.NewCollector(prometheus.DefaultRegisterer, func() float64 {
			return float64(objects.Len())
		}),
		Logger: l,
	}

	if cfg.MYSQL.Host != "" {
		db, err := mysql.NewDB(cfg.MYSQL)
		if err != nil {
			return nil, err
		}
		s.onShutdown("mysql", func() error { return mysql.Close(db) })

		history, err := compression.NewHistoryRepository(db)
		if err != nil {
			return nil, err
		}
		deps.History = history
		l.Info("Compression history enabled (mysql %s/%s)", cfg.MYSQL.Host, cfg.MYSQL.Dbname)
	}

	if cfg.RMQ.URL != "" {
		publisher, err := rmq.NewAMQPPublisher(cfg.RMQ, l)
		if err != nil {
			return nil, err
		}
		s.onShutdown("amqp", publisher.Close)
		deps.Events = publisher
		l.Info("Compression events enabled (exchange %s)", cfg.RMQ.Exchange)
	}

	cu := compression.NewCompressionUsecase(deps, compression.Options{
		TTL:             cfg.Store.TTL,
		StagingDir:      cfg.Compressor.StagingDir,
		FetchTimeout:    cfg.Compressor.FetchTimeout,
		CompressTimeout: cfg.Compressor.CompressTimeout,
		VerifySignature: cfg.Compressor.VerifySignature,
	})

	if cfg.Auth.BearerEnabled() {
		l.Info("Bearer token required on /compress")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	v1.NewRouter(engine, l, cu, cfg, deps.Metrics)

	return s.cors().Handler(engine), nil
}

// newFetcher enables s3:// sources only when a bearer token guards /compress.
func newFetcher(ctx context.Context, cfg *config.Config, l logger.Interface) (*source.Fetcher, error) {
	var s3Fetcher entity.SourceFetcher
	switch {
	case cfg.S3.Region == "":
	case !cfg.Auth.BearerEnabled():
		l.Warn("s3 sources disabled: TOKEN is not set")
	default:
		repo, err := s3repo.NewS3Repository(ctx, cfg.S3)
		if err != nil {
			return nil, errors.Wrap(err, "init s3 repository")
		}
		s3Fetcher = source.NewS3Fetcher(repo)
	}

	return source.NewFetcher(source.NewHTTPFetcher(nil), s3Fetcher), nil
}

func (s *Server) shutdown(l logger.Interface, cfg *config.Config) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		c := s.closers[i]
		if err := c.close(); err != nil {
			l.Error(err, "app - Run - close "+c.name)
		}
	}
	s.closers = nil

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	for _, closeFn := range s.traceProviderCloseFn {
		if err := closeFn(ctx); err != nil {
			l.Error(err, "Unable to close trace provider")
		}
	}
	s.traceProviderCloseFn = nil
}

func (s *Server) cors() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{"POST", "GET", "HEAD", "OPTIONS"},
		AllowedHeaders:     []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "X-Request-ID"},
		ExposedHeaders:     []string{"X-Request-ID"},
		MaxAge:             60, // 1 minutes
		AllowCredentials:   false,
		OptionsPassthrough: false,
		Debug:              false,
	})
}
