package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openconvert/markitdown-server/internal/api"
	"github.com/openconvert/markitdown-server/internal/audit"
	"github.com/openconvert/markitdown-server/internal/config"
	"github.com/openconvert/markitdown-server/internal/engine"
	"github.com/openconvert/markitdown-server/internal/fetcher"
	"github.com/openconvert/markitdown-server/internal/logging"
	"github.com/openconvert/markitdown-server/internal/metrics"
	"github.com/openconvert/markitdown-server/internal/objectstore"
	"github.com/openconvert/markitdown-server/internal/pipeline"
	"github.com/openconvert/markitdown-server/internal/publisher"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the conversion HTTP server.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// The engine is constructed lazily: the first /health probe or
	// conversion request pays the cost, not process startup.
	engines := engine.NewInitializer(func() (engine.Engine, error) {
		return engine.NewMarkdownEngine()
	}, logger)

	f := fetcher.New(store, logger)
	p := pipeline.New(engines, f, pipeline.Config{
		MaxRetries:    cfg.Fetch.MaxRetries,
		BackoffFactor: cfg.Fetch.BackoffFactor,
		Region:        cfg.Storage.Region,
	}, logger)

	var opts []api.Option
	if cfg.DB.DSN != "" {
		recorder, err := audit.NewPostgresRecorder(ctx, audit.PostgresConfig{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		})
		if err != nil {
			return fmt.Errorf("build audit recorder: %w", err)
		}
		defer recorder.Close()
		opts = append(opts, api.WithAudit(recorder))
	}
	if cfg.PubSub.TopicName != "" {
		pub, err := publisher.NewPubSub(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return fmt.Errorf("build pubsub publisher: %w", err)
		}
		defer func() { _ = pub.Close() }()
		opts = append(opts, api.WithPublisher(pub, cfg.PubSub.TopicName))
	}

	apiServer := api.NewServer(p, engines,
		time.Duration(cfg.Server.TimeoutSeconds)*time.Second, logger, opts...)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

func buildStore(ctx context.Context, cfg config.Config) (objectstore.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		return objectstore.NewMemoryStore(), func() {}, nil
	default:
		gcs, err := objectstore.NewGCSStore(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("build gcs store: %w", err)
		}
		return gcs, func() { _ = gcs.Close() }, nil
	}
}
