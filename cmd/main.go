package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okian/marquee/internal/adapters/datasource"
	"github.com/okian/marquee/internal/adapters/http/api"
	"github.com/okian/marquee/internal/adapters/http/swagger"
	"github.com/okian/marquee/internal/adapters/omdb"
	"github.com/okian/marquee/internal/adapters/repository"
	service "github.com/okian/marquee/internal/app"
	"github.com/okian/marquee/internal/config"
	"github.com/okian/marquee/internal/domain/poster"
	"github.com/okian/marquee/internal/domain/ranking"
	"github.com/okian/marquee/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("marquee: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Catalog and matrix must load before anything listens.
	movies, matrix, err := datasource.Load(cfg.CatalogPath, cfg.SimilarityPath)
	if err != nil {
		log.Error(ctx, "failed to load catalog",
			logger.String("catalog", cfg.CatalogPath),
			logger.String("similarity", cfg.SimilarityPath),
			logger.Error(err),
		)
		return err
	}

	engine, err := ranking.NewEngine(movies, matrix, ranking.WithTopN(cfg.TopN))
	if err != nil {
		log.Error(ctx, "failed to build ranking engine", logger.Error(err))
		return err
	}

	store, err := openStore(cfg.Cache)
	if err != nil {
		log.Error(ctx, "failed to open poster cache", logger.String("driver", cfg.Cache.Driver), logger.Error(err))
		return err
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn(ctx, "poster cache close failed", logger.Error(err))
			}
		}()
	}

	if cfg.OMDb.APIKey == "" {
		log.Warn(ctx, "omdb api_key is empty; every poster will fall back to the placeholder")
	}
	metadata := omdb.NewClient(cfg.OMDb.APIKey,
		omdb.WithBaseURL(cfg.OMDb.BaseURL),
		omdb.WithRateLimit(cfg.OMDb.RatePerSecond, cfg.OMDb.Burst),
		omdb.WithBreaker(cfg.OMDb.BreakerFailures, cfg.OMDb.BreakerTimeout),
	)

	resolverOpts := []poster.Option{poster.WithTierTimeout(cfg.OMDb.Timeout)}
	svcOpts := []service.Option{
		service.WithCatalog(movies),
		service.WithEngine(engine),
		service.WithWorkerCount(cfg.ResolverWorkers),
		service.WithPlaceholder(cfg.PlaceholderURL),
		service.WithBreakerState(metadata.BreakerState),
		service.WithLogger(log.Named("service")),
	}
	if store != nil {
		cache := service.NewPosterCache(store, cfg.Cache.Driver, nil)
		resolverOpts = append(resolverOpts, poster.WithCache(cache))
		svcOpts = append(svcOpts, service.WithPosterCache(cache))
	}
	svcOpts = append(svcOpts, service.WithResolver(poster.NewResolver(metadata, resolverOpts...)))

	svc := service.New(svcOpts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           buildRouter(cfg.HTTP, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure
	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return runErr
}

// openStore returns the poster cache backend, or nil when caching is off.
func openStore(c config.Cache) (repository.Store, error) {
	switch c.Driver {
	case "memory":
		return repository.NewMemoryStore(repository.WithCapacity(c.Capacity), repository.WithTTL(c.TTL)), nil
	case "sqlite":
		s, err := repository.OpenSQLite(c.Path, repository.WithTTL(c.TTL))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", c.Driver)
	}
}

// buildRouter mounts the API and its docs.
func buildRouter(c config.HTTP, deps api.Dependencies) chi.Router {
	r := api.NewRouter(
		api.WithRateLimit(c.RateLimitRequests, c.RateLimitWindow),
		api.WithCORSOrigins(c.CORSOrigins),
	)
	api.NewServer(deps).Register(r)
	swagger.Register(r)
	return r
}
