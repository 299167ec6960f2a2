package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kdimtricp/movierec/internal/api"
	"github.com/kdimtricp/movierec/internal/catalog"
	"github.com/kdimtricp/movierec/internal/config"
	"github.com/kdimtricp/movierec/internal/database"
	"github.com/kdimtricp/movierec/internal/enrichment"
	"github.com/kdimtricp/movierec/internal/logging"
	"github.com/kdimtricp/movierec/internal/metrics"
	"github.com/kdimtricp/movierec/internal/recommend"
	"github.com/kdimtricp/movierec/internal/search"
	"github.com/kdimtricp/movierec/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := run(cfg); err != nil {
		var confErr *catalog.ConfigurationError
		if errors.As(err, &confErr) {
			logging.Fatal().Err(err).Str("source", confErr.Source).Msg("Catalog data is missing or malformed")
		}
		logging.Fatal().Err(err).Msg("Server failed")
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	var (
		cat         *catalog.Catalog
		healthCheck func(context.Context) error
	)

	switch cfg.Data.Source {
	case "database":
		db, err := database.NewDB(databaseConfig(cfg.Database))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		logging.Info().Str("path", cfg.Database.MigrationsPath).Msg("Running database migrations")
		if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		cat, err = catalog.LoadDatabase(ctx, database.NewMovieRepository(db))
		if err != nil {
			return err
		}
		healthCheck = db.Conn().PingContext
	default:
		store, err := storage.NewLocalStorage(cfg.Data.Dir)
		if err != nil {
			return &catalog.ConfigurationError{Source: cfg.Data.Dir, Err: err}
		}
		cat, err = catalog.LoadFiles(store, catalog.Files{
			Movies:     cfg.Data.MoviesFile,
			Similarity: cfg.Data.SimilarityFile,
			Posters:    cfg.Data.PostersFile,
		})
		if err != nil {
			return err
		}
	}
	metrics.CatalogSize.Set(float64(cat.Len()))

	var enricher recommend.Enricher
	if cfg.EnrichmentEnabled() {
		tmdb := search.NewTMDbClient(cfg.TMDb.AccessToken, search.Options{
			BaseURL:           cfg.TMDb.BaseURL,
			ImageBaseURL:      cfg.TMDb.ImageBaseURL,
			Timeout:           cfg.TMDb.Timeout,
			RequestsPerSecond: cfg.TMDb.RequestsPerSecond,
		})
		enrichCfg := enrichment.DefaultConfig()
		enrichCfg.AttemptTimeout = cfg.TMDb.Timeout
		enrichCfg.Retries = cfg.TMDb.Retries
		enricher = enrichment.NewClient(tmdb, enrichCfg)
	} else {
		logging.Warn().Msg("TMDB_ACCESS_TOKEN not set, trailers will be reported as not available")
	}

	imageBase, posterSize := cfg.TMDb.ImageBaseURL, cfg.TMDb.PosterSize
	svc := recommend.NewService(cat, enricher, recommend.Config{
		K:              cfg.Recommend.K,
		Workers:        cfg.Recommend.Workers,
		RequestTimeout: cfg.Recommend.Timeout,
		PosterURL: func(path string) string {
			return search.ImageURL(imageBase, path, posterSize)
		},
	})

	app, err := api.NewApp(svc)
	if err != nil {
		return err
	}
	app.HealthCheck = healthCheck

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(app, api.RouterOptions{
			RequestTimeout: cfg.Server.RequestTimeout,
			RateLimit:      cfg.Server.RateLimit,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info().
		Int("port", cfg.Server.Port).
		Str("data_source", cfg.Data.Source).
		Str("data_dir", filepath.Clean(cfg.Data.Dir)).
		Int("k", cfg.Recommend.K).
		Bool("enrichment", cfg.EnrichmentEnabled()).
		Msg("Server starting")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logging.Info().Msg("Server stopped")
	return nil
}

func databaseConfig(c config.DatabaseConfig) database.Config {
	return database.Config{
		Type:       c.Type,
		Host:       c.Host,
		Port:       c.Port,
		User:       c.User,
		Password:   c.Password,
		Name:       c.Name,
		SQLitePath: c.Path,
	}
}
