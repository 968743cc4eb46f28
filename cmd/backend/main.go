package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"upload-server/internal/config"
	"upload-server/internal/db"
	"upload-server/internal/logging"
	"upload-server/internal/server"
	"upload-server/internal/storage"
	"upload-server/internal/uploads"
)

func main() {
	// A missing .env file is fine; the real environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	build := server.BuildInfo{
		Version: getenvDefault("VERSION", "dev"),
		Commit:  getenvDefault("COMMIT", "unknown"),
	}

	ctx := context.Background()

	repo, closeRepo, err := openRepository(cfg, logger)
	if err != nil {
		logger.Error("repository_init_failed", map[string]any{"repository": cfg.Repository}, err)
		os.Exit(1)
	}
	defer closeRepo()

	store, err := storage.NewMinioStore(ctx, storage.Config{
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		Bucket:          cfg.Storage.Bucket,
		PublicURL:       cfg.Storage.PublicURL,
		MaxObjectBytes:  cfg.MaxFileBytes,
	})
	if err != nil {
		logger.Error("storage_init_failed", map[string]any{"bucket": cfg.Storage.Bucket}, err)
		os.Exit(1)
	}

	srv := server.New(server.Config{
		Addr:              cfg.Addr(),
		CORSOrigins:       cfg.CORSOrigins,
		MaxFileBytes:      cfg.MaxFileBytes,
		Build:             build,
		TrustProxyHeaders: cfg.TrustProxy,
		Uploads:           uploads.NewService(store, repo, logger),
		Checks: map[string]server.Pinger{
			"database": repo,
			"storage":  store,
		},
		Logger: logger,
	})

	addr, err := srv.Listen()
	if err != nil {
		logger.Error("listen_failed", map[string]any{"addr": cfg.Addr()}, err)
		os.Exit(1)
	}
	logger.Info(fmt.Sprintf("HTTP server running at http://%s", addr), map[string]any{
		"env":     cfg.Environment,
		"version": build.Version,
		"commit":  build.Commit,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting_down", map[string]any{"signal": sig.String()})
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown_error", nil, err)
			os.Exit(1)
		}
		logger.Info("shutdown_complete", nil)
	case err := <-errCh:
		if err != nil {
			logger.Error("server_error", nil, err)
			os.Exit(1)
		}
	}
}

// openRepository builds the configured upload repository. The returned
// close func is always safe to call.
func openRepository(cfg *config.Config, logger *logging.Logger) (uploads.Repository, func(), error) {
	if cfg.Repository == config.RepositoryMemory {
		logger.Warn("using in-memory repository, records are lost on restart", nil)
		repo, err := uploads.NewMemoryRepository()
		return repo, func() {}, err
	}

	logger.Info("connecting_database", map[string]any{"url": redactDSN(cfg.DatabaseURL)})
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, func() {}, err
	}
	closeDB := func() { _ = conn.Close() }

	logger.Info("running_migrations", nil)
	if err := db.Migrate(conn); err != nil {
		closeDB()
		return nil, func() {}, err
	}
	logger.Info("migrations_complete", nil)

	return uploads.NewPostgresRepository(conn), closeDB, nil
}

// redactDSN hides the password in a connection URL before it is logged.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}

// getenvDefault reads an environment variable and returns a default value if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
