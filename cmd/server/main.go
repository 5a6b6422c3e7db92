package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gihan9a/draftsync/internal/config"
	"gihan9a/draftsync/internal/draft"
	"gihan9a/draftsync/internal/endpoint"
	"gihan9a/draftsync/internal/logger"
	"gihan9a/draftsync/internal/server"
	"gihan9a/draftsync/internal/tls"
	"gihan9a/draftsync/internal/tracer"

	"github.com/redis/go-redis/v9"
)

func main() {
	// Parse command line flags and get configuration
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatalf("Error parsing configuration: %v", err)
	}

	appLog := logger.New(logger.Options{
		FilePath:   cfg.Log.FilePath,
		Production: cfg.Log.Production,
		Debug:      cfg.Log.Debug,
	})
	defer appLog.Sync()

	if err := run(cfg, appLog); err != nil {
		appLog.Error("Main", "Server stopped with error", map[string]interface{}{"error": err})
		appLog.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, appLog logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer := tracer.Init(ctx, cfg.Tracing, appLog)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			appLog.Warn("Main", "Tracer shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// Set up the TLS certificate if needed
	if cfg.TLS.Enabled && cfg.TLS.GenerateCert {
		if err := tls.EnsureCertificate(cfg.TLS.CertFile, cfg.TLS.KeyFile, appLog); err != nil {
			return fmt.Errorf("failed to set up TLS certificate: %w", err)
		}
	}

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	ep, err := endpoint.New(endpoint.Config{
		DocumentID: cfg.Sync.DocumentID,
		ChunkSize:  cfg.Sync.ChunkSize,
	}, store, appLog)
	if err != nil {
		return fmt.Errorf("invalid sync configuration: %w", err)
	}

	syncServer := server.NewDraftSyncServer(cfg, store, ep, appLog)
	defer syncServer.Close()

	if err := syncServer.SetupWatcher(); err != nil {
		return fmt.Errorf("failed to set up draft watcher: %w", err)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: syncServer.SetupRoutes(),
	}

	errCh := make(chan error, 1)
	go func() {
		details := map[string]interface{}{
			"addr":        httpServer.Addr,
			"sync_path":   cfg.Sync.Path,
			"document_id": cfg.Sync.DocumentID,
			"store":       cfg.Store.Backend,
			"tls":         cfg.TLS.Enabled,
		}
		appLog.Info("Main", "Draft sync server running", details)

		var err error
		if cfg.TLS.Enabled {
			err = httpServer.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server listen failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		appLog.Info("Main", "Signal caught, shutting down", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openStore builds the configured draft store and returns a function releasing it
func openStore(ctx context.Context, cfg config.StoreConfig) (draft.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendRedis:
		store, err := draft.NewRedisStore(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case config.BackendMemory:
		return draft.NewMemoryStore(), func() {}, nil
	default:
		store, err := draft.NewFileStore(cfg.Dir, cfg.Extension)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}
