package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cfg "github.com/example/escuela/internal/config"
	"github.com/example/escuela/internal/dbmigrate"
	"github.com/example/escuela/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	c, err := cfg.New()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.New(os.Stdout, c.LogLevel, c.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, c, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := EnsureAdmin(ctx, store, c.SeedAdminEmail, c.SeedAdminPassword, log); err != nil {
		return err
	}

	app, err := NewApp(c, store, log)
	if err != nil {
		return err
	}
	if app.limiter != nil {
		go app.limiter.Run(ctx, time.Minute)
	}

	srv := &http.Server{
		Handler:           app.Handler(),
		Addr:              ":" + c.Port,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "port", c.Port, "adapter", c.DBAdapter, "jwt_algorithm", c.JwtAlgorithm)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	log.Info("server exited properly")
	return nil
}

func openStore(ctx context.Context, c *cfg.Config, log *slog.Logger) (Store, error) {
	switch c.DBAdapter {
	case "sqlite":
		s, err := NewSQLiteStore(ctx, c.SQLiteFile)
		if err != nil {
			return nil, fmt.Errorf("sqlite init: %w", err)
		}
		log.Info("using sqlite database", "file", c.SQLiteFile)
		return s, nil
	case "postgres":
		log.Info("applying database migrations", "dir", c.MigrationsDir)
		from, to, err := dbmigrate.Apply(c.MigrationsDir, c.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		log.Info("database schema ready", "from_version", from, "to_version", to)

		p, err := NewPostgresStore(ctx, c.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres init: %w", err)
		}
		log.Info("connected to postgresql")
		return p, nil
	case "memory":
		log.Warn("using in-memory database (not recommended for production)")
		return NewMemoryStore(ctx)
	}
	return nil, fmt.Errorf("unsupported DB_ADAPTER: %s (supported: postgres, sqlite, memory)", c.DBAdapter)
}
