package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/example/escuela/internal/config"
	"github.com/example/escuela/internal/dbmigrate"
	"github.com/example/escuela/internal/logging"
)

var errDirty = errors.New("database is in a dirty state")

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, version, force")
		steps   = flag.Int("steps", 0, "Number of migration steps (for up/down)")
		version = flag.Uint("version", 0, "Target version (for force command)")
	)
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		logging.New(os.Stderr, "info", "text").Error("config error", "error", err)
		os.Exit(1)
	}
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	if err := run(log, cfg, *command, *steps, *version); err != nil {
		log.Error("migration failed", "command", *command, "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg *config.Config, command string, steps int, version uint) error {
	if cfg.DBAdapter != "postgres" {
		return fmt.Errorf("migrations only work with PostgreSQL, current adapter is %s (sqlite bootstraps its schema on start)", cfg.DBAdapter)
	}

	migrationsDir := cfg.MigrationsDir
	if flag.NArg() > 0 {
		if _, err := os.Stat(flag.Arg(0)); err == nil {
			migrationsDir = flag.Arg(0)
		}
	}

	r, err := dbmigrate.Open(migrationsDir, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("migration setup: %w", err)
	}
	defer r.Close()

	switch command {
	case "up":
		if steps > 0 {
			err = r.Steps(steps)
		} else {
			err = r.Up()
		}
		if err != nil {
			return fmt.Errorf("up: %w", err)
		}
		log.Info("migrations applied", "dir", migrationsDir)
	case "down":
		if steps > 0 {
			err = r.Steps(-steps)
		} else {
			err = r.Down()
		}
		if err != nil {
			return fmt.Errorf("down: %w", err)
		}
		log.Info("migrations rolled back", "dir", migrationsDir)
	case "version":
		v, dirty, err := r.Version()
		if err != nil {
			return fmt.Errorf("version: %w", err)
		}
		if dirty {
			return fmt.Errorf("%w (version %d)", errDirty, v)
		}
		log.Info("current migration version", "version", v)
	case "force":
		if version == 0 {
			return errors.New("version required for force command (use -version flag)")
		}
		if err := r.Force(int(version)); err != nil {
			return fmt.Errorf("force: %w", err)
		}
		log.Info("forced database version", "version", version)
	default:
		return fmt.Errorf("unknown command %q (supported: up, down, version, force)", command)
	}
	return nil
}
