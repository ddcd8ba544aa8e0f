package main

import (
	"errors"
	"log/slog"

	"github.com/immxrtalbeast/liveclass/internal/config"
	"github.com/immxrtalbeast/liveclass/lib/logger/sl"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the session tables",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.MustLoad(configPath)
	log := setupLogger(cfg.Env)

	if cfg.Repository.Driver != config.DriverPostgres {
		return errors.New("migrate needs repository.driver=postgres")
	}

	db, err := connectDatabase(cfg.Database, cfg.Env)
	if err != nil {
		log.Error("failed to connect database", sl.Err(err))
		return err
	}
	if err := migrate(db); err != nil {
		log.Error("failed to migrate database", sl.Err(err))
		return err
	}

	log.Info("database migrated", slog.String("driver", cfg.Repository.Driver))
	return nil
}
