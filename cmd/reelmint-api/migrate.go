package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reelmint/reelmint/internal/config"
	"github.com/reelmint/reelmint/internal/store"
	"github.com/reelmint/reelmint/pkg/log"
	"github.com/reelmint/reelmint/pkg/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			zap.S().Fatalw("reading configuration", "error", err)
		}

		logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if cfg.Service.MigrationFolder == "" {
			zap.S().Info("No migration folder set, running the ORM schema migration")
			if err := s.InitialMigration(); err != nil {
				zap.S().Fatalw("running initial migration", "error", err)
			}
			return nil
		}

		var pool *pgxpool.Pool
		if cfg.Database.Type == "pgsql" {
			dsn := fmt.Sprintf("host=%s user=%s password=%s port=%d dbname=%s",
				cfg.Database.Hostname,
				cfg.Database.User,
				cfg.Database.Password,
				cfg.Database.Port,
				cfg.Database.Name,
			)
			pool, err = pgxpool.New(context.Background(), dsn)
			if err != nil {
				zap.S().Fatalw("creating pgx pool", "error", err)
			}
			defer pool.Close()
		}

		if err := migrations.MigrateStore(db, cfg.Service.MigrationFolder, pool); err != nil {
			zap.S().Fatalw("migrating the db", "error", err)
		}

		zap.S().Info("Db migrated")
		return nil
	},
}
