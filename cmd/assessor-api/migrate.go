package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/studio-labs/assessor/internal/config"
	"github.com/studio-labs/assessor/internal/store"
	"github.com/studio-labs/assessor/pkg/log"
	"github.com/studio-labs/assessor/pkg/migrations"
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

		if err := migrate(cmd.Context(), cfg, db, s); err != nil {
			zap.S().Fatalw("running migrations", "error", err)
		}

		zap.S().Info("Db migrated")
		return nil
	},
}

// migrate uses gorm automigration for sqlite and goose for postgres.
func migrate(ctx context.Context, cfg *config.Config, db *gorm.DB, s store.Store) error {
	if cfg.Database.Type != store.PostgresType {
		return s.InitialMigration(ctx)
	}
	return migrations.MigrateStore(db, cfg.Service.MigrationFolder)
}
