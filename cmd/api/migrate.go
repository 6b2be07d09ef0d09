package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"workshop/api/internal/store"
)

func newMigrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations for the sqlite or postgres repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, log, err := loadConfig(*envFile, nil)
			if err != nil {
				return err
			}
			dialect, err := store.ParseDialect(cfg.StoreDriver)
			if err != nil {
				return fmt.Errorf("migrate needs a SQL driver: %w", err)
			}
			dsn := cfg.DatabaseURL
			if dialect == store.DialectSQLite {
				dsn = cfg.SQLitePath
			}
			db, err := store.Open(ctx, dialect, dsn)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := store.ApplyMigrations(ctx, db, dialect); err != nil {
				return err
			}
			log.WithField("driver", dialect).Info("migrations applied")
			return nil
		},
	}
}
