package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/rgeron/next-hackaton/cmd"
	"github.com/rgeron/next-hackaton/pkg/db"
	"github.com/rgeron/next-hackaton/pkg/db/migrate"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		Use:                "migrate",
		Short:              "Migrate the database to the latest version",
		Args:               cobra.NoArgs,
		PersistentPreRunE:  cmd.InitBackendContext,
		PersistentPostRunE: cmd.CloseDBContext,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			dbx := db.FromContext(ctx)
			if err := migrate.Migrate(ctx, dbx); err != nil {
				return fmt.Errorf("migration: %w", err)
			}

			v, err := migrate.Version(ctx, dbx)
			if err != nil {
				return fmt.Errorf("migration version: %w", err)
			}
			log.FromContext(ctx).Info("database migrated", "version", v)
			return nil
		},
	}

	rollbackCmd = &cobra.Command{
		Use:   "rollback",
		Short: "Rollback the database to the previous version",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			dbx := db.FromContext(ctx)
			if err := migrate.Rollback(ctx, dbx); err != nil {
				return fmt.Errorf("rollback: %w", err)
			}

			v, err := migrate.Version(ctx, dbx)
			if err != nil {
				return fmt.Errorf("migration version: %w", err)
			}
			log.FromContext(ctx).Info("database rolled back", "version", v)
			return nil
		},
	}
)

func init() {
	migrateCmd.AddCommand(rollbackCmd)
}
