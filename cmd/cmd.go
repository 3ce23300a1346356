package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/rgeron/next-hackaton/pkg/backend"
	"github.com/rgeron/next-hackaton/pkg/config"
	"github.com/rgeron/next-hackaton/pkg/db"
	"github.com/rgeron/next-hackaton/pkg/store"
	"github.com/rgeron/next-hackaton/pkg/store/database"
	"github.com/rgeron/next-hackaton/pkg/store/memdb"
	"github.com/spf13/cobra"
)

// MemoryFlag is the name of the flag selecting the in-memory store.
const MemoryFlag = "memory"

// InitBackendContext initializes the backend context.
// The directory store is backed by the configured database, or kept in
// memory when the command has a "memory" flag set to true.
func InitBackendContext(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := log.FromContext(ctx)

	var st store.Store
	if inMemory(cmd) {
		s, err := memdb.New()
		if err != nil {
			return fmt.Errorf("create memory store: %w", err)
		}
		logger.Warn("using in-memory store, data will be lost on exit")
		st = s
	} else {
		if _, err := os.Stat(cfg.DataPath); errors.Is(err, fs.ErrNotExist) {
			if err := os.MkdirAll(cfg.DataPath, os.ModePerm); err != nil {
				return fmt.Errorf("create data directory: %w", err)
			}
		}
		dbx, err := db.Open(ctx, cfg.DB.Driver, cfg.DB.DataSource)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}

		ctx = db.WithContext(ctx, dbx)
		st = database.New(ctx, dbx)
	}

	ctx = store.WithContext(ctx, st)
	be := backend.New(ctx, cfg, st)
	ctx = backend.WithContext(ctx, be)

	cmd.SetContext(ctx)

	return nil
}

// CloseDBContext closes the database context.
func CloseDBContext(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	dbx := db.FromContext(ctx)
	if dbx != nil {
		if err := dbx.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}

	return nil
}

func inMemory(cmd *cobra.Command) bool {
	f := cmd.Flags().Lookup(MemoryFlag)
	return f != nil && f.Value.String() == "true"
}
