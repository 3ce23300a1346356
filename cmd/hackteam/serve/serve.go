package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rgeron/next-hackaton/cmd"
	"github.com/rgeron/next-hackaton/pkg/config"
	"github.com/rgeron/next-hackaton/pkg/db"
	"github.com/rgeron/next-hackaton/pkg/db/migrate"
	"github.com/rgeron/next-hackaton/pkg/web"
	"github.com/spf13/cobra"
)

// Command is the serve command.
var Command = &cobra.Command{
	Use:                "serve",
	Short:              "Start the server",
	Args:               cobra.NoArgs,
	PersistentPreRunE:  cmd.InitBackendContext,
	PersistentPostRunE: cmd.CloseDBContext,
	RunE: func(c *cobra.Command, _ []string) error {
		ctx := c.Context()
		cfg := config.FromContext(ctx)
		logger := log.FromContext(ctx)
		if !cfg.Exist() {
			if err := cfg.WriteConfig(); err != nil {
				return fmt.Errorf("write config file: %w", err)
			}
		}

		if cfg.Auth.Secret == "" {
			return fmt.Errorf("an auth secret is required, set HACKTEAM_AUTH_SECRET")
		}

		if dbx := db.FromContext(ctx); dbx != nil {
			if err := migrate.Migrate(ctx, dbx); err != nil {
				return fmt.Errorf("migration error: %w", err)
			}
		}

		limiter, err := web.NewRedisLimiter(ctx, cfg.RateLimit)
		if err != nil {
			return fmt.Errorf("create rate limiter: %w", err)
		}
		if limiter != nil {
			defer limiter.Close() // nolint: errcheck
			ctx = web.WithLimiterContext(ctx, limiter)
		} else {
			logger.Info("rate limiting disabled")
		}

		s, err := NewServer(ctx)
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}

		lch := make(chan error, 1)
		done := make(chan os.Signal, 1)
		doneOnce := sync.OnceFunc(func() { close(done) })

		signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

		go func() {
			lch <- s.Start()
			doneOnce()
		}()

		select {
		case err := <-lch:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
		case <-done:
		}

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			return err
		}

		return nil
	},
}

func init() {
	Command.Flags().Bool(cmd.MemoryFlag, false, "keep the directory store in memory instead of the database")
}
