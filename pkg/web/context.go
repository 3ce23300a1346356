package web

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/rgeron/next-hackaton/pkg/backend"
	"github.com/rgeron/next-hackaton/pkg/config"
	"github.com/rgeron/next-hackaton/pkg/db"
	"github.com/rgeron/next-hackaton/pkg/store"
)

// NewContextHandler returns a new context middleware.
// This middleware adds the config, backend, limiter, and logger to the
// request context.
func NewContextHandler(ctx context.Context) func(http.Handler) http.Handler {
	cfg := config.FromContext(ctx)
	be := backend.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("http")
	dbx := db.FromContext(ctx)
	datastore := store.FromContext(ctx)
	limiter := LimiterFromContext(ctx)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = config.WithContext(ctx, cfg)
			ctx = backend.WithContext(ctx, be)
			ctx = log.WithContext(ctx, logger.With(
				"method", r.Method,
				"path", r.URL,
				"addr", r.RemoteAddr,
			))
			if dbx != nil {
				ctx = db.WithContext(ctx, dbx)
			}
			ctx = store.WithContext(ctx, datastore)
			ctx = WithLimiterContext(ctx, limiter)
			r = r.WithContext(ctx)

			next.ServeHTTP(w, r)
		})
	}
}
