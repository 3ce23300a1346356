package web

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rgeron/next-hackaton/pkg/config"
	"github.com/rgeron/next-hackaton/pkg/identity"
)

// NewRouter returns a new HTTP router.
func NewRouter(ctx context.Context) http.Handler {
	cfg := config.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("http")
	router := mux.NewRouter()

	// Health routes
	HealthController(ctx, router)

	// API routes
	APIController(ctx, router)

	router.NotFoundHandler = http.HandlerFunc(renderNotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(renderMethodNotAllowed)

	tokens, err := identity.NewTokens(cfg.Auth)
	if err != nil {
		logger.Warn("bearer tokens disabled, every request is anonymous", "err", err)
	}

	// Auth handler
	// Resolves the caller from the bearer token
	h := NewAuthMiddleware(tokens)(router)
	h = NewLoggingMiddleware(h, logger)

	// Context handler
	// Adds context to the request
	h = NewContextHandler(ctx)(h)
	h = handlers.CORS(
		handlers.AllowedHeaders(cfg.HTTP.CORS.AllowedHeaders),
		handlers.AllowedOrigins(cfg.HTTP.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.HTTP.CORS.AllowedMethods),
	)(h)
	h = handlers.CompressHandler(h)
	h = handlers.RecoveryHandler()(h)

	return h
}
