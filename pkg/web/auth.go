package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/rgeron/next-hackaton/pkg/identity"
)

// errMalformedAuth is returned when the Authorization header is not a bearer
// token.
var errMalformedAuth = errors.New("malformed authorization header")

// authenticate returns the user id of the bearer token of r. It returns an
// empty id when the request carries no credentials.
func authenticate(r *http.Request, tokens *identity.Tokens) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errMalformedAuth
	}
	if tokens == nil {
		return "", identity.ErrMissingSecret
	}
	return tokens.Parse(strings.TrimSpace(parts[1]))
}

// NewAuthMiddleware resolves the caller from a bearer token and stores its
// id in the request context. Requests without credentials go through
// anonymously and are rejected by the operations requiring a caller. Bad
// credentials are rejected right away.
func NewAuthMiddleware(tokens *identity.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := log.FromContext(ctx)

			id, err := authenticate(r, tokens)
			if err != nil {
				logger.Debug("failed to authenticate", "err", err)
				w.Header().Set("WWW-Authenticate", `Bearer realm="hackteam"`)
				renderJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid credentials"})
				return
			}
			if id != "" {
				ctx = identity.WithUserID(ctx, id)
				ctx = log.WithContext(ctx, logger.With("user", id))
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}
