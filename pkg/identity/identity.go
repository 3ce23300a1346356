// Package identity resolves the caller of a workflow operation.
package identity

import "context"

// Provider resolves the current caller to a stable user id.
type Provider interface {
	// CurrentUserID returns the caller's id, or false when the caller is
	// anonymous.
	CurrentUserID(ctx context.Context) (string, bool)
}

// ContextKey is the context key for the caller's user id.
var ContextKey = &struct{ string }{"user-id"}

// WithUserID returns a new context carrying the caller's user id.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKey, id)
}

// UserIDFromContext returns the caller's user id from the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKey).(string)
	return id, ok && id != ""
}

// Context is a Provider reading the user id stored by WithUserID. The HTTP
// authentication middleware stores it there.
var Context Provider = contextProvider{}

type contextProvider struct{}

func (contextProvider) CurrentUserID(ctx context.Context) (string, bool) {
	return UserIDFromContext(ctx)
}

// Static is a Provider always returning the same user id. An empty Static
// is anonymous.
type Static string

// CurrentUserID implements Provider.
func (s Static) CurrentUserID(context.Context) (string, bool) {
	return string(s), s != ""
}
