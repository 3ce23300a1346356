// Package backend implements the team membership workflow: every user
// visible action on teams, profiles, invitations and applications.
//
// Each operation resolves the caller, runs the membership guard against
// freshly read state and then performs single-row store writes. Roster
// writes are conditional on the team version and retried on conflict.
// When a later write fails, earlier writes of the same operation are
// compensated.
package backend

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/rgeron/next-hackaton/pkg/config"
	"github.com/rgeron/next-hackaton/pkg/identity"
	"github.com/rgeron/next-hackaton/pkg/proto"
	"github.com/rgeron/next-hackaton/pkg/store"
)

// Backend is the hackteam backend that handles the team membership
// workflow.
type Backend struct {
	ctx      context.Context
	cfg      *config.Config
	store    store.Store
	identity identity.Provider
	logger   *log.Logger
	cache    *cache
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithIdentity sets the identity provider resolving the caller. It defaults
// to identity.Context.
func WithIdentity(p identity.Provider) Option {
	return func(b *Backend) {
		b.identity = p
	}
}

// WithClock sets the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// New returns a new hackteam backend.
func New(ctx context.Context, cfg *config.Config, st store.Store, opts ...Option) *Backend {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := log.FromContext(ctx).WithPrefix("backend")
	b := &Backend{
		ctx:      ctx,
		cfg:      cfg,
		store:    st,
		identity: identity.Context,
		logger:   logger,
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}

	b.cache = newCache(b, 1000, nameTTL)

	return b
}

// Store returns the directory store of the backend.
func (d *Backend) Store() store.Store {
	return d.store
}

// caller returns the id of the current caller.
func (d *Backend) caller(ctx context.Context) (string, error) {
	id, ok := d.identity.CurrentUserID(ctx)
	if !ok {
		return "", proto.ErrUnauthenticated
	}
	return id, nil
}

// storeContext bounds a single store call with the configured timeout.
func (d *Backend) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.cfg.Store.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.cfg.Store.Timeout)
}

// call runs one store read or write under the store timeout.
func call[T any](ctx context.Context, d *Backend, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := d.storeContext(ctx)
	defer cancel()
	return fn(ctx)
}

// exec is call for operations returning only an error.
func exec(ctx context.Context, d *Backend, fn func(ctx context.Context) error) error {
	ctx, cancel := d.storeContext(ctx)
	defer cancel()
	return fn(ctx)
}
