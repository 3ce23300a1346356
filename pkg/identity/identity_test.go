package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rgeron/next-hackaton/pkg/config"
)

func TestContextProvider(t *testing.T) {
	ctx := context.TODO()
	if id, ok := Context.CurrentUserID(ctx); ok {
		t.Errorf("CurrentUserID(empty ctx) => %q, true, want \"\", false", id)
	}
	ctx = WithUserID(ctx, "u1")
	if id, ok := Context.CurrentUserID(ctx); !ok || id != "u1" {
		t.Errorf("CurrentUserID(ctx) => %q, %v, want %q, true", id, ok, "u1")
	}
	if _, ok := Context.CurrentUserID(WithUserID(context.TODO(), "")); ok {
		t.Errorf("CurrentUserID(empty id) => true, want false")
	}
}

func TestStatic(t *testing.T) {
	if id, ok := Static("u").CurrentUserID(context.TODO()); !ok || id != "u" {
		t.Errorf("Static(u) => %q, %v, want u, true", id, ok)
	}
	if _, ok := Static("").CurrentUserID(context.TODO()); ok {
		t.Errorf("Static(\"\") => true, want false")
	}
}

func TestTokens(t *testing.T) {
	is := is.New(t)

	_, err := NewTokens(config.AuthConfig{})
	is.True(errors.Is(err, ErrMissingSecret))

	cfg := config.AuthConfig{Secret: "s3cr3t", Issuer: "http://localhost:8080", TTL: time.Hour}
	tokens, err := NewTokens(cfg)
	is.NoErr(err)

	tok, err := tokens.Issue("user-1")
	is.NoErr(err)
	id, err := tokens.Parse(tok)
	is.NoErr(err)
	is.Equal(id, "user-1")

	_, err = tokens.Issue("")
	is.True(err != nil)

	// Wrong secret.
	other, err := NewTokens(config.AuthConfig{Secret: "other", Issuer: cfg.Issuer, TTL: time.Hour})
	is.NoErr(err)
	_, err = other.Parse(tok)
	is.True(errors.Is(err, ErrInvalidToken))

	// Wrong issuer.
	other, err = NewTokens(config.AuthConfig{Secret: cfg.Secret, Issuer: "http://evil", TTL: time.Hour})
	is.NoErr(err)
	_, err = other.Parse(tok)
	is.True(errors.Is(err, ErrInvalidToken))

	// Expired.
	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tokens.Parse(tok)
	is.True(errors.Is(err, ErrInvalidToken))

	_, err = tokens.Parse("garbage")
	is.True(errors.Is(err, ErrInvalidToken))
}
