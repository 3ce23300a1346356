package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rgeron/next-hackaton/pkg/config"
	"github.com/rgeron/next-hackaton/pkg/identity"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a caller may perform one more action.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LimiterContextKey is the context key for the limiter.
var LimiterContextKey = &struct{ string }{"limiter"}

// LimiterFromContext returns the limiter from the context. It returns nil
// when rate limiting is disabled.
func LimiterFromContext(ctx context.Context) Limiter {
	if l, ok := ctx.Value(LimiterContextKey).(Limiter); ok {
		return l
	}
	return nil
}

// WithLimiterContext returns a new context with the limiter.
func WithLimiterContext(ctx context.Context, l Limiter) context.Context {
	return context.WithValue(ctx, LimiterContextKey, l)
}

// RedisLimiter is a fixed window Limiter backed by Redis. Counters are
// shared by every server using the same Redis database.
type RedisLimiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
	now      func() time.Time
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter returns a limiter allowing cfg.Requests actions per
// cfg.Window and per key. It returns nil when cfg.RedisAddr is empty.
func NewRedisLimiter(ctx context.Context, cfg config.RateLimitConfig) (*RedisLimiter, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	if cfg.Requests < 1 || cfg.Window <= 0 {
		return nil, fmt.Errorf("invalid rate limit: %d requests per %s", cfg.Requests, cfg.Window)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() // nolint: errcheck
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisLimiter{
		client:   client,
		requests: cfg.Requests,
		window:   cfg.Window,
		now:      time.Now,
	}, nil
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := l.now().UnixNano() / int64(l.window)
	k := fmt.Sprintf("hackteam:ratelimit:%s:%d", key, slot)

	var incr *redis.IntCmd
	if _, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, l.window)
		return nil
	}); err != nil {
		return false, err
	}
	return incr.Val() <= int64(l.requests), nil
}

// Close closes the Redis client.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// withRateLimit limits how often a caller performs action. Limiter errors
// let the request through.
func withRateLimit(action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		limiter := LimiterFromContext(ctx)
		id, ok := identity.UserIDFromContext(ctx)
		if limiter == nil || !ok {
			next(w, r)
			return
		}

		allowed, err := limiter.Allow(ctx, action+":"+id)
		if err != nil {
			log.FromContext(ctx).Warn("rate limiter unavailable", "action", action, "err", err)
		} else if !allowed {
			renderTooManyRequests(w, r)
			return
		}
		next(w, r)
	}
}
