package backend

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/rgeron/next-hackaton/pkg/proto"
	"github.com/rgeron/next-hackaton/pkg/store"
)

func (d *Backend) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	retries := d.cfg.Teams.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// retry runs op until it succeeds or fails with anything but
// store.ErrConflict. op must re-read the team and re-run the guard on every
// attempt. Running out of attempts yields proto.ErrConcurrentUpdate.
func (d *Backend) retry(ctx context.Context, operation string, op func() error) error {
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := op()
		switch {
		case err == nil:
			return nil
		case errors.Is(err, store.ErrConflict):
			conflictCounter.WithLabelValues(operation).Inc()
			d.logger.Debug("concurrent team modification", "operation", operation, "attempt", attempt)
			return err
		default:
			return backoff.Permanent(err)
		}
	}, d.backoff(ctx))
	if errors.Is(err, store.ErrConflict) {
		d.logger.Warn("giving up after concurrent modifications", "operation", operation, "attempts", attempt)
		return proto.ErrConcurrentUpdate
	}
	return err
}

// compensate runs an undo step for operation and logs its outcome. The
// undo step still runs when ctx is canceled. Its error is not returned: the
// caller reports the failure that triggered it.
func (d *Backend) compensate(ctx context.Context, operation string, step string, undo func(ctx context.Context) error) {
	if err := undo(context.WithoutCancel(ctx)); err != nil {
		compensationCounter.WithLabelValues(operation, "failed").Inc()
		d.logger.Error("compensation failed", "operation", operation, "step", step, "err", err)
		return
	}
	compensationCounter.WithLabelValues(operation, "ok").Inc()
	d.logger.Info("compensated partial change", "operation", operation, "step", step)
}
