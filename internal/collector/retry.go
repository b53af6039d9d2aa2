package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/sydlexius/cadence/internal/provider"
)

// Retrier applies the provider retry policy: a rate-limit signal sleeps a
// fixed interval and retries without bound; any other error is final.
type Retrier struct {
	backoff time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	logger  *slog.Logger
}

// NewRetrier creates a Retrier sleeping backoff between rate-limited attempts.
func NewRetrier(backoff time.Duration, logger *slog.Logger) *Retrier {
	return &Retrier{
		backoff: backoff,
		sleep:   sleepContext,
		logger:  logger.With(slog.String("component", "retrier")),
	}
}

// WithSleep replaces the sleep function. Tests use it to count backoffs
// without waiting.
func (r *Retrier) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Retrier {
	r.sleep = fn
	return r
}

// Do calls fn until it returns something other than a rate-limit error.
func (r *Retrier) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if !provider.IsRateLimited(err) {
			return err
		}
		r.logger.Info("rate limited, backing off",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", r.backoff))
		if err := r.sleep(ctx, r.backoff); err != nil {
			return err
		}
	}
}

// Retry runs call under r's policy and returns its final value and error.
func Retry[T any](ctx context.Context, r *Retrier, op string, call func(context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, op, func(ctx context.Context) error {
		v, err := call(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// Fetch runs call under r's policy and treats any final error as absent
// data: it logs the error and returns the zero value.
func Fetch[T any](ctx context.Context, r *Retrier, op string, call func(context.Context) (T, error)) T {
	v, err := Retry(ctx, r, op, call)
	if err != nil {
		level := slog.LevelWarn
		if provider.IsNotFound(err) {
			level = slog.LevelDebug
		}
		r.logger.Log(ctx, level, "provider call failed, treating as empty",
			slog.String("op", op),
			slog.String("error", err.Error()))
		var zero T
		return zero
	}
	return v
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
