// Package capability guards calls into the remote embedding and generation
// capabilities with a per-call timeout, an optional rate limit and a bounded
// retry, and converts their errors into the domain failure types.
package capability

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/Ayutada/bluesky-analyzer/internal/config"
)

// GuardConfig configures a Guard.
type GuardConfig struct {
	Timeout           time.Duration
	Retries           int
	RequestsPerSecond float64
	Burst             int
}

// Guard runs calls under a timeout, rate limit and retry policy.
// It is safe for concurrent use.
type Guard struct {
	timeout time.Duration
	retries int
	limiter *rate.Limiter
	delay   func(attempt int) time.Duration
}

// NewGuard creates a guard. A zero timeout disables the per-call deadline and a
// zero rate disables limiting.
func NewGuard(cfg GuardConfig) *Guard {
	g := &Guard{timeout: cfg.Timeout, retries: max(cfg.Retries, 0), delay: retryDelay}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return g
}

// GuardFromConfig maps capability settings onto a guard.
func GuardFromConfig(c config.CapabilityConfig) *Guard {
	return NewGuard(GuardConfig{
		Timeout:           time.Duration(c.TimeoutSecs) * time.Second,
		Retries:           c.RetryTimes,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
	})
}

// Do invokes fn until it succeeds, the retry budget is spent, or ctx ends.
// A call that outlives the timeout fails with context.DeadlineExceeded even if
// fn ignores its context.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Run(ctx, g, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Run is Do for calls that produce a value. Only the value of the attempt that
// completed in time is returned; abandoned attempts never touch the result.
func Run[T any](ctx context.Context, g *Guard, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return zero, err
			}
		}
		v, err := call(ctx, g.timeout, fn)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || attempt >= g.retries {
			return zero, err
		}
		select {
		case <-ctx.Done():
			return zero, err
		case <-time.After(g.delay(attempt)):
		}
	}
}

type result[T any] struct {
	val T
	err error
}

func call[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn(callCtx)
		done <- result[T]{val: v, err: err}
	}()
	select {
	case r := <-done:
		return r.val, r.err
	case <-callCtx.Done():
		var zero T
		return zero, callCtx.Err()
	}
}

func retryDelay(attempt int) time.Duration {
	// 200ms, 400ms, 800ms, ... capped at 5s
	d := time.Duration(200*(1<<attempt)) * time.Millisecond
	if d > 5*time.Second || d <= 0 {
		d = 5 * time.Second
	}
	return d
}
