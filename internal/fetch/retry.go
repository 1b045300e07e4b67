// Package fetch wraps the provider boundary with throttling, retry and
// backoff so that callers only ever see a final result or a final error.
package fetch

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"StockPulse/internal/provider"
)

// Policy holds the resilience knobs shared by both fetchers. Throttle
// and jitter run before every network call; backoff runs between retry
// attempts; cooldown runs after a rate-limit response on top of backoff.
type Policy struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	JitterRange [2]int // pre-request jitter window, milliseconds
	CooldownMin time.Duration
	CooldownMax time.Duration
	Throttle    *rate.Limiter
}

// DefaultPolicy mirrors the production settings: one request per second
// plus a few seconds of jitter, five attempts, capped backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BackoffBase: 2 * time.Second,
		BackoffMax:  30 * time.Second,
		JitterRange: [2]int{2000, 5000},
		CooldownMin: 10 * time.Second,
		CooldownMax: 30 * time.Second,
		Throttle:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// do runs fn under the policy. Rate-limited and transient errors are
// retried up to MaxAttempts; permanent errors abort immediately. The
// last error is returned once attempts are exhausted.
func (p Policy) do(ctx context.Context, ticker, op string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := p.backoff(attempt - 1)
			log.Debug().
				Str("ticker", ticker).
				Str("op", op).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying fetch")
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
		}
		if err := p.throttle(ctx); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		category := provider.Classify(err)
		if !category.Retryable() {
			return err
		}
		if category == provider.CategoryRateLimited {
			cooldown := p.cooldown()
			log.Warn().
				Str("ticker", ticker).
				Str("op", op).
				Dur("cooldown", cooldown).
				Msg("rate limited by provider, cooling down")
			if err := sleep(ctx, cooldown); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%s %s: attempts exhausted: %w", op, ticker, lastErr)
}

// throttle waits for a token-bucket slot, then a randomized jitter delay.
func (p Policy) throttle(ctx context.Context) error {
	if p.Throttle != nil {
		if err := p.Throttle.Wait(ctx); err != nil {
			return err
		}
	}
	if p.JitterRange[0] >= p.JitterRange[1] {
		return nil
	}
	jitter := time.Duration(rand.Intn(p.JitterRange[1]-p.JitterRange[0])+p.JitterRange[0]) * time.Millisecond
	return sleep(ctx, jitter)
}

// backoff doubles per retry from the base, capped, with up to 10% jitter.
func (p Policy) backoff(retries int) time.Duration {
	d := p.BackoffBase * time.Duration(1<<uint(retries))
	if d > p.BackoffMax {
		d = p.BackoffMax
	}
	return d + time.Duration(rand.Float64()*0.1*float64(d))
}

func (p Policy) cooldown() time.Duration {
	if p.CooldownMax <= p.CooldownMin {
		return p.CooldownMin
	}
	return p.CooldownMin + time.Duration(rand.Int63n(int64(p.CooldownMax-p.CooldownMin)))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
