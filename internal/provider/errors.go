package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Category classifies a provider error for the retry layer.
type Category int

const (
	// CategoryPermanent errors are never retried.
	CategoryPermanent Category = iota
	// CategoryTransient errors (network, timeout, malformed response)
	// are retried with backoff.
	CategoryTransient
	// CategoryRateLimited errors are retried after an additional
	// randomized cooldown.
	CategoryRateLimited
)

func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryRateLimited:
		return "rate_limited"
	default:
		return "permanent"
	}
}

// Retryable reports whether the retry loop should try again.
func (c Category) Retryable() bool { return c != CategoryPermanent }

// StatusError reports a non-200 HTTP response from the provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

var rateLimitMarkers = []string{
	"too many requests",
	"rate limit",
	"429",
}

var transientMarkers = []string{
	"timeout",
	"connection refused",
	"connection reset",
	"temporary failure",
	"network is unreachable",
	"no such host",
	"decode",
	"unexpected eof",
	"unexpected end of json",
}

// Classify maps an error onto the closed category set driving the retry
// loop. Unknown errors are permanent.
func Classify(err error) Category {
	if err == nil || errors.Is(err, context.Canceled) {
		return CategoryPermanent
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == 429:
			return CategoryRateLimited
		case se.Code >= 500:
			return CategoryTransient
		default:
			return CategoryPermanent
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return CategoryRateLimited
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryTransient
	}

	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return CategoryTransient
		}
	}
	return CategoryPermanent
}
