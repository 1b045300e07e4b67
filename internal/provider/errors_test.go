package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryPermanent},
		{"status 429", &StatusError{Code: 429, Body: "slow down"}, CategoryRateLimited},
		{"status 503", &StatusError{Code: 503}, CategoryTransient},
		{"status 502", &StatusError{Code: 502}, CategoryTransient},
		{"status 404", &StatusError{Code: 404}, CategoryPermanent},
		{"status 401", &StatusError{Code: 401}, CategoryPermanent},
		{"wrapped status", fmt.Errorf("summary: %w", &StatusError{Code: 429}), CategoryRateLimited},
		{"rate limit message", errors.New("yahoo api error: Too Many Requests"), CategoryRateLimited},
		{"connection refused", errors.New("dial tcp 127.0.0.1:443: connection refused"), CategoryTransient},
		{"timeout", errors.New("net/http: request canceled (Client.Timeout exceeded)"), CategoryTransient},
		{"decode failure", errors.New("yahoo decode: unexpected EOF"), CategoryTransient},
		{"deadline", context.DeadlineExceeded, CategoryTransient},
		{"canceled", context.Canceled, CategoryPermanent},
		{"unknown", errors.New("something unexpected"), CategoryPermanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestCategory_Retryable(t *testing.T) {
	assert.False(t, CategoryPermanent.Retryable())
	assert.True(t, CategoryTransient.Retryable())
	assert.True(t, CategoryRateLimited.Retryable())
}
