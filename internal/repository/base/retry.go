package base

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	DefaultRetryBaseDelay   = time.Second
	DefaultRetryMaxDelay    = 5 * time.Second
	DefaultRetryMaxAttempts = 3
)

// RetryPolicy экспоненциальный повтор без джиттера: base, 2*base, ... не больше MaxDelay
type RetryPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
	IsRetryable func(error) bool
}

// DefaultRetryPolicy 1s, 2s (cap 5s), всего 3 попытки
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		BaseDelay:   DefaultRetryBaseDelay,
		MaxDelay:    DefaultRetryMaxDelay,
		MaxAttempts: DefaultRetryMaxAttempts,
		IsRetryable: IsTransient,
	}
}

func (p *RetryPolicy) backoff() retry.Backoff {
	baseDelay, maxDelay := p.BaseDelay, p.MaxDelay
	if baseDelay <= 0 {
		baseDelay = DefaultRetryBaseDelay
	}
	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}

	b := retry.NewExponential(baseDelay)
	b = retry.WithCappedDuration(maxDelay, b)

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return retry.WithMaxRetries(uint64(attempts-1), b)
}

// Do выполняет fn; временные ошибки повторяются, постоянные возвращаются сразу как есть
func (p *RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	isRetryable := p.IsRetryable
	if isRetryable == nil {
		isRetryable = IsTransient
	}

	var lastErr error
	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		lastErr = fn(ctx)
		if lastErr != nil && isRetryable(lastErr) {
			return retry.RetryableError(lastErr)
		}
		return lastErr
	})

	// retry.Do при отмене контекста возвращает ctx.Err(); исходная ошибка важнее
	if err != nil && lastErr != nil && ctx.Err() != nil {
		return lastErr
	}
	return err
}
