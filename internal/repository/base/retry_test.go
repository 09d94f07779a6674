package base

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() *RetryPolicy {
	return &RetryPolicy{
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		MaxAttempts: DefaultRetryMaxAttempts,
		IsRetryable: IsTransient,
	}
}

func pgErr(code, constraint string) error {
	return fmt.Errorf("query: %w", &pgconn.PgError{Code: code, ConstraintName: constraint})
}

func TestRetryPolicy_RetriesTransient(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return pgErr("40001", "")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return pgErr("08006", "")
	})

	require.Error(t, err)
	assert.Equal(t, DefaultRetryMaxAttempts, calls)

	var pe *pgconn.PgError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "08006", pe.Code)
}

func TestRetryPolicy_PermanentNotRetried(t *testing.T) {
	for name, permanent := range map[string]error{
		"permission denied": pgErr("42501", ""),
		"unique violation":  pgErr("23505", "reservations_active_slot_key"),
		"no rows":           pgx.ErrNoRows,
		"plain":             errors.New("boom"),
	} {
		t.Run(name, func(t *testing.T) {
			calls := 0
			err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
				calls++
				return permanent
			})

			assert.Equal(t, 1, calls)
			assert.ErrorIs(t, err, permanent)
		})
	}
}

func TestRetryPolicy_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := fastPolicy()
	policy.BaseDelay = time.Hour
	policy.MaxDelay = time.Hour

	calls := 0
	err := policy.Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return pgErr("40P01", "")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsTransient(err) || errors.Is(err, context.Canceled))
}

func TestClassification(t *testing.T) {
	assert.True(t, IsUniqueViolation(pgErr("23505", "users_email_key"), "users_email_key"))
	assert.True(t, IsUniqueViolation(pgErr("23505", "users_email_key"), ""))
	assert.False(t, IsUniqueViolation(pgErr("23505", "users_email_key"), "reservations_active_slot_key"))
	assert.False(t, IsUniqueViolation(errors.New("23505"), ""))

	assert.True(t, IsNotFound(fmt.Errorf("get: %w", pgx.ErrNoRows)))

	assert.True(t, IsTransient(pgErr("57P01", "")))
	assert.True(t, IsTransient(pgErr("08001", "")))
	assert.False(t, IsTransient(pgErr("42501", "")))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(nil))
}
