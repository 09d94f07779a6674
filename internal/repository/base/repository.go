package base

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier общий интерфейс пула и транзакции pgx
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// Repository базовый репозиторий с общими методами
type Repository struct {
	pool  *pgxpool.Pool
	retry *RetryPolicy
}

// NewRepository создаёт новый базовый репозиторий
func NewRepository(pool *pgxpool.Pool, retry *RetryPolicy) *Repository {
	if retry == nil {
		retry = DefaultRetryPolicy()
	}
	return &Repository{pool: pool, retry: retry}
}

// Do выполняет операцию с повтором временных ошибок
func (r *Repository) Do(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		return fn(ctx, r.pool)
	})
}

// InTx выполняет fn в транзакции; вся транзакция повторяется при временной ошибке
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
			return fn(ctx, tx)
		})
	})
}

// ExecAffected выполняет команду и возвращает количество затронутых строк
func ExecAffected(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// IsNotFound проверяет является ли ошибка "строка не найдена"
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// Коды SQLSTATE, которые различает приложение
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeAdminShutdown        = "57P01"
	codeCannotConnectNow     = "57P03"
)

// IsUniqueViolation нарушение уникального индекса; constraint пустой = любой
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsTransient временная ошибка хранилища, которую имеет смысл повторить
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeAdminShutdown, codeCannotConnectNow:
			return true
		}
		// класс 08: connection exception
		return len(pgErr.Code) == 5 && pgErr.Code[:2] == "08"
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	return pgconn.SafeToRetry(err)
}
