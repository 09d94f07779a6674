package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/repository/base"
)

// AuditRepository журнал действий, только INSERT и SELECT
type AuditRepository struct {
	*base.Repository
}

func NewAuditRepository(b *base.Repository) *AuditRepository {
	return &AuditRepository{Repository: b}
}

// Append добавляет запись в журнал
func (r *AuditRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	query := `
		INSERT INTO audit_logs (id, user_id, user_name, user_role, action, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		_, err := q.Exec(
			ctx, query,
			entry.ID,
			entry.UserID,
			entry.UserName,
			entry.UserRole,
			entry.Action,
			entry.Timestamp,
		)
		return err
	})

	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	return nil
}

// ListRecent последние limit записей, новые первыми
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*model.AuditEntry, error) {
	query := `
		SELECT id, user_id, user_name, user_role, action, timestamp
		FROM audit_logs
		ORDER BY timestamp DESC
		LIMIT $1
	`

	var entries []*model.AuditEntry
	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		rows, err := q.Query(ctx, query, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		entries = entries[:0]
		for rows.Next() {
			var entry model.AuditEntry
			if err := rows.Scan(
				&entry.ID,
				&entry.UserID,
				&entry.UserName,
				&entry.UserRole,
				&entry.Action,
				&entry.Timestamp,
			); err != nil {
				return fmt.Errorf("scan audit entry: %w", err)
			}
			entries = append(entries, &entry)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	return entries, nil
}
