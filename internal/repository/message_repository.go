package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/repository/base"
)

type MessageRepository struct {
	*base.Repository
}

func NewMessageRepository(b *base.Repository) *MessageRepository {
	return &MessageRepository{Repository: b}
}

// Create сохраняет сообщение
func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	query := `
		INSERT INTO messages (id, from_id, from_name, to_id, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		return q.QueryRow(
			ctx, query,
			message.ID,
			message.FromID,
			message.FromName,
			message.ToID,
			message.Content,
		).Scan(&message.CreatedAt)
	})

	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

// ListSent последние limit отправленных пользователем сообщений
func (r *MessageRepository) ListSent(ctx context.Context, userID string, limit int) ([]*model.Message, error) {
	query := `
		SELECT id, from_id, from_name, to_id, content, created_at
		FROM messages
		WHERE from_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, "list sent messages", query, userID, limit)
}

// ListReceived последние limit полученных пользователем сообщений
func (r *MessageRepository) ListReceived(ctx context.Context, userID string, limit int) ([]*model.Message, error) {
	query := `
		SELECT id, from_id, from_name, to_id, content, created_at
		FROM messages
		WHERE to_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, "list received messages", query, userID, limit)
}

func (r *MessageRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Message, error) {
	var messages []*model.Message
	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		messages = messages[:0]
		for rows.Next() {
			var message model.Message
			if err := rows.Scan(
				&message.ID,
				&message.FromID,
				&message.FromName,
				&message.ToID,
				&message.Content,
				&message.CreatedAt,
			); err != nil {
				return fmt.Errorf("scan message: %w", err)
			}
			messages = append(messages, &message)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return messages, nil
}
