package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, password_hash, name, role, approved, department, subject, telegram_chat_id, created_at`

const constraintUsersEmail = "users_email_key"

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(b *base.Repository) *UserRepository {
	return &UserRepository{Repository: b}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&user.Approved,
		&user.Department,
		&user.Subject,
		&user.TelegramChatID,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create создаёт нового пользователя; занятый email -> model.ErrEmailTaken
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, role, approved, department, subject, telegram_chat_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		return q.QueryRow(
			ctx, query,
			user.ID,
			strings.ToLower(user.Email),
			user.PasswordHash,
			user.Name,
			user.Role,
			user.Approved,
			user.Department,
			user.Subject,
			user.TelegramChatID,
		).Scan(&user.CreatedAt)
	})

	if err != nil {
		if base.IsUniqueViolation(err, constraintUsersEmail) {
			return fmt.Errorf("create user: %w", model.ErrEmailTaken)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, "get user by id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail получает пользователя по email без учёта регистра
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "get user by email", `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

// GetByTelegramChatID получает пользователя, привязанного к чату
func (r *UserRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error) {
	return r.getOne(ctx, "get user by telegram chat", `SELECT `+userColumns+` FROM users WHERE telegram_chat_id = $1`, chatID)
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, arg any) (*model.User, error) {
	var user *model.User
	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		var err error
		user, err = scanUser(q.QueryRow(ctx, query, arg))
		return err
	})

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// ListByRole возвращает пользователей роли; onlyApproved отсекает неподтверждённых
func (r *UserRepository) ListByRole(ctx context.Context, role model.Role, onlyApproved bool) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND ($2 = FALSE OR approved) ORDER BY name`
	return r.list(ctx, "list users by role", query, role, onlyApproved)
}

// ListPendingApproval пользователи, ожидающие подтверждения администратором
func (r *UserRepository) ListPendingApproval(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE NOT approved ORDER BY created_at`
	return r.list(ctx, "list pending users", query)
}

func (r *UserRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.User, error) {
	var users []*model.User
	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		users = users[:0]
		for rows.Next() {
			user, err := scanUser(rows)
			if err != nil {
				return fmt.Errorf("scan user: %w", err)
			}
			users = append(users, user)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// SetApproved подтверждает или отзывает подтверждение
func (r *UserRepository) SetApproved(ctx context.Context, id string, approved bool) (bool, error) {
	var affected int64
	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		var err error
		affected, err = base.ExecAffected(ctx, q, `UPDATE users SET approved = $2 WHERE id = $1`, id, approved)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("set user approved: %w", err)
	}
	return affected > 0, nil
}

// DeleteWithRole удаляет пользователя заданной роли; false если такого нет
func (r *UserRepository) DeleteWithRole(ctx context.Context, id string, role model.Role) (bool, error) {
	var affected int64
	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		var err error
		affected, err = base.ExecAffected(ctx, q, `DELETE FROM users WHERE id = $1 AND role = $2`, id, role)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return affected > 0, nil
}

// LinkTelegramChat привязывает чат к пользователю, отвязывая его от прежнего владельца
func (r *UserRepository) LinkTelegramChat(ctx context.Context, id string, chatID int64) error {
	err := r.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE users SET telegram_chat_id = NULL WHERE telegram_chat_id = $1 AND id <> $2`, chatID, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE users SET telegram_chat_id = $2 WHERE id = $1`, id, chatID)
		return err
	})
	if err != nil {
		return fmt.Errorf("link telegram chat: %w", err)
	}
	return nil
}

// UnlinkTelegramChat отвязывает чат
func (r *UserRepository) UnlinkTelegramChat(ctx context.Context, chatID int64) error {
	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		_, err := q.Exec(ctx, `UPDATE users SET telegram_chat_id = NULL WHERE telegram_chat_id = $1`, chatID)
		return err
	})
	if err != nil {
		return fmt.Errorf("unlink telegram chat: %w", err)
	}
	return nil
}
