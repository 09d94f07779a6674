package model

import (
	"fmt"
	"strings"
	"time"
)

// Role закрытое перечисление ролей
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole разбирает роль из строки
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
}

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	Approved       bool      `json:"approved"`
	Department     string    `json:"department,omitempty"`
	Subject        string    `json:"subject,omitempty"`
	TelegramChatID *int64    `json:"-"` // чат для уведомлений, nil если не привязан
	CreatedAt      time.Time `json:"createdAt"`
}

// IsApprovedTeacher учитель, доступный студентам
func (u *User) IsApprovedTeacher() bool {
	return u.Role == RoleTeacher && u.Approved
}

// MatchesQuery регистронезависимый поиск по имени, кафедре и предмету
func (u *User) MatchesQuery(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, field := range []string{u.Name, u.Department, u.Subject} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Principal аутентифицированный пользователь, от имени которого выполняется операция.
// Передаётся явно в каждый вызов сервиса.
type Principal struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// PrincipalOf строит Principal из пользователя
func PrincipalOf(u *User) *Principal {
	return &Principal{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Session результат входа: пользователь и подписанный токен
type Session struct {
	Principal *Principal `json:"principal"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// PrincipalChange событие смены текущего пользователя
type PrincipalChange struct {
	Principal *Principal
	SignedIn  bool
	At        time.Time
}
