package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/model"
)

// Хранилища, которые нужны сервисам. Реализуются репозиториями pgx из internal/repository,
// в тестах подменяются фейками в памяти.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error)
	ListByRole(ctx context.Context, role model.Role, onlyApproved bool) ([]*model.User, error)
	ListPendingApproval(ctx context.Context) ([]*model.User, error)
	SetApproved(ctx context.Context, id string, approved bool) (bool, error)
	DeleteWithRole(ctx context.Context, id string, role model.Role) (bool, error)
	LinkTelegramChat(ctx context.Context, id string, chatID int64) error
	UnlinkTelegramChat(ctx context.Context, chatID int64) error
}

type ScheduleStore interface {
	Create(ctx context.Context, window *model.ScheduleWindow) error
	GetByID(ctx context.Context, id string) (*model.ScheduleWindow, error)
	GetByTeacherID(ctx context.Context, teacherID string) ([]*model.ScheduleWindow, error)
	GetActiveByTeacherAndDay(ctx context.Context, teacherID string, day model.Weekday) ([]*model.ScheduleWindow, error)
	GetActive(ctx context.Context) ([]*model.ScheduleWindow, error)
	GetAll(ctx context.Context) ([]*model.ScheduleWindow, error)
	SetActive(ctx context.Context, id string, active bool) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type ReservationStore interface {
	CreateIfSlotFree(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	FindActiveBySlot(ctx context.Context, key model.SlotKey) ([]*model.Reservation, error)
	ListActiveByTeacherAndDate(ctx context.Context, teacherID, date string) ([]*model.Reservation, error)
	ListByStudent(ctx context.Context, studentID string) ([]*model.Reservation, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]*model.Reservation, error)
	ListPending(ctx context.Context) ([]*model.Reservation, error)
	TransitionFromPending(ctx context.Context, change model.StatusChange) (*model.Reservation, error)
}

type MessageStore interface {
	Create(ctx context.Context, message *model.Message) error
	ListSent(ctx context.Context, userID string, limit int) ([]*model.Message, error)
	ListReceived(ctx context.Context, userID string, limit int) ([]*model.Message, error)
}

type AuditStore interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]*model.AuditEntry, error)
}

// Notifier доставляет текстовое уведомление пользователю. Доставка не гарантируется
type Notifier interface {
	Notify(ctx context.Context, recipient *model.User, text string) error
}

// TokenIssuer выпускает и проверяет токены сессии
type TokenIssuer interface {
	Issue(principal *model.Principal) (token string, expiresAt time.Time, err error)
	Parse(token string) (*model.Principal, error)
}

// Recorder пишет действие в журнал
type Recorder interface {
	Record(ctx context.Context, actor *model.Principal, action string)
}

// NopNotifier ничего не отправляет
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, *model.User, string) error { return nil }
