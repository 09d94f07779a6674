package api

import (
	"context"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/service"
)

// Операции сервисов, доступные через HTTP. Реализуются пакетом service

type Identity interface {
	SignUp(ctx context.Context, req service.SignUpRequest) (*model.User, error)
	SignIn(ctx context.Context, req service.SignInRequest) (*model.Session, error)
	SignOut(ctx context.Context, principal *model.Principal) error
	Authenticate(token string) (*model.Principal, error)
}

type Directory interface {
	SearchTeachers(ctx context.Context, principal *model.Principal, query string) ([]*model.User, error)
	ListTeachers(ctx context.Context, principal *model.Principal) ([]*model.User, error)
	PendingStudents(ctx context.Context, principal *model.Principal) ([]*model.User, error)
	ApproveStudent(ctx context.Context, principal *model.Principal, studentID string) error
	RejectStudent(ctx context.Context, principal *model.Principal, studentID string) error
	AddTeacher(ctx context.Context, principal *model.Principal, req service.AddTeacherRequest) (*model.User, error)
	DeleteTeacher(ctx context.Context, principal *model.Principal, teacherID string) error
}

type Schedules interface {
	CreateWindow(ctx context.Context, principal *model.Principal, req service.CreateWindowRequest) (*model.ScheduleWindow, error)
	ListWindows(ctx context.Context, principal *model.Principal, teacherID string) ([]*model.ScheduleWindow, error)
	SetActive(ctx context.Context, principal *model.Principal, id string, active bool) (*model.ScheduleWindow, error)
	DeleteWindow(ctx context.Context, principal *model.Principal, id string) error
	Slots(ctx context.Context, principal *model.Principal, windowID, date string) ([]model.SlotAvailability, error)
}

type Bookings interface {
	Reserve(ctx context.Context, principal *model.Principal, req service.ReserveRequest) (*model.Reservation, error)
	Approve(ctx context.Context, principal *model.Principal, id string) (*model.Reservation, error)
	Reject(ctx context.Context, principal *model.Principal, id string) (*model.Reservation, error)
	Cancel(ctx context.Context, principal *model.Principal, id string) (*model.Reservation, error)
	StudentReservations(ctx context.Context, principal *model.Principal) ([]*model.Reservation, error)
	TeacherReservations(ctx context.Context, principal *model.Principal) (*service.TeacherAgenda, error)
}

type Inbox interface {
	Send(ctx context.Context, principal *model.Principal, toID, content string) (*model.Message, error)
	Inbox(ctx context.Context, principal *model.Principal) ([]*model.Message, error)
}

type AuditLog interface {
	Recent(ctx context.Context, principal *model.Principal) ([]*model.AuditEntry, error)
}

var (
	_ Identity  = (*service.IdentityService)(nil)
	_ Directory = (*service.UserService)(nil)
	_ Schedules = (*service.ScheduleService)(nil)
	_ Bookings  = (*service.BookingService)(nil)
	_ Inbox     = (*service.MessageService)(nil)
	_ AuditLog  = (*service.AuditService)(nil)
)
