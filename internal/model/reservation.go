package model

import (
	"fmt"
	"time"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"   // Ожидает решения учителя
	ReservationStatusApproved  ReservationStatus = "approved"  // Одобрено учителем
	ReservationStatusRejected  ReservationStatus = "rejected"  // Отклонено учителем
	ReservationStatusCancelled ReservationStatus = "cancelled" // Отменено студентом
)

// IsActive занимает ли бронь слот
func (s ReservationStatus) IsActive() bool {
	return s == ReservationStatusPending || s == ReservationStatusApproved
}

// ReservationAction действие над бронью
type ReservationAction string

const (
	ReservationActionApprove ReservationAction = "approve"
	ReservationActionReject  ReservationAction = "reject"
	ReservationActionCancel  ReservationAction = "cancel"
)

// Transition возвращает новый статус для действия.
// Из pending разрешены approve/reject/cancel, остальные статусы терминальные.
func (s ReservationStatus) Transition(action ReservationAction) (ReservationStatus, error) {
	if s != ReservationStatusPending {
		return s, fmt.Errorf("%w: cannot %s reservation in status %s", ErrInvalidStateTransition, action, s)
	}

	switch action {
	case ReservationActionApprove:
		return ReservationStatusApproved, nil
	case ReservationActionReject:
		return ReservationStatusRejected, nil
	case ReservationActionCancel:
		return ReservationStatusCancelled, nil
	default:
		return s, fmt.Errorf("%w: unknown action %q", ErrInvalidStateTransition, action)
	}
}

// ActorRole какая роль выполняет действие
func (a ReservationAction) ActorRole() Role {
	switch a {
	case ReservationActionCancel:
		return RoleStudent
	default:
		return RoleTeacher
	}
}

// Reservation запрос студента на слот учителя в конкретную дату
type Reservation struct {
	ID          string            `json:"id"`
	StudentID   string            `json:"studentId"`
	StudentName string            `json:"studentName"`
	TeacherID   string            `json:"teacherId"`
	Date        string            `json:"date"` // YYYY-MM-DD
	Time        string            `json:"time"` // HH:MM
	Message     string            `json:"message"`
	Status      ReservationStatus `json:"status"`
	ApprovedBy  *string           `json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time        `json:"approvedAt,omitempty"`
	RejectedBy  *string           `json:"rejectedBy,omitempty"`
	RejectedAt  *time.Time        `json:"rejectedAt,omitempty"`
	CancelledBy *string           `json:"cancelledBy,omitempty"`
	CancelledAt *time.Time        `json:"cancelledAt,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// SlotKey ключ уникальности активной брони
type SlotKey struct {
	TeacherID string
	Date      string
	Time      string
}

func (r *Reservation) SlotKey() SlotKey {
	return SlotKey{TeacherID: r.TeacherID, Date: r.Date, Time: r.Time}
}

// StatusChange описывает условный переход pending -> To
type StatusChange struct {
	ReservationID string
	To            ReservationStatus
	ActorID       string
	At            time.Time
}

// SlotAvailability слот окна в конкретную дату
type SlotAvailability struct {
	Time   string `json:"time"`
	Booked bool   `json:"booked"`
}
