package model

import "errors"

// Доменные ошибки. Оборачиваются через fmt.Errorf("...: %w") и проверяются errors.Is
var (
	ErrInvalidScheduleWindow  = errors.New("invalid schedule window")
	ErrSlotAlreadyBooked      = errors.New("slot already booked")
	ErrInvalidStateTransition = errors.New("invalid state transition")

	ErrNotFound               = errors.New("not found")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrSlotNotOffered         = errors.New("slot is not offered by teacher schedule")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAccountPendingApproval = errors.New("account is pending approval")
	ErrEmailTaken             = errors.New("email already registered")
	ErrUnauthenticated        = errors.New("unauthenticated")
)

// IsUserFacing сообщает, что ошибка вызвана действиями пользователя,
// а не сбоем системы: её можно показать как есть и не повторять
func IsUserFacing(err error) bool {
	for _, target := range []error{
		ErrInvalidScheduleWindow,
		ErrSlotAlreadyBooked,
		ErrInvalidStateTransition,
		ErrNotFound,
		ErrPermissionDenied,
		ErrSlotNotOffered,
		ErrInvalidInput,
		ErrInvalidCredentials,
		ErrAccountPendingApproval,
		ErrEmailTaken,
		ErrUnauthenticated,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
