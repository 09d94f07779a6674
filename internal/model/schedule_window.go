package model

import (
	"fmt"
	"time"
)

const (
	DefaultSlotDuration = 30
	DefaultMaxBookings  = 1
)

// ScheduleWindow регулярное недельное окно доступности учителя
type ScheduleWindow struct {
	ID           string    `json:"id"`
	TeacherID    string    `json:"teacherId"`
	Day          Weekday   `json:"day"`
	StartTime    Clock     `json:"startTime"`
	EndTime      Clock     `json:"endTime"`
	MaxBookings  int       `json:"maxBookings"`
	SlotDuration int       `json:"slotDuration"` // длительность слота в минутах
	Active       bool      `json:"active"`       // показывается ли студентам
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate проверяет инварианты окна: start < end, duration > 0
func (w *ScheduleWindow) Validate() error {
	if !w.Day.Valid() {
		return fmt.Errorf("%w: unknown day %q", ErrInvalidScheduleWindow, w.Day)
	}
	if w.StartTime >= w.EndTime {
		return fmt.Errorf("%w: end time %s must be after start time %s", ErrInvalidScheduleWindow, w.EndTime, w.StartTime)
	}
	if w.SlotDuration <= 0 {
		return fmt.Errorf("%w: slot duration must be positive, got %d", ErrInvalidScheduleWindow, w.SlotDuration)
	}
	if w.MaxBookings <= 0 {
		return fmt.Errorf("%w: max bookings must be positive, got %d", ErrInvalidScheduleWindow, w.MaxBookings)
	}
	return nil
}
