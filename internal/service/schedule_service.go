package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/appointment_bot/internal/availability"
	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateWindowRequest struct {
	TeacherID    string // учитель создаёт окно только себе; администратор указывает учителя явно
	Day          string
	StartTime    string
	EndTime      string
	SlotDuration int // 0 = model.DefaultSlotDuration
	MaxBookings  int // 0 = model.DefaultMaxBookings
}

// ScheduleService недельные окна учителей и слоты на конкретную дату
type ScheduleService struct {
	windows      ScheduleStore
	users        UserStore
	reservations ReservationStore
	audit        Recorder
	policy       availability.SlotPolicy
	logger       *zap.Logger
}

func NewScheduleService(
	windows ScheduleStore,
	users UserStore,
	reservations ReservationStore,
	audit Recorder,
	policy availability.SlotPolicy,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		windows:      windows,
		users:        users,
		reservations: reservations,
		audit:        audit,
		policy:       policy,
		logger:       logger,
	}
}

// CreateWindow создаёт активное окно
func (s *ScheduleService) CreateWindow(ctx context.Context, principal *model.Principal, req CreateWindowRequest) (*model.ScheduleWindow, error) {
	if principal == nil {
		return nil, model.ErrUnauthenticated
	}

	teacherID := strings.TrimSpace(req.TeacherID)
	switch principal.Role {
	case model.RoleTeacher:
		if teacherID != "" && teacherID != principal.UserID {
			return nil, fmt.Errorf("%w: teachers manage only their own schedule", model.ErrPermissionDenied)
		}
		teacherID = principal.UserID
	case model.RoleAdmin:
		teacher, err := s.users.GetByID(ctx, teacherID)
		if err != nil {
			return nil, fmt.Errorf("get teacher: %w", err)
		}
		if teacher == nil || teacher.Role != model.RoleTeacher {
			return nil, fmt.Errorf("teacher %q: %w", teacherID, model.ErrNotFound)
		}
	default:
		return nil, fmt.Errorf("%w: role %s cannot create schedules", model.ErrPermissionDenied, principal.Role)
	}

	day, err := model.ParseWeekday(req.Day)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidScheduleWindow, err)
	}
	start, err := model.ParseClock(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: start time: %v", model.ErrInvalidScheduleWindow, err)
	}
	end, err := model.ParseClock(req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: end time: %v", model.ErrInvalidScheduleWindow, err)
	}

	window := &model.ScheduleWindow{
		ID:           uuid.NewString(),
		TeacherID:    teacherID,
		Day:          day,
		StartTime:    start,
		EndTime:      end,
		MaxBookings:  req.MaxBookings,
		SlotDuration: req.SlotDuration,
		Active:       true,
	}
	if window.SlotDuration == 0 {
		window.SlotDuration = model.DefaultSlotDuration
	}
	if window.MaxBookings == 0 {
		window.MaxBookings = model.DefaultMaxBookings
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	if err := s.windows.Create(ctx, window); err != nil {
		return nil, fmt.Errorf("create schedule window: %w", err)
	}

	s.logger.Info("Schedule window created",
		zap.String("window_id", window.ID),
		zap.String("teacher_id", teacherID),
		zap.String("day", string(day)),
		zap.String("start", start.String()),
		zap.String("end", end.String()),
	)
	s.audit.Record(ctx, principal, fmt.Sprintf("Schedule added for teacher %s on %s", teacherID, day))

	return window, nil
}

// ListWindows окна, видимые пользователю: студенту активные, учителю свои, администратору все.
// teacherID сужает выборку студента и администратора до одного учителя
func (s *ScheduleService) ListWindows(ctx context.Context, principal *model.Principal, teacherID string) ([]*model.ScheduleWindow, error) {
	if principal == nil {
		return nil, model.ErrUnauthenticated
	}

	var (
		windows []*model.ScheduleWindow
		err     error
	)
	switch principal.Role {
	case model.RoleStudent:
		windows, err = s.windows.GetActive(ctx)
	case model.RoleTeacher:
		windows, err = s.windows.GetByTeacherID(ctx, principal.UserID)
		teacherID = ""
	case model.RoleAdmin:
		windows, err = s.windows.GetAll(ctx)
	default:
		return nil, fmt.Errorf("%w: role %s", model.ErrPermissionDenied, principal.Role)
	}
	if err != nil {
		return nil, fmt.Errorf("list schedule windows: %w", err)
	}

	if teacherID == "" {
		return windows, nil
	}
	filtered := make([]*model.ScheduleWindow, 0, len(windows))
	for _, w := range windows {
		if w.TeacherID == teacherID {
			filtered = append(filtered, w)
		}
	}
	return filtered, nil
}

// getManaged окно, которым principal может управлять: владелец-учитель или администратор
func (s *ScheduleService) getManaged(ctx context.Context, principal *model.Principal, id string) (*model.ScheduleWindow, error) {
	if err := requireRole(principal, model.RoleTeacher, model.RoleAdmin); err != nil {
		return nil, err
	}

	window, err := s.windows.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get schedule window: %w", err)
	}
	if window == nil {
		return nil, fmt.Errorf("schedule window %s: %w", id, model.ErrNotFound)
	}
	if principal.Role == model.RoleTeacher && window.TeacherID != principal.UserID {
		return nil, fmt.Errorf("%w: schedule window belongs to another teacher", model.ErrPermissionDenied)
	}
	return window, nil
}

// SetActive показывает или скрывает окно от студентов
func (s *ScheduleService) SetActive(ctx context.Context, principal *model.Principal, id string, active bool) (*model.ScheduleWindow, error) {
	window, err := s.getManaged(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	found, err := s.windows.SetActive(ctx, id, active)
	if err != nil {
		return nil, fmt.Errorf("set schedule window active: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("schedule window %s: %w", id, model.ErrNotFound)
	}
	window.Active = active

	state := "deactivated"
	if active {
		state = "activated"
	}
	s.logger.Info("Schedule window toggled",
		zap.String("window_id", id),
		zap.Bool("active", active),
	)
	s.audit.Record(ctx, principal, fmt.Sprintf("Schedule %s %s", id, state))

	return window, nil
}

// Toggle переключает видимость окна
func (s *ScheduleService) Toggle(ctx context.Context, principal *model.Principal, id string) (*model.ScheduleWindow, error) {
	window, err := s.getManaged(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	return s.SetActive(ctx, principal, id, !window.Active)
}

// DeleteWindow удаляет окно. Уже созданные брони не затрагиваются
func (s *ScheduleService) DeleteWindow(ctx context.Context, principal *model.Principal, id string) error {
	if _, err := s.getManaged(ctx, principal, id); err != nil {
		return err
	}

	found, err := s.windows.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete schedule window: %w", err)
	}
	if !found {
		return fmt.Errorf("schedule window %s: %w", id, model.ErrNotFound)
	}

	s.logger.Info("Schedule window deleted", zap.String("window_id", id))
	s.audit.Record(ctx, principal, fmt.Sprintf("Schedule %s deleted", id))
	return nil
}

// GetWindow окно, видимое пользователю. Студент не видит скрытые окна
func (s *ScheduleService) GetWindow(ctx context.Context, principal *model.Principal, id string) (*model.ScheduleWindow, error) {
	if principal == nil {
		return nil, model.ErrUnauthenticated
	}

	window, err := s.windows.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get schedule window: %w", err)
	}
	if window == nil || (principal.Role == model.RoleStudent && !window.Active) {
		return nil, fmt.Errorf("schedule window %s: %w", id, model.ErrNotFound)
	}
	return window, nil
}

// Slots слоты окна на дату с отметкой занятых. Дата должна приходиться на день окна
func (s *ScheduleService) Slots(ctx context.Context, principal *model.Principal, windowID, date string) ([]model.SlotAvailability, error) {
	window, err := s.GetWindow(ctx, principal, windowID)
	if err != nil {
		return nil, err
	}

	day, err := model.ParseDate(date)
	if err != nil {
		return nil, err
	}
	if model.WeekdayOf(day) != window.Day {
		return nil, fmt.Errorf("%w: %s is not a %s", model.ErrInvalidInput, date, window.Day)
	}

	booked, err := s.reservations.ListActiveByTeacherAndDate(ctx, window.TeacherID, day.Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("list active reservations: %w", err)
	}
	taken := make(map[string]bool, len(booked))
	for _, r := range booked {
		taken[r.Time] = true
	}

	slots := availability.ForWindow(window, s.policy)
	result := make([]model.SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		result = append(result, model.SlotAvailability{Time: slot, Booked: taken[slot]})
	}
	return result, nil
}
