package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const scheduleWindowColumns = `id, teacher_id, day, start_time, end_time, max_bookings, slot_duration, active, created_at`

// ScheduleWindowRepository управляет недельными окнами учителей
type ScheduleWindowRepository struct {
	*base.Repository
	logger *zap.Logger
}

// NewScheduleWindowRepository создаёт новый репозиторий
func NewScheduleWindowRepository(b *base.Repository, logger *zap.Logger) *ScheduleWindowRepository {
	return &ScheduleWindowRepository{
		Repository: b,
		logger:     logger,
	}
}

// Время окна хранится как TEXT "HH:MM"
func scanScheduleWindow(row pgx.Row) (*model.ScheduleWindow, error) {
	var (
		window     model.ScheduleWindow
		start, end string
	)
	err := row.Scan(
		&window.ID,
		&window.TeacherID,
		&window.Day,
		&start,
		&end,
		&window.MaxBookings,
		&window.SlotDuration,
		&window.Active,
		&window.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if window.StartTime, err = model.ParseClock(start); err != nil {
		return nil, fmt.Errorf("window %s start time: %w", window.ID, err)
	}
	if window.EndTime, err = model.ParseClock(end); err != nil {
		return nil, fmt.Errorf("window %s end time: %w", window.ID, err)
	}

	return &window, nil
}

// Create создаёт новое окно
func (r *ScheduleWindowRepository) Create(ctx context.Context, window *model.ScheduleWindow) error {
	query := `
		INSERT INTO schedule_windows (id, teacher_id, day, start_time, end_time, max_bookings, slot_duration, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		return q.QueryRow(
			ctx, query,
			window.ID,
			window.TeacherID,
			window.Day,
			window.StartTime.String(),
			window.EndTime.String(),
			window.MaxBookings,
			window.SlotDuration,
			window.Active,
		).Scan(&window.CreatedAt)
	})

	if err != nil {
		return fmt.Errorf("create schedule window: %w", err)
	}

	r.logger.Debug("Schedule window created",
		zap.String("window_id", window.ID),
		zap.String("teacher_id", window.TeacherID),
		zap.String("day", string(window.Day)),
	)

	return nil
}

// GetByID получает окно по ID
func (r *ScheduleWindowRepository) GetByID(ctx context.Context, id string) (*model.ScheduleWindow, error) {
	query := `SELECT ` + scheduleWindowColumns + ` FROM schedule_windows WHERE id = $1`

	var window *model.ScheduleWindow
	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		var err error
		window, err = scanScheduleWindow(q.QueryRow(ctx, query, id))
		return err
	})

	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule window by id: %w", err)
	}

	return window, nil
}

// GetByTeacherID все окна учителя, включая неактивные
func (r *ScheduleWindowRepository) GetByTeacherID(ctx context.Context, teacherID string) ([]*model.ScheduleWindow, error) {
	query := `
		SELECT ` + scheduleWindowColumns + `
		FROM schedule_windows
		WHERE teacher_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, "get schedule windows by teacher", query, teacherID)
}

// GetActiveByTeacherAndDay активные окна учителя на день недели
func (r *ScheduleWindowRepository) GetActiveByTeacherAndDay(ctx context.Context, teacherID string, day model.Weekday) ([]*model.ScheduleWindow, error) {
	query := `
		SELECT ` + scheduleWindowColumns + `
		FROM schedule_windows
		WHERE teacher_id = $1 AND day = $2 AND active
		ORDER BY start_time
	`
	return r.list(ctx, "get active schedule windows by day", query, teacherID, day)
}

// GetActive все активные окна, видимые студентам
func (r *ScheduleWindowRepository) GetActive(ctx context.Context) ([]*model.ScheduleWindow, error) {
	query := `
		SELECT ` + scheduleWindowColumns + `
		FROM schedule_windows
		WHERE active
		ORDER BY created_at DESC
	`
	return r.list(ctx, "get active schedule windows", query)
}

// GetAll все окна (для администратора)
func (r *ScheduleWindowRepository) GetAll(ctx context.Context) ([]*model.ScheduleWindow, error) {
	query := `SELECT ` + scheduleWindowColumns + ` FROM schedule_windows ORDER BY created_at DESC`
	return r.list(ctx, "get all schedule windows", query)
}

func (r *ScheduleWindowRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.ScheduleWindow, error) {
	var windows []*model.ScheduleWindow
	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		windows = windows[:0]
		for rows.Next() {
			window, err := scanScheduleWindow(rows)
			if err != nil {
				return fmt.Errorf("scan schedule window: %w", err)
			}
			windows = append(windows, window)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return windows, nil
}

// SetActive меняет видимость окна; false если окна нет
func (r *ScheduleWindowRepository) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	var affected int64
	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		var err error
		affected, err = base.ExecAffected(ctx, q, `UPDATE schedule_windows SET active = $2 WHERE id = $1`, id, active)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("set schedule window active: %w", err)
	}
	return affected > 0, nil
}

// Delete удаляет окно; false если окна нет
func (r *ScheduleWindowRepository) Delete(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		var err error
		affected, err = base.ExecAffected(ctx, q, `DELETE FROM schedule_windows WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete schedule window: %w", err)
	}
	return affected > 0, nil
}
