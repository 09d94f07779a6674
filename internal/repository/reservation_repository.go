package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const reservationColumns = `id, student_id, student_name, teacher_id, date, time, message, status,
	approved_by, approved_at, rejected_by, rejected_at, cancelled_by, cancelled_at, created_at, updated_at`

// Частичный уникальный индекс: одна активная бронь на (учитель, дата, время)
const constraintActiveSlot = "reservations_active_slot_key"

type ReservationRepository struct {
	*base.Repository
}

func NewReservationRepository(b *base.Repository) *ReservationRepository {
	return &ReservationRepository{Repository: b}
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var reservation model.Reservation
	err := row.Scan(
		&reservation.ID,
		&reservation.StudentID,
		&reservation.StudentName,
		&reservation.TeacherID,
		&reservation.Date,
		&reservation.Time,
		&reservation.Message,
		&reservation.Status,
		&reservation.ApprovedBy,
		&reservation.ApprovedAt,
		&reservation.RejectedBy,
		&reservation.RejectedAt,
		&reservation.CancelledBy,
		&reservation.CancelledAt,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// CreateIfSlotFree вставляет бронь, только если на слот нет активной брони.
// Занятый слот (в том числе проигранная гонка на уникальном индексе) -> model.ErrSlotAlreadyBooked
func (r *ReservationRepository) CreateIfSlotFree(ctx context.Context, reservation *model.Reservation) error {
	query := `
		INSERT INTO reservations (id, student_id, student_name, teacher_id, date, time, message, status)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8
		WHERE NOT EXISTS (
			SELECT 1 FROM reservations
			WHERE teacher_id = $4 AND date = $5 AND time = $6 AND status IN ('pending', 'approved')
		)
		RETURNING created_at, updated_at
	`

	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		return q.QueryRow(
			ctx, query,
			reservation.ID,
			reservation.StudentID,
			reservation.StudentName,
			reservation.TeacherID,
			reservation.Date,
			reservation.Time,
			reservation.Message,
			reservation.Status,
		).Scan(&reservation.CreatedAt, &reservation.UpdatedAt)
	})

	switch {
	case err == nil:
		return nil
	case base.IsNotFound(err), base.IsUniqueViolation(err, constraintActiveSlot):
		return fmt.Errorf("create reservation %s %s: %w", reservation.Date, reservation.Time, model.ErrSlotAlreadyBooked)
	default:
		return fmt.Errorf("create reservation: %w", err)
	}
}

// GetByID получает бронь по ID
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	var reservation *model.Reservation
	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		var err error
		reservation, err = scanReservation(q.QueryRow(ctx, query, id))
		return err
	})

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation by id: %w", err)
	}

	return reservation, nil
}

// FindActiveBySlot активные брони на слот
func (r *ReservationRepository) FindActiveBySlot(ctx context.Context, key model.SlotKey) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE teacher_id = $1 AND date = $2 AND time = $3 AND status IN ('pending', 'approved')
	`
	return r.list(ctx, "find active reservations by slot", query, key.TeacherID, key.Date, key.Time)
}

// ListActiveByTeacherAndDate активные брони учителя на дату, для отметки занятых слотов
func (r *ReservationRepository) ListActiveByTeacherAndDate(ctx context.Context, teacherID, date string) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE teacher_id = $1 AND date = $2 AND status IN ('pending', 'approved')
		ORDER BY time
	`
	return r.list(ctx, "list active reservations by date", query, teacherID, date)
}

// ListByStudent брони студента, новые первыми
func (r *ReservationRepository) ListByStudent(ctx context.Context, studentID string) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE student_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, "list reservations by student", query, studentID)
}

// ListByTeacher брони учителя, новые первыми
func (r *ReservationRepository) ListByTeacher(ctx context.Context, teacherID string) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE teacher_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, "list reservations by teacher", query, teacherID)
}

// ListPending все ожидающие решения брони, сгруппированные по учителю
func (r *ReservationRepository) ListPending(ctx context.Context) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = 'pending'
		ORDER BY teacher_id, date, time
	`
	return r.list(ctx, "list pending reservations", query)
}

func (r *ReservationRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Reservation, error) {
	var reservations []*model.Reservation
	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		reservations = reservations[:0]
		for rows.Next() {
			reservation, err := scanReservation(rows)
			if err != nil {
				return fmt.Errorf("scan reservation: %w", err)
			}
			reservations = append(reservations, reservation)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reservations, nil
}

// TransitionFromPending условно переводит бронь из pending в change.To.
// Возвращает (nil, nil), если брони нет или она уже не в pending
func (r *ReservationRepository) TransitionFromPending(ctx context.Context, change model.StatusChange) (*model.Reservation, error) {
	query := `
		UPDATE reservations SET
			status       = $2::text,
			updated_at   = $4,
			approved_by  = CASE WHEN $2::text = 'approved'  THEN $3 ELSE approved_by  END,
			approved_at  = CASE WHEN $2::text = 'approved'  THEN $4 ELSE approved_at  END,
			rejected_by  = CASE WHEN $2::text = 'rejected'  THEN $3 ELSE rejected_by  END,
			rejected_at  = CASE WHEN $2::text = 'rejected'  THEN $4 ELSE rejected_at  END,
			cancelled_by = CASE WHEN $2::text = 'cancelled' THEN $3 ELSE cancelled_by END,
			cancelled_at = CASE WHEN $2::text = 'cancelled' THEN $4 ELSE cancelled_at END
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + reservationColumns

	var reservation *model.Reservation
	err := r.Do(ctx, func(ctx context.Context, q base.Querier) error {
		var err error
		reservation, err = scanReservation(q.QueryRow(
			ctx, query,
			change.ReservationID,
			string(change.To),
			change.ActorID,
			change.At,
		))
		return err
	})

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("transition reservation %s to %s: %w", change.ReservationID, change.To, err)
	}

	return reservation, nil
}
