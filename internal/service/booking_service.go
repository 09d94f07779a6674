package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/availability"
	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReserveRequest struct {
	TeacherID string
	Date      string // YYYY-MM-DD
	Time      string // HH:MM
	Message   string
}

// TeacherAgenda брони учителя: ожидающие решения и уже решённые
type TeacherAgenda struct {
	Pending []*model.Reservation `json:"pending"`
	Decided []*model.Reservation `json:"decided"`
}

// BookingService создание брони и переходы её статусов.
// Не больше одной активной брони на слот гарантирует хранилище: условная вставка
// и частичный уникальный индекс. Предварительная проверка даёт понятную ошибку без записи.
type BookingService struct {
	users        UserStore
	windows      ScheduleStore
	reservations ReservationStore
	notifier     Notifier
	audit        Recorder
	policy       availability.SlotPolicy
	now          func() time.Time
	logger       *zap.Logger
}

func NewBookingService(
	users UserStore,
	windows ScheduleStore,
	reservations ReservationStore,
	notifier Notifier,
	audit Recorder,
	policy availability.SlotPolicy,
	logger *zap.Logger,
) *BookingService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &BookingService{
		users:        users,
		windows:      windows,
		reservations: reservations,
		notifier:     notifier,
		audit:        audit,
		policy:       policy,
		now:          time.Now,
		logger:       logger,
	}
}

// Reserve создаёт бронь в статусе pending
func (s *BookingService) Reserve(ctx context.Context, principal *model.Principal, req ReserveRequest) (*model.Reservation, error) {
	if principal == nil {
		return nil, model.ErrUnauthenticated
	}
	switch principal.Role {
	case model.RoleStudent:
	default:
		return nil, fmt.Errorf("%w: only students can book appointments", model.ErrPermissionDenied)
	}

	student, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, model.ErrUnauthenticated
	}
	if !student.Approved {
		return nil, model.ErrAccountPendingApproval
	}

	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	slot, err := model.ParseClock(req.Time)
	if err != nil {
		return nil, err
	}

	teacher, err := s.users.GetByID(ctx, strings.TrimSpace(req.TeacherID))
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil || !teacher.IsApprovedTeacher() {
		return nil, fmt.Errorf("teacher %q: %w", req.TeacherID, model.ErrNotFound)
	}

	// Если у учителя есть активные окна на этот день, время должно быть одним из их слотов
	windows, err := s.windows.GetActiveByTeacherAndDay(ctx, teacher.ID, model.WeekdayOf(date))
	if err != nil {
		return nil, fmt.Errorf("get teacher schedule: %w", err)
	}
	if len(windows) > 0 && !s.offered(windows, slot.String()) {
		return nil, fmt.Errorf("%s at %s: %w", date.Format(model.DateLayout), slot, model.ErrSlotNotOffered)
	}

	reservation := &model.Reservation{
		ID:          uuid.NewString(),
		StudentID:   student.ID,
		StudentName: student.Name,
		TeacherID:   teacher.ID,
		Date:        date.Format(model.DateLayout),
		Time:        slot.String(),
		Message:     strings.TrimSpace(req.Message),
		Status:      model.ReservationStatusPending,
	}

	existing, err := s.reservations.FindActiveBySlot(ctx, reservation.SlotKey())
	if err != nil {
		return nil, fmt.Errorf("check slot: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%s %s: %w", reservation.Date, reservation.Time, model.ErrSlotAlreadyBooked)
	}

	// Между проверкой и вставкой слот может занять другой клиент; это решает условная вставка
	if err := s.reservations.CreateIfSlotFree(ctx, reservation); err != nil {
		if errors.Is(err, model.ErrSlotAlreadyBooked) {
			s.logger.Info("Slot taken concurrently",
				zap.String("teacher_id", teacher.ID),
				zap.String("date", reservation.Date),
				zap.String("time", reservation.Time),
			)
		}
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	s.logger.Info("Appointment booked",
		zap.String("reservation_id", reservation.ID),
		zap.String("student_id", student.ID),
		zap.String("teacher_id", teacher.ID),
		zap.String("date", reservation.Date),
		zap.String("time", reservation.Time),
	)
	s.audit.Record(ctx, principal, fmt.Sprintf("Appointment booked with teacher: %s at %s %s", teacher.ID, reservation.Date, reservation.Time))
	s.notify(ctx, teacher, fmt.Sprintf("📅 Новая заявка от %s на %s в %s", student.Name, reservation.Date, reservation.Time))

	return reservation, nil
}

func (s *BookingService) offered(windows []*model.ScheduleWindow, slot string) bool {
	for _, w := range windows {
		if availability.Offers(w, slot, s.policy) {
			return true
		}
	}
	return false
}

// Approve учитель подтверждает бронь
func (s *BookingService) Approve(ctx context.Context, principal *model.Principal, id string) (*model.Reservation, error) {
	return s.transition(ctx, principal, id, model.ReservationActionApprove)
}

// Reject учитель отклоняет бронь
func (s *BookingService) Reject(ctx context.Context, principal *model.Principal, id string) (*model.Reservation, error) {
	return s.transition(ctx, principal, id, model.ReservationActionReject)
}

// Cancel студент отменяет свою бронь
func (s *BookingService) Cancel(ctx context.Context, principal *model.Principal, id string) (*model.Reservation, error) {
	return s.transition(ctx, principal, id, model.ReservationActionCancel)
}

func (s *BookingService) transition(ctx context.Context, principal *model.Principal, id string, action model.ReservationAction) (*model.Reservation, error) {
	if principal == nil {
		return nil, model.ErrUnauthenticated
	}
	actorRole := action.ActorRole()
	if principal.Role != actorRole {
		return nil, fmt.Errorf("%w: %s cannot %s reservations", model.ErrPermissionDenied, principal.Role, action)
	}

	reservation, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	if reservation == nil {
		return nil, fmt.Errorf("reservation %s: %w", id, model.ErrNotFound)
	}

	switch actorRole {
	case model.RoleTeacher:
		if reservation.TeacherID != principal.UserID {
			return nil, fmt.Errorf("%w: reservation belongs to another teacher", model.ErrPermissionDenied)
		}
	case model.RoleStudent:
		if reservation.StudentID != principal.UserID {
			return nil, fmt.Errorf("%w: reservation belongs to another student", model.ErrPermissionDenied)
		}
	}

	to, err := reservation.Status.Transition(action)
	if err != nil {
		return nil, err
	}

	change := model.StatusChange{
		ReservationID: id,
		To:            to,
		ActorID:       principal.UserID,
		At:            s.now().UTC(),
	}
	updated, err := s.reservations.TransitionFromPending(ctx, change)
	if err != nil {
		return nil, fmt.Errorf("update reservation status: %w", err)
	}
	if updated == nil {
		// бронь успели перевести из pending параллельно
		return nil, fmt.Errorf("%w: reservation %s is no longer pending", model.ErrInvalidStateTransition, id)
	}

	s.logger.Info("Reservation status changed",
		zap.String("reservation_id", id),
		zap.String("status", string(updated.Status)),
		zap.String("actor_id", principal.UserID),
	)

	switch action {
	case model.ReservationActionCancel:
		s.audit.Record(ctx, principal, fmt.Sprintf("Appointment %s cancelled by student", id))
		s.notifyByID(ctx, updated.TeacherID, fmt.Sprintf("❌ %s отменил(а) запись на %s в %s", updated.StudentName, updated.Date, updated.Time))
	default:
		s.audit.Record(ctx, principal, fmt.Sprintf("Appointment %s for student: %s", updated.Status, updated.StudentName))
		s.notifyByID(ctx, updated.StudentID, fmt.Sprintf("%s Запись к %s на %s в %s: %s", StatusEmoji(updated.Status), principal.Name, updated.Date, updated.Time, StatusText(updated.Status)))
	}

	return updated, nil
}

// StudentReservations брони студента, новые первыми
func (s *BookingService) StudentReservations(ctx context.Context, principal *model.Principal) ([]*model.Reservation, error) {
	if err := requireRole(principal, model.RoleStudent); err != nil {
		return nil, err
	}

	reservations, err := s.reservations.ListByStudent(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("list student reservations: %w", err)
	}
	return reservations, nil
}

// TeacherReservations брони учителя, разделённые на ожидающие и решённые
func (s *BookingService) TeacherReservations(ctx context.Context, principal *model.Principal) (*TeacherAgenda, error) {
	if err := requireRole(principal, model.RoleTeacher); err != nil {
		return nil, err
	}

	reservations, err := s.reservations.ListByTeacher(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("list teacher reservations: %w", err)
	}

	agenda := &TeacherAgenda{
		Pending: []*model.Reservation{},
		Decided: []*model.Reservation{},
	}
	for _, r := range reservations {
		if r.Status == model.ReservationStatusPending {
			agenda.Pending = append(agenda.Pending, r)
		} else {
			agenda.Decided = append(agenda.Decided, r)
		}
	}
	return agenda, nil
}

// PendingForTeacher ожидающие решения брони учителя
func (s *BookingService) PendingForTeacher(ctx context.Context, principal *model.Principal) ([]*model.Reservation, error) {
	agenda, err := s.TeacherReservations(ctx, principal)
	if err != nil {
		return nil, err
	}
	return agenda.Pending, nil
}

// SendPendingDigest рассылает каждому учителю сводку ожидающих броней.
// Возвращает число учителей, которым ушла сводка
func (s *BookingService) SendPendingDigest(ctx context.Context) (int, error) {
	pending, err := s.reservations.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending reservations: %w", err)
	}

	byTeacher := make(map[string][]*model.Reservation)
	var order []string
	for _, r := range pending {
		if _, ok := byTeacher[r.TeacherID]; !ok {
			order = append(order, r.TeacherID)
		}
		byTeacher[r.TeacherID] = append(byTeacher[r.TeacherID], r)
	}

	sent := 0
	for _, teacherID := range order {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		teacher, err := s.users.GetByID(ctx, teacherID)
		if err != nil {
			s.logger.Warn("Failed to load teacher for digest", zap.String("teacher_id", teacherID), zap.Error(err))
			continue
		}
		if teacher == nil {
			continue
		}

		if err := s.notifier.Notify(ctx, teacher, FormatPendingDigest(byTeacher[teacherID])); err != nil {
			s.logger.Warn("Failed to send pending digest",
				zap.String("teacher_id", teacherID),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	s.logger.Info("Pending digest sent",
		zap.Int("teachers", sent),
		zap.Int("reservations", len(pending)),
	)
	return sent, nil
}

// FormatPendingDigest текст сводки ожидающих броней
func FormatPendingDigest(reservations []*model.Reservation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏳ Заявок, ожидающих решения: %d\n", len(reservations))
	for _, r := range reservations {
		fmt.Fprintf(&b, "• %s %s - %s (/approve %s)\n", r.Date, r.Time, r.StudentName, r.ID)
	}
	return b.String()
}

func (s *BookingService) notifyByID(ctx context.Context, userID, text string) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to load notification recipient", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if user == nil {
		return
	}
	s.notify(ctx, user, text)
}

// notify уведомление без гарантии доставки: ошибка только логируется
func (s *BookingService) notify(ctx context.Context, recipient *model.User, text string) {
	if err := s.notifier.Notify(ctx, recipient, text); err != nil {
		s.logger.Warn("Failed to send notification",
			zap.String("user_id", recipient.ID),
			zap.Error(err),
		)
	}
}

// StatusText статус брони для пользователя
func StatusText(status model.ReservationStatus) string {
	switch status {
	case model.ReservationStatusPending:
		return "ожидает подтверждения"
	case model.ReservationStatusApproved:
		return "подтверждена"
	case model.ReservationStatusRejected:
		return "отклонена"
	case model.ReservationStatusCancelled:
		return "отменена"
	default:
		return string(status)
	}
}

// StatusEmoji значок статуса брони
func StatusEmoji(status model.ReservationStatus) string {
	switch status {
	case model.ReservationStatusPending:
		return "⏳"
	case model.ReservationStatusApproved:
		return "✅"
	case model.ReservationStatusRejected:
		return "❌"
	default:
		return "🚫"
	}
}
