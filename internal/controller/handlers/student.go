package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/service"
	"github.com/go-telegram/bot/models"
)

// Префиксы callback data
const (
	cbBook           = "book"           // book:<teacherID>:<date>:<HH:MM>
	cbApprove        = "approve"        // approve:<reservationID>
	cbReject         = "reject"         // reject:<reservationID>
	cbCancel         = "cancel"         // cancel:<reservationID>
	cbApproveStudent = "approvestudent" // approvestudent:<userID>
	cbRejectStudent  = "rejectstudent"  // rejectstudent:<userID>
)

// callbackData собирает callback data из частей
func callbackData(action string, parts ...string) string {
	return action + ":" + strings.Join(parts, ":")
}

// nextOccurrence ближайшая дата с заданным днём недели, начиная с from
func nextOccurrence(from time.Time, day model.Weekday) string {
	offset := (int(day.TimeWeekday()) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, offset).Format(time.DateOnly)
}

// handleTeachers обрабатывает команду /teachers [поиск]
func (h *Handlers) handleTeachers(ctx context.Context, chatID int64, cmd command) {
	p, ok := h.requirePrincipal(ctx, chatID)
	if !ok {
		return
	}

	teachers, err := h.userService.SearchTeachers(ctx, p, cmd.tail)
	if err != nil {
		h.replyError(ctx, chatID, "search teachers", err)
		return
	}
	if len(teachers) == 0 {
		h.sendMessage(ctx, chatID, "🔍 Преподаватели не найдены.")
		return
	}

	blocks := make([]string, 0, len(teachers))
	for _, t := range teachers {
		blocks = append(blocks, FormatTeacher(t))
	}
	h.sendMessage(ctx, chatID, joinBlocks(
		fmt.Sprintf("👨‍🏫 Преподаватели (%d):", len(teachers)), blocks)+
		"\n\nОкна приёма: /schedules <id учителя>")
}

// handleSchedules обрабатывает команду /schedules [id учителя]
func (h *Handlers) handleSchedules(ctx context.Context, chatID int64, cmd command) {
	p, ok := h.requirePrincipal(ctx, chatID)
	if !ok {
		return
	}

	windows, err := h.scheduleService.ListWindows(ctx, p, cmd.arg(0))
	if err != nil {
		h.replyError(ctx, chatID, "list schedule windows", err)
		return
	}
	if len(windows) == 0 {
		h.sendMessage(ctx, chatID, "🗓 Окон приёма пока нет.")
		return
	}

	blocks := make([]string, 0, len(windows))
	for _, w := range windows {
		blocks = append(blocks, FormatWindow(w))
	}
	h.sendMessage(ctx, chatID, joinBlocks("🗓 Окна приёма:", blocks)+
		"\n\nСлоты на дату: /slots <id окна> [ГГГГ-ММ-ДД]")
}

// handleSlots обрабатывает команду /slots <id окна> [дата]
func (h *Handlers) handleSlots(ctx context.Context, chatID int64, cmd command) {
	p, ok := h.requirePrincipal(ctx, chatID)
	if !ok {
		return
	}

	windowID := cmd.arg(0)
	if windowID == "" {
		h.sendMessage(ctx, chatID, "Использование: /slots <id окна> [ГГГГ-ММ-ДД]")
		return
	}

	window, err := h.scheduleService.GetWindow(ctx, p, windowID)
	if err != nil {
		h.replyError(ctx, chatID, "get schedule window", err)
		return
	}

	date := cmd.arg(1)
	if date == "" {
		date = nextOccurrence(h.now(), window.Day)
	}

	slots, err := h.scheduleService.Slots(ctx, p, windowID, date)
	if err != nil {
		h.replyError(ctx, chatID, "list slots", err)
		return
	}

	var (
		lines   []string
		buttons []models.InlineKeyboardButton
	)
	for _, slot := range slots {
		if slot.Booked {
			lines = append(lines, "🔒 "+slot.Time+" занято")
			continue
		}
		lines = append(lines, "🟢 "+slot.Time+" свободно")
		if p.Role == model.RoleStudent {
			buttons = append(buttons, keyboard.Button(slot.Time, callbackData(cbBook, window.TeacherID, date, slot.Time)))
		}
	}

	text := fmt.Sprintf("🕐 Слоты на %s (%s):\n\n", date, weekdayName(window.Day))
	if len(lines) == 0 {
		text += "Слотов нет."
	} else {
		text += strings.Join(lines, "\n")
	}
	if len(buttons) > 0 {
		text += "\n\nНажмите на время, чтобы записаться."
	}

	h.sendWithKeyboard(ctx, chatID, text, keyboard.NewBuilder().Grid(4, buttons...).Build())
}

// handleBook обрабатывает команду /book <id учителя> <дата> <время> [сообщение]
func (h *Handlers) handleBook(ctx context.Context, chatID int64, cmd command) {
	p, ok := h.requirePrincipal(ctx, chatID, model.RoleStudent)
	if !ok {
		return
	}

	if len(cmd.args) < 3 {
		h.sendMessage(ctx, chatID, "Использование: /book <id учителя> <ГГГГ-ММ-ДД> <ЧЧ:ММ> [сообщение]")
		return
	}

	_, err := h.reserve(ctx, chatID, p, service.ReserveRequest{
		TeacherID: cmd.arg(0),
		Date:      cmd.arg(1),
		Time:      cmd.arg(2),
		Message:   cmd.rest(3),
	})
	if err != nil {
		h.replyError(ctx, chatID, "reserve", err)
	}
}

// reserve создаёт бронь и сообщает результат
func (h *Handlers) reserve(ctx context.Context, chatID int64, p *model.Principal, req service.ReserveRequest) (*model.Reservation, error) {
	reservation, err := h.bookingService.Reserve(ctx, p, req)
	if err != nil {
		return nil, err
	}

	h.sendWithKeyboard(ctx, chatID,
		fmt.Sprintf("✅ Заявка отправлена!\n\n📅 %s в %s\n⏳ Ожидайте подтверждения преподавателя.\n🆔 %s",
			reservation.Date, reservation.Time, reservation.ID),
		keyboard.NewBuilder().Row(keyboard.Button("🚫 Отменить", callbackData(cbCancel, reservation.ID))).Build(),
	)
	return reservation, nil
}

// handleMyBookings обрабатывает команду /mybookings
func (h *Handlers) handleMyBookings(ctx context.Context, chatID int64, _ command) {
	p, ok := h.requirePrincipal(ctx, chatID, model.RoleStudent, model.RoleTeacher)
	if !ok {
		return
	}

	if p.Role == model.RoleTeacher {
		agenda, err := h.bookingService.TeacherReservations(ctx, p)
		if err != nil {
			h.replyError(ctx, chatID, "teacher reservations", err)
			return
		}
		h.sendMessage(ctx, chatID, formatAgenda(agenda))
		return
	}

	reservations, err := h.bookingService.StudentReservations(ctx, p)
	if err != nil {
		h.replyError(ctx, chatID, "student reservations", err)
		return
	}
	if len(reservations) == 0 {
		h.sendMessage(ctx, chatID, "📅 У вас пока нет записей.\n\nНайти преподавателя: /teachers")
		return
	}

	blocks := make([]string, 0, len(reservations))
	kb := keyboard.NewBuilder()
	for _, r := range reservations {
		blocks = append(blocks, FormatReservation(r))
		if r.Status == model.ReservationStatusPending {
			kb.Row(keyboard.Button(fmt.Sprintf("🚫 Отменить %s %s", r.Date, r.Time), callbackData(cbCancel, r.ID)))
		}
	}
	h.sendWithKeyboard(ctx, chatID, joinBlocks("📅 Мои записи:", blocks), kb.Build())
}

func formatAgenda(agenda *service.TeacherAgenda) string {
	if len(agenda.Pending) == 0 && len(agenda.Decided) == 0 {
		return "📅 Записей пока нет."
	}

	pending := make([]string, 0, len(agenda.Pending))
	for _, r := range agenda.Pending {
		pending = append(pending, FormatReservation(r))
	}
	decided := make([]string, 0, len(agenda.Decided))
	for _, r := range agenda.Decided {
		decided = append(decided, FormatReservation(r))
	}

	text := joinBlocks(fmt.Sprintf("⏳ Ожидают решения (%d):", len(pending)), pending)
	if len(decided) > 0 {
		text += "\n\n" + joinBlocks(fmt.Sprintf("📋 Обработанные (%d):", len(decided)), decided)
	}
	return text
}

// cancelReservation отменяет запись студента
func (h *Handlers) cancelReservation(ctx context.Context, chatID int64, id string) {
	p, ok := h.requirePrincipal(ctx, chatID, model.RoleStudent)
	if !ok {
		return
	}
	if r, err := h.transition(ctx, p, model.ReservationActionCancel, id); err != nil {
		h.replyError(ctx, chatID, "cancel reservation", err)
	} else {
		h.sendMessage(ctx, chatID, transitionText(r))
	}
}

// transition применяет действие к брони от имени principal
func (h *Handlers) transition(ctx context.Context, p *model.Principal, action model.ReservationAction, id string) (*model.Reservation, error) {
	switch action {
	case model.ReservationActionApprove:
		return h.bookingService.Approve(ctx, p, id)
	case model.ReservationActionReject:
		return h.bookingService.Reject(ctx, p, id)
	case model.ReservationActionCancel:
		return h.bookingService.Cancel(ctx, p, id)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", model.ErrInvalidInput, action)
	}
}

func transitionText(r *model.Reservation) string {
	return fmt.Sprintf("%s Запись на %s в %s %s.", service.StatusEmoji(r.Status), r.Date, r.Time, service.StatusText(r.Status))
}
