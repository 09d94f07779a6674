package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Freeeeeet/appointment_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/service"
)

// handlePending обрабатывает команду /pending
func (h *Handlers) handlePending(ctx context.Context, chatID int64, _ command) {
	p, ok := h.requirePrincipal(ctx, chatID, model.RoleTeacher)
	if !ok {
		return
	}

	pending, err := h.bookingService.PendingForTeacher(ctx, p)
	if err != nil {
		h.replyError(ctx, chatID, "pending reservations", err)
		return
	}
	if len(pending) == 0 {
		h.sendMessage(ctx, chatID, "✅ Нет заявок, ожидающих решения.")
		return
	}

	blocks := make([]string, 0, len(pending))
	kb := keyboard.NewBuilder()
	for _, r := range pending {
		blocks = append(blocks, FormatReservation(r))
		kb.Row(
			keyboard.Button(fmt.Sprintf("✅ %s %s", r.Date, r.Time), callbackData(cbApprove, r.ID)),
			keyboard.Button("❌ Отклонить", callbackData(cbReject, r.ID)),
		)
	}
	h.sendWithKeyboard(ctx, chatID, joinBlocks(fmt.Sprintf("⏳ Заявки на подтверждение (%d):", len(pending)), blocks), kb.Build())
}

// handleApprove обрабатывает команду /approve <id>
func (h *Handlers) handleApprove(ctx context.Context, chatID int64, cmd command) {
	h.decide(ctx, chatID, cmd, model.ReservationActionApprove)
}

// handleReject обрабатывает команду /reject <id>
func (h *Handlers) handleReject(ctx context.Context, chatID int64, cmd command) {
	h.decide(ctx, chatID, cmd, model.ReservationActionReject)
}

func (h *Handlers) decide(ctx context.Context, chatID int64, cmd command, action model.ReservationAction) {
	p, ok := h.requirePrincipal(ctx, chatID, model.RoleTeacher)
	if !ok {
		return
	}

	id := cmd.arg(0)
	if id == "" {
		h.sendMessage(ctx, chatID, fmt.Sprintf("Использование: /%s <id записи>", action))
		return
	}

	r, err := h.transition(ctx, p, action, id)
	if err != nil {
		h.replyError(ctx, chatID, string(action)+" reservation", err)
		return
	}
	h.sendMessage(ctx, chatID, transitionText(r))
}

// handleAddSchedule обрабатывает команду /addschedule <день> <начало> <конец> [мин] [мест]
func (h *Handlers) handleAddSchedule(ctx context.Context, chatID int64, cmd command) {
	p, ok := h.requirePrincipal(ctx, chatID, model.RoleTeacher)
	if !ok {
		return
	}

	if len(cmd.args) < 3 {
		h.sendMessage(ctx, chatID,
			"Использование: /addschedule <день> <ЧЧ:ММ> <ЧЧ:ММ> [мин] [мест]\n\n"+
				"Пример: /addschedule monday 09:00 11:00 30")
		return
	}

	req := service.CreateWindowRequest{
		Day:       cmd.arg(0),
		StartTime: cmd.arg(1),
		EndTime:   cmd.arg(2),
	}
	var err error
	if req.SlotDuration, err = optionalInt(cmd.arg(3)); err != nil {
		h.sendMessage(ctx, chatID, "❌ Длительность слота должна быть числом минут.")
		return
	}
	if req.MaxBookings, err = optionalInt(cmd.arg(4)); err != nil {
		h.sendMessage(ctx, chatID, "❌ Количество мест должно быть числом.")
		return
	}

	window, err := h.scheduleService.CreateWindow(ctx, p, req)
	if err != nil {
		h.replyError(ctx, chatID, "create schedule window", err)
		return
	}
	h.sendMessage(ctx, chatID, "✅ Окно приёма добавлено:\n\n"+FormatWindow(window))
}

// optionalInt пустая строка = 0 (значение по умолчанию)
func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// handleToggleSchedule обрабатывает команду /toggleschedule <id>
func (h *Handlers) handleToggleSchedule(ctx context.Context, chatID int64, cmd command) {
	p, ok := h.requirePrincipal(ctx, chatID, model.RoleTeacher, model.RoleAdmin)
	if !ok {
		return
	}
	if cmd.arg(0) == "" {
		h.sendMessage(ctx, chatID, "Использование: /toggleschedule <id окна>")
		return
	}

	window, err := h.scheduleService.Toggle(ctx, p, cmd.arg(0))
	if err != nil {
		h.replyError(ctx, chatID, "toggle schedule window", err)
		return
	}

	status := "🟢 Окно снова видно студентам."
	if !window.Active {
		status = "⚪️ Окно скрыто от студентов."
	}
	h.sendMessage(ctx, chatID, status+"\n\n"+FormatWindow(window))
}

// handleDeleteSchedule обрабатывает команду /deleteschedule <id>
func (h *Handlers) handleDeleteSchedule(ctx context.Context, chatID int64, cmd command) {
	p, ok := h.requirePrincipal(ctx, chatID, model.RoleTeacher, model.RoleAdmin)
	if !ok {
		return
	}
	if cmd.arg(0) == "" {
		h.sendMessage(ctx, chatID, "Использование: /deleteschedule <id окна>")
		return
	}

	if err := h.scheduleService.DeleteWindow(ctx, p, cmd.arg(0)); err != nil {
		h.replyError(ctx, chatID, "delete schedule window", err)
		return
	}
	h.sendMessage(ctx, chatID, "🗑 Окно приёма удалено. Существующие записи сохранены.")
}
