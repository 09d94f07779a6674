package handlers

import (
	"context"
	"strings"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleCallback обрабатывает нажатия на inline кнопки
func (h *Handlers) HandleCallback(ctx context.Context, _ *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	chatID := cq.From.ID
	if cq.Message.Message != nil {
		chatID = cq.Message.Message.Chat.ID
	}

	action, payload, _ := strings.Cut(cq.Data, ":")
	h.logger.Debug("Callback received",
		zap.Int64("chat_id", chatID),
		zap.String("action", action),
	)

	p, err := h.principal(ctx, chatID)
	if err != nil {
		h.logger.Error("Failed to resolve chat user", zap.Int64("chat_id", chatID), zap.Error(err))
		h.answerCallback(ctx, cq.ID, errorText(err), true)
		return
	}
	if p == nil {
		h.answerCallback(ctx, cq.ID, errorText(model.ErrUnauthenticated), true)
		return
	}

	var text string
	switch action {
	case cbBook:
		parts := strings.SplitN(payload, ":", 3)
		if len(parts) != 3 {
			err = model.ErrInvalidInput
			break
		}
		// подтверждение уходит в чат, ошибка показывается только во всплывающем окне
		if _, err = h.reserve(ctx, chatID, p, service.ReserveRequest{TeacherID: parts[0], Date: parts[1], Time: parts[2]}); err == nil {
			text = "✅ Заявка отправлена"
		}

	case cbApprove, cbReject, cbCancel:
		var r *model.Reservation
		if r, err = h.transition(ctx, p, model.ReservationAction(action), payload); err == nil {
			text = transitionText(r)
			h.sendMessage(ctx, chatID, text)
		}

	case cbApproveStudent, cbRejectStudent:
		if text, err = h.applyModeration(ctx, p, payload, action == cbApproveStudent); err == nil {
			h.sendMessage(ctx, chatID, text)
		}

	default:
		h.logger.Warn("Unknown callback", zap.String("data", cq.Data))
		err = model.ErrInvalidInput
	}

	if err != nil {
		if !model.IsUserFacing(err) {
			h.logger.Error("Callback failed", zap.String("action", action), zap.Error(err))
		}
		h.answerCallback(ctx, cq.ID, errorText(err), true)
		return
	}
	h.answerCallback(ctx, cq.ID, text, false)
}
