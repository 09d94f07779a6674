package handlers

import (
	"context"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// principal пользователь чата: из кэша сессии, иначе по привязке чата в базе
func (h *Handlers) principal(ctx context.Context, chatID int64) (*model.Principal, error) {
	if p := h.stateManager.Principal(chatID); p != nil {
		return p, nil
	}

	p, err := h.identityService.PrincipalForChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		h.stateManager.SetPrincipal(chatID, p)
	}
	return p, nil
}

// requirePrincipal проверяет что в чате выполнен вход
// Возвращает principal и true если OK, nil и false если нет
func (h *Handlers) requirePrincipal(ctx context.Context, chatID int64, roles ...model.Role) (*model.Principal, bool) {
	p, err := h.principal(ctx, chatID)
	if err != nil {
		h.logger.Error("Failed to resolve chat user", zap.Int64("chat_id", chatID), zap.Error(err))
		h.sendMessage(ctx, chatID, "❌ Произошла ошибка. Попробуйте позже.")
		return nil, false
	}
	if p == nil {
		h.sendMessage(ctx, chatID, errorText(model.ErrUnauthenticated))
		return nil, false
	}

	if len(roles) == 0 {
		return p, true
	}
	for _, role := range roles {
		if p.Role == role {
			return p, true
		}
	}
	h.sendMessage(ctx, chatID, errorText(model.ErrPermissionDenied))
	return nil, false
}

// replyError отвечает пользователю на ошибку сервиса. Сбои системы логируются
func (h *Handlers) replyError(ctx context.Context, chatID int64, op string, err error) {
	if !model.IsUserFacing(err) {
		h.logger.Error("Command failed",
			zap.String("op", op),
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
	h.sendMessage(ctx, chatID, errorText(err))
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, chatID int64, text string) {
	h.send(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
}

// sendWithKeyboard отправляет сообщение с inline клавиатурой
func (h *Handlers) sendWithKeyboard(ctx context.Context, chatID int64, text string, markup *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{ChatID: chatID, Text: text}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	h.send(ctx, params)
}

// send отправляет сообщение, длинный текст режется на части; клавиатура у последней
func (h *Handlers) send(ctx context.Context, params *bot.SendMessageParams) {
	chunks := splitText(params.Text, maxMessageLength)
	for i, chunk := range chunks {
		part := &bot.SendMessageParams{ChatID: params.ChatID, Text: chunk}
		if i == len(chunks)-1 {
			part.ReplyMarkup = params.ReplyMarkup
		}
		if _, err := h.sender.SendMessage(ctx, part); err != nil {
			h.logger.Error("Failed to send message",
				zap.Any("chat_id", params.ChatID),
				zap.Error(err),
			)
			return
		}
	}
}

// answerCallback отвечает на нажатие кнопки
func (h *Handlers) answerCallback(ctx context.Context, callbackID, text string, alert bool) {
	_, err := h.sender.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		h.logger.Warn("Failed to answer callback", zap.Error(err))
	}
}
