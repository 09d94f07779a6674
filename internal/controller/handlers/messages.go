package handlers

import (
	"context"

	"github.com/Freeeeeet/appointment_bot/internal/controller/state"
)

// handleMsg обрабатывает команду /msg <id> [текст]. Без текста ждёт его следующим сообщением
func (h *Handlers) handleMsg(ctx context.Context, chatID int64, cmd command) {
	if _, ok := h.requirePrincipal(ctx, chatID); !ok {
		return
	}

	recipient := cmd.arg(0)
	if recipient == "" {
		h.sendMessage(ctx, chatID, "Использование: /msg <id пользователя> [текст]")
		return
	}

	if text := cmd.rest(1); text != "" {
		h.sendChatMessage(ctx, chatID, recipient, text)
		return
	}

	h.stateManager.SetData(chatID, state.KeyRecipient, recipient)
	h.stateManager.SetState(chatID, state.StateMessageText)
	h.sendMessage(ctx, chatID, "✍️ Введите текст сообщения.\n\nОтмена: /cancel")
}

func (h *Handlers) sendChatMessage(ctx context.Context, chatID int64, recipient, text string) {
	p, ok := h.requirePrincipal(ctx, chatID)
	if !ok {
		return
	}

	if _, err := h.messageService.Send(ctx, p, recipient, text); err != nil {
		h.replyError(ctx, chatID, "send message", err)
		return
	}
	h.sendMessage(ctx, chatID, "✉️ Сообщение отправлено.")
}

// handleInbox обрабатывает команду /inbox
func (h *Handlers) handleInbox(ctx context.Context, chatID int64, _ command) {
	p, ok := h.requirePrincipal(ctx, chatID)
	if !ok {
		return
	}

	messages, err := h.messageService.Inbox(ctx, p)
	if err != nil {
		h.replyError(ctx, chatID, "inbox", err)
		return
	}
	if len(messages) == 0 {
		h.sendMessage(ctx, chatID, "📭 Сообщений нет.")
		return
	}

	blocks := make([]string, 0, len(messages))
	for _, m := range messages {
		blocks = append(blocks, FormatMessage(m, p.UserID))
	}
	h.sendMessage(ctx, chatID, joinBlocks("📬 Сообщения:", blocks))
}
