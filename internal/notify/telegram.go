// Package notify доставляет уведомления пользователям в Telegram.
package notify

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Sender часть API бота, нужная для отправки; *bot.Bot её реализует
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Telegram отправляет уведомление в привязанный к пользователю чат
type Telegram struct {
	sender Sender
	logger *zap.Logger
}

func NewTelegram(sender Sender, logger *zap.Logger) *Telegram {
	return &Telegram{sender: sender, logger: logger}
}

// Notify пользователи без привязанного чата пропускаются без ошибки
func (t *Telegram) Notify(ctx context.Context, recipient *model.User, text string) error {
	if recipient == nil || recipient.TelegramChatID == nil {
		return nil
	}

	_, err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *recipient.TelegramChatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send telegram message to %s: %w", recipient.ID, err)
	}

	t.logger.Debug("Notification sent",
		zap.String("user_id", recipient.ID),
		zap.Int64("chat_id", *recipient.TelegramChatID),
	)
	return nil
}
