package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InboxLimit сколько отправленных и полученных сообщений попадает во входящие
const InboxLimit = 10

// MessageService личные сообщения между пользователями
type MessageService struct {
	messages MessageStore
	users    UserStore
	notifier Notifier
	audit    Recorder
	logger   *zap.Logger
}

func NewMessageService(messages MessageStore, users UserStore, notifier Notifier, audit Recorder, logger *zap.Logger) *MessageService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &MessageService{
		messages: messages,
		users:    users,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
	}
}

// Send отправляет сообщение от имени principal
func (s *MessageService) Send(ctx context.Context, principal *model.Principal, toID, content string) (*model.Message, error) {
	if principal == nil {
		return nil, model.ErrUnauthenticated
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message is empty", model.ErrInvalidInput)
	}
	if toID == principal.UserID {
		return nil, fmt.Errorf("%w: cannot message yourself", model.ErrInvalidInput)
	}

	recipient, err := s.users.GetByID(ctx, toID)
	if err != nil {
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	if recipient == nil {
		return nil, fmt.Errorf("recipient %s: %w", toID, model.ErrNotFound)
	}

	message := &model.Message{
		ID:       uuid.NewString(),
		FromID:   principal.UserID,
		FromName: principal.Name,
		ToID:     recipient.ID,
		Content:  content,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.logger.Info("Message sent",
		zap.String("message_id", message.ID),
		zap.String("from_id", message.FromID),
		zap.String("to_id", message.ToID),
	)
	s.audit.Record(ctx, principal, fmt.Sprintf("Message sent to: %s", recipient.ID))

	if err := s.notifier.Notify(ctx, recipient, fmt.Sprintf("✉️ %s: %s", principal.Name, content)); err != nil {
		s.logger.Warn("Failed to deliver message notification",
			zap.String("to_id", recipient.ID),
			zap.Error(err),
		)
	}

	return message, nil
}

// Inbox последние отправленные и полученные сообщения, новые первыми
func (s *MessageService) Inbox(ctx context.Context, principal *model.Principal) ([]*model.Message, error) {
	if principal == nil {
		return nil, model.ErrUnauthenticated
	}

	sent, err := s.messages.ListSent(ctx, principal.UserID, InboxLimit)
	if err != nil {
		return nil, fmt.Errorf("list sent messages: %w", err)
	}
	received, err := s.messages.ListReceived(ctx, principal.UserID, InboxLimit)
	if err != nil {
		return nil, fmt.Errorf("list received messages: %w", err)
	}

	inbox := make([]*model.Message, 0, len(sent)+len(received))
	inbox = append(inbox, sent...)
	inbox = append(inbox, received...)
	sort.SliceStable(inbox, func(i, j int) bool {
		return inbox[i].CreatedAt.After(inbox[j].CreatedAt)
	})
	return inbox, nil
}
