package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminLogLimit сколько записей журнала видит администратор
const AdminLogLimit = 50

const anonymous = "anonymous"

// AuditService журнал действий пользователей
type AuditService struct {
	store  AuditStore
	now    func() time.Time
	logger *zap.Logger
}

func NewAuditService(store AuditStore, logger *zap.Logger) *AuditService {
	return &AuditService{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

// Record добавляет запись. Ошибка записи не прерывает основную операцию, только логируется
func (s *AuditService) Record(ctx context.Context, actor *model.Principal, action string) {
	entry := &model.AuditEntry{
		ID:        uuid.NewString(),
		UserID:    anonymous,
		UserName:  anonymous,
		UserRole:  anonymous,
		Action:    action,
		Timestamp: s.now().UTC(),
	}
	if actor != nil {
		entry.UserID = actor.UserID
		entry.UserName = actor.Name
		entry.UserRole = string(actor.Role)
	}

	if err := s.store.Append(ctx, entry); err != nil {
		s.logger.Warn("Failed to append audit entry",
			zap.String("user_id", entry.UserID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

// HandlePrincipalChange подписчик на вход и выход пользователя
func (s *AuditService) HandlePrincipalChange(ctx context.Context, change model.PrincipalChange) {
	if change.SignedIn {
		s.Record(ctx, change.Principal, fmt.Sprintf("User logged in with role: %s", change.Principal.Role))
		return
	}
	s.Record(ctx, change.Principal, "User logged out")
}

// Recent последние записи журнала, только для администратора
func (s *AuditService) Recent(ctx context.Context, principal *model.Principal) ([]*model.AuditEntry, error) {
	if err := requireRole(principal, model.RoleAdmin); err != nil {
		return nil, err
	}

	entries, err := s.store.ListRecent(ctx, AdminLogLimit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}

// requireRole проверяет что операция выполняется пользователем одной из ролей
func requireRole(principal *model.Principal, roles ...model.Role) error {
	if principal == nil {
		return model.ErrUnauthenticated
	}
	for _, role := range roles {
		if principal.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s", model.ErrPermissionDenied, principal.Role)
}
