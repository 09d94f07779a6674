package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// PrincipalListener получает события входа и выхода
type PrincipalListener func(ctx context.Context, change model.PrincipalChange)

type SignUpRequest struct {
	Email      string
	Password   string
	Name       string
	Role       model.Role
	Department string
	Subject    string
}

type SignInRequest struct {
	Email    string
	Password string
	Role     model.Role // пустая роль = любая
}

// IdentityService регистрация, вход и проверка сессий
type IdentityService struct {
	users             UserStore
	tokens            TokenIssuer
	audit             Recorder
	validate          *validator.Validate
	institutionDomain string
	bcryptCost        int
	now               func() time.Time
	logger            *zap.Logger

	mu        sync.RWMutex
	listeners []PrincipalListener
}

func NewIdentityService(
	users UserStore,
	tokens TokenIssuer,
	audit Recorder,
	validate *validator.Validate,
	institutionDomain string,
	logger *zap.Logger,
) *IdentityService {
	return &IdentityService{
		users:             users,
		tokens:            tokens,
		audit:             audit,
		validate:          validate,
		institutionDomain: strings.ToLower(strings.TrimPrefix(strings.TrimSpace(institutionDomain), "@")),
		bcryptCost:        bcrypt.DefaultCost,
		now:               time.Now,
		logger:            logger,
	}
}

// OnPrincipalChanged подписывает listener на вход и выход
func (s *IdentityService) OnPrincipalChanged(listener PrincipalListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *IdentityService) publish(ctx context.Context, change model.PrincipalChange) {
	s.mu.RLock()
	listeners := append([]PrincipalListener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(ctx, change)
	}
}

// autoApproved студенты подтверждаются автоматически только с институтским email
func (s *IdentityService) autoApproved(role model.Role, email string) bool {
	switch role {
	case model.RoleTeacher, model.RoleAdmin:
		return true
	case model.RoleStudent:
		return s.institutionDomain != "" && strings.HasSuffix(email, "@"+s.institutionDomain)
	default:
		return false
	}
}

// SignUp регистрирует студента или учителя. Администраторы создаются только через EnsureAdmin
func (s *IdentityService) SignUp(ctx context.Context, req SignUpRequest) (*model.User, error) {
	switch req.Role {
	case model.RoleTeacher:
		if strings.TrimSpace(req.Department) == "" || strings.TrimSpace(req.Subject) == "" {
			return nil, fmt.Errorf("%w: department and subject are required for teachers", model.ErrInvalidInput)
		}
	case model.RoleStudent:
	case model.RoleAdmin:
		return nil, fmt.Errorf("%w: admin accounts cannot be self-registered", model.ErrPermissionDenied)
	default:
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrInvalidInput, req.Role)
	}

	user, err := s.newUser(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Bool("approved", user.Approved),
	)
	s.audit.Record(ctx, model.PrincipalOf(user), fmt.Sprintf("New user registered: %s (%s)", user.Name, user.Role))

	return user, nil
}

// EnsureAdmin создаёт администратора из конфигурации, если пользователя с таким email ещё нет
func (s *IdentityService) EnsureAdmin(ctx context.Context, email, password, name string) (*model.User, error) {
	existing, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		if existing.Role != model.RoleAdmin {
			return nil, fmt.Errorf("%w: %s is registered as %s", model.ErrEmailTaken, existing.Email, existing.Role)
		}
		return existing, nil
	}

	user, err := s.newUser(ctx, SignUpRequest{Email: email, Password: password, Name: name, Role: model.RoleAdmin})
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	s.logger.Info("Admin account created", zap.String("user_id", user.ID))
	s.audit.Record(ctx, model.PrincipalOf(user), fmt.Sprintf("Admin account created: %s", user.Name))
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newUser проверяет поля и хеширует пароль
func (s *IdentityService) newUser(ctx context.Context, req SignUpRequest) (*model.User, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)

	if err := validateEmail(s.validate, email); err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", model.ErrInvalidInput, minPasswordLength)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrInvalidInput)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         req.Role,
		Approved:     s.autoApproved(req.Role, email),
	}
	if req.Role == model.RoleTeacher {
		user.Department = strings.TrimSpace(req.Department)
		user.Subject = strings.TrimSpace(req.Subject)
	}
	return user, nil
}

// SignIn проверяет пароль и выдаёт сессию
func (s *IdentityService) SignIn(ctx context.Context, req SignInRequest) (*model.Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	if req.Role != "" && req.Role != user.Role {
		return nil, fmt.Errorf("%w: invalid role selected", model.ErrInvalidCredentials)
	}
	if user.Role == model.RoleStudent && !user.Approved {
		return nil, model.ErrAccountPendingApproval
	}

	principal := model.PrincipalOf(user)
	token, expiresAt, err := s.tokens.Issue(principal)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("User signed in",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	s.publish(ctx, model.PrincipalChange{Principal: principal, SignedIn: true, At: s.now()})

	return &model.Session{Principal: principal, Token: token, ExpiresAt: expiresAt}, nil
}

// SignOut завершает сессию. Токены без состояния, поэтому только оповещаем подписчиков
func (s *IdentityService) SignOut(ctx context.Context, principal *model.Principal) error {
	if principal == nil {
		return model.ErrUnauthenticated
	}

	s.logger.Info("User signed out", zap.String("user_id", principal.UserID))
	s.publish(ctx, model.PrincipalChange{Principal: principal, SignedIn: false, At: s.now()})
	return nil
}

// Authenticate восстанавливает Principal по токену
func (s *IdentityService) Authenticate(token string) (*model.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, model.ErrUnauthenticated
	}
	return s.tokens.Parse(token)
}

// LinkChat привязывает Telegram-чат к пользователю сессии
func (s *IdentityService) LinkChat(ctx context.Context, principal *model.Principal, chatID int64) error {
	if principal == nil {
		return model.ErrUnauthenticated
	}
	if err := s.users.LinkTelegramChat(ctx, principal.UserID, chatID); err != nil {
		return fmt.Errorf("link chat: %w", err)
	}
	return nil
}

// UnlinkChat отвязывает чат при выходе
func (s *IdentityService) UnlinkChat(ctx context.Context, chatID int64) error {
	if err := s.users.UnlinkTelegramChat(ctx, chatID); err != nil {
		return fmt.Errorf("unlink chat: %w", err)
	}
	return nil
}

// PrincipalForChat пользователь, привязанный к чату; nil если чат не привязан или доступ отозван
func (s *IdentityService) PrincipalForChat(ctx context.Context, chatID int64) (*model.Principal, error) {
	user, err := s.users.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get user by chat: %w", err)
	}
	if user == nil || (user.Role == model.RoleStudent && !user.Approved) {
		return nil, nil
	}
	return model.PrincipalOf(user), nil
}

// validateEmail принимает только голый адрес вида user@host.tld
func validateEmail(validate *validator.Validate, email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: bad email %q", model.ErrInvalidInput, email)
	}
	return nil
}
