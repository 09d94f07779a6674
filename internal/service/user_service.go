package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService каталог учителей и модерация пользователей администратором
type UserService struct {
	users    UserStore
	audit    Recorder
	validate *validator.Validate
	logger   *zap.Logger
}

func NewUserService(users UserStore, audit Recorder, validate *validator.Validate, logger *zap.Logger) *UserService {
	return &UserService{
		users:    users,
		audit:    audit,
		validate: validate,
		logger:   logger,
	}
}

// GetByID получает пользователя по ID
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, model.ErrNotFound)
	}
	return user, nil
}

// SearchTeachers подтверждённые учителя, подходящие под запрос; пустой запрос = все
func (s *UserService) SearchTeachers(ctx context.Context, principal *model.Principal, query string) ([]*model.User, error) {
	if principal == nil {
		return nil, model.ErrUnauthenticated
	}

	teachers, err := s.users.ListByRole(ctx, model.RoleTeacher, true)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}

	result := make([]*model.User, 0, len(teachers))
	for _, teacher := range teachers {
		if teacher.MatchesQuery(query) {
			result = append(result, teacher)
		}
	}
	return result, nil
}

// ListTeachers все учителя (для администратора)
func (s *UserService) ListTeachers(ctx context.Context, principal *model.Principal) ([]*model.User, error) {
	if err := requireRole(principal, model.RoleAdmin); err != nil {
		return nil, err
	}

	teachers, err := s.users.ListByRole(ctx, model.RoleTeacher, false)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// PendingStudents студенты, ожидающие подтверждения
func (s *UserService) PendingStudents(ctx context.Context, principal *model.Principal) ([]*model.User, error) {
	if err := requireRole(principal, model.RoleAdmin); err != nil {
		return nil, err
	}

	pending, err := s.users.ListPendingApproval(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending users: %w", err)
	}

	students := make([]*model.User, 0, len(pending))
	for _, user := range pending {
		if user.Role == model.RoleStudent {
			students = append(students, user)
		}
	}
	return students, nil
}

// ApproveStudent подтверждает студента
func (s *UserService) ApproveStudent(ctx context.Context, principal *model.Principal, studentID string) error {
	if err := requireRole(principal, model.RoleAdmin); err != nil {
		return err
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}
	if student == nil || student.Role != model.RoleStudent {
		return fmt.Errorf("student %s: %w", studentID, model.ErrNotFound)
	}

	if _, err := s.users.SetApproved(ctx, studentID, true); err != nil {
		return fmt.Errorf("approve student: %w", err)
	}

	s.logger.Info("Student approved",
		zap.String("student_id", studentID),
		zap.String("admin_id", principal.UserID),
	)
	s.audit.Record(ctx, principal, fmt.Sprintf("Student %s approved", studentID))
	return nil
}

// RejectStudent удаляет заявку студента
func (s *UserService) RejectStudent(ctx context.Context, principal *model.Principal, studentID string) error {
	if err := requireRole(principal, model.RoleAdmin); err != nil {
		return err
	}

	deleted, err := s.users.DeleteWithRole(ctx, studentID, model.RoleStudent)
	if err != nil {
		return fmt.Errorf("reject student: %w", err)
	}
	if !deleted {
		return fmt.Errorf("student %s: %w", studentID, model.ErrNotFound)
	}

	s.logger.Info("Student rejected",
		zap.String("student_id", studentID),
		zap.String("admin_id", principal.UserID),
	)
	s.audit.Record(ctx, principal, fmt.Sprintf("Student %s rejected", studentID))
	return nil
}

type AddTeacherRequest struct {
	Email      string
	Password   string
	Name       string
	Department string
	Subject    string
}

// AddTeacher администратор заводит учителя с паролем
func (s *UserService) AddTeacher(ctx context.Context, principal *model.Principal, req AddTeacherRequest) (*model.User, error) {
	if err := requireRole(principal, model.RoleAdmin); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	if err := validateEmail(s.validate, email); err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", model.ErrInvalidInput, minPasswordLength)
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Department) == "" || strings.TrimSpace(req.Subject) == "" {
		return nil, fmt.Errorf("%w: name, department and subject are required", model.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	teacher := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Role:         model.RoleTeacher,
		Approved:     true,
		Department:   strings.TrimSpace(req.Department),
		Subject:      strings.TrimSpace(req.Subject),
	}
	if err := s.users.Create(ctx, teacher); err != nil {
		return nil, fmt.Errorf("create teacher: %w", err)
	}

	s.logger.Info("Teacher added",
		zap.String("teacher_id", teacher.ID),
		zap.String("admin_id", principal.UserID),
	)
	s.audit.Record(ctx, principal, fmt.Sprintf("Admin added new teacher: %s", teacher.Name))
	return teacher, nil
}

// DeleteTeacher удаляет учителя вместе с его окнами и бронями
func (s *UserService) DeleteTeacher(ctx context.Context, principal *model.Principal, teacherID string) error {
	if err := requireRole(principal, model.RoleAdmin); err != nil {
		return err
	}

	deleted, err := s.users.DeleteWithRole(ctx, teacherID, model.RoleTeacher)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	if !deleted {
		return fmt.Errorf("teacher %s: %w", teacherID, model.ErrNotFound)
	}

	s.logger.Info("Teacher deleted",
		zap.String("teacher_id", teacherID),
		zap.String("admin_id", principal.UserID),
	)
	s.audit.Record(ctx, principal, fmt.Sprintf("Teacher %s deleted", teacherID))
	return nil
}
