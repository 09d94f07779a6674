package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/appointment_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/appointment_bot/internal/model"
)

// handleStudents обрабатывает команду /students: студенты, ожидающие подтверждения
func (h *Handlers) handleStudents(ctx context.Context, chatID int64, _ command) {
	p, ok := h.requirePrincipal(ctx, chatID, model.RoleAdmin)
	if !ok {
		return
	}

	students, err := h.userService.PendingStudents(ctx, p)
	if err != nil {
		h.replyError(ctx, chatID, "pending students", err)
		return
	}
	if len(students) == 0 {
		h.sendMessage(ctx, chatID, "✅ Нет студентов, ожидающих подтверждения.")
		return
	}

	blocks := make([]string, 0, len(students))
	kb := keyboard.NewBuilder()
	for _, s := range students {
		blocks = append(blocks, fmt.Sprintf("👤 %s\n   📧 %s\n   🆔 %s", s.Name, s.Email, s.ID))
		kb.Row(
			keyboard.Button("✅ "+s.Name, callbackData(cbApproveStudent, s.ID)),
			keyboard.Button("❌ Отклонить", callbackData(cbRejectStudent, s.ID)),
		)
	}
	h.sendWithKeyboard(ctx, chatID, joinBlocks(fmt.Sprintf("🎓 Студенты на подтверждение (%d):", len(students)), blocks), kb.Build())
}

// handleApproveStudent обрабатывает команду /approvestudent <id>
func (h *Handlers) handleApproveStudent(ctx context.Context, chatID int64, cmd command) {
	h.moderateStudent(ctx, chatID, cmd.arg(0), true)
}

// handleRejectStudent обрабатывает команду /rejectstudent <id>
func (h *Handlers) handleRejectStudent(ctx context.Context, chatID int64, cmd command) {
	h.moderateStudent(ctx, chatID, cmd.arg(0), false)
}

func (h *Handlers) moderateStudent(ctx context.Context, chatID int64, studentID string, approve bool) {
	p, ok := h.requirePrincipal(ctx, chatID, model.RoleAdmin)
	if !ok {
		return
	}
	if studentID == "" {
		h.sendMessage(ctx, chatID, "Укажите id студента. Список: /students")
		return
	}

	text, err := h.applyModeration(ctx, p, studentID, approve)
	if err != nil {
		h.replyError(ctx, chatID, "moderate student", err)
		return
	}
	h.sendMessage(ctx, chatID, text)
}

func (h *Handlers) applyModeration(ctx context.Context, p *model.Principal, studentID string, approve bool) (string, error) {
	if approve {
		if err := h.userService.ApproveStudent(ctx, p, studentID); err != nil {
			return "", err
		}
		return "✅ Студент подтверждён.", nil
	}
	if err := h.userService.RejectStudent(ctx, p, studentID); err != nil {
		return "", err
	}
	return "🗑 Заявка студента отклонена, аккаунт удалён.", nil
}

// handleDeleteTeacher обрабатывает команду /deleteteacher <id>
func (h *Handlers) handleDeleteTeacher(ctx context.Context, chatID int64, cmd command) {
	p, ok := h.requirePrincipal(ctx, chatID, model.RoleAdmin)
	if !ok {
		return
	}
	if cmd.arg(0) == "" {
		h.sendMessage(ctx, chatID, "Использование: /deleteteacher <id преподавателя>")
		return
	}

	if err := h.userService.DeleteTeacher(ctx, p, cmd.arg(0)); err != nil {
		h.replyError(ctx, chatID, "delete teacher", err)
		return
	}
	h.sendMessage(ctx, chatID, "🗑 Преподаватель удалён вместе с окнами и записями.")
}

// handleLogs обрабатывает команду /logs
func (h *Handlers) handleLogs(ctx context.Context, chatID int64, _ command) {
	p, ok := h.requirePrincipal(ctx, chatID, model.RoleAdmin)
	if !ok {
		return
	}

	entries, err := h.auditService.Recent(ctx, p)
	if err != nil {
		h.replyError(ctx, chatID, "audit log", err)
		return
	}
	if len(entries) == 0 {
		h.sendMessage(ctx, chatID, "📜 Журнал пуст.")
		return
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, FormatAuditEntry(e))
	}
	h.sendMessage(ctx, chatID, "📜 Последние действия:\n\n"+strings.Join(lines, "\n"))
}
