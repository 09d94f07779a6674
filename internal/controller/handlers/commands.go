package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/appointment_bot/internal/controller/state"
	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type commandFunc func(ctx context.Context, chatID int64, cmd command)

// routes таблица команд бота
func (h *Handlers) routes() map[string]commandFunc {
	return map[string]commandFunc{
		"start":  h.handleStart,
		"help":   h.handleHelp,
		"login":  h.handleLogin,
		"logout": h.handleLogout,
		"me":     h.handleMe,
		"cancel": h.handleCancel,

		"teachers":   h.handleTeachers,
		"schedules":  h.handleSchedules,
		"slots":      h.handleSlots,
		"book":       h.handleBook,
		"mybookings": h.handleMyBookings,

		"pending":        h.handlePending,
		"approve":        h.handleApprove,
		"reject":         h.handleReject,
		"addschedule":    h.handleAddSchedule,
		"toggleschedule": h.handleToggleSchedule,
		"deleteschedule": h.handleDeleteSchedule,

		"msg":   h.handleMsg,
		"inbox": h.handleInbox,

		"students":       h.handleStudents,
		"approvestudent": h.handleApproveStudent,
		"rejectstudent":  h.handleRejectStudent,
		"deleteteacher":  h.handleDeleteTeacher,
		"logs":           h.handleLogs,
	}
}

// HandleMessage единая точка входа для текстовых сообщений: команды и шаги диалогов
func (h *Handlers) HandleMessage(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	cmd, ok := parseCommand(msg.Text)
	if !ok {
		h.handleDialog(ctx, msg)
		return
	}

	cmd.messageID = msg.ID

	handler, exists := h.commands[cmd.name]
	if !exists {
		h.sendMessage(ctx, chatID, "🤔 Неизвестная команда. Список команд: /help")
		return
	}

	// Новая команда прерывает незавершённый диалог
	if cmd.name != "cancel" {
		h.stateManager.ClearState(chatID)
	}

	h.logger.Debug("Command received",
		zap.Int64("chat_id", chatID),
		zap.String("command", cmd.name),
	)
	handler(ctx, chatID, cmd)
}

// handleStart обрабатывает команду /start
func (h *Handlers) handleStart(ctx context.Context, chatID int64, _ command) {
	p, err := h.principal(ctx, chatID)
	if err != nil {
		h.logger.Warn("Failed to resolve chat user on start", zap.Int64("chat_id", chatID), zap.Error(err))
	}

	if p == nil {
		h.sendMessage(ctx, chatID,
			"👋 Привет!\n\n"+
				"Это бот для записи на консультации к преподавателям.\n\n"+
				"Войдите, чтобы продолжить:\n"+
				"/login <email> - вход по email и паролю\n"+
				"/help - справка по командам")
		return
	}

	h.sendMessage(ctx, chatID, fmt.Sprintf("👋 С возвращением, %s!\n\nСписок команд: /help", p.Name))
}

// handleHelp обрабатывает команду /help
func (h *Handlers) handleHelp(ctx context.Context, chatID int64, _ command) {
	helpText := "📚 Справка по командам:\n\n" +
		"/login <email> [пароль] - Войти\n" +
		"/logout - Выйти\n" +
		"/me - Кто я\n" +
		"/cancel - Отменить текущий диалог\n\n" +
		"Для студентов:\n" +
		"/teachers [поиск] - Найти преподавателя\n" +
		"/schedules <id учителя> - Окна приёма\n" +
		"/slots <id окна> [ГГГГ-ММ-ДД] - Свободные слоты\n" +
		"/book <id учителя> <ГГГГ-ММ-ДД> <ЧЧ:ММ> [сообщение] - Записаться\n" +
		"/mybookings - Мои записи\n" +
		"/cancel <id записи> - Отменить запись\n\n" +
		"Для преподавателей:\n" +
		"/pending - Заявки на подтверждение\n" +
		"/approve <id> - Подтвердить заявку\n" +
		"/reject <id> - Отклонить заявку\n" +
		"/schedules - Мои окна приёма\n" +
		"/addschedule <день> <ЧЧ:ММ> <ЧЧ:ММ> [мин] [мест] - Добавить окно\n" +
		"/toggleschedule <id> - Скрыть или показать окно\n" +
		"/deleteschedule <id> - Удалить окно\n\n" +
		"Сообщения:\n" +
		"/msg <id пользователя> [текст] - Написать\n" +
		"/inbox - Входящие и отправленные\n\n" +
		"Для администраторов:\n" +
		"/students - Студенты на подтверждение\n" +
		"/approvestudent <id> - Подтвердить студента\n" +
		"/rejectstudent <id> - Отклонить студента\n" +
		"/deleteteacher <id> - Удалить преподавателя\n" +
		"/logs - Журнал действий"

	h.sendMessage(ctx, chatID, helpText)
}

// handleLogin обрабатывает команду /login <email> [пароль]
func (h *Handlers) handleLogin(ctx context.Context, chatID int64, cmd command) {
	email := cmd.arg(0)
	if email == "" {
		h.sendMessage(ctx, chatID, "Использование: /login <email> [пароль]")
		return
	}

	if password := cmd.rest(1); password != "" {
		h.deleteMessage(ctx, chatID, cmd.messageID)
		h.signIn(ctx, chatID, email, password)
		return
	}

	h.stateManager.SetData(chatID, state.KeyEmail, email)
	h.stateManager.SetState(chatID, state.StateLoginPassword)
	h.sendMessage(ctx, chatID, "🔑 Введите пароль.\n\nОтмена: /cancel")
}

func (h *Handlers) signIn(ctx context.Context, chatID int64, email, password string) {
	session, err := h.identityService.SignIn(ctx, service.SignInRequest{Email: email, Password: password})
	if err != nil {
		h.replyError(ctx, chatID, "sign in", err)
		return
	}

	if err := h.identityService.LinkChat(ctx, session.Principal, chatID); err != nil {
		h.replyError(ctx, chatID, "link chat", err)
		return
	}
	h.stateManager.SetPrincipal(chatID, session.Principal)

	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Вы вошли как %s (%s).\n\nСписок команд: /help",
		session.Principal.Name, roleName(session.Principal.Role)))
}

// handleLogout обрабатывает команду /logout
func (h *Handlers) handleLogout(ctx context.Context, chatID int64, _ command) {
	p, ok := h.requirePrincipal(ctx, chatID)
	if !ok {
		return
	}

	if err := h.identityService.UnlinkChat(ctx, chatID); err != nil {
		h.replyError(ctx, chatID, "unlink chat", err)
		return
	}
	if err := h.identityService.SignOut(ctx, p); err != nil {
		h.logger.Warn("Sign out failed", zap.String("user_id", p.UserID), zap.Error(err))
	}
	h.stateManager.Forget(chatID)

	h.sendMessage(ctx, chatID, "👋 Вы вышли. Уведомления в этот чат больше не придут.")
}

// handleMe обрабатывает команду /me
func (h *Handlers) handleMe(ctx context.Context, chatID int64, _ command) {
	p, ok := h.requirePrincipal(ctx, chatID)
	if !ok {
		return
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("👤 %s\n📧 %s\n🎓 %s\n🆔 %s", p.Name, p.Email, roleName(p.Role), p.UserID))
}

// handleCancel без аргументов отменяет диалог, с ID отменяет запись
func (h *Handlers) handleCancel(ctx context.Context, chatID int64, cmd command) {
	if id := cmd.arg(0); id != "" {
		h.stateManager.ClearState(chatID)
		h.cancelReservation(ctx, chatID, id)
		return
	}

	if h.stateManager.GetState(chatID) == state.StateNone {
		h.sendMessage(ctx, chatID, "❌ Нет активных операций для отмены.")
		return
	}

	h.stateManager.ClearState(chatID)
	h.sendMessage(ctx, chatID, "✅ Операция отменена.\n\nИспользуйте /help для просмотра доступных команд.")
}

// handleDialog обрабатывает текст в зависимости от состояния диалога
func (h *Handlers) handleDialog(ctx context.Context, msg *models.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch currentState := h.stateManager.GetState(chatID); currentState {
	case state.StateNone:
		h.sendMessage(ctx, chatID, "Список команд: /help")

	case state.StateLoginPassword:
		email, _ := h.stateManager.GetData(chatID, state.KeyEmail)
		h.stateManager.ClearState(chatID)
		h.deleteMessage(ctx, chatID, msg.ID)
		h.signIn(ctx, chatID, email, text)

	case state.StateMessageText:
		recipient, _ := h.stateManager.GetData(chatID, state.KeyRecipient)
		h.stateManager.ClearState(chatID)
		h.sendChatMessage(ctx, chatID, recipient, text)

	default:
		h.logger.Warn("Unknown state", zap.String("state", string(currentState)))
		h.stateManager.ClearState(chatID)
	}
}

// deleteMessage убирает из чата сообщение с паролем
func (h *Handlers) deleteMessage(ctx context.Context, chatID int64, messageID int) {
	if _, err := h.sender.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID}); err != nil {
		h.logger.Warn("Failed to delete message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func roleName(role model.Role) string {
	switch role {
	case model.RoleStudent:
		return "студент"
	case model.RoleTeacher:
		return "преподаватель"
	case model.RoleAdmin:
		return "администратор"
	default:
		return string(role)
	}
}
