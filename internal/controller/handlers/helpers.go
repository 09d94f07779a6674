package handlers

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/service"
)

// parseCommand разбирает текст команды. "/Book@my_bot a b" -> {book [a b]}
func parseCommand(text string) (command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return command{}, false
	}

	head := text
	tail := ""
	if idx := strings.IndexFunc(text, unicode.IsSpace); idx >= 0 {
		head, tail = text[:idx], strings.TrimSpace(text[idx:])
	}

	name := strings.TrimPrefix(head, "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return command{}, false
	}

	return command{
		name: strings.ToLower(name),
		args: strings.Fields(tail),
		tail: tail,
	}, true
}

// trimFirstField отбрасывает первое слово строки
func trimFirstField(s string) string {
	s = strings.TrimSpace(s)
	idx := strings.IndexFunc(s, unicode.IsSpace)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(s[idx:])
}

// errorText текст ошибки для пользователя. Внутренние сбои не раскрываются
func errorText(err error) string {
	switch {
	case errors.Is(err, model.ErrSlotAlreadyBooked):
		return "❌ Этот слот уже занят. Выберите другое время."
	case errors.Is(err, model.ErrSlotNotOffered):
		return "❌ Учитель не принимает в это время."
	case errors.Is(err, model.ErrInvalidStateTransition):
		return "❌ Запись уже обработана, её статус нельзя изменить."
	case errors.Is(err, model.ErrInvalidScheduleWindow):
		return "❌ Неверное окно расписания. Время окончания должно быть позже начала."
	case errors.Is(err, model.ErrUnauthenticated):
		return "🔒 Сначала войдите: /login <email>"
	case errors.Is(err, model.ErrPermissionDenied):
		return "❌ Недостаточно прав для этой операции."
	case errors.Is(err, model.ErrNotFound):
		return "❌ Не найдено."
	case errors.Is(err, model.ErrInvalidCredentials):
		return "❌ Неверный email или пароль."
	case errors.Is(err, model.ErrAccountPendingApproval):
		return "⏳ Аккаунт ожидает подтверждения администратором."
	case errors.Is(err, model.ErrEmailTaken):
		return "❌ Этот email уже зарегистрирован."
	case errors.Is(err, model.ErrInvalidInput):
		return "❌ Неверные данные. Формат команд: /help"
	default:
		return "❌ Произошла ошибка. Попробуйте позже."
	}
}

// weekdayNames названия дней недели
var weekdayNames = map[model.Weekday]string{
	model.Monday:    "Понедельник",
	model.Tuesday:   "Вторник",
	model.Wednesday: "Среда",
	model.Thursday:  "Четверг",
	model.Friday:    "Пятница",
	model.Saturday:  "Суббота",
	model.Sunday:    "Воскресенье",
}

func weekdayName(d model.Weekday) string {
	if name, ok := weekdayNames[d]; ok {
		return name
	}
	return string(d)
}

// FormatReservation бронь одной строкой с ID для команд
func FormatReservation(r *model.Reservation) string {
	text := fmt.Sprintf("%s %s %s - %s\n   🆔 %s",
		service.StatusEmoji(r.Status), r.Date, r.Time, service.StatusText(r.Status), r.ID)
	if r.StudentName != "" {
		text += "\n   👤 " + r.StudentName
	}
	if r.Message != "" {
		text += "\n   💬 " + r.Message
	}
	return text
}

// FormatWindow окно расписания
func FormatWindow(w *model.ScheduleWindow) string {
	state := "🟢"
	if !w.Active {
		state = "⚪️ скрыто"
	}
	return fmt.Sprintf("%s %s %s-%s, по %d мин.\n   🆔 %s",
		state, weekdayName(w.Day), w.StartTime, w.EndTime, w.SlotDuration, w.ID)
}

// FormatTeacher карточка учителя
func FormatTeacher(u *model.User) string {
	text := "👨‍🏫 " + u.Name
	if u.Department != "" || u.Subject != "" {
		text += fmt.Sprintf("\n   📚 %s, %s", u.Department, u.Subject)
	}
	return text + "\n   🆔 " + u.ID
}

// FormatMessage сообщение входящих с направлением
func FormatMessage(m *model.Message, viewerID string) string {
	direction := "📥 от " + m.FromName
	if m.FromID == viewerID {
		direction = "📤 для " + m.ToID
	}
	return fmt.Sprintf("%s (%s)\n%s", direction, m.CreatedAt.Format("02.01.2006 15:04"), m.Content)
}

// FormatAuditEntry запись журнала
func FormatAuditEntry(e *model.AuditEntry) string {
	name := e.UserName
	if name == "" {
		name = e.UserID
	}
	return fmt.Sprintf("%s [%s] %s: %s", e.Timestamp.Format("02.01 15:04"), e.UserRole, name, e.Action)
}

// Telegram ограничивает сообщение 4096 символами
const maxMessageLength = 4000

// splitText режет текст на части не длиннее limit рун, по возможности по переводам строк
func splitText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// joinBlocks склеивает блоки пустой строкой
func joinBlocks(header string, blocks []string) string {
	if len(blocks) == 0 {
		return header
	}
	return header + "\n\n" + strings.Join(blocks, "\n\n")
}
