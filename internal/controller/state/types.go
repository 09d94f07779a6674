package state

import "github.com/Freeeeeet/appointment_bot/internal/model"

// ChatState текущий шаг диалога в чате
type ChatState string

const (
	StateNone ChatState = "" // Нет активного диалога

	StateLoginPassword ChatState = "login_password" // ждём пароль после /login <email>
	StateMessageText   ChatState = "message_text"   // ждём текст после /msg <userId>
)

// Ключи временных данных диалога
const (
	KeyEmail     = "email"
	KeyRecipient = "recipient"
)

// ChatData сессия чата: вошедший пользователь и данные текущего диалога
type ChatData struct {
	Principal *model.Principal
	State     ChatState
	Data      map[string]string
}
