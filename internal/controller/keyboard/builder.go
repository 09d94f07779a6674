package keyboard

import "github.com/go-telegram/bot/models"

// Telegram ограничивает callback data 64 байтами
const MaxCallbackData = 64

// Builder упрощает создание inline клавиатур
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

// NewBuilder создаёт новый builder клавиатуры
func NewBuilder() *Builder {
	return &Builder{
		rows: make([][]models.InlineKeyboardButton, 0),
	}
}

// Row добавляет новый ряд кнопок. Кнопки с callback data длиннее MaxCallbackData
// пропускаются: Telegram отклоняет сообщение целиком
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	row := make([]models.InlineKeyboardButton, 0, len(buttons))
	for _, button := range buttons {
		if len(button.CallbackData) > MaxCallbackData {
			continue
		}
		row = append(row, button)
	}
	if len(row) > 0 {
		b.rows = append(b.rows, row)
	}
	return b
}

// Grid раскладывает кнопки по рядам заданной ширины
func (b *Builder) Grid(perRow int, buttons ...models.InlineKeyboardButton) *Builder {
	if perRow <= 0 {
		perRow = 1
	}
	for start := 0; start < len(buttons); start += perRow {
		end := min(start+perRow, len(buttons))
		b.Row(buttons[start:end]...)
	}
	return b
}

// Build создаёт финальную клавиатуру; nil если кнопок нет
func (b *Builder) Build() *models.InlineKeyboardMarkup {
	if len(b.rows) == 0 {
		return nil
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: b.rows,
	}
}

// Button создаёт кнопку
func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}
