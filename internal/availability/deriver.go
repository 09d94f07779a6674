// Package availability превращает недельное окно учителя в список слотов.
package availability

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/appointment_bot/internal/model"
)

// SlotPolicy определяет, какие слоты на границе окна предлагаются
type SlotPolicy string

const (
	// PolicyStartInWindow слот предлагается, если его начало раньше конца окна.
	// Последний слот может выходить за конец окна. Окно короче одного слота
	// не предлагает ничего.
	PolicyStartInWindow SlotPolicy = "start_in_window"
	// PolicyEndInWindow слот предлагается, только если целиком помещается в окно
	PolicyEndInWindow SlotPolicy = "end_in_window"
)

// ParseSlotPolicy разбирает политику из конфигурации, пустая строка = PolicyStartInWindow
func ParseSlotPolicy(s string) (SlotPolicy, error) {
	switch p := SlotPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PolicyStartInWindow:
		return PolicyStartInWindow, nil
	case PolicyEndInWindow:
		return p, nil
	default:
		return "", fmt.Errorf("unknown slot policy %q", s)
	}
}

// DeriveSlots возвращает времена начала слотов от start с шагом durationMinutes,
// пока курсор строго меньше end. Функция чистая; корректность окна (start < end,
// duration > 0) проверяет вызывающий код.
func DeriveSlots(start, end model.Clock, durationMinutes int, policy SlotPolicy) []string {
	slots := []string{}
	if durationMinutes <= 0 || int(end-start) < durationMinutes {
		return slots
	}

	for cursor := start; cursor < end; cursor = cursor.Add(durationMinutes) {
		if policy == PolicyEndInWindow && cursor.Add(durationMinutes) > end {
			break
		}
		slots = append(slots, cursor.String())
	}

	return slots
}

// ForWindow выводит слоты для окна расписания
func ForWindow(w *model.ScheduleWindow, policy SlotPolicy) []string {
	return DeriveSlots(w.StartTime, w.EndTime, w.SlotDuration, policy)
}

// Offers проверяет, входит ли время в список слотов окна
func Offers(w *model.ScheduleWindow, slot string, policy SlotPolicy) bool {
	for _, s := range ForWindow(w, policy) {
		if s == slot {
			return true
		}
	}
	return false
}
