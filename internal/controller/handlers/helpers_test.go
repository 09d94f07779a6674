package handlers

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		text string
		ok   bool
		want string
		args []string
	}{
		{name: "plain", text: "/help", ok: true, want: "help"},
		{name: "bot mention", text: "/Approve@appointment_bot abc", ok: true, want: "approve", args: []string{"abc"}},
		{name: "prefix sibling", text: "/approvestudent s1", ok: true, want: "approvestudent", args: []string{"s1"}},
		{name: "extra spaces", text: "  /book  t1   2026-03-02 09:00  ", ok: true, want: "book", args: []string{"t1", "2026-03-02", "09:00"}},
		{name: "not a command", text: "hello", ok: false},
		{name: "bare slash", text: "/", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := parseCommand(tt.text)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.want, cmd.name)
			assert.Equal(t, len(tt.args), len(cmd.args))
			for i, a := range tt.args {
				assert.Equal(t, a, cmd.arg(i))
			}
		})
	}
}

func TestCommandRest_KeepsFreeText(t *testing.T) {
	cmd, ok := parseCommand("/book t1 2026-03-02 09:00 Хочу обсудить  курсовую")
	require.True(t, ok)

	assert.Equal(t, "Хочу обсудить  курсовую", cmd.rest(3))
	assert.Equal(t, "", cmd.rest(4+2))
	assert.Equal(t, "", cmd.arg(10))

	msg, ok := parseCommand("/msg t1 Добрый день!")
	require.True(t, ok)
	assert.Equal(t, "Добрый день!", msg.rest(1))
}

func TestErrorText(t *testing.T) {
	booked := fmt.Errorf("reserve: %w", model.ErrSlotAlreadyBooked)
	assert.Contains(t, errorText(booked), "уже занят")
	assert.Contains(t, errorText(model.ErrInvalidStateTransition), "статус нельзя изменить")
	assert.Contains(t, errorText(model.ErrUnauthenticated), "/login")
	assert.Equal(t, "❌ Произошла ошибка. Попробуйте позже.", errorText(fmt.Errorf("connection reset")))
}

func TestSplitText(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitText("short", 10))

	lines := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf("line %02d", i))
	}
	text := strings.Join(lines, "\n")

	chunks := splitText(text, 50)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 50)
		assert.False(t, strings.HasPrefix(c, "\n"))
	}
	assert.Equal(t, strings.ReplaceAll(text, "\n", ""), strings.ReplaceAll(strings.Join(chunks, ""), "\n", ""))
}

func TestNextOccurrence(t *testing.T) {
	// 2026-03-04 среда
	wed := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-04", nextOccurrence(wed, model.Wednesday))
	assert.Equal(t, "2026-03-09", nextOccurrence(wed, model.Monday))
	assert.Equal(t, "2026-03-08", nextOccurrence(wed, model.Sunday))
}

func TestFormatReservation(t *testing.T) {
	r := &model.Reservation{
		ID:          "r1",
		StudentName: "Alice",
		Date:        "2026-03-02",
		Time:        "09:00",
		Message:     "Вопрос по лабораторной",
		Status:      model.ReservationStatusPending,
	}

	text := FormatReservation(r)
	assert.Contains(t, text, "⏳ 2026-03-02 09:00")
	assert.Contains(t, text, "🆔 r1")
	assert.Contains(t, text, "Alice")
	assert.Contains(t, text, "Вопрос по лабораторной")
}
