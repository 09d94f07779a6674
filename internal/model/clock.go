package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	ClockLayout = "15:04"
	DateLayout  = "2006-01-02"
)

// Clock время суток с точностью до минуты (минуты от полуночи)
type Clock int

// ParseClock разбирает строку формата HH:MM
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if len(s) != len(ClockLayout) {
		return 0, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidInput, s)
	}

	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidInput, s)
	}

	return Clock(t.Hour()*60 + t.Minute()), nil
}

// MustClock как ParseClock, но паникует. Только для констант и тестов.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Add сдвигает время на указанное количество минут
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Weekday день недели расписания
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var weekdays = map[Weekday]time.Weekday{
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
	Sunday:    time.Sunday,
}

// ParseWeekday принимает полное имя дня или первые три буквы ("mon")
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for day := range weekdays {
		if string(day) == s || (len(s) == 3 && strings.HasPrefix(string(day), s)) {
			return day, nil
		}
	}
	return "", fmt.Errorf("%w: unknown day %q", ErrInvalidInput, s)
}

// Valid проверяет что значение из перечисления
func (d Weekday) Valid() bool {
	_, ok := weekdays[d]
	return ok
}

// TimeWeekday конвертирует в time.Weekday
func (d Weekday) TimeWeekday() time.Weekday {
	return weekdays[d]
}

// WeekdayOf возвращает день недели для даты
func WeekdayOf(date time.Time) Weekday {
	for day, wd := range weekdays {
		if wd == date.Weekday() {
			return day
		}
	}
	return ""
}

// ParseDate разбирает календарную дату формата YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, s)
	}
	return d, nil
}
