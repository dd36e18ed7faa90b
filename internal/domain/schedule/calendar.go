// Package schedule содержит календарь занятий воскресной программы.
// Занятие проводится каждое воскресенье; все даты - календарные
// (UTC полночь), время суток и часовые пояса не участвуют.
package schedule

import (
	"errors"
	"time"
)

// DefaultWindowSize - размер окна оценки посещаемости: последние
// четыре завершённых воскресенья.
const DefaultWindowSize = 4

// ErrInvalidMonth - месяц вне диапазона 1-12.
var ErrInvalidMonth = errors.New("month must be between 1 and 12")

// ErrInvalidWindow - размер окна должен быть положительным.
var ErrInvalidWindow = errors.New("window size must be positive")

// SessionsInMonth возвращает все воскресенья указанного месяца по
// возрастанию. Для месяца без воскресений (не бывает) - пустой срез.
func SessionsInMonth(year int, month time.Month) ([]time.Time, error) {
	if month < time.January || month > time.December {
		return nil, ErrInvalidMonth
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// Сдвиг до первого воскресенья месяца.
	offset := (7 - int(first.Weekday())) % 7
	sunday := first.AddDate(0, 0, offset)

	var sessions []time.Time
	for sunday.Month() == month {
		sessions = append(sessions, sunday)
		sunday = sunday.AddDate(0, 0, 7)
	}
	return sessions, nil
}

// LastSessions возвращает n последних завершённых воскресений
// относительно опорной даты, от недавнего к давнему. Опорная дата
// никогда не входит в результат: если ref - воскресенье, отсчёт
// начинается с предыдущего.
func LastSessions(ref time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, ErrInvalidWindow
	}

	ref = dateOnly(ref)

	// Дней назад до ближайшего воскресенья строго раньше опорной даты.
	daysBack := int(ref.Weekday())
	if daysBack == 0 {
		daysBack = 7
	}
	anchor := ref.AddDate(0, 0, -daysBack)

	sessions := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		sessions = append(sessions, anchor.AddDate(0, 0, -7*i))
	}
	return sessions, nil
}

// CurrentSession возвращает занятие месяца, совпадающее с опорной датой,
// и признак его наличия. Используется для подсветки текущего воскресенья.
func CurrentSession(ref time.Time, monthSessions []time.Time) (time.Time, bool) {
	ref = dateOnly(ref)
	for _, s := range monthSessions {
		if s.Equal(ref) {
			return s, true
		}
	}
	return time.Time{}, false
}

// IsSessionDay возвращает true, если дата приходится на воскресенье.
func IsSessionDay(t time.Time) bool {
	return t.Weekday() == time.Sunday
}

// dateOnly отбрасывает время суток, оставляя календарную дату в UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
