package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSessionsInMonth_AscendingSundays(t *testing.T) {
	// June 2025: Sundays are 1, 8, 15, 22, 29.
	sessions, err := SessionsInMonth(2025, time.June)
	require.NoError(t, err)

	want := []time.Time{
		date(2025, time.June, 1),
		date(2025, time.June, 8),
		date(2025, time.June, 15),
		date(2025, time.June, 22),
		date(2025, time.June, 29),
	}
	assert.Equal(t, want, sessions)
}

func TestSessionsInMonth_FourSundayMonth(t *testing.T) {
	// February 2025: Sundays are 2, 9, 16, 23.
	sessions, err := SessionsInMonth(2025, time.February)
	require.NoError(t, err)
	require.Len(t, sessions, 4)
	assert.Equal(t, date(2025, time.February, 2), sessions[0])
	assert.Equal(t, date(2025, time.February, 23), sessions[3])

	for _, s := range sessions {
		assert.Equal(t, time.Sunday, s.Weekday())
	}
}

func TestSessionsInMonth_InvalidMonth(t *testing.T) {
	_, err := SessionsInMonth(2025, time.Month(13))
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestLastSessions_MidWeekRef(t *testing.T) {
	// Wednesday 2025-06-18: completed Sundays are 15, 8, 1, May 25.
	sessions, err := LastSessions(date(2025, time.June, 18), 4)
	require.NoError(t, err)

	want := []time.Time{
		date(2025, time.June, 15),
		date(2025, time.June, 8),
		date(2025, time.June, 1),
		date(2025, time.May, 25),
	}
	assert.Equal(t, want, sessions)
}

func TestLastSessions_SundayRefExcluded(t *testing.T) {
	// Ref is itself a Sunday: the window starts a week earlier.
	ref := date(2025, time.June, 15)
	sessions, err := LastSessions(ref, 4)
	require.NoError(t, err)

	require.Len(t, sessions, 4)
	assert.Equal(t, date(2025, time.June, 8), sessions[0])
	for _, s := range sessions {
		assert.False(t, s.Equal(ref))
	}
}

func TestLastSessions_CrossesMonthAndYear(t *testing.T) {
	// Thursday 2025-01-02 looks back into December 2024.
	sessions, err := LastSessions(date(2025, time.January, 2), 4)
	require.NoError(t, err)

	want := []time.Time{
		date(2024, time.December, 29),
		date(2024, time.December, 22),
		date(2024, time.December, 15),
		date(2024, time.December, 8),
	}
	assert.Equal(t, want, sessions)
}

func TestLastSessions_InvalidWindow(t *testing.T) {
	_, err := LastSessions(date(2025, time.June, 18), 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestCurrentSession(t *testing.T) {
	sessions, err := SessionsInMonth(2025, time.June)
	require.NoError(t, err)

	s, ok := CurrentSession(date(2025, time.June, 8), sessions)
	assert.True(t, ok)
	assert.Equal(t, date(2025, time.June, 8), s)

	_, ok = CurrentSession(date(2025, time.June, 9), sessions)
	assert.False(t, ok)
}
