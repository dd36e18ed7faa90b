package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func window() []time.Time {
	return []time.Time{
		date(2025, time.June, 15),
		date(2025, time.June, 8),
		date(2025, time.June, 1),
		date(2025, time.May, 25),
	}
}

func mark(t *testing.T, m PresenceMap, personID string, d time.Time, present bool) {
	t.Helper()
	rec, err := NewRecord(personID, d, present)
	require.NoError(t, err)
	m[PresenceKey{PersonID: rec.PersonID, SessionDate: rec.SessionDate}] = rec.Present
}

func TestEvaluate_AbsenceByDefault(t *testing.T) {
	// No records at all: every session counts as missed.
	ev := Evaluate("p1", window(), PresenceMap{})

	assert.Equal(t, 4, ev.Missed)
	assert.Equal(t, OutcomeDeactivate, ev.Outcome)
	require.Len(t, ev.Sessions, 4)
	for _, s := range ev.Sessions {
		assert.False(t, s.Present)
	}
}

func TestEvaluate_ExplicitAbsenceEqualsNoRecord(t *testing.T) {
	w := window()

	explicit := PresenceMap{}
	mark(t, explicit, "p1", w[0], false)
	mark(t, explicit, "p1", w[1], false)
	mark(t, explicit, "p1", w[2], false)
	mark(t, explicit, "p1", w[3], false)

	assert.Equal(t, Evaluate("p1", w, PresenceMap{}).Missed, Evaluate("p1", w, explicit).Missed)
}

func TestEvaluate_Outcomes(t *testing.T) {
	w := window()

	cases := []struct {
		present int
		want    Outcome
	}{
		{4, OutcomeOnTrack},
		{3, OutcomeOnTrack},
		{2, OutcomeOnTrack},
		{1, OutcomeAtRisk},
		{0, OutcomeDeactivate},
	}

	for _, tc := range cases {
		m := PresenceMap{}
		for i := 0; i < tc.present; i++ {
			mark(t, m, "p1", w[i], true)
		}
		ev := Evaluate("p1", w, m)
		assert.Equal(t, 4-tc.present, ev.Missed)
		assert.Equal(t, tc.want, ev.Outcome, "present %d", tc.present)
	}
}

func TestEvaluate_SessionOrderPreserved(t *testing.T) {
	w := window()
	m := PresenceMap{}
	mark(t, m, "p1", w[1], true)

	ev := Evaluate("p1", w, m)
	require.Len(t, ev.Sessions, 4)
	for i, s := range ev.Sessions {
		assert.Equal(t, w[i], s.SessionDate)
	}
	assert.True(t, ev.Sessions[1].Present)
}

func TestPresenceMap_IgnoresOtherPersons(t *testing.T) {
	w := window()
	m := PresenceMap{}
	mark(t, m, "p2", w[0], true)

	assert.False(t, m.IsPresent("p1", w[0]))
}

func TestBuildPresenceMap_NormalizesDates(t *testing.T) {
	// Records carry a time of day; lookups use bare dates.
	rec, err := NewRecord("p1", time.Date(2025, time.June, 15, 11, 30, 0, 0, time.UTC), true)
	require.NoError(t, err)

	m := BuildPresenceMap([]*Record{rec})
	assert.True(t, m.IsPresent("p1", date(2025, time.June, 15)))
}

func TestNewRecord_Validation(t *testing.T) {
	_, err := NewRecord("", date(2025, time.June, 15), true)
	assert.ErrorIs(t, err, ErrEmptyPersonID)

	_, err = NewRecord("p1", time.Time{}, true)
	assert.ErrorIs(t, err, ErrZeroSessionDate)
}

func TestClassifyMissed(t *testing.T) {
	assert.Equal(t, OutcomeOnTrack, ClassifyMissed(0))
	assert.Equal(t, OutcomeOnTrack, ClassifyMissed(2))
	assert.Equal(t, OutcomeAtRisk, ClassifyMissed(3))
	assert.Equal(t, OutcomeDeactivate, ClassifyMissed(4))
}
