package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/church-register/roster-hub/internal/domain/attendance"
	"github.com/church-register/roster-hub/internal/domain/person"
	"github.com/church-register/roster-hub/internal/domain/shared"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Wednesday; the window is June 15, 8, 1 and May 25 of 2025.
var evalRef = date(2025, time.June, 18)

func seedPerson(t *testing.T, repo *fakePersonRepo, id, name string) *person.Person {
	t.Helper()
	p, err := person.NewPerson(person.NewPersonParams{
		ID:           id,
		FullName:     person.FullName(name),
		BirthDate:    date(2017, time.April, 10),
		RegisteredAt: date(2025, time.January, 1),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func markPresent(t *testing.T, ledger *fakeLedger, personID string, dates ...time.Time) {
	t.Helper()
	for _, d := range dates {
		rec, err := attendance.NewRecord(personID, d, true)
		require.NoError(t, err)
		require.NoError(t, ledger.Mark(context.Background(), rec))
	}
}

func TestEvaluateAttendance_DeactivatesFullWindowMiss(t *testing.T) {
	repo := newFakePersonRepo()
	ledger := newFakeLedger()
	pub := &capturingPublisher{}
	seedPerson(t, repo, "ghost", "Ghost Child")

	h := NewEvaluateAttendanceHandler(repo, ledger, pub)
	res, err := h.Handle(context.Background(), EvaluateAttendanceCommand{ReferenceDate: evalRef})
	require.NoError(t, err)

	require.Len(t, res.Deactivated, 1)
	assert.Equal(t, 4, res.Deactivated[0].Missed)
	assert.True(t, res.Deactivated[0].Deactivated)

	stored, err := repo.GetByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, person.StatusInactive, stored.Status)

	assert.Len(t, pub.ofType(shared.EventPersonDeactivated), 1)
	assert.Len(t, pub.ofType(shared.EventEvaluationCompleted), 1)
}

func TestEvaluateAttendance_AtRiskIsAdvisoryOnly(t *testing.T) {
	repo := newFakePersonRepo()
	ledger := newFakeLedger()
	seedPerson(t, repo, "risky", "Risky Child")
	// Present at exactly one of the four sessions.
	markPresent(t, ledger, "risky", date(2025, time.June, 8))

	h := NewEvaluateAttendanceHandler(repo, ledger, nil)
	res, err := h.Handle(context.Background(), EvaluateAttendanceCommand{ReferenceDate: evalRef})
	require.NoError(t, err)

	require.Len(t, res.AtRisk, 1)
	assert.Equal(t, 3, res.AtRisk[0].Missed)
	assert.Empty(t, res.Deactivated)

	stored, err := repo.GetByID(context.Background(), "risky")
	require.NoError(t, err)
	assert.Equal(t, person.StatusActive, stored.Status)
}

func TestEvaluateAttendance_OnTrackUntouched(t *testing.T) {
	repo := newFakePersonRepo()
	ledger := newFakeLedger()
	seedPerson(t, repo, "ok", "Ok Child")
	markPresent(t, ledger, "ok", date(2025, time.June, 15), date(2025, time.June, 1))

	h := NewEvaluateAttendanceHandler(repo, ledger, nil)
	res, err := h.Handle(context.Background(), EvaluateAttendanceCommand{ReferenceDate: evalRef})
	require.NoError(t, err)

	assert.Empty(t, res.AtRisk)
	assert.Empty(t, res.Deactivated)
	assert.Equal(t, 1, res.Evaluated)
}

func TestEvaluateAttendance_Idempotent(t *testing.T) {
	repo := newFakePersonRepo()
	ledger := newFakeLedger()
	seedPerson(t, repo, "ghost", "Ghost Child")

	h := NewEvaluateAttendanceHandler(repo, ledger, nil)
	_, err := h.Handle(context.Background(), EvaluateAttendanceCommand{ReferenceDate: evalRef})
	require.NoError(t, err)

	// Second run: the child is already inactive and out of scope.
	res, err := h.Handle(context.Background(), EvaluateAttendanceCommand{ReferenceDate: evalRef})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Evaluated)
	assert.Empty(t, res.Deactivated)
}

func TestEvaluateAttendance_SundayRefExcludesToday(t *testing.T) {
	repo := newFakePersonRepo()
	ledger := newFakeLedger()
	seedPerson(t, repo, "sun", "Sunday Child")
	// Present only today (a Sunday): must not count toward the window.
	ref := date(2025, time.June, 15)
	markPresent(t, ledger, "sun", ref)

	h := NewEvaluateAttendanceHandler(repo, ledger, nil)
	res, err := h.Handle(context.Background(), EvaluateAttendanceCommand{ReferenceDate: ref})
	require.NoError(t, err)

	require.Len(t, res.Deactivated, 1)
	assert.Equal(t, 4, res.Deactivated[0].Missed)
	for _, s := range res.Window {
		assert.False(t, s.Equal(ref))
	}
}

func TestEvaluateAttendance_DryRunCommitsNothing(t *testing.T) {
	repo := newFakePersonRepo()
	ledger := newFakeLedger()
	pub := &capturingPublisher{}
	seedPerson(t, repo, "ghost", "Ghost Child")

	h := NewEvaluateAttendanceHandler(repo, ledger, pub)
	res, err := h.EvaluateAtRisk(context.Background(), evalRef)
	require.NoError(t, err)

	require.Len(t, res.Deactivated, 1)
	assert.False(t, res.Deactivated[0].Deactivated)
	assert.Equal(t, 1, res.AtRiskCount())

	stored, err := repo.GetByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, person.StatusActive, stored.Status)
	assert.Empty(t, pub.events)
}

func TestEvaluateAttendance_WindowDetailOrder(t *testing.T) {
	repo := newFakePersonRepo()
	ledger := newFakeLedger()
	seedPerson(t, repo, "ghost", "Ghost Child")

	h := NewEvaluateAttendanceHandler(repo, ledger, nil)
	res, err := h.Handle(context.Background(), EvaluateAttendanceCommand{ReferenceDate: evalRef})
	require.NoError(t, err)

	require.Len(t, res.Window, 4)
	assert.Equal(t, date(2025, time.June, 15), res.Window[0])
	assert.Equal(t, date(2025, time.May, 25), res.Window[3])

	require.Len(t, res.Deactivated, 1)
	for i, s := range res.Deactivated[0].Sessions {
		assert.Equal(t, res.Window[i], s.SessionDate)
	}
}
