package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/church-register/roster-hub/internal/domain/attendance"
	"github.com/church-register/roster-hub/internal/domain/person"
)

func TestManageStatus_BulkDeactivateAndActivate(t *testing.T) {
	repo := newFakePersonRepo()
	seedPerson(t, repo, "a", "Child A")
	seedPerson(t, repo, "b", "Child B")

	h := NewManageStatusHandler(repo, nil)
	res, err := h.Handle(context.Background(), ManageStatusCommand{
		PersonIDs: []string{"a", "b", "missing"},
		Action:    StatusActionDeactivate,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Updated)
	assert.Equal(t, []string{"missing"}, res.Skipped)

	for _, id := range []string{"a", "b"} {
		p, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, person.StatusInactive, p.Status)
	}

	res, err = h.Handle(context.Background(), ManageStatusCommand{
		PersonIDs: []string{"a"},
		Action:    StatusActionActivate,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	p, err := repo.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, person.StatusActive, p.Status)
}

func TestManageStatus_UnknownAction(t *testing.T) {
	h := NewManageStatusHandler(newFakePersonRepo(), nil)
	_, err := h.Handle(context.Background(), ManageStatusCommand{
		PersonIDs: []string{"a"},
		Action:    "explode",
	})
	assert.Error(t, err)
}

func TestResolveDeletion_FullWorkflow(t *testing.T) {
	repo := newFakePersonRepo()
	ledger := newFakeLedger()
	seedPerson(t, repo, "a", "Child A")

	h := NewResolveDeletionHandler(repo, ledger, nil)

	res, err := h.Handle(context.Background(), ResolveDeletionCommand{PersonID: "a", Action: DeletionActionRequest})
	require.NoError(t, err)
	assert.Equal(t, person.StatusActive, res.Status)

	p, err := repo.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, p.DeletionRequested)

	res, err = h.Handle(context.Background(), ResolveDeletionCommand{PersonID: "a", Action: DeletionActionReject})
	require.NoError(t, err)
	p, err = repo.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.False(t, p.DeletionRequested)
	assert.Equal(t, person.StatusActive, p.Status)

	_, err = h.Handle(context.Background(), ResolveDeletionCommand{PersonID: "a", Action: DeletionActionRequest})
	require.NoError(t, err)
	res, err = h.Handle(context.Background(), ResolveDeletionCommand{PersonID: "a", Action: DeletionActionApprove})
	require.NoError(t, err)
	assert.Equal(t, person.StatusDeleted, res.Status)
}

func TestResolveDeletion_RequestNeedsActiveRecord(t *testing.T) {
	repo := newFakePersonRepo()
	p := seedPerson(t, repo, "a", "Child A")
	require.NoError(t, p.Deactivate())
	require.NoError(t, repo.Update(context.Background(), p))

	h := NewResolveDeletionHandler(repo, newFakeLedger(), nil)
	_, err := h.Handle(context.Background(), ResolveDeletionCommand{PersonID: "a", Action: DeletionActionRequest})
	assert.Error(t, err)
}

func TestResolveDeletion_PurgeCascadesAttendance(t *testing.T) {
	repo := newFakePersonRepo()
	ledger := newFakeLedger()
	seedPerson(t, repo, "a", "Child A")

	for _, d := range []time.Time{date(2025, time.June, 1), date(2025, time.June, 8)} {
		rec, err := attendance.NewRecord("a", d, true)
		require.NoError(t, err)
		require.NoError(t, ledger.Mark(context.Background(), rec))
	}

	h := NewResolveDeletionHandler(repo, ledger, nil)
	res, err := h.Handle(context.Background(), ResolveDeletionCommand{PersonID: "a", Action: DeletionActionPurge})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RecordsDeleted)

	_, err = repo.GetByID(context.Background(), "a")
	assert.ErrorIs(t, err, person.ErrPersonNotFound)

	left, err := ledger.GetForPerson(context.Background(), "a", date(2025, time.January, 1), date(2025, time.December, 31))
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestMarkAttendance_UpsertAndSkipDeleted(t *testing.T) {
	repo := newFakePersonRepo()
	ledger := newFakeLedger()
	seedPerson(t, repo, "a", "Child A")
	deleted := seedPerson(t, repo, "gone", "Gone Child")
	require.NoError(t, deleted.RequestDeletion())
	require.NoError(t, deleted.ApproveDeletion())
	require.NoError(t, repo.Update(context.Background(), deleted))

	session := date(2025, time.June, 15)
	h := NewMarkAttendanceHandler(repo, ledger, nil)

	res, err := h.Handle(context.Background(), MarkAttendanceCommand{
		SessionDate: session,
		Presence:    map[string]bool{"a": true, "gone": true, "missing": true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Marked)
	assert.ElementsMatch(t, []string{"gone", "missing"}, res.Skipped)

	rec, err := ledger.Get(context.Background(), "a", session)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Present)

	// Re-marking overwrites the previous mark.
	_, err = h.Handle(context.Background(), MarkAttendanceCommand{
		SessionDate: session,
		Presence:    map[string]bool{"a": false},
	})
	require.NoError(t, err)

	rec, err = ledger.Get(context.Background(), "a", session)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.Present)
}
