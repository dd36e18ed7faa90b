package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sunday; the evaluation window behind it is June 8, 1 and May 25, 18.
var dashboardRef = date(2025, time.June, 15)

func TestDashboard_CountsAndSessions(t *testing.T) {
	repo := newFakePersonRepo()
	ledger := newFakeLedger()
	seed(t, repo, seedSpec{id: "1", name: "Active One", born: date(2017, time.April, 1)})
	seed(t, repo, seedSpec{id: "2", name: "Active Two", born: date(2018, time.April, 1)})
	gone := seed(t, repo, seedSpec{id: "3", name: "Gone Kid", born: date(2017, time.April, 1)})
	require.NoError(t, gone.Deactivate())
	require.NoError(t, repo.Update(context.Background(), gone))
	pending := seed(t, repo, seedSpec{id: "4", name: "Leaving Kid", born: date(2017, time.April, 1)})
	require.NoError(t, pending.RequestDeletion())
	require.NoError(t, repo.Update(context.Background(), pending))

	h := NewDashboardHandler(repo, ledger, nil)
	res, err := h.Handle(context.Background(), DashboardQuery{ReferenceDate: dashboardRef})
	require.NoError(t, err)

	assert.Equal(t, 3, res.ActiveCount)
	assert.Equal(t, 1, res.InactiveCount)
	assert.Equal(t, 1, res.PendingDeletion)

	require.Len(t, res.MonthSessions, 5)
	assert.Equal(t, "2025-06-01", res.MonthSessions[0].Date)
	assert.Equal(t, "2025-06-29", res.MonthSessions[4].Date)
	for i, s := range res.MonthSessions {
		assert.Equal(t, s.Date == "2025-06-15", s.IsToday, "session %d", i)
	}
}

func TestDashboard_NoSessionHighlightOnWeekday(t *testing.T) {
	h := NewDashboardHandler(newFakePersonRepo(), newFakeLedger(), nil)
	res, err := h.Handle(context.Background(), DashboardQuery{ReferenceDate: date(2025, time.June, 18)})
	require.NoError(t, err)

	for _, s := range res.MonthSessions {
		assert.False(t, s.IsToday)
	}
}

func TestDashboard_AtRiskCount(t *testing.T) {
	repo := newFakePersonRepo()
	ledger := newFakeLedger()
	seed(t, repo, seedSpec{id: "risk", name: "Risk Kid", born: date(2017, time.April, 1)})
	seed(t, repo, seedSpec{id: "ok", name: "Steady Kid", born: date(2018, time.April, 1)})
	mark(t, ledger, "ok", date(2025, time.June, 8), true)
	mark(t, ledger, "ok", date(2025, time.June, 1), true)

	counts := newFakeCountCache()
	h := NewDashboardHandler(repo, ledger, counts)

	res, err := h.Handle(context.Background(), DashboardQuery{ReferenceDate: dashboardRef})
	require.NoError(t, err)
	assert.Equal(t, 1, res.AtRiskCount)
	assert.Equal(t, 1, counts.sets)

	// A second call is served from the cache, not recomputed.
	mark(t, ledger, "risk", date(2025, time.June, 8), true)
	res, err = h.Handle(context.Background(), DashboardQuery{ReferenceDate: dashboardRef})
	require.NoError(t, err)
	assert.Equal(t, 1, res.AtRiskCount)
	assert.Equal(t, 1, counts.sets)
}

func TestDashboard_CacheHitSkipsComputation(t *testing.T) {
	counts := newFakeCountCache()
	counts.SetInt(context.Background(), AtRiskCountKey, 42, time.Minute)
	counts.sets = 0

	h := NewDashboardHandler(newFakePersonRepo(), newFakeLedger(), counts)
	res, err := h.Handle(context.Background(), DashboardQuery{ReferenceDate: dashboardRef})
	require.NoError(t, err)

	assert.Equal(t, 42, res.AtRiskCount)
	assert.Equal(t, 0, counts.sets)
}
