package eventhandler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/church-register/roster-hub/internal/application/query"
	"github.com/church-register/roster-hub/internal/domain/person"
	"github.com/church-register/roster-hub/internal/domain/shared"
)

type fakePersonCache struct {
	invalidated []string
}

func (c *fakePersonCache) Get(_ context.Context, _ string) (*person.Person, error) {
	return nil, shared.ErrNotFound
}

func (c *fakePersonCache) Set(_ context.Context, _ *person.Person, _ time.Duration) error {
	return nil
}

func (c *fakePersonCache) Delete(_ context.Context, _ string) error { return nil }

func (c *fakePersonCache) Invalidate(_ context.Context, personID string) error {
	c.invalidated = append(c.invalidated, personID)
	return nil
}

func (c *fakePersonCache) InvalidateAll(_ context.Context) error { return nil }

type fakeCounts struct {
	deleted []string
}

func (c *fakeCounts) GetInt(_ context.Context, _ string) (int, bool) { return 0, false }

func (c *fakeCounts) SetInt(_ context.Context, _ string, _ int, _ time.Duration) {}

func (c *fakeCounts) Delete(_ context.Context, key string) {
	c.deleted = append(c.deleted, key)
}

type fakeReports struct {
	invalidated []time.Month
}

func (c *fakeReports) GetReport(_ context.Context, _ int, _ time.Month) (*query.AttendanceReportResult, bool) {
	return nil, false
}

func (c *fakeReports) SetReport(_ context.Context, _ int, _ time.Month, _ *query.AttendanceReportResult) {
}

func (c *fakeReports) InvalidateReport(_ context.Context, _ int, month time.Month) {
	c.invalidated = append(c.invalidated, month)
}

func TestOnPersonChanged_InvalidatesCacheAndCounter(t *testing.T) {
	cache := &fakePersonCache{}
	counts := &fakeCounts{}
	h := NewOnPersonChangedHandler(cache, counts, nil)

	err := h.Handle(shared.NewPersonDeactivatedEvent("p1", "Kid One", "manual", 0))
	assert.NoError(t, err)

	assert.Equal(t, []string{"p1"}, cache.invalidated)
	assert.Equal(t, []string{query.AtRiskCountKey}, counts.deleted)
}

func TestOnPersonChanged_ProfileEditKeepsCounter(t *testing.T) {
	cache := &fakePersonCache{}
	counts := &fakeCounts{}
	h := NewOnPersonChangedHandler(cache, counts, nil)

	event := shared.NewPersonRegisteredEvent("p2", "Kid Two", "Genesis", "")
	event.BaseEvent.Type = shared.EventPersonUpdated

	assert.NoError(t, h.Handle(event))
	assert.Equal(t, []string{"p2"}, cache.invalidated)
	assert.Empty(t, counts.deleted)
}

func TestOnPersonChanged_NilDependencies(t *testing.T) {
	h := NewOnPersonChangedHandler(nil, nil, nil)
	assert.NoError(t, h.Handle(shared.NewPersonRegisteredEvent("p3", "Kid Three", "Genesis", "")))
}

func TestOnAttendanceMarked_InvalidatesMonthReport(t *testing.T) {
	reports := &fakeReports{}
	counts := &fakeCounts{}
	h := NewOnAttendanceMarkedHandler(reports, counts, nil)

	err := h.Handle(shared.NewAttendanceMarkedEvent("p1", "2025-06-08", true))
	assert.NoError(t, err)

	assert.Equal(t, []time.Month{time.June}, reports.invalidated)
	assert.Equal(t, []string{query.AtRiskCountKey}, counts.deleted)
}

func TestOnAttendanceMarked_RemoteEventPayload(t *testing.T) {
	reports := &fakeReports{}
	h := NewOnAttendanceMarkedHandler(reports, nil, nil)

	// Событие с другого экземпляра приходит без конкретного типа.
	event := remoteEvent{
		eventType: shared.EventAttendanceMarked,
		payload:   map[string]interface{}{"session_date": "2025-07-13", "present": true},
	}

	assert.NoError(t, h.Handle(event))
	assert.Equal(t, []time.Month{time.July}, reports.invalidated)
}

func TestOnAttendanceMarked_MalformedDateIgnored(t *testing.T) {
	reports := &fakeReports{}
	h := NewOnAttendanceMarkedHandler(reports, nil, nil)

	event := remoteEvent{
		eventType: shared.EventAttendanceMarked,
		payload:   map[string]interface{}{"session_date": "not-a-date"},
	}

	assert.NoError(t, h.Handle(event))
	assert.Empty(t, reports.invalidated)
}

type remoteEvent struct {
	eventType shared.EventType
	payload   map[string]interface{}
}

func (e remoteEvent) EventType() shared.EventType     { return e.eventType }
func (e remoteEvent) AggregateID() string             { return "remote" }
func (e remoteEvent) OccurredAt() time.Time           { return time.Now() }
func (e remoteEvent) Payload() map[string]interface{} { return e.payload }
