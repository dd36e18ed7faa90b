package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/church-register/roster-hub/internal/domain/attendance"
	"github.com/church-register/roster-hub/internal/domain/person"
	"github.com/church-register/roster-hub/internal/domain/shared"
)

// fakePersonRepo is an in-memory person.Repository for query tests.
type fakePersonRepo struct {
	mu      sync.Mutex
	persons map[string]*person.Person
}

func newFakePersonRepo() *fakePersonRepo {
	return &fakePersonRepo{persons: make(map[string]*person.Person)}
}

func (r *fakePersonRepo) Create(_ context.Context, p *person.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.persons[p.ID]; ok {
		return shared.ErrAlreadyExists
	}
	r.persons[p.ID] = p.Clone()
	return nil
}

func (r *fakePersonRepo) GetByID(_ context.Context, id string) (*person.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.persons[id]
	if !ok {
		return nil, person.ErrPersonNotFound
	}
	return p.Clone(), nil
}

func (r *fakePersonRepo) Update(_ context.Context, p *person.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.persons[p.ID]; !ok {
		return person.ErrPersonNotFound
	}
	r.persons[p.ID] = p.Clone()
	return nil
}

func (r *fakePersonRepo) HardDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.persons[id]; !ok {
		return person.ErrPersonNotFound
	}
	delete(r.persons, id)
	return nil
}

func (r *fakePersonRepo) list(filter func(*person.Person) bool) []*person.Person {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*person.Person
	for _, p := range r.persons {
		if filter(p) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakePersonRepo) GetAll(_ context.Context, opts person.ListOptions) ([]*person.Person, error) {
	return r.list(func(p *person.Person) bool {
		if p.Status == person.StatusDeleted {
			return false
		}
		if !opts.IncludeInactive && p.Status == person.StatusInactive {
			return false
		}
		return true
	}), nil
}

func (r *fakePersonRepo) GetByStatus(_ context.Context, status person.Status, _ person.ListOptions) ([]*person.Person, error) {
	return r.list(func(p *person.Person) bool { return p.Status == status }), nil
}

func (r *fakePersonRepo) GetByBand(_ context.Context, band person.Band, opts person.ListOptions) ([]*person.Person, error) {
	return r.list(func(p *person.Person) bool {
		if p.Status == person.StatusDeleted || p.Band != band {
			return false
		}
		return opts.IncludeInactive || p.Status == person.StatusActive
	}), nil
}

func (r *fakePersonRepo) GetByIDs(_ context.Context, ids []string) ([]*person.Person, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return r.list(func(p *person.Person) bool { return want[p.ID] }), nil
}

func (r *fakePersonRepo) GetPendingDeletion(_ context.Context) ([]*person.Person, error) {
	return r.list(func(p *person.Person) bool { return p.DeletionRequested }), nil
}

func (r *fakePersonRepo) Count(_ context.Context) (int, error) {
	return len(r.list(func(p *person.Person) bool { return p.Status != person.StatusDeleted })), nil
}

func (r *fakePersonRepo) CountByStatus(_ context.Context, status person.Status) (int, error) {
	return len(r.list(func(p *person.Person) bool { return p.Status == status })), nil
}

func (r *fakePersonRepo) Search(_ context.Context, query string, _ person.ListOptions) ([]*person.Person, error) {
	q := strings.ToLower(query)
	return r.list(func(p *person.Person) bool {
		return p.Status != person.StatusDeleted && strings.Contains(p.FullName.Fold(), q)
	}), nil
}

func (r *fakePersonRepo) GetByFamilyKey(_ context.Context, familyKey string) ([]*person.Person, error) {
	return r.list(func(p *person.Person) bool {
		return p.Status != person.StatusDeleted && p.FamilyKey == familyKey
	}), nil
}

func (r *fakePersonRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.persons[id]
	return ok, nil
}

// fakeLedger is an in-memory attendance.Ledger.
type fakeLedger struct {
	mu      sync.Mutex
	records map[attendance.PresenceKey]*attendance.Record
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[attendance.PresenceKey]*attendance.Record)}
}

func ledgerKey(personID string, d time.Time) attendance.PresenceKey {
	return attendance.PresenceKey{
		PersonID:    personID,
		SessionDate: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
	}
}

func (l *fakeLedger) Mark(_ context.Context, rec *attendance.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[ledgerKey(rec.PersonID, rec.SessionDate)] = rec
	return nil
}

func (l *fakeLedger) Get(_ context.Context, personID string, d time.Time) (*attendance.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records[ledgerKey(personID, d)], nil
}

func (l *fakeLedger) GetForPerson(_ context.Context, personID string, from, to time.Time) ([]*attendance.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*attendance.Record
	for _, rec := range l.records {
		if rec.PersonID == personID && !rec.SessionDate.Before(from) && !rec.SessionDate.After(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (l *fakeLedger) GetRange(_ context.Context, from, to time.Time) ([]*attendance.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*attendance.Record
	for _, rec := range l.records {
		if !rec.SessionDate.Before(from) && !rec.SessionDate.After(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (l *fakeLedger) GetForSessions(_ context.Context, sessions []time.Time) ([]*attendance.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*attendance.Record
	for _, s := range sessions {
		for _, rec := range l.records {
			if rec.SessionDate.Equal(time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)) {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func (l *fakeLedger) DeleteForPerson(_ context.Context, personID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k := range l.records {
		if k.PersonID == personID {
			delete(l.records, k)
			n++
		}
	}
	return n, nil
}

func (l *fakeLedger) CountPresent(_ context.Context, d time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, rec := range l.records {
		if rec.Present && rec.SessionDate.Equal(time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)) {
			n++
		}
	}
	return n, nil
}

// fakeCountCache is an in-memory CountCache that tracks hits and writes.
type fakeCountCache struct {
	mu     sync.Mutex
	values map[string]int
	sets   int
}

func newFakeCountCache() *fakeCountCache {
	return &fakeCountCache{values: make(map[string]int)}
}

func (c *fakeCountCache) GetInt(_ context.Context, key string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *fakeCountCache) SetInt(_ context.Context, key string, value int, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	c.sets++
}

func (c *fakeCountCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

// fakeReportCache is an in-memory ReportCache keyed by year-month.
type fakeReportCache struct {
	mu      sync.Mutex
	reports map[string]*AttendanceReportResult
	sets    int
}

func newFakeReportCache() *fakeReportCache {
	return &fakeReportCache{reports: make(map[string]*AttendanceReportResult)}
}

func reportKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

func (c *fakeReportCache) GetReport(_ context.Context, year int, month time.Month) (*AttendanceReportResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.reports[reportKey(year, month)]
	return r, ok
}

func (c *fakeReportCache) SetReport(_ context.Context, year int, month time.Month, result *AttendanceReportResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[reportKey(year, month)] = result
	c.sets++
}

func (c *fakeReportCache) InvalidateReport(_ context.Context, year int, month time.Month) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reports, reportKey(year, month))
}
