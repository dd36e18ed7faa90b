package redis

import (
	"context"
	"time"

	"github.com/church-register/roster-hub/internal/application/query"
)

// ReportCache implements query.ReportCache on top of the generic Cache.
// Monthly attendance matrices are expensive to assemble, so the
// unfiltered report is kept warm between attendance changes.
type ReportCache struct {
	cache *Cache
}

// NewReportCache creates a new ReportCache.
func NewReportCache(cache *Cache) *ReportCache {
	return &ReportCache{
		cache: cache,
	}
}

// GetReport returns a cached monthly report. Any error reads as a
// miss: the caller rebuilds the report from the ledger.
func (c *ReportCache) GetReport(ctx context.Context, year int, month time.Month) (*query.AttendanceReportResult, bool) {
	var result query.AttendanceReportResult
	if err := c.cache.Get(ctx, ReportKey(year, month), &result); err != nil {
		return nil, false
	}
	return &result, true
}

// SetReport stores a monthly report. Failures are swallowed: the
// cache is advisory.
func (c *ReportCache) SetReport(ctx context.Context, year int, month time.Month, result *query.AttendanceReportResult) {
	if result == nil {
		return
	}
	_ = c.cache.Set(ctx, ReportKey(year, month), result, TTLReportCache)
}

// InvalidateReport drops the cached report for a month.
func (c *ReportCache) InvalidateReport(ctx context.Context, year int, month time.Month) {
	_ = c.cache.Delete(ctx, ReportKey(year, month))
}
