package agent

import (
	"context"
	"time"
)

// rateLimiter derives today's per-stage usage from the run log instead of a
// mutable counter: usage is the sum of succeeded items over completed,
// non-dry-run runs since local midnight. Crash-safe and reconstructible from
// history alone, at the cost of a scan over today's runs per check.
type rateLimiter struct {
	store    Store
	tenantID string
	now      time.Time
	loc      *time.Location
}

// usageToday returns the number of successful items for one stage since the
// tenant's local midnight.
func (r *rateLimiter) usageToday(ctx context.Context, stage string) (int, error) {
	return r.store.StageUsageSince(ctx, r.tenantID, stage, r.localMidnight())
}

// allow reports whether the stage is still under its daily cap. A cap of
// zero (or negative) blocks the stage entirely.
func (r *rateLimiter) allow(ctx context.Context, stage string, cap int) (bool, error) {
	used, err := r.usageToday(ctx, stage)
	if err != nil {
		return false, err
	}
	return used < cap, nil
}

func (r *rateLimiter) localMidnight() time.Time {
	local := r.now.In(r.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
}
