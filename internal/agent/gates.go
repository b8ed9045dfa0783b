package agent

import (
	"fmt"
	"time"

	"github.com/leadgear/prospector/internal/db"
)

// No-op reasons returned by gate checks. These are terminal outcomes carried
// on the cycle result, never errors.
const (
	ReasonConfigMissing = "no agent config for tenant"
	ReasonDisabled      = "agent disabled"
	ReasonOutsideHours  = "outside active hours"
	ReasonNoPendingWork = "no pending work"
	ReasonCycleRunning  = "cycle already running"
)

// checkGates evaluates the enablement gates in order and returns the first
// failing reason, or "" when the cycle may proceed. A forced invocation
// bypasses everything except config existence, which the caller has already
// established.
func checkGates(cfg *db.AgentConfig, now time.Time, loc *time.Location, forced bool) string {
	if forced {
		return ""
	}
	if !cfg.Enabled {
		return ReasonDisabled
	}
	if cfg.PausedAt != nil {
		reason := ""
		if cfg.PauseReason != nil && *cfg.PauseReason != "" {
			reason = *cfg.PauseReason
		}
		if reason == "" {
			return "agent paused"
		}
		return fmt.Sprintf("agent paused: %s", reason)
	}
	if !withinActiveHours(cfg, now, loc) {
		return ReasonOutsideHours
	}
	return ""
}

// withinActiveHours reports whether now falls inside the configured window.
// A window with start == end is always open; start > end wraps past midnight.
func withinActiveHours(cfg *db.AgentConfig, now time.Time, loc *time.Location) bool {
	start, end := cfg.ActiveHoursStart, cfg.ActiveHoursEnd
	if start == end {
		return true
	}
	hour := now.In(loc).Hour()
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// tenantLocation resolves the tenant's timezone, falling back to server
// local time when unset or invalid.
func tenantLocation(cfg *db.AgentConfig) *time.Location {
	if cfg.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
