package agent

import (
	"context"
	"fmt"

	"github.com/leadgear/prospector/internal/db"
)

// detectStage walks the fixed stage priority order and returns the first
// stage with pending work, plus its pending count. Returns StageNone when
// every predicate is zero.
func detectStage(ctx context.Context, store Store, cfg *db.AgentConfig, limiter *rateLimiter) (string, int, error) {
	for _, stage := range db.StageOrder {
		count, err := pendingCount(ctx, store, cfg, limiter, stage)
		if err != nil {
			return db.StageNone, 0, fmt.Errorf("detect %s: %w", stage, err)
		}
		if count > 0 {
			return stage, count, nil
		}
	}
	return db.StageNone, 0, nil
}

// pendingCount evaluates one stage's work predicate against current data.
func pendingCount(ctx context.Context, store Store, cfg *db.AgentConfig, limiter *rateLimiter, stage string) (int, error) {
	switch stage {
	case db.StageDiscover:
		if len(cfg.TargetLocations) == 0 || len(cfg.TargetBusinessTypes) == 0 {
			return 0, nil
		}
		ok, err := limiter.allow(ctx, db.StageDiscover, cfg.MaxDiscoveriesPerDay)
		if err != nil || !ok {
			return 0, err
		}
		// Discovery work is open-ended; one unit signals a batch is worth running.
		return 1, nil

	case db.StageEnrich:
		return store.CountPendingEnrich(ctx, cfg.TenantID)

	case db.StageFindEmails:
		ok, err := limiter.allow(ctx, db.StageFindEmails, cfg.MaxEmailsPerDay)
		if err != nil || !ok {
			return 0, err
		}
		return store.CountPendingEmails(ctx, cfg.TenantID)

	case db.StageScore:
		return store.CountPendingScore(ctx, cfg.TenantID)

	case db.StageGenerateOutreach:
		ok, err := limiter.allow(ctx, db.StageGenerateOutreach, cfg.MaxOutreachPerDay)
		if err != nil || !ok {
			return 0, err
		}
		return store.CountPendingOutreach(ctx, cfg.TenantID, cfg.MinScoreThreshold)

	default:
		return 0, fmt.Errorf("unknown stage: %s", stage)
	}
}
