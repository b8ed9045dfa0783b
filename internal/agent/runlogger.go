package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leadgear/prospector/internal/db"
)

// stageCategory maps each stage to the coarser activity-log category used by
// the tenant-wide timeline. Consumers rely on this mapping; keep it stable.
var stageCategory = map[string]string{
	db.StageDiscover:         db.CategoryDiscovery,
	db.StageEnrich:           db.CategoryEnrichment,
	db.StageFindEmails:       db.CategoryEnrichment,
	db.StageScore:            db.CategoryPipeline,
	db.StageGenerateOutreach: db.CategoryOutreachSequence,
}

// runLogger persists the outcome of one attempted stage: a stage-scoped
// AgentRun record plus a tenant-wide activity-log entry.
type runLogger struct {
	store  Store
	logger *zap.SugaredLogger
}

// logRun writes both records. Run records are written even for dry-run and
// failed cycles; only gate failures and "no pending work" skip logging.
func (rl *runLogger) logRun(ctx context.Context, tenantID, stage string, dryRun bool, out *Outcome, execErr error, started, completed time.Time) *db.AgentRun {
	run := &db.AgentRun{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		Stage:       stage,
		Status:      db.RunCompleted,
		DryRun:      dryRun,
		StartedAt:   started,
		CompletedAt: completed,
		DurationMs:  completed.Sub(started).Milliseconds(),
	}
	if out != nil {
		run.Processed = out.Processed
		run.Succeeded = out.Succeeded
		run.Failed = out.Failed
		run.Skipped = out.Skipped
		if len(out.Details) > 0 {
			if b, err := json.Marshal(out.Details); err == nil {
				run.Details = strPtr(string(b))
			}
		}
	}
	if execErr != nil {
		run.Status = db.RunFailed
		run.Error = strPtr(execErr.Error())
	}

	if err := rl.store.CreateAgentRun(ctx, run); err != nil {
		rl.logger.Errorw("Failed to write agent run", "tenant_id", tenantID, "stage", stage, "error", err)
	}

	category, ok := stageCategory[stage]
	if !ok {
		category = db.CategoryPipeline
	}
	detail, _ := json.Marshal(map[string]any{
		"run_id":    run.ID,
		"status":    run.Status,
		"dry_run":   run.DryRun,
		"processed": run.Processed,
		"succeeded": run.Succeeded,
		"failed":    run.Failed,
		"skipped":   run.Skipped,
	})
	entry := &db.ActivityLog{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Category:  category,
		Action:    "agent_" + stage,
		Detail:    strPtr(string(detail)),
		CreatedAt: completed,
	}
	if err := rl.store.CreateActivityLog(ctx, entry); err != nil {
		rl.logger.Errorw("Failed to write activity log", "tenant_id", tenantID, "stage", stage, "error", err)
	}

	return run
}
