// Package agent implements the cycle orchestrator: a stateless, externally
// triggered loop body that picks the pipeline stage with pending work,
// processes one bounded batch, and records the outcome. All progress and
// rate accounting live in the data store; nothing survives between cycles.
package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/leadgear/prospector/internal/db"
	"github.com/leadgear/prospector/internal/event"
	"github.com/leadgear/prospector/internal/provider"
)

// CycleOptions are the per-invocation overrides.
type CycleOptions struct {
	// ForceStage runs the named stage regardless of enablement, pause state,
	// and active hours. The tenant config must still exist.
	ForceStage string
	// ForceDryRun overrides the config's dry-run flag when non-nil.
	ForceDryRun *bool
}

// CycleResult is what one cycle reports back to its caller. RunCycle never
// returns an error; failures fold into Error.
type CycleResult struct {
	TenantID   string         `json:"tenant_id"`
	Stage      string         `json:"stage"`
	DryRun     bool           `json:"dry_run"`
	Processed  int            `json:"processed"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"`
	Details    map[string]any `json:"details,omitempty"`
	DurationMs int64          `json:"duration_ms"`
	Reason     string         `json:"reason,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Orchestrator drives prospecting cycles. One instance serves all tenants;
// it holds no per-tenant state.
type Orchestrator struct {
	store     Store
	providers provider.Providers
	bus       *event.Bus
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewOrchestrator creates a cycle orchestrator.
func NewOrchestrator(store Store, providers provider.Providers, bus *event.Bus, logger *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		providers: providers,
		bus:       bus,
		logger:    logger,
		now:       time.Now,
	}
}

// RunCycle executes at most one stage batch for the tenant. It is safe to
// call on any schedule: with no pending work or a closed gate, it degrades
// to a no-op result carrying the reason.
func (o *Orchestrator) RunCycle(ctx context.Context, tenantID string, opts CycleOptions) *CycleResult {
	started := o.now()
	result := &CycleResult{TenantID: tenantID, Stage: db.StageNone}
	defer func() {
		result.DurationMs = o.now().Sub(started).Milliseconds()
	}()

	cfg, err := o.store.GetAgentConfig(ctx, tenantID)
	if err != nil {
		o.logger.Errorw("Failed to load agent config", "tenant_id", tenantID, "error", err)
		result.Error = err.Error()
		return result
	}
	if cfg == nil {
		result.Reason = ReasonConfigMissing
		return result
	}

	release, ok, err := o.store.TryLockCycle(ctx, tenantID)
	if err != nil {
		o.logger.Errorw("Failed to acquire cycle lock", "tenant_id", tenantID, "error", err)
		result.Error = err.Error()
		return result
	}
	if !ok {
		result.Reason = ReasonCycleRunning
		return result
	}
	defer release(ctx)

	loc := tenantLocation(cfg)
	forced := opts.ForceStage != ""
	if reason := checkGates(cfg, started, loc, forced); reason != "" {
		result.Reason = reason
		return result
	}

	dryRun := cfg.DryRun
	if opts.ForceDryRun != nil {
		dryRun = *opts.ForceDryRun
	}
	result.DryRun = dryRun

	limiter := &rateLimiter{store: o.store, tenantID: tenantID, now: started, loc: loc}

	stage := opts.ForceStage
	if forced {
		if _, err := processorFor(stage); err != nil {
			result.Error = err.Error()
			return result
		}
	} else {
		var pending int
		stage, pending, err = detectStage(ctx, o.store, cfg, limiter)
		if err != nil {
			o.logger.Errorw("Work detection failed", "tenant_id", tenantID, "error", err)
			result.Error = err.Error()
			return result
		}
		if stage == db.StageNone {
			result.Reason = ReasonNoPendingWork
			return result
		}
		o.logger.Infow("Stage selected", "tenant_id", tenantID, "stage", stage, "pending", pending, "dry_run", dryRun)
	}
	result.Stage = stage

	o.bus.Publish(&event.Event{
		Type:     event.CycleStarted,
		TenantID: tenantID,
		Stage:    stage,
		Data:     map[string]any{"dry_run": dryRun, "forced": forced},
	})

	out, execErr := o.executeStage(ctx, stage, cfg, dryRun, started, loc)

	rl := &runLogger{store: o.store, logger: o.logger}
	run := rl.logRun(ctx, tenantID, stage, dryRun, out, execErr, started, o.now())

	if out != nil {
		result.Processed = out.Processed
		result.Succeeded = out.Succeeded
		result.Failed = out.Failed
		result.Skipped = out.Skipped
		result.Details = out.Details
	}
	if execErr != nil {
		result.Error = execErr.Error()
		o.logger.Errorw("Stage failed", "tenant_id", tenantID, "stage", stage, "error", execErr)
		o.bus.Publish(&event.Event{
			Type:     event.CycleFailed,
			TenantID: tenantID,
			Stage:    stage,
			Data:     map[string]any{"run_id": run.ID, "error": execErr.Error()},
		})
		return result
	}

	o.logger.Infow("Cycle completed",
		"tenant_id", tenantID,
		"stage", stage,
		"dry_run", dryRun,
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"skipped", result.Skipped,
	)
	o.bus.Publish(&event.Event{
		Type:     event.CycleCompleted,
		TenantID: tenantID,
		Stage:    stage,
		Data: map[string]any{
			"run_id":    run.ID,
			"succeeded": result.Succeeded,
			"failed":    result.Failed,
		},
	})
	return result
}

// executeStage runs one processor with the mutation writer bound for the
// cycle's mode. Panics are converted to stage failures so a cycle never
// propagates them to the trigger.
func (o *Orchestrator) executeStage(ctx context.Context, stage string, cfg *db.AgentConfig, dryRun bool, now time.Time, loc *time.Location) (out *Outcome, err error) {
	proc, err := processorFor(stage)
	if err != nil {
		return nil, err
	}

	var write Mutator = o.store
	if dryRun {
		write = noopMutator{}
	}

	sc := &stageContext{
		cfg:       cfg,
		store:     o.store,
		write:     write,
		providers: o.providers,
		bus:       o.bus,
		logger:    o.logger,
		now:       now,
		loc:       loc,
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panic: %v", r)
		}
	}()
	return proc.execute(ctx, sc)
}
