package db

import (
	"context"
	"fmt"
	"time"
)

// CreateAgentRun appends a run record.
func (c *Client) CreateAgentRun(ctx context.Context, r *AgentRun) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO agent_runs (id, tenant_id, stage, status, dry_run,
		                        processed, succeeded, failed, skipped,
		                        details, error, started_at, completed_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, r.ID, r.TenantID, r.Stage, r.Status, r.DryRun,
		r.Processed, r.Succeeded, r.Failed, r.Skipped,
		r.Details, r.Error, r.StartedAt, r.CompletedAt, r.DurationMs)
	if err != nil {
		return fmt.Errorf("create agent run: %w", err)
	}
	return nil
}

// StageUsageSince sums succeeded item counts of completed, non-dry-run runs
// for one stage since the given instant. Daily rate caps are derived from
// this query rather than a mutable counter, so usage is reconstructible
// from history alone.
func (c *Client) StageUsageSince(ctx context.Context, tenantID, stage string, since time.Time) (int, error) {
	var total int
	err := c.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(succeeded), 0) FROM agent_runs
		WHERE tenant_id = $1 AND stage = $2 AND status = $3
		  AND dry_run = FALSE AND started_at >= $4
	`, tenantID, stage, RunCompleted, since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("stage usage since: %w", err)
	}
	return total, nil
}

// ListRecentRuns returns the most recent runs for a tenant, newest first.
func (c *Client) ListRecentRuns(ctx context.Context, tenantID string, limit int) ([]*AgentRun, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, tenant_id, stage, status, dry_run,
		       processed, succeeded, failed, skipped,
		       details, error, started_at, completed_at, duration_ms
		FROM agent_runs
		WHERE tenant_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	defer rows.Close()

	var result []*AgentRun
	for rows.Next() {
		var r AgentRun
		if err := rows.Scan(&r.ID, &r.TenantID, &r.Stage, &r.Status, &r.DryRun,
			&r.Processed, &r.Succeeded, &r.Failed, &r.Skipped,
			&r.Details, &r.Error, &r.StartedAt, &r.CompletedAt, &r.DurationMs); err != nil {
			return nil, fmt.Errorf("scan agent run: %w", err)
		}
		result = append(result, &r)
	}
	return result, rows.Err()
}
