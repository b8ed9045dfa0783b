package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetAgentConfig retrieves the agent configuration for a tenant.
// Returns nil (no error) when the tenant has no config row.
func (c *Client) GetAgentConfig(ctx context.Context, tenantID string) (*AgentConfig, error) {
	row := c.pool.QueryRow(ctx, `
		SELECT tenant_id, enabled, paused_at, pause_reason, dry_run, batch_size,
		       max_discoveries_per_day, max_emails_per_day, max_outreach_per_day,
		       min_score_threshold, active_hours_start, active_hours_end, timezone,
		       target_locations, target_business_types, target_sources,
		       outreach_tone, outreach_channel, default_campaign_id,
		       next_combo_index, updated_at
		FROM agent_configs WHERE tenant_id = $1
	`, tenantID)

	var cfg AgentConfig
	err := row.Scan(&cfg.TenantID, &cfg.Enabled, &cfg.PausedAt, &cfg.PauseReason,
		&cfg.DryRun, &cfg.BatchSize,
		&cfg.MaxDiscoveriesPerDay, &cfg.MaxEmailsPerDay, &cfg.MaxOutreachPerDay,
		&cfg.MinScoreThreshold, &cfg.ActiveHoursStart, &cfg.ActiveHoursEnd, &cfg.Timezone,
		&cfg.TargetLocations, &cfg.TargetBusinessTypes, &cfg.TargetSources,
		&cfg.OutreachTone, &cfg.OutreachChannel, &cfg.DefaultCampaignID,
		&cfg.NextComboIndex, &cfg.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get agent config: %w", err)
	}
	return &cfg, nil
}

// AdvanceComboIndex persists the round-robin discovery cursor.
func (c *Client) AdvanceComboIndex(ctx context.Context, tenantID string, next int) error {
	_, err := c.pool.Exec(ctx, `
		UPDATE agent_configs SET next_combo_index = $2, updated_at = NOW()
		WHERE tenant_id = $1
	`, tenantID, next)
	if err != nil {
		return fmt.Errorf("advance combo index: %w", err)
	}
	return nil
}

// SetDefaultCampaign records the lazily created default campaign id so later
// cycles reuse it instead of creating a new campaign every run.
func (c *Client) SetDefaultCampaign(ctx context.Context, tenantID, campaignID string) error {
	_, err := c.pool.Exec(ctx, `
		UPDATE agent_configs SET default_campaign_id = $2, updated_at = NOW()
		WHERE tenant_id = $1
	`, tenantID, campaignID)
	if err != nil {
		return fmt.Errorf("set default campaign: %w", err)
	}
	return nil
}
