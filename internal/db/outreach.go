package db

import (
	"context"
	"fmt"
)

// CreateCampaign inserts a campaign record.
func (c *Client) CreateCampaign(ctx context.Context, cp *Campaign) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO campaigns (id, tenant_id, name, channel, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, cp.ID, cp.TenantID, cp.Name, cp.Channel, cp.Status, cp.CreatedAt)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

// CreateOutreachMessage inserts a drafted message. Messages are always
// written as draft/pending; sending happens outside this system.
func (c *Client) CreateOutreachMessage(ctx context.Context, m *OutreachMessage) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO outreach_messages (id, tenant_id, prospect_id, campaign_id,
		                               channel, subject, body, ai_generated,
		                               status, approval_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, m.ID, m.TenantID, m.ProspectID, m.CampaignID,
		m.Channel, m.Subject, m.Body, m.AIGenerated,
		m.Status, m.ApprovalStatus, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create outreach message: %w", err)
	}
	return nil
}
