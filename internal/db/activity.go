package db

import (
	"context"
	"fmt"
)

// CreateActivityLog appends a tenant-wide timeline entry.
func (c *Client) CreateActivityLog(ctx context.Context, a *ActivityLog) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO activity_logs (id, tenant_id, category, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.TenantID, a.Category, a.Action, a.Detail, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create activity log: %w", err)
	}
	return nil
}
