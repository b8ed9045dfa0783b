package db

import (
	"context"
	"fmt"
)

const prospectColumns = `
	id, tenant_id, name, business_type, industry, address, city, region,
	website, phone, price_tier, rating, review_count, company_size,
	estimated_value, potential_value, status, ai_enriched, ai_score,
	ai_score_reasoning, priority, source, provenance, notes,
	created_at, updated_at`

func scanProspect(row interface{ Scan(...any) error }) (*Prospect, error) {
	var p Prospect
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.BusinessType, &p.Industry,
		&p.Address, &p.City, &p.Region, &p.Website, &p.Phone, &p.PriceTier,
		&p.Rating, &p.ReviewCount, &p.CompanySize,
		&p.EstimatedValue, &p.PotentialValue, &p.Status, &p.AIEnriched,
		&p.AIScore, &p.AIScoreReasoning, &p.Priority, &p.Source,
		&p.Provenance, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProspect inserts a new prospect record.
func (c *Client) CreateProspect(ctx context.Context, p *Prospect) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO prospects (id, tenant_id, name, business_type, industry,
		                       address, city, region, website, phone, price_tier,
		                       rating, review_count, company_size,
		                       estimated_value, potential_value, status, ai_enriched,
		                       ai_score, ai_score_reasoning, priority, source,
		                       provenance, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`, p.ID, p.TenantID, p.Name, p.BusinessType, p.Industry,
		p.Address, p.City, p.Region, p.Website, p.Phone, p.PriceTier,
		p.Rating, p.ReviewCount, p.CompanySize,
		p.EstimatedValue, p.PotentialValue, p.Status, p.AIEnriched,
		p.AIScore, p.AIScoreReasoning, p.Priority, p.Source,
		p.Provenance, p.Notes, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create prospect: %w", err)
	}
	return nil
}

// ProspectNameExists reports whether a prospect with the same name already
// exists for the tenant. Dedup is by case-insensitive name, not provider id.
func (c *Client) ProspectNameExists(ctx context.Context, tenantID, name string) (bool, error) {
	var exists bool
	err := c.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM prospects
			WHERE tenant_id = $1 AND LOWER(name) = LOWER($2)
		)
	`, tenantID, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("prospect name exists: %w", err)
	}
	return exists, nil
}

// CountPendingEnrich counts new, un-enriched prospects.
func (c *Client) CountPendingEnrich(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := c.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM prospects
		WHERE tenant_id = $1 AND status = $2 AND ai_enriched = FALSE
	`, tenantID, ProspectNew).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending enrich: %w", err)
	}
	return n, nil
}

// ListProspectsForEnrich returns the oldest un-enriched prospects.
func (c *Client) ListProspectsForEnrich(ctx context.Context, tenantID string, limit int) ([]*Prospect, error) {
	return c.listProspects(ctx, `
		SELECT `+prospectColumns+`
		FROM prospects
		WHERE tenant_id = $1 AND status = $2 AND ai_enriched = FALSE
		ORDER BY created_at ASC
		LIMIT $3
	`, tenantID, ProspectNew, limit)
}

// CountPendingEmails counts enriched prospects with no contact holding an email.
func (c *Client) CountPendingEmails(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := c.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM prospects p
		WHERE p.tenant_id = $1 AND p.ai_enriched = TRUE
		  AND NOT EXISTS (
			SELECT 1 FROM contacts ct
			WHERE ct.prospect_id = p.id AND ct.email IS NOT NULL AND ct.email != ''
		  )
	`, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending emails: %w", err)
	}
	return n, nil
}

// ListProspectsForEmails returns enriched prospects lacking an emailed contact.
func (c *Client) ListProspectsForEmails(ctx context.Context, tenantID string, limit int) ([]*Prospect, error) {
	return c.listProspects(ctx, `
		SELECT `+prospectColumns+`
		FROM prospects p
		WHERE p.tenant_id = $1 AND p.ai_enriched = TRUE
		  AND NOT EXISTS (
			SELECT 1 FROM contacts ct
			WHERE ct.prospect_id = p.id AND ct.email IS NOT NULL AND ct.email != ''
		  )
		ORDER BY p.created_at ASC
		LIMIT $2
	`, tenantID, limit)
}

// CountPendingScore counts enriched prospects without a score.
func (c *Client) CountPendingScore(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := c.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM prospects
		WHERE tenant_id = $1 AND ai_enriched = TRUE AND ai_score IS NULL
	`, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending score: %w", err)
	}
	return n, nil
}

// ListProspectsForScore returns enriched, unscored prospects, oldest first.
func (c *Client) ListProspectsForScore(ctx context.Context, tenantID string, limit int) ([]*Prospect, error) {
	return c.listProspects(ctx, `
		SELECT `+prospectColumns+`
		FROM prospects
		WHERE tenant_id = $1 AND ai_enriched = TRUE AND ai_score IS NULL
		ORDER BY created_at ASC
		LIMIT $2
	`, tenantID, limit)
}

// CountPendingOutreach counts prospects at or above the score threshold that
// hold an emailed contact and have no outreach message yet.
func (c *Client) CountPendingOutreach(ctx context.Context, tenantID string, minScore int) (int, error) {
	var n int
	err := c.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM prospects p
		WHERE p.tenant_id = $1 AND p.ai_score >= $2
		  AND EXISTS (
			SELECT 1 FROM contacts ct
			WHERE ct.prospect_id = p.id AND ct.email IS NOT NULL AND ct.email != ''
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM outreach_messages om WHERE om.prospect_id = p.id
		  )
	`, tenantID, minScore).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending outreach: %w", err)
	}
	return n, nil
}

// ListProspectsForOutreach returns outreach-eligible prospects, best score first.
func (c *Client) ListProspectsForOutreach(ctx context.Context, tenantID string, minScore, limit int) ([]*Prospect, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT `+prospectColumns+`
		FROM prospects p
		WHERE p.tenant_id = $1 AND p.ai_score >= $2
		  AND EXISTS (
			SELECT 1 FROM contacts ct
			WHERE ct.prospect_id = p.id AND ct.email IS NOT NULL AND ct.email != ''
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM outreach_messages om WHERE om.prospect_id = p.id
		  )
		ORDER BY p.ai_score DESC
		LIMIT $3
	`, tenantID, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("list prospects for outreach: %w", err)
	}
	defer rows.Close()
	return collectProspects(rows)
}

// UpdateProspectEnrichment writes merged enrichment fields, flips ai_enriched,
// and replaces the notes audit trail.
func (c *Client) UpdateProspectEnrichment(ctx context.Context, p *Prospect) error {
	_, err := c.pool.Exec(ctx, `
		UPDATE prospects
		SET business_type = $2, industry = $3, website = $4, phone = $5,
		    price_tier = $6, company_size = $7,
		    estimated_value = $8, potential_value = $9,
		    ai_enriched = TRUE, notes = $10, updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.BusinessType, p.Industry, p.Website, p.Phone,
		p.PriceTier, p.CompanySize, p.EstimatedValue, p.PotentialValue, p.Notes)
	if err != nil {
		return fmt.Errorf("update prospect enrichment: %w", err)
	}
	return nil
}

// UpdateProspectScore persists the AI score, its reasoning, and the derived
// priority tier.
func (c *Client) UpdateProspectScore(ctx context.Context, prospectID string, score int, reasoning, priority string) error {
	_, err := c.pool.Exec(ctx, `
		UPDATE prospects
		SET ai_score = $2, ai_score_reasoning = $3, priority = $4, updated_at = NOW()
		WHERE id = $1
	`, prospectID, score, reasoning, priority)
	if err != nil {
		return fmt.Errorf("update prospect score: %w", err)
	}
	return nil
}

func (c *Client) listProspects(ctx context.Context, query string, args ...any) ([]*Prospect, error) {
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list prospects: %w", err)
	}
	defer rows.Close()
	return collectProspects(rows)
}

func collectProspects(rows interface {
	Next() bool
	Err() error
	Scan(...any) error
}) ([]*Prospect, error) {
	var result []*Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prospect: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
