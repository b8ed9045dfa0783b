package db

import (
	"context"
	"fmt"
)

// CreateContact inserts a contact for a prospect. Contacts without an email
// are still stored to preserve organizational knowledge.
func (c *Client) CreateContact(ctx context.Context, ct *Contact) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO contacts (id, prospect_id, name, title, email, phone,
		                      is_decision_maker, email_confidence, email_source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, ct.ID, ct.ProspectID, ct.Name, ct.Title, ct.Email, ct.Phone,
		ct.IsDecisionMaker, ct.EmailConfidence, ct.EmailSource, ct.CreatedAt)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

// ListContacts returns all contacts for a prospect, oldest first.
func (c *Client) ListContacts(ctx context.Context, prospectID string) ([]*Contact, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, prospect_id, name, title, email, phone,
		       is_decision_maker, email_confidence, email_source, created_at
		FROM contacts
		WHERE prospect_id = $1
		ORDER BY created_at ASC
	`, prospectID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var result []*Contact
	for rows.Next() {
		var ct Contact
		if err := rows.Scan(&ct.ID, &ct.ProspectID, &ct.Name, &ct.Title,
			&ct.Email, &ct.Phone, &ct.IsDecisionMaker,
			&ct.EmailConfidence, &ct.EmailSource, &ct.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		result = append(result, &ct)
	}
	return result, rows.Err()
}
