package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/leadgear/prospector/internal/db"
	"github.com/leadgear/prospector/internal/provider"
)

// findEmailsStage discovers owner contacts for enriched prospects that have
// no emailed contact yet. Every named candidate becomes a Contact record,
// email or not; the prospect only counts as a success when at least one
// created contact carries an email.
type findEmailsStage struct{}

func (s *findEmailsStage) name() string { return db.StageFindEmails }

func (s *findEmailsStage) execute(ctx context.Context, sc *stageContext) (*Outcome, error) {
	out := newOutcome()

	prospects, err := sc.store.ListProspectsForEmails(ctx, sc.cfg.TenantID, sc.batchSize())
	if err != nil {
		return out, fmt.Errorf("list prospects for emails: %w", err)
	}

	for _, p := range prospects {
		out.Processed++

		city := resolveCity(p)
		if city == "" {
			out.Failed++
			sc.logger.Warnw("No resolvable city for owner discovery", "prospect_id", p.ID, "name", p.Name)
			continue
		}

		found, err := s.findForProspect(ctx, sc, p, city)
		if err != nil {
			out.Failed++
			sc.logger.Errorw("Owner discovery failed", "prospect_id", p.ID, "error", err)
			continue
		}
		if found {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	return out, nil
}

// findForProspect creates contacts for every named candidate and reports
// whether any of them carried an email.
func (s *findEmailsStage) findForProspect(ctx context.Context, sc *stageContext, p *db.Prospect, city string) (bool, error) {
	owners, err := sc.providers.Owners.DiscoverOwners(ctx, provider.OwnerQuery{
		BusinessName: p.Name,
		City:         city,
		Region:       ptrStr(p.Region),
		Website:      ptrStr(p.Website),
	})
	if err != nil {
		return false, err
	}

	gotEmail := false
	for _, person := range owners {
		if strings.TrimSpace(person.Name) == "" {
			continue
		}
		ct := &db.Contact{
			ID:              uuid.New().String(),
			ProspectID:      p.ID,
			Name:            person.Name,
			IsDecisionMaker: person.IsDecisionMaker,
			CreatedAt:       sc.now,
		}
		if person.Title != "" {
			ct.Title = strPtr(person.Title)
		}
		if person.Email != "" {
			ct.Email = strPtr(person.Email)
		}
		if person.Phone != "" {
			ct.Phone = strPtr(person.Phone)
		}
		if person.EmailConfidence != "" {
			ct.EmailConfidence = strPtr(person.EmailConfidence)
		}
		if person.EmailSource != "" {
			ct.EmailSource = strPtr(person.EmailSource)
		}
		if err := sc.write.CreateContact(ctx, ct); err != nil {
			return gotEmail, fmt.Errorf("create contact: %w", err)
		}
		if person.Email != "" {
			gotEmail = true
		}
	}
	return gotEmail, nil
}

// resolveCity extracts a usable city from the prospect's address fields.
func resolveCity(p *db.Prospect) string {
	if city := strings.TrimSpace(ptrStr(p.City)); city != "" {
		return city
	}
	// Fall back to the second-to-last comma-separated address component,
	// e.g. "12 Main St, Springfield, IL" → "Springfield".
	addr := ptrStr(p.Address)
	parts := strings.Split(addr, ",")
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[len(parts)-2])
	}
	return ""
}
