package agent

import (
	"context"
	"fmt"

	"github.com/leadgear/prospector/internal/db"
	"github.com/leadgear/prospector/internal/provider"
)

// enrichStage augments un-enriched prospects with provider data. Existing
// values, including manual edits, always win over provider data: merged
// fields only land in attributes that are currently unset.
type enrichStage struct{}

func (s *enrichStage) name() string { return db.StageEnrich }

func (s *enrichStage) execute(ctx context.Context, sc *stageContext) (*Outcome, error) {
	out := newOutcome()

	prospects, err := sc.store.ListProspectsForEnrich(ctx, sc.cfg.TenantID, sc.batchSize())
	if err != nil {
		return out, fmt.Errorf("list prospects for enrich: %w", err)
	}

	for _, p := range prospects {
		out.Processed++
		if err := s.enrichOne(ctx, sc, p); err != nil {
			out.Failed++
			sc.logger.Errorw("Enrich failed", "prospect_id", p.ID, "name", p.Name, "error", err)
			continue
		}
		out.Succeeded++
	}
	return out, nil
}

func (s *enrichStage) enrichOne(ctx context.Context, sc *stageContext, p *db.Prospect) error {
	contacts, err := sc.store.ListContacts(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("list contacts: %w", err)
	}
	contactNames := make([]string, 0, len(contacts))
	for _, ct := range contacts {
		contactNames = append(contactNames, ct.Name)
	}

	result, err := sc.providers.Enrich.Enrich(ctx, provider.EnrichmentInput{
		Name:         p.Name,
		BusinessType: ptrStr(p.BusinessType),
		Industry:     ptrStr(p.Industry),
		Address:      ptrStr(p.Address),
		City:         ptrStr(p.City),
		Website:      ptrStr(p.Website),
		Phone:        ptrStr(p.Phone),
		Contacts:     contactNames,
	})
	if err != nil {
		return fmt.Errorf("enrichment provider: %w", err)
	}

	mergeEnrichment(p, result)
	p.AIEnriched = true
	appendNote(p, fmt.Sprintf("AI enrichment applied: %s", result.Summary))

	if err := sc.write.UpdateProspectEnrichment(ctx, p); err != nil {
		return err
	}
	return nil
}

// mergeEnrichment copies provider fields into the prospect, but only into
// attributes that are currently unset.
func mergeEnrichment(p *db.Prospect, r *provider.EnrichmentResult) {
	if p.Industry == nil && r.Industry != "" {
		p.Industry = strPtr(r.Industry)
	}
	if p.BusinessType == nil && r.BusinessType != "" {
		p.BusinessType = strPtr(r.BusinessType)
	}
	if p.CompanySize == nil && r.CompanySize != "" {
		p.CompanySize = strPtr(r.CompanySize)
	}
	if p.EstimatedValue == nil && r.EstimatedValue > 0 {
		p.EstimatedValue = intPtr(r.EstimatedValue)
	}
	if p.PotentialValue == nil && r.PotentialValue > 0 {
		p.PotentialValue = intPtr(r.PotentialValue)
	}
	if p.PriceTier == nil && r.PriceTier != "" {
		p.PriceTier = strPtr(r.PriceTier)
	}
	if p.Website == nil && r.Website != "" {
		p.Website = strPtr(r.Website)
	}
	if p.Phone == nil && r.Phone != "" {
		p.Phone = strPtr(r.Phone)
	}
}

// appendNote adds an audit line to the prospect's notes.
func appendNote(p *db.Prospect, note string) {
	if p.Notes == nil || *p.Notes == "" {
		p.Notes = strPtr(note)
		return
	}
	p.Notes = strPtr(*p.Notes + "\n" + note)
}
