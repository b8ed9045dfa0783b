package agent

import (
	"context"
	"fmt"

	"github.com/leadgear/prospector/internal/db"
	"github.com/leadgear/prospector/internal/provider"
)

// scoreStage asks the scoring provider to rate enriched, unscored prospects.
// The provider is the sole source of the score; this stage only normalizes
// the input and persists the verdict.
type scoreStage struct{}

func (s *scoreStage) name() string { return db.StageScore }

func (s *scoreStage) execute(ctx context.Context, sc *stageContext) (*Outcome, error) {
	out := newOutcome()

	prospects, err := sc.store.ListProspectsForScore(ctx, sc.cfg.TenantID, sc.batchSize())
	if err != nil {
		return out, fmt.Errorf("list prospects for score: %w", err)
	}

	for _, p := range prospects {
		out.Processed++
		if err := s.scoreOne(ctx, sc, p); err != nil {
			out.Failed++
			sc.logger.Errorw("Score failed", "prospect_id", p.ID, "name", p.Name, "error", err)
			continue
		}
		out.Succeeded++
	}
	return out, nil
}

func (s *scoreStage) scoreOne(ctx context.Context, sc *stageContext, p *db.Prospect) error {
	contacts, err := sc.store.ListContacts(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("list contacts: %w", err)
	}

	in := provider.ScoringInput{
		Name:         p.Name,
		BusinessType: ptrStr(p.BusinessType),
		Industry:     ptrStr(p.Industry),
		City:         ptrStr(p.City),
		Region:       ptrStr(p.Region),
		Website:      ptrStr(p.Website),
		CompanySize:  ptrStr(p.CompanySize),
		HasContacts:  len(contacts) > 0,
	}
	if p.Rating != nil {
		in.Rating = *p.Rating
	}
	if p.ReviewCount != nil {
		in.ReviewCount = *p.ReviewCount
	}
	if p.EstimatedValue != nil {
		in.EstimatedValue = *p.EstimatedValue
	}

	result, err := sc.providers.Score.ScoreProspect(ctx, in)
	if err != nil {
		return fmt.Errorf("scoring provider: %w", err)
	}

	priority := result.Priority
	if priority == "" {
		priority = priorityForScore(result.Score)
	}
	return sc.write.UpdateProspectScore(ctx, p.ID, result.Score, result.Reasoning, priority)
}

// priorityForScore derives a tier when the provider omits one.
func priorityForScore(score int) string {
	switch {
	case score >= 80:
		return db.PriorityHigh
	case score >= 60:
		return db.PriorityMedium
	default:
		return db.PriorityLow
	}
}
