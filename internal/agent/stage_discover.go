package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/leadgear/prospector/internal/db"
	"github.com/leadgear/prospector/internal/event"
	"github.com/leadgear/prospector/internal/provider"
)

// discoverStage searches one (location, businessType) combination per cycle,
// chosen round-robin over the configured cross-product, and creates prospects
// for candidates not already known to the tenant.
type discoverStage struct{}

func (s *discoverStage) name() string { return db.StageDiscover }

func (s *discoverStage) execute(ctx context.Context, sc *stageContext) (*Outcome, error) {
	out := newOutcome()

	combos := len(sc.cfg.TargetLocations) * len(sc.cfg.TargetBusinessTypes)
	if combos == 0 {
		return out, fmt.Errorf("no discovery targets configured")
	}

	idx := sc.cfg.NextComboIndex % combos
	location := sc.cfg.TargetLocations[idx/len(sc.cfg.TargetBusinessTypes)]
	businessType := sc.cfg.TargetBusinessTypes[idx%len(sc.cfg.TargetBusinessTypes)]

	out.Details["comboIndex"] = idx
	out.Details["location"] = location
	out.Details["businessType"] = businessType

	result, err := sc.providers.Search.Search(ctx, provider.SearchQuery{
		Location:     location,
		BusinessType: businessType,
		Sources:      sc.cfg.TargetSources,
	})
	if err != nil {
		return out, fmt.Errorf("business search: %w", err)
	}
	if len(result.Warnings) > 0 {
		out.Details["warnings"] = result.Warnings
		sc.logger.Warnw("Search provider warnings", "warnings", result.Warnings)
	}

	limit := sc.batchSize()
	for _, biz := range result.Results {
		if out.Succeeded >= limit {
			break
		}
		out.Processed++

		if strings.TrimSpace(biz.Name) == "" {
			out.Skipped++
			continue
		}
		exists, err := sc.store.ProspectNameExists(ctx, sc.cfg.TenantID, biz.Name)
		if err != nil {
			out.Failed++
			sc.logger.Errorw("Dedup lookup failed", "name", biz.Name, "error", err)
			continue
		}
		if exists {
			out.Skipped++
			continue
		}

		p, err := s.buildProspect(sc, biz, location, businessType, idx)
		if err != nil {
			out.Failed++
			continue
		}
		if err := sc.write.CreateProspect(ctx, p); err != nil {
			out.Failed++
			sc.logger.Errorw("Create prospect failed", "name", biz.Name, "error", err)
			continue
		}
		out.Succeeded++

		sc.bus.Publish(&event.Event{
			Type:     event.ProspectCreated,
			TenantID: sc.cfg.TenantID,
			Stage:    db.StageDiscover,
			Data:     map[string]any{"prospect_id": p.ID, "name": p.Name},
		})
	}

	// Advance the rotation cursor so the next cycle searches the next combo.
	next := (idx + 1) % combos
	if err := sc.write.AdvanceComboIndex(ctx, sc.cfg.TenantID, next); err != nil {
		sc.logger.Errorw("Advance combo index failed", "error", err)
	}
	out.Details["nextComboIndex"] = next

	return out, nil
}

func (s *discoverStage) buildProspect(sc *stageContext, biz provider.Business, location, businessType string, comboIndex int) (*db.Prospect, error) {
	provenance, err := json.Marshal(map[string]any{
		"source":       "agent_discovery",
		"comboIndex":   comboIndex,
		"location":     location,
		"businessType": businessType,
		"providerIds":  biz.ProviderIDs,
		"categories":   biz.Categories,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal provenance: %w", err)
	}

	p := &db.Prospect{
		ID:           uuid.New().String(),
		TenantID:     sc.cfg.TenantID,
		Name:         biz.Name,
		BusinessType: strPtr(businessType),
		Status:       db.ProspectNew,
		Source:       strPtr("agent_discovery"),
		Provenance:   strPtr(string(provenance)),
		CreatedAt:    sc.now,
	}
	if biz.Address != "" {
		p.Address = strPtr(biz.Address)
	}
	if biz.City != "" {
		p.City = strPtr(biz.City)
	} else {
		p.City = strPtr(location)
	}
	if biz.Region != "" {
		p.Region = strPtr(biz.Region)
	}
	if biz.Website != "" {
		p.Website = strPtr(biz.Website)
	}
	if biz.Phone != "" {
		p.Phone = strPtr(biz.Phone)
	}
	if biz.PriceTier != "" {
		p.PriceTier = strPtr(biz.PriceTier)
	}
	if biz.Rating > 0 {
		rating := biz.Rating
		p.Rating = &rating
	}
	if biz.ReviewCount > 0 {
		p.ReviewCount = intPtr(biz.ReviewCount)
	}
	return p, nil
}
