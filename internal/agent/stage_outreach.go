package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/leadgear/prospector/internal/db"
	"github.com/leadgear/prospector/internal/event"
	"github.com/leadgear/prospector/internal/provider"
)

// outreachStage drafts messages for prospects at or above the score
// threshold that hold an emailed contact and have no outreach yet. Messages
// are always persisted as pending, unapproved drafts; sending is manual and
// external.
type outreachStage struct{}

func (s *outreachStage) name() string { return db.StageGenerateOutreach }

func (s *outreachStage) execute(ctx context.Context, sc *stageContext) (*Outcome, error) {
	out := newOutcome()

	prospects, err := sc.store.ListProspectsForOutreach(ctx, sc.cfg.TenantID, sc.cfg.MinScoreThreshold, sc.batchSize())
	if err != nil {
		return out, fmt.Errorf("list prospects for outreach: %w", err)
	}
	if len(prospects) == 0 {
		return out, nil
	}

	campaignID, err := s.ensureDefaultCampaign(ctx, sc)
	if err != nil {
		return out, fmt.Errorf("ensure default campaign: %w", err)
	}
	out.Details["campaignId"] = campaignID

	for _, p := range prospects {
		out.Processed++
		if err := s.draftForProspect(ctx, sc, p, campaignID); err != nil {
			out.Failed++
			sc.logger.Errorw("Outreach draft failed", "prospect_id", p.ID, "name", p.Name, "error", err)
			continue
		}
		out.Succeeded++
	}
	return out, nil
}

// ensureDefaultCampaign lazily creates the tenant's default campaign on
// first use and records its id on the config so later cycles reuse it.
func (s *outreachStage) ensureDefaultCampaign(ctx context.Context, sc *stageContext) (string, error) {
	if sc.cfg.DefaultCampaignID != nil && *sc.cfg.DefaultCampaignID != "" {
		return *sc.cfg.DefaultCampaignID, nil
	}

	cp := &db.Campaign{
		ID:        uuid.New().String(),
		TenantID:  sc.cfg.TenantID,
		Name:      "Agent outreach",
		Channel:   sc.cfg.OutreachChannel,
		Status:    "active",
		CreatedAt: sc.now,
	}
	if err := sc.write.CreateCampaign(ctx, cp); err != nil {
		return "", err
	}
	if err := sc.write.SetDefaultCampaign(ctx, sc.cfg.TenantID, cp.ID); err != nil {
		return "", err
	}
	sc.cfg.DefaultCampaignID = &cp.ID
	return cp.ID, nil
}

func (s *outreachStage) draftForProspect(ctx context.Context, sc *stageContext, p *db.Prospect, campaignID string) error {
	contacts, err := sc.store.ListContacts(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("list contacts: %w", err)
	}
	primary := pickPrimaryContact(contacts)
	if primary == nil {
		return fmt.Errorf("no contact available")
	}

	channel := sc.cfg.OutreachChannel
	if channel == "" || channel == db.ChannelAuto {
		channel = provider.BestChannel(provider.ContactMethods{
			HasEmail: hasEmail(contacts),
			HasPhone: ptrStr(primary.Phone) != "" || ptrStr(p.Phone) != "",
		})
	}

	score := 0
	if p.AIScore != nil {
		score = *p.AIScore
	}
	msg, err := sc.providers.Composer.Compose(ctx, provider.ComposeRequest{
		Channel: channel,
		Tone:    sc.cfg.OutreachTone,
		Purpose: "introduction",
		Prospect: provider.ProspectSummary{
			Name:           p.Name,
			BusinessType:   ptrStr(p.BusinessType),
			Industry:       ptrStr(p.Industry),
			City:           ptrStr(p.City),
			Region:         ptrStr(p.Region),
			Website:        ptrStr(p.Website),
			Score:          score,
			ScoreReasoning: ptrStr(p.AIScoreReasoning),
			ContactName:    primary.Name,
			ContactTitle:   ptrStr(primary.Title),
		},
	})
	if err != nil {
		return fmt.Errorf("message composer: %w", err)
	}

	om := &db.OutreachMessage{
		ID:             uuid.New().String(),
		TenantID:       sc.cfg.TenantID,
		ProspectID:     p.ID,
		CampaignID:     &campaignID,
		Channel:        channel,
		Body:           msg.Body,
		AIGenerated:    true,
		Status:         db.MessageDraft,
		ApprovalStatus: db.ApprovalPending,
		CreatedAt:      sc.now,
	}
	if channel == db.ChannelEmail && msg.Subject != "" {
		om.Subject = strPtr(msg.Subject)
	}
	if err := sc.write.CreateOutreachMessage(ctx, om); err != nil {
		return fmt.Errorf("create outreach message: %w", err)
	}

	sc.bus.Publish(&event.Event{
		Type:     event.OutreachDrafted,
		TenantID: sc.cfg.TenantID,
		Stage:    db.StageGenerateOutreach,
		Data:     map[string]any{"prospect_id": p.ID, "message_id": om.ID, "channel": channel},
	})
	return nil
}

// pickPrimaryContact prefers a decision maker with an email, then any
// contact with an email, then the first contact.
func pickPrimaryContact(contacts []*db.Contact) *db.Contact {
	var withEmail *db.Contact
	for _, ct := range contacts {
		if ptrStr(ct.Email) == "" {
			continue
		}
		if ct.IsDecisionMaker {
			return ct
		}
		if withEmail == nil {
			withEmail = ct
		}
	}
	if withEmail != nil {
		return withEmail
	}
	if len(contacts) > 0 {
		return contacts[0]
	}
	return nil
}

func hasEmail(contacts []*db.Contact) bool {
	for _, ct := range contacts {
		if ptrStr(ct.Email) != "" {
			return true
		}
	}
	return false
}
