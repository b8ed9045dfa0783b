package agent

import (
	"context"
	"time"

	"github.com/leadgear/prospector/internal/db"
)

// Mutator is the write half of the store. The orchestrator picks the
// implementation once per cycle: the real store, or a no-op for dry runs.
// Stage processors never branch on the dry-run flag themselves.
type Mutator interface {
	CreateProspect(ctx context.Context, p *db.Prospect) error
	UpdateProspectEnrichment(ctx context.Context, p *db.Prospect) error
	UpdateProspectScore(ctx context.Context, prospectID string, score int, reasoning, priority string) error
	CreateContact(ctx context.Context, ct *db.Contact) error
	CreateCampaign(ctx context.Context, cp *db.Campaign) error
	SetDefaultCampaign(ctx context.Context, tenantID, campaignID string) error
	CreateOutreachMessage(ctx context.Context, m *db.OutreachMessage) error
	AdvanceComboIndex(ctx context.Context, tenantID string, next int) error
}

// Store is the persistence surface the agent depends on. *db.Client is the
// production implementation.
type Store interface {
	Mutator

	GetAgentConfig(ctx context.Context, tenantID string) (*db.AgentConfig, error)
	StageUsageSince(ctx context.Context, tenantID, stage string, since time.Time) (int, error)

	CountPendingEnrich(ctx context.Context, tenantID string) (int, error)
	CountPendingEmails(ctx context.Context, tenantID string) (int, error)
	CountPendingScore(ctx context.Context, tenantID string) (int, error)
	CountPendingOutreach(ctx context.Context, tenantID string, minScore int) (int, error)

	ListProspectsForEnrich(ctx context.Context, tenantID string, limit int) ([]*db.Prospect, error)
	ListProspectsForEmails(ctx context.Context, tenantID string, limit int) ([]*db.Prospect, error)
	ListProspectsForScore(ctx context.Context, tenantID string, limit int) ([]*db.Prospect, error)
	ListProspectsForOutreach(ctx context.Context, tenantID string, minScore, limit int) ([]*db.Prospect, error)
	ProspectNameExists(ctx context.Context, tenantID, name string) (bool, error)
	ListContacts(ctx context.Context, prospectID string) ([]*db.Contact, error)

	CreateAgentRun(ctx context.Context, r *db.AgentRun) error
	CreateActivityLog(ctx context.Context, a *db.ActivityLog) error

	TryLockCycle(ctx context.Context, tenantID string) (release func(context.Context), ok bool, err error)
}

// noopMutator discards all writes. Dry-run cycles execute stages against it
// so intended effects are computed without persisting anything.
type noopMutator struct{}

func (noopMutator) CreateProspect(context.Context, *db.Prospect) error           { return nil }
func (noopMutator) UpdateProspectEnrichment(context.Context, *db.Prospect) error { return nil }
func (noopMutator) UpdateProspectScore(context.Context, string, int, string, string) error {
	return nil
}
func (noopMutator) CreateContact(context.Context, *db.Contact) error         { return nil }
func (noopMutator) CreateCampaign(context.Context, *db.Campaign) error       { return nil }
func (noopMutator) SetDefaultCampaign(context.Context, string, string) error { return nil }
func (noopMutator) CreateOutreachMessage(context.Context, *db.OutreachMessage) error {
	return nil
}
func (noopMutator) AdvanceComboIndex(context.Context, string, int) error { return nil }
