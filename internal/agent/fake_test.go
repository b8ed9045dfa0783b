package agent

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/leadgear/prospector/internal/db"
	"github.com/leadgear/prospector/internal/event"
	"github.com/leadgear/prospector/internal/provider"
)

// fakeStore is an in-memory Store mirroring the SQL predicates.
type fakeStore struct {
	mu         sync.Mutex
	cfg        *db.AgentConfig
	runs       []*db.AgentRun
	prospects  []*db.Prospect
	contacts   map[string][]*db.Contact
	messages   []*db.OutreachMessage
	campaigns  []*db.Campaign
	activities []*db.ActivityLog
	lockBusy   bool
}

func newFakeStore(cfg *db.AgentConfig) *fakeStore {
	return &fakeStore{cfg: cfg, contacts: make(map[string][]*db.Contact)}
}

func (f *fakeStore) GetAgentConfig(ctx context.Context, tenantID string) (*db.AgentConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cfg == nil || f.cfg.TenantID != tenantID {
		return nil, nil
	}
	cp := *f.cfg
	return &cp, nil
}

func (f *fakeStore) StageUsageSince(ctx context.Context, tenantID, stage string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, r := range f.runs {
		if r.TenantID == tenantID && r.Stage == stage && r.Status == db.RunCompleted &&
			!r.DryRun && !r.StartedAt.Before(since) {
			total += r.Succeeded
		}
	}
	return total, nil
}

func (f *fakeStore) CountPendingEnrich(ctx context.Context, tenantID string) (int, error) {
	ps, _ := f.ListProspectsForEnrich(ctx, tenantID, 1<<30)
	return len(ps), nil
}

func (f *fakeStore) CountPendingEmails(ctx context.Context, tenantID string) (int, error) {
	ps, _ := f.ListProspectsForEmails(ctx, tenantID, 1<<30)
	return len(ps), nil
}

func (f *fakeStore) CountPendingScore(ctx context.Context, tenantID string) (int, error) {
	ps, _ := f.ListProspectsForScore(ctx, tenantID, 1<<30)
	return len(ps), nil
}

func (f *fakeStore) CountPendingOutreach(ctx context.Context, tenantID string, minScore int) (int, error) {
	ps, _ := f.ListProspectsForOutreach(ctx, tenantID, minScore, 1<<30)
	return len(ps), nil
}

func (f *fakeStore) ListProspectsForEnrich(ctx context.Context, tenantID string, limit int) ([]*db.Prospect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*db.Prospect
	for _, p := range f.prospects {
		if p.TenantID == tenantID && p.Status == db.ProspectNew && !p.AIEnriched {
			out = append(out, p)
		}
	}
	sortByCreated(out)
	return capList(out, limit), nil
}

func (f *fakeStore) ListProspectsForEmails(ctx context.Context, tenantID string, limit int) ([]*db.Prospect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*db.Prospect
	for _, p := range f.prospects {
		if p.TenantID == tenantID && p.AIEnriched && !f.hasEmailedContactLocked(p.ID) {
			out = append(out, p)
		}
	}
	sortByCreated(out)
	return capList(out, limit), nil
}

func (f *fakeStore) ListProspectsForScore(ctx context.Context, tenantID string, limit int) ([]*db.Prospect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*db.Prospect
	for _, p := range f.prospects {
		if p.TenantID == tenantID && p.AIEnriched && p.AIScore == nil {
			out = append(out, p)
		}
	}
	sortByCreated(out)
	return capList(out, limit), nil
}

func (f *fakeStore) ListProspectsForOutreach(ctx context.Context, tenantID string, minScore, limit int) ([]*db.Prospect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*db.Prospect
	for _, p := range f.prospects {
		if p.TenantID != tenantID || p.AIScore == nil || *p.AIScore < minScore {
			continue
		}
		if !f.hasEmailedContactLocked(p.ID) || f.hasMessageLocked(p.ID) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].AIScore > *out[j].AIScore })
	return capList(out, limit), nil
}

func (f *fakeStore) ProspectNameExists(ctx context.Context, tenantID, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.prospects {
		if p.TenantID == tenantID && strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListContacts(ctx context.Context, prospectID string) ([]*db.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*db.Contact(nil), f.contacts[prospectID]...), nil
}

func (f *fakeStore) CreateProspect(ctx context.Context, p *db.Prospect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.prospects = append(f.prospects, &cp)
	return nil
}

func (f *fakeStore) UpdateProspectEnrichment(ctx context.Context, p *db.Prospect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.prospects {
		if existing.ID == p.ID {
			existing.BusinessType = p.BusinessType
			existing.Industry = p.Industry
			existing.Website = p.Website
			existing.Phone = p.Phone
			existing.PriceTier = p.PriceTier
			existing.CompanySize = p.CompanySize
			existing.EstimatedValue = p.EstimatedValue
			existing.PotentialValue = p.PotentialValue
			existing.AIEnriched = true
			existing.Notes = p.Notes
		}
	}
	return nil
}

func (f *fakeStore) UpdateProspectScore(ctx context.Context, prospectID string, score int, reasoning, priority string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.prospects {
		if p.ID == prospectID {
			p.AIScore = &score
			p.AIScoreReasoning = &reasoning
			p.Priority = &priority
		}
	}
	return nil
}

func (f *fakeStore) CreateContact(ctx context.Context, ct *db.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *ct
	f.contacts[ct.ProspectID] = append(f.contacts[ct.ProspectID], &cp)
	return nil
}

func (f *fakeStore) CreateCampaign(ctx context.Context, cp *db.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *cp
	f.campaigns = append(f.campaigns, &c)
	return nil
}

func (f *fakeStore) SetDefaultCampaign(ctx context.Context, tenantID, campaignID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cfg != nil && f.cfg.TenantID == tenantID {
		f.cfg.DefaultCampaignID = &campaignID
	}
	return nil
}

func (f *fakeStore) CreateOutreachMessage(ctx context.Context, m *db.OutreachMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *m
	f.messages = append(f.messages, &cp)
	return nil
}

func (f *fakeStore) AdvanceComboIndex(ctx context.Context, tenantID string, next int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cfg != nil && f.cfg.TenantID == tenantID {
		f.cfg.NextComboIndex = next
	}
	return nil
}

func (f *fakeStore) CreateAgentRun(ctx context.Context, r *db.AgentRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.runs = append(f.runs, &cp)
	return nil
}

func (f *fakeStore) CreateActivityLog(ctx context.Context, a *db.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.activities = append(f.activities, &cp)
	return nil
}

func (f *fakeStore) TryLockCycle(ctx context.Context, tenantID string) (func(context.Context), bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockBusy {
		return nil, false, nil
	}
	return func(context.Context) {}, true, nil
}

func (f *fakeStore) hasEmailedContactLocked(prospectID string) bool {
	for _, ct := range f.contacts[prospectID] {
		if ct.Email != nil && *ct.Email != "" {
			return true
		}
	}
	return false
}

func (f *fakeStore) hasMessageLocked(prospectID string) bool {
	for _, m := range f.messages {
		if m.ProspectID == prospectID {
			return true
		}
	}
	return false
}

func sortByCreated(ps []*db.Prospect) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].CreatedAt.Before(ps[j].CreatedAt) })
}

// capList truncates to the limit and copies each row, matching how a real
// query scan hands back detached structs.
func capList(ps []*db.Prospect, limit int) []*db.Prospect {
	if len(ps) > limit {
		ps = ps[:limit]
	}
	out := make([]*db.Prospect, len(ps))
	for i, p := range ps {
		cp := *p
		out[i] = &cp
	}
	return out
}

// Function adapters for stubbing individual providers per test.

type searchFunc func(ctx context.Context, q provider.SearchQuery) (*provider.SearchResult, error)

func (f searchFunc) Search(ctx context.Context, q provider.SearchQuery) (*provider.SearchResult, error) {
	return f(ctx, q)
}

type enrichFunc func(ctx context.Context, in provider.EnrichmentInput) (*provider.EnrichmentResult, error)

func (f enrichFunc) Enrich(ctx context.Context, in provider.EnrichmentInput) (*provider.EnrichmentResult, error) {
	return f(ctx, in)
}

type ownersFunc func(ctx context.Context, q provider.OwnerQuery) ([]provider.Person, error)

func (f ownersFunc) DiscoverOwners(ctx context.Context, q provider.OwnerQuery) ([]provider.Person, error) {
	return f(ctx, q)
}

type scoreFunc func(ctx context.Context, in provider.ScoringInput) (*provider.ScoreResult, error)

func (f scoreFunc) ScoreProspect(ctx context.Context, in provider.ScoringInput) (*provider.ScoreResult, error) {
	return f(ctx, in)
}

type composeFunc func(ctx context.Context, req provider.ComposeRequest) (*provider.ComposedMessage, error)

func (f composeFunc) Compose(ctx context.Context, req provider.ComposeRequest) (*provider.ComposedMessage, error) {
	return f(ctx, req)
}

// testConfig returns an enabled config with generous defaults.
func testConfig(tenantID string) *db.AgentConfig {
	return &db.AgentConfig{
		TenantID:             tenantID,
		Enabled:              true,
		BatchSize:            10,
		MaxDiscoveriesPerDay: 20,
		MaxEmailsPerDay:      20,
		MaxOutreachPerDay:    10,
		MinScoreThreshold:    70,
		ActiveHoursStart:     0,
		ActiveHoursEnd:       0, // always active
		TargetLocations:      []string{"Springfield"},
		TargetBusinessTypes:  []string{"restaurant"},
		TargetSources:        []string{"mock"},
		OutreachTone:         "professional",
		OutreachChannel:      db.ChannelAuto,
	}
}

func newTestOrchestrator(store Store, providers provider.Providers, now time.Time) *Orchestrator {
	logger := zap.NewNop().Sugar()
	o := NewOrchestrator(store, providers, event.NewBus(logger), logger)
	o.now = func() time.Time { return now }
	return o
}
