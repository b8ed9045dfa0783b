package db

import "time"

// Pipeline stage names, in fixed priority order.
const (
	StageDiscover         = "discover"
	StageEnrich           = "enrich"
	StageFindEmails       = "find_emails"
	StageScore            = "score"
	StageGenerateOutreach = "generate_outreach"
	StageNone             = "none"
)

// StageOrder is the work-detection priority: the first stage with pending
// work wins the cycle.
var StageOrder = []string{
	StageDiscover,
	StageEnrich,
	StageFindEmails,
	StageScore,
	StageGenerateOutreach,
}

// AgentRun statuses
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Prospect status set by discovery. Later pipeline state is carried by
// ai_enriched, ai_score, and outreach rows, not by status transitions.
const ProspectNew = "new"

// Outreach channels
const (
	ChannelEmail = "email"
	ChannelPhone = "phone"
	ChannelAuto  = "auto"
)

// Priority tiers derived from AI scores
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// AgentConfig holds the per-tenant agent settings. It is edited by tenant
// operators; the agent itself only writes next_combo_index and
// default_campaign_id.
type AgentConfig struct {
	TenantID             string     `json:"tenant_id"`
	Enabled              bool       `json:"enabled"`
	PausedAt             *time.Time `json:"paused_at"`
	PauseReason          *string    `json:"pause_reason"`
	DryRun               bool       `json:"dry_run"`
	BatchSize            int        `json:"batch_size"`
	MaxDiscoveriesPerDay int        `json:"max_discoveries_per_day"`
	MaxEmailsPerDay      int        `json:"max_emails_per_day"`
	MaxOutreachPerDay    int        `json:"max_outreach_per_day"`
	MinScoreThreshold    int        `json:"min_score_threshold"`
	ActiveHoursStart     int        `json:"active_hours_start"` // hour of day, inclusive
	ActiveHoursEnd       int        `json:"active_hours_end"`   // hour of day, exclusive
	Timezone             string     `json:"timezone"`           // IANA name, "" = server local
	TargetLocations      []string   `json:"target_locations"`
	TargetBusinessTypes  []string   `json:"target_business_types"`
	TargetSources        []string   `json:"target_sources"`
	OutreachTone         string     `json:"outreach_tone"`
	OutreachChannel      string     `json:"outreach_channel"` // "auto" or a fixed channel
	DefaultCampaignID    *string    `json:"default_campaign_id"`
	NextComboIndex       int        `json:"next_combo_index"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// AgentRun is the append-only record of one attempted cycle stage.
type AgentRun struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Stage       string    `json:"stage"`
	Status      string    `json:"status"` // completed / failed
	DryRun      bool      `json:"dry_run"`
	Processed   int       `json:"processed"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	Details     *string   `json:"details"` // JSON string
	Error       *string   `json:"error"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// Prospect is a business record advancing through the pipeline. Flags only
// ever move forward: the agent never regresses ai_enriched or clears a score.
type Prospect struct {
	ID               string     `json:"id"`
	TenantID         string     `json:"tenant_id"`
	Name             string     `json:"name"`
	BusinessType     *string    `json:"business_type"`
	Industry         *string    `json:"industry"`
	Address          *string    `json:"address"`
	City             *string    `json:"city"`
	Region           *string    `json:"region"`
	Website          *string    `json:"website"`
	Phone            *string    `json:"phone"`
	PriceTier        *string    `json:"price_tier"`
	Rating           *float64   `json:"rating"`
	ReviewCount      *int       `json:"review_count"`
	CompanySize      *string    `json:"company_size"`
	EstimatedValue   *int       `json:"estimated_value"`
	PotentialValue   *int       `json:"potential_value"`
	Status           string     `json:"status"`
	AIEnriched       bool       `json:"ai_enriched"`
	AIScore          *int       `json:"ai_score"`
	AIScoreReasoning *string    `json:"ai_score_reasoning"`
	Priority         *string    `json:"priority"`
	Source           *string    `json:"source"`
	Provenance       *string    `json:"provenance"` // JSON string: provider ids, combo, raw payload
	Notes            *string    `json:"notes"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

// Contact belongs to exactly one prospect.
type Contact struct {
	ID              string    `json:"id"`
	ProspectID      string    `json:"prospect_id"`
	Name            string    `json:"name"`
	Title           *string   `json:"title"`
	Email           *string   `json:"email"`
	Phone           *string   `json:"phone"`
	IsDecisionMaker bool      `json:"is_decision_maker"`
	EmailConfidence *string   `json:"email_confidence"`
	EmailSource     *string   `json:"email_source"`
	CreatedAt       time.Time `json:"created_at"`
}

// OutreachMessage is always created as a pending, unapproved draft. The
// agent never transitions a message to sent.
type OutreachMessage struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	ProspectID     string    `json:"prospect_id"`
	CampaignID     *string   `json:"campaign_id"`
	Channel        string    `json:"channel"`
	Subject        *string   `json:"subject"` // nil for non-email channels
	Body           string    `json:"body"`
	AIGenerated    bool      `json:"ai_generated"`
	Status         string    `json:"status"`          // draft
	ApprovalStatus string    `json:"approval_status"` // pending
	CreatedAt      time.Time `json:"created_at"`
}

// OutreachMessage statuses
const (
	MessageDraft    = "draft"
	ApprovalPending = "pending"
)

// Campaign groups outreach messages. The agent lazily creates one default
// campaign per tenant and records its id on the config.
type Campaign struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Channel   string    `json:"channel"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityLog is the tenant-wide timeline entry written alongside each
// AgentRun for unified display in the CRM.
type ActivityLog struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Category  string    `json:"category"` // discovery / enrichment / outreach_sequence / pipeline
	Action    string    `json:"action"`
	Detail    *string   `json:"detail"` // JSON string
	CreatedAt time.Time `json:"created_at"`
}

// Activity categories for the stage → category mapping.
const (
	CategoryDiscovery        = "discovery"
	CategoryEnrichment       = "enrichment"
	CategoryOutreachSequence = "outreach_sequence"
	CategoryPipeline         = "pipeline"
)
