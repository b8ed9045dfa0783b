// Package provider defines the external collaborators the agent consumes:
// business search, enrichment, owner discovery, scoring, and message
// composition. Implementations live behind these interfaces so the core can
// run against real services, mocks, or rate-limited wrappers interchangeably.
package provider

import "context"

// Business is one candidate returned by a business search provider.
type Business struct {
	Name        string            `json:"name"`
	Address     string            `json:"address"`
	City        string            `json:"city"`
	Region      string            `json:"region"`
	Phone       string            `json:"phone"`
	Website     string            `json:"website"`
	Rating      float64           `json:"rating"`
	ReviewCount int               `json:"review_count"`
	Categories  []string          `json:"categories"`
	PriceTier   string            `json:"price_tier"`
	ProviderIDs map[string]string `json:"provider_ids"`
}

// SearchQuery describes one (location, businessType) discovery request.
type SearchQuery struct {
	Location     string   `json:"location"`
	BusinessType string   `json:"business_type"`
	Sources      []string `json:"sources"`
	MinRating    float64  `json:"min_rating"`
}

// SearchResult is the provider's response to a SearchQuery.
type SearchResult struct {
	Results  []Business `json:"results"`
	Total    int        `json:"total"`
	Warnings []string   `json:"warnings"`
}

// BusinessSearch finds candidate businesses for a discovery target.
type BusinessSearch interface {
	Search(ctx context.Context, q SearchQuery) (*SearchResult, error)
}

// EnrichmentInput carries the prospect's current attributes to the
// enrichment provider. Empty fields are unknown.
type EnrichmentInput struct {
	Name         string   `json:"name"`
	BusinessType string   `json:"business_type"`
	Industry     string   `json:"industry"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	Website      string   `json:"website"`
	Phone        string   `json:"phone"`
	Contacts     []string `json:"contacts"`
}

// EnrichmentResult holds normalized fields returned by the provider.
// Zero values mean the provider had nothing for that field.
type EnrichmentResult struct {
	Industry       string `json:"industry"`
	BusinessType   string `json:"business_type"`
	CompanySize    string `json:"company_size"`
	EstimatedValue int    `json:"estimated_value"`
	PotentialValue int    `json:"potential_value"`
	PriceTier      string `json:"price_tier"`
	Website        string `json:"website"`
	Phone          string `json:"phone"`
	Summary        string `json:"summary"`
}

// Enrichment augments a prospect's business attributes.
type Enrichment interface {
	Enrich(ctx context.Context, in EnrichmentInput) (*EnrichmentResult, error)
}

// Person is one owner/decision-maker candidate. Any field may be empty.
type Person struct {
	Name            string `json:"name"`
	Title           string `json:"title"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	IsDecisionMaker bool   `json:"is_decision_maker"`
	EmailConfidence string `json:"email_confidence"`
	EmailSource     string `json:"email_source"`
}

// OwnerQuery identifies the business whose owners should be discovered.
type OwnerQuery struct {
	BusinessName string `json:"business_name"`
	City         string `json:"city"`
	Region       string `json:"region"`
	Website      string `json:"website"`
}

// OwnerDiscovery finds owner/decision-maker contacts for a business.
type OwnerDiscovery interface {
	DiscoverOwners(ctx context.Context, q OwnerQuery) ([]Person, error)
}

// ScoringInput is the normalized prospect snapshot sent to the scorer.
type ScoringInput struct {
	Name           string  `json:"name"`
	BusinessType   string  `json:"business_type"`
	Industry       string  `json:"industry"`
	City           string  `json:"city"`
	Region         string  `json:"region"`
	Website        string  `json:"website"`
	Rating         float64 `json:"rating"`
	ReviewCount    int     `json:"review_count"`
	CompanySize    string  `json:"company_size"`
	EstimatedValue int     `json:"estimated_value"`
	HasContacts    bool    `json:"has_contacts"`
}

// ScoreResult is the scorer's verdict. The provider is the sole source of
// the score; the agent performs no scoring logic of its own.
type ScoreResult struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
	Priority  string `json:"priority"`
}

// Scoring rates a prospect's fit.
type Scoring interface {
	ScoreProspect(ctx context.Context, in ScoringInput) (*ScoreResult, error)
}

// ProspectSummary is the structured context handed to the composer. It
// includes the score and its reasoning so higher-context composition can
// reference them.
type ProspectSummary struct {
	Name           string `json:"name"`
	BusinessType   string `json:"business_type"`
	Industry       string `json:"industry"`
	City           string `json:"city"`
	Region         string `json:"region"`
	Website        string `json:"website"`
	Score          int    `json:"score"`
	ScoreReasoning string `json:"score_reasoning"`
	ContactName    string `json:"contact_name"`
	ContactTitle   string `json:"contact_title"`
}

// ComposeRequest asks for one outreach draft.
type ComposeRequest struct {
	Channel  string          `json:"channel"`
	Tone     string          `json:"tone"`
	Purpose  string          `json:"purpose"`
	Prospect ProspectSummary `json:"prospect"`
}

// ComposedMessage is a drafted outreach message. Subject is empty for
// non-email channels.
type ComposedMessage struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// MessageComposer drafts outreach copy.
type MessageComposer interface {
	Compose(ctx context.Context, req ComposeRequest) (*ComposedMessage, error)
}

// Providers bundles one implementation of each collaborator.
type Providers struct {
	Search   BusinessSearch
	Enrich   Enrichment
	Owners   OwnerDiscovery
	Score    Scoring
	Composer MessageComposer
}
