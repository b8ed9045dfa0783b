package provider

import (
	"context"
	"fmt"
	"strings"
)

// MockProviders returns a deterministic provider set for local mode and tests.
func MockProviders() Providers {
	return Providers{
		Search:   &MockSearch{Count: 5},
		Enrich:   &MockEnrichment{},
		Owners:   &MockOwnerDiscovery{},
		Score:    &MockScoring{},
		Composer: &MockComposer{},
	}
}

// MockSearch fabricates Count businesses for any query.
type MockSearch struct {
	Count int
}

func (m *MockSearch) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	n := m.Count
	if n <= 0 {
		n = 5
	}
	results := make([]Business, 0, n)
	for i := 1; i <= n; i++ {
		results = append(results, Business{
			Name:        fmt.Sprintf("%s %s #%d", q.BusinessType, q.Location, i),
			Address:     fmt.Sprintf("%d Main St", 100+i),
			City:        q.Location,
			Phone:       fmt.Sprintf("+1-555-010%d", i),
			Website:     fmt.Sprintf("https://example-%d.test", i),
			Rating:      3.5 + float64(i%3)*0.5,
			ReviewCount: 20 * i,
			Categories:  []string{q.BusinessType},
			PriceTier:   "$$",
			ProviderIDs: map[string]string{"mock": fmt.Sprintf("mock-%s-%d", q.BusinessType, i)},
		})
	}
	return &SearchResult{Results: results, Total: n}, nil
}

// MockEnrichment fills common fields left empty by discovery.
type MockEnrichment struct{}

func (m *MockEnrichment) Enrich(ctx context.Context, in EnrichmentInput) (*EnrichmentResult, error) {
	industry := in.Industry
	if industry == "" {
		industry = in.BusinessType
	}
	if industry == "" {
		industry = "local services"
	}
	return &EnrichmentResult{
		Industry:       industry,
		CompanySize:    "2-10",
		EstimatedValue: 5000,
		PotentialValue: 12000,
		Summary:        fmt.Sprintf("Mock enrichment for %s", in.Name),
	}, nil
}

// MockOwnerDiscovery returns one decision maker with an email and one
// secondary contact without.
type MockOwnerDiscovery struct{}

func (m *MockOwnerDiscovery) DiscoverOwners(ctx context.Context, q OwnerQuery) ([]Person, error) {
	slug := strings.ToLower(strings.ReplaceAll(q.BusinessName, " ", "-"))
	return []Person{
		{
			Name:            "Alex Owner",
			Title:           "Owner",
			Email:           fmt.Sprintf("owner@%s.test", slug),
			IsDecisionMaker: true,
			EmailConfidence: "high",
			EmailSource:     "mock",
		},
		{
			Name:  "Sam Manager",
			Title: "Manager",
		},
	}, nil
}

// MockScoring derives a stable score from the input so tests are repeatable.
type MockScoring struct{}

func (m *MockScoring) ScoreProspect(ctx context.Context, in ScoringInput) (*ScoreResult, error) {
	score := 50
	if in.Website != "" {
		score += 10
	}
	if in.Rating >= 4.0 {
		score += 15
	}
	if in.ReviewCount >= 50 {
		score += 10
	}
	if in.HasContacts {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	priority := "low"
	switch {
	case score >= 80:
		priority = "high"
	case score >= 60:
		priority = "medium"
	}
	return &ScoreResult{
		Score:     score,
		Reasoning: fmt.Sprintf("Mock score for %s based on rating %.1f and %d reviews.", in.Name, in.Rating, in.ReviewCount),
		Priority:  priority,
	}, nil
}

// MockComposer drafts a short templated message.
type MockComposer struct{}

func (m *MockComposer) Compose(ctx context.Context, req ComposeRequest) (*ComposedMessage, error) {
	subject := ""
	if req.Channel == "email" {
		subject = fmt.Sprintf("Quick question about %s", req.Prospect.Name)
	}
	greeting := "Hi there"
	if req.Prospect.ContactName != "" {
		greeting = "Hi " + req.Prospect.ContactName
	}
	body := fmt.Sprintf("%s,\n\nI came across %s and was impressed. %s\n\nWould you be open to a quick chat?\n",
		greeting, req.Prospect.Name, req.Prospect.ScoreReasoning)
	return &ComposedMessage{Subject: subject, Body: body}, nil
}
