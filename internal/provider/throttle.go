package provider

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttled wraps each provider with its own rate limiter so a batch cannot
// exceed an external service's request rate. Calls block until the limiter
// grants a slot or the context is cancelled.
func Throttled(p Providers, rps float64, burst int) Providers {
	if rps <= 0 {
		return p
	}
	return Providers{
		Search:   &throttledSearch{inner: p.Search, lim: rate.NewLimiter(rate.Limit(rps), burst)},
		Enrich:   &throttledEnrich{inner: p.Enrich, lim: rate.NewLimiter(rate.Limit(rps), burst)},
		Owners:   &throttledOwners{inner: p.Owners, lim: rate.NewLimiter(rate.Limit(rps), burst)},
		Score:    &throttledScore{inner: p.Score, lim: rate.NewLimiter(rate.Limit(rps), burst)},
		Composer: &throttledComposer{inner: p.Composer, lim: rate.NewLimiter(rate.Limit(rps), burst)},
	}
}

type throttledSearch struct {
	inner BusinessSearch
	lim   *rate.Limiter
}

func (t *throttledSearch) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	if err := t.lim.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.Search(ctx, q)
}

type throttledEnrich struct {
	inner Enrichment
	lim   *rate.Limiter
}

func (t *throttledEnrich) Enrich(ctx context.Context, in EnrichmentInput) (*EnrichmentResult, error) {
	if err := t.lim.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.Enrich(ctx, in)
}

type throttledOwners struct {
	inner OwnerDiscovery
	lim   *rate.Limiter
}

func (t *throttledOwners) DiscoverOwners(ctx context.Context, q OwnerQuery) ([]Person, error) {
	if err := t.lim.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.DiscoverOwners(ctx, q)
}

type throttledScore struct {
	inner Scoring
	lim   *rate.Limiter
}

func (t *throttledScore) ScoreProspect(ctx context.Context, in ScoringInput) (*ScoreResult, error) {
	if err := t.lim.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.ScoreProspect(ctx, in)
}

type throttledComposer struct {
	inner MessageComposer
	lim   *rate.Limiter
}

func (t *throttledComposer) Compose(ctx context.Context, req ComposeRequest) (*ComposedMessage, error) {
	if err := t.lim.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.Compose(ctx, req)
}
