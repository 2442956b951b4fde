package sightings

import (
	"context"

	"github.com/wildmap/sightings-aggregation/internal/geo"
)

// Provider abstracts an upstream observation source. Implementations return
// already-normalized observations and are expected to fail independently.
type Provider interface {
	Tag() ProviderTag
	Fetch(ctx context.Context, vp geo.Viewport, filters FilterParams) ([]Observation, error)
}

// PointLookupProvider is the optional capability of fetching a single
// observation by its native id. Providers without it must be reported as
// unsupported, never faked.
type PointLookupProvider interface {
	Provider
	Lookup(ctx context.Context, nativeID string) (Observation, error)
}

// ResponseCache is the contract the TTL+capacity response cache must satisfy.
type ResponseCache interface {
	Get(key string) ([]Observation, bool)
	Set(key string, obs []Observation)
}
