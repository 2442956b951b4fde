package sightings

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/wildmap/sightings-aggregation/internal/geo"
)

var (
	// ErrUnknownProvider is returned for an id whose tag matches no configured provider.
	ErrUnknownProvider = errors.New("unknown provider tag")
	// ErrUnsupportedLookup is returned when a provider has no point-lookup endpoint.
	ErrUnsupportedLookup = errors.New("provider does not support point lookup")
	// ErrNotFound is returned when an upstream point lookup yields no record.
	ErrNotFound = errors.New("observation not found")
	// ErrMalformedID is returned when an id cannot be split into tag and native id.
	ErrMalformedID = errors.New("malformed observation id")
)

// Service orchestrates fetching from both providers, normalization, dedup
// and the response cache.
type Service struct {
	cache     ResponseCache
	providers []Provider
}

// NewService creates a new Service. The provider list holds only providers
// that are actually usable (a provider missing its credential is excluded at
// startup rather than failing every request).
func NewService(cache ResponseCache, providers []Provider) *Service {
	return &Service{
		cache:     cache,
		providers: providers,
	}
}

// Nearby returns the normalized, deduplicated observations for a viewport.
// Both providers are fetched concurrently; a failing provider contributes an
// empty result rather than failing the aggregate. Results are cached under
// the request fingerprint.
func (s *Service) Nearby(ctx context.Context, vp geo.Viewport, filters FilterParams) ([]Observation, error) {
	key := Fingerprint(vp, filters)
	if obs, ok := s.cache.Get(key); ok {
		return obs, nil
	}

	selected := s.selectProviders(filters)

	// One result slot per provider; each goroutine writes only its own index.
	results := make([][]Observation, len(selected))

	var wg sync.WaitGroup
	for i, p := range selected {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()

			obs, err := p.Fetch(ctx, vp, filters)
			if err != nil {
				// Log and continue; partial results beat total failure.
				log.Printf("provider %s fetch failed: %v", p.Tag(), err)
				return
			}
			results[i] = obs
		}(i, p)
	}
	wg.Wait()

	var merged []Observation
	for _, r := range results {
		merged = append(merged, r...)
	}

	if len(filters.Taxa) > 0 {
		filtered := merged[:0]
		for _, o := range merged {
			if filters.WantsTaxa(o.TaxaBucket) {
				filtered = append(filtered, o)
			}
		}
		merged = filtered
	}

	deduped := Deduplicate(merged)
	s.cache.Set(key, deduped)
	return deduped, nil
}

// Lookup fetches a single observation by its provider-qualified id. Providers
// without a point-lookup endpoint yield ErrUnsupportedLookup.
func (s *Service) Lookup(ctx context.Context, id string) (Observation, error) {
	tag, nativeID, ok := SplitObservationID(id)
	if !ok {
		return Observation{}, ErrMalformedID
	}

	for _, p := range s.providers {
		if p.Tag() != tag {
			continue
		}
		lp, ok := p.(PointLookupProvider)
		if !ok {
			return Observation{}, ErrUnsupportedLookup
		}
		return lp.Lookup(ctx, nativeID)
	}

	return Observation{}, ErrUnknownProvider
}

// selectProviders applies the provider-set filter and skips the avian
// provider when a photo is required, since it never returns photographs.
func (s *Service) selectProviders(filters FilterParams) []Provider {
	var out []Provider
	for _, p := range s.providers {
		if !filters.WantsProvider(p.Tag()) {
			continue
		}
		if p.Tag() == ProviderAvian && filters.HasPhoto != nil && *filters.HasPhoto {
			continue
		}
		out = append(out, p)
	}
	return out
}
