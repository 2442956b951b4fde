package sightings

import (
	"testing"

	"github.com/wildmap/sightings-aggregation/internal/geo"
)

func TestFingerprintFieldOrderStability(t *testing.T) {
	vp := geo.Viewport{CenterLat: 37.7749, CenterLng: -122.4194, LatDelta: 0.5, LngDelta: 0.5}

	hasPhoto := true
	a := FilterParams{
		Recency:   RecencyThisWeek,
		HasPhoto:  &hasPhoto,
		Taxa:      []TaxaBucket{TaxaBird, TaxaMammal},
		Providers: []ProviderTag{ProviderAvian, ProviderMultiTaxa},
	}
	b := FilterParams{
		Providers: []ProviderTag{ProviderMultiTaxa, ProviderAvian},
		Taxa:      []TaxaBucket{TaxaMammal, TaxaBird},
		HasPhoto:  &hasPhoto,
		Recency:   RecencyThisWeek,
	}

	if Fingerprint(vp, a) != Fingerprint(vp, b) {
		t.Errorf("semantically identical filters produced different keys:\n%s\n%s",
			Fingerprint(vp, a), Fingerprint(vp, b))
	}
}

func TestFingerprintRoundsViewport(t *testing.T) {
	// Centers on the same ~1.1 km grid cell collapse to one key.
	a := geo.Viewport{CenterLat: 37.7712, CenterLng: -122.4191, LatDelta: 0.5, LngDelta: 0.5}
	b := geo.Viewport{CenterLat: 37.7738, CenterLng: -122.4209, LatDelta: 0.5, LngDelta: 0.5}

	if Fingerprint(a, FilterParams{}) != Fingerprint(b, FilterParams{}) {
		t.Errorf("nearby centers should share a key:\n%s\n%s",
			Fingerprint(a, FilterParams{}), Fingerprint(b, FilterParams{}))
	}
}

func TestFingerprintDistinguishesFilters(t *testing.T) {
	vp := geo.Viewport{CenterLat: 37.7749, CenterLng: -122.4194, LatDelta: 0.5, LngDelta: 0.5}

	yes, no := true, false
	cases := []FilterParams{
		{},
		{Recency: RecencyToday},
		{HasPhoto: &yes},
		{HasPhoto: &no},
		{Taxa: []TaxaBucket{TaxaBird}},
		{Providers: []ProviderTag{ProviderAvian}},
	}

	seen := make(map[string]int)
	for i, f := range cases {
		key := Fingerprint(vp, f)
		if prev, dup := seen[key]; dup {
			t.Errorf("filter sets %d and %d collide on key %s", prev, i, key)
		}
		seen[key] = i
	}
}
