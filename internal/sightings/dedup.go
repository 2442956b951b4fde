package sightings

import (
	"github.com/wildmap/sightings-aggregation/internal/geo"
)

// dedupRadiusKm is the spatial threshold under which two same-species records
// are treated as independent reports of the same sighting. 30 meters tolerates
// normal GPS noise without merging distinct individuals.
const dedupRadiusKm = 0.03

// Deduplicate merges the concatenated provider outputs into a duplicate-free
// list preserving first-occurrence order. A record is dropped when its id was
// already accepted (tile overlap re-fetching the same native record) or when
// an already-accepted record matches its species within dedupRadiusKm.
// Worst case O(n²); acceptable given bounded per-provider page sizes.
func Deduplicate(in []Observation) []Observation {
	seen := make(map[string]struct{}, len(in))
	out := make([]Observation, 0, len(in))

	for _, o := range in {
		if _, dup := seen[o.ID]; dup {
			continue
		}

		nearDup := false
		for _, kept := range out {
			if !sameSpecies(o, kept) {
				continue
			}
			if geo.HaversineKm(o.Lat, o.Lng, kept.Lat, kept.Lng) < dedupRadiusKm {
				nearDup = true
				break
			}
		}
		if nearDup {
			continue
		}

		seen[o.ID] = struct{}{}
		out = append(out, o)
	}

	return out
}

// sameSpecies matches on common or scientific name. Two empty fields never
// match; at least one non-empty field must agree.
func sameSpecies(a, b Observation) bool {
	if a.CommonName != "" && a.CommonName == b.CommonName {
		return true
	}
	if a.ScientificName != "" && a.ScientificName == b.ScientificName {
		return true
	}
	return false
}
