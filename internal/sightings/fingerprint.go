package sightings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wildmap/sightings-aggregation/internal/geo"
)

// Fingerprint derives the canonical cache key for a request. The center is
// rounded to a ~1.1 km grid and the deltas to three decimals, so nearby
// pans collapse to one key; filter sets are serialized sorted, so
// semantically identical filters produce identical keys regardless of the
// order fields arrived in.
func Fingerprint(vp geo.Viewport, f FilterParams) string {
	photo := ""
	if f.HasPhoto != nil {
		photo = strconv.FormatBool(*f.HasPhoto)
	}

	return fmt.Sprintf("%.2f:%.2f:%.3f:%.3f|r=%s|photo=%s|taxa=%s|src=%s",
		vp.CenterLat, vp.CenterLng, vp.LatDelta, vp.LngDelta,
		f.Recency,
		photo,
		strings.Join(f.sortedTaxa(), ","),
		strings.Join(f.sortedProviders(), ","),
	)
}
