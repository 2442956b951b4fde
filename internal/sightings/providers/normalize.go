package providers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wildmap/sightings-aggregation/internal/common"
	"github.com/wildmap/sightings-aggregation/internal/sightings"
)

// avianRecord is the upstream shape of one avian recent-sighting.
type avianRecord struct {
	SpeciesCode string  `json:"speciesCode"`
	ComName     string  `json:"comName"`
	SciName     string  `json:"sciName"`
	ObsDt       string  `json:"obsDt"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	LocName     string  `json:"locName"`
	SubID       string  `json:"subId"`
}

// normalizeAvian maps a raw avian record into the shared schema. The upstream
// has no per-observation id, so identity is the checklist id plus species
// code, which is stable across repeated fetches. Every avian record is a Bird.
func normalizeAvian(raw json.RawMessage) (sightings.Observation, bool) {
	var rec avianRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return sightings.Observation{}, false
	}
	if rec.SubID == "" || rec.SpeciesCode == "" || !common.ValidCoords(rec.Lat, rec.Lng) {
		return sightings.Observation{}, false
	}

	nativeID := rec.SubID + ":" + rec.SpeciesCode

	return sightings.Observation{
		ID:             sightings.ObservationID(sightings.ProviderAvian, nativeID),
		Provider:       sightings.ProviderAvian,
		Lat:            rec.Lat,
		Lng:            rec.Lng,
		ObservedAt:     parseAvianTime(rec.ObsDt),
		PlaceGuess:     rec.LocName,
		CommonName:     rec.ComName,
		ScientificName: rec.SciName,
		TaxaBucket:     sightings.TaxaBird,
		DetailURL:      fmt.Sprintf("https://ebird.org/checklist/%s", rec.SubID),
		Raw:            raw,
	}, true
}

// parseAvianTime handles the upstream "2006-01-02 15:04" stamp, which drops
// the time portion for some records.
func parseAvianTime(s string) *time.Time {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}

// taxaRecord is the upstream shape of one multi-taxa observation.
type taxaRecord struct {
	ID             int64  `json:"id"`
	TimeObservedAt string `json:"time_observed_at"`
	Location       string `json:"location"`
	PlaceGuess     string `json:"place_guess"`
	URI            string `json:"uri"`
	Taxon          struct {
		Name                string `json:"name"`
		PreferredCommonName string `json:"preferred_common_name"`
		IconicTaxonName     string `json:"iconic_taxon_name"`
	} `json:"taxon"`
	Photos []struct {
		URL string `json:"url"`
	} `json:"photos"`
}

// normalizeTaxa maps a raw multi-taxa record into the shared schema.
// Coordinates arrive as a combined "lat,lng" string; records without
// resolvable coordinates are dropped.
func normalizeTaxa(raw json.RawMessage) (sightings.Observation, bool) {
	var rec taxaRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return sightings.Observation{}, false
	}
	if rec.ID == 0 {
		return sightings.Observation{}, false
	}

	lat, lng, err := common.ParseLatLng(rec.Location)
	if err != nil {
		return sightings.Observation{}, false
	}

	o := sightings.Observation{
		ID:             sightings.ObservationID(sightings.ProviderMultiTaxa, fmt.Sprintf("%d", rec.ID)),
		Provider:       sightings.ProviderMultiTaxa,
		Lat:            lat,
		Lng:            lng,
		PlaceGuess:     rec.PlaceGuess,
		CommonName:     rec.Taxon.PreferredCommonName,
		ScientificName: rec.Taxon.Name,
		TaxaBucket:     sightings.BucketForTaxon(rec.Taxon.IconicTaxonName),
		PhotoURL:       firstPhotoURL(rec),
		DetailURL:      rec.URI,
		Raw:            raw,
	}

	if ts, err := time.Parse(time.RFC3339, rec.TimeObservedAt); err == nil {
		ts = ts.UTC()
		o.ObservedAt = &ts
	}

	return o, true
}

// firstPhotoURL picks the first available photo, opportunistically swapping
// the thumbnail size variant for a larger one. No photo yields no URL.
func firstPhotoURL(rec taxaRecord) string {
	for _, p := range rec.Photos {
		if p.URL == "" {
			continue
		}
		if common.HasAny(p.URL, "square.jpg", "square.jpeg", "square.png") {
			return strings.Replace(p.URL, "square.", "medium.", 1)
		}
		return p.URL
	}
	return ""
}
