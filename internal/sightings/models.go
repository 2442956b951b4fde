package sightings

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// ProviderTag identifies one of the two upstream data sources.
type ProviderTag string

const (
	// ProviderAvian is the avian-only recent-sightings service.
	ProviderAvian ProviderTag = "ebird"
	// ProviderMultiTaxa is the multi-taxa citizen-science service.
	ProviderMultiTaxa ProviderTag = "inat"
)

// ParseProviderTag validates a provider tag from user input.
func ParseProviderTag(s string) (ProviderTag, bool) {
	switch ProviderTag(s) {
	case ProviderAvian, ProviderMultiTaxa:
		return ProviderTag(s), true
	}
	return "", false
}

// TaxaBucket is one of the coarse taxonomic categories used for filtering
// and marker coloring.
type TaxaBucket string

const (
	TaxaBird      TaxaBucket = "Bird"
	TaxaMammal    TaxaBucket = "Mammal"
	TaxaReptile   TaxaBucket = "Reptile"
	TaxaAmphibian TaxaBucket = "Amphibian"
	TaxaFish      TaxaBucket = "Fish"
	TaxaInsect    TaxaBucket = "Insect"
	TaxaArachnid  TaxaBucket = "Arachnid"
	TaxaMollusk   TaxaBucket = "Mollusk"
	TaxaPlant     TaxaBucket = "Plant"
	TaxaFungi     TaxaBucket = "Fungi"
	TaxaOther     TaxaBucket = "Other"
)

// iconicTaxa maps broad upstream taxonomic family names onto buckets.
var iconicTaxa = map[string]TaxaBucket{
	"Aves":           TaxaBird,
	"Mammalia":       TaxaMammal,
	"Reptilia":       TaxaReptile,
	"Amphibia":       TaxaAmphibian,
	"Actinopterygii": TaxaFish,
	"Insecta":        TaxaInsect,
	"Arachnida":      TaxaArachnid,
	"Mollusca":       TaxaMollusk,
	"Plantae":        TaxaPlant,
	"Fungi":          TaxaFungi,
}

// BucketForTaxon maps an upstream taxonomic family name to a bucket.
// Unmapped or missing names fall back to Other.
func BucketForTaxon(iconicName string) TaxaBucket {
	if b, ok := iconicTaxa[iconicName]; ok {
		return b
	}
	return TaxaOther
}

// ParseTaxaBucket validates a bucket name from user input.
func ParseTaxaBucket(s string) (TaxaBucket, bool) {
	switch TaxaBucket(s) {
	case TaxaBird, TaxaMammal, TaxaReptile, TaxaAmphibian, TaxaFish,
		TaxaInsect, TaxaArachnid, TaxaMollusk, TaxaPlant, TaxaFungi, TaxaOther:
		return TaxaBucket(s), true
	}
	return "", false
}

// Observation is the normalized record shared by both providers.
// ID is stable across repeated fetches and unique per (provider, native id);
// it is the identity key for client-side diffing and exact-match dedup.
type Observation struct {
	ID             string          `json:"id"`
	Provider       ProviderTag     `json:"provider"`
	Lat            float64         `json:"lat"`
	Lng            float64         `json:"lng"`
	ObservedAt     *time.Time      `json:"observedAt,omitempty"`
	PlaceGuess     string          `json:"placeGuess,omitempty"`
	CommonName     string          `json:"commonName,omitempty"`
	ScientificName string          `json:"scientificName,omitempty"`
	TaxaBucket     TaxaBucket      `json:"taxaBucket"`
	PhotoURL       string          `json:"photoUrl,omitempty"`
	DetailURL      string          `json:"detailUrl,omitempty"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}

// ObservationID builds the provider-qualified identifier for a native record.
func ObservationID(tag ProviderTag, nativeID string) string {
	return string(tag) + "-" + nativeID
}

// SplitObservationID splits a provider-qualified identifier on the first "-".
func SplitObservationID(id string) (ProviderTag, string, bool) {
	tag, native, ok := strings.Cut(id, "-")
	if !ok || tag == "" || native == "" {
		return "", "", false
	}
	return ProviderTag(tag), native, true
}

// RecencyWindow limits how far back observations are fetched.
type RecencyWindow string

const (
	RecencyDefault   RecencyWindow = ""
	RecencyToday     RecencyWindow = "today"
	RecencyThisWeek  RecencyWindow = "this_week"
	RecencyThisMonth RecencyWindow = "this_month"
)

// Days returns the lookback window in days. The unrestricted default is 14.
func (w RecencyWindow) Days() int {
	switch w {
	case RecencyToday:
		return 1
	case RecencyThisWeek:
		return 7
	case RecencyThisMonth:
		return 30
	default:
		return 14
	}
}

// FilterParams narrows an aggregation request. Zero values mean unrestricted.
type FilterParams struct {
	Recency   RecencyWindow
	HasPhoto  *bool
	Taxa      []TaxaBucket
	Providers []ProviderTag
}

// WantsProvider reports whether the provider set (empty = all) includes tag.
func (f FilterParams) WantsProvider(tag ProviderTag) bool {
	if len(f.Providers) == 0 {
		return true
	}
	for _, p := range f.Providers {
		if p == tag {
			return true
		}
	}
	return false
}

// WantsTaxa reports whether the taxa set (empty = all) includes bucket.
func (f FilterParams) WantsTaxa(bucket TaxaBucket) bool {
	if len(f.Taxa) == 0 {
		return true
	}
	for _, t := range f.Taxa {
		if t == bucket {
			return true
		}
	}
	return false
}

// sortedTaxa returns the taxa set in canonical order for fingerprinting.
func (f FilterParams) sortedTaxa() []string {
	out := make([]string, 0, len(f.Taxa))
	for _, t := range f.Taxa {
		out = append(out, string(t))
	}
	sort.Strings(out)
	return out
}

// sortedProviders returns the provider set in canonical order for fingerprinting.
func (f FilterParams) sortedProviders() []string {
	out := make([]string, 0, len(f.Providers))
	for _, p := range f.Providers {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}
