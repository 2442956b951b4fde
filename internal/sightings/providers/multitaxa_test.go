package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/wildmap/sightings-aggregation/internal/geo"
	"github.com/wildmap/sightings-aggregation/internal/sightings"
)

const taxaResultsBody = `{"total_results":2,"results":[
	{"id":1001,"time_observed_at":"2026-08-29T14:05:00-07:00","location":"37.769400,-122.486200",
	 "place_guess":"Golden Gate Park, San Francisco","uri":"https://www.inaturalist.org/observations/1001",
	 "taxon":{"name":"Canis latrans","preferred_common_name":"Coyote","iconic_taxon_name":"Mammalia"},
	 "photos":[{"url":"https://static.inaturalist.org/photos/1/square.jpg"}]},
	{"id":1002,"time_observed_at":"","location":"",
	 "place_guess":"somewhere","uri":"https://www.inaturalist.org/observations/1002",
	 "taxon":{"name":"Corvus corax","preferred_common_name":"Common Raven","iconic_taxon_name":"Aves"},
	 "photos":[]}
]}`

func newTaxaTestServer(body string) (*[]url.Values, *httptest.Server) {
	var queries []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	return &queries, srv
}

func TestMultiTaxaFetchQueryShape(t *testing.T) {
	queries, srv := newTaxaTestServer(`{"results":[]}`)
	defer srv.Close()

	c := NewMultiTaxaClient(srv.Client())
	c.baseURL = srv.URL

	hasPhoto := true
	vp := geo.Viewport{CenterLat: 37.7749, CenterLng: -122.4194, LatDelta: 0.5, LngDelta: 0.5}
	_, err := c.Fetch(context.Background(), vp, sightings.FilterParams{HasPhoto: &hasPhoto})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(*queries) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*queries))
	}
	q := (*queries)[0]

	// Bounding box is preferred over the circular form.
	if q.Get("nelat") != "38.274900" || q.Get("swlng") != "-122.919400" {
		t.Errorf("bounding box params wrong: nelat=%s swlng=%s", q.Get("nelat"), q.Get("swlng"))
	}
	if q.Get("lat") != "" || q.Get("radius") != "" {
		t.Errorf("circular params must not be sent alongside the bounding box")
	}
	if q.Get("geo") != "true" {
		t.Errorf("georeferenced-only filter missing")
	}
	if q.Get("quality_grade") != "research,needs_id" {
		t.Errorf("quality filter = %s", q.Get("quality_grade"))
	}
	if q.Get("geoprivacy") != "open" {
		t.Errorf("geoprivacy filter = %s", q.Get("geoprivacy"))
	}
	if q.Get("photos") != "true" {
		t.Errorf("photos tri-state not forwarded, got %s", q.Get("photos"))
	}
	if q.Get("d1") == "" {
		t.Errorf("recency window lower bound missing")
	}
}

func TestMultiTaxaFetchNormalizesAndDiscards(t *testing.T) {
	_, srv := newTaxaTestServer(taxaResultsBody)
	defer srv.Close()

	c := NewMultiTaxaClient(srv.Client())
	c.baseURL = srv.URL

	vp := geo.Viewport{CenterLat: 37.7749, CenterLng: -122.4194, LatDelta: 0.5, LngDelta: 0.5}
	obs, err := c.Fetch(context.Background(), vp, sightings.FilterParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Record 1002 has no resolvable coordinates and must be discarded locally.
	if len(obs) != 1 {
		t.Fatalf("expected 1 observation after discarding, got %d", len(obs))
	}

	o := obs[0]
	if o.ID != "inat-1001" {
		t.Errorf("id = %s", o.ID)
	}
	if o.Lat != 37.7694 || o.Lng != -122.4862 {
		t.Errorf("location parse gave (%f,%f)", o.Lat, o.Lng)
	}
	if o.TaxaBucket != sightings.TaxaMammal {
		t.Errorf("Mammalia should map to Mammal, got %s", o.TaxaBucket)
	}
	if o.CommonName != "Coyote" || o.ScientificName != "Canis latrans" {
		t.Errorf("names = %q / %q", o.CommonName, o.ScientificName)
	}
	if o.PhotoURL != "https://static.inaturalist.org/photos/1/medium.jpg" {
		t.Errorf("photo size variant not substituted: %s", o.PhotoURL)
	}
	if o.ObservedAt == nil {
		t.Errorf("observedAt should be parsed")
	}
	if len(o.Raw) == 0 {
		t.Errorf("raw diagnostic payload missing")
	}
}

func TestMultiTaxaLookup(t *testing.T) {
	_, srv := newTaxaTestServer(taxaResultsBody)
	defer srv.Close()

	c := NewMultiTaxaClient(srv.Client())
	c.baseURL = srv.URL

	o, err := c.Lookup(context.Background(), "1001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.ID != "inat-1001" {
		t.Errorf("id = %s", o.ID)
	}
}

func TestMultiTaxaLookupNotFound(t *testing.T) {
	_, srv := newTaxaTestServer(`{"results":[]}`)
	defer srv.Close()

	c := NewMultiTaxaClient(srv.Client())
	c.baseURL = srv.URL

	if _, err := c.Lookup(context.Background(), "9999"); !errors.Is(err, sightings.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestMultiTaxaFetchMalformedBody(t *testing.T) {
	_, srv := newTaxaTestServer(`{"results": "not-an-array"`)
	defer srv.Close()

	c := NewMultiTaxaClient(srv.Client())
	c.baseURL = srv.URL

	vp := geo.Viewport{CenterLat: 37.7749, CenterLng: -122.4194, LatDelta: 0.5, LngDelta: 0.5}
	if _, err := c.Fetch(context.Background(), vp, sightings.FilterParams{}); err == nil {
		t.Fatal("expected error on malformed body")
	}
}
