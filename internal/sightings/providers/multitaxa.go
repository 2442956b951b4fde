package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wildmap/sightings-aggregation/internal/geo"
	"github.com/wildmap/sightings-aggregation/internal/sightings"
)

// MultiTaxaClient fetches observations from the multi-taxa citizen-science
// provider. The upstream accepts bounding-box queries with no radius ceiling
// and supports a direct point lookup by native id.
type MultiTaxaClient struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewMultiTaxaClient(client *http.Client) *MultiTaxaClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "multitaxa",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &MultiTaxaClient{
		baseURL: "https://api.inaturalist.org/v1",
		client:  client,
		circuit: cb,
	}
}

func (c *MultiTaxaClient) Tag() sightings.ProviderTag {
	return sightings.ProviderMultiTaxa
}

// Fetch queries the upstream with the viewport's bounding box, which it
// prefers over the circular form. Server-side filters: georeferenced
// records only, the recency window, research or pending-review quality,
// open geoprivacy, and the optional has-photo tri-state.
func (c *MultiTaxaClient) Fetch(ctx context.Context, vp geo.Viewport, filters sightings.FilterParams) ([]sightings.Observation, error) {
	bbox := vp.BoundingBox()
	since := time.Now().UTC().AddDate(0, 0, -filters.Recency.Days())

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("nelat", fmt.Sprintf("%.6f", bbox.NELat))
		values.Set("nelng", fmt.Sprintf("%.6f", bbox.NELng))
		values.Set("swlat", fmt.Sprintf("%.6f", bbox.SWLat))
		values.Set("swlng", fmt.Sprintf("%.6f", bbox.SWLng))
		values.Set("geo", "true")
		values.Set("d1", since.Format("2006-01-02"))
		values.Set("quality_grade", "research,needs_id")
		values.Set("geoprivacy", "open")
		values.Set("per_page", "100")
		if filters.HasPhoto != nil {
			values.Set("photos", strconv.FormatBool(*filters.HasPhoto))
		}

		u := fmt.Sprintf("%s/observations?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	results, err := c.fetchResults(ctx, buildRequest)
	if err != nil {
		return nil, err
	}

	obs := make([]sightings.Observation, 0, len(results))
	for _, raw := range results {
		// Records without resolvable coordinates are discarded here even
		// when upstream returns them.
		if o, ok := normalizeTaxa(raw); ok {
			obs = append(obs, o)
		}
	}
	return obs, nil
}

// Lookup fetches a single observation by native id.
func (c *MultiTaxaClient) Lookup(ctx context.Context, nativeID string) (sightings.Observation, error) {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/observations/%s", c.baseURL, url.PathEscape(nativeID))
		return http.NewRequest(http.MethodGet, u, nil)
	}

	results, err := c.fetchResults(ctx, buildRequest)
	if err != nil {
		return sightings.Observation{}, err
	}

	for _, raw := range results {
		if o, ok := normalizeTaxa(raw); ok {
			return o, nil
		}
	}
	return sightings.Observation{}, sightings.ErrNotFound
}

func (c *MultiTaxaClient) fetchResults(ctx context.Context, buildRequest func() (*http.Request, error)) ([]json.RawMessage, error) {
	resp, err := doRequest(ctx, c.client, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed multi-taxa response: %w", err)
	}
	return payload.Results, nil
}
