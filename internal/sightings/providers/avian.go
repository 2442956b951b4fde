package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wildmap/sightings-aggregation/internal/geo"
	"github.com/wildmap/sightings-aggregation/internal/sightings"
)

const (
	// avianMaxRadiusKm is the upstream hard radius ceiling per request.
	avianMaxRadiusKm = 50.0
	// avianMaxLookbackDays is the upstream-enforced lookback limit.
	avianMaxLookbackDays = 30
	// avianLargeRadiusKm is where tiling switches from a 2x2 to a 3x3 grid.
	avianLargeRadiusKm = 90.0
)

// AvianClient fetches recent sightings from the avian-only provider. The
// upstream accepts only center+radius queries with a 50 km ceiling, so large
// viewports are tiled into a grid of bounded sub-requests. The upstream
// returns no photographs and has no point-lookup endpoint.
type AvianClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewAvianClient(client *http.Client, apiKey string) *AvianClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "avian",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &AvianClient{
		apiKey:  apiKey,
		baseURL: "https://api.ebird.org/v2/data/obs/geo/recent",
		client:  client,
		circuit: cb,
	}
}

func (c *AvianClient) Tag() sightings.ProviderTag {
	return sightings.ProviderAvian
}

// Fetch resolves the viewport to center+radius and issues one request when
// the radius fits under the ceiling, or a concurrent tiled fan-out when it
// does not. Failed tiles are dropped; the remaining tiles still contribute.
func (c *AvianClient) Fetch(ctx context.Context, vp geo.Viewport, filters sightings.FilterParams) ([]sightings.Observation, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("avian api key is not configured")
	}

	back := filters.Recency.Days()
	if back > avianMaxLookbackDays {
		back = avianMaxLookbackDays
	}

	cr := vp.CenterRadius()
	if cr.RadiusKm <= avianMaxRadiusKm {
		return c.fetchTile(ctx, cr.Capped(avianMaxRadiusKm), back)
	}

	tiles := tileCenters(cr)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		merged  []sightings.Observation
		fetched int
		lastErr error
	)

	for _, tile := range tiles {
		tile := tile
		wg.Add(1)
		go func() {
			defer wg.Done()

			obs, err := c.fetchTile(ctx, tile, back)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("avian tile (%.4f,%.4f) fetch failed: %v", tile.Lat, tile.Lng, err)
				lastErr = err
				return
			}
			fetched++
			merged = append(merged, obs...)
		}()
	}
	wg.Wait()

	if fetched == 0 {
		return nil, lastErr
	}
	return merged, nil
}

// tileCenters partitions a too-large disc into a 2x2 grid (moderate radius)
// or 3x3 grid (large radius) of sub-requests, each within the ceiling.
func tileCenters(cr geo.CenterRadius) []geo.CenterRadius {
	n := 2
	if cr.RadiusKm > avianLargeRadiusKm {
		n = 3
	}

	// Sub-request radius is the circumradius of one grid cell, capped.
	tileRadius := math.Sqrt2 * cr.RadiusKm / float64(n)
	if tileRadius > avianMaxRadiusKm {
		tileRadius = avianMaxRadiusKm
	}

	spacing := 2 * cr.RadiusKm / float64(n)

	tiles := make([]geo.CenterRadius, 0, n*n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			northKm := (float64(row) - float64(n-1)/2) * spacing
			eastKm := (float64(col) - float64(n-1)/2) * spacing

			lat, lng := geo.Offset(cr.Lat, cr.Lng, 0, northKm)
			lat, lng = geo.Offset(lat, lng, 90, eastKm)

			tiles = append(tiles, geo.CenterRadius{Lat: lat, Lng: lng, RadiusKm: tileRadius})
		}
	}
	return tiles
}

func (c *AvianClient) fetchTile(ctx context.Context, cr geo.CenterRadius, backDays int) ([]sightings.Observation, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%.4f", cr.Lat))
		values.Set("lng", fmt.Sprintf("%.4f", cr.Lng))
		values.Set("dist", fmt.Sprintf("%.1f", cr.RadiusKm))
		values.Set("back", fmt.Sprintf("%d", backDays))

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-eBirdApiToken", c.apiKey)
		return req, nil
	}

	resp, err := doRequest(ctx, c.client, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var records []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("malformed avian response: %w", err)
	}

	obs := make([]sightings.Observation, 0, len(records))
	for _, raw := range records {
		if o, ok := normalizeAvian(raw); ok {
			obs = append(obs, o)
		}
	}
	return obs, nil
}
