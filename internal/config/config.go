package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wildmap/sightings-aggregation/internal/geo"
)

type AppConfig struct {
	// AvianAPIKey is the avian provider credential. When empty the provider
	// is excluded from the registry instead of failing requests.
	AvianAPIKey string

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration

	// Response cache tuning.
	CacheTTL        time.Duration
	CacheMaxEntries int
	CacheEvictCount int

	// WarmViewports are periodically re-fetched to keep the cache warm.
	WarmViewports []geo.Viewport
	WarmInterval  time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.AvianAPIKey = os.Getenv("AVIAN_API_KEY")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	ttlStr := getenvDefault("CACHE_TTL", "5m")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = ttl

	cfg.CacheMaxEntries = getenvInt("CACHE_MAX_ENTRIES", 100)
	cfg.CacheEvictCount = getenvInt("CACHE_EVICT_COUNT", 20)

	warmStr := getenvDefault("WARM_INTERVAL", "10m")
	warm, err := time.ParseDuration(warmStr)
	if err != nil {
		return nil, fmt.Errorf("invalid WARM_INTERVAL: %w", err)
	}
	cfg.WarmInterval = warm

	vps, err := parseWarmViewports(os.Getenv("WARM_VIEWPORTS"))
	if err != nil {
		return nil, err
	}
	cfg.WarmViewports = vps

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// parseWarmViewports reads a semicolon-separated list of
// "lat,lng,latDelta,lngDelta" quads. An empty value disables warming.
func parseWarmViewports(s string) ([]geo.Viewport, error) {
	if s == "" {
		return nil, nil
	}

	var vps []geo.Viewport
	for _, quad := range strings.Split(s, ";") {
		parts := strings.Split(quad, ",")
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid WARM_VIEWPORTS entry %q: expected lat,lng,latDelta,lngDelta", quad)
		}

		nums := make([]float64, 4)
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid WARM_VIEWPORTS entry %q: %w", quad, err)
			}
			nums[i] = f
		}
		if nums[2] <= 0 || nums[3] <= 0 {
			return nil, fmt.Errorf("invalid WARM_VIEWPORTS entry %q: deltas must be positive", quad)
		}

		vps = append(vps, geo.Viewport{
			CenterLat: nums[0],
			CenterLng: nums[1],
			LatDelta:  nums[2],
			LngDelta:  nums[3],
		})
	}
	return vps, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
