package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/wildmap/sightings-aggregation/internal/sightings"
)

func TestGetWithinTTL(t *testing.T) {
	c := New(5*time.Minute, 100, 20)

	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set("k", []sightings.Observation{{ID: "inat-1"}})

	c.now = func() time.Time { return base.Add(4 * time.Minute) }
	obs, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit within TTL")
	}
	if len(obs) != 1 || obs[0].ID != "inat-1" {
		t.Fatalf("unexpected cached value: %+v", obs)
	}
}

func TestGetEvictsStaleEntry(t *testing.T) {
	c := New(5*time.Minute, 100, 20)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Set("k", []sightings.Observation{{ID: "inat-1"}})

	c.now = func() time.Time { return base.Add(5 * time.Minute) }
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss at TTL boundary")
	}
	if c.Len() != 0 {
		t.Errorf("stale entry should be evicted on read, %d entries remain", c.Len())
	}
}

func TestSetSweepsOldestPastCapacity(t *testing.T) {
	c := New(time.Hour, 100, 20)

	base := time.Now()
	tick := 0
	c.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i := 0; i < 101; i++ {
		c.Set(fmt.Sprintf("key-%03d", i), nil)
	}

	if got := c.Len(); got != 81 {
		t.Fatalf("expected 81 entries after the sweep, got %d", got)
	}

	// The 20 removed must be the oldest by timestamp.
	for i := 0; i < 20; i++ {
		if _, ok := c.Get(fmt.Sprintf("key-%03d", i)); ok {
			t.Errorf("key-%03d is among the oldest 20 and should have been swept", i)
		}
	}
	for i := 20; i < 101; i++ {
		if _, ok := c.Get(fmt.Sprintf("key-%03d", i)); !ok {
			t.Errorf("key-%03d should have survived the sweep", i)
		}
	}
}

func TestSetOverwrites(t *testing.T) {
	c := New(time.Hour, 100, 20)

	c.Set("k", []sightings.Observation{{ID: "inat-1"}})
	c.Set("k", []sightings.Observation{{ID: "inat-2"}})

	obs, ok := c.Get("k")
	if !ok || len(obs) != 1 || obs[0].ID != "inat-2" {
		t.Fatalf("overwrite not applied: %+v", obs)
	}
	if c.Len() != 1 {
		t.Errorf("overwrite should not grow the store, got %d entries", c.Len())
	}
}
