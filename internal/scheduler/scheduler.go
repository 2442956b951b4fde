package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/wildmap/sightings-aggregation/internal/geo"
	"github.com/wildmap/sightings-aggregation/internal/sightings"
)

// Scheduler periodically re-fetches configured warm viewports through the
// service so their responses stay cached. Cache eviction itself remains a
// check-on-write concern of the cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *sightings.Service
	viewports []geo.Viewport
	interval  time.Duration
}

// New creates a new Scheduler.
func New(viewports []geo.Viewport, interval time.Duration, service *sightings.Service) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		viewports: viewports,
		interval:  interval,
	}
}

// Start schedules the periodic warm-fetch job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.viewports) == 0 {
		log.Println("scheduler: no warm viewports configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 10
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running warm viewport fetch job")

		var wg sync.WaitGroup
		for _, vp := range s.viewports {
			vp := vp
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if _, err := s.service.Nearby(ctx, vp, sightings.FilterParams{}); err != nil {
					log.Printf("scheduler: warm fetch failed for (%.2f,%.2f): %v", vp.CenterLat, vp.CenterLng, err)
				}
			}()
		}
		wg.Wait()
		log.Println("scheduler: completed warm viewport fetch job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
