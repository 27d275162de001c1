// Package scheduler wires up the cron job that periodically scrapes the
// feed and runs the ingestion step.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"jobwatch/notify-service/internal/ingest"
	"jobwatch/notify-service/internal/scraper"
)

// Scheduler wraps robfig/cron and manages the scrape loop.
type Scheduler struct {
	cron    *cron.Cron
	fetcher scraper.Fetcher
	ingest  *ingest.Service
	limit   int
	spec    string // cron spec, e.g. "@every 6h"
}

// New creates a Scheduler that fires every intervalHours hours, fetching
// up to limit postings per cycle.
func New(fetcher scraper.Fetcher, ingest *ingest.Service, intervalHours, limit int) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cron.DefaultLogger)),
		fetcher: fetcher,
		ingest:  ingest,
		limit:   limit,
		spec:    fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one scrape
// immediately so the feed is populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runScrape(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s", s.spec)

	// Run immediately on startup (non-blocking)
	go s.runScrape(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

// runScrape executes one fetch-and-ingest cycle.
func (s *Scheduler) runScrape(ctx context.Context) {
	log.Println("[scheduler] Scrape cycle started")

	drafts, err := s.fetcher.Fetch(ctx, s.limit)
	if err != nil {
		log.Printf("[scheduler] Fetch error: %v", err)
		return
	}
	if len(drafts) == 0 {
		log.Println("[scheduler] No postings fetched — nothing to ingest")
		return
	}

	inserted, err := s.ingest.Ingest(ctx, drafts)
	if err != nil {
		log.Printf("[scheduler] Ingest error: %v", err)
		return
	}

	log.Printf("[scheduler] Scrape cycle complete — fetched=%d new=%d", len(drafts), len(inserted))
}
