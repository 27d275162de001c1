// Package ingest orchestrates the ingestion step: deduplicated persistence,
// publishing new postings on the event transport, and feeding the
// seen-url and latest-jobs Redis caches.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"jobwatch/notify-service/internal/metrics"
	"jobwatch/notify-service/internal/model"
	"jobwatch/notify-service/internal/store"
	"jobwatch/notify-service/internal/transport"
)

const (
	seenKeyPrefix = "job_url:"
	seenTTL       = 24 * time.Hour

	latestKey = "latest_jobs"
	latestTTL = time.Hour
)

// Service runs the ingestion side of the pipeline.
type Service struct {
	jobs      *store.JobStore
	bus       *transport.Bus
	rdb       *redis.Client
	latestMax int
}

// New returns a configured ingest Service. latestMax bounds the
// recent-jobs cache.
func New(jobs *store.JobStore, bus *transport.Bus, rdb *redis.Client, latestMax int) *Service {
	return &Service{jobs: jobs, bus: bus, rdb: rdb, latestMax: latestMax}
}

// Ingest persists the unseen subset of drafts and publishes one event per
// newly inserted posting. Persistence is all-or-nothing for the batch;
// publishing and cache writes are best-effort follow-ups — a posting that
// fails to publish is still durable and simply misses this fanout round.
func (s *Service) Ingest(ctx context.Context, drafts []model.JobDraft) ([]model.JobPosting, error) {
	candidates := s.filterSeen(ctx, drafts)
	if len(candidates) == 0 {
		return nil, nil
	}

	inserted, err := s.jobs.PersistNew(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	// Mark every candidate url as seen, duplicates included, so repeat
	// scrapes skip the store probe for a day.
	for _, d := range candidates {
		s.markSeen(ctx, d.URL)
	}

	for _, job := range inserted {
		if err := s.bus.Publish(ctx, job); err != nil {
			log.Printf("[ingest] Publish failed for %s: %v", job.URL, err)
		}
		s.pushLatest(ctx, job)
	}

	if len(inserted) > 0 {
		metrics.JobsIngested.Add(float64(len(inserted)))
		log.Printf("[ingest] Persisted %d new posting(s) of %d candidate(s)", len(inserted), len(candidates))
	}
	return inserted, nil
}

// Latest returns the cached recent postings, newest first, falling back to
// the store when the cache is cold.
func (s *Service) Latest(ctx context.Context) ([]model.JobPosting, error) {
	raw, err := s.rdb.LRange(ctx, latestKey, 0, int64(s.latestMax-1)).Result()
	if err != nil {
		log.Printf("[ingest] Latest cache read failed, falling back to store: %v", err)
		raw = nil
	}

	if len(raw) > 0 {
		jobs := make([]model.JobPosting, 0, len(raw))
		for _, item := range raw {
			var job model.JobPosting
			if err := json.Unmarshal([]byte(item), &job); err != nil {
				log.Printf("[ingest] Skipping malformed latest-cache entry: %v", err)
				continue
			}
			jobs = append(jobs, job)
		}
		if len(jobs) > 0 {
			return jobs, nil
		}
	}

	return s.jobs.Recent(ctx, s.latestMax)
}

// filterSeen drops drafts whose url carries a fresh seen marker. A cache
// failure degrades to passing everything through — the store's unique url
// constraint remains the authoritative dedup.
func (s *Service) filterSeen(ctx context.Context, drafts []model.JobDraft) []model.JobDraft {
	out := make([]model.JobDraft, 0, len(drafts))
	for _, d := range drafts {
		if d.URL == "" {
			continue
		}
		n, err := s.rdb.Exists(ctx, seenKeyPrefix+d.URL).Result()
		if err != nil {
			log.Printf("[ingest] Seen-cache check failed for %s: %v", d.URL, err)
			out = append(out, d)
			continue
		}
		if n == 0 {
			out = append(out, d)
		}
	}
	return out
}

func (s *Service) markSeen(ctx context.Context, url string) {
	if err := s.rdb.Set(ctx, seenKeyPrefix+url, "1", seenTTL).Err(); err != nil {
		log.Printf("[ingest] Seen-cache write failed for %s: %v", url, err)
	}
}

// pushLatest inserts the posting at the front of the bounded recent-jobs
// list and refreshes its freshness window.
func (s *Service) pushLatest(ctx context.Context, job model.JobPosting) {
	payload, err := json.Marshal(job)
	if err != nil {
		log.Printf("[ingest] Latest-cache marshal failed for %s: %v", job.URL, err)
		return
	}

	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, latestKey, payload)
	pipe.LTrim(ctx, latestKey, 0, int64(s.latestMax-1))
	pipe.Expire(ctx, latestKey, latestTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[ingest] Latest-cache update failed for %s: %v", job.URL, err)
	}
}
