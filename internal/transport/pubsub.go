// Package transport carries new-job events from ingestion to the notifier
// over Redis pub/sub. Delivery is at-most-once: there is no backlog and no
// replay — the relational store, not the transport, is the durability layer.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"jobwatch/notify-service/internal/metrics"
	"jobwatch/notify-service/internal/model"
)

// Channel is the single logical pub/sub channel for new job postings.
const Channel = "new_jobs"

// Bus publishes and consumes JobPosting events.
type Bus struct {
	rdb *redis.Client
}

// NewBus returns a Bus on the given Redis client.
func NewBus(rdb *redis.Client) *Bus {
	return &Bus{rdb: rdb}
}

// Publish serializes job and PUBLISHes it on the new_jobs channel.
func (b *Bus) Publish(ctx context.Context, job model.JobPosting) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job event: %w", err)
	}
	if err := b.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish job event: %w", err)
	}
	return nil
}

// DecodeJob parses a new_jobs payload. Unknown fields are ignored; a
// missing title or url makes the event undeliverable and is an error.
func DecodeJob(payload []byte) (model.JobPosting, error) {
	var job model.JobPosting
	if err := json.Unmarshal(payload, &job); err != nil {
		return model.JobPosting{}, fmt.Errorf("decode job event: %w", err)
	}
	if job.Title == "" || job.URL == "" {
		return model.JobPosting{}, fmt.Errorf("job event missing required fields (title=%q url=%q)", job.Title, job.URL)
	}
	return job, nil
}

// Listen blocks consuming the new_jobs channel, invoking handle for each
// well-formed event in publish order. Malformed payloads are logged and
// skipped without terminating the subscription. go-redis re-establishes
// the underlying connection on transport drops; events missed during an
// outage are not recovered. Listen returns when ctx is cancelled.
func (b *Bus) Listen(ctx context.Context, handle func(context.Context, model.JobPosting)) error {
	pubsub := b.rdb.Subscribe(ctx, Channel)
	defer pubsub.Close()

	// Wait for confirmation that the subscription is live.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}

	log.Printf("[transport] Listening on %s", Channel)
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[transport] Listener stopped: %v", ctx.Err())
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			job, err := DecodeJob([]byte(msg.Payload))
			if err != nil {
				metrics.EventsDiscarded.Inc()
				log.Printf("[transport] Skipping event: %v", err)
				continue
			}
			handle(ctx, job)
		}
	}
}
