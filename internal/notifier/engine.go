// Package notifier contains the notification fanout engine: it matches
// incoming job events against keyword subscriptions, dispatches to each
// matched user's preferred delivery channel, and records the history.
package notifier

import (
	"context"
	"errors"
	"log"
	"log/slog"

	"jobwatch/notify-service/internal/metrics"
	"jobwatch/notify-service/internal/model"
	"jobwatch/notify-service/internal/notifier/channel"
	"jobwatch/notify-service/internal/store"
)

// JobSource resolves persisted postings by url. A miss is signalled with
// store.ErrNotFound.
type JobSource interface {
	GetByURL(ctx context.Context, url string) (model.JobPosting, error)
}

// SubscriptionSource exposes the keyword index used for matching.
type SubscriptionSource interface {
	AllKeywords(ctx context.Context) ([]model.SubscriptionItem, error)
	SubscribersOf(ctx context.Context, keyword string) ([]int64, error)
}

// Directory resolves a user's preferred channel and delivery address.
type Directory interface {
	Recipient(ctx context.Context, userID int64) (model.Recipient, error)
}

// Recorder persists one Notification row per delivered (user, job) pair.
type Recorder interface {
	Record(ctx context.Context, userID, jobID int64) error
}

// Engine is the fanout state machine. Each event is a single
// run-to-completion unit; the engine holds no per-event state.
type Engine struct {
	jobs     JobSource
	subs     SubscriptionSource
	dir      Directory
	history  Recorder
	registry *channel.Registry
}

// NewEngine wires the engine's collaborators.
func NewEngine(jobs JobSource, subs SubscriptionSource, dir Directory, history Recorder, registry *channel.Registry) *Engine {
	return &Engine{jobs: jobs, subs: subs, dir: dir, history: history, registry: registry}
}

// HandleJob processes one new-job event end to end. Per-recipient failures
// are logged and isolated; they never abort the remaining dispatches. The
// engine re-derives matches from current subscription state on every event,
// so a redelivered event produces duplicate history rows by design.
func (e *Engine) HandleJob(ctx context.Context, event model.JobPosting) {
	items, err := e.subs.AllKeywords(ctx)
	if err != nil {
		slog.Error("load keywords failed", "url", event.URL, "err", err)
		return
	}

	matched := MatchKeywords(event.Title, items)
	if len(matched) == 0 {
		return
	}

	// Consistency guard: the event may reference a job that never reached
	// the store (or raced ingestion). Such events are dropped.
	job, err := e.jobs.GetByURL(ctx, event.URL)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("[notifier] Dropping event for unknown job %s", event.URL)
		return
	}
	if err != nil {
		slog.Error("resolve job failed", "url", event.URL, "err", err)
		return
	}

	recipients, err := e.collectRecipients(ctx, matched)
	if err != nil {
		slog.Error("resolve subscribers failed", "url", event.URL, "err", err)
		return
	}
	if len(recipients) == 0 {
		return
	}

	log.Printf("[notifier] Job %d %q matched %d keyword(s), %d recipient(s)",
		job.ID, job.Title, len(matched), len(recipients))

	for _, userID := range recipients {
		e.dispatch(ctx, userID, job)
	}
}

// collectRecipients unions the subscribers of every matched keyword in
// first-matched order, deduplicated by user id: a user subscribed to two
// matching keywords receives exactly one notification per job.
func (e *Engine) collectRecipients(ctx context.Context, matched []model.SubscriptionItem) ([]int64, error) {
	seen := make(map[int64]bool)
	var recipients []int64
	for _, it := range matched {
		userIDs, err := e.subs.SubscribersOf(ctx, it.Keyword)
		if err != nil {
			return nil, err
		}
		for _, id := range userIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			recipients = append(recipients, id)
		}
	}
	return recipients, nil
}

// dispatch delivers one job to one user and records the history row on
// success. Each history commit is independent, so a failure mid-batch
// leaves a partial but consistent audit trail.
func (e *Engine) dispatch(ctx context.Context, userID int64, job model.JobPosting) {
	rec, err := e.dir.Recipient(ctx, userID)
	if err != nil {
		slog.Warn("recipient lookup failed", "userId", userID, "err", err)
		metrics.NotificationsFailed.Inc()
		return
	}

	sender, ok := e.registry.Lookup(rec.Channel)
	if !ok {
		slog.Warn("no sender registered for channel", "userId", userID, "channel", rec.Channel)
		metrics.NotificationsFailed.Inc()
		return
	}

	if err := sender.Send(ctx, rec, job); err != nil {
		if errors.Is(err, channel.ErrAuthentication) {
			slog.Error("delivery rejected: bad channel credentials", "userId", userID, "channel", rec.Channel, "err", err)
		} else {
			slog.Warn("delivery failed", "userId", userID, "channel", rec.Channel, "err", err)
		}
		metrics.NotificationsFailed.Inc()
		return
	}

	if err := e.history.Record(ctx, userID, job.ID); err != nil {
		slog.Warn("record notification failed", "userId", userID, "jobId", job.ID, "err", err)
		return
	}
	metrics.NotificationsSent.Inc()
}
