package notifier

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"jobwatch/notify-service/internal/model"
)

// History owns the notifications audit trail and the channel catalog.
type History struct {
	pool *pgxpool.Pool
}

// NewHistory returns a configured History.
func NewHistory(pool *pgxpool.Pool) *History {
	return &History{pool: pool}
}

// Record inserts one delivery record for (user, job). Each insert commits
// independently of the rest of the event's batch.
func (h *History) Record(ctx context.Context, userID, jobID int64) error {
	if _, err := h.pool.Exec(ctx,
		`INSERT INTO notifications (user_id, job_id) VALUES ($1, $2)`,
		userID, jobID,
	); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	return nil
}

// HistoryFor returns a user's delivery history, newest first.
func (h *History) HistoryFor(ctx context.Context, userID int64) ([]model.HistoryEntry, error) {
	rows, err := h.pool.Query(ctx,
		`SELECT j.title, j.url, n.sent_at
		 FROM notifications n
		 JOIN jobs j ON j.id = n.job_id
		 WHERE n.user_id = $1
		 ORDER BY n.sent_at DESC, n.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("history query: %w", err)
	}
	defer rows.Close()

	entries := make([]model.HistoryEntry, 0)
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.JobTitle, &e.JobURL, &e.SentAt); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// NotificationTypes returns the catalog of available delivery channels.
// Consumed by account settings, not by the engine itself.
func (h *History) NotificationTypes(ctx context.Context) ([]model.NotificationType, error) {
	rows, err := h.pool.Query(ctx,
		`SELECT id, type, description FROM notification_types ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("notification types query: %w", err)
	}
	defer rows.Close()

	types := make([]model.NotificationType, 0)
	for rows.Next() {
		var t model.NotificationType
		if err := rows.Scan(&t.ID, &t.Type, &t.Description); err != nil {
			return nil, fmt.Errorf("notification types scan: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}
