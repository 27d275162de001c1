package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobwatch/notify-service/internal/model"
)

// ErrEmptyKeyword is returned when a keyword normalizes to the empty string.
var ErrEmptyKeyword = errors.New("keyword is empty")

// Bumper adjusts a keyword's cached popularity score. Bump failures are
// logged and swallowed — ranking is best-effort and must never block
// subscription correctness.
type Bumper interface {
	Bump(ctx context.Context, keyword string, delta int64) error
}

// SubscriptionStore owns subscription_items and user_subscriptions.
type SubscriptionStore struct {
	pool    *pgxpool.Pool
	ranking Bumper
}

// NewSubscriptionStore returns a configured SubscriptionStore. ranking may
// be nil, in which case popularity scores are left to the cache rebuild.
func NewSubscriptionStore(pool *pgxpool.Pool, ranking Bumper) *SubscriptionStore {
	return &SubscriptionStore{pool: pool, ranking: ranking}
}

// SetRanking installs the ranking cache after construction. The store and
// the cache reference each other (the cache rebuilds from AggregateCounts),
// so one side is wired late.
func (s *SubscriptionStore) SetRanking(ranking Bumper) {
	s.ranking = ranking
}

// NormalizeKeyword lower-cases and trims a raw keyword.
func NormalizeKeyword(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Subscribe links userID to the normalized keyword, creating the
// SubscriptionItem on first use. Idempotent: a repeated call returns
// created=false and changes nothing, including the ranking score.
func (s *SubscriptionStore) Subscribe(ctx context.Context, userID int64, keyword string) (created bool, item model.SubscriptionItem, err error) {
	kw := NormalizeKeyword(keyword)
	if kw == "" {
		return false, model.SubscriptionItem{}, ErrEmptyKeyword
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, model.SubscriptionItem{}, fmt.Errorf("subscribe: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO subscription_items (keyword) VALUES ($1)
		 ON CONFLICT (keyword) DO NOTHING`,
		kw,
	); err != nil {
		return false, model.SubscriptionItem{}, fmt.Errorf("subscribe: insert item: %w", err)
	}

	if err := tx.QueryRow(ctx,
		`SELECT id, keyword, created_at FROM subscription_items WHERE keyword = $1`,
		kw,
	).Scan(&item.ID, &item.Keyword, &item.CreatedAt); err != nil {
		return false, model.SubscriptionItem{}, fmt.Errorf("subscribe: load item: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO user_subscriptions (user_id, item_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, item_id) DO NOTHING`,
		userID, item.ID,
	)
	if err != nil {
		return false, model.SubscriptionItem{}, fmt.Errorf("subscribe: insert link: %w", err)
	}
	created = tag.RowsAffected() > 0

	if err := tx.Commit(ctx); err != nil {
		return false, model.SubscriptionItem{}, fmt.Errorf("subscribe: commit: %w", err)
	}

	if created {
		s.bump(ctx, kw, +1)
	}
	return created, item, nil
}

// Unsubscribe removes the (user, item) link. The SubscriptionItem itself is
// reclaimed when its last subscriber leaves, inside the same transaction.
// The item row is locked first so concurrent unsubscribes of the same
// keyword serialize; without the lock, the last two subscribers leaving at
// once could each see the other's link and orphan the item.
// Returns ErrNotFound when no matching link exists.
func (s *SubscriptionStore) Unsubscribe(ctx context.Context, userID, itemID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("unsubscribe: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var keyword string
	err = tx.QueryRow(ctx,
		`SELECT keyword FROM subscription_items WHERE id = $1 FOR UPDATE`,
		itemID,
	).Scan(&keyword)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("unsubscribe: lock item: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM user_subscriptions WHERE user_id = $1 AND item_id = $2`,
		userID, itemID,
	)
	if err != nil {
		return fmt.Errorf("unsubscribe: delete link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	var remaining int64
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_subscriptions WHERE item_id = $1`,
		itemID,
	).Scan(&remaining); err != nil {
		return fmt.Errorf("unsubscribe: count subscribers: %w", err)
	}

	if remaining == 0 {
		if _, err := tx.Exec(ctx,
			`DELETE FROM subscription_items WHERE id = $1`, itemID,
		); err != nil {
			return fmt.Errorf("unsubscribe: reclaim item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("unsubscribe: commit: %w", err)
	}

	s.bump(ctx, keyword, -1)
	return nil
}

// SubscriptionsFor returns the keywords userID is subscribed to, oldest
// subscription first. Clients use the returned item ids to unsubscribe.
func (s *SubscriptionStore) SubscriptionsFor(ctx context.Context, userID int64) ([]model.SubscriptionItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT si.id, si.keyword, si.created_at
		 FROM user_subscriptions us
		 JOIN subscription_items si ON si.id = us.item_id
		 WHERE us.user_id = $1
		 ORDER BY us.created_at, us.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("user subscriptions query: %w", err)
	}
	defer rows.Close()

	items := make([]model.SubscriptionItem, 0)
	for rows.Next() {
		var it model.SubscriptionItem
		if err := rows.Scan(&it.ID, &it.Keyword, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("user subscriptions scan: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// SubscribersOf returns the user ids subscribed to an exact normalized
// keyword, ordered by subscription creation. The order fixes the
// "first-matched" dispatch order of the fanout engine.
func (s *SubscriptionStore) SubscribersOf(ctx context.Context, keyword string) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT us.user_id
		 FROM user_subscriptions us
		 JOIN subscription_items si ON si.id = us.item_id
		 WHERE si.keyword = $1
		 ORDER BY us.created_at, us.id`,
		NormalizeKeyword(keyword),
	)
	if err != nil {
		return nil, fmt.Errorf("subscribers query: %w", err)
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("subscribers scan: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}

// AllKeywords returns every SubscriptionItem.
func (s *SubscriptionStore) AllKeywords(ctx context.Context) ([]model.SubscriptionItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, keyword, created_at FROM subscription_items ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("keywords query: %w", err)
	}
	defer rows.Close()

	var items []model.SubscriptionItem
	for rows.Next() {
		var it model.SubscriptionItem
		if err := rows.Scan(&it.ID, &it.Keyword, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("keywords scan: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// AggregateCounts returns subscriber counts per keyword, the source of
// truth for the ranking cache rebuild. Ordered by count descending so the
// rebuild inserts popular keywords first.
func (s *SubscriptionStore) AggregateCounts(ctx context.Context) ([]model.KeywordCount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT si.keyword, COUNT(us.id)
		 FROM subscription_items si
		 LEFT JOIN user_subscriptions us ON us.item_id = si.id
		 GROUP BY si.id, si.keyword
		 ORDER BY COUNT(us.id) DESC, si.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate counts query: %w", err)
	}
	defer rows.Close()

	var counts []model.KeywordCount
	for rows.Next() {
		var kc model.KeywordCount
		if err := rows.Scan(&kc.Keyword, &kc.Count); err != nil {
			return nil, fmt.Errorf("aggregate counts scan: %w", err)
		}
		counts = append(counts, kc)
	}
	return counts, rows.Err()
}

// bump forwards a score change to the ranking cache, best-effort.
func (s *SubscriptionStore) bump(ctx context.Context, keyword string, delta int64) {
	if s.ranking == nil {
		return
	}
	if err := s.ranking.Bump(ctx, keyword, delta); err != nil {
		slog.Warn("ranking bump failed", "keyword", keyword, "delta", delta, "err", err)
	}
}
