// Package account exposes the delivery-relevant slice of user profiles.
// Registration, login and credential handling live in the external account
// service; this directory only reads what the notifier needs.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobwatch/notify-service/internal/model"
	"jobwatch/notify-service/internal/store"
)

// Directory resolves users' preferred channels and addresses.
type Directory struct {
	pool *pgxpool.Pool
}

// NewDirectory returns a configured Directory.
func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// Recipient loads the preferred channel and delivery addresses for userID.
// Returns store.ErrNotFound when the user does not exist.
func (d *Directory) Recipient(ctx context.Context, userID int64) (model.Recipient, error) {
	var (
		channelStr string
		email      *string
		chatID     *string
	)
	err := d.pool.QueryRow(ctx,
		`SELECT preferred_channel, email, chat_id FROM users WHERE id = $1`,
		userID,
	).Scan(&channelStr, &email, &chatID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Recipient{}, store.ErrNotFound
	}
	if err != nil {
		return model.Recipient{}, fmt.Errorf("recipient query: %w", err)
	}

	ch, err := model.ParseChannel(channelStr)
	if err != nil {
		return model.Recipient{}, fmt.Errorf("user %d: %w", userID, err)
	}

	rec := model.Recipient{UserID: userID, Channel: ch}
	if email != nil {
		rec.Email = *email
	}
	if chatID != nil {
		rec.ChatID = *chatID
	}
	return rec, nil
}
