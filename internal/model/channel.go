package model

import "fmt"

// Channel values mirror the notification_types.type column and the
// users.preferred_channel column in PostgreSQL.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelDiscord  Channel = "discord"
	ChannelTelegram Channel = "telegram"
)

// ParseChannel converts a raw string to a Channel, returning an error for
// unknown values.
func ParseChannel(s string) (Channel, error) {
	ch := Channel(s)
	switch ch {
	case ChannelEmail, ChannelDiscord, ChannelTelegram:
		return ch, nil
	}
	return "", fmt.Errorf("unknown notification channel %q", s)
}
