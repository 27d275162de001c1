package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"jobwatch/notify-service/internal/model"
)

const telegramTimeout = 8 * time.Second

// TelegramSender delivers postings through a Telegram bot. The bot is
// send-only — no poller is attached.
type TelegramSender struct {
	bot *tele.Bot
}

// NewTelegramSender validates the token against the Bot API and returns a
// configured sender.
func NewTelegramSender(token string) (*TelegramSender, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Client: &http.Client{Timeout: telegramTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramSender{bot: b}, nil
}

// Send delivers the posting to rec's chat id.
func (s *TelegramSender) Send(ctx context.Context, rec model.Recipient, job model.JobPosting) error {
	if rec.ChatID == "" {
		return &DeliveryError{Channel: model.ChannelTelegram, Err: fmt.Errorf("user %d has no chat id", rec.UserID)}
	}
	chatID, err := strconv.ParseInt(rec.ChatID, 10, 64)
	if err != nil {
		return &DeliveryError{Channel: model.ChannelTelegram, Err: fmt.Errorf("invalid chat id %q", rec.ChatID)}
	}

	if _, err := s.bot.Send(tele.ChatID(chatID), formatTelegramText(job)); err != nil {
		var terr *tele.Error
		if errors.As(err, &terr) && (terr.Code == http.StatusUnauthorized || terr.Code == http.StatusForbidden) {
			return &DeliveryError{
				Channel: model.ChannelTelegram,
				Err:     fmt.Errorf("%w: %v", ErrAuthentication, err),
			}
		}
		return &DeliveryError{Channel: model.ChannelTelegram, Err: err}
	}
	return nil
}

func formatTelegramText(job model.JobPosting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", job.Title, job.Employer)
	if job.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", job.Location)
	}
	if job.Salary != "" {
		fmt.Fprintf(&b, "Salary: %s\n", job.Salary)
	}
	if job.Time != "" {
		fmt.Fprintf(&b, "Time: %s\n", job.Time)
	}
	fmt.Fprintf(&b, "\n%s", job.URL)
	return b.String()
}
