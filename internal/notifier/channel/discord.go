package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"jobwatch/notify-service/internal/model"
)

const discordTimeout = 8 * time.Second

// DiscordSender posts job embeds to a Discord webhook.
type DiscordSender struct {
	WebhookURL string
	client     *http.Client
}

// NewDiscordSender constructs a DiscordSender with its own HTTP client.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		WebhookURL: webhookURL,
		client:     &http.Client{Timeout: discordTimeout},
	}
}

type discordEmbed struct {
	Title       string              `json:"title"`
	URL         string              `json:"url"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

// Send posts one embed describing the job.
func (s *DiscordSender) Send(ctx context.Context, rec model.Recipient, job model.JobPosting) error {
	fields := make([]discordEmbedField, 0, 3)
	if job.Employer != "" {
		fields = append(fields, discordEmbedField{Name: "Employer", Value: job.Employer, Inline: true})
	}
	if job.Location != "" {
		fields = append(fields, discordEmbedField{Name: "Location", Value: job.Location, Inline: true})
	}
	if job.Salary != "" {
		fields = append(fields, discordEmbedField{Name: "Salary", Value: job.Salary, Inline: true})
	}

	payload := discordPayload{
		Embeds: []discordEmbed{{
			Title:       job.Title,
			URL:         job.URL,
			Description: truncate(job.Content, 2000),
			Fields:      fields,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &DeliveryError{Channel: model.ChannelDiscord, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Channel: model.ChannelDiscord, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &DeliveryError{Channel: model.ChannelDiscord, Err: fmt.Errorf("http POST: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &DeliveryError{
			Channel: model.ChannelDiscord,
			Err:     fmt.Errorf("%w: webhook returned %d", ErrAuthentication, resp.StatusCode),
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &DeliveryError{
			Channel: model.ChannelDiscord,
			Err:     fmt.Errorf("webhook returned %d", resp.StatusCode),
		}
	}
	return nil
}

// truncate caps s at n bytes without splitting a multi-byte rune; scraped
// postings are frequently CJK text.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
