package channel_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"jobwatch/notify-service/internal/model"
	"jobwatch/notify-service/internal/notifier/channel"
)

var discordJob = model.JobPosting{
	ID:       1,
	Title:    "Remote Go Developer",
	Employer: "Acme",
	Location: "Taipei",
	Salary:   "250/h",
	URL:      "https://x/1",
}

func TestDiscordSender_Success(t *testing.T) {
	var got struct {
		Embeds []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"embeds"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("webhook received malformed JSON: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := channel.NewDiscordSender(srv.URL)
	rec := model.Recipient{UserID: 1, Channel: model.ChannelDiscord}
	if err := s.Send(context.Background(), rec, discordJob); err != nil {
		t.Fatalf("Send returned unexpected error: %v", err)
	}

	if len(got.Embeds) != 1 {
		t.Fatalf("webhook received %d embeds, want 1", len(got.Embeds))
	}
	if got.Embeds[0].Title != discordJob.Title || got.Embeds[0].URL != discordJob.URL {
		t.Errorf("embed = %+v, want title/url from the job", got.Embeds[0])
	}
}

func TestDiscordSender_TruncatesOnRuneBoundary(t *testing.T) {
	var desc string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Embeds []struct {
				Description string `json:"description"`
			} `json:"embeds"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &payload); err == nil && len(payload.Embeds) == 1 {
			desc = payload.Embeds[0].Description
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	// 2400 bytes of 3-byte runes: a byte-offset cut at the 2000-byte cap
	// would land mid-rune.
	job := discordJob
	job.Content = strings.Repeat("職缺", 400)

	s := channel.NewDiscordSender(srv.URL)
	if err := s.Send(context.Background(), model.Recipient{UserID: 1}, job); err != nil {
		t.Fatalf("Send returned unexpected error: %v", err)
	}

	if len(desc) == 0 || len(desc) > 2000 {
		t.Fatalf("description is %d bytes, want 1..2000", len(desc))
	}
	if !utf8.ValidString(desc) {
		t.Error("truncated description is not valid UTF-8")
	}
	if !strings.HasPrefix(job.Content, desc) {
		t.Error("truncated description is not a prefix of the content")
	}
}

func TestDiscordSender_ServerErrorIsDeliveryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := channel.NewDiscordSender(srv.URL)
	err := s.Send(context.Background(), model.Recipient{UserID: 1}, discordJob)

	var derr *channel.DeliveryError
	if !errors.As(err, &derr) {
		t.Fatalf("Send error = %v, want *DeliveryError", err)
	}
	if errors.Is(err, channel.ErrAuthentication) {
		t.Error("500 response must not classify as ErrAuthentication")
	}
}

func TestDiscordSender_UnauthorizedIsAuthenticationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := channel.NewDiscordSender(srv.URL)
	err := s.Send(context.Background(), model.Recipient{UserID: 1}, discordJob)
	if !errors.Is(err, channel.ErrAuthentication) {
		t.Errorf("Send error = %v, want ErrAuthentication", err)
	}
}
