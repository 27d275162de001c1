package scraper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"jobwatch/notify-service/internal/scraper"
)

const feedBody = `[
	{"title": "Remote Go Developer", "employer": "Acme", "location": "Taipei",
	 "salary": "250/h", "content": "Ship features", "url": "https://x/1", "time": "2025-01-10"},
	{"title": "Rust Engineer", "employer": "Beta", "url": "https://x/2"},
	{"title": "No URL posting", "employer": "Gamma", "url": ""}
]`

func TestFeedFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("limit query = %q, want %q", got, "10")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	f := scraper.NewFeedFetcher(srv.URL)
	drafts, err := f.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch returned unexpected error: %v", err)
	}

	// The posting without a url is dropped.
	if len(drafts) != 2 {
		t.Fatalf("Fetch returned %d drafts, want 2", len(drafts))
	}
	if drafts[0].Title != "Remote Go Developer" || drafts[0].URL != "https://x/1" {
		t.Errorf("drafts[0] = %+v, fields not mapped", drafts[0])
	}
	if drafts[0].Salary != "250/h" || drafts[0].Time != "2025-01-10" {
		t.Errorf("drafts[0] = %+v, salary/time not mapped", drafts[0])
	}
}

func TestFeedFetcher_LimitTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	f := scraper.NewFeedFetcher(srv.URL)
	drafts, err := f.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatalf("Fetch returned unexpected error: %v", err)
	}
	if len(drafts) != 1 {
		t.Errorf("Fetch with limit 1 returned %d drafts, want 1", len(drafts))
	}
}

func TestFeedFetcher_NoFeedConfigured(t *testing.T) {
	f := scraper.NewFeedFetcher("")
	drafts, err := f.Fetch(context.Background(), 5)
	if err != nil {
		t.Errorf("Fetch with empty feed url returned error: %v", err)
	}
	if drafts != nil {
		t.Errorf("Fetch with empty feed url = %v, want nil", drafts)
	}
}

func TestFeedFetcher_Non200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := scraper.NewFeedFetcher(srv.URL)
	if _, err := f.Fetch(context.Background(), 5); err == nil {
		t.Error("Fetch against 502 feed expected error, got nil")
	}
}
