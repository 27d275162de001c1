// Package scraper implements job posting fetching and the scrape schedule.
// The service depends only on the feed's output shape; the upstream site's
// parsing mechanics live behind the feed endpoint.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"jobwatch/notify-service/internal/model"
)

const httpTimeout = 15 * time.Second

// Fetcher yields job drafts from an external source.
type Fetcher interface {
	Fetch(ctx context.Context, limit int) ([]model.JobDraft, error)
}

// FeedFetcher fetches postings from a JSON feed endpoint. When the feed
// URL is empty, Fetch returns (nil, nil) gracefully — the scheduler will
// simply skip scraping for that round and log a warning.
type FeedFetcher struct {
	FeedURL string
	client  *http.Client
}

// NewFeedFetcher constructs a fetcher with a shared HTTP client.
func NewFeedFetcher(feedURL string) *FeedFetcher {
	return &FeedFetcher{
		FeedURL: feedURL,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// feedItem mirrors one posting in the feed response.
type feedItem struct {
	Title    string `json:"title"`
	Employer string `json:"employer"`
	Location string `json:"location"`
	Salary   string `json:"salary"`
	Content  string `json:"content"`
	URL      string `json:"url"`
	Time     string `json:"time"`
}

// Fetch retrieves up to limit postings from the feed. Returns nil without
// error when no feed is configured.
func (f *FeedFetcher) Fetch(ctx context.Context, limit int) ([]model.JobDraft, error) {
	if f.FeedURL == "" {
		log.Println("[fetcher] SCRAPE_FEED_URL not set — skipping scrape")
		return nil, nil
	}

	reqURL := f.FeedURL
	if limit > 0 {
		u, err := url.Parse(f.FeedURL)
		if err != nil {
			return nil, fmt.Errorf("parse feed url: %w", err)
		}
		q := u.Query()
		q.Set("limit", strconv.Itoa(limit))
		u.RawQuery = q.Encode()
		reqURL = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %d: %s", resp.StatusCode, string(body))
	}

	var items []feedItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	drafts := make([]model.JobDraft, 0, len(items))
	for _, it := range items {
		if it.URL == "" {
			continue
		}
		drafts = append(drafts, model.JobDraft{
			Title:    it.Title,
			Employer: it.Employer,
			Location: it.Location,
			Salary:   it.Salary,
			Content:  it.Content,
			URL:      it.URL,
			Time:     it.Time,
		})
	}
	return drafts, nil
}
