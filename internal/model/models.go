// Package model defines shared data structures for the notify service.
package model

import "time"

// JobDraft is a scraped job posting before persistence. The URL is the
// natural dedup key; id and created_at are assigned by the store.
type JobDraft struct {
	Title    string `json:"title"`
	Employer string `json:"employer"`
	Location string `json:"location"`
	Salary   string `json:"salary"`
	Content  string `json:"content"`
	URL      string `json:"url"`
	Time     string `json:"time"` // posting time-window text, e.g. "2025-01-10"
}

// JobPosting is a persisted job. Immutable after insert.
// The JSON tags double as the new_jobs pub/sub payload schema.
type JobPosting struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Employer  string    `json:"employer"`
	Location  string    `json:"location"`
	Salary    string    `json:"salary"`
	Content   string    `json:"content"`
	URL       string    `json:"url"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"created_at"`
}

// SubscriptionItem is a normalized (lower-cased, trimmed) keyword.
// Globally unique by keyword text.
type SubscriptionItem struct {
	ID        int64     `json:"id"`
	Keyword   string    `json:"keyword"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserSubscription joins a user to a SubscriptionItem.
// At most one row per (user, item) pair.
type UserSubscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	ItemID    int64     `json:"itemId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notification is a delivery record: one row per (user, job) delivery.
type Notification struct {
	ID     int64     `json:"id"`
	UserID int64     `json:"userId"`
	JobID  int64     `json:"jobId"`
	SentAt time.Time `json:"sentAt"`
}

// HistoryEntry is the read shape for a user's notification history.
type HistoryEntry struct {
	JobTitle string    `json:"jobTitle"`
	JobURL   string    `json:"jobUrl"`
	SentAt   time.Time `json:"sentAt"`
}

// NotificationType describes an available delivery channel.
type NotificationType struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// KeywordCount is one entry of the popularity ranking.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int64  `json:"count"`
}

// Recipient is the delivery-relevant slice of a user profile.
type Recipient struct {
	UserID  int64
	Channel Channel
	Email   string
	ChatID  string // chat identifier for bot-based channels
}
