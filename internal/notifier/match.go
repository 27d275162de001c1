package notifier

import (
	"strings"

	"jobwatch/notify-service/internal/model"
)

// MatchKeywords returns the subscription items whose keyword appears as a
// case-insensitive substring of the job title, preserving item order.
// Keywords are stored normalized (lower-cased, trimmed) by the
// subscription store; empty keywords never match.
func MatchKeywords(title string, items []model.SubscriptionItem) []model.SubscriptionItem {
	lowered := strings.ToLower(title)

	var matched []model.SubscriptionItem
	for _, it := range items {
		if it.Keyword == "" {
			continue
		}
		if strings.Contains(lowered, it.Keyword) {
			matched = append(matched, it)
		}
	}
	return matched
}
