// Package httpapi exposes the core operations over a thin HTTP surface.
//
// All user-scoped routes expect an x-user-id header forwarded by the
// gateway; authentication itself lives in the external account service.
//
// Routes:
//
//	GET    /subscriptions              → list the user's keyword subscriptions
//	POST   /subscriptions              → subscribe to a keyword
//	DELETE /subscriptions/{itemId}     → unsubscribe
//	GET    /keywords/top               → keyword popularity ranking
//	GET    /jobs/latest                → recent postings cache
//	GET    /notifications/history      → user's delivery history
//	GET    /notifications/types        → delivery channel catalog
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"jobwatch/notify-service/internal/model"
	"jobwatch/notify-service/internal/ranking"
	"jobwatch/notify-service/internal/store"
)

// Subscriptions covers the subscription operations the handler exposes.
type Subscriptions interface {
	Subscribe(ctx context.Context, userID int64, keyword string) (bool, model.SubscriptionItem, error)
	Unsubscribe(ctx context.Context, userID, itemID int64) error
	SubscriptionsFor(ctx context.Context, userID int64) ([]model.SubscriptionItem, error)
}

// Ranking serves the keyword popularity ranking.
type Ranking interface {
	TopN(ctx context.Context, limit int64) ([]model.KeywordCount, error)
}

// LatestSource serves the recent-postings cache.
type LatestSource interface {
	Latest(ctx context.Context) ([]model.JobPosting, error)
}

// HistorySource serves the delivery history and the channel catalog.
type HistorySource interface {
	HistoryFor(ctx context.Context, userID int64) ([]model.HistoryEntry, error)
	NotificationTypes(ctx context.Context) ([]model.NotificationType, error)
}

// Handler holds shared dependencies.
type Handler struct {
	subs    Subscriptions
	rank    Ranking
	ingest  LatestSource
	history HistorySource
}

// NewHandler returns a configured Handler.
func NewHandler(subs Subscriptions, rank Ranking, ing LatestSource, history HistorySource) *Handler {
	return &Handler{subs: subs, rank: rank, ingest: ing, history: history}
}

// RegisterRoutes mounts all notify-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/subscriptions", h.handleSubscriptions)
	mux.HandleFunc("/subscriptions/", h.handleUnsubscribe)
	mux.HandleFunc("/keywords/top", h.topKeywords)
	mux.HandleFunc("/jobs/latest", h.latestJobs)
	mux.HandleFunc("/notifications/history", h.notificationHistory)
	mux.HandleFunc("/notifications/types", h.notificationTypes)
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listSubscriptions(w, r)
	case http.MethodPost:
		h.subscribe(w, r)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// listSubscriptions returns the user's keyword subscriptions, including the
// item ids needed for DELETE /subscriptions/{itemId}.
func (h *Handler) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	items, err := h.subs.SubscriptionsFor(r.Context(), userID)
	if err != nil {
		log.Printf("[httpapi] listSubscriptions error: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	var body struct {
		Keyword string `json:"keyword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Keyword == "" {
		jsonError(w, "body must contain keyword", http.StatusBadRequest)
		return
	}

	created, item, err := h.subs.Subscribe(r.Context(), userID, body.Keyword)
	if errors.Is(err, store.ErrEmptyKeyword) {
		jsonError(w, "keyword is empty", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("[httpapi] subscribe error: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"created": created,
		"item":    item,
	})
}

func (h *Handler) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	// Parse /subscriptions/{itemId}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	itemID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		jsonError(w, "invalid subscription id", http.StatusBadRequest)
		return
	}

	err = h.subs.Unsubscribe(r.Context(), userID, itemID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "subscription not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[httpapi] unsubscribe error: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) topKeywords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := int64(10)
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 1 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = v
	}

	entries, err := h.rank.TopN(r.Context(), limit)
	if errors.Is(err, ranking.ErrCacheUnavailable) {
		jsonError(w, "ranking temporarily unavailable", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		log.Printf("[httpapi] topKeywords error: %v", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) latestJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobs, err := h.ingest.Latest(r.Context())
	if err != nil {
		log.Printf("[httpapi] latestJobs error: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *Handler) notificationHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	entries, err := h.history.HistoryFor(r.Context(), userID)
	if err != nil {
		log.Printf("[httpapi] history error: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) notificationTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	types, err := h.history.NotificationTypes(r.Context())
	if err != nil {
		log.Printf("[httpapi] notificationTypes error: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// userIDFrom extracts the x-user-id header. On failure it writes a 401 and
// returns ok=false.
func userIDFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get("x-user-id")
	if raw == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		jsonError(w, "invalid x-user-id header", http.StatusUnauthorized)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
