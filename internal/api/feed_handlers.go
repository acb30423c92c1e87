package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/socialstocks/backend/internal/feed"
	"github.com/socialstocks/backend/internal/post"
)

// FeedHandlers holds dependencies for ranked feed HTTP handlers.
type FeedHandlers struct {
	feed *feed.Service
}

// NewFeedHandlers creates a new FeedHandlers instance.
func NewFeedHandlers(svc *feed.Service) *FeedHandlers {
	return &FeedHandlers{feed: svc}
}

// GetFeed handles GET /feed - returns one page of the ranked feed.
//
// Query parameters:
//
//	strategy          ranking strategy name (default balanced)
//	limit             page size (default 20, max 100)
//	cursor_created_at RFC 3339 timestamp from the previous page's cursor
//	cursor_id         post ID from the previous page's cursor
func (h *FeedHandlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	strategy := query.Get("strategy")
	limit := parseLimit(query.Get("limit"), feed.DefaultLimit, feed.MaxLimit)

	cursor, err := parseFeedCursor(query.Get("cursor_created_at"), query.Get("cursor_id"))
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid feed cursor")
		return
	}

	page, err := h.feed.RankedFeed(r.Context(), strategy, limit, cursor)
	if err != nil {
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to build feed")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, page)
}

// GetBreakdown handles GET /posts/{id}/breakdown - returns the full scoring
// breakdown for one post under a strategy.
func (h *FeedHandlers) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	id, err := extractPostID(r)
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Post ID is required")
		return
	}

	strategy := r.URL.Query().Get("strategy")
	breakdown, err := h.feed.Transparency(r.Context(), id, strategy)
	if err != nil {
		if errors.Is(err, post.ErrPostNotFound) || errors.Is(err, post.ErrPostDeleted) {
			writePostLookupError(w, r, err)
			return
		}
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to compute breakdown")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, breakdown)
}

// parseFeedCursor builds a pagination cursor from query parameters. Both
// parts must be present for a cursor; neither present means the first page.
func parseFeedCursor(createdAt, id string) (*post.FeedCursor, error) {
	if createdAt == "" && id == "" {
		return nil, nil
	}
	if createdAt == "" || id == "" {
		return nil, errors.New("both cursor_created_at and cursor_id are required")
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, err
	}
	return &post.FeedCursor{CreatedAt: ts, ID: id}, nil
}
