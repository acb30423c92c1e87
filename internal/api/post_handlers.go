package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/socialstocks/backend/internal/middleware"
	"github.com/socialstocks/backend/internal/post"
	"github.com/socialstocks/backend/internal/validate"
)

// MaxTickersPerPost bounds how many symbols one post may tag.
const MaxTickersPerPost = 10

// CreatePostRequest represents the request body for creating a post.
type CreatePostRequest struct {
	Content string   `json:"content"`
	Tickers []string `json:"tickers,omitempty"`
}

// EngagementRequest represents the request body for recording engagement.
type EngagementRequest struct {
	Type string `json:"type"`
}

// PostHandlers holds dependencies for post HTTP handlers.
type PostHandlers struct {
	repo post.PostRepository
}

// NewPostHandlers creates a new PostHandlers instance.
func NewPostHandlers(repo post.PostRepository) *PostHandlers {
	return &PostHandlers{repo: repo}
}

// extractPostID extracts the post ID from the URL path.
func extractPostID(r *http.Request) (string, error) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/posts/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		return "", fmt.Errorf("post ID is required")
	}
	return pathParts[0], nil
}

// CreatePost handles POST /posts - creates a new post pending analysis.
func (h *PostHandlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeErrorCode(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	content, err := validate.PostContent(req.Content)
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation, "Post content is required and must not exceed 5000 characters")
		return
	}

	if len(req.Tickers) > MaxTickersPerPost {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation,
			fmt.Sprintf("Maximum %d tickers allowed", MaxTickersPerPost))
		return
	}
	tickers, err := validate.Tickers(req.Tickers)
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeInvalidTicker, err.Error())
		return
	}

	p := &post.Post{
		UserID:  userID,
		Content: content,
		Tickers: tickers,
		Status:  post.StatusPending,
	}
	if err := h.repo.Create(p); err != nil {
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to create post")
		return
	}

	writeJSON(w, r.Context(), http.StatusCreated, p)
}

// GetPost handles GET /posts/{id}.
func (h *PostHandlers) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := extractPostID(r)
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Post ID is required")
		return
	}

	p, err := h.repo.GetByID(id)
	if err != nil {
		writePostLookupError(w, r, err)
		return
	}

	// Reads count as views. Best effort, the fetch already succeeded.
	if err := h.repo.AddEngagement(id, post.EngagementView); err == nil {
		p.ViewCount++
	}

	writeJSON(w, r.Context(), http.StatusOK, p)
}

// DeletePost handles DELETE /posts/{id} - soft-deletes the caller's post.
func (h *PostHandlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeErrorCode(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	id, err := extractPostID(r)
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Post ID is required")
		return
	}

	p, err := h.repo.GetByID(id)
	if err != nil {
		writePostLookupError(w, r, err)
		return
	}
	if p.UserID != userID {
		writeErrorCode(w, r, http.StatusForbidden, ErrCodeForbidden, "Only the author can delete a post")
		return
	}

	if err := h.repo.Delete(id); err != nil {
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to delete post")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddEngagement handles POST /posts/{id}/engagement.
func (h *PostHandlers) AddEngagement(w http.ResponseWriter, r *http.Request) {
	id, err := extractPostID(r)
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Post ID is required")
		return
	}

	var req EngagementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if err := h.repo.AddEngagement(id, req.Type); err != nil {
		switch {
		case errors.Is(err, post.ErrInvalidEngagement):
			writeErrorCode(w, r, http.StatusBadRequest, ErrCodeInvalidEngagement,
				"Engagement type must be one of like, dislike, comment, view")
		case errors.Is(err, post.ErrPostNotFound), errors.Is(err, post.ErrPostDeleted):
			writePostLookupError(w, r, err)
		default:
			writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to record engagement")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListUserPosts handles GET /users/{id}/posts.
func (h *PostHandlers) ListUserPosts(w http.ResponseWriter, r *http.Request) {
	userID := extractUserID(r)
	if userID == "" {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeBadRequest, "User ID is required")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"), 20, 100)
	posts, err := h.repo.ListByUser(userID, limit)
	if err != nil {
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to list posts")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, map[string]any{"posts": posts})
}

// writePostLookupError maps post repository errors to API responses.
func writePostLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, post.ErrPostDeleted):
		writeErrorCode(w, r, http.StatusGone, ErrCodePostDeleted, "Post has been deleted")
	case errors.Is(err, post.ErrPostNotFound):
		writeErrorCode(w, r, http.StatusNotFound, ErrCodeNotFound, "Post not found")
	default:
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to load post")
	}
}

// extractUserID extracts the user ID from /users/{id}/... paths.
func extractUserID(r *http.Request) string {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/users/"), "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// parseLimit parses a limit query parameter with default and maximum.
func parseLimit(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
