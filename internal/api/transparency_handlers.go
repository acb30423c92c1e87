package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/socialstocks/backend/internal/feed"
	"github.com/socialstocks/backend/internal/insight"
	"github.com/socialstocks/backend/internal/post"
	"github.com/socialstocks/backend/internal/reputation"
)

// AuditReader lists stored analysis audit entries for a post.
type AuditReader interface {
	ListByPost(ctx context.Context, postID string, limit int) ([]insight.AuditEntry, error)
}

// TransparencyHandlers exposes the scoring internals: per-post ranking
// breakdowns, reputation composition, feed explanations and analysis
// audit logs.
type TransparencyHandlers struct {
	feed        *feed.Service
	reputations reputation.Store
	audits      AuditReader
}

// NewTransparencyHandlers creates a new TransparencyHandlers instance.
// audits may be nil when the audit log is not exposed.
func NewTransparencyHandlers(svc *feed.Service, reputations reputation.Store, audits AuditReader) *TransparencyHandlers {
	return &TransparencyHandlers{
		feed:        svc,
		reputations: reputations,
		audits:      audits,
	}
}

// GetPostBreakdown handles GET /transparency/post/{id} - the full scoring
// breakdown for one post.
func (h *TransparencyHandlers) GetPostBreakdown(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r, "/transparency/post/")
	if id == "" {
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

// ReputationComponent is one weighted input to a user's overall score.
type ReputationComponent struct {
	Contribution float64 `json:"contribution"`
	Score        float64 `json:"score"`
	Description  string  `json:"description"`
}

// ReputationBreakdown decomposes a user's reputation into its weighted
// components.
type ReputationBreakdown struct {
	UserID       string                         `json:"user_id"`
	OverallScore float64                        `json:"overall_score"`
	Components   map[string]ReputationComponent `json:"components"`
	UpdatedAt    time.Time                      `json:"updated_at"`
}

// GetReputationBreakdown handles GET /transparency/user/{id}/reputation -
// how a user's reputation is composed.
func (h *TransparencyHandlers) GetReputationBreakdown(w http.ResponseWriter, r *http.Request) {
	rest := pathTail(r, "/transparency/user/")
	userID := strings.TrimSuffix(rest, "/reputation")
	if userID == "" || userID == rest {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeBadRequest, "User ID is required")
		return
	}

	rep, err := h.reputations.Get(userID)
	if err != nil {
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to load reputation")
		return
	}
	if rep == nil {
		writeErrorCode(w, r, http.StatusNotFound, ErrCodeNotFound, "No reputation recorded for this user")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, ReputationBreakdown{
		UserID:       rep.UserID,
		OverallScore: rep.OverallScore,
		Components: map[string]ReputationComponent{
			"quality": {
				Contribution: 0.4,
				Score:        rep.OverallScore,
				Description:  "Based on quality assessments of posts",
			},
			"historical_accuracy": {
				Contribution: 0.3,
				Score:        rep.HistoricalAccuracy,
				Description:  "Based on how well predictions aligned with market movements",
			},
			"engagement": {
				Contribution: 0.2,
				Score:        rep.EngagementScore,
				Description:  "Based on community interactions (likes, comments)",
			},
			"consistency": {
				Contribution: 0.1,
				Score:        rep.ConsistencyScore,
				Description:  "Based on posting frequency and regularity",
			},
		},
		UpdatedAt: rep.UpdatedAt,
	})
}

// ExplainRanking handles POST /transparency/explain-ranking - worked
// examples of how the current feed is ranked.
func (h *TransparencyHandlers) ExplainRanking(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	strategy := query.Get("strategy")
	limit := parseLimit(query.Get("limit"), 5, 20)

	explanation, err := h.feed.ExplainRanking(r.Context(), strategy, limit)
	if err != nil {
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to explain ranking")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, explanation)
}

// AuditLogEntry is one analysis attempt with the raw model payloads
// reduced to summaries.
type AuditLogEntry struct {
	ID            int64             `json:"id,omitempty"`
	TaskType      string            `json:"task_type"`
	Model         string            `json:"model,omitempty"`
	LatencyMS     int64             `json:"latency_ms"`
	Error         string            `json:"error,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	InputSummary  auditInputSummary `json:"input_summary"`
	OutputPresent bool              `json:"output_present"`
}

type auditInputSummary struct {
	ContentLength int      `json:"content_length"`
	Tickers       []string `json:"tickers"`
}

// GetAuditLog handles GET /transparency/llm-audit/{id} - the analysis
// audit trail for one post.
func (h *TransparencyHandlers) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	if h.audits == nil {
		writeErrorCode(w, r, http.StatusNotFound, ErrCodeNotFound, "Audit logs are not enabled")
		return
	}

	postID := pathTail(r, "/transparency/llm-audit/")
	if postID == "" {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Post ID is required")
		return
	}

	entries, err := h.audits.ListByPost(r.Context(), postID, 50)
	if err != nil {
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to load audit log")
		return
	}

	result := make([]AuditLogEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, AuditLogEntry{
			ID:            e.ID,
			TaskType:      e.TaskType,
			Model:         e.Model,
			LatencyMS:     e.LatencyMS,
			Error:         e.Error,
			CreatedAt:     e.CreatedAt,
			InputSummary:  summarizeInput(e.Input),
			OutputPresent: len(e.Output) > 0,
		})
	}

	writeJSON(w, r.Context(), http.StatusOK, result)
}

// summarizeInput reduces a recorded model input to its shape, keeping the
// post content itself out of the response.
func summarizeInput(raw json.RawMessage) auditInputSummary {
	var input struct {
		Content string   `json:"content"`
		Tickers []string `json:"tickers"`
	}
	summary := auditInputSummary{Tickers: []string{}}
	if len(raw) == 0 {
		return summary
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return summary
	}
	summary.ContentLength = len(input.Content)
	if input.Tickers != nil {
		summary.Tickers = input.Tickers
	}
	return summary
}

// pathTail returns the path portion after a prefix, stripped of any
// trailing slash.
func pathTail(r *http.Request, prefix string) string {
	return strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
}
