package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/socialstocks/backend/internal/trend"
	"github.com/socialstocks/backend/internal/validate"
)

// TrendHandlers holds dependencies for trend HTTP handlers.
type TrendHandlers struct {
	store    trend.Store
	detector *trend.Service
}

// NewTrendHandlers creates a new TrendHandlers instance. detector may be
// nil when on-demand detection is not exposed.
func NewTrendHandlers(store trend.Store, detector *trend.Service) *TrendHandlers {
	return &TrendHandlers{store: store, detector: detector}
}

// DetectTrendsRequest represents the request body for on-demand detection.
type DetectTrendsRequest struct {
	TimeWindow string `json:"time_window,omitempty"`
	MinPosts   int    `json:"min_posts,omitempty"`
}

// listTrends serves active trends of one type with window and limit filters.
func (h *TrendHandlers) listTrends(w http.ResponseWriter, r *http.Request, trendType string) {
	query := r.URL.Query()
	window := query.Get("window")
	if window != "" {
		window, _ = trend.ParseWindow(window)
	}
	limit := parseLimit(query.Get("limit"), 10, 50)

	trends, err := h.store.ListActive(r.Context(), trendType, window, limit)
	if err != nil {
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to list trends")
		return
	}
	if trends == nil {
		trends = []trend.Trend{}
	}

	writeJSON(w, r.Context(), http.StatusOK, map[string]any{"trends": trends})
}

// GetMarketTrends handles GET /trends/market.
func (h *TrendHandlers) GetMarketTrends(w http.ResponseWriter, r *http.Request) {
	h.listTrends(w, r, trend.TypeMarket)
}

// GetCommunityTrends handles GET /trends/community.
func (h *TrendHandlers) GetCommunityTrends(w http.ResponseWriter, r *http.Request) {
	h.listTrends(w, r, trend.TypeCommunity)
}

// GetSectorTrends handles GET /trends/sectors.
func (h *TrendHandlers) GetSectorTrends(w http.ResponseWriter, r *http.Request) {
	h.listTrends(w, r, trend.TypeSector)
}

// GetTickerTrends handles GET /trends/tickers/{ticker}.
func (h *TrendHandlers) GetTickerTrends(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/trends/tickers/")
	ticker, err := validate.Ticker(raw)
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeInvalidTicker, "Invalid ticker symbol")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"), 10, 50)
	trends, err := h.store.ListByTicker(r.Context(), ticker, limit)
	if err != nil {
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to list trends")
		return
	}
	if trends == nil {
		trends = []trend.Trend{}
	}

	writeJSON(w, r.Context(), http.StatusOK, map[string]any{
		"ticker": ticker,
		"trends": trends,
	})
}

// GetTrendSummary handles GET /trends/summary - aggregates active trends
// across all types for dashboard display.
func (h *TrendHandlers) GetTrendSummary(w http.ResponseWriter, r *http.Request) {
	trends, err := h.store.ListActive(r.Context(), "", "", 0)
	if err != nil {
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to load trends")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, trend.ComputeSummary(trends))
}

// DetectTrends handles POST /trends/detect - runs detection on demand.
func (h *TrendHandlers) DetectTrends(w http.ResponseWriter, r *http.Request) {
	if h.detector == nil {
		writeErrorCode(w, r, http.StatusNotFound, ErrCodeNotFound, "Trend detection is not enabled")
		return
	}

	var req DetectTrendsRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorCode(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
			return
		}
	}

	result, err := h.detector.DetectNow(r.Context(), req.TimeWindow, req.MinPosts)
	if err != nil {
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Trend detection failed")
		return
	}
	if result.Created == nil {
		result.Created = []trend.Trend{}
	}

	writeJSON(w, r.Context(), http.StatusOK, result)
}
