package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/socialstocks/backend/internal/market"
	"github.com/socialstocks/backend/internal/reputation"
	"github.com/socialstocks/backend/internal/validate"
)

// MarketHandlers holds dependencies for market data HTTP handlers.
type MarketHandlers struct {
	alignments  market.AlignmentStore
	snapshots   *market.SnapshotCache
	reputations reputation.Store
}

// NewMarketHandlers creates a new MarketHandlers instance. snapshots may
// be nil when no cache is configured.
func NewMarketHandlers(alignments market.AlignmentStore, snapshots *market.SnapshotCache, reputations reputation.Store) *MarketHandlers {
	return &MarketHandlers{
		alignments:  alignments,
		snapshots:   snapshots,
		reputations: reputations,
	}
}

// GetUserAccuracy handles GET /users/{id}/accuracy - aggregated prediction
// accuracy statistics for one author.
func (h *MarketHandlers) GetUserAccuracy(w http.ResponseWriter, r *http.Request) {
	userID := extractUserID(r)
	if userID == "" {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeBadRequest, "User ID is required")
		return
	}

	stats, err := market.UserAccuracyStats(r.Context(), h.alignments, userID)
	if err != nil {
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to compute accuracy stats")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, stats)
}

// GetUserReputation handles GET /users/{id}/reputation.
func (h *MarketHandlers) GetUserReputation(w http.ResponseWriter, r *http.Request) {
	userID := extractUserID(r)
	if userID == "" {
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

	writeJSON(w, r.Context(), http.StatusOK, rep)
}

// GetSnapshot handles GET /market/snapshot/{ticker} - cached market data
// for one ticker.
func (h *MarketHandlers) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeErrorCode(w, r, http.StatusNotFound, ErrCodeNotFound, "Market snapshots are not enabled")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/market/snapshot/")
	ticker, err := validate.Ticker(raw)
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeInvalidTicker, "Invalid ticker symbol")
		return
	}

	snapshot, err := h.snapshots.Get(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, market.ErrCacheMiss) {
			writeErrorCode(w, r, http.StatusNotFound, ErrCodeNotFound, "No snapshot cached for this ticker")
			return
		}
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to load snapshot")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, snapshot)
}

// batchSnapshotLimit caps one batch snapshot lookup.
const batchSnapshotLimit = 20

// BatchSnapshotsRequest is the request body for a batch snapshot lookup.
type BatchSnapshotsRequest struct {
	Tickers []string `json:"tickers"`
}

// BatchSnapshotsResponse maps each requested ticker to its snapshot, or
// null when none is cached.
type BatchSnapshotsResponse struct {
	Snapshots map[string]*market.Snapshot `json:"snapshots"`
}

// BatchSnapshots handles POST /market/batch - cached market data for up
// to 20 tickers at once.
func (h *MarketHandlers) BatchSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeErrorCode(w, r, http.StatusNotFound, ErrCodeNotFound, "Market snapshots are not enabled")
		return
	}

	var req BatchSnapshotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}
	if len(req.Tickers) == 0 {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation, "At least one ticker is required")
		return
	}
	if len(req.Tickers) > batchSnapshotLimit {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation, "Too many tickers: maximum is 20")
		return
	}

	result := BatchSnapshotsResponse{Snapshots: make(map[string]*market.Snapshot, len(req.Tickers))}
	for _, raw := range req.Tickers {
		ticker, err := validate.Ticker(raw)
		if err != nil {
			writeErrorCode(w, r, http.StatusBadRequest, ErrCodeInvalidTicker, "Invalid ticker symbol: "+raw)
			return
		}
		snapshot, err := h.snapshots.Get(r.Context(), ticker)
		if err != nil {
			if errors.Is(err, market.ErrCacheMiss) {
				result.Snapshots[ticker] = nil
				continue
			}
			writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to load snapshots")
			return
		}
		result.Snapshots[ticker] = &snapshot
	}

	writeJSON(w, r.Context(), http.StatusOK, result)
}
