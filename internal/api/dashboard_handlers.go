package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/socialstocks/backend/internal/market"
	"github.com/socialstocks/backend/internal/post"
	"github.com/socialstocks/backend/internal/trend"
)

// PostStatsSource provides aggregate post counts.
type PostStatsSource interface {
	Stats() (post.Stats, error)
}

// SectorSource reports the most discussed sector.
type SectorSource interface {
	TopSector(ctx context.Context) (string, error)
}

// AccuracySource reports platform-wide prediction accuracy.
type AccuracySource interface {
	AverageAccuracy() (float64, error)
}

// DashboardHandlers serves the aggregate views the frontend dashboard
// renders: system stats and trending tickers.
type DashboardHandlers struct {
	posts       PostStatsSource
	insights    SectorSource
	reputations AccuracySource
	trends      trend.Store
	snapshots   *market.SnapshotCache
}

// DashboardHandlersConfig carries dashboard dependencies. Trends and
// Snapshots are optional.
type DashboardHandlersConfig struct {
	Posts       PostStatsSource
	Insights    SectorSource
	Reputations AccuracySource
	Trends      trend.Store
	Snapshots   *market.SnapshotCache
}

// NewDashboardHandlers creates a new DashboardHandlers instance.
func NewDashboardHandlers(cfg DashboardHandlersConfig) *DashboardHandlers {
	return &DashboardHandlers{
		posts:       cfg.Posts,
		insights:    cfg.Insights,
		reputations: cfg.Reputations,
		trends:      cfg.Trends,
		snapshots:   cfg.Snapshots,
	}
}

// SystemStats is the aggregate platform view served to the dashboard.
type SystemStats struct {
	ActiveUsers       int     `json:"active_users"`
	TotalPosts        int     `json:"total_posts"`
	InsightsGenerated int     `json:"insights_generated"`
	AvgAccuracy       float64 `json:"avg_accuracy"`
	TopSector         string  `json:"top_sector"`
	ActiveTrends      int     `json:"active_trends"`
}

// GetStats handles GET /dashboard/stats.
func (h *DashboardHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.posts.Stats()
	if err != nil {
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to load post stats")
		return
	}

	result := SystemStats{
		ActiveUsers:       stats.ActiveUsers,
		TotalPosts:        stats.TotalPosts,
		InsightsGenerated: stats.ProcessedPosts,
	}

	if sector, err := h.insights.TopSector(r.Context()); err == nil {
		result.TopSector = sector
	}
	if avg, err := h.reputations.AverageAccuracy(); err == nil {
		result.AvgAccuracy = avg
	}
	if h.trends != nil {
		if active, err := h.trends.ListActive(r.Context(), "", "", 100); err == nil {
			result.ActiveTrends = len(active)
		}
	}

	writeJSON(w, r.Context(), http.StatusOK, result)
}

// TrendingTicker pairs an active market trend with its cached market
// snapshot when one exists.
type TrendingTicker struct {
	Ticker        string   `json:"ticker"`
	Confidence    float64  `json:"confidence"`
	Sentiment     string   `json:"sentiment,omitempty"`
	TimeWindow    string   `json:"time_window"`
	Price         *float64 `json:"price,omitempty"`
	ChangePercent *float64 `json:"change_percent,omitempty"`
	Volume        *int64   `json:"volume,omitempty"`
}

// GetTrending handles GET /dashboard/trending and GET /market/trending -
// active ticker trends enriched with cached market data.
func (h *DashboardHandlers) GetTrending(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), 10, 50)

	result := []TrendingTicker{}
	if h.trends == nil {
		writeJSON(w, r.Context(), http.StatusOK, result)
		return
	}

	active, err := h.trends.ListActive(r.Context(), trend.TypeMarket, "", limit)
	if err != nil {
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to load trends")
		return
	}

	for _, t := range active {
		if t.Ticker == "" {
			continue
		}
		item := TrendingTicker{
			Ticker:     t.Ticker,
			Confidence: t.Confidence,
			Sentiment:  t.SentimentDirection,
			TimeWindow: t.TimeWindow,
		}
		if h.snapshots != nil {
			snapshot, err := h.snapshots.Get(r.Context(), t.Ticker)
			if err == nil {
				item.Price = &snapshot.Price
				item.ChangePercent = &snapshot.ChangePercent
				item.Volume = &snapshot.Volume
			} else if !errors.Is(err, market.ErrCacheMiss) {
				writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to load snapshots")
				return
			}
		}
		result = append(result, item)
	}

	writeJSON(w, r.Context(), http.StatusOK, result)
}
