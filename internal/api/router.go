package api

import (
	"net/http"
	"strings"
)

// RouterConfig holds the handler groups wired into the HTTP router.
type RouterConfig struct {
	Posts        *PostHandlers
	Feed         *FeedHandlers
	Trends       *TrendHandlers
	Market       *MarketHandlers
	Transparency *TransparencyHandlers
	Dashboard    *DashboardHandlers
	Health       *HealthHandlers
}

// NewRouter builds the API route table. Middleware is applied by the
// caller around the returned mux.
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/posts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r)
			return
		}
		cfg.Posts.CreatePost(w, r)
	})

	mux.HandleFunc("/posts/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/posts/")
		switch {
		case strings.HasSuffix(rest, "/engagement"):
			if r.Method != http.MethodPost {
				methodNotAllowed(w, r)
				return
			}
			cfg.Posts.AddEngagement(w, r)
		case strings.HasSuffix(rest, "/breakdown"):
			if r.Method != http.MethodGet {
				methodNotAllowed(w, r)
				return
			}
			cfg.Feed.GetBreakdown(w, r)
		case r.Method == http.MethodGet:
			cfg.Posts.GetPost(w, r)
		case r.Method == http.MethodDelete:
			cfg.Posts.DeletePost(w, r)
		default:
			methodNotAllowed(w, r)
		}
	})

	mux.HandleFunc("/feed", requireGet(cfg.Feed.GetFeed))

	mux.HandleFunc("/trends/market", requireGet(cfg.Trends.GetMarketTrends))
	mux.HandleFunc("/trends/community", requireGet(cfg.Trends.GetCommunityTrends))
	mux.HandleFunc("/trends/sectors", requireGet(cfg.Trends.GetSectorTrends))
	mux.HandleFunc("/trends/summary", requireGet(cfg.Trends.GetTrendSummary))
	mux.HandleFunc("/trends/tickers/", requireGet(cfg.Trends.GetTickerTrends))
	mux.HandleFunc("/trends/detect", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r)
			return
		}
		cfg.Trends.DetectTrends(w, r)
	})

	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/posts"):
			cfg.Posts.ListUserPosts(w, r)
		case strings.HasSuffix(r.URL.Path, "/reputation"):
			cfg.Market.GetUserReputation(w, r)
		case strings.HasSuffix(r.URL.Path, "/accuracy"):
			cfg.Market.GetUserAccuracy(w, r)
		default:
			notFound(w, r)
		}
	})

	mux.HandleFunc("/market/snapshot/", requireGet(cfg.Market.GetSnapshot))
	mux.HandleFunc("/market/batch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r)
			return
		}
		cfg.Market.BatchSnapshots(w, r)
	})
	mux.HandleFunc("/market/trending", requireGet(cfg.Dashboard.GetTrending))

	mux.HandleFunc("/transparency/post/", requireGet(cfg.Transparency.GetPostBreakdown))
	mux.HandleFunc("/transparency/user/", requireGet(cfg.Transparency.GetReputationBreakdown))
	mux.HandleFunc("/transparency/llm-audit/", requireGet(cfg.Transparency.GetAuditLog))
	mux.HandleFunc("/transparency/explain-ranking", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r)
			return
		}
		cfg.Transparency.ExplainRanking(w, r)
	})

	mux.HandleFunc("/dashboard/stats", requireGet(cfg.Dashboard.GetStats))
	mux.HandleFunc("/dashboard/trending", requireGet(cfg.Dashboard.GetTrending))

	mux.HandleFunc("/health", cfg.Health.Health)
	mux.HandleFunc("/ready", cfg.Health.Ready)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			notFound(w, r)
			return
		}
		writeJSON(w, r.Context(), http.StatusOK, map[string]string{
			"service": "socialstocks-api",
		})
	})

	return mux
}

func requireGet(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r)
			return
		}
		handler(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErrorCode(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeErrorCode(w, r, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
}
