package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/socialstocks/backend/internal/insight"
	"github.com/socialstocks/backend/internal/post"
	"github.com/socialstocks/backend/internal/reputation"
	"github.com/socialstocks/backend/internal/trend"
)

func newDashboardFixture(t *testing.T) *DashboardHandlers {
	t.Helper()

	posts := post.NewInMemoryPostRepository()
	insights := insight.NewInMemoryRepository()
	reputations := reputation.NewInMemoryStore()
	trends := trend.NewInMemoryStore()

	for i, seed := range []struct {
		userID string
		status string
		sector string
	}{
		{"user-1", post.StatusProcessed, "Technology"},
		{"user-1", post.StatusProcessed, "Technology"},
		{"user-2", post.StatusProcessed, "Energy"},
		{"user-3", post.StatusPending, ""},
	} {
		p := &post.Post{
			UserID:  seed.userID,
			Content: "post content",
			Status:  seed.status,
		}
		if err := posts.Create(p); err != nil {
			t.Fatalf("failed to seed post %d: %v", i, err)
		}
		if seed.sector != "" {
			if err := insights.Save(context.Background(), insight.Insight{
				PostID: p.ID,
				Sector: seed.sector,
			}); err != nil {
				t.Fatalf("failed to seed insight %d: %v", i, err)
			}
		}
	}

	for userID, accuracy := range map[string]float64{"user-1": 0.75, "user-2": 0.5} {
		if err := reputations.Save(reputation.Reputation{
			UserID:             userID,
			HistoricalAccuracy: accuracy,
		}); err != nil {
			t.Fatalf("failed to seed reputation: %v", err)
		}
	}

	for _, tr := range []trend.Trend{
		{TrendType: trend.TypeMarket, Ticker: "NVDA", Confidence: 0.9, SentimentDirection: "bullish", TimeWindow: "24h", ExpiresAt: time.Now().Add(time.Hour)},
		{TrendType: trend.TypeMarket, Ticker: "TSLA", Confidence: 0.6, SentimentDirection: "bearish", TimeWindow: "4h", ExpiresAt: time.Now().Add(time.Hour)},
		{TrendType: trend.TypeCommunity, Description: "options flow chatter", Confidence: 0.7, TimeWindow: "24h", ExpiresAt: time.Now().Add(time.Hour)},
		{TrendType: trend.TypeMarket, Ticker: "AMD", Confidence: 0.95, TimeWindow: "24h", ExpiresAt: time.Now().Add(-time.Hour)},
	} {
		if err := trends.Save(context.Background(), tr); err != nil {
			t.Fatalf("failed to seed trend: %v", err)
		}
	}

	return NewDashboardHandlers(DashboardHandlersConfig{
		Posts:       posts,
		Insights:    insights,
		Reputations: reputations,
		Trends:      trends,
	})
}

func TestGetStats_Success(t *testing.T) {
	handlers := newDashboardFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)
	w := httptest.NewRecorder()

	handlers.GetStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var stats SystemStats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stats.ActiveUsers != 3 {
		t.Errorf("expected 3 active users, got %d", stats.ActiveUsers)
	}
	if stats.TotalPosts != 4 {
		t.Errorf("expected 4 total posts, got %d", stats.TotalPosts)
	}
	if stats.InsightsGenerated != 3 {
		t.Errorf("expected 3 insights generated, got %d", stats.InsightsGenerated)
	}
	if stats.TopSector != "Technology" {
		t.Errorf("expected top sector Technology, got %q", stats.TopSector)
	}
	if stats.AvgAccuracy != 0.625 {
		t.Errorf("expected average accuracy 0.625, got %f", stats.AvgAccuracy)
	}
	// Expired trends do not count.
	if stats.ActiveTrends != 3 {
		t.Errorf("expected 3 active trends, got %d", stats.ActiveTrends)
	}
}

func TestGetTrending_Success(t *testing.T) {
	handlers := newDashboardFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/trending", nil)
	w := httptest.NewRecorder()

	handlers.GetTrending(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var trending []TrendingTicker
	if err := json.NewDecoder(w.Body).Decode(&trending); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(trending) != 2 {
		t.Fatalf("expected 2 trending tickers, got %d", len(trending))
	}
	// Highest confidence first; community trends and expired trends are
	// excluded.
	if trending[0].Ticker != "NVDA" || trending[1].Ticker != "TSLA" {
		t.Errorf("unexpected ticker order: %q, %q", trending[0].Ticker, trending[1].Ticker)
	}
	if trending[0].Sentiment != "bullish" {
		t.Errorf("expected bullish sentiment, got %q", trending[0].Sentiment)
	}
	if trending[0].Price != nil {
		t.Error("expected no price data without a snapshot cache")
	}
}

func TestGetTrending_NoTrendStore(t *testing.T) {
	handlers := NewDashboardHandlers(DashboardHandlersConfig{
		Posts:       post.NewInMemoryPostRepository(),
		Insights:    insight.NewInMemoryRepository(),
		Reputations: reputation.NewInMemoryStore(),
	})

	req := httptest.NewRequest(http.MethodGet, "/market/trending", nil)
	w := httptest.NewRecorder()

	handlers.GetTrending(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != "[]" {
		t.Errorf("expected empty list, got %q", body)
	}
}
