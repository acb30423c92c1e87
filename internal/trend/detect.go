package trend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DetectedTrend is one pattern returned by a detection backend before it
// is stored.
type DetectedTrend struct {
	TrendType          string   `json:"trend_type,omitempty"`
	Description        string   `json:"description"`
	Confidence         float64  `json:"confidence"`
	SentimentDirection string   `json:"sentiment_direction,omitempty"`
	Sector             string   `json:"sector,omitempty"`
	KeyThemes          []string `json:"key_themes,omitempty"`
	SupportingTickers  []string `json:"supporting_tickers,omitempty"`
}

// Detector identifies emerging patterns across a block of recent post
// content. Implementations wrap whichever model backend serves the
// deployment.
type Detector interface {
	DetectTrends(ctx context.Context, combinedContext string, tickers []string) ([]DetectedTrend, error)
}

// RecentPost is the slice of a post that trend detection needs.
type RecentPost struct {
	ID      string
	Content string
	Tickers []string
}

// PostSource lists recently processed posts for analysis.
type PostSource interface {
	ListProcessedSince(ctx context.Context, since time.Time, limit int) ([]RecentPost, error)
}

// Detection batch limits. Post content is truncated and the batch capped
// to keep the analysis context bounded.
const (
	DefaultMinPosts    = 5
	maxPostsAnalyzed   = 100
	maxPostsInContext  = 50
	maxContentLength   = 500
	maxSupportingPosts = 10
)

// DetectionResult summarizes one detection run.
type DetectionResult struct {
	AnalyzedPosts int     `json:"analyzed_posts"`
	Created       []Trend `json:"trends"`
	TimeWindow    string  `json:"time_window"`
}

// Service runs trend detection over recent posts and stores the results.
type Service struct {
	posts    PostSource
	detector Detector
	store    Store
	logger   *slog.Logger
}

// NewService creates a trend detection service.
func NewService(posts PostSource, detector Detector, store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		posts:    posts,
		detector: detector,
		store:    store,
		logger:   logger,
	}
}

// DetectNow analyzes posts from the given window and stores any detected
// trends. Trends expire after twice the analysis window. Too few posts is
// not an error; the result simply carries no trends.
func (s *Service) DetectNow(ctx context.Context, window string, minPosts int) (DetectionResult, error) {
	if minPosts <= 0 {
		minPosts = DefaultMinPosts
	}
	window, span := ParseWindow(window)
	result := DetectionResult{TimeWindow: window}

	posts, err := s.posts.ListProcessedSince(ctx, time.Now().UTC().Add(-span), maxPostsAnalyzed)
	if err != nil {
		return result, fmt.Errorf("failed to list recent posts: %w", err)
	}
	result.AnalyzedPosts = len(posts)

	if len(posts) < minPosts {
		s.logger.Info("not enough posts for trend detection",
			"window", window,
			"post_count", len(posts),
			"min_posts", minPosts)
		return result, nil
	}

	var contents []string
	var postIDs []string
	tickerSet := make(map[string]struct{})
	for i, p := range posts {
		if i >= maxPostsInContext {
			break
		}
		content := p.Content
		if len(content) > maxContentLength {
			content = content[:maxContentLength]
		}
		contents = append(contents, content)
		postIDs = append(postIDs, p.ID)
		for _, ticker := range p.Tickers {
			tickerSet[ticker] = struct{}{}
		}
	}

	tickers := make([]string, 0, len(tickerSet))
	for ticker := range tickerSet {
		tickers = append(tickers, ticker)
	}

	combined := fmt.Sprintf("Recent posts from the last %s:\n\n%s",
		window, strings.Join(contents, "\n---\n"))

	detected, err := s.detector.DetectTrends(ctx, combined, tickers)
	if err != nil {
		return result, fmt.Errorf("trend detection failed: %w", err)
	}

	supporting := postIDs
	if len(supporting) > maxSupportingPosts {
		supporting = supporting[:maxSupportingPosts]
	}

	expiresAt := time.Now().UTC().Add(2 * span)
	for _, d := range detected {
		trendType := d.TrendType
		if trendType == "" {
			trendType = TypeCommunity
		}
		var primaryTicker string
		if len(d.SupportingTickers) > 0 {
			primaryTicker = d.SupportingTickers[0]
		}

		t := Trend{
			ID:                 NewTrendID(),
			TrendType:          trendType,
			Ticker:             primaryTicker,
			Sector:             d.Sector,
			Description:        d.Description,
			Confidence:         d.Confidence,
			SentimentDirection: d.SentimentDirection,
			TimeWindow:         window,
			KeyThemes:          d.KeyThemes,
			SupportingPostIDs:  supporting,
			CreatedAt:          time.Now().UTC(),
			ExpiresAt:          expiresAt,
		}
		if err := s.store.Save(ctx, t); err != nil {
			return result, fmt.Errorf("failed to save trend: %w", err)
		}
		result.Created = append(result.Created, t)
	}

	s.logger.Info("trend detection completed",
		"window", window,
		"analyzed_posts", result.AnalyzedPosts,
		"trends_created", len(result.Created))
	return result, nil
}

// TrendingTickers returns the set of tickers attached to active market
// trends, for feed ranking's trending bonus.
func (s *Service) TrendingTickers(ctx context.Context) (map[string]bool, error) {
	trends, err := s.store.ListActive(ctx, TypeMarket, "", 0)
	if err != nil {
		return nil, err
	}
	trending := make(map[string]bool)
	for _, t := range trends {
		if t.Ticker != "" {
			trending[strings.ToUpper(t.Ticker)] = true
		}
	}
	return trending, nil
}
