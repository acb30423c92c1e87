package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/socialstocks/backend/internal/insight"
	"github.com/socialstocks/backend/internal/post"
	"github.com/socialstocks/backend/internal/ranking"
	"github.com/socialstocks/backend/internal/reputation"
)

// Feed page size bounds.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// TrendingSource reports which tickers currently have active market
// trends.
type TrendingSource interface {
	TrendingTickers(ctx context.Context) (map[string]bool, error)
}

// Service builds ranked feeds. It enriches recent posts with their stored
// analyses, author reputation and trending state, then hands the batch to
// the ranking engine.
type Service struct {
	posts       post.PostRepository
	insights    insight.Repository
	reputations reputation.Store
	trends      TrendingSource
	table       ranking.Table
	logger      *slog.Logger
}

// Config holds the dependencies for a feed service. Trends is optional;
// without it no post gets the trending bonus.
type Config struct {
	Posts       post.PostRepository
	Insights    insight.Repository
	Reputations reputation.Store
	Trends      TrendingSource
	Table       ranking.Table
	Logger      *slog.Logger
}

// NewService creates a feed service.
func NewService(cfg Config) *Service {
	if cfg.Table == nil {
		cfg.Table = ranking.DefaultTable()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		posts:       cfg.Posts,
		insights:    cfg.Insights,
		reputations: cfg.Reputations,
		trends:      cfg.Trends,
		table:       cfg.Table,
		logger:      cfg.Logger,
	}
}

// Item is one entry of a ranked feed: the post, its analysis if any, and
// the ranking breakdown.
type Item struct {
	Post        *post.Post       `json:"post"`
	Insight     *insight.Insight `json:"insight,omitempty"`
	Signals     ranking.Signals  `json:"signals"`
	FinalScore  float64          `json:"final_score"`
	Explanation string           `json:"explanation"`
}

// Page is one page of a ranked feed. NextCursor is nil on the last page.
type Page struct {
	Strategy   string           `json:"strategy"`
	Items      []Item           `json:"items"`
	NextCursor *post.FeedCursor `json:"next_cursor,omitempty"`
}

// RankedFeed returns one page of posts ranked under the named strategy.
// Pagination walks posts in recency order; each page is ranked
// independently.
func (s *Service) RankedFeed(ctx context.Context, strategy string, limit int, cursor *post.FeedCursor) (Page, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	resolved := ranking.ParseStrategy(strategy)
	ranker := s.table.Ranker(resolved)
	page := Page{Strategy: resolved.String()}

	posts, next, err := s.posts.ListRecent(limit, cursor)
	if err != nil {
		return page, fmt.Errorf("failed to list posts: %w", err)
	}
	if len(posts) == 0 {
		page.Items = []Item{}
		return page, nil
	}
	page.NextCursor = next

	records, byID, insights := s.enrich(ctx, posts)
	scored := ranker.RankPosts(records, nil)

	items := make([]Item, 0, len(scored))
	for _, sc := range scored {
		items = append(items, Item{
			Post:        byID[sc.ID],
			Insight:     insights[sc.ID],
			Signals:     sc.Signals,
			FinalScore:  sc.FinalScore,
			Explanation: ranker.ExplainRanking(sc),
		})
	}
	page.Items = items
	return page, nil
}

// enrich builds engine records for a batch of posts, collecting the side
// lookups a single time per batch. Lookup failures degrade to neutral
// defaults rather than failing the feed.
func (s *Service) enrich(ctx context.Context, posts []*post.Post) ([]ranking.Record, map[string]*post.Post, map[string]*insight.Insight) {
	ids := make([]string, len(posts))
	byID := make(map[string]*post.Post, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	insights := make(map[string]*insight.Insight)
	if s.insights != nil {
		found, err := s.insights.GetByPosts(ctx, ids)
		if err != nil {
			s.logger.Warn("failed to load insights for feed", "error", err)
		} else {
			insights = found
		}
	}

	reputations := make(map[string]*reputation.Reputation)
	if s.reputations != nil {
		for _, p := range posts {
			if _, ok := reputations[p.UserID]; ok {
				continue
			}
			rep, err := s.reputations.Get(p.UserID)
			if err != nil {
				s.logger.Warn("failed to load reputation for feed", "user_id", p.UserID, "error", err)
				continue
			}
			reputations[p.UserID] = rep
		}
	}

	trending := map[string]bool{}
	if s.trends != nil {
		active, err := s.trends.TrendingTickers(ctx)
		if err != nil {
			s.logger.Warn("failed to load trending tickers for feed", "error", err)
		} else {
			trending = active
		}
	}

	records := make([]ranking.Record, len(posts))
	for i, p := range posts {
		records[i] = BuildRecord(p, insights[p.ID], reputations[p.UserID], trending)
	}
	return records, byID, insights
}
