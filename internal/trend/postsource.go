package trend

import (
	"context"
	"time"

	"github.com/socialstocks/backend/internal/post"
)

// repositoryPostSource adapts a post repository into a PostSource.
type repositoryPostSource struct {
	repo post.PostRepository
}

// NewRepositoryPostSource wraps a post repository so the detection
// service can read recent analyzed posts from it.
func NewRepositoryPostSource(repo post.PostRepository) PostSource {
	return repositoryPostSource{repo: repo}
}

func (s repositoryPostSource) ListProcessedSince(_ context.Context, since time.Time, limit int) ([]RecentPost, error) {
	posts, err := s.repo.ListProcessedSince(since, limit)
	if err != nil {
		return nil, err
	}
	recent := make([]RecentPost, 0, len(posts))
	for _, p := range posts {
		recent = append(recent, RecentPost{
			ID:      p.ID,
			Content: p.Content,
			Tickers: p.Tickers,
		})
	}
	return recent, nil
}
