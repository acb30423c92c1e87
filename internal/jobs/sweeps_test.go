package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/socialstocks/backend/internal/insight"
	"github.com/socialstocks/backend/internal/post"
)

type scriptedAnalyzer struct {
	failFor map[string]bool
	calls   int
}

func (a *scriptedAnalyzer) AnalyzePost(ctx context.Context, content string, tickers []string) (insight.Analysis, error) {
	a.calls++
	if a.failFor[content] {
		return insight.Analysis{}, errors.New("backend unavailable")
	}
	quality := 0.8
	return insight.Analysis{
		QualityScore: &quality,
		Sentiment:    "bullish",
		Summary:      "solid thesis",
	}, nil
}

func newSweepFixture(t *testing.T, analyzer insight.Analyzer) (*Sweeper, *post.InMemoryPostRepository) {
	t.Helper()
	posts := post.NewInMemoryPostRepository()
	processor := insight.NewProcessor(insight.ProcessorConfig{
		Posts:    posts,
		Insights: insight.NewInMemoryRepository(),
		Analyzer: analyzer,
		Logger:   slog.Default(),
	})
	sweeper := NewSweeper(SweeperConfig{
		Posts:     posts,
		Processor: processor,
		Metrics:   NewMetrics(),
		Logger:    slog.Default(),
		BatchSize: 10,
	})
	return sweeper, posts
}

func seedPost(t *testing.T, posts *post.InMemoryPostRepository, id, content string) {
	t.Helper()
	if err := posts.Create(&post.Post{
		ID:      id,
		UserID:  "user-1",
		Content: content,
		Tickers: []string{"NVDA"},
		Status:  post.StatusPending,
	}); err != nil {
		t.Fatalf("seed post: %v", err)
	}
}

func TestSweeperProcessPending(t *testing.T) {
	analyzer := &scriptedAnalyzer{failFor: map[string]bool{"bad post": true}}
	sweeper, posts := newSweepFixture(t, analyzer)

	seedPost(t, posts, "p1", "NVDA earnings look strong this quarter")
	seedPost(t, posts, "p2", "bad post")

	sweeper.ProcessPending(context.Background())

	if analyzer.calls != 2 {
		t.Fatalf("expected 2 analysis calls, got %d", analyzer.calls)
	}
	p1, err := posts.GetByID("p1")
	if err != nil {
		t.Fatalf("GetByID p1: %v", err)
	}
	if p1.Status != post.StatusProcessed {
		t.Errorf("expected p1 processed, got %q", p1.Status)
	}
	p2, err := posts.GetByID("p2")
	if err != nil {
		t.Fatalf("GetByID p2: %v", err)
	}
	if p2.Status != post.StatusFailed {
		t.Errorf("expected p2 failed, got %q", p2.Status)
	}
	if p2.RetryCount != 1 {
		t.Errorf("expected p2 retry count 1, got %d", p2.RetryCount)
	}

	pending, err := posts.ListByStatus(post.StatusPending, 10)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected empty pending backlog, got %d posts", len(pending))
	}
}

func TestSweeperRetryFailedRespectsBackoff(t *testing.T) {
	analyzer := &scriptedAnalyzer{failFor: map[string]bool{"bad post": true}}
	sweeper, posts := newSweepFixture(t, analyzer)

	seedPost(t, posts, "p1", "bad post")
	sweeper.ProcessPending(context.Background())

	// The post just failed, so the first backoff window has not
	// elapsed and the retry sweep must leave it alone.
	analyzer.failFor = nil
	sweeper.RetryFailed(context.Background())

	p1, err := posts.GetByID("p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if p1.Status != post.StatusFailed {
		t.Errorf("expected post still failed inside backoff, got %q", p1.Status)
	}
	if analyzer.calls != 1 {
		t.Errorf("expected no retry attempt inside backoff, got %d calls", analyzer.calls)
	}
}

func TestSweeperRetryFailedReprocesses(t *testing.T) {
	analyzer := &scriptedAnalyzer{failFor: map[string]bool{"bad post": true}}
	sweeper, posts := newSweepFixture(t, analyzer)

	seedPost(t, posts, "p1", "bad post")
	sweeper.ProcessPending(context.Background())

	// Advance the sweep clock past every backoff window, then heal
	// the backend.
	sweeper.now = func() time.Time { return time.Now().Add(time.Hour) }
	analyzer.failFor = nil

	sweeper.RetryFailed(context.Background())

	p1, err := posts.GetByID("p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if p1.Status != post.StatusProcessed {
		t.Errorf("expected post processed after retry, got %q", p1.Status)
	}
}

func TestSweeperSkipsExhaustedRetries(t *testing.T) {
	analyzer := &scriptedAnalyzer{failFor: map[string]bool{"bad post": true}}
	sweeper, posts := newSweepFixture(t, analyzer)

	seedPost(t, posts, "p1", "bad post")
	sweeper.now = func() time.Time { return time.Now().Add(time.Hour) }

	sweeper.ProcessPending(context.Background())
	for i := 0; i < insight.MaxRetries-1; i++ {
		sweeper.RetryFailed(context.Background())
	}
	if analyzer.calls != insight.MaxRetries {
		t.Fatalf("expected %d attempts, got %d", insight.MaxRetries, analyzer.calls)
	}

	sweeper.RetryFailed(context.Background())
	if analyzer.calls != insight.MaxRetries {
		t.Errorf("expected no attempts past the retry ceiling, got %d",
			analyzer.calls)
	}
}

func TestRetryDelay(t *testing.T) {
	cases := []struct {
		retryCount int
		want       time.Duration
	}{
		{0, 10 * time.Second},
		{1, 10 * time.Second},
		{2, time.Minute},
		{3, 5 * time.Minute},
		{9, 5 * time.Minute},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("count_%d", tc.retryCount), func(t *testing.T) {
			if got := retryDelay(tc.retryCount); got != tc.want {
				t.Errorf("retryDelay(%d) = %v, want %v", tc.retryCount, got, tc.want)
			}
		})
	}
}

func TestMetricsTrack(t *testing.T) {
	m := NewMetrics()

	if err := m.Track(JobTypeTrendDetection, func() error { return nil }); err != nil {
		t.Errorf("expected nil error from successful job, got %v", err)
	}

	wantErr := errors.New("detection backend down")
	if err := m.Track(JobTypeTrendDetection, func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped job error, got %v", err)
	}
}
