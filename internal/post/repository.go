package post

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	// Create inserts a new post with a generated UUID and pending status.
	Create(post *Post) error

	// Update updates an existing post.
	Update(post *Post) error

	// Delete soft-deletes a post by setting deleted_at timestamp.
	Delete(id string) error

	// GetByID retrieves a post by its UUID, excluding soft-deleted posts.
	GetByID(id string) (*Post, error)

	// ListByUser retrieves a user's posts, newest first.
	ListByUser(userID string, limit int) ([]*Post, error)

	// ListRecent retrieves posts with cursor-based pagination, ordered by
	// created_at DESC with id ASC as tie-breaker. Soft-deleted posts are
	// excluded. A nil cursor starts from the most recent post. Returns
	// posts, the next cursor (nil when exhausted), and error.
	ListRecent(limit int, cursor *FeedCursor) ([]*Post, *FeedCursor, error)

	// ListByStatus retrieves posts in a given analysis state, oldest
	// first, so sweeps drain the backlog in submission order.
	ListByStatus(status string, limit int) ([]*Post, error)

	// ListFailedRetryable retrieves failed posts whose retry count is
	// below maxRetries, oldest first.
	ListFailedRetryable(maxRetries, limit int) ([]*Post, error)

	// ListProcessedSince retrieves analyzed posts created after a point
	// in time, newest first.
	ListProcessedSince(since time.Time, limit int) ([]*Post, error)

	// SetStatus transitions a post's analysis state.
	SetStatus(id, status string) error

	// SetModeration records the moderation outcome on a post.
	SetModeration(id, status string, flags []string) error

	// AddEngagement increments the counter for one engagement type.
	AddEngagement(id, kind string) error
}

// InMemoryPostRepository is an in-memory implementation of PostRepository.
// Thread-safe via RWMutex.
type InMemoryPostRepository struct {
	mu    sync.RWMutex
	posts map[string]*Post
}

// NewInMemoryPostRepository creates a new in-memory post repository.
func NewInMemoryPostRepository() *InMemoryPostRepository {
	return &InMemoryPostRepository{
		posts: make(map[string]*Post),
	}
}

// Create inserts a new post with a generated UUID.
func (r *InMemoryPostRepository) Create(post *Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.Status == "" {
		post.Status = StatusPending
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	stored := *post
	r.posts[post.ID] = &stored
	return nil
}

// Update updates an existing post.
func (r *InMemoryPostRepository) Update(post *Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.posts[post.ID]
	if !ok {
		return ErrPostNotFound
	}
	if existing.DeletedAt != nil {
		return ErrPostDeleted
	}

	post.CreatedAt = existing.CreatedAt
	post.UpdatedAt = time.Now()
	stored := *post
	r.posts[post.ID] = &stored
	return nil
}

// Delete soft-deletes a post.
func (r *InMemoryPostRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return ErrPostNotFound
	}
	if post.DeletedAt != nil {
		return ErrPostDeleted
	}

	now := time.Now()
	post.DeletedAt = &now
	post.UpdatedAt = now
	return nil
}

// GetByID retrieves a post by ID, excluding soft-deleted posts.
func (r *InMemoryPostRepository) GetByID(id string) (*Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	if post.DeletedAt != nil {
		return nil, ErrPostDeleted
	}

	copied := *post
	return &copied, nil
}

// ListByUser retrieves a user's posts, newest first.
func (r *InMemoryPostRepository) ListByUser(userID string, limit int) ([]*Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Post
	for _, post := range r.posts {
		if post.UserID != userID || post.DeletedAt != nil {
			continue
		}
		copied := *post
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListRecent retrieves posts with cursor-based pagination.
func (r *InMemoryPostRepository) ListRecent(limit int, cursor *FeedCursor) ([]*Post, *FeedCursor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	var candidates []*Post
	for _, post := range r.posts {
		if post.DeletedAt != nil {
			continue
		}
		if cursor != nil && !afterCursor(post, cursor) {
			continue
		}
		copied := *post
		candidates = append(candidates, &copied)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})

	var next *FeedCursor
	if len(candidates) > limit {
		candidates = candidates[:limit]
		last := candidates[len(candidates)-1]
		next = &FeedCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	return candidates, next, nil
}

// afterCursor reports whether the post sorts strictly after the cursor in
// (created_at DESC, id ASC) order.
func afterCursor(post *Post, cursor *FeedCursor) bool {
	if post.CreatedAt.Before(cursor.CreatedAt) {
		return true
	}
	if post.CreatedAt.Equal(cursor.CreatedAt) {
		return strings.Compare(post.ID, cursor.ID) > 0
	}
	return false
}

// ListByStatus retrieves posts in a given analysis state, oldest first.
func (r *InMemoryPostRepository) ListByStatus(status string, limit int) ([]*Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Post
	for _, post := range r.posts {
		if post.Status != status || post.DeletedAt != nil {
			continue
		}
		copied := *post
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListFailedRetryable retrieves failed posts below the retry ceiling.
func (r *InMemoryPostRepository) ListFailedRetryable(maxRetries, limit int) ([]*Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Post
	for _, post := range r.posts {
		if post.Status != StatusFailed || post.RetryCount >= maxRetries || post.DeletedAt != nil {
			continue
		}
		copied := *post
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListProcessedSince retrieves analyzed posts created after a point in
// time, newest first.
func (r *InMemoryPostRepository) ListProcessedSince(since time.Time, limit int) ([]*Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Post
	for _, post := range r.posts {
		if post.Status != StatusProcessed || post.DeletedAt != nil {
			continue
		}
		if !post.CreatedAt.After(since) {
			continue
		}
		copied := *post
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// SetStatus transitions a post's analysis state.
func (r *InMemoryPostRepository) SetStatus(id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return ErrPostNotFound
	}
	if post.DeletedAt != nil {
		return ErrPostDeleted
	}

	if status == StatusFailed && post.Status != StatusFailed {
		post.RetryCount++
	}
	post.Status = status
	post.UpdatedAt = time.Now()
	return nil
}

// SetModeration records the moderation outcome on a post.
func (r *InMemoryPostRepository) SetModeration(id, status string, flags []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return ErrPostNotFound
	}
	if post.DeletedAt != nil {
		return ErrPostDeleted
	}

	post.ModerationStatus = status
	post.ModerationFlags = append([]string(nil), flags...)
	post.UpdatedAt = time.Now()
	return nil
}

// AddEngagement increments the counter for one engagement type.
func (r *InMemoryPostRepository) AddEngagement(id, kind string) error {
	if !ValidEngagement(kind) {
		return ErrInvalidEngagement
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return ErrPostNotFound
	}
	if post.DeletedAt != nil {
		return ErrPostDeleted
	}

	switch kind {
	case EngagementLike:
		post.LikeCount++
	case EngagementDislike:
		post.DislikeCount++
	case EngagementComment:
		post.CommentCount++
	case EngagementView:
		post.ViewCount++
	}
	post.UpdatedAt = time.Now()
	return nil
}

// Stats aggregates repository-wide post counts for dashboards.
type Stats struct {
	TotalPosts     int `json:"total_posts"`
	ProcessedPosts int `json:"processed_posts"`
	ActiveUsers    int `json:"active_users"`
}

// Stats counts non-deleted posts, analyzed posts and distinct authors.
func (r *InMemoryPostRepository) Stats() (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{}
	users := make(map[string]struct{})
	for _, post := range r.posts {
		if post.DeletedAt != nil {
			continue
		}
		stats.TotalPosts++
		if post.Status == StatusProcessed {
			stats.ProcessedPosts++
		}
		users[post.UserID] = struct{}{}
	}
	stats.ActiveUsers = len(users)
	return stats, nil
}
