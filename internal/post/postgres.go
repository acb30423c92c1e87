package post

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresPostRepository is a PostgreSQL-backed implementation of
// PostRepository. Array columns (tickers, moderation_flags) use the pq
// array codecs.
type PostgresPostRepository struct {
	db *sql.DB
}

// NewPostgresPostRepository creates a postgres-backed post repository.
func NewPostgresPostRepository(db *sql.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

const postColumns = `id, user_id, content, tickers, llm_status, retry_count,
	moderation_status, moderation_flags,
	like_count, dislike_count, comment_count, view_count,
	created_at, updated_at, deleted_at`

func scanPost(row interface{ Scan(...any) error }) (*Post, error) {
	var p Post
	var moderationStatus sql.NullString
	var deletedAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.UserID, &p.Content, pq.Array(&p.Tickers),
		&p.Status, &p.RetryCount,
		&moderationStatus, pq.Array(&p.ModerationFlags),
		&p.LikeCount, &p.DislikeCount, &p.CommentCount, &p.ViewCount,
		&p.CreatedAt, &p.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if moderationStatus.Valid {
		p.ModerationStatus = moderationStatus.String
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		p.DeletedAt = &t
	}
	return &p, nil
}

// Create inserts a new post with a generated UUID and pending status.
func (r *PostgresPostRepository) Create(post *Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.Status == "" {
		post.Status = StatusPending
	}
	now := time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO posts (id, user_id, content, tickers, llm_status, retry_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		post.ID, post.UserID, post.Content, pq.Array(post.Tickers),
		post.Status, post.RetryCount, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// Update updates an existing post's mutable fields.
func (r *PostgresPostRepository) Update(post *Post) error {
	result, err := r.db.Exec(`
		UPDATE posts
		SET content = $2, tickers = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		post.ID, post.Content, pq.Array(post.Tickers),
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return requireRow(result)
}

// Delete soft-deletes a post.
func (r *PostgresPostRepository) Delete(id string) error {
	result, err := r.db.Exec(`
		UPDATE posts SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return requireRow(result)
}

// GetByID retrieves a post by ID, excluding soft-deleted posts.
func (r *PostgresPostRepository) GetByID(id string) (*Post, error) {
	row := r.db.QueryRow(`
		SELECT `+postColumns+` FROM posts
		WHERE id = $1 AND deleted_at IS NULL`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return p, nil
}

// ListByUser retrieves a user's posts, newest first.
func (r *PostgresPostRepository) ListByUser(userID string, limit int) ([]*Post, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`
		SELECT `+postColumns+` FROM posts
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id ASC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

// ListRecent retrieves posts with cursor-based pagination.
func (r *PostgresPostRepository) ListRecent(limit int, cursor *FeedCursor) ([]*Post, *FeedCursor, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows *sql.Rows
	var err error
	if cursor == nil {
		rows, err = r.db.Query(`
			SELECT `+postColumns+` FROM posts
			WHERE deleted_at IS NULL
			ORDER BY created_at DESC, id ASC
			LIMIT $1`, limit+1)
	} else {
		rows, err = r.db.Query(`
			SELECT `+postColumns+` FROM posts
			WHERE deleted_at IS NULL
			  AND (created_at < $1 OR (created_at = $1 AND id > $2))
			ORDER BY created_at DESC, id ASC
			LIMIT $3`, cursor.CreatedAt, cursor.ID, limit+1)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts, err := collectPosts(rows)
	if err != nil {
		return nil, nil, err
	}

	var next *FeedCursor
	if len(posts) > limit {
		posts = posts[:limit]
		last := posts[len(posts)-1]
		next = &FeedCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return posts, next, nil
}

// ListByStatus retrieves posts in a given analysis state, oldest first.
func (r *PostgresPostRepository) ListByStatus(status string, limit int) ([]*Post, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`
		SELECT `+postColumns+` FROM posts
		WHERE llm_status = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT $2`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by status: %w", err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

// ListFailedRetryable retrieves failed posts below the retry ceiling.
func (r *PostgresPostRepository) ListFailedRetryable(maxRetries, limit int) ([]*Post, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`
		SELECT `+postColumns+` FROM posts
		WHERE llm_status = $1 AND retry_count < $2 AND deleted_at IS NULL
		ORDER BY created_at ASC
		LIMIT $3`, StatusFailed, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list retryable posts: %w", err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

// ListProcessedSince retrieves analyzed posts created after a point in
// time, newest first.
func (r *PostgresPostRepository) ListProcessedSince(since time.Time, limit int) ([]*Post, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`
		SELECT `+postColumns+` FROM posts
		WHERE llm_status = $1 AND created_at > $2 AND deleted_at IS NULL
		ORDER BY created_at DESC, id ASC
		LIMIT $3`, StatusProcessed, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list processed posts: %w", err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

// SetStatus transitions a post's analysis state. Entering the failed state
// increments the retry counter.
func (r *PostgresPostRepository) SetStatus(id, status string) error {
	result, err := r.db.Exec(`
		UPDATE posts
		SET llm_status = $2,
		    retry_count = retry_count + CASE WHEN $2 = 'failed' AND llm_status != 'failed' THEN 1 ELSE 0 END,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id, status)
	if err != nil {
		return fmt.Errorf("failed to set post status: %w", err)
	}
	return requireRow(result)
}

// SetModeration records the moderation outcome on a post.
func (r *PostgresPostRepository) SetModeration(id, status string, flags []string) error {
	result, err := r.db.Exec(`
		UPDATE posts
		SET moderation_status = $2, moderation_flags = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		id, status, pq.Array(flags))
	if err != nil {
		return fmt.Errorf("failed to set post moderation: %w", err)
	}
	return requireRow(result)
}

// AddEngagement increments the counter for one engagement type.
func (r *PostgresPostRepository) AddEngagement(id, kind string) error {
	if !ValidEngagement(kind) {
		return ErrInvalidEngagement
	}

	// Column names come from the closed engagement set, never user input.
	column := kind + "_count"
	result, err := r.db.Exec(fmt.Sprintf(`
		UPDATE posts SET %s = %s + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, column, column), id)
	if err != nil {
		return fmt.Errorf("failed to record engagement: %w", err)
	}
	return requireRow(result)
}

func collectPosts(rows *sql.Rows) ([]*Post, error) {
	var posts []*Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Stats counts non-deleted posts, analyzed posts and distinct authors.
func (r *PostgresPostRepository) Stats() (Stats, error) {
	var stats Stats
	err := r.db.QueryRow(`
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE llm_status = $1),
			COUNT(DISTINCT user_id)
		FROM posts
		WHERE deleted_at IS NULL`, StatusProcessed,
	).Scan(&stats.TotalPosts, &stats.ProcessedPosts, &stats.ActiveUsers)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to load post stats: %w", err)
	}
	return stats, nil
}
