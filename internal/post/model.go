// Package post provides models, repositories, and content moderation for
// user-submitted stock commentary.
package post

import (
	"errors"
	"time"
)

// Common errors for post operations.
var (
	ErrPostNotFound = errors.New("post not found")
	ErrPostDeleted  = errors.New("post has been deleted")
)

// Analysis lifecycle states. A post starts pending, moves to processing
// while an analysis attempt is in flight, and lands on processed or failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusFailed     = "failed"
)

// Post represents one piece of stock commentary submitted by a user.
// Engagement counters are denormalized onto the post row so feed ranking
// never needs a join.
type Post struct {
	ID      string   `json:"id"`
	UserID  string   `json:"user_id"`
	Content string   `json:"content"`
	Tickers []string `json:"tickers,omitempty"`

	// Analysis lifecycle
	Status     string `json:"llm_status"`
	RetryCount int    `json:"retry_count"`

	// Moderation outcome, populated during analysis
	ModerationStatus string   `json:"moderation_status,omitempty"`
	ModerationFlags  []string `json:"moderation_flags,omitempty"`

	// Engagement counters
	LikeCount    int `json:"like_count"`
	DislikeCount int `json:"dislike_count"`
	CommentCount int `json:"comment_count"`
	ViewCount    int `json:"view_count"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// FeedCursor represents a cursor for paginating through posts.
// Uses (created_at, id) for stable pagination with tie-breaking.
type FeedCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// Engagement types users can register against a post.
const (
	EngagementLike    = "like"
	EngagementDislike = "dislike"
	EngagementComment = "comment"
	EngagementView    = "view"
)

// ErrInvalidEngagement is returned for an engagement type outside the
// known set.
var ErrInvalidEngagement = errors.New("invalid engagement type")

// ValidEngagement reports whether kind is a known engagement type.
func ValidEngagement(kind string) bool {
	switch kind {
	case EngagementLike, EngagementDislike, EngagementComment, EngagementView:
		return true
	}
	return false
}
