// Package reputation maintains per-user reputation scores derived from
// post quality, moderation outcomes, and community engagement.
package reputation

import (
	"errors"
	"math"
	"sync"
	"time"
)

// Reputation tracks the rolling quality profile of one user. All score
// fields live in [0, 1].
type Reputation struct {
	UserID             string    `json:"user_id"`
	OverallScore       float64   `json:"overall_score"`
	EngagementScore    float64   `json:"engagement_score"`
	ConsistencyScore   float64   `json:"consistency_score"`
	HistoricalAccuracy float64   `json:"historical_accuracy"`
	CommunityImpact    float64   `json:"community_impact"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Validation errors.
var (
	ErrInvalidScore = errors.New("invalid score: must be between 0.0 and 1.0")
)

// ValidateScore checks that a score is within [0.0, 1.0].
func ValidateScore(score float64) error {
	if score < 0.0 || score > 1.0 {
		return ErrInvalidScore
	}
	return nil
}

// moderationPenalty shaves 10% off a score when a sample was flagged or
// marked low quality.
const moderationPenalty = 0.9

// historyWeight returns how much the existing score counts for against a
// new quality sample. Weight grows with post count and caps at 0.8, so a
// single post can never swing an established reputation dramatically.
func historyWeight(postCount int) float64 {
	if postCount < 0 {
		postCount = 0
	}
	return math.Min(0.8, float64(postCount)/float64(postCount+5))
}

// ApplySample folds one post's adjusted quality score into a user's
// reputation and returns the updated value. A nil current reputation
// initializes a new user: the first sample becomes the overall score and
// consistency starts neutral.
//
// penalized applies the moderation penalty to the resulting overall score.
func ApplySample(current *Reputation, userID string, postCount int, quality float64, penalized bool) Reputation {
	now := time.Now()

	if current == nil {
		initial := quality
		if penalized {
			initial *= moderationPenalty
		}
		return Reputation{
			UserID:           userID,
			OverallScore:     round4(clamp01(initial)),
			EngagementScore:  0.0,
			ConsistencyScore: 0.5,
			UpdatedAt:        now,
		}
	}

	w := historyWeight(postCount)
	overall := current.OverallScore*w + quality*(1-w)
	if penalized {
		overall *= moderationPenalty
	}

	// Consistency rewards steady quality: the rolling score moves toward
	// 1 minus the distance between the sample and the prior overall.
	diff := math.Abs(quality - current.OverallScore)
	consistency := current.ConsistencyScore*0.7 + (1-diff)*0.3

	updated := *current
	updated.OverallScore = round4(clamp01(overall))
	updated.ConsistencyScore = round4(clamp01(consistency))
	updated.UpdatedAt = now
	return updated
}

// EngagementScore derives an engagement score from a user's cumulative
// reaction counts, normalized by post count and clamped to [0, 1].
func EngagementScore(likes, dislikes, comments, postCount int) float64 {
	if postCount < 1 {
		postCount = 1
	}
	raw := (float64(likes)*0.1 + float64(comments)*0.2 - float64(dislikes)*0.1) / float64(postCount)
	return round4(clamp01(raw))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// DirtyTracker tracks users whose reputation inputs changed and need
// recomputation. Thread-safe.
type DirtyTracker struct {
	mu         sync.RWMutex
	dirtyFlags map[string]time.Time // userID -> time marked dirty
}

// NewDirtyTracker creates a new DirtyTracker instance.
func NewDirtyTracker() *DirtyTracker {
	return &DirtyTracker{
		dirtyFlags: make(map[string]time.Time),
	}
}

// MarkDirty marks a user as needing reputation recomputation.
func (t *DirtyTracker) MarkDirty(userID string) {
	t.mu.Lock()
	t.dirtyFlags[userID] = time.Now()
	t.mu.Unlock()
}

// ClearDirty removes the dirty flag for a user after recomputation.
func (t *DirtyTracker) ClearDirty(userID string) {
	t.mu.Lock()
	delete(t.dirtyFlags, userID)
	t.mu.Unlock()
}

// GetDirtyUsers returns a list of user IDs that are marked dirty.
// Returns a copy to avoid external modification.
func (t *DirtyTracker) GetDirtyUsers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	users := make([]string, 0, len(t.dirtyFlags))
	for userID := range t.dirtyFlags {
		users = append(users, userID)
	}
	return users
}

// IsDirty checks if a specific user is marked as dirty.
func (t *DirtyTracker) IsDirty(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.dirtyFlags[userID]
	return ok
}
