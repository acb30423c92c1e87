package reputation

import (
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore is a PostgreSQL-backed implementation of Store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a postgres-backed reputation store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save upserts a reputation record keyed by user ID.
func (s *PostgresStore) Save(rep Reputation) error {
	_, err := s.db.Exec(`
		INSERT INTO reputation (user_id, overall_score, engagement_score, consistency_score,
			historical_accuracy, community_impact, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			engagement_score = EXCLUDED.engagement_score,
			consistency_score = EXCLUDED.consistency_score,
			historical_accuracy = EXCLUDED.historical_accuracy,
			community_impact = EXCLUDED.community_impact,
			updated_at = NOW()`,
		rep.UserID, rep.OverallScore, rep.EngagementScore, rep.ConsistencyScore,
		rep.HistoricalAccuracy, rep.CommunityImpact,
	)
	if err != nil {
		return fmt.Errorf("failed to save reputation: %w", err)
	}
	return nil
}

// Get retrieves a user's reputation. Returns (nil, nil) for unknown users.
func (s *PostgresStore) Get(userID string) (*Reputation, error) {
	var rep Reputation
	err := s.db.QueryRow(`
		SELECT user_id, overall_score, engagement_score, consistency_score,
			historical_accuracy, community_impact, updated_at
		FROM reputation WHERE user_id = $1`, userID).Scan(
		&rep.UserID, &rep.OverallScore, &rep.EngagementScore, &rep.ConsistencyScore,
		&rep.HistoricalAccuracy, &rep.CommunityImpact, &rep.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reputation: %w", err)
	}
	return &rep, nil
}

// PostgresDataSource reads engagement inputs from the posts table.
type PostgresDataSource struct {
	db *sql.DB
}

// NewPostgresDataSource creates a postgres-backed engagement data source.
func NewPostgresDataSource(db *sql.DB) *PostgresDataSource {
	return &PostgresDataSource{db: db}
}

// GetEngagementTotals returns cumulative engagement totals for a user,
// counting only processed posts.
func (s *PostgresDataSource) GetEngagementTotals(userID string) (EngagementTotals, error) {
	var totals EngagementTotals
	err := s.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(like_count), 0),
			COALESCE(SUM(dislike_count), 0),
			COALESCE(SUM(comment_count), 0)
		FROM posts
		WHERE user_id = $1 AND llm_status = 'processed' AND deleted_at IS NULL`,
		userID).Scan(&totals.PostCount, &totals.Likes, &totals.Dislikes, &totals.Comments)
	if err != nil {
		return EngagementTotals{}, fmt.Errorf("failed to load engagement totals: %w", err)
	}
	return totals, nil
}

// AverageAccuracy returns the mean historical accuracy across all tracked
// users, zero when none are tracked.
func (s *PostgresStore) AverageAccuracy() (float64, error) {
	var avg float64
	err := s.db.QueryRow(`
		SELECT COALESCE(AVG(historical_accuracy), 0) FROM reputation`).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to load average accuracy: %w", err)
	}
	return avg, nil
}
