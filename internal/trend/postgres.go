package trend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// PostgresStore is a PostgreSQL-backed implementation of Store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a postgres-backed trend store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const trendColumns = `id, trend_type, ticker, sector, description, confidence,
	sentiment_direction, time_window, key_themes, supporting_post_ids,
	created_at, expires_at`

// Save stores a trend.
func (s *PostgresStore) Save(ctx context.Context, t Trend) error {
	if t.ID == "" {
		t.ID = NewTrendID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trends (id, trend_type, ticker, sector, description, confidence,
			sentiment_direction, time_window, key_themes, supporting_post_ids,
			created_at, expires_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6,
			NULLIF($7, ''), $8, $9, $10, NOW(), $11)`,
		t.ID, t.TrendType, t.Ticker, t.Sector, t.Description, t.Confidence,
		t.SentimentDirection, t.TimeWindow, pq.Array(t.KeyThemes),
		pq.Array(t.SupportingPostIDs), t.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save trend: %w", err)
	}
	return nil
}

// ListActive returns unexpired trends of one type by descending confidence.
func (s *PostgresStore) ListActive(ctx context.Context, trendType, window string, limit int) ([]Trend, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+trendColumns+` FROM trends
		WHERE expires_at > NOW()
		  AND ($1 = '' OR trend_type = $1)
		  AND ($2 = '' OR time_window = $2)
		ORDER BY confidence DESC, created_at DESC
		LIMIT $3`, trendType, window, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trends: %w", err)
	}
	defer rows.Close()
	return collectTrends(rows)
}

// ListByTicker returns unexpired trends mentioning a ticker.
func (s *PostgresStore) ListByTicker(ctx context.Context, ticker string, limit int) ([]Trend, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+trendColumns+` FROM trends
		WHERE expires_at > NOW() AND UPPER(ticker) = $1
		ORDER BY confidence DESC, created_at DESC
		LIMIT $2`, strings.ToUpper(ticker), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticker trends: %w", err)
	}
	defer rows.Close()
	return collectTrends(rows)
}

// All returns every stored trend.
func (s *PostgresStore) All(ctx context.Context) ([]Trend, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+trendColumns+` FROM trends`)
	if err != nil {
		return nil, fmt.Errorf("failed to list all trends: %w", err)
	}
	defer rows.Close()
	return collectTrends(rows)
}

func collectTrends(rows *sql.Rows) ([]Trend, error) {
	var trends []Trend
	for rows.Next() {
		var t Trend
		var ticker, sector, sentiment sql.NullString
		if err := rows.Scan(
			&t.ID, &t.TrendType, &ticker, &sector, &t.Description, &t.Confidence,
			&sentiment, &t.TimeWindow, pq.Array(&t.KeyThemes),
			pq.Array(&t.SupportingPostIDs), &t.CreatedAt, &t.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trend: %w", err)
		}
		t.Ticker = ticker.String
		t.Sector = sector.String
		t.SentimentDirection = sentiment.String
		trends = append(trends, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trends: %w", err)
	}
	return trends, nil
}
