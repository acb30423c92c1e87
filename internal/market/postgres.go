package market

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresAlignmentStore is a PostgreSQL-backed AlignmentStore.
type PostgresAlignmentStore struct {
	db *sql.DB
}

// NewPostgresAlignmentStore creates a postgres-backed alignment store.
func NewPostgresAlignmentStore(db *sql.DB) *PostgresAlignmentStore {
	return &PostgresAlignmentStore{db: db}
}

// Save stores an alignment.
func (s *PostgresAlignmentStore) Save(ctx context.Context, a Alignment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO market_alignments (post_id, user_id, ticker,
			predicted_direction, actual_direction, alignment_score,
			price_at_post, price_24h_later, price_change_percent,
			timing_accuracy, explanation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.PostID, a.UserID, a.Ticker,
		a.PredictedDirection, a.ActualDirection, a.AlignmentScore,
		a.PriceAtPost, a.Price24hLater, a.PriceChangePercent,
		a.TimingAccuracy, a.Explanation, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save alignment: %w", err)
	}
	return nil
}

// ListByUser returns all alignments recorded for a user.
func (s *PostgresAlignmentStore) ListByUser(ctx context.Context, userID string) ([]Alignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT post_id, user_id, ticker, predicted_direction, actual_direction,
			alignment_score, price_at_post, price_24h_later, price_change_percent,
			timing_accuracy, explanation, created_at
		FROM market_alignments
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alignments: %w", err)
	}
	defer rows.Close()

	var alignments []Alignment
	for rows.Next() {
		var a Alignment
		if err := rows.Scan(
			&a.PostID, &a.UserID, &a.Ticker, &a.PredictedDirection, &a.ActualDirection,
			&a.AlignmentScore, &a.PriceAtPost, &a.Price24hLater, &a.PriceChangePercent,
			&a.TimingAccuracy, &a.Explanation, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alignment: %w", err)
		}
		alignments = append(alignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alignments: %w", err)
	}
	return alignments, nil
}

// priceTolerance is how far from the target instant a stored price may
// sit and still anchor an alignment window.
const priceTolerance = 6 * time.Hour

// PostgresPriceSource reads stored closing prices from the ticker_prices
// table. The table is populated out of band; this source only reads.
type PostgresPriceSource struct {
	db *sql.DB
}

// NewPostgresPriceSource creates a postgres-backed price source.
func NewPostgresPriceSource(db *sql.DB) *PostgresPriceSource {
	return &PostgresPriceSource{db: db}
}

// GetWindow returns the stored prices nearest to postedAt and to 24 hours
// later. Returns ErrInsufficientData when either anchor is missing.
func (s *PostgresPriceSource) GetWindow(ctx context.Context, ticker string, postedAt time.Time) (PriceWindow, error) {
	atPost, err := s.nearestPrice(ctx, ticker, postedAt)
	if err != nil {
		return PriceWindow{}, err
	}
	later, err := s.nearestPrice(ctx, ticker, postedAt.Add(24*time.Hour))
	if err != nil {
		return PriceWindow{}, err
	}
	return PriceWindow{AtPost: atPost, Later24h: later}, nil
}

func (s *PostgresPriceSource) nearestPrice(ctx context.Context, ticker string, at time.Time) (float64, error) {
	var price float64
	err := s.db.QueryRowContext(ctx, `
		SELECT price FROM ticker_prices
		WHERE ticker = $1 AND recorded_at BETWEEN $2 AND $3
		ORDER BY ABS(EXTRACT(EPOCH FROM recorded_at - $4::timestamptz)) ASC
		LIMIT 1`,
		ticker, at.Add(-priceTolerance), at.Add(priceTolerance), at,
	).Scan(&price)
	if err == sql.ErrNoRows {
		return 0, ErrInsufficientData
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read price: %w", err)
	}
	return price, nil
}

// LatestSnapshots returns the newest stored price row per ticker, shaped
// as cacheable snapshots.
func (s *PostgresPriceSource) LatestSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (ticker) ticker, price, change_percent, volume, recorded_at
		FROM ticker_prices
		ORDER BY ticker, recorded_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest prices: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.Ticker, &snap.Price, &snap.ChangePercent, &snap.Volume, &snap.AsOf); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return snapshots, nil
}

// PostgresCandidateSource lists scorable posts by joining posts with their
// stored analyses and excluding already-scored ones.
type PostgresCandidateSource struct {
	db *sql.DB
}

// NewPostgresCandidateSource creates a postgres-backed candidate source.
func NewPostgresCandidateSource(db *sql.DB) *PostgresCandidateSource {
	return &PostgresCandidateSource{db: db}
}

// ListScorable returns unscored candidates created inside [start, end].
// The primary ticker is the first element of the post's ticker array.
func (s *PostgresCandidateSource) ListScorable(ctx context.Context, start, end time.Time, limit int) ([]Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.tickers[1], i.sentiment, p.created_at
		FROM posts p
		JOIN insights i ON i.post_id = p.id
		WHERE p.llm_status = 'processed'
		  AND p.deleted_at IS NULL
		  AND p.created_at BETWEEN $1 AND $2
		  AND array_length(p.tickers, 1) >= 1
		  AND i.sentiment IS NOT NULL
		  AND NOT EXISTS (
			SELECT 1 FROM market_alignments ma WHERE ma.post_id = p.id
		  )
		ORDER BY p.created_at ASC
		LIMIT $3`, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.PostID, &c.UserID, &c.Ticker, &c.Sentiment, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}
	return candidates, nil
}
