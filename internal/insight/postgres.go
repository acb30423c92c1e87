package insight

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresRepository is a PostgreSQL-backed implementation of Repository.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a postgres-backed insight repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const insightColumns = `post_id, insight_type, sector, sub_sector, catalyst,
	risk_profile, time_horizon, quality_score, confidence_level,
	relevance_score, market_alignment_score, summary, explanation,
	sentiment, key_points, potential_catalysts, risk_factors, created_at`

// Save upserts the analysis for a post.
func (r *PostgresRepository) Save(ctx context.Context, ins Insight) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO insights (post_id, insight_type, sector, sub_sector, catalyst,
			risk_profile, time_horizon, quality_score, confidence_level,
			relevance_score, summary, explanation, sentiment,
			key_points, potential_catalysts, risk_factors, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
		ON CONFLICT (post_id) DO UPDATE SET
			insight_type = EXCLUDED.insight_type,
			sector = EXCLUDED.sector,
			sub_sector = EXCLUDED.sub_sector,
			catalyst = EXCLUDED.catalyst,
			risk_profile = EXCLUDED.risk_profile,
			time_horizon = EXCLUDED.time_horizon,
			quality_score = EXCLUDED.quality_score,
			confidence_level = EXCLUDED.confidence_level,
			relevance_score = EXCLUDED.relevance_score,
			summary = EXCLUDED.summary,
			explanation = EXCLUDED.explanation,
			sentiment = EXCLUDED.sentiment,
			key_points = EXCLUDED.key_points,
			potential_catalysts = EXCLUDED.potential_catalysts,
			risk_factors = EXCLUDED.risk_factors`,
		ins.PostID, nullString(ins.InsightType), nullString(ins.Sector),
		nullString(ins.SubSector), nullString(ins.Catalyst),
		nullString(ins.RiskProfile), nullString(ins.TimeHorizon),
		ins.QualityScore, ins.ConfidenceLevel, ins.RelevanceScore,
		nullString(ins.Summary), nullString(ins.Explanation), nullString(ins.Sentiment),
		pq.Array(ins.KeyPoints), pq.Array(ins.Catalysts), pq.Array(ins.RiskFactors),
	)
	if err != nil {
		return fmt.Errorf("failed to save insight: %w", err)
	}
	return nil
}

// GetByPost retrieves the analysis for a post.
func (r *PostgresRepository) GetByPost(ctx context.Context, postID string) (*Insight, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+insightColumns+` FROM insights WHERE post_id = $1`, postID)
	ins, err := scanInsight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInsightNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get insight: %w", err)
	}
	return ins, nil
}

// GetByPosts retrieves analyses for a batch of posts.
func (r *PostgresRepository) GetByPosts(ctx context.Context, postIDs []string) (map[string]*Insight, error) {
	if len(postIDs) == 0 {
		return map[string]*Insight{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+insightColumns+` FROM insights WHERE post_id = ANY($1)`,
		pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to batch get insights: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*Insight, len(postIDs))
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		result[ins.PostID] = ins
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate insights: %w", err)
	}
	return result, nil
}

// SetMarketAlignment records a market alignment score on a post's analysis.
func (r *PostgresRepository) SetMarketAlignment(ctx context.Context, postID string, score float64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE insights SET market_alignment_score = $2 WHERE post_id = $1`,
		postID, score)
	if err != nil {
		return fmt.Errorf("failed to set market alignment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrInsightNotFound
	}
	return nil
}

func scanInsight(row interface{ Scan(...any) error }) (*Insight, error) {
	var ins Insight
	var insightType, sector, subSector, catalyst sql.NullString
	var riskProfile, timeHorizon, summary, explanation, sentiment sql.NullString
	err := row.Scan(
		&ins.PostID, &insightType, &sector, &subSector, &catalyst,
		&riskProfile, &timeHorizon, &ins.QualityScore, &ins.ConfidenceLevel,
		&ins.RelevanceScore, &ins.MarketAlignmentScore, &summary, &explanation,
		&sentiment, pq.Array(&ins.KeyPoints), pq.Array(&ins.Catalysts),
		pq.Array(&ins.RiskFactors), &ins.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	ins.InsightType = insightType.String
	ins.Sector = sector.String
	ins.SubSector = subSector.String
	ins.Catalyst = catalyst.String
	ins.RiskProfile = riskProfile.String
	ins.TimeHorizon = timeHorizon.String
	ins.Summary = summary.String
	ins.Explanation = explanation.String
	ins.Sentiment = sentiment.String
	return &ins, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// TopSector returns the most common sector across stored analyses, or an
// empty string when no analysis carries one.
func (r *PostgresRepository) TopSector(ctx context.Context) (string, error) {
	var sector string
	err := r.db.QueryRowContext(ctx, `
		SELECT sector FROM insights
		WHERE sector IS NOT NULL AND sector <> ''
		GROUP BY sector
		ORDER BY COUNT(*) DESC, sector ASC
		LIMIT 1`).Scan(&sector)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load top sector: %w", err)
	}
	return sector, nil
}
