package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/socialstocks/backend/internal/post"
	"github.com/socialstocks/backend/internal/reputation"
)

// MaxRetries bounds analysis attempts per post.
const MaxRetries = 3

// RetryDelays staggers re-attempts after a failed analysis.
var RetryDelays = []time.Duration{10 * time.Second, time.Minute, 5 * time.Minute}

// taskProcessPost labels pipeline runs in the audit log.
const taskProcessPost = "process_post"

// Processor runs the full analysis pipeline for one post: model analysis,
// moderation, insight storage, audit logging, and reputation update.
type Processor struct {
	posts    post.PostRepository
	insights Repository
	analyzer Analyzer
	audit    AuditLog

	repStore   reputation.Store
	repSource  reputation.DataSource
	repTracker *reputation.DirtyTracker

	logger *slog.Logger
}

// ProcessorConfig wires a Processor's dependencies. Reputation fields may
// be nil to skip reputation updates; audit may be nil to skip logging of
// attempts.
type ProcessorConfig struct {
	Posts    post.PostRepository
	Insights Repository
	Analyzer Analyzer
	Audit    AuditLog

	ReputationStore   reputation.Store
	ReputationSource  reputation.DataSource
	ReputationTracker *reputation.DirtyTracker

	Logger *slog.Logger
}

// NewProcessor creates an analysis pipeline processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Processor{
		posts:      cfg.Posts,
		insights:   cfg.Insights,
		analyzer:   cfg.Analyzer,
		audit:      cfg.Audit,
		repStore:   cfg.ReputationStore,
		repSource:  cfg.ReputationSource,
		repTracker: cfg.ReputationTracker,
		logger:     cfg.Logger,
	}
}

// ProcessPost analyzes one post end to end. Already-processed posts are
// skipped without error so the pipeline stays idempotent; a missing post
// is logged and ignored, since the sweep may race a deletion.
func (p *Processor) ProcessPost(ctx context.Context, postID string) error {
	record, err := p.posts.GetByID(postID)
	if err != nil {
		if errors.Is(err, post.ErrPostNotFound) || errors.Is(err, post.ErrPostDeleted) {
			p.logger.Warn("post missing, skipping analysis", "post_id", postID)
			return nil
		}
		return fmt.Errorf("failed to load post: %w", err)
	}
	if record.Status == post.StatusProcessed {
		p.logger.Info("post already processed, skipping", "post_id", postID)
		return nil
	}

	if err := p.posts.SetStatus(postID, post.StatusProcessing); err != nil {
		return fmt.Errorf("failed to mark post processing: %w", err)
	}

	started := time.Now()
	analysis, err := p.analyzer.AnalyzePost(ctx, record.Content, record.Tickers)
	latency := time.Since(started).Milliseconds()
	if err != nil {
		p.recordAudit(ctx, AuditEntry{
			PostID:    postID,
			TaskType:  taskProcessPost,
			Input:     p.auditInput(record),
			LatencyMS: latency,
			Error:     err.Error(),
		})
		if statusErr := p.posts.SetStatus(postID, post.StatusFailed); statusErr != nil {
			p.logger.Error("failed to mark post failed",
				"post_id", postID, "error", statusErr)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}
	if analysis.LatencyMS == 0 {
		analysis.LatencyMS = latency
	}

	analysis.Normalize()

	moderation := post.CheckContent(record.Content, record.Tickers, analysis.ModerationFlags)
	rawQuality := 0.5
	if analysis.QualityScore != nil {
		rawQuality = *analysis.QualityScore
	}
	adjustedQuality := post.AdjustQuality(rawQuality, moderation.QualityAdjustment)

	p.logger.Info("post moderation evaluated",
		"post_id", postID,
		"status", moderation.Status,
		"flags", moderation.Flags)

	if err := p.insights.Save(ctx, analysis.ToInsight(postID, adjustedQuality)); err != nil {
		if statusErr := p.posts.SetStatus(postID, post.StatusFailed); statusErr != nil {
			p.logger.Error("failed to mark post failed",
				"post_id", postID, "error", statusErr)
		}
		return fmt.Errorf("failed to save insight: %w", err)
	}

	p.recordAudit(ctx, AuditEntry{
		PostID:    postID,
		TaskType:  taskProcessPost,
		Input:     p.auditInput(record),
		Output:    p.auditOutput(analysis, moderation),
		Model:     analysis.Model,
		LatencyMS: analysis.LatencyMS,
	})

	if err := p.posts.SetModeration(postID, moderation.Status, moderation.Flags); err != nil {
		p.logger.Error("failed to record moderation",
			"post_id", postID, "error", err)
	}

	p.updateReputation(record.UserID, adjustedQuality, moderation.Penalized())

	if err := p.posts.SetStatus(postID, post.StatusProcessed); err != nil {
		return fmt.Errorf("failed to mark post processed: %w", err)
	}

	p.logger.Info("post analysis completed",
		"post_id", postID,
		"quality_score", adjustedQuality,
		"sentiment", analysis.Sentiment)
	return nil
}

// updateReputation folds the post's adjusted quality into the author's
// reputation. Failures are logged, never fatal to the pipeline.
func (p *Processor) updateReputation(userID string, quality float64, penalized bool) {
	if p.repStore == nil {
		return
	}

	current, err := p.repStore.Get(userID)
	if err != nil {
		p.logger.Error("failed to load reputation", "user_id", userID, "error", err)
		return
	}

	postCount := 1
	if p.repSource != nil {
		totals, err := p.repSource.GetEngagementTotals(userID)
		if err != nil {
			p.logger.Error("failed to load engagement totals",
				"user_id", userID, "error", err)
		} else if totals.PostCount > 0 {
			postCount = totals.PostCount
		}
	}

	updated := reputation.ApplySample(current, userID, postCount, quality, penalized)
	if err := p.repStore.Save(updated); err != nil {
		p.logger.Error("failed to save reputation", "user_id", userID, "error", err)
		return
	}
	if p.repTracker != nil {
		p.repTracker.MarkDirty(userID)
	}

	p.logger.Debug("reputation updated",
		"user_id", userID,
		"overall_score", updated.OverallScore)
}

func (p *Processor) recordAudit(ctx context.Context, entry AuditEntry) {
	if p.audit == nil {
		return
	}
	if err := p.audit.Record(ctx, entry); err != nil {
		p.logger.Error("failed to record audit entry",
			"post_id", entry.PostID, "error", err)
	}
}

func (p *Processor) auditInput(record *post.Post) json.RawMessage {
	data, err := json.Marshal(map[string]any{
		"content": record.Content,
		"tickers": record.Tickers,
	})
	if err != nil {
		return nil
	}
	return data
}

func (p *Processor) auditOutput(analysis Analysis, moderation post.ModerationResult) json.RawMessage {
	data, err := json.Marshal(map[string]any{
		"analysis":   analysis,
		"moderation": moderation,
	})
	if err != nil {
		return nil
	}
	return data
}
