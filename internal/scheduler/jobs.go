package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healinggarden/kokoro/internal/analysis"
	"github.com/healinggarden/kokoro/internal/models"
	"github.com/healinggarden/kokoro/internal/profile"
	"github.com/healinggarden/kokoro/internal/store"
)

// interactionRetention is how long non-assessment interactions are kept.
const interactionRetention = 90 * 24 * time.Hour

// Jobs bundles the services the recurring jobs operate on.
type Jobs struct {
	Store      store.Store
	Aggregator *profile.Aggregator
	Trends     *analysis.TrendDetector
	Daily      *analysis.DailySummarizer
	Logger     *zap.Logger
}

// DailySummaries writes a daily_summary interaction for every active
// user covering the previous day's entries.
func (j *Jobs) DailySummaries(ctx context.Context) error {
	users, err := j.Store.ListActiveUsers(ctx)
	if err != nil {
		return fmt.Errorf("list active users: %w", err)
	}
	since := time.Now().Add(-24 * time.Hour)
	for _, userID := range users {
		entries, err := j.Store.FindRecentEntries(ctx, userID, since, 100)
		if err != nil {
			j.Logger.Warn("daily summary skipped",
				zap.String("user_id", userID), zap.Error(err))
			continue
		}
		summary, err := j.Daily.Summarize(ctx, entries)
		if err != nil {
			j.Logger.Warn("daily summary failed",
				zap.String("user_id", userID), zap.Error(err))
			continue
		}
		interaction := &models.Interaction{
			ID:     uuid.New().String(),
			UserID: userID,
			Type:   models.InteractionDailySummary,
			Content: map[string]any{
				"summary":     summary.Summary,
				"entry_count": len(entries),
			},
			CreatedAt: time.Now(),
		}
		if err := j.Store.SaveInteraction(ctx, interaction); err != nil {
			j.Logger.Warn("daily summary not saved",
				zap.String("user_id", userID), zap.Error(err))
		}
	}
	return nil
}

// EmotionalTrends runs a 30-day trend assessment per active user, stores
// it as an emotional_assessment, and records any risk flags separately
// as risk_detection interactions.
func (j *Jobs) EmotionalTrends(ctx context.Context) error {
	users, err := j.Store.ListActiveUsers(ctx)
	if err != nil {
		return fmt.Errorf("list active users: %w", err)
	}
	for _, userID := range users {
		report, err := j.Trends.Detect(ctx, userID, 30)
		if err != nil {
			j.Logger.Warn("trend assessment failed",
				zap.String("user_id", userID), zap.Error(err))
			continue
		}
		if report.EntryCount == 0 {
			continue
		}
		assessment := &models.Interaction{
			ID:     uuid.New().String(),
			UserID: userID,
			Type:   models.InteractionEmotionalAssessment,
			Content: map[string]any{
				"overall_sentiment":  report.OverallSentiment,
				"dominant_sentiment": report.DominantSentiment,
				"entry_count":        report.EntryCount,
				"window_days":        report.WindowDays,
			},
			CreatedAt: time.Now(),
		}
		if err := j.Store.SaveInteraction(ctx, assessment); err != nil {
			j.Logger.Warn("assessment not saved",
				zap.String("user_id", userID), zap.Error(err))
			continue
		}
		if len(report.RiskFlags) == 0 {
			continue
		}
		j.Logger.Warn("risk pattern detected",
			zap.String("user_id", userID),
			zap.Strings("flags", report.RiskFlags),
		)
		detection := &models.Interaction{
			ID:     uuid.New().String(),
			UserID: userID,
			Type:   models.InteractionRiskDetection,
			Content: map[string]any{
				"flags":             report.RiskFlags,
				"overall_sentiment": report.OverallSentiment,
			},
			CreatedAt: time.Now(),
		}
		if err := j.Store.SaveInteraction(ctx, detection); err != nil {
			j.Logger.Warn("risk detection not saved",
				zap.String("user_id", userID), zap.Error(err))
		}
	}
	return nil
}

// ProfileRefresh recomputes vector profiles for all active users.
func (j *Jobs) ProfileRefresh(ctx context.Context) error {
	refreshed, err := j.Aggregator.RefreshAll(ctx)
	if err != nil {
		return err
	}
	j.Logger.Info("profiles refreshed", zap.Int("count", refreshed))
	return nil
}

// Cleanup deletes interactions older than the retention window, keeping
// emotional assessments.
func (j *Jobs) Cleanup(ctx context.Context) error {
	cutoff := time.Now().Add(-interactionRetention)
	deleted, err := j.Store.DeleteOldInteractions(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete old interactions: %w", err)
	}
	j.Logger.Info("old interactions removed", zap.Int64("deleted", deleted))
	return nil
}
