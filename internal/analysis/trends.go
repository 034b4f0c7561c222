package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/healinggarden/kokoro/internal/models"
	"github.com/healinggarden/kokoro/internal/store"
)

// trendEntryCap bounds how many entries one trend assessment scores.
const trendEntryCap = 500

// Sustained-sentiment thresholds for raising risk flags.
const (
	negativeTrendThreshold = -0.3
	positiveTrendThreshold = 0.3
)

// TrendDetector assesses a user's emotional trajectory over a window of
// recent entries.
type TrendDetector struct {
	store    store.Store
	analyzer SentimentAnalyzer
	logger   *zap.Logger
}

// NewTrendDetector creates a trend detector.
func NewTrendDetector(st store.Store, analyzer SentimentAnalyzer, logger *zap.Logger) *TrendDetector {
	return &TrendDetector{store: st, analyzer: analyzer, logger: logger}
}

// Detect scores the user's entries from the last windowDays days and
// flags sustained negative or positive sentiment. Stored per-entry scores
// are reused; entries without one are scored on the fly.
func (d *TrendDetector) Detect(ctx context.Context, userID string, windowDays int) (*models.TrendReport, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	since := time.Now().AddDate(0, 0, -windowDays)
	entries, err := d.store.FindRecentEntries(ctx, userID, since, trendEntryCap)
	if err != nil {
		return nil, fmt.Errorf("load entries for trend: %w", err)
	}

	report := &models.TrendReport{
		DominantSentiment: models.SentimentNeutral,
		WindowDays:        windowDays,
	}
	if len(entries) == 0 {
		return report, nil
	}

	counts := map[string]int{}
	var sum float64
	for _, entry := range entries {
		sentiment, score := entry.Sentiment, entry.SentimentScore
		if sentiment == "" {
			result, err := d.analyzer.Analyze(ctx, entry.Text)
			if err != nil {
				d.logger.Warn("sentiment scoring failed",
					zap.String("entry_id", entry.ID),
					zap.Error(err),
				)
				continue
			}
			sentiment, score = result.Sentiment, result.Score
		}
		counts[sentiment]++
		sum += score
		report.EntryCount++
	}
	if report.EntryCount == 0 {
		return report, nil
	}

	report.OverallSentiment = sum / float64(report.EntryCount)
	best := 0
	for sentiment, count := range counts {
		if count > best {
			best = count
			report.DominantSentiment = sentiment
		}
	}

	report.RiskFlags = RiskFlags(report.OverallSentiment)
	return report, nil
}

// RiskFlags returns the flags a sustained mean score raises, or nil when
// the score sits inside the thresholds.
func RiskFlags(score float64) []string {
	switch {
	case score < negativeTrendThreshold:
		return []string{models.RiskConsistentlyNegative}
	case score > positiveTrendThreshold:
		return []string{models.RiskConsistentlyPositive}
	}
	return nil
}
