// Package analysis provides sentiment scoring, summarization, trend
// detection, and reflective question generation over journal entries.
package analysis

import (
	"context"
	"strings"

	"github.com/healinggarden/kokoro/internal/models"
)

// SentimentAnalyzer scores a text in [-1, 1] with a label.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (*models.SentimentResult, error)
}

// LexiconAnalyzer is a wordlist-based analyzer used when no model-backed
// provider is configured. Polarity is the balance of positive and negative
// lexicon hits over all hits.
type LexiconAnalyzer struct{}

// NewLexiconAnalyzer returns the fallback analyzer.
func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{}
}

var positiveWords = map[string]struct{}{
	"happy": {}, "joy": {}, "joyful": {}, "grateful": {}, "thankful": {},
	"love": {}, "loved": {}, "great": {}, "good": {}, "wonderful": {},
	"excited": {}, "proud": {}, "peaceful": {}, "calm": {}, "hopeful": {},
	"amazing": {}, "fun": {}, "relaxed": {}, "accomplished": {}, "better": {},
	"smile": {}, "smiled": {}, "laughed": {}, "enjoy": {}, "enjoyed": {},
	"blessed": {}, "appreciate": {}, "success": {}, "win": {}, "progress": {},
}

var negativeWords = map[string]struct{}{
	"sad": {}, "angry": {}, "anxious": {}, "anxiety": {}, "stressed": {},
	"stress": {}, "tired": {}, "exhausted": {}, "worried": {}, "worry": {},
	"fear": {}, "afraid": {}, "lonely": {}, "alone": {}, "hurt": {},
	"pain": {}, "bad": {}, "terrible": {}, "awful": {}, "hate": {},
	"cried": {}, "cry": {}, "overwhelmed": {}, "hopeless": {}, "failure": {},
	"failed": {}, "depressed": {}, "miserable": {}, "frustrated": {}, "worst": {},
}

// Analyze scores the text by lexicon hits. Scores above 0.1 are positive,
// below -0.1 negative, neutral otherwise. Confidence is |score|.
func (a *LexiconAnalyzer) Analyze(ctx context.Context, text string) (*models.SentimentResult, error) {
	var positive, negative int
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if _, ok := positiveWords[word]; ok {
			positive++
		} else if _, ok := negativeWords[word]; ok {
			negative++
		}
	}

	var score float64
	if hits := positive + negative; hits > 0 {
		score = float64(positive-negative) / float64(hits)
	}

	sentiment := models.SentimentNeutral
	switch {
	case score > 0.1:
		sentiment = models.SentimentPositive
	case score < -0.1:
		sentiment = models.SentimentNegative
	}

	confidence := score
	if confidence < 0 {
		confidence = -confidence
	}
	return &models.SentimentResult{
		Sentiment:  sentiment,
		Score:      score,
		Confidence: confidence,
	}, nil
}

// AnalyzeBatch scores each entry text and aggregates: mean score, label
// distribution, and dominant label. Entries without text are skipped; an
// all-empty batch is reported as neutral with zero score.
func AnalyzeBatch(ctx context.Context, analyzer SentimentAnalyzer, texts []string) (*models.BatchSentiment, error) {
	counts := map[string]int{}
	var sum float64
	scored := 0

	for _, text := range texts {
		if text == "" {
			continue
		}
		result, err := analyzer.Analyze(ctx, text)
		if err != nil {
			return nil, err
		}
		counts[result.Sentiment]++
		sum += result.Score
		scored++
	}

	if scored == 0 {
		return &models.BatchSentiment{
			DominantSentiment: models.SentimentNeutral,
			Distribution:      map[string]float64{},
		}, nil
	}

	distribution := make(map[string]float64, len(counts))
	dominant := models.SentimentNeutral
	best := 0
	for sentiment, count := range counts {
		distribution[sentiment] = float64(count) / float64(scored)
		if count > best {
			best = count
			dominant = sentiment
		}
	}

	return &models.BatchSentiment{
		OverallSentiment:  sum / float64(scored),
		DominantSentiment: dominant,
		Distribution:      distribution,
		EntryCount:        scored,
	}, nil
}
