package analysis

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/healinggarden/kokoro/internal/models"
)

// summaryMaxLen caps generated daily summaries.
const summaryMaxLen = 200

// emptyDaySummary is returned when a user wrote nothing that day.
const emptyDaySummary = "No entries today. Every day is a new opportunity to reflect and grow."

var encouragingSentences = []string{
	"Remember to be kind to yourself.",
	"Every step forward counts, no matter how small.",
	"Your feelings are valid and important.",
	"Take a moment to appreciate your progress.",
	"Self-reflection is a sign of strength.",
	"Tomorrow is a new opportunity.",
	"You're doing better than you think.",
	"Be proud of showing up for yourself today.",
}

var positiveMoods = map[string]struct{}{
	"happy": {}, "excited": {}, "peaceful": {}, "grateful": {},
}

var negativeMoods = map[string]struct{}{
	"sad": {}, "anxious": {}, "angry": {}, "tired": {},
}

// DailySummarizer builds an encouraging one-paragraph recap of a day's
// entries using any Summarizer backend.
type DailySummarizer struct {
	summarizer Summarizer
	rng        *rand.Rand
}

// NewDailySummarizer creates a daily summarizer over the given backend.
func NewDailySummarizer(summarizer Summarizer) *DailySummarizer {
	return &DailySummarizer{
		summarizer: summarizer,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Summarize condenses the day's entries and appends a closing sentence
// matched to the day's mood balance.
func (d *DailySummarizer) Summarize(ctx context.Context, entries []*models.Entry) (*models.Summary, error) {
	if len(entries) == 0 {
		return &models.Summary{Summary: emptyDaySummary}, nil
	}

	combined := composeDayText(entries)
	summary, err := d.summarizer.Summarize(ctx, combined, summaryMaxLen)
	if err != nil {
		return nil, err
	}
	summary = strings.TrimSpace(summary) + " " + d.closingSentence(entries)

	return &models.Summary{
		Summary:        summary,
		OriginalLength: len(combined),
		SummaryLength:  len(summary),
	}, nil
}

func composeDayText(entries []*models.Entry) string {
	var parts []string
	for i, entry := range entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		if entry.Mood != "" {
			parts = append(parts, fmt.Sprintf("Entry %d (mood: %s): %s", i+1, entry.Mood, text))
		} else {
			parts = append(parts, fmt.Sprintf("Entry %d: %s", i+1, text))
		}
	}
	return strings.Join(parts, " ")
}

func (d *DailySummarizer) closingSentence(entries []*models.Entry) string {
	var positive, negative int
	for _, entry := range entries {
		mood := strings.ToLower(entry.Mood)
		if _, ok := positiveMoods[mood]; ok {
			positive++
		} else if _, ok := negativeMoods[mood]; ok {
			negative++
		}
	}
	switch {
	case positive > negative*2:
		return "It's wonderful to see so much positivity in your day!"
	case negative > positive*2:
		return "It's okay to have difficult days. Remember that feelings are temporary and you have the strength to move through them."
	default:
		return encouragingSentences[d.rng.Intn(len(encouragingSentences))]
	}
}
