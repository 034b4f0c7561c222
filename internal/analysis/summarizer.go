package analysis

import (
	"context"
	"strings"

	"github.com/healinggarden/kokoro/pkg/utils"
)

// Summarizer condenses a text to at most maxLen characters.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxLen int) (string, error)
}

// ExtractiveSummarizer is the model-free fallback: it keeps the first
// few sentences and hard-caps the result length.
type ExtractiveSummarizer struct {
	// Sentences is how many leading sentences to keep.
	Sentences int
}

// NewExtractiveSummarizer returns a summarizer keeping the first three
// sentences.
func NewExtractiveSummarizer() *ExtractiveSummarizer {
	return &ExtractiveSummarizer{Sentences: 3}
}

// Summarize returns the leading sentences of text, truncated to maxLen.
func (s *ExtractiveSummarizer) Summarize(ctx context.Context, text string, maxLen int) (string, error) {
	keep := s.Sentences
	if keep <= 0 {
		keep = 3
	}
	sentences := utils.SplitSentences(text)
	if len(sentences) > keep {
		sentences = sentences[:keep]
	}
	summary := strings.Join(sentences, ". ")
	if summary != "" {
		summary += "."
	}
	return utils.Truncate(summary, maxLen), nil
}
