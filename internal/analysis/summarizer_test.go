package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/healinggarden/kokoro/internal/models"
)

func TestExtractiveSummarizer_KeepsLeadingSentences(t *testing.T) {
	s := NewExtractiveSummarizer()
	text := "First thing. Second thing. Third thing. Fourth thing. Fifth thing."
	summary, err := s.Summarize(context.Background(), text, 500)
	if err != nil {
		t.Fatal(err)
	}
	if summary != "First thing. Second thing. Third thing." {
		t.Errorf("unexpected summary: %q", summary)
	}
}

func TestExtractiveSummarizer_ShortText(t *testing.T) {
	s := NewExtractiveSummarizer()
	summary, err := s.Summarize(context.Background(), "Only one sentence here.", 500)
	if err != nil {
		t.Fatal(err)
	}
	if summary != "Only one sentence here." {
		t.Errorf("unexpected summary: %q", summary)
	}
}

func TestExtractiveSummarizer_Empty(t *testing.T) {
	s := NewExtractiveSummarizer()
	summary, err := s.Summarize(context.Background(), "", 500)
	if err != nil {
		t.Fatal(err)
	}
	if summary != "" {
		t.Errorf("expected empty summary, got %q", summary)
	}
}

func TestExtractiveSummarizer_CapsLength(t *testing.T) {
	s := NewExtractiveSummarizer()
	long := strings.Repeat("words and more words ", 30) + "."
	summary, err := s.Summarize(context.Background(), long, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) > 103 { // 100 plus ellipsis
		t.Errorf("summary length %d exceeds cap", len(summary))
	}
}

func TestDailySummarizer_EmptyDay(t *testing.T) {
	d := NewDailySummarizer(NewExtractiveSummarizer())
	summary, err := d.Summarize(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Summary != emptyDaySummary {
		t.Errorf("unexpected empty-day summary: %q", summary.Summary)
	}
}

func TestDailySummarizer_MoodBalance(t *testing.T) {
	d := NewDailySummarizer(NewExtractiveSummarizer())

	positive := []*models.Entry{
		{Text: "Great day out", Mood: "happy"},
		{Text: "Felt calm all evening", Mood: "peaceful"},
	}
	summary, err := d.Summarize(context.Background(), positive)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(summary.Summary, "positivity") {
		t.Errorf("positive day should close on positivity, got %q", summary.Summary)
	}

	negative := []*models.Entry{
		{Text: "Rough morning", Mood: "sad"},
		{Text: "Could not focus", Mood: "anxious"},
	}
	summary, err = d.Summarize(context.Background(), negative)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(summary.Summary, "difficult days") {
		t.Errorf("negative day should close with reassurance, got %q", summary.Summary)
	}
}
