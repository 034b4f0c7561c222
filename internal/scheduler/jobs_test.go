package scheduler

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/healinggarden/kokoro/internal/analysis"
	"github.com/healinggarden/kokoro/internal/models"
	"github.com/healinggarden/kokoro/internal/profile"
	"github.com/healinggarden/kokoro/internal/store"
)

type fakeStore struct {
	store.Store
	users        []string
	entries      []*models.Entry
	interactions []*models.Interaction
	profiles     int
	cleanupAt    time.Time
}

func (f *fakeStore) ListActiveUsers(ctx context.Context) ([]string, error) {
	return f.users, nil
}

func (f *fakeStore) FindRecentEmbeddedEntries(ctx context.Context, userID string, since time.Time, limit int) ([]*models.Entry, error) {
	return f.entries, nil
}

func (f *fakeStore) FindRecentEntries(ctx context.Context, userID string, since time.Time, limit int) ([]*models.Entry, error) {
	return f.entries, nil
}

func (f *fakeStore) SaveInteraction(ctx context.Context, interaction *models.Interaction) error {
	f.interactions = append(f.interactions, interaction)
	return nil
}

func (f *fakeStore) UpsertProfile(ctx context.Context, p *models.VectorProfile) error {
	f.profiles++
	return nil
}

func (f *fakeStore) DeleteOldInteractions(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cleanupAt = cutoff
	return 7, nil
}

func newJobs(st *fakeStore) *Jobs {
	logger := zap.NewNop()
	return &Jobs{
		Store:      st,
		Aggregator: profile.NewAggregator(st, profile.DefaultConfig(), logger),
		Trends:     analysis.NewTrendDetector(st, analysis.NewLexiconAnalyzer(), logger),
		Daily:      analysis.NewDailySummarizer(analysis.NewExtractiveSummarizer()),
		Logger:     logger,
	}
}

func TestJobs_DailySummaries(t *testing.T) {
	st := &fakeStore{
		users: []string{"u1", "u2"},
		entries: []*models.Entry{
			{ID: "e1", Text: "A quiet day at home.", Mood: "peaceful", Embedding: []float32{1}},
			{ID: "e2", Text: "Wrote this while offline.", Mood: "calm"},
		},
	}
	if err := newJobs(st).DailySummaries(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(st.interactions) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(st.interactions))
	}
	for _, interaction := range st.interactions {
		if interaction.Type != models.InteractionDailySummary {
			t.Errorf("type = %s", interaction.Type)
		}
		if interaction.Content["summary"] == "" {
			t.Error("summary content empty")
		}
		if interaction.Content["entry_count"] != 2 {
			t.Errorf("entries without an embedding must be summarized, count = %v",
				interaction.Content["entry_count"])
		}
	}
}

func TestJobs_EmotionalTrends_RecordsAssessmentAndRisk(t *testing.T) {
	st := &fakeStore{
		users: []string{"u1"},
		entries: []*models.Entry{
			{ID: "e1", Sentiment: models.SentimentNegative, SentimentScore: -0.9, Embedding: []float32{1}},
			{ID: "e2", Sentiment: models.SentimentNegative, SentimentScore: -0.7, Embedding: []float32{1}},
		},
	}
	if err := newJobs(st).EmotionalTrends(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(st.interactions) != 2 {
		t.Fatalf("expected assessment + risk detection, got %d interactions", len(st.interactions))
	}
	if st.interactions[0].Type != models.InteractionEmotionalAssessment {
		t.Errorf("first interaction = %s", st.interactions[0].Type)
	}
	if st.interactions[1].Type != models.InteractionRiskDetection {
		t.Errorf("second interaction = %s", st.interactions[1].Type)
	}
}

func TestJobs_EmotionalTrends_SkipsUsersWithoutEntries(t *testing.T) {
	st := &fakeStore{users: []string{"u1"}}
	if err := newJobs(st).EmotionalTrends(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(st.interactions) != 0 {
		t.Errorf("no interactions expected, got %d", len(st.interactions))
	}
}

func TestJobs_ProfileRefresh(t *testing.T) {
	st := &fakeStore{
		users:   []string{"u1", "u2", "u3"},
		entries: []*models.Entry{{ID: "e1", Embedding: []float32{1, 2}}},
	}
	if err := newJobs(st).ProfileRefresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if st.profiles != 3 {
		t.Errorf("profiles upserted = %d, want 3", st.profiles)
	}
}

func TestJobs_Cleanup(t *testing.T) {
	st := &fakeStore{}
	if err := newJobs(st).Cleanup(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := time.Now().Add(-90 * 24 * time.Hour)
	if st.cleanupAt.Before(want.Add(-time.Minute)) || st.cleanupAt.After(want.Add(time.Minute)) {
		t.Errorf("cutoff %v not around 90 days ago", st.cleanupAt)
	}
}

func TestScheduler_RegisterAndRun(t *testing.T) {
	s := New(zap.NewNop())
	ran := make(chan struct{}, 1)
	err := s.Register("tick", "@every 1s", func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := New(zap.NewNop())
	if err := s.Register("bad", "not a cron spec", func(ctx context.Context) error { return nil }); err == nil {
		t.Error("expected error for invalid spec")
	}
}
