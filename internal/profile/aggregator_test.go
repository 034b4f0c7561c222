package profile

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/healinggarden/kokoro/internal/models"
	"github.com/healinggarden/kokoro/internal/store"
)

type fakeStore struct {
	store.Store
	entries   []*models.Entry
	users     []string
	saved     *models.VectorProfile
	gotSince  time.Time
	gotLimit  int
	saveCount int
}

func (f *fakeStore) FindRecentEmbeddedEntries(ctx context.Context, userID string, since time.Time, limit int) ([]*models.Entry, error) {
	f.gotSince = since
	f.gotLimit = limit
	return f.entries, nil
}

func (f *fakeStore) UpsertProfile(ctx context.Context, profile *models.VectorProfile) error {
	f.saved = profile
	f.saveCount++
	return nil
}

func (f *fakeStore) ListActiveUsers(ctx context.Context) ([]string, error) {
	return f.users, nil
}

func TestAggregator_Refresh_MeanOfEmbeddings(t *testing.T) {
	st := &fakeStore{entries: []*models.Entry{
		{ID: "e1", Embedding: []float32{1, 0, 3}},
		{ID: "e2", Embedding: []float32{3, 2, 1}},
	}}
	agg := NewAggregator(st, DefaultConfig(), zap.NewNop())

	profile, err := agg.Refresh(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if profile == nil {
		t.Fatal("expected a profile")
	}
	want := []float32{2, 1, 2}
	for i, v := range want {
		if profile.ProfileVector[i] != v {
			t.Errorf("vector[%d] = %f, want %f", i, profile.ProfileVector[i], v)
		}
	}
	if profile.EmbeddingsCount != 2 {
		t.Errorf("embeddings count = %d, want 2", profile.EmbeddingsCount)
	}
	if st.saved != profile {
		t.Error("profile was not upserted")
	}
	if st.gotLimit != 50 {
		t.Errorf("entry cap = %d, want 50", st.gotLimit)
	}
	wantSince := time.Now().AddDate(0, 0, -30)
	if st.gotSince.Before(wantSince.Add(-time.Minute)) || st.gotSince.After(wantSince.Add(time.Minute)) {
		t.Errorf("window start %v not around 30 days ago", st.gotSince)
	}
}

func TestAggregator_Refresh_NoEntries(t *testing.T) {
	st := &fakeStore{}
	agg := NewAggregator(st, DefaultConfig(), zap.NewNop())

	profile, err := agg.Refresh(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if profile != nil {
		t.Errorf("expected nil profile, got %+v", profile)
	}
	if st.saveCount != 0 {
		t.Error("no write must happen when there are no entries")
	}
}

func TestAggregator_Refresh_SkipsMismatchedDimensions(t *testing.T) {
	st := &fakeStore{entries: []*models.Entry{
		{ID: "e1", Embedding: []float32{2, 4}},
		{ID: "bad", Embedding: []float32{1, 2, 3}},
	}}
	agg := NewAggregator(st, DefaultConfig(), zap.NewNop())

	profile, err := agg.Refresh(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if profile.EmbeddingsCount != 1 {
		t.Errorf("embeddings count = %d, want 1", profile.EmbeddingsCount)
	}
	if profile.ProfileVector[0] != 2 || profile.ProfileVector[1] != 4 {
		t.Errorf("unexpected vector %v", profile.ProfileVector)
	}
}

func TestAggregator_RefreshAll(t *testing.T) {
	st := &fakeStore{
		users:   []string{"u1", "u2", "u3"},
		entries: []*models.Entry{{ID: "e1", Embedding: []float32{1, 1}}},
	}
	agg := NewAggregator(st, DefaultConfig(), zap.NewNop())

	refreshed, err := agg.RefreshAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if refreshed != 3 {
		t.Errorf("refreshed = %d, want 3", refreshed)
	}
	if st.saveCount != 3 {
		t.Errorf("upserts = %d, want 3", st.saveCount)
	}
}
