package vector

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestFlatIndex_AddSearch(t *testing.T) {
	idx, err := NewFlatIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	vecs := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
	}
	if err := idx.Add(ctx, []string{"a", "b"}, vecs, nil); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "b" {
		t.Errorf("expected [a b], got [%s %s]", results[0].ID, results[1].ID)
	}
	if math.Abs(results[0].Score-1.0) > 1e-5 {
		t.Errorf("score(a) = %f, want ~1.0", results[0].Score)
	}
	if math.Abs(results[1].Score) > 1e-5 {
		t.Errorf("score(b) = %f, want ~0.0", results[1].Score)
	}
}

func TestFlatIndex_SearchOrderedAndLimited(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	ctx := context.Background()
	vecs := [][]float32{{1, 0}, {0.8, 0.2}, {0, 1}, {0.5, 0.5}}
	_ = idx.Add(ctx, []string{"a", "b", "c", "d"}, vecs, nil)

	results, err := idx.Search(ctx, []float32{1, 0}, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted: %f before %f", results[i-1].Score, results[i].Score)
		}
	}
}

func TestFlatIndex_FilterAllowList(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"a", "b", "c"}, [][]float32{{1, 0}, {0.9, 0.1}, {0.8, 0.2}}, nil)

	results, err := idx.Search(ctx, []float32{1, 0}, 3, []string{"c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "c" {
		t.Fatalf("expected only c, got %v", results)
	}
}

func TestFlatIndex_RemoveKeepsSlots(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"a", "b", "c"}, [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}}, nil)

	if err := idx.Remove(ctx, []string{"b"}); err != nil {
		t.Fatal(err)
	}

	stats := idx.Stats()
	if stats.TotalVectors != 3 {
		t.Errorf("TotalVectors = %d, want 3 (backing store untouched)", stats.TotalVectors)
	}
	if stats.UniqueIDs != 2 {
		t.Errorf("UniqueIDs = %d, want 2", stats.UniqueIDs)
	}

	results, err := idx.Search(ctx, []float32{1, 0}, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.ID == "b" {
			t.Error("removed id must never be returned")
		}
	}
}

func TestFlatIndex_SlotsNeverReused(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}}, nil)
	_ = idx.Remove(ctx, []string{"a"})
	_ = idx.Add(ctx, []string{"b"}, [][]float32{{0, 1}}, nil)

	if got := idx.idToSlot["b"]; got != 1 {
		t.Errorf("slot for b = %d, want 1 (slot 0 never reused)", got)
	}
	if idx.Stats().TotalVectors != 2 {
		t.Errorf("TotalVectors = %d, want 2", idx.Stats().TotalVectors)
	}
}

func TestFlatIndex_DimensionMismatch(t *testing.T) {
	idx, _ := NewFlatIndex(3)
	ctx := context.Background()
	if err := idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}}, nil); err == nil {
		t.Error("expected error adding 2d vector to 3d index")
	}
	if _, err := idx.Search(ctx, []float32{1, 0}, 1, nil); err == nil {
		t.Error("expected error querying 3d index with 2d vector")
	}
}

func TestFlatIndex_EmptyAndZeroK(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	ctx := context.Background()

	results, err := idx.Search(ctx, []float32{1, 0}, 5, nil)
	if err != nil || results != nil {
		t.Errorf("empty index: got (%v, %v), want (nil, nil)", results, err)
	}

	_ = idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}}, nil)
	results, err = idx.Search(ctx, []float32{1, 0}, 0, nil)
	if err != nil || results != nil {
		t.Errorf("k=0: got (%v, %v), want (nil, nil)", results, err)
	}
}

func TestFlatIndex_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	idx, _ := NewFlatIndex(3)
	ids := []string{"a", "b", "c"}
	vecs := [][]float32{{1, 0, 0}, {0, 1, 0}, {0.5, 0.5, 0}}
	meta := []map[string]string{{"user": "u1"}, {"user": "u1"}, {"user": "u2"}}
	if err := idx.Add(ctx, ids, vecs, meta); err != nil {
		t.Fatal(err)
	}
	_ = idx.Remove(ctx, []string{"b"})

	path := filepath.Join(t.TempDir(), "entries")
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	fresh, _ := NewFlatIndex(3)
	if err := fresh.Load(path); err != nil {
		t.Fatal(err)
	}

	queries := [][]float32{{1, 0, 0}, {0, 1, 0}, {0.7, 0.7, 0.1}}
	for _, query := range queries {
		want, err := idx.Search(ctx, query, 3, nil)
		if err != nil {
			t.Fatal(err)
		}
		got, err := fresh.Search(ctx, query, 3, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(want) {
			t.Fatalf("query %v: %d results, want %d", query, len(got), len(want))
		}
		for i := range want {
			if got[i].ID != want[i].ID || math.Abs(got[i].Score-want[i].Score) > 1e-6 {
				t.Errorf("query %v result %d: got (%s, %f), want (%s, %f)",
					query, i, got[i].ID, got[i].Score, want[i].ID, want[i].Score)
			}
		}
	}

	stats := fresh.Stats()
	if stats.TotalVectors != 3 || stats.UniqueIDs != 2 {
		t.Errorf("loaded stats = %+v, want TotalVectors=3 UniqueIDs=2", stats)
	}
	if _, ok := fresh.idToSlot["b"]; ok {
		t.Error("removed id must stay removed after load")
	}
}

func TestFlatIndex_LoadMismatchedPairIsFatal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	idx, _ := NewFlatIndex(2)
	_ = idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}}, nil)
	path := filepath.Join(dir, "entries")
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	// Missing metadata half.
	fresh, _ := NewFlatIndex(2)
	if err := fresh.Load(filepath.Join(dir, "nope")); err == nil {
		t.Fatal("expected error loading missing pair")
	}

	// Wrong dimension.
	wrongDim, _ := NewFlatIndex(5)
	if err := wrongDim.Load(path); err == nil {
		t.Fatal("expected dimension mismatch on load")
	}
}

func TestFlatIndex_LoadTruncatedVectorFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	idx, _ := NewFlatIndex(4)
	_ = idx.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}}, nil)
	path := filepath.Join(dir, "entries")
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(vecFilePath(path))
	if err != nil {
		t.Fatal(err)
	}
	// Cut mid-vector: header plus one and a half vectors.
	if err := os.WriteFile(vecFilePath(path), data[:len(data)-6], 0644); err != nil {
		t.Fatal(err)
	}

	fresh, _ := NewFlatIndex(4)
	err = fresh.Load(path)
	if err == nil {
		t.Fatal("expected error loading truncated vector file")
	}
	if !errors.Is(err, ErrIndexCorrupt) {
		t.Errorf("expected ErrIndexCorrupt, got %v", err)
	}
}
