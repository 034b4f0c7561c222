package embedding

import (
	"context"
	"testing"
	"time"
)

func TestFingerprint_StableAndDistinct(t *testing.T) {
	if Fingerprint("today was hard") != Fingerprint("today was hard") {
		t.Error("identical text must fingerprint identically")
	}
	if Fingerprint("a") == Fingerprint("b") {
		t.Error("different text must fingerprint differently")
	}
	// Leading/trailing whitespace is the caller's problem, not the cache's.
	if Fingerprint("a") == Fingerprint("a ") {
		t.Error("fingerprint must be over the exact text")
	}
}

func TestMemoryCache_GetSet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("miss expected for unknown text")
	}

	want := &CachedEmbedding{
		Vector:    []float32{0.1, 0.2},
		Dimension: 2,
		Model:     "mock",
		CreatedAt: time.Now(),
	}
	if err := c.Set(ctx, "some text", want, time.Minute); err != nil {
		t.Fatal(err)
	}
	got, ok := c.Get(ctx, "some text")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Model != want.Model || len(got.Vector) != 2 {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	_ = c.Set(ctx, "text", &CachedEmbedding{Vector: []float32{1}}, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get(ctx, "text"); ok {
		t.Error("expired entry must miss")
	}
}

func TestMemoryCache_EvictsOldestAtCapacity(t *testing.T) {
	c := NewMemoryCacheWithCapacity(2)
	ctx := context.Background()
	_ = c.Set(ctx, "first", &CachedEmbedding{Vector: []float32{1}}, time.Minute)
	_ = c.Set(ctx, "second", &CachedEmbedding{Vector: []float32{2}}, time.Minute)

	// Touch "first" so "second" becomes the eviction candidate.
	if _, ok := c.Get(ctx, "first"); !ok {
		t.Fatal("expected hit for first")
	}
	_ = c.Set(ctx, "third", &CachedEmbedding{Vector: []float32{3}}, time.Minute)

	if _, ok := c.Get(ctx, "second"); ok {
		t.Error("least recently used entry must be evicted at capacity")
	}
	if _, ok := c.Get(ctx, "first"); !ok {
		t.Error("recently used entry must survive eviction")
	}
	if _, ok := c.Get(ctx, "third"); !ok {
		t.Error("newest entry must be present")
	}
	if c.lru.Len() != 2 || len(c.entries) != 2 {
		t.Errorf("cache grew past capacity: list %d, map %d", c.lru.Len(), len(c.entries))
	}
}

func TestMemoryCache_SetRefreshesExisting(t *testing.T) {
	c := NewMemoryCacheWithCapacity(2)
	ctx := context.Background()
	_ = c.Set(ctx, "text", &CachedEmbedding{Vector: []float32{1}}, time.Minute)
	_ = c.Set(ctx, "text", &CachedEmbedding{Vector: []float32{2}}, time.Minute)

	got, ok := c.Get(ctx, "text")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Vector[0] != 2 {
		t.Errorf("expected refreshed value, got %v", got.Vector)
	}
	if c.lru.Len() != 1 {
		t.Errorf("duplicate set must not add an entry, list has %d", c.lru.Len())
	}
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()
	a, err := e.Embed(ctx, "the same text")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Embed(ctx, "the same text")
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 16 {
		t.Fatalf("dimension %d, want 16", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embeddings differ at %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestMockEmbedder_Batch(t *testing.T) {
	e := NewMockEmbedder(8)
	out, err := e.EmbedBatch(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(out))
	}
	single, _ := e.Embed(context.Background(), "one")
	for i := range single {
		if out[0][i] != single[i] {
			t.Fatal("batch embedding must match single embedding")
		}
	}
}
