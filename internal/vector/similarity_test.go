package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	v := []float32{0.3, -0.5, 0.8}
	sim := CosineSimilarity(v, v)
	if math.Abs(sim-1.0) > 1e-6 {
		t.Errorf("sim(v,v) = %f, want 1.0", sim)
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-2, 0.5, 4}
	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Error("cosine similarity must be symmetric")
	}
}

func TestCosineSimilarity_ZeroNormGuard(t *testing.T) {
	a := []float32{1, 2, 3}
	zero := []float32{0, 0, 0}
	if got := CosineSimilarity(a, zero); got != 0 {
		t.Errorf("sim(a, zero) = %f, want 0", got)
	}
	if got := CosineSimilarity(zero, zero); got != 0 {
		t.Errorf("sim(zero, zero) = %f, want 0", got)
	}
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Errorf("mismatched dimensions = %f, want 0", got)
	}
}

func TestFloat32BytesRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.75, 0}
	out := BytesToFloat32Slice(Float32SliceToBytes(in))
	if len(out) != len(in) {
		t.Fatalf("length %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %f, want %f", i, out[i], in[i])
		}
	}
}
