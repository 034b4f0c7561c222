package vector

import "testing"

func TestNewIndex_DefaultsToFlat(t *testing.T) {
	idx, err := NewIndex("", 8, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if _, ok := idx.(*FlatIndex); !ok {
		t.Errorf("expected *FlatIndex, got %T", idx)
	}
}

func TestNewIndex_UnknownType(t *testing.T) {
	if _, err := NewIndex("chroma", 8, nil); err == nil {
		t.Error("expected error for unknown index type")
	}
}

func TestNewIndex_QdrantRequiresOptions(t *testing.T) {
	if _, err := NewIndex("qdrant", 8, nil); err == nil {
		t.Error("expected error when qdrant options are missing")
	}
}

func TestNewIndex_InvalidDimension(t *testing.T) {
	if _, err := NewIndex("flat", 0, nil); err == nil {
		t.Error("expected error for non-positive dimension")
	}
}
