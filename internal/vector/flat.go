package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/healinggarden/kokoro/pkg/utils"
)

// FlatIndex is an append-only inner-product index over normalized vectors.
//
// Slots in the backing store are assigned monotonically and never reused:
// Remove only deletes the id-to-slot and slot-to-metadata mappings, the
// stored vector stays behind as an unreachable tombstone. Stats therefore
// reports TotalVectors >= UniqueIDs after any removal. Reclaiming the space
// requires rebuilding the index from the entry store.
type FlatIndex struct {
	dimension int
	vectors   [][]float32
	idToSlot  map[string]int
	slotMeta  map[int]slotRecord
	nextSlot  int
	mu        sync.RWMutex
}

type slotRecord struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata,omitempty"`
	AddedAt  time.Time         `json:"added_at"`
}

// flatMeta is the persisted lookup state, saved alongside the vector file.
type flatMeta struct {
	Dimension int                   `json:"dimension"`
	NextSlot  int                   `json:"next_slot"`
	IDToSlot  map[string]int        `json:"id_to_slot"`
	SlotMeta  map[string]slotRecord `json:"slot_meta"`
}

// NewFlatIndex creates an empty flat index with the given dimension.
func NewFlatIndex(dimension int) (*FlatIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive")
	}
	return &FlatIndex{
		dimension: dimension,
		vectors:   make([][]float32, 0),
		idToSlot:  make(map[string]int),
		slotMeta:  make(map[int]slotRecord),
	}, nil
}

// Type returns the index type identifier.
func (f *FlatIndex) Type() string {
	return string(IndexTypeFlat)
}

// Add appends vectors under the given IDs. Each vector is copied,
// L2-normalized, and assigned the next unused slot. Re-adding an existing
// ID points it at the new slot; the old slot is left behind unreferenced.
func (f *FlatIndex) Add(ctx context.Context, ids []string, vectors [][]float32, metadata []map[string]string) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	if metadata != nil && len(metadata) != len(ids) {
		return fmt.Errorf("metadata length mismatch: %d vs %d", len(metadata), len(ids))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range ids {
		if len(vectors[i]) != f.dimension {
			return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vectors[i]), f.dimension)
		}
	}
	now := time.Now()
	for i, id := range ids {
		vec := make([]float32, f.dimension)
		copy(vec, vectors[i])
		utils.NormalizeL2(vec)

		slot := f.nextSlot
		f.nextSlot++
		f.vectors = append(f.vectors, vec)
		f.idToSlot[id] = slot
		rec := slotRecord{ID: id, AddedAt: now}
		if metadata != nil {
			rec.Metadata = metadata[i]
		}
		f.slotMeta[slot] = rec
	}
	return nil
}

// Search scores the query against min(2*k, total) best slots, drops slots
// whose mapping was removed, applies the allow-list, and returns at most k
// hits in descending score order. The 2x over-fetch compensates for
// candidates eliminated by filtering; if fewer than k survive, fewer are
// returned.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int, filterIDs []string) ([]*Result, error) {
	if len(query) != f.dimension {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(query), f.dimension)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}

	q := make([]float32, f.dimension)
	copy(q, query)
	utils.NormalizeL2(q)

	type scored struct {
		slot  int
		score float64
	}
	scores := make([]scored, len(f.vectors))
	for slot, vec := range f.vectors {
		scores[slot] = scored{slot: slot, score: InnerProduct(q, vec)}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	candidates := 2 * k
	if candidates > len(scores) {
		candidates = len(scores)
	}

	var allowed map[string]bool
	if len(filterIDs) > 0 {
		allowed = make(map[string]bool, len(filterIDs))
		for _, id := range filterIDs {
			allowed[id] = true
		}
	}

	results := make([]*Result, 0, k)
	for _, sc := range scores[:candidates] {
		rec, ok := f.slotMeta[sc.slot]
		if !ok {
			continue // removed
		}
		if allowed != nil && !allowed[rec.ID] {
			continue
		}
		results = append(results, &Result{ID: rec.ID, Score: sc.score, Metadata: rec.Metadata})
		if len(results) >= k {
			break
		}
	}
	return results, nil
}

// Remove deletes the lookup entries for the given IDs. The backing vectors
// and the slot counter are untouched, so Stats().TotalVectors does not
// shrink.
func (f *FlatIndex) Remove(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		slot, ok := f.idToSlot[id]
		if !ok {
			continue
		}
		delete(f.idToSlot, id)
		delete(f.slotMeta, slot)
	}
	return nil
}

// vecFilePath and metaFilePath are the co-located pair Save/Load operate on.
func vecFilePath(path string) string  { return path + ".vec" }
func metaFilePath(path string) string { return path + ".meta" }

// Save persists the vectors and all lookup structures as a pair of
// co-located files. The pair is only valid together; Load refuses a
// mismatched pair. No other index operation may run during Save.
func (f *FlatIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	vf, err := os.Create(vecFilePath(path))
	if err != nil {
		return fmt.Errorf("create vector file: %w", err)
	}
	defer vf.Close()
	if err := binary.Write(vf, binary.LittleEndian, uint32(f.dimension)); err != nil {
		return fmt.Errorf("write dimension: %w", err)
	}
	if err := binary.Write(vf, binary.LittleEndian, uint32(len(f.vectors))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for _, vec := range f.vectors {
		if _, err := vf.Write(Float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}

	meta := flatMeta{
		Dimension: f.dimension,
		NextSlot:  f.nextSlot,
		IDToSlot:  f.idToSlot,
		SlotMeta:  make(map[string]slotRecord, len(f.slotMeta)),
	}
	for slot, rec := range f.slotMeta {
		meta.SlotMeta[strconv.Itoa(slot)] = rec
	}
	data, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(metaFilePath(path), data, 0644); err != nil {
		return fmt.Errorf("write metadata file: %w", err)
	}
	return nil
}

// Load replaces the in-memory contents with the persisted pair at path.
// A missing or inconsistent half of the pair is fatal: the error wraps
// ErrIndexCorrupt and the caller must treat the index as uninitialized.
func (f *FlatIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	vf, err := os.Open(vecFilePath(path))
	if err != nil {
		return fmt.Errorf("%w: open vector file: %v", ErrIndexCorrupt, err)
	}
	defer vf.Close()
	metaData, err := os.ReadFile(metaFilePath(path))
	if err != nil {
		return fmt.Errorf("%w: open metadata file: %v", ErrIndexCorrupt, err)
	}

	var dim, n uint32
	if err := binary.Read(vf, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("%w: read dimension: %v", ErrIndexCorrupt, err)
	}
	if int(dim) != f.dimension {
		return fmt.Errorf("%w: file has dimension %d, index expects %d", ErrDimensionMismatch, dim, f.dimension)
	}
	if err := binary.Read(vf, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("%w: read count: %v", ErrIndexCorrupt, err)
	}
	vectors := make([][]float32, 0, n)
	buf := make([]byte, f.dimension*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(vf, buf); err != nil {
			return fmt.Errorf("%w: read vector %d: %v", ErrIndexCorrupt, i, err)
		}
		vectors = append(vectors, BytesToFloat32Slice(buf))
	}

	var meta flatMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return fmt.Errorf("%w: parse metadata: %v", ErrIndexCorrupt, err)
	}
	if meta.Dimension != f.dimension {
		return fmt.Errorf("%w: metadata has dimension %d, index expects %d", ErrDimensionMismatch, meta.Dimension, f.dimension)
	}
	if meta.NextSlot != len(vectors) {
		return fmt.Errorf("%w: metadata expects %d slots, vector file has %d", ErrIndexCorrupt, meta.NextSlot, len(vectors))
	}
	slotMeta := make(map[int]slotRecord, len(meta.SlotMeta))
	for key, rec := range meta.SlotMeta {
		slot, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("%w: bad slot key %q", ErrIndexCorrupt, key)
		}
		slotMeta[slot] = rec
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors = vectors
	f.nextSlot = meta.NextSlot
	f.idToSlot = meta.IDToSlot
	if f.idToSlot == nil {
		f.idToSlot = make(map[string]int)
	}
	f.slotMeta = slotMeta
	return nil
}

// Stats returns index occupancy counters.
func (f *FlatIndex) Stats() Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Stats{
		TotalVectors: len(f.vectors),
		UniqueIDs:    len(f.idToSlot),
		Dimension:    f.dimension,
		Backend:      string(IndexTypeFlat),
	}
}

// Size returns the number of vectors in the backing store, including
// tombstoned slots.
func (f *FlatIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Close is a no-op for FlatIndex.
func (f *FlatIndex) Close() error {
	return nil
}
