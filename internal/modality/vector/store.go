// Package vector implements the embedding sub-store: fixed-dimension
// vectors keyed by entity id, with brute-force cosine similarity search
// (spec.md §3 "Embedding", §4.4 search_similar). Grounded on the teacher's
// internal/store/vector_store.go JSON-backed brute force path; spec.md §6
// explicitly scopes "which ANN index" out, so this store carries no
// accelerated index and brute-force scan is the sole, authoritative
// search path.
package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"verisimdb/internal/modality"
	"verisimdb/internal/storage"
)

const namespace = "vector"

// Embedder turns text into a fixed-dimension embedding. The core never
// trains or calls a model on the write path by default (spec.md
// Non-goals: "providing the ML models that produce embeddings"); an
// Embedder is an optional caller-supplied collaborator a deployment wires
// in at its own boundary, narrowing the teacher's
// internal/embedding.EmbeddingEngine interface to the one method this
// store needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store holds fixed-dimension embeddings. All embeddings in one Store
// share Dimension (spec.md §3 "Embedding" invariant).
type Store struct {
	mu        sync.RWMutex
	typed     *storage.TypedStore
	dimension int
	log       *zap.Logger
	embedder  Embedder
}

// New constructs a Store backed by backend, enforcing dimension on every
// write. embedder may be nil; PutText then returns ErrNoEmbedder.
func New(backend storage.Backend, dimension int, embedder Embedder, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		typed:     storage.NewTypedStore(backend, namespace),
		dimension: dimension,
		embedder:  embedder,
		log:       log,
	}
}

// ErrNoEmbedder is returned by PutText when the store was constructed
// without an Embedder.
var ErrNoEmbedder = fmt.Errorf("vector: no embedder configured")

// PutText embeds text via the store's configured Embedder and stores the
// result under id, for callers that want to hand the store raw text
// instead of a precomputed embedding.
func (s *Store) PutText(ctx context.Context, id, text, modelTag string) error {
	s.mu.RLock()
	embedder := s.embedder
	s.mu.RUnlock()
	if embedder == nil {
		return ErrNoEmbedder
	}
	vec, err := embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("vector: embed text: %w", err)
	}
	return s.Put(ctx, id, vec, modelTag)
}

// Dimension reports the fixed embedding dimension for this store.
func (s *Store) Dimension() int { return s.dimension }

// DimensionMismatchError reports an embedding whose length disagrees with
// the store's fixed dimension.
type DimensionMismatchError struct {
	Got, Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector: dimension mismatch (got %d, want %d)", e.Got, e.Want)
}

// Put stores or replaces the embedding for id.
func (s *Store) Put(ctx context.Context, id string, vec []float32, modelTag string) error {
	if len(vec) != s.dimension {
		return &DimensionMismatchError{Got: len(vec), Want: s.dimension}
	}
	emb := modality.Embedding{ID: id, Vector: vec, ModelTag: modelTag}
	return s.typed.Put(ctx, id, emb)
}

// Get returns the embedding for id, if present.
func (s *Store) Get(ctx context.Context, id string) (*modality.Embedding, bool, error) {
	var emb modality.Embedding
	found, err := s.typed.Get(ctx, id, &emb)
	if err != nil || !found {
		return nil, found, err
	}
	return &emb, true, nil
}

// Delete removes the embedding for id, reporting whether it previously existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	return s.typed.Delete(ctx, id)
}

// Scored pairs an embedding id with its similarity to a query vector.
type Scored struct {
	ID         string
	Similarity float64
}

// SearchSimilar returns the k nearest embeddings to query, ranked by
// descending cosine similarity (spec.md §4.4 "search_similar"), via a
// brute-force scan over every stored embedding.
func (s *Store) SearchSimilar(ctx context.Context, query []float32, k int) ([]Scored, error) {
	if len(query) != s.dimension {
		return nil, &DimensionMismatchError{Got: len(query), Want: s.dimension}
	}
	if k <= 0 {
		k = 10
	}

	var candidates []Scored
	err := s.typed.ScanPrefixDecode(ctx, "", 0,
		func() interface{} { return &modality.Embedding{} },
		func(_ string, value interface{}) error {
			emb := value.(*modality.Embedding)
			sim, err := cosineSimilarity(query, emb.Vector)
			if err != nil {
				return nil
			}
			candidates = append(candidates, Scored{ID: emb.ID, Similarity: sim})
			return nil
		})
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Similarity > candidates[j].Similarity })
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{Got: len(b), Want: len(a)}
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
