// Package provenance implements the append-only provenance-chain sub-store
// (spec.md §3 "ProvenanceEntry"). No pack repo tracks provenance directly;
// built in the teacher's constructor-plus-typed-store idiom as an
// append-only log per entity, mirroring the chain shape used by
// internal/modality/temporal for versions.
package provenance

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"verisimdb/internal/modality"
	"verisimdb/internal/storage"
)

const namespace = "provenance"

type chain struct {
	Entries []modality.ProvenanceEntry `json:"entries"`
}

// Store holds an append-only provenance log per entity.
type Store struct {
	mu    sync.RWMutex
	typed *storage.TypedStore
	log   *zap.Logger
}

func New(backend storage.Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{typed: storage.NewTypedStore(backend, namespace), log: log}
}

// Append adds entry to id's provenance chain.
func (s *Store) Append(ctx context.Context, id string, entry modality.ProvenanceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c chain
	if _, err := s.typed.Get(ctx, id, &c); err != nil {
		return err
	}
	c.Entries = append(c.Entries, entry)
	return s.typed.Put(ctx, id, c)
}

// Get returns the full provenance chain for id, oldest first.
func (s *Store) Get(ctx context.Context, id string) ([]modality.ProvenanceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var c chain
	if _, err := s.typed.Get(ctx, id, &c); err != nil {
		return nil, err
	}
	return c.Entries, nil
}

// Delete removes the provenance chain for id.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typed.Delete(ctx, id)
}
