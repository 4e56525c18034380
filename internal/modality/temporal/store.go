// Package temporal implements the per-entity version chain sub-store
// (spec.md §3 "Version<T>", §4.4 at_time). Grounded on the version/rollback
// shape of the teacher's internal/shards/coder/transaction.go, generalized
// from a single staged file transaction to an ordered, queryable chain
// persisted through the typed storage backend.
package temporal

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"verisimdb/internal/storage"
)

const namespace = "temporal"

// Record is one entry in an entity's version chain, carrying an opaque
// JSON payload so the temporal store stays agnostic to what it is
// versioning (spec.md §3 "Version<T>").
type Record struct {
	Version   uint64          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   map[string]any  `json:"payload"`
	Author    string          `json:"author,omitempty"`
	Message   string          `json:"message,omitempty"`
}

type chain struct {
	Records []Record `json:"records"`
}

// Store holds an ordered version chain per entity.
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

// Append adds a new version to id's chain, assigning the next version
// number (the caller's Version field is overwritten).
func (s *Store) Append(ctx context.Context, id string, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c chain
	if _, err := s.typed.Get(ctx, id, &c); err != nil {
		return Record{}, err
	}

	var nextVersion uint64
	if len(c.Records) > 0 {
		nextVersion = c.Records[len(c.Records)-1].Version + 1
	}
	rec.Version = nextVersion
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	c.Records = append(c.Records, rec)

	if err := s.typed.Put(ctx, id, c); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Latest returns the most recent version for id.
func (s *Store) Latest(ctx context.Context, id string) (*Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c chain
	found, err := s.typed.Get(ctx, id, &c)
	if err != nil || !found || len(c.Records) == 0 {
		return nil, false, err
	}
	r := c.Records[len(c.Records)-1]
	return &r, true, nil
}

// AtTime returns the last version recorded at or before timestamp
// (spec.md §4.4 "at_time").
func (s *Store) AtTime(ctx context.Context, id string, timestamp time.Time) (*Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c chain
	found, err := s.typed.Get(ctx, id, &c)
	if err != nil || !found {
		return nil, false, err
	}

	idx := sort.Search(len(c.Records), func(i int) bool {
		return c.Records[i].Timestamp.After(timestamp)
	})
	if idx == 0 {
		return nil, false, nil
	}
	r := c.Records[idx-1]
	return &r, true, nil
}

// AtVersion returns the version-numbered entry for id.
func (s *Store) AtVersion(ctx context.Context, id string, version uint64) (*Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c chain
	found, err := s.typed.Get(ctx, id, &c)
	if err != nil || !found {
		return nil, false, err
	}
	for _, r := range c.Records {
		if r.Version == version {
			rCopy := r
			return &rCopy, true, nil
		}
	}
	return nil, false, nil
}

// History returns the full version chain for id, oldest first.
func (s *Store) History(ctx context.Context, id string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var c chain
	if _, err := s.typed.Get(ctx, id, &c); err != nil {
		return nil, err
	}
	return c.Records, nil
}

// Delete removes the whole version chain for id.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typed.Delete(ctx, id)
}
