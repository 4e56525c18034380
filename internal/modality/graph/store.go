// Package graph implements the subject/predicate/object sub-store used for
// cross-entity links and traversal (spec.md §3 "GraphEdge", §4.4
// query_related). Grounded on the teacher's
// internal/store/local_graph.go StoreLink/QueryLinks shape, generalized
// from a single SQLite table to the typed storage backend with an explicit
// reverse index so incoming-edge lookups don't require a full scan.
package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"verisimdb/internal/modality"
	"verisimdb/internal/storage"
)

const (
	outgoingNamespace = "graph_out"
	incomingNamespace = "graph_in"
)

// Store holds a subject/predicate/object edge set, indexed both by subject
// (outgoing) and by object (incoming) to support query_related in either
// direction without scanning the whole store.
type Store struct {
	mu       sync.RWMutex
	outgoing *storage.TypedStore
	incoming *storage.TypedStore
	log      *zap.Logger
}

// New constructs a Store backed by backend.
func New(backend storage.Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		outgoing: storage.NewTypedStore(backend, outgoingNamespace),
		incoming: storage.NewTypedStore(backend, incomingNamespace),
		log:      log,
	}
}

type edgeSet struct {
	Edges []modality.GraphEdge `json:"edges"`
}

// PutEdges replaces the full outgoing edge set for subject. Invalid edges
// (empty subject/predicate, or a missing object per IsLiteral) are rejected
// before anything is written.
func (s *Store) PutEdges(ctx context.Context, subject string, edges []modality.GraphEdge) error {
	for _, e := range edges {
		if e.Subject == "" || e.Predicate == "" {
			return fmt.Errorf("graph: subject and predicate must be non-empty")
		}
		if !e.IsLiteral && e.Object == "" {
			return fmt.Errorf("graph: non-literal edge requires an object IRI")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var previous edgeSet
	found, err := s.outgoing.Get(ctx, subject, &previous)
	if err != nil {
		return err
	}
	if found {
		for _, e := range previous.Edges {
			if !e.IsLiteral {
				s.removeFromIncoming(ctx, e.Object, subject, e.Predicate)
			}
		}
	}

	if err := s.outgoing.Put(ctx, subject, edgeSet{Edges: edges}); err != nil {
		return err
	}
	for _, e := range edges {
		if !e.IsLiteral {
			if err := s.addToIncoming(ctx, e.Object, subject, e.Predicate); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) addToIncoming(ctx context.Context, object, subject, predicate string) error {
	var set edgeSet
	_, err := s.incoming.Get(ctx, object, &set)
	if err != nil {
		return err
	}
	set.Edges = append(set.Edges, modality.GraphEdge{Subject: subject, Predicate: predicate, Object: object})
	return s.incoming.Put(ctx, object, set)
}

func (s *Store) removeFromIncoming(ctx context.Context, object, subject, predicate string) {
	var set edgeSet
	found, err := s.incoming.Get(ctx, object, &set)
	if err != nil || !found {
		return
	}
	filtered := set.Edges[:0]
	for _, e := range set.Edges {
		if e.Subject == subject && e.Predicate == predicate {
			continue
		}
		filtered = append(filtered, e)
	}
	set.Edges = filtered
	_ = s.incoming.Put(ctx, object, set)
}

// Delete removes every outgoing edge for subject (and the corresponding
// reverse-index entries), reporting whether any edges existed.
func (s *Store) Delete(ctx context.Context, subject string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var previous edgeSet
	found, err := s.outgoing.Get(ctx, subject, &previous)
	if err != nil || !found {
		return found, err
	}
	for _, e := range previous.Edges {
		if !e.IsLiteral {
			s.removeFromIncoming(ctx, e.Object, subject, e.Predicate)
		}
	}
	existed, err := s.outgoing.Delete(ctx, subject)
	return existed, err
}

// Get returns the outgoing edge set for subject.
func (s *Store) Get(ctx context.Context, subject string) ([]modality.GraphEdge, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var set edgeSet
	found, err := s.outgoing.Get(ctx, subject, &set)
	if err != nil || !found {
		return nil, found, err
	}
	return set.Edges, true, nil
}

// Direction selects which side of an entity's edges QueryRelated inspects.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
	Both
)

// QueryRelated returns the subject/object ids reachable from entity via an
// edge matching predicate (any predicate if empty), in the requested
// direction (spec.md §4.4 "query_related").
func (s *Store) QueryRelated(ctx context.Context, entity, predicate string, dir Direction) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	if dir == Outgoing || dir == Both {
		var set edgeSet
		if found, err := s.outgoing.Get(ctx, entity, &set); err != nil {
			return nil, err
		} else if found {
			for _, e := range set.Edges {
				if predicate == "" || e.Predicate == predicate {
					if e.IsLiteral {
						continue
					}
					add(e.Object)
				}
			}
		}
	}
	if dir == Incoming || dir == Both {
		var set edgeSet
		if found, err := s.incoming.Get(ctx, entity, &set); err != nil {
			return nil, err
		} else if found {
			for _, e := range set.Edges {
				if predicate == "" || e.Predicate == predicate {
					add(e.Subject)
				}
			}
		}
	}

	sort.Strings(out)
	return out, nil
}
