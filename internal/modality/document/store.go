// Package document implements the searchable text sub-store (spec.md §3
// "Document", §4.4 search_text). Grounded on the teacher's
// internal/store/local_knowledge.go full-text idiom, generalized from a
// SQLite FTS5 virtual table to an inverted token index over the typed
// storage backend so search_text needs no database-specific query
// language.
package document

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"verisimdb/internal/modality"
	"verisimdb/internal/storage"
)

const (
	docsNamespace  = "document"
	indexNamespace = "document_index"
)

// Store holds documents plus an inverted token index over title+body for
// search_text.
type Store struct {
	mu    sync.RWMutex
	docs  *storage.TypedStore
	index *storage.TypedStore
	log   *zap.Logger
}

func New(backend storage.Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		docs:  storage.NewTypedStore(backend, docsNamespace),
		index: storage.NewTypedStore(backend, indexNamespace),
		log:   log,
	}
}

type postingList struct {
	IDs []string `json:"ids"`
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Put stores or replaces a document, updating the inverted index.
func (s *Store) Put(ctx context.Context, doc modality.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var previous modality.Document
	if found, err := s.docs.Get(ctx, doc.ID, &previous); err != nil {
		return err
	} else if found {
		for _, tok := range tokenize(previous.Title + " " + previous.Body) {
			s.removeFromPosting(ctx, tok, previous.ID)
		}
	}

	if err := s.docs.Put(ctx, doc.ID, doc); err != nil {
		return err
	}
	for _, tok := range tokenize(doc.Title + " " + doc.Body) {
		if err := s.addToPosting(ctx, tok, doc.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) addToPosting(ctx context.Context, token, id string) error {
	var list postingList
	_, err := s.index.Get(ctx, token, &list)
	if err != nil {
		return err
	}
	for _, existing := range list.IDs {
		if existing == id {
			return nil
		}
	}
	list.IDs = append(list.IDs, id)
	return s.index.Put(ctx, token, list)
}

func (s *Store) removeFromPosting(ctx context.Context, token, id string) {
	var list postingList
	found, err := s.index.Get(ctx, token, &list)
	if err != nil || !found {
		return
	}
	filtered := list.IDs[:0]
	for _, existing := range list.IDs {
		if existing != id {
			filtered = append(filtered, existing)
		}
	}
	list.IDs = filtered
	_ = s.index.Put(ctx, token, list)
}

// Get returns the document for id.
func (s *Store) Get(ctx context.Context, id string) (*modality.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var doc modality.Document
	found, err := s.docs.Get(ctx, id, &doc)
	if err != nil || !found {
		return nil, found, err
	}
	return &doc, true, nil
}

// Delete removes the document for id, reporting whether it previously existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc modality.Document
	found, err := s.docs.Get(ctx, id, &doc)
	if err != nil || !found {
		return found, err
	}
	for _, tok := range tokenize(doc.Title + " " + doc.Body) {
		s.removeFromPosting(ctx, tok, id)
	}
	return s.docs.Delete(ctx, id)
}

// Scored pairs a document id with a relevance score.
type Scored struct {
	ID    string
	Score float64
}

// SearchText returns documents whose title/body match any query token,
// ranked by the count of matching distinct query tokens, capped at limit
// (spec.md §4.4 "search_text").
func (s *Store) SearchText(ctx context.Context, query string, limit int) ([]Scored, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	tokens := tokenize(query)
	hits := make(map[string]int)
	for _, tok := range tokens {
		var list postingList
		found, err := s.index.Get(ctx, tok, &list)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		for _, id := range list.IDs {
			hits[id]++
		}
	}

	results := make([]Scored, 0, len(hits))
	for id, count := range hits {
		results = append(results, Scored{ID: id, Score: float64(count) / float64(max(1, len(tokens)))})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
