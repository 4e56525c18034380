// Package semantic implements the RDF-like annotation sub-store (spec.md
// §3 "SemanticAnnotation", "SemanticType"). No pack repo implements a
// semantic-type constraint system (the teacher's closest analogue,
// google/mangle datalog evaluation, was judged disproportionate to this
// scope per DESIGN.md); built in the teacher's constructor-plus-typed-store
// idiom directly from the invariants the spec states.
package semantic

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"verisimdb/internal/modality"
	"verisimdb/internal/storage"
)

const (
	annotationNamespace = "semantic_annotation"
	typeNamespace       = "semantic_type"
)

// Store holds semantic annotations and the declared type registry used to
// validate them.
type Store struct {
	mu          sync.RWMutex
	annotations *storage.TypedStore
	types       *storage.TypedStore
	log         *zap.Logger
}

func New(backend storage.Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		annotations: storage.NewTypedStore(backend, annotationNamespace),
		types:       storage.NewTypedStore(backend, typeNamespace),
		log:         log,
	}
}

// PutType registers or replaces a SemanticType definition.
func (s *Store) PutType(ctx context.Context, t modality.SemanticType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.types.Put(ctx, t.IRI, t)
}

// GetType returns a registered SemanticType by IRI.
func (s *Store) GetType(ctx context.Context, iri string) (*modality.SemanticType, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var t modality.SemanticType
	found, err := s.types.Get(ctx, iri, &t)
	if err != nil || !found {
		return nil, found, err
	}
	return &t, true, nil
}

// ConstraintViolationError reports a SemanticAnnotation that fails one of
// its declared types' constraints.
type ConstraintViolationError struct {
	TypeIRI  string
	Property string
	Detail   string
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("semantic: constraint violation for type %s property %q: %s", e.TypeIRI, e.Property, e.Detail)
}

// Put validates ann against every declared type's constraints (types not
// found in the registry are skipped — the registry is optional metadata,
// not a closed-world schema) and stores it.
func (s *Store) Put(ctx context.Context, ann modality.SemanticAnnotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, typeIRI := range ann.Types {
		var t modality.SemanticType
		found, err := s.types.Get(ctx, typeIRI, &t)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if err := validate(t, ann); err != nil {
			return err
		}
	}
	return s.annotations.Put(ctx, ann.EntityID, ann)
}

func validate(t modality.SemanticType, ann modality.SemanticAnnotation) error {
	for _, c := range t.Constraints {
		switch c.Kind {
		case modality.ConstraintRequiredProperty:
			if _, ok := ann.Properties[c.Property]; !ok {
				return &ConstraintViolationError{TypeIRI: t.IRI, Property: c.Property, Detail: "required property missing"}
			}
		case modality.ConstraintPattern:
			v, ok := ann.Properties[c.Property]
			if !ok {
				continue
			}
			re, err := regexp.Compile(c.Pattern)
			if err != nil {
				return &ConstraintViolationError{TypeIRI: t.IRI, Property: c.Property, Detail: "invalid pattern: " + err.Error()}
			}
			if !re.MatchString(v.Value) {
				return &ConstraintViolationError{TypeIRI: t.IRI, Property: c.Property, Detail: "value does not match pattern"}
			}
		case modality.ConstraintNumericRange:
			v, ok := ann.Properties[c.Property]
			if !ok {
				continue
			}
			var num float64
			if _, err := fmt.Sscanf(v.Value, "%g", &num); err != nil {
				return &ConstraintViolationError{TypeIRI: t.IRI, Property: c.Property, Detail: "value is not numeric"}
			}
			if num < c.Min || num > c.Max {
				return &ConstraintViolationError{TypeIRI: t.IRI, Property: c.Property, Detail: "value out of range"}
			}
		case modality.ConstraintCustomValidator:
			// External custom validators are named but not executed here:
			// spec.md scopes the proof/validation *interface*, not a plugin
			// runtime for arbitrary named validators.
		}
	}
	return nil
}

// Get returns the semantic annotation for id.
func (s *Store) Get(ctx context.Context, id string) (*modality.SemanticAnnotation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ann modality.SemanticAnnotation
	found, err := s.annotations.Get(ctx, id, &ann)
	if err != nil || !found {
		return nil, found, err
	}
	return &ann, true, nil
}

// Delete removes the semantic annotation for id.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.annotations.Delete(ctx, id)
}
