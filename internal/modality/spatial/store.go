// Package spatial implements the geometry sub-store and its predicate
// queries (spec.md §3 "Geometry", §4.4 "spatial predicates"). No pack repo
// implements geospatial storage; built in the teacher's
// constructor-plus-typed-store idiom, with predicates kept to the closed
// set of geometry kinds the spec names.
package spatial

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"verisimdb/internal/modality"
	"verisimdb/internal/storage"
)

const namespace = "spatial"

const (
	KindPoint        = "point"
	KindBoundingBox  = "bbox"
	KindPolygon      = "polygon"
)

// Store holds one geometry per entity.
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

// InvalidGeometryError reports a geometry whose coordinate count disagrees
// with its declared kind.
type InvalidGeometryError struct {
	Kind string
	Got  int
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("spatial: invalid %s geometry: %d coordinates", e.Kind, e.Got)
}

func validateGeometry(g modality.Geometry) error {
	switch g.Kind {
	case KindPoint:
		if len(g.Coordinates) != 2 {
			return &InvalidGeometryError{Kind: g.Kind, Got: len(g.Coordinates)}
		}
	case KindBoundingBox:
		if len(g.Coordinates) != 4 {
			return &InvalidGeometryError{Kind: g.Kind, Got: len(g.Coordinates)}
		}
	case KindPolygon:
		if len(g.Coordinates) < 6 || len(g.Coordinates)%2 != 0 {
			return &InvalidGeometryError{Kind: g.Kind, Got: len(g.Coordinates)}
		}
	default:
		return fmt.Errorf("spatial: unknown geometry kind %q", g.Kind)
	}
	return nil
}

// Put validates and stores a geometry for id.
func (s *Store) Put(ctx context.Context, id string, g modality.Geometry) error {
	if err := validateGeometry(g); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typed.Put(ctx, id, g)
}

func (s *Store) Get(ctx context.Context, id string) (*modality.Geometry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var g modality.Geometry
	found, err := s.typed.Get(ctx, id, &g)
	if err != nil || !found {
		return nil, found, err
	}
	return &g, true, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typed.Delete(ctx, id)
}

func geometryBounds(g modality.Geometry) (minX, minY, maxX, maxY float64) {
	switch g.Kind {
	case KindPoint:
		return g.Coordinates[0], g.Coordinates[1], g.Coordinates[0], g.Coordinates[1]
	case KindBoundingBox:
		return g.Coordinates[0], g.Coordinates[1], g.Coordinates[2], g.Coordinates[3]
	case KindPolygon:
		minX, minY = g.Coordinates[0], g.Coordinates[1]
		maxX, maxY = minX, minY
		for i := 2; i+1 < len(g.Coordinates); i += 2 {
			x, y := g.Coordinates[i], g.Coordinates[i+1]
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
		return
	}
	return
}

func boundsOverlap(aMinX, aMinY, aMaxX, aMaxY, bMinX, bMinY, bMaxX, bMaxY float64) bool {
	return aMinX <= bMaxX && aMaxX >= bMinX && aMinY <= bMaxY && aMaxY >= bMinY
}

// QueryWithinBBox returns the ids of entities whose geometry's bounding
// box overlaps bbox, sorted for deterministic output.
func (s *Store) QueryWithinBBox(ctx context.Context, bbox modality.Geometry) ([]string, error) {
	if bbox.Kind != KindBoundingBox {
		return nil, fmt.Errorf("spatial: query footprint must be a %s geometry", KindBoundingBox)
	}
	if err := validateGeometry(bbox); err != nil {
		return nil, err
	}
	qMinX, qMinY, qMaxX, qMaxY := geometryBounds(bbox)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []string
	err := s.typed.ScanPrefixDecode(ctx, "", 0,
		func() interface{} { return &modality.Geometry{} },
		func(key string, value interface{}) error {
			g := value.(*modality.Geometry)
			minX, minY, maxX, maxY := geometryBounds(*g)
			if boundsOverlap(minX, minY, maxX, maxY, qMinX, qMinY, qMaxX, qMaxY) {
				matches = append(matches, key)
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
