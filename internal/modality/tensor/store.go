// Package tensor implements the dense numeric-array sub-store (spec.md §3
// "Tensor"). No pack repo stores tensors directly; built in the teacher's
// constructor-plus-typed-storage idiom (as used throughout
// internal/store) directly from the invariant the spec states: payload
// length equals the product of the shape extents.
package tensor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"verisimdb/internal/modality"
	"verisimdb/internal/storage"
)

const namespace = "tensor"

// Store holds tensors keyed by entity id.
type Store struct {
	typed *storage.TypedStore
	log   *zap.Logger
}

func New(backend storage.Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{typed: storage.NewTypedStore(backend, namespace), log: log}
}

// ShapeMismatchError reports a tensor whose payload length disagrees with
// the product of its declared shape.
type ShapeMismatchError struct {
	PayloadLength, ShapeProduct int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("tensor: payload length %d does not match shape product %d", e.PayloadLength, e.ShapeProduct)
}

// Put validates and stores a tensor.
func (s *Store) Put(ctx context.Context, t modality.Tensor) error {
	if len(t.Payload) != t.ShapeProduct() {
		return &ShapeMismatchError{PayloadLength: len(t.Payload), ShapeProduct: t.ShapeProduct()}
	}
	for _, extent := range t.Shape {
		if extent <= 0 {
			return fmt.Errorf("tensor: shape extents must be positive, got %d", extent)
		}
	}
	return s.typed.Put(ctx, t.ID, t)
}

func (s *Store) Get(ctx context.Context, id string) (*modality.Tensor, bool, error) {
	var t modality.Tensor
	found, err := s.typed.Get(ctx, id, &t)
	if err != nil || !found {
		return nil, found, err
	}
	return &t, true, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	return s.typed.Delete(ctx, id)
}
