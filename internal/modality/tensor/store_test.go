package tensor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"verisimdb/internal/modality"
	"verisimdb/internal/storage"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	tn := modality.Tensor{ID: "t1", Shape: []int{2, 3}, ElementType: "f64", Payload: make([]float64, 6)}
	require.NoError(t, s.Put(ctx, tn))

	got, found, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []int{2, 3}, got.Shape)

	existed, err := s.Delete(ctx, "t1")
	require.NoError(t, err)
	require.True(t, existed)
}

func TestPutRejectsShapeMismatch(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	tn := modality.Tensor{ID: "t1", Shape: []int{2, 3}, Payload: make([]float64, 5)}
	err := s.Put(ctx, tn)
	require.Error(t, err)
	var mismatch *ShapeMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestPutRejectsNonPositiveExtent(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	tn := modality.Tensor{ID: "t1", Shape: []int{0, 3}, Payload: make([]float64, 0)}
	err := s.Put(ctx, tn)
	require.Error(t, err)
}
