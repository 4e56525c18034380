package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"verisimdb/internal/storage"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), 3, nil, nil)

	require.NoError(t, s.Put(ctx, "a", []float32{1, 0, 0}, "test-model"))

	emb, found, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []float32{1, 0, 0}, emb.Vector)

	existed, err := s.Delete(ctx, "a")
	require.NoError(t, err)
	require.True(t, existed)
}

func TestPutRejectsWrongDimension(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), 3, nil, nil)

	err := s.Put(ctx, "a", []float32{1, 0}, "")
	require.Error(t, err)
	var mismatch *DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestSearchSimilarRanksByCosine(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), 2, nil, nil)

	require.NoError(t, s.Put(ctx, "same", []float32{1, 0}, ""))
	require.NoError(t, s.Put(ctx, "orthogonal", []float32{0, 1}, ""))
	require.NoError(t, s.Put(ctx, "opposite", []float32{-1, 0}, ""))

	results, err := s.SearchSimilar(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "same", results[0].ID)
	require.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	require.Equal(t, "opposite", results[2].ID)
}

type stubEmbedder struct {
	vec []float32
	err error
}

func (e stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vec, nil
}

func TestPutTextUsesEmbedder(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), 3, stubEmbedder{vec: []float32{1, 2, 3}}, nil)

	require.NoError(t, s.PutText(ctx, "doc-1", "hello world", "stub-model"))

	emb, found, err := s.Get(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []float32{1, 2, 3}, emb.Vector)
	require.Equal(t, "stub-model", emb.ModelTag)
}

func TestPutTextWithoutEmbedderErrors(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), 3, nil, nil)

	err := s.PutText(ctx, "doc-1", "hello world", "")
	require.ErrorIs(t, err, ErrNoEmbedder)
}

func TestSearchSimilarRespectsLimit(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), 1, nil, nil)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Put(ctx, id, []float32{1}, ""))
	}

	results, err := s.SearchSimilar(ctx, []float32{1}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
}
