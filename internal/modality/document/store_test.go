package document

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

	doc := modality.Document{ID: "d1", Title: "Hexad Store", Body: "write-ahead log and drift detection"}
	require.NoError(t, s.Put(ctx, doc))

	got, found, err := s.Get(ctx, "d1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, doc.Title, got.Title)

	existed, err := s.Delete(ctx, "d1")
	require.NoError(t, err)
	require.True(t, existed)
}

func TestSearchTextRanksByMatchCount(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	require.NoError(t, s.Put(ctx, modality.Document{ID: "d1", Title: "drift detection", Body: "semantic vector drift"}))
	require.NoError(t, s.Put(ctx, modality.Document{ID: "d2", Title: "unrelated", Body: "something else entirely"}))

	results, err := s.SearchText(ctx, "drift semantic", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "d1", results[0].ID)
}

func TestSearchTextRespectsLimit(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put(ctx, modality.Document{ID: string(rune('a' + i)), Title: "common", Body: "token"}))
	}

	results, err := s.SearchText(ctx, "common", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
}
