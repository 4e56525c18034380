package provenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"verisimdb/internal/modality"
	"verisimdb/internal/storage"
)

func TestAppendAndGet(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	now := time.Now().UTC()
	require.NoError(t, s.Append(ctx, "e1", modality.ProvenanceEntry{Timestamp: now, Actor: "svc-a", Action: "create"}))
	require.NoError(t, s.Append(ctx, "e1", modality.ProvenanceEntry{Timestamp: now.Add(time.Minute), Actor: "svc-b", Action: "update"}))

	entries, err := s.Get(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "create", entries[0].Action)
	require.Equal(t, "update", entries[1].Action)
}

func TestGetUnknownEntityReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	entries, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestDeleteRemovesChain(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	require.NoError(t, s.Append(ctx, "e1", modality.ProvenanceEntry{Actor: "svc-a", Action: "create"}))
	existed, err := s.Delete(ctx, "e1")
	require.NoError(t, err)
	require.True(t, existed)

	entries, err := s.Get(ctx, "e1")
	require.NoError(t, err)
	require.Empty(t, entries)
}
