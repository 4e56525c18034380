package temporal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"verisimdb/internal/storage"
)

func TestAppendAssignsSequentialVersions(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	r0, err := s.Append(ctx, "e1", Record{Payload: map[string]any{"v": 0}})
	require.NoError(t, err)
	require.Equal(t, uint64(0), r0.Version)

	r1, err := s.Append(ctx, "e1", Record{Payload: map[string]any{"v": 1}})
	require.NoError(t, err)
	require.Equal(t, uint64(1), r1.Version)

	latest, found, err := s.Latest(ctx, "e1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(1), latest.Version)
}

func TestAtTimeReturnsLastRecordAtOrBefore(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.Append(ctx, "e1", Record{Timestamp: base, Payload: map[string]any{"v": 0}})
	require.NoError(t, err)
	_, err = s.Append(ctx, "e1", Record{Timestamp: base.Add(time.Hour), Payload: map[string]any{"v": 1}})
	require.NoError(t, err)
	_, err = s.Append(ctx, "e1", Record{Timestamp: base.Add(2 * time.Hour), Payload: map[string]any{"v": 2}})
	require.NoError(t, err)

	rec, found, err := s.AtTime(ctx, "e1", base.Add(90*time.Minute))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(1), rec.Version)

	_, found, err = s.AtTime(ctx, "e1", base.Add(-time.Minute))
	require.NoError(t, err)
	require.False(t, found)
}

func TestAtVersionReturnsSpecificRecord(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	_, err := s.Append(ctx, "e1", Record{Payload: map[string]any{"v": 0}})
	require.NoError(t, err)
	_, err = s.Append(ctx, "e1", Record{Payload: map[string]any{"v": 1}})
	require.NoError(t, err)

	rec, found, err := s.AtVersion(ctx, "e1", 0)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, float64(0), rec.Payload["v"])
}

func TestHistoryReturnsFullChain(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	for i := 0; i < 3; i++ {
		_, err := s.Append(ctx, "e1", Record{Payload: map[string]any{"v": i}})
		require.NoError(t, err)
	}
	history, err := s.History(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, history, 3)
}

func TestDeleteRemovesChain(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(nil), nil)

	_, err := s.Append(ctx, "e1", Record{Payload: map[string]any{"v": 0}})
	require.NoError(t, err)

	existed, err := s.Delete(ctx, "e1")
	require.NoError(t, err)
	require.True(t, existed)

	_, found, err := s.Latest(ctx, "e1")
	require.NoError(t, err)
	require.False(t, found)
}
