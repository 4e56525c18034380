package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openTestDurable(t *testing.T) *DurableBackend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.db")
	b, err := OpenDurable(DurableOptions{Path: path}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestDurableBackendPutGetDelete(t *testing.T) {
	ctx := context.Background()
	b := openTestDurable(t)

	require.NoError(t, b.Put(ctx, []byte("k"), []byte("v")))
	v, found, err := b.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v"), v)

	existed, err := b.Delete(ctx, []byte("k"))
	require.NoError(t, err)
	require.True(t, existed)

	_, found, err = b.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestDurableBackendSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.db")

	b1, err := OpenDurable(DurableOptions{Path: path}, nil)
	require.NoError(t, err)
	require.NoError(t, b1.Put(ctx, []byte("persisted"), []byte("yes")))
	require.NoError(t, b1.Flush(ctx))
	require.NoError(t, b1.Close())

	b2, err := OpenDurable(DurableOptions{Path: path}, nil)
	require.NoError(t, err)
	defer b2.Close()

	v, found, err := b2.Get(ctx, []byte("persisted"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("yes"), v)
}

func TestDurableBackendScanPrefix(t *testing.T) {
	ctx := context.Background()
	b := openTestDurable(t)

	for _, k := range []string{"m:2", "m:1", "m:3", "n:1"} {
		require.NoError(t, b.Put(ctx, []byte(k), []byte("v")))
	}

	entries, err := b.ScanPrefix(ctx, []byte("m:"), 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "m:1", string(entries[0].Key))
	require.Equal(t, "m:2", string(entries[1].Key))
	require.Equal(t, "m:3", string(entries[2].Key))
}

func TestDurableBackendBatchPutAtomicity(t *testing.T) {
	ctx := context.Background()
	b := openTestDurable(t)
	maxKey, _ := b.Limits()

	err := b.BatchPut(ctx, []Entry{
		{Key: []byte("ok"), Value: []byte("v")},
		{Key: make([]byte, maxKey+1), Value: []byte("v")},
	})
	require.Error(t, err)

	_, found, _ := b.Get(ctx, []byte("ok"))
	require.False(t, found)
}

func TestDurableBackendApproximateSize(t *testing.T) {
	ctx := context.Background()
	b := openTestDurable(t)
	require.NoError(t, b.Put(ctx, []byte("k"), []byte("v")))

	size, ok := b.ApproximateSize(ctx)
	require.True(t, ok)
	require.Greater(t, size, uint64(0))
}
