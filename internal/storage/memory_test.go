package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryBackendPutGetDelete(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(nil)

	_, found, err := b.Get(ctx, []byte("missing"))
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, b.Put(ctx, []byte("a"), []byte("1")))
	v, found, err := b.Get(ctx, []byte("a"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("1"), v)

	existed, err := b.Delete(ctx, []byte("a"))
	require.NoError(t, err)
	require.True(t, existed)

	existed, err = b.Delete(ctx, []byte("a"))
	require.NoError(t, err)
	require.False(t, existed)
}

func TestMemoryBackendScanPrefixOrdering(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(nil)

	for _, k := range []string{"hexad:b", "hexad:a", "hexad:c", "other:z"} {
		require.NoError(t, b.Put(ctx, []byte(k), []byte("v")))
	}

	entries, err := b.ScanPrefix(ctx, []byte("hexad:"), 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "hexad:a", string(entries[0].Key))
	require.Equal(t, "hexad:b", string(entries[1].Key))
	require.Equal(t, "hexad:c", string(entries[2].Key))
}

func TestMemoryBackendScanPrefixLimit(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(nil)
	for _, k := range []string{"p:1", "p:2", "p:3"} {
		require.NoError(t, b.Put(ctx, []byte(k), []byte("v")))
	}
	entries, err := b.ScanPrefix(ctx, []byte("p:"), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestMemoryBackendLimits(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(nil)
	maxKey, _ := b.Limits()
	bigKey := make([]byte, maxKey+1)

	err := b.Put(ctx, bigKey, []byte("v"))
	require.Error(t, err)
	var tooLarge *KeyTooLargeError
	require.ErrorAs(t, err, &tooLarge)
}

func TestMemoryBackendBatchPutAtomicity(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(nil)
	maxKey, _ := b.Limits()

	entries := []Entry{
		{Key: []byte("ok"), Value: []byte("v")},
		{Key: make([]byte, maxKey+1), Value: []byte("v")},
	}
	err := b.BatchPut(ctx, entries)
	require.Error(t, err)

	_, found, _ := b.Get(ctx, []byte("ok"))
	require.False(t, found, "partial writes must not land when validation fails")
}

func TestMemoryBackendMultiGet(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(nil)
	require.NoError(t, b.Put(ctx, []byte("a"), []byte("1")))

	values, found, err := b.MultiGet(ctx, [][]byte{[]byte("a"), []byte("b")})
	require.NoError(t, err)
	require.Equal(t, []bool{true, false}, found)
	require.Equal(t, []byte("1"), values[0])
	require.Nil(t, values[1])
}
