package drift

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"verisimdb/internal/hexad"
	"verisimdb/internal/modality"
	"verisimdb/internal/storage"
	"verisimdb/internal/txn"
	"verisimdb/internal/wal"
)

func newTestHexadStore(t *testing.T) *hexad.Store {
	t.Helper()
	dir := t.TempDir()
	writer, err := wal.Open(dir, wal.SyncPolicy{Kind: wal.SyncFsync}, 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	backend := storage.NewMemoryBackend(nil)
	txns := txn.NewManager(0, 0, nil)
	return hexad.New(hexad.Config{VectorDimension: 3}, backend, writer, txns, nil)
}

func TestNormalizeSkipsWhenNoReDeriverRegistered(t *testing.T) {
	ctx := context.Background()
	store := newTestHexadStore(t)
	h, err := store.Create(ctx, hexad.Input{Document: &modality.Document{Title: "x"}}, "")
	require.NoError(t, err)

	n := NewNormalizer(store, nil)
	require.NoError(t, n.Normalize(ctx, h.Status.ID, Tensor))
}

func TestNormalizeInvokesReDeriverAndWritesBack(t *testing.T) {
	ctx := context.Background()
	store := newTestHexadStore(t)
	h, err := store.Create(ctx, hexad.Input{Document: &modality.Document{Title: "stale"}}, "")
	require.NoError(t, err)

	n := NewNormalizer(store, nil)
	n.RegisterReDeriver(Schema, func(_ context.Context, current hexad.Hexad) (hexad.Input, error) {
		return hexad.Input{Document: &modality.Document{Title: "fresh"}}, nil
	})

	require.NoError(t, n.Normalize(ctx, h.Status.ID, Schema))

	got, err := store.Get(ctx, h.Status.ID)
	require.NoError(t, err)
	require.Equal(t, "fresh", got.Document.Title)
	require.Len(t, got.Provenance, 1)
	require.Equal(t, "drift-normalizer", got.Provenance[0].Actor)
}

func TestNormalizeHonoursReDeriverSuppliedProvenance(t *testing.T) {
	ctx := context.Background()
	store := newTestHexadStore(t)
	h, err := store.Create(ctx, hexad.Input{Document: &modality.Document{Title: "stale"}}, "")
	require.NoError(t, err)

	n := NewNormalizer(store, nil)
	n.RegisterReDeriver(Schema, func(_ context.Context, current hexad.Hexad) (hexad.Input, error) {
		return hexad.Input{
			Document:   &modality.Document{Title: "fresh"},
			Provenance: &modality.ProvenanceEntry{Actor: "custom", Action: "manual-fix", Timestamp: time.Now()},
		}, nil
	})

	require.NoError(t, n.Normalize(ctx, h.Status.ID, Schema))

	got, err := store.Get(ctx, h.Status.ID)
	require.NoError(t, err)
	require.Equal(t, "custom", got.Provenance[0].Actor)
}

func TestNormalizeUnknownEntityErrors(t *testing.T) {
	ctx := context.Background()
	store := newTestHexadStore(t)
	n := NewNormalizer(store, nil)
	n.RegisterReDeriver(Schema, func(_ context.Context, current hexad.Hexad) (hexad.Input, error) {
		return hexad.Input{}, nil
	})

	err := n.Normalize(ctx, "missing", Schema)
	require.Error(t, err)
}

func TestRunConsumesBusEventsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := newTestHexadStore(t)
	h, err := store.Create(ctx, hexad.Input{Document: &modality.Document{Title: "stale"}}, "")
	require.NoError(t, err)

	done := make(chan struct{})
	n := NewNormalizer(store, nil)
	n.RegisterReDeriver(Schema, func(_ context.Context, current hexad.Hexad) (hexad.Input, error) {
		defer close(done)
		return hexad.Input{Document: &modality.Document{Title: "fresh"}}, nil
	})

	bus := NewEventBus()
	go n.Run(ctx, bus)
	bus.publish(Event{EntityID: h.Status.ID, Type: Schema, Score: 0.9})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("normalizer did not process event in time")
	}
	cancel()
}
