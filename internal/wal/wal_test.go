package wal

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"verisimdb/internal/modality"
)

func TestWriterAppendAssignsSequentialSequences(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, SyncPolicy{Kind: SyncAsync}, 0, nil)
	require.NoError(t, err)
	defer w.Close()

	seq1, err := w.Append(Record{Operation: OpInsert, Modality: modality.Graph, EntityID: "e1"})
	require.NoError(t, err)
	seq2, err := w.Append(Record{Operation: OpInsert, Modality: modality.Vector, EntityID: "e2"})
	require.NoError(t, err)

	require.Equal(t, uint64(0), seq1)
	require.Equal(t, uint64(1), seq2)
}

func TestWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, SyncPolicy{Kind: SyncFsync}, 0, nil)
	require.NoError(t, err)

	payloads := [][]byte{[]byte("p1"), []byte("p2"), []byte("p3")}
	for i, p := range payloads {
		_, err := w.Append(Record{Operation: OpInsert, Modality: modality.Document, EntityID: "e", Payload: p})
		require.NoError(t, err)
		_ = i
	}
	require.NoError(t, w.Close())

	r, err := OpenReader(dir)
	require.NoError(t, err)

	var replayed [][]byte
	err = r.Replay(func(rec Record, crcErr error) error {
		require.Nil(t, crcErr)
		replayed = append(replayed, rec.Payload)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, payloads, replayed)
}

func TestWriterRotatesOnSegmentLimit(t *testing.T) {
	dir := t.TempDir()
	// Small enough that a couple records force a rotation.
	w, err := Open(dir, SyncPolicy{Kind: SyncAsync}, 64, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := w.Append(Record{Operation: OpInsert, Modality: modality.Graph, EntityID: "e", Payload: []byte("0123456789")})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	segments, err := discoverSegments(dir)
	require.NoError(t, err)
	require.Greater(t, len(segments), 1)
}

func TestWriterResumesSequenceAfterReopen(t *testing.T) {
	dir := t.TempDir()
	w1, err := Open(dir, SyncPolicy{Kind: SyncFsync}, 0, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := w1.Append(Record{Operation: OpInsert, Modality: modality.Graph, EntityID: "e"})
		require.NoError(t, err)
	}
	require.NoError(t, w1.Close())

	w2, err := Open(dir, SyncPolicy{Kind: SyncFsync}, 0, nil)
	require.NoError(t, err)
	defer w2.Close()
	require.Equal(t, uint64(3), w2.NextSequence())

	seq, err := w2.Append(Record{Operation: OpInsert, Modality: modality.Graph, EntityID: "e"})
	require.NoError(t, err)
	require.Equal(t, uint64(3), seq)
}

func TestCheckpointAppendsCheckpointRecord(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, SyncPolicy{Kind: SyncAsync}, 0, nil)
	require.NoError(t, err)
	defer w.Close()

	seq, err := w.Checkpoint()
	require.NoError(t, err)

	r, err := OpenReader(dir)
	require.NoError(t, err)
	var found bool
	err = r.Replay(func(rec Record, crcErr error) error {
		if rec.Sequence == seq && rec.Operation == OpCheckpoint && rec.Modality == modality.All {
			found = true
		}
		return nil
	})
	require.NoError(t, err)
	require.True(t, found)
}

func TestReplayDetectsCrcMismatch(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, SyncPolicy{Kind: SyncFsync}, 0, nil)
	require.NoError(t, err)
	_, err = w.Append(Record{Operation: OpInsert, Modality: modality.Graph, EntityID: "e", Payload: []byte("hello")})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	segments, err := discoverSegments(dir)
	require.NoError(t, err)
	require.Len(t, segments, 1)

	corruptByteInFile(t, segments[0].Path, 20)

	r, err := OpenReader(dir)
	require.NoError(t, err)
	var sawMismatch bool
	err = r.Replay(func(rec Record, crcErr error) error {
		if crcErr != nil {
			sawMismatch = true
		}
		return nil
	})
	require.NoError(t, err)
	require.True(t, sawMismatch)
}

func TestPruneBeforeKeepsAtLeastOneSegment(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, SyncPolicy{Kind: SyncAsync}, 64, nil)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := w.Append(Record{Operation: OpInsert, Modality: modality.Graph, EntityID: "e", Payload: []byte("0123456789")})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	segmentsBefore, err := discoverSegments(dir)
	require.NoError(t, err)
	require.Greater(t, len(segmentsBefore), 1)

	pruned, err := PruneBefore(dir, ^uint64(0))
	require.NoError(t, err)
	require.NotEmpty(t, pruned)

	segmentsAfter, err := discoverSegments(dir)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(segmentsAfter), 1)
}

func TestSegmentFileNameFormat(t *testing.T) {
	require.Equal(t, "wal-0000000000000042.log", segmentFileName(42))
}

func corruptByteInFile(t *testing.T, path string, offset int64) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteAt([]byte{0xFF}, offset)
	require.NoError(t, err)
}
