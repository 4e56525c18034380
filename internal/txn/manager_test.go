package txn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"verisimdb/internal/modality"
	"verisimdb/internal/wal"
)

func TestBeginBufferCommit(t *testing.T) {
	m := NewManager(0, 0, nil)

	id, err := m.Begin()
	require.NoError(t, err)

	require.NoError(t, m.BufferOp(id, BufferedOp{Modality: modality.Graph, Operation: wal.OpInsert, EntityID: "e1"}))
	require.NoError(t, m.BufferOp(id, BufferedOp{Modality: modality.Vector, Operation: wal.OpInsert, EntityID: "e1"}))

	ops, err := m.Commit(id)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	state, err := m.State(id)
	require.NoError(t, err)
	require.Equal(t, Committed, state)
}

func TestCommitTwiceFails(t *testing.T) {
	m := NewManager(0, 0, nil)
	id, err := m.Begin()
	require.NoError(t, err)

	_, err = m.Commit(id)
	require.NoError(t, err)

	_, err = m.Commit(id)
	require.ErrorIs(t, err, ErrAlreadyCommitted)
}

func TestRollbackDiscardsOps(t *testing.T) {
	m := NewManager(0, 0, nil)
	id, err := m.Begin()
	require.NoError(t, err)
	require.NoError(t, m.BufferOp(id, BufferedOp{EntityID: "e1"}))
	require.NoError(t, m.BufferOp(id, BufferedOp{EntityID: "e2"}))

	discarded, err := m.Rollback(id)
	require.NoError(t, err)
	require.Equal(t, 2, discarded)

	err = m.BufferOp(id, BufferedOp{EntityID: "e3"})
	require.ErrorIs(t, err, ErrAlreadyRolledBack)
}

func TestBeginFailsAtMaxConcurrent(t *testing.T) {
	m := NewManager(2, 0, nil)

	_, err := m.Begin()
	require.NoError(t, err)
	_, err = m.Begin()
	require.NoError(t, err)

	_, err = m.Begin()
	require.ErrorIs(t, err, ErrTooManyTransactions)
}

func TestBeginSucceedsAfterCommitFreesSlot(t *testing.T) {
	m := NewManager(1, 0, nil)

	id, err := m.Begin()
	require.NoError(t, err)
	_, err = m.Begin()
	require.ErrorIs(t, err, ErrTooManyTransactions)

	_, err = m.Commit(id)
	require.NoError(t, err)

	_, err = m.Begin()
	require.NoError(t, err)
}

func TestCleanupExpiredRemovesStaleActiveTransaction(t *testing.T) {
	m := NewManager(0, time.Millisecond, nil)
	id, err := m.Begin()
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	removed := m.CleanupExpired()
	require.Equal(t, 1, removed)

	_, err = m.State(id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUnknownTransactionOperationsFail(t *testing.T) {
	m := NewManager(0, 0, nil)

	_, err := m.Commit("does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = m.Rollback("does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)

	err = m.BufferOp("does-not-exist", BufferedOp{})
	require.ErrorIs(t, err, ErrNotFound)
}
