package txn

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager guards the transactions table behind a single read/write lock
// (spec.md §4.3 "Concurrency"). Transaction records are copied out to
// callers, never handed out by reference, so a caller cannot mutate
// manager-owned state without going through the manager's methods.
type Manager struct {
	mu            sync.RWMutex
	log           *zap.Logger
	transactions  map[string]*Transaction
	maxConcurrent int
	timeout       time.Duration
}

// NewManager constructs a Manager. maxConcurrent <= 0 defaults to 256;
// timeout <= 0 defaults to 300s (spec.md §4.3, §6).
func NewManager(maxConcurrent int, timeout time.Duration, log *zap.Logger) *Manager {
	if maxConcurrent <= 0 {
		maxConcurrent = 256
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		log:           log,
		transactions:  make(map[string]*Transaction),
		maxConcurrent: maxConcurrent,
		timeout:       timeout,
	}
}

func (m *Manager) activeCountLocked() int {
	n := 0
	for _, t := range m.transactions {
		if t.State == Active {
			n++
		}
	}
	return n
}

// Begin creates a new Active transaction, failing with
// ErrTooManyTransactions once the Active count reaches max_concurrent.
func (m *Manager) Begin() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeCountLocked() >= m.maxConcurrent {
		return "", ErrTooManyTransactions
	}

	id := uuid.NewString()
	m.transactions[id] = &Transaction{
		ID:        id,
		State:     Active,
		StartedAt: time.Now().UTC(),
	}
	m.log.Debug("transaction begun", zap.String("txn_id", id))
	return id, nil
}

// BufferOp appends op to the transaction's pending operation list. Only
// legal against an Active transaction.
func (m *Manager) BufferOp(id string, op BufferedOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.requireLocked(id)
	if err != nil {
		return err
	}
	if t.State != Active {
		return stateError(t.State)
	}
	t.Ops = append(t.Ops, op)
	return nil
}

// Commit transitions the transaction to Committed and returns the buffered
// operation list for the caller to apply durably. The manager itself does
// not touch the WAL or sub-stores; the hexad store owns that.
func (m *Manager) Commit(id string) ([]BufferedOp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.requireLocked(id)
	if err != nil {
		return nil, err
	}
	if t.State != Active {
		return nil, stateError(t.State)
	}

	t.State = Committed
	t.CompletedAt = time.Now().UTC()
	ops := make([]BufferedOp, len(t.Ops))
	copy(ops, t.Ops)
	m.log.Debug("transaction committed", zap.String("txn_id", id), zap.Int("op_count", len(ops)))
	return ops, nil
}

// Rollback discards the transaction's buffered operations, returning the
// count discarded.
func (m *Manager) Rollback(id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.requireLocked(id)
	if err != nil {
		return 0, err
	}
	if t.State != Active {
		return 0, stateError(t.State)
	}

	discarded := len(t.Ops)
	t.Ops = nil
	t.State = RolledBack
	t.CompletedAt = time.Now().UTC()
	m.log.Debug("transaction rolled back", zap.String("txn_id", id), zap.Int("discarded", discarded))
	return discarded, nil
}

// State reports a transaction's current state.
func (m *Manager) State(id string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.transactions[id]
	if !ok {
		return 0, ErrNotFound
	}
	return t.State, nil
}

// CleanupExpired removes Active transactions whose age exceeds the
// configured timeout, and finalised transactions whose completion age
// exceeds the timeout, returning the count removed (spec.md §4.3
// "cleanup_expired").
func (m *Manager) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	var removed int
	for id, t := range m.transactions {
		var age time.Duration
		switch t.State {
		case Active:
			age = now.Sub(t.StartedAt)
		default:
			age = now.Sub(t.CompletedAt)
		}
		if age > m.timeout {
			delete(m.transactions, id)
			removed++
		}
	}
	if removed > 0 {
		m.log.Debug("expired transactions cleaned up", zap.Int("removed", removed))
	}
	return removed
}

// ActiveCount reports the number of Active transactions.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeCountLocked()
}

func (m *Manager) requireLocked(id string) (*Transaction, error) {
	t, ok := m.transactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func stateError(s State) error {
	if s == Committed {
		return ErrAlreadyCommitted
	}
	return ErrAlreadyRolledBack
}
