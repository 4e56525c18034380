package storage

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// MemoryBackend is an in-memory ordered-map backend guarded by a single
// read/write lock, grounded on cuemby-warren's in-memory store idiom
// (map + sync.RWMutex) generalized to support ascending prefix scans via a
// maintained sorted key index.
type MemoryBackend struct {
	mu      sync.RWMutex
	data    map[string][]byte
	keys    []string // kept sorted
	log     *zap.Logger
	maxKey  int
	maxVal  int
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(log *zap.Logger) *MemoryBackend {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryBackend{
		data:   make(map[string][]byte),
		log:    log,
		maxKey: 4096,
		maxVal: 64 * 1024 * 1024,
	}
}

func (m *MemoryBackend) Limits() (int, int) { return m.maxKey, m.maxVal }

func (m *MemoryBackend) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryBackend) Put(_ context.Context, key, value []byte) error {
	if err := checkLimits(m, key, value); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(key, value)
	return nil
}

func (m *MemoryBackend) putLocked(key, value []byte) {
	k := string(key)
	v := make([]byte, len(value))
	copy(v, value)
	if _, exists := m.data[k]; !exists {
		m.insertKeyLocked(k)
	}
	m.data[k] = v
}

func (m *MemoryBackend) insertKeyLocked(k string) {
	i := sort.SearchStrings(m.keys, k)
	m.keys = append(m.keys, "")
	copy(m.keys[i+1:], m.keys[i:])
	m.keys[i] = k
}

func (m *MemoryBackend) removeKeyLocked(k string) {
	i := sort.SearchStrings(m.keys, k)
	if i < len(m.keys) && m.keys[i] == k {
		m.keys = append(m.keys[:i], m.keys[i+1:]...)
	}
}

func (m *MemoryBackend) Delete(_ context.Context, key []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := string(key)
	if _, ok := m.data[k]; !ok {
		return false, nil
	}
	delete(m.data, k)
	m.removeKeyLocked(k)
	return true, nil
}

func (m *MemoryBackend) Exists(_ context.Context, key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *MemoryBackend) ScanPrefix(_ context.Context, prefix []byte, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := string(prefix)
	start := sort.SearchStrings(m.keys, p)
	var out []Entry
	for i := start; i < len(m.keys); i++ {
		k := m.keys[i]
		if !bytes.HasPrefix([]byte(k), prefix) {
			break
		}
		v := m.data[k]
		cp := make([]byte, len(v))
		copy(cp, v)
		out = append(out, Entry{Key: []byte(k), Value: cp})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryBackend) MultiGet(_ context.Context, keys [][]byte) ([][]byte, []bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := make([][]byte, len(keys))
	found := make([]bool, len(keys))
	for i, k := range keys {
		if v, ok := m.data[string(k)]; ok {
			cp := make([]byte, len(v))
			copy(cp, v)
			values[i] = cp
			found[i] = true
		}
	}
	return values, found, nil
}

func (m *MemoryBackend) BatchPut(_ context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := checkLimits(m, e.Key, e.Value); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.putLocked(e.Key, e.Value)
	}
	return nil
}

// Flush is a no-op: the in-memory backend has no durability to guarantee.
func (m *MemoryBackend) Flush(_ context.Context) error { return nil }

func (m *MemoryBackend) ApproximateSize(_ context.Context) (uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total uint64
	for k, v := range m.data {
		total += uint64(len(k) + len(v))
	}
	return total, true
}

func (m *MemoryBackend) Close() error { return nil }
