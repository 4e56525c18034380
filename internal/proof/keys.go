package proof

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// VerificationKeyEntry is one circuit's current and previous
// verification key (spec.md §4.7 "Verification-key store").
type VerificationKeyEntry struct {
	CircuitName string
	ActiveKey   []byte
	Version     uint64
	Fingerprint string
	PreviousKey []byte // nil until the first rotation
	CreatedAt   time.Time
}

func keyFingerprint(key []byte) string {
	sum := sha256.Sum256(key)
	return hex.EncodeToString(sum[:])
}

func newVerificationKeyEntry(circuitName string, key []byte) VerificationKeyEntry {
	return VerificationKeyEntry{
		CircuitName: circuitName,
		ActiveKey:   key,
		Version:     1,
		Fingerprint: keyFingerprint(key),
		CreatedAt:   time.Now().UTC(),
	}
}

// Rotate replaces the active key with newKey, retaining the prior key as
// PreviousKey and incrementing Version (spec.md §4.7: "if present, rotate
// — move current to previous_key, increment version, re-fingerprint").
func (e *VerificationKeyEntry) Rotate(newKey []byte) {
	e.PreviousKey = e.ActiveKey
	e.ActiveKey = newKey
	e.Fingerprint = keyFingerprint(e.ActiveKey)
	e.Version++
	e.CreatedAt = time.Now().UTC()
}

// Matches reports whether key equals the active or (if rotated) previous
// key, so verifiers mid-rotation accept both generations.
func (e VerificationKeyEntry) Matches(key []byte) bool {
	if bytes.Equal(e.ActiveKey, key) {
		return true
	}
	return e.PreviousKey != nil && bytes.Equal(e.PreviousKey, key)
}

// ExportedKey is one circuit's key as shared with a federation peer.
type ExportedKey struct {
	CircuitName string
	Key         []byte
	Version     uint64
	Fingerprint string
}

// KeyExportBundle packages every locally stored key for federation
// export, tagged with the exporting instance's id.
type KeyExportBundle struct {
	SourceInstance string
	Keys           []ExportedKey
}

// VerificationKeyStore holds the active VerificationKeyEntry for every
// locally compiled circuit (spec.md §4.7). Generalized to a
// mutex-guarded struct so callers inject and own their own instance
// rather than reaching for a package-level singleton (spec.md §5).
type VerificationKeyStore struct {
	mu         sync.RWMutex
	keys       map[string]*VerificationKeyEntry
	instanceID string
}

// NewVerificationKeyStore constructs an empty store tagged with
// instanceID (used to namespace exported keys at federation peers).
func NewVerificationKeyStore(instanceID string) *VerificationKeyStore {
	return &VerificationKeyStore{keys: make(map[string]*VerificationKeyEntry), instanceID: instanceID}
}

// StoreKey inserts circuitName's key as version 1 if absent, else
// rotates the existing entry.
func (s *VerificationKeyStore) StoreKey(circuitName string, key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.keys[circuitName]; ok {
		entry.Rotate(key)
		return
	}
	entry := newVerificationKeyEntry(circuitName, key)
	s.keys[circuitName] = &entry
}

// GetKey returns circuitName's current active key.
func (s *VerificationKeyStore) GetKey(circuitName string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.keys[circuitName]
	if !ok {
		return nil, false
	}
	return entry.ActiveKey, true
}

// GetEntry returns a copy of circuitName's full key entry, including
// version and previous key.
func (s *VerificationKeyStore) GetEntry(circuitName string) (VerificationKeyEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.keys[circuitName]
	if !ok {
		return VerificationKeyEntry{}, false
	}
	return *entry, true
}

// ExportKeys packages every stored entry's active key for a federation
// peer.
func (s *VerificationKeyStore) ExportKeys() KeyExportBundle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exported := make([]ExportedKey, 0, len(s.keys))
	for _, entry := range s.keys {
		exported = append(exported, ExportedKey{
			CircuitName: entry.CircuitName,
			Key:         entry.ActiveKey,
			Version:     entry.Version,
			Fingerprint: entry.Fingerprint,
		})
	}
	return KeyExportBundle{SourceInstance: s.instanceID, Keys: exported}
}

// ImportKeys merges bundle into this store under the
// "{source_instance}:{circuit_name}" prefix, replacing an existing
// federated entry only when the incoming version is strictly greater
// (spec.md §4.7). Returns how many entries were inserted or rotated.
func (s *VerificationKeyStore) ImportKeys(bundle KeyExportBundle) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	imported := 0
	for _, k := range bundle.Keys {
		federatedName := bundle.SourceInstance + ":" + k.CircuitName
		existing, ok := s.keys[federatedName]
		switch {
		case ok && existing.Version < k.Version:
			existing.Rotate(k.Key)
			imported++
		case !ok:
			entry := newVerificationKeyEntry(k.CircuitName, k.Key)
			s.keys[federatedName] = &entry
			imported++
		}
	}
	return imported
}

// ListCircuits returns every circuit name with a stored key, including
// federated entries.
func (s *VerificationKeyStore) ListCircuits() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.keys))
	for name := range s.keys {
		names = append(names, name)
	}
	return names
}
