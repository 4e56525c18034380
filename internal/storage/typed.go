package storage

import (
	"context"
	"encoding/json"
)

// TypedStore layers a namespace prefix and JSON encode/decode on top of any
// Backend (spec.md §4.1 "Typed namespacing"). Each modality sub-store gets
// its own TypedStore so keys from different modalities never collide inside
// a shared backend.
type TypedStore struct {
	backend   Backend
	namespace string
}

// NewTypedStore returns a store whose keys are all prefixed with
// "<namespace>:" on the underlying backend.
func NewTypedStore(backend Backend, namespace string) *TypedStore {
	return &TypedStore{backend: backend, namespace: namespace}
}

func (t *TypedStore) namespacedKey(key string) []byte {
	return append([]byte(t.namespace+":"), key...)
}

func (t *TypedStore) stripNamespace(key []byte) string {
	prefix := t.namespace + ":"
	if len(key) >= len(prefix) {
		return string(key[len(prefix):])
	}
	return string(key)
}

// Get decodes the stored value for key into out. It returns (false, nil) if
// the key is absent.
func (t *TypedStore) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	raw, found, err := t.backend.Get(ctx, t.namespacedKey(key))
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, &SerializationError{Err: err}
	}
	return true, nil
}

// Put JSON-encodes value and stores it under key.
func (t *TypedStore) Put(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &SerializationError{Err: err}
	}
	return t.backend.Put(ctx, t.namespacedKey(key), raw)
}

// Delete removes key, reporting whether it previously existed.
func (t *TypedStore) Delete(ctx context.Context, key string) (bool, error) {
	return t.backend.Delete(ctx, t.namespacedKey(key))
}

func (t *TypedStore) Exists(ctx context.Context, key string) (bool, error) {
	return t.backend.Exists(ctx, t.namespacedKey(key))
}

// ScanPrefixKeys returns the unprefixed keys (not values) in this namespace
// beginning with keyPrefix, in ascending order.
func (t *TypedStore) ScanPrefixKeys(ctx context.Context, keyPrefix string, limit int) ([]string, error) {
	entries, err := t.backend.ScanPrefix(ctx, t.namespacedKey(keyPrefix), limit)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = t.stripNamespace(e.Key)
	}
	return keys, nil
}

// ScanPrefixDecode scans entries in this namespace whose key begins with
// keyPrefix and decodes each into a freshly allocated value via newItem,
// invoking visit(key, decoded) for each. Iteration stops at the first error
// returned by visit or by a decode failure.
func (t *TypedStore) ScanPrefixDecode(ctx context.Context, keyPrefix string, limit int, newItem func() interface{}, visit func(key string, value interface{}) error) error {
	entries, err := t.backend.ScanPrefix(ctx, t.namespacedKey(keyPrefix), limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		item := newItem()
		if err := json.Unmarshal(e.Value, item); err != nil {
			return &SerializationError{Err: err}
		}
		if err := visit(t.stripNamespace(e.Key), item); err != nil {
			return err
		}
	}
	return nil
}

// Namespace reports the namespace this store is scoped to.
func (t *TypedStore) Namespace() string { return t.namespace }

// Backend exposes the underlying Backend so callers needing batch atomicity
// across keys within the same namespace can construct raw Entry values with
// NamespacedKey and call it directly.
func (t *TypedStore) Backend() Backend { return t.backend }

// NamespacedKey exposes the prefixed key for building cross-namespace atomic
// batches at the hexad-store layer.
func (t *TypedStore) NamespacedKey(key string) []byte { return t.namespacedKey(key) }
