// Package hexad composes the eight modality sub-stores, the write-ahead
// log, and the transaction manager behind a single entry point: the only
// subsystem that both writes to modality sub-stores and appends to the WAL
// (spec.md §4.4). Grounded on the teacher's internal/store/local_core.go
// LocalStore, which composes several storage tiers (vector, graph, cold)
// behind one struct guarded by one sync.RWMutex; generalized here from
// three SQLite-backed tiers to eight typed-storage-backed modality
// sub-stores plus a durability boundary.
package hexad

import (
	"time"

	"verisimdb/internal/modality"
)

// HexadId is a process-unique string identifier; equality is structural,
// total order is irrelevant (spec.md §3 "HexadId").
type HexadId = string

// HexadStatus is the entity's header record: identity, timestamps, version,
// and which modalities currently hold data (spec.md §3 "HexadStatus").
// Invariant: ModifiedAt >= CreatedAt; Version increments by exactly one on
// every successful mutation.
type HexadStatus struct {
	ID         HexadId                 `json:"id"`
	CreatedAt  time.Time               `json:"created_at"`
	ModifiedAt time.Time               `json:"modified_at"`
	Version    uint64                  `json:"version"`
	Modalities modality.ModalityStatus `json:"modalities"`

	// LastAppliedSequence is the highest WAL sequence number applied to
	// this entity, used by recovery to skip records already reflected in
	// the sub-stores (spec.md §4.4 "Recovery re-applies operations
	// idempotently").
	LastAppliedSequence uint64 `json:"last_applied_sequence"`
}

// Input is the merge-semantics payload accepted by create/update: fields
// left nil are omitted (update retains the prior value); fields set
// overwrite (spec.md §4.4 "update(id, input)").
type Input struct {
	Graph    []modality.GraphEdge
	Vector   *VectorInput
	Tensor   *modality.Tensor
	Semantic *modality.SemanticAnnotation
	Document *modality.Document
	Temporal *TemporalInput
	Provenance *modality.ProvenanceEntry
	Spatial  *modality.Geometry
}

// VectorInput carries an embedding write; ID is supplied by the hexad
// store, not the caller.
type VectorInput struct {
	Vector   []float32
	ModelTag string
}

// TemporalInput appends one version-chain entry.
type TemporalInput struct {
	Payload map[string]any
	Author  string
	Message string
}

// Hexad is a read-produced, value-type snapshot: the status plus, for each
// modality flagged present, its payload (spec.md §3 "Hexad (snapshot)").
// Never shared mutably; every field is a copy.
type Hexad struct {
	Status HexadStatus `json:"status"`

	Graph      []modality.GraphEdge          `json:"graph,omitempty"`
	Vector     *modality.Embedding           `json:"vector,omitempty"`
	Tensor     *modality.Tensor              `json:"tensor,omitempty"`
	Semantic   *modality.SemanticAnnotation  `json:"semantic,omitempty"`
	Document   *modality.Document            `json:"document,omitempty"`
	Temporal   []TemporalRecord              `json:"temporal,omitempty"`
	Provenance []modality.ProvenanceEntry    `json:"provenance,omitempty"`
	Spatial    *modality.Geometry            `json:"spatial,omitempty"`
}

// TemporalRecord mirrors internal/modality/temporal.Record to keep the
// hexad package's public surface free of a direct sub-package type leak at
// the snapshot boundary while remaining structurally identical.
type TemporalRecord struct {
	Version   uint64         `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
	Author    string         `json:"author,omitempty"`
	Message   string         `json:"message,omitempty"`
}
