// Package modality defines the closed set of data modalities a hexad
// composes (spec.md §3 "Modality tag") and the fixed declared order in
// which sub-store mutations are applied and WAL records are written
// (spec.md §4.4 step 5).
package modality

import "fmt"

// Modality identifies one of the eight data facets a hexad carries. The
// numeric values are part of the WAL wire format (spec.md §4.2) and must
// never be renumbered.
type Modality uint8

const (
	Graph Modality = iota
	Vector
	Tensor
	Semantic
	Document
	Temporal
	Provenance
	Spatial

	// All is the sentinel modality tag used only by checkpoint/log records,
	// never by a hexad mutation.
	All Modality = 255
)

// Ordered lists every data modality in the fixed declared order mutations
// are applied within a single hexad write (spec.md §4.4 step 5).
var Ordered = []Modality{Graph, Vector, Tensor, Semantic, Document, Temporal, Provenance, Spatial}

func (m Modality) String() string {
	switch m {
	case Graph:
		return "graph"
	case Vector:
		return "vector"
	case Tensor:
		return "tensor"
	case Semantic:
		return "semantic"
	case Document:
		return "document"
	case Temporal:
		return "temporal"
	case Provenance:
		return "provenance"
	case Spatial:
		return "spatial"
	case All:
		return "all"
	default:
		return fmt.Sprintf("modality(%d)", uint8(m))
	}
}

// Valid reports whether m is one of the eight data modalities (excludes All).
func (m Modality) Valid() bool {
	switch m {
	case Graph, Vector, Tensor, Semantic, Document, Temporal, Provenance, Spatial:
		return true
	default:
		return false
	}
}

// ExecutionPriority is the planner's fixed per-modality cost-ordering key
// (spec.md §4.5 step 3): lower values execute first.
func (m Modality) ExecutionPriority() int {
	switch m {
	case Temporal:
		return 10
	case Vector:
		return 20
	case Document:
		return 30
	case Graph:
		return 40
	case Tensor:
		return 50
	case Semantic:
		return 90
	default:
		return 1000
	}
}
