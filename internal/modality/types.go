package modality

import "time"

// ModalityStatus records which modalities currently hold data for an
// entity. A flag is true iff the corresponding sub-store contains data
// keyed by the entity's id (spec.md §3 "ModalityStatus").
type ModalityStatus struct {
	Graph      bool `json:"graph"`
	Vector     bool `json:"vector"`
	Tensor     bool `json:"tensor"`
	Semantic   bool `json:"semantic"`
	Document   bool `json:"document"`
	Temporal   bool `json:"temporal"`
	Provenance bool `json:"provenance"`
	Spatial    bool `json:"spatial"`
}

// Set assigns the flag for m. All, or any other value that is not one of
// the eight modalities, is ignored.
func (s *ModalityStatus) Set(m Modality, present bool) {
	switch m {
	case Graph:
		s.Graph = present
	case Vector:
		s.Vector = present
	case Tensor:
		s.Tensor = present
	case Semantic:
		s.Semantic = present
	case Document:
		s.Document = present
	case Temporal:
		s.Temporal = present
	case Provenance:
		s.Provenance = present
	case Spatial:
		s.Spatial = present
	}
}

// Get reports the flag for m.
func (s ModalityStatus) Get(m Modality) bool {
	switch m {
	case Graph:
		return s.Graph
	case Vector:
		return s.Vector
	case Tensor:
		return s.Tensor
	case Semantic:
		return s.Semantic
	case Document:
		return s.Document
	case Temporal:
		return s.Temporal
	case Provenance:
		return s.Provenance
	case Spatial:
		return s.Spatial
	default:
		return false
	}
}

// Any reports whether at least one modality flag is set.
func (s ModalityStatus) Any() bool {
	return s.Graph || s.Vector || s.Tensor || s.Semantic || s.Document || s.Temporal || s.Provenance || s.Spatial
}

// Embedding is a dense fixed-dimension vector associated with an entity
// (spec.md §3 "Embedding"). All embeddings within one vector sub-store
// share the same Dimension.
type Embedding struct {
	ID        string    `json:"id"`
	Vector    []float32 `json:"vector"`
	ModelTag  string    `json:"model_tag,omitempty"`
}

// Tensor is a dense, row-major numeric payload with a declared shape
// (spec.md §3 "Tensor"). Invariant: len(Payload) == product(Shape).
type Tensor struct {
	ID          string    `json:"id"`
	Shape       []int     `json:"shape"`
	ElementType string    `json:"element_type"`
	Payload     []float64 `json:"payload"`
}

// ShapeProduct returns the product of the shape's extents.
func (t Tensor) ShapeProduct() int {
	p := 1
	for _, extent := range t.Shape {
		p *= extent
	}
	return p
}

// SemanticValueKind distinguishes the SemanticValue variants (spec.md §3
// "SemanticAnnotation").
type SemanticValueKind string

const (
	SemanticValueLangString SemanticValueKind = "lang_string"
	SemanticValueTypedLiteral SemanticValueKind = "typed_literal"
	SemanticValueReference    SemanticValueKind = "reference"
	SemanticValueCollection   SemanticValueKind = "collection"
)

// SemanticValue is a tagged union over the four property-value shapes a
// semantic annotation may hold.
type SemanticValue struct {
	Kind SemanticValueKind `json:"kind"`

	// LangString
	Value    string `json:"value,omitempty"`
	Language string `json:"language,omitempty"`

	// TypedLiteral
	Datatype string `json:"datatype,omitempty"`

	// Reference
	ReferenceID string `json:"reference_id,omitempty"`

	// Collection
	Items []SemanticValue `json:"items,omitempty"`
}

// SemanticAnnotation attaches declared types and property values to an
// entity (spec.md §3 "SemanticAnnotation").
type SemanticAnnotation struct {
	EntityID    string                   `json:"entity_id"`
	Types       []string                 `json:"types"`
	Properties  map[string]SemanticValue `json:"properties"`
	Provenance  string                   `json:"provenance,omitempty"`
}

// ConstraintKind enumerates SemanticType constraint variants.
type ConstraintKind string

const (
	ConstraintRequiredProperty ConstraintKind = "required_property"
	ConstraintPattern          ConstraintKind = "pattern"
	ConstraintNumericRange     ConstraintKind = "numeric_range"
	ConstraintCustomValidator  ConstraintKind = "custom_validator"
)

// Constraint is one SemanticType constraint (spec.md §3 "SemanticType").
type Constraint struct {
	Kind ConstraintKind `json:"kind"`

	Property      string  `json:"property,omitempty"`
	Pattern       string  `json:"pattern,omitempty"`
	Min           float64 `json:"min,omitempty"`
	Max           float64 `json:"max,omitempty"`
	ValidatorName string  `json:"validator_name,omitempty"`
}

// SemanticType declares an IRI-identified type with supertypes and
// constraints (spec.md §3 "SemanticType").
type SemanticType struct {
	IRI         string       `json:"iri"`
	Label       string       `json:"label"`
	SuperTypes  []string     `json:"super_types"`
	Constraints []Constraint `json:"constraints"`
}

// ProofType enumerates the kinds of proof a ProofBlob may encode (spec.md
// §3 "ProofBlob").
type ProofType string

const (
	ProofTypeAssignment         ProofType = "type_assignment"
	ProofConstraintSatisfaction ProofType = "constraint_satisfaction"
	ProofDerivation              ProofType = "derivation"
	ProofAttestation              ProofType = "attestation"
)

// ProofBlob is an opaque, canonically encoded proof artifact (spec.md §3
// "ProofBlob").
type ProofBlob struct {
	Claim     string    `json:"claim"`
	ProofType ProofType `json:"proof_type"`
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Document is a searchable text document with structured metadata
// (spec.md §3 "Document").
type Document struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	SearchedFields map[string]string `json:"searched_fields,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Version is one entry in an entity's ordered version chain (spec.md §3
// "Version<T>").
type Version[T any] struct {
	Version   uint64    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Payload   T         `json:"payload"`
	Author    string    `json:"author,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// GraphEdge is one subject/predicate/object triple (spec.md §3
// "GraphEdge"). Object is either a node IRI or a typed literal, recorded
// in ObjectLiteral/ObjectDatatype when IsLiteral is true.
type GraphEdge struct {
	Subject        string `json:"subject"`
	Predicate      string `json:"predicate"`
	IsLiteral      bool   `json:"is_literal"`
	Object         string `json:"object,omitempty"`
	ObjectLiteral  string `json:"object_literal,omitempty"`
	ObjectDatatype string `json:"object_datatype,omitempty"`
}

// TimePoint is one sample in a time series (spec.md §3 "TimePoint<V>").
type TimePoint[V any] struct {
	Timestamp time.Time `json:"timestamp"`
	Value     V         `json:"value"`
}

// TimeRange is a half-open interval [Start, End) (spec.md §3 "TimeRange").
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls within [r.Start, r.End).
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// ProvenanceEntry is one link in an entity's provenance chain: who/what
// produced or modified it, and when.
type ProvenanceEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
}

// Geometry is a minimal spatial payload: a geometry kind tag plus
// flattened coordinate pairs, sufficient for point/bbox/polygon predicates
// without depending on a full GIS type system (no pack library implements
// one).
type Geometry struct {
	Kind        string    `json:"kind"` // "point", "polygon", "bbox"
	Coordinates []float64 `json:"coordinates"`
}
