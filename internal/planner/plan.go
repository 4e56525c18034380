package planner

import "verisimdb/internal/modality"

// QuerySourceKind discriminates QuerySource's variants.
type QuerySourceKind string

const (
	SourceHexad      QuerySourceKind = "hexad"
	SourceFederation QuerySourceKind = "federation"
	SourceStore      QuerySourceKind = "store"
)

// QuerySource names where a LogicalPlan reads from (spec.md §4.5
// "LogicalPlan"). Only the field matching Kind is meaningful.
type QuerySource struct {
	Kind          QuerySourceKind
	FederatedPeers []string
	StoreModality modality.Modality
}

// ConditionKindTag discriminates ConditionKind's variants.
type ConditionKindTag string

const (
	ConditionEquality          ConditionKindTag = "equality"
	ConditionRange             ConditionKindTag = "range"
	ConditionFulltext          ConditionKindTag = "fulltext"
	ConditionSimilarity        ConditionKindTag = "similarity"
	ConditionTraversal         ConditionKindTag = "traversal"
	ConditionAtTime            ConditionKindTag = "at_time"
	ConditionProofVerification ConditionKindTag = "proof_verification"
	ConditionTensorOp          ConditionKindTag = "tensor_op"
	ConditionPredicate         ConditionKindTag = "predicate"
)

// ConditionKind is a tagged union over the condition variants a PlanNode
// may carry (spec.md §4.5). Only the fields relevant to Kind are set.
type ConditionKind struct {
	Kind ConditionKindTag

	Field string // Equality, Range
	Value string // Equality

	Low, High string // Range

	Query string // Fulltext

	K int // Similarity

	Predicate string // Traversal
	Depth     *uint32 // Traversal

	Timestamp string // AtTime

	Contract string // ProofVerification

	Operation string // TensorOp

	Expression string // Predicate
}

// PlanNode is one modality query within a LogicalPlan.
type PlanNode struct {
	Modality    modality.Modality
	Conditions  []ConditionKind
	Projections []string
	EarlyLimit  *int
}

// PostProcessingKind discriminates PostProcessing's variants.
type PostProcessingKind string

const (
	PostOrderBy PostProcessingKind = "order_by"
	PostLimit   PostProcessingKind = "limit"
	PostGroupBy PostProcessingKind = "group_by"
	PostProject PostProcessingKind = "project"
)

// OrderField is one ORDER BY term.
type OrderField struct {
	Field      string
	Descending bool
}

// PostProcessing is a tagged union over post-processing steps applied
// after the modality nodes have been executed.
type PostProcessing struct {
	Kind PostProcessingKind

	OrderFields []OrderField // OrderBy
	Count       int          // Limit
	GroupFields []string     // GroupBy
	Aggregates  []string     // GroupBy
	Columns     []string     // Project
}

// LogicalPlan is the unoptimized query representation (spec.md §4.5).
type LogicalPlan struct {
	Source         QuerySource
	Nodes          []PlanNode
	PostProcessing []PostProcessing
}

// ExecutionStrategy selects how a PhysicalPlan's steps run.
type ExecutionStrategy string

const (
	Sequential ExecutionStrategy = "sequential"
	Parallel   ExecutionStrategy = "parallel"
)

// PlanStep is one scheduled step of a PhysicalPlan.
type PlanStep struct {
	Step              int
	Operation         string
	Modality          modality.Modality
	Cost              CostEstimate
	OptimizationHint  *string
	PushedPredicates  []string
}

// PhysicalPlan is an optimized, ready-to-execute query plan.
type PhysicalPlan struct {
	Steps     []PlanStep
	Strategy  ExecutionStrategy
	TotalCost CostEstimate
	Notes     []string
}
