package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"verisimdb/internal/modality"
)

func graphVectorPlan() LogicalPlan {
	depth := uint32(2)
	return LogicalPlan{
		Source: QuerySource{Kind: SourceHexad},
		Nodes: []PlanNode{
			{Modality: modality.Graph, Conditions: []ConditionKind{{Kind: ConditionTraversal, Predicate: "relates_to", Depth: &depth}}},
			{Modality: modality.Vector, Conditions: []ConditionKind{{Kind: ConditionSimilarity, K: 10}}},
		},
	}
}

func TestOptimizeEmptyPlanErrors(t *testing.T) {
	p := NewPlanner(DefaultConfig(), nil)
	_, err := p.Optimize(LogicalPlan{})
	require.ErrorIs(t, err, ErrEmptyPlan)
}

func TestOptimizeSingleModalityIsSequential(t *testing.T) {
	p := NewPlanner(DefaultConfig(), nil)
	plan := LogicalPlan{Nodes: []PlanNode{
		{Modality: modality.Document, Conditions: []ConditionKind{{Kind: ConditionFulltext, Query: "test"}}},
	}}
	physical, err := p.Optimize(plan)
	require.NoError(t, err)
	require.Equal(t, Sequential, physical.Strategy)
	require.Len(t, physical.Steps, 1)
}

func TestOptimizeMultiModalityIsParallel(t *testing.T) {
	p := NewPlanner(DefaultConfig(), nil)
	physical, err := p.Optimize(graphVectorPlan())
	require.NoError(t, err)
	require.Equal(t, Parallel, physical.Strategy)
	require.Len(t, physical.Steps, 2)
}

func TestOptimizeOrdersVectorBeforeGraph(t *testing.T) {
	p := NewPlanner(DefaultConfig(), nil)
	physical, err := p.Optimize(graphVectorPlan())
	require.NoError(t, err)
	require.Equal(t, modality.Vector, physical.Steps[0].Modality)
	require.Equal(t, modality.Graph, physical.Steps[1].Modality)
}

func TestOptimizeSemanticAlwaysLast(t *testing.T) {
	p := NewPlanner(DefaultConfig(), nil)
	plan := LogicalPlan{Nodes: []PlanNode{
		{Modality: modality.Semantic, Conditions: []ConditionKind{{Kind: ConditionProofVerification, Contract: "x"}}},
		{Modality: modality.Document},
		{Modality: modality.Vector},
	}}
	physical, err := p.Optimize(plan)
	require.NoError(t, err)
	require.Equal(t, modality.Semantic, physical.Steps[len(physical.Steps)-1].Modality)
}

func TestOptimizeTemporalAlwaysFirst(t *testing.T) {
	p := NewPlanner(DefaultConfig(), nil)
	plan := LogicalPlan{Nodes: []PlanNode{
		{Modality: modality.Graph},
		{Modality: modality.Temporal, Conditions: []ConditionKind{{Kind: ConditionAtTime, Timestamp: "2026-01-01T00:00:00Z"}}},
	}}
	physical, err := p.Optimize(plan)
	require.NoError(t, err)
	require.Equal(t, modality.Temporal, physical.Steps[0].Modality)
}

func TestExplainGeneratesOutput(t *testing.T) {
	p := NewPlanner(DefaultConfig(), nil)
	explain, err := p.Explain(graphVectorPlan())
	require.NoError(t, err)
	require.Len(t, explain.Steps, 2)
	require.NotEmpty(t, explain.TextOutput)
	require.Contains(t, explain.TextOutput, "Step")
	require.Contains(t, explain.TextOutput, "Strategy")
}

func TestOptimizeHighCostNoteOnExpensivePlan(t *testing.T) {
	p := NewPlanner(DefaultConfig(), nil)
	plan := LogicalPlan{Nodes: []PlanNode{
		{Modality: modality.Semantic, Conditions: []ConditionKind{{Kind: ConditionProofVerification, Contract: "x"}}},
	}}
	physical, err := p.Optimize(plan)
	require.NoError(t, err)
	found := false
	for _, n := range physical.Notes {
		if n == "High estimated cost — consider adding LIMIT or more selective predicates" {
			found = true
		}
	}
	require.True(t, found)
}
