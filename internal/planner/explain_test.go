package planner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewExplainOutputRendersNotesAsHints(t *testing.T) {
	physical := samplePhysicalPlan()
	physical.Notes = []string{"sequential execution across 2 steps"}
	explain := NewExplainOutput(physical, DefaultConfig())

	require.Len(t, explain.PerformanceHints, 1)
	require.Equal(t, "info", explain.PerformanceHints[0].Severity)
	require.Contains(t, explain.TextOutput, "VeriSimDB EXPLAIN")
	require.Contains(t, explain.TextOutput, "Step 1")
	require.Contains(t, explain.TextOutput, "Notes")
}

func TestNewExplainOutputIncludesOptimizationHintAndPredicates(t *testing.T) {
	physical := samplePhysicalPlan()
	hint := "HNSW ANN index"
	physical.Steps[0].OptimizationHint = &hint
	physical.Steps[0].PushedPredicates = []string{"k=10"}
	explain := NewExplainOutput(physical, DefaultConfig())

	require.Contains(t, explain.TextOutput, "HNSW ANN index")
	require.Contains(t, explain.TextOutput, "k=10")
}

func TestWithProfileMergesHints(t *testing.T) {
	physical := samplePhysicalPlan()
	physical.Notes = []string{"note one"}
	explain := NewExplainOutput(physical, DefaultConfig())

	profile := QueryProfile{
		PlanID:            "p1",
		TotalEstimatedMs:  200,
		TotalActualMs:     500,
		OptimizationHints: []string{"Query was 2.5x slower than estimated"},
	}
	combined := explain.WithProfile(profile)

	require.Len(t, combined.CombinedHints, 2)
	require.Equal(t, "analyze", combined.CombinedHints[1].Severity)
	require.Contains(t, combined.TextOutput, "EXPLAIN ANALYZE")
}
