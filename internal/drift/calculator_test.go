package drift

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"verisimdb/internal/modality"
)

func TestSemanticVectorDriftNoTypesIsZero(t *testing.T) {
	c := NewCalculator()
	require.Equal(t, 0.0, c.SemanticVectorDrift([]float32{1, 0, 0}, nil, nil))
}

func TestSemanticVectorDriftMatchingEmbeddingIsZero(t *testing.T) {
	c := NewCalculator()
	score := c.SemanticVectorDrift([]float32{1, 0, 0}, []string{"Person"}, map[string][]float32{"Person": {1, 0, 0}})
	require.InDelta(t, 0.0, score, 1e-9)
}

func TestSemanticVectorDriftOrthogonalIsOne(t *testing.T) {
	c := NewCalculator()
	score := c.SemanticVectorDrift([]float32{1, 0, 0}, []string{"Person"}, map[string][]float32{"Person": {0, 1, 0}})
	require.InDelta(t, 1.0, score, 1e-9)
}

func TestGraphDocumentDriftFullCoverageIsLow(t *testing.T) {
	c := NewCalculator()
	edges := []modality.GraphEdge{{Subject: "e1", Predicate: "mentions", Object: "alice"}}
	score := c.GraphDocumentDrift([]string{"alice"}, edges)
	require.InDelta(t, 0.0, score, 1e-9)
}

func TestGraphDocumentDriftNoCoverageIsHigh(t *testing.T) {
	c := NewCalculator()
	score := c.GraphDocumentDrift([]string{"alice"}, nil)
	require.InDelta(t, 0.5, score, 1e-9)
}

func TestTemporalConsistencyDriftDetectsNonMonotonic(t *testing.T) {
	c := NewCalculator()
	score := c.TemporalConsistencyDrift([]int64{100, 50}, []uint64{1, 2})
	require.Greater(t, score, 0.0)
}

func TestTemporalConsistencyDriftCleanHistoryIsZero(t *testing.T) {
	c := NewCalculator()
	score := c.TemporalConsistencyDrift([]int64{100, 200, 300}, []uint64{1, 2, 3})
	require.Equal(t, 0.0, score)
}

func TestTensorDriftFlagsShapeMismatch(t *testing.T) {
	c := NewCalculator()
	score := c.TensorDrift(nil, []int{2, 3}, []int{2, 4}, nil)
	require.Greater(t, score, 0.0)
}

func TestTensorDriftFlagsNaN(t *testing.T) {
	c := NewCalculator()
	expected := TensorStats{Mean: 2, StdDev: 1}
	score := c.TensorDrift([]float64{1, math.NaN(), 3}, []int{3}, []int{3}, &expected)
	require.InDelta(t, 0.3, score, 1e-9)
}

func TestSchemaDriftPenalisesMissingModalities(t *testing.T) {
	c := NewCalculator()
	required := []modality.Modality{modality.Graph, modality.Vector}
	present := []modality.Modality{modality.Vector}
	score := c.SchemaDrift(required, present, 0, 0)
	require.InDelta(t, 0.25, score, 1e-9)
}

func TestQualityDriftWeightsComponents(t *testing.T) {
	c := NewCalculator()
	score := c.QualityDrift(1, 0, 0, 0, 0)
	require.InDelta(t, 0.25, score, 1e-9)
}

func TestPrimaryDriftTypePicksLargest(t *testing.T) {
	c := NewCalculator()
	require.Equal(t, Tensor, c.PrimaryDriftType(0.1, 0.2, 0.1, 0.9, 0.1))
}
