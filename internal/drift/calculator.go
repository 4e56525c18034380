package drift

import (
	"math"
	"sort"
	"strings"

	"verisimdb/internal/modality"
)

// Calculator computes the five measurable drift components plus the
// overall quality aggregate (spec.md §4.6). Grounded on
// original_source/rust-core/verisim-drift/src/calculator.rs, translated
// function-for-function from its DriftCalculator methods.
type Calculator struct{}

func NewCalculator() *Calculator { return &Calculator{} }

// SemanticVectorDrift compares embedding against the reference embeddings
// of the entity's declared semantic types, returning 1 - average cosine
// similarity. 0 when there are no declared types or no reference
// embeddings to compare against.
func (c *Calculator) SemanticVectorDrift(embedding []float32, semanticTypes []string, typeEmbeddings map[string][]float32) float64 {
	if len(semanticTypes) == 0 || len(typeEmbeddings) == 0 {
		return 0
	}
	var total float64
	var n int
	for _, iri := range semanticTypes {
		ref, ok := typeEmbeddings[iri]
		if !ok {
			continue
		}
		total += cosineSimilarity32(embedding, ref)
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp01(1 - total/float64(n))
}

// GraphDocumentDrift measures coverage of document-declared entities in
// the outgoing graph edges, plus the fraction of edges pointing outside
// the document's entity set.
func (c *Calculator) GraphDocumentDrift(documentEntities []string, edges []modality.GraphEdge) float64 {
	if len(documentEntities) == 0 {
		return 0
	}

	matched := 0
	for _, entity := range documentEntities {
		for _, e := range edges {
			if e.IsLiteral {
				continue
			}
			if strings.Contains(e.Object, entity) || strings.Contains(entity, e.Object) {
				matched++
				break
			}
		}
	}
	coverage := float64(matched) / float64(len(documentEntities))

	var extraRatio float64
	if len(edges) > 0 {
		unmatched := 0
		for _, e := range edges {
			if e.IsLiteral {
				continue
			}
			found := false
			for _, entity := range documentEntities {
				if strings.Contains(e.Object, entity) {
					found = true
					break
				}
			}
			if !found {
				unmatched++
			}
		}
		extraRatio = float64(unmatched) / float64(len(edges))
	}

	return clamp01((1 - coverage + extraRatio) / 2)
}

// TemporalConsistencyDrift penalises non-monotonic timestamps, duplicate
// content hashes (weight 0.5 each), and a large gap relative to the median
// inter-version delta.
func (c *Calculator) TemporalConsistencyDrift(timestamps []int64, contentHashes []uint64) float64 {
	if len(timestamps) < 2 {
		return 0
	}

	issues := 0.0
	totalChecks := float64(len(timestamps) - 1)

	for i := 1; i < len(timestamps); i++ {
		if timestamps[i] < timestamps[i-1] {
			issues++
		}
	}

	counts := make(map[uint64]int)
	for _, h := range contentHashes {
		counts[h]++
	}
	duplicates := 0
	for _, n := range counts {
		if n > 1 {
			duplicates++
		}
	}
	issues += float64(duplicates) * 0.5

	if len(timestamps) >= 2 {
		deltas := make([]int64, 0, len(timestamps)-1)
		for i := 1; i < len(timestamps); i++ {
			deltas = append(deltas, timestamps[i]-timestamps[i-1])
		}
		sort.Slice(deltas, func(i, j int) bool { return deltas[i] < deltas[j] })
		if len(deltas) >= 3 {
			median := deltas[len(deltas)/2]
			max := deltas[len(deltas)-1]
			if median > 0 && max > median*10 {
				issues += 0.5
			}
		}
	}

	return clamp01(issues / (totalChecks + 1))
}

// TensorStats summarises a tensor payload for drift comparison.
type TensorStats struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	HasNaN bool
	HasInf bool
}

// ComputeTensorStats mirrors TensorStats::compute, filtering NaN/Inf out
// of the mean/std/min/max while still flagging their presence.
func ComputeTensorStats(data []float64) TensorStats {
	if len(data) == 0 {
		return TensorStats{}
	}
	var hasNaN, hasInf bool
	valid := make([]float64, 0, len(data))
	for _, x := range data {
		if math.IsNaN(x) {
			hasNaN = true
			continue
		}
		if math.IsInf(x, 0) {
			hasInf = true
			continue
		}
		valid = append(valid, x)
	}
	if len(valid) == 0 {
		return TensorStats{HasNaN: hasNaN, HasInf: hasInf}
	}
	var sum float64
	for _, x := range valid {
		sum += x
	}
	mean := sum / float64(len(valid))
	var variance float64
	for _, x := range valid {
		variance += (x - mean) * (x - mean)
	}
	variance /= float64(len(valid))

	min, max := valid[0], valid[0]
	for _, x := range valid {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return TensorStats{Mean: mean, StdDev: math.Sqrt(variance), Min: min, Max: max, HasNaN: hasNaN, HasInf: hasInf}
}

// TensorDrift penalises shape divergence from an expected shape, per-moment
// divergence from an optional expected baseline, and NaN/Inf presence.
func (c *Calculator) TensorDrift(data []float64, expectedShape, actualShape []int, expected *TensorStats) float64 {
	var score float64

	if !shapesEqual(expectedShape, actualShape) {
		n := len(expectedShape)
		if len(actualShape) > n {
			n = len(actualShape)
		}
		var diff float64
		for i := 0; i < n; i++ {
			var e, a float64
			if i < len(expectedShape) {
				e = float64(expectedShape[i])
			}
			if i < len(actualShape) {
				a = float64(actualShape[i])
			}
			if e != 0 {
				diff += math.Abs(e-a) / e
			}
		}
		if n > 0 {
			score += (diff / float64(n)) * 0.5
		}
	}

	if expected != nil {
		actual := ComputeTensorStats(data)
		if math.Abs(expected.Mean) > 1e-10 {
			meanDiff := math.Abs(actual.Mean-expected.Mean) / math.Abs(expected.Mean)
			score += math.Min(meanDiff, 1.0) * 0.2
		}
		if expected.StdDev > 1e-10 {
			stdDiff := math.Abs(actual.StdDev-expected.StdDev) / expected.StdDev
			score += math.Min(stdDiff, 1.0) * 0.2
		}
		if actual.HasNaN || actual.HasInf {
			score += 0.3
		}
	}

	return clamp01(score)
}

func shapesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SchemaDrift weighs missing required modalities (0.5) against the
// fraction of constraint violations observed (0.5).
func (c *Calculator) SchemaDrift(requiredModalities, presentModalities []modality.Modality, violations, totalConstraints int) float64 {
	var score float64
	if len(requiredModalities) > 0 {
		missing := 0
		for _, m := range requiredModalities {
			if !containsModality(presentModalities, m) {
				missing++
			}
		}
		score += (float64(missing) / float64(len(requiredModalities))) * 0.5
	}
	if totalConstraints > 0 {
		score += (float64(violations) / float64(totalConstraints)) * 0.5
	}
	return clamp01(score)
}

func containsModality(set []modality.Modality, m modality.Modality) bool {
	for _, x := range set {
		if x == m {
			return true
		}
	}
	return false
}

// QualityDrift aggregates the five component scores with the spec's fixed
// weights (0.25, 0.25, 0.20, 0.15, 0.15).
func (c *Calculator) QualityDrift(semanticVector, graphDocument, temporal, tensor, schema float64) float64 {
	return clamp01(semanticVector*0.25 + graphDocument*0.25 + temporal*0.20 + tensor*0.15 + schema*0.15)
}

// PrimaryDriftType reports which component carries the highest score.
func (c *Calculator) PrimaryDriftType(semanticVector, graphDocument, temporal, tensor, schema float64) Type {
	best := SemanticVector
	bestScore := semanticVector
	for _, candidate := range []struct {
		t Type
		s float64
	}{
		{GraphDocument, graphDocument},
		{Temporal, temporal},
		{Tensor, tensor},
		{Schema, schema},
	} {
		if candidate.s > bestScore {
			best = candidate.t
			bestScore = candidate.s
		}
	}
	return best
}

func cosineSimilarity32(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
