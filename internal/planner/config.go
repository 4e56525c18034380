// Package planner implements cost-based query planning for VeriSimDB
// (spec.md §4.5). Grounded on original_source/rust-core/verisim-planner,
// expressed in the teacher's idiom: plain structs guarded by a mutex where
// state is mutated, config-as-value where it isn't.
package planner

import "verisimdb/internal/modality"

// OptimizationMode trades estimate accuracy for safety margin.
type OptimizationMode string

const (
	Conservative OptimizationMode = "conservative"
	Balanced     OptimizationMode = "balanced"
	Aggressive   OptimizationMode = "aggressive"
)

// CostMultiplier scales a node's estimated time.
func (m OptimizationMode) CostMultiplier() float64 {
	switch m {
	case Conservative:
		return 1.5
	case Aggressive:
		return 0.8
	default:
		return 1.0
	}
}

// SelectivityMultiplier scales a node's estimated selectivity.
func (m OptimizationMode) SelectivityMultiplier() float64 {
	switch m {
	case Conservative:
		return 2.0
	case Aggressive:
		return 0.5
	default:
		return 1.0
	}
}

// Config holds planner-wide tuning knobs (spec.md §4.5).
type Config struct {
	GlobalMode        OptimizationMode
	ModalityOverrides map[modality.Modality]OptimizationMode
	StatisticsWeight  float64 // weight given to observed EMA latency vs base cost, (0,1]
	EnableAdaptive    bool
	ParallelThreshold int // min node count to choose Parallel strategy
}

// DefaultConfig mirrors the published defaults: global balanced, Vector
// aggressive (predictable HNSW), Graph and Semantic conservative
// (unpredictable traversals / expensive proof verification).
func DefaultConfig() Config {
	return Config{
		GlobalMode: Balanced,
		ModalityOverrides: map[modality.Modality]OptimizationMode{
			modality.Vector:   Aggressive,
			modality.Graph:    Conservative,
			modality.Semantic: Conservative,
		},
		StatisticsWeight:  0.7,
		EnableAdaptive:    true,
		ParallelThreshold: 2,
	}
}

// ModeFor resolves the effective OptimizationMode for m: a per-modality
// override if one is set, else GlobalMode.
func (c Config) ModeFor(m modality.Modality) OptimizationMode {
	if mode, ok := c.ModalityOverrides[m]; ok {
		return mode
	}
	return c.GlobalMode
}
