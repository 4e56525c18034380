package planner

import (
	"sync"
	"time"

	"verisimdb/internal/modality"
)

// StoreStatistics tracks a single modality store's observed query
// performance (spec.md §4.5 "Statistics collector").
type StoreStatistics struct {
	Modality        modality.Modality
	TotalRows       uint64
	AvgLatencyMs    float64
	AvgRowsReturned uint64
	QueryCount      uint64
	LastUpdated     time.Time
}

// StatisticsCollector accumulates per-modality EMA latency and row-count
// statistics, feeding both the cost model's blended estimate and the
// AdaptiveTuner. Grounded on
// original_source/rust-core/verisim-planner/src/stats.rs's
// StatisticsCollector.
type StatisticsCollector struct {
	mu    sync.Mutex
	stats map[modality.Modality]*StoreStatistics
}

// NewStatisticsCollector constructs an empty collector.
func NewStatisticsCollector() *StatisticsCollector {
	return &StatisticsCollector{stats: make(map[modality.Modality]*StoreStatistics)}
}

// Get returns a copy of the current statistics for m, or the zero value
// if nothing has been recorded yet.
func (c *StatisticsCollector) Get(m modality.Modality) StoreStatistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.stats[m]; ok {
		return *s
	}
	return StoreStatistics{Modality: m}
}

// get returns the cost model's lightweight view of m's statistics.
func (c *StatisticsCollector) get(m modality.Modality) Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stats[m]
	if !ok {
		return Statistics{}
	}
	return Statistics{AvgLatencyMs: s.AvgLatencyMs, AvgRowsReturned: s.AvgRowsReturned, HasObservations: s.QueryCount > 0}
}

// Snapshot returns a copy of every tracked modality's statistics.
func (c *StatisticsCollector) Snapshot() map[modality.Modality]StoreStatistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[modality.Modality]StoreStatistics, len(c.stats))
	for m, s := range c.stats {
		out[m] = *s
	}
	return out
}

const statsEmaAlpha = 0.1

// RecordExecution folds one observed (latency, rows) sample for m into
// its moving average (EMA α=0.1, same as the drift detector's approach).
func (c *StatisticsCollector) RecordExecution(m modality.Modality, latencyMs float64, rows uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stats[m]
	if !ok {
		s = &StoreStatistics{Modality: m}
		c.stats[m] = s
	}
	s.QueryCount++
	if s.QueryCount == 1 {
		s.AvgLatencyMs = latencyMs
		s.AvgRowsReturned = rows
	} else {
		s.AvgLatencyMs = statsEmaAlpha*latencyMs + (1-statsEmaAlpha)*s.AvgLatencyMs
		s.AvgRowsReturned = uint64(statsEmaAlpha*float64(rows) + (1-statsEmaAlpha)*float64(s.AvgRowsReturned))
	}
	s.LastUpdated = time.Now().UTC()
}

// UpdateRowCount records m's current total row count (used for display,
// not cost estimation).
func (c *StatisticsCollector) UpdateRowCount(m modality.Modality, totalRows uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stats[m]
	if !ok {
		s = &StoreStatistics{Modality: m}
		c.stats[m] = s
	}
	s.TotalRows = totalRows
	s.LastUpdated = time.Now().UTC()
}

// AdaptiveTuner compares observed latency against the mode-scaled base
// cost estimate and suggests per-modality OptimizationMode adjustments
// (spec.md §4.5 "Adaptive tuning").
type AdaptiveTuner struct {
	AggressiveThreshold   float64
	ConservativeThreshold float64
	MinSamples            uint64
}

// NewAdaptiveTuner returns a tuner with the spec's published defaults.
func NewAdaptiveTuner() AdaptiveTuner {
	return AdaptiveTuner{AggressiveThreshold: 0.5, ConservativeThreshold: 2.0, MinSamples: 10}
}

// Adjustment is one suggested per-modality mode change.
type Adjustment struct {
	Modality modality.Modality
	Mode     OptimizationMode
}

// SuggestAdjustments evaluates collector's statistics against cfg and
// returns the modalities whose observed/estimated ratio crosses a
// threshold, paired with the suggested mode.
func (t AdaptiveTuner) SuggestAdjustments(collector *StatisticsCollector, cfg Config) []Adjustment {
	var adjustments []Adjustment
	for _, m := range modality.Ordered {
		stats := collector.Get(m)
		if stats.QueryCount < t.MinSamples {
			continue
		}
		currentMode := cfg.ModeFor(m)
		estimatedMs := baseCostFor(m).TimeMs * currentMode.CostMultiplier()
		if estimatedMs <= 0 {
			continue
		}
		ratio := stats.AvgLatencyMs / estimatedMs

		var suggested OptimizationMode
		switch {
		case ratio < t.AggressiveThreshold:
			suggested = Aggressive
		case ratio > t.ConservativeThreshold:
			suggested = Conservative
		default:
			suggested = Balanced
		}

		if suggested != currentMode {
			adjustments = append(adjustments, Adjustment{Modality: m, Mode: suggested})
		}
	}
	return adjustments
}

// Apply returns cfg with every suggested adjustment folded in as a
// per-modality override. A no-op when cfg.EnableAdaptive is false.
func (t AdaptiveTuner) Apply(collector *StatisticsCollector, cfg Config) Config {
	if !cfg.EnableAdaptive {
		return cfg
	}
	adjustments := t.SuggestAdjustments(collector, cfg)
	if len(adjustments) == 0 {
		return cfg
	}
	next := cfg
	next.ModalityOverrides = make(map[modality.Modality]OptimizationMode, len(cfg.ModalityOverrides))
	for m, mode := range cfg.ModalityOverrides {
		next.ModalityOverrides[m] = mode
	}
	for _, adj := range adjustments {
		next.ModalityOverrides[adj.Modality] = adj.Mode
	}
	return next
}
