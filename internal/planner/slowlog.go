package planner

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"verisimdb/internal/modality"
)

// SlowQueryConfig configures SlowQueryLog (spec.md §4.5 "Slow-query log").
type SlowQueryConfig struct {
	ThresholdMs            float64
	MaxEntries             int
	Enabled                bool
	MultiModalityThreshold int
}

// DefaultSlowQueryConfig matches the published defaults: 100ms threshold,
// 1000-entry ring buffer, enabled, multi-modality check disabled.
func DefaultSlowQueryConfig() SlowQueryConfig {
	return SlowQueryConfig{ThresholdMs: 100, MaxEntries: 1000, Enabled: true}
}

// BottleneckInfo names the slowest step in a recorded query.
type BottleneckInfo struct {
	Modality   modality.Modality
	Operation  string
	TimeMs     float64
	Percentage float64
}

// SlowQueryEntry is one ring-buffer record.
type SlowQueryEntry struct {
	Timestamp     time.Time
	QueryText     string
	ActualMs      float64
	EstimatedMs   float64
	SlowdownRatio float64
	Strategy      ExecutionStrategy
	Modalities    []modality.Modality
	RowsReturned  int
	Bottleneck    *BottleneckInfo
}

// StepTiming is one (modality, actual_ms, rows) observation fed to Record.
type StepTiming struct {
	Modality modality.Modality
	TimeMs   float64
	Rows     int
}

// SlowQueryLog is a ring buffer of SlowQueryEntry with structured-log
// integration (spec.md §4.5). Grounded on
// original_source/rust-core/verisim-planner/src/slow_query.rs.
type SlowQueryLog struct {
	mu      sync.RWMutex
	cfg     SlowQueryConfig
	entries []SlowQueryEntry // append at back, evict from front
	log     *zap.Logger
}

// NewSlowQueryLog constructs a log with cfg. log may be nil.
func NewSlowQueryLog(cfg SlowQueryConfig, log *zap.Logger) *SlowQueryLog {
	if log == nil {
		log = zap.NewNop()
	}
	return &SlowQueryLog{cfg: cfg, log: log}
}

// Config returns the log's current configuration.
func (l *SlowQueryLog) Config() SlowQueryConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// SetConfig replaces the log's configuration.
func (l *SlowQueryLog) SetConfig(cfg SlowQueryConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg = cfg
}

// Record evaluates one executed query against the threshold and
// multi-modality rules, appending an entry and emitting a warning log
// when either trips. Returns whether it was recorded.
func (l *SlowQueryLog) Record(queryText string, actualMs float64, plan PhysicalPlan, stepTimes []StepTiming) bool {
	l.mu.Lock()
	cfg := l.cfg
	if !cfg.Enabled {
		l.mu.Unlock()
		return false
	}

	isSlow := actualMs >= cfg.ThresholdMs
	isMulti := cfg.MultiModalityThreshold > 0 && len(plan.Steps) >= cfg.MultiModalityThreshold
	if !isSlow && !isMulti {
		l.mu.Unlock()
		return false
	}

	estimatedMs := plan.TotalCost.TimeMs
	slowdownRatio := math.Inf(1)
	if estimatedMs > 0 {
		slowdownRatio = actualMs / estimatedMs
	}

	modalities := make([]modality.Modality, len(plan.Steps))
	for i, s := range plan.Steps {
		modalities[i] = s.Modality
	}

	var bottleneck *BottleneckInfo
	var maxTime float64 = -1
	var totalRows int
	for _, st := range stepTimes {
		totalRows += st.Rows
		if st.TimeMs > maxTime {
			maxTime = st.TimeMs
			pct := 0.0
			if actualMs > 0 {
				pct = (st.TimeMs / actualMs) * 100
			}
			bottleneck = &BottleneckInfo{
				Modality:   st.Modality,
				Operation:  fmt.Sprintf("%s query", st.Modality),
				TimeMs:     st.TimeMs,
				Percentage: pct,
			}
		}
	}

	entry := SlowQueryEntry{
		Timestamp:     time.Now().UTC(),
		QueryText:     queryText,
		ActualMs:      actualMs,
		EstimatedMs:   estimatedMs,
		SlowdownRatio: slowdownRatio,
		Strategy:      plan.Strategy,
		Modalities:    modalities,
		RowsReturned:  totalRows,
		Bottleneck:    bottleneck,
	}

	l.entries = append(l.entries, entry)
	if len(l.entries) > cfg.MaxEntries {
		l.entries = l.entries[len(l.entries)-cfg.MaxEntries:]
	}
	l.mu.Unlock()

	bottleneckDesc := "unknown"
	if bottleneck != nil {
		bottleneckDesc = fmt.Sprintf("%s (%.0fms, %.0f%%)", bottleneck.Modality, bottleneck.TimeMs, bottleneck.Percentage)
	}
	l.log.Warn("slow query detected",
		zap.Float64("actual_ms", actualMs), zap.Float64("estimated_ms", estimatedMs),
		zap.Float64("slowdown_ratio", slowdownRatio), zap.Int("rows", totalRows),
		zap.String("bottleneck", bottleneckDesc), zap.String("query", queryText))

	return true
}

// Recent returns the newest limit entries, newest-first.
func (l *SlowQueryLog) Recent(limit int) []SlowQueryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := len(l.entries)
	if limit > n {
		limit = n
	}
	out := make([]SlowQueryEntry, limit)
	for i := 0; i < limit; i++ {
		out[i] = l.entries[n-1-i]
	}
	return out
}

// All returns every recorded entry, oldest-first.
func (l *SlowQueryLog) All() []SlowQueryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]SlowQueryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Count reports how many entries are currently buffered.
func (l *SlowQueryLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear empties the ring buffer.
func (l *SlowQueryLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// SlowQuerySummary aggregates the ring buffer's statistics.
type SlowQuerySummary struct {
	TotalCount            int
	AvgMs                 float64
	MaxMs                 float64
	MinMs                 float64
	AvgSlowdownRatio      float64
	TopBottleneckModality *modality.Modality
}

// Summary computes aggregate statistics over the current ring buffer.
func (l *SlowQueryLog) Summary() SlowQuerySummary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return SlowQuerySummary{}
	}

	var sumMs, maxMs, ratioSum float64
	minMs := math.Inf(1)
	counts := make(map[modality.Modality]int)
	for _, e := range l.entries {
		sumMs += e.ActualMs
		if e.ActualMs > maxMs {
			maxMs = e.ActualMs
		}
		if e.ActualMs < minMs {
			minMs = e.ActualMs
		}
		ratioSum += e.SlowdownRatio
		if e.Bottleneck != nil {
			counts[e.Bottleneck.Modality]++
		}
	}

	var top *modality.Modality
	best := -1
	for m, c := range counts {
		if c > best {
			best = c
			mCopy := m
			top = &mCopy
		}
	}

	n := float64(len(l.entries))
	return SlowQuerySummary{
		TotalCount:            len(l.entries),
		AvgMs:                 sumMs / n,
		MaxMs:                 maxMs,
		MinMs:                 minMs,
		AvgSlowdownRatio:      ratioSum / n,
		TopBottleneckModality: top,
	}
}
