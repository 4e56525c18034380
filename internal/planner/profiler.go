package planner

import (
	"fmt"
	"math"
	"time"
)

const (
	slowThreshold     = 2.0
	fastThreshold     = 0.5
	rowOverThreshold  = 3.0
	rowUnderThreshold = 0.33
)

// ProfileStep pairs one PlanStep's estimate with its observed execution
// (spec.md §4.5 "EXPLAIN ANALYZE").
type ProfileStep struct {
	StepName      string
	Modality      string
	EstimatedMs   float64
	ActualMs      float64
	EstimatedRows uint64
	ActualRows    uint64
	StartedAt     time.Time
	EndedAt       time.Time
}

// TimeAccuracyRatio is ActualMs/EstimatedMs; +Inf when EstimatedMs is zero.
func (s ProfileStep) TimeAccuracyRatio() float64 {
	if s.EstimatedMs <= 0 {
		return math.Inf(1)
	}
	return s.ActualMs / s.EstimatedMs
}

// RowAccuracyRatio is ActualRows/EstimatedRows; +Inf when EstimatedRows is zero.
func (s ProfileStep) RowAccuracyRatio() float64 {
	if s.EstimatedRows == 0 {
		return math.Inf(1)
	}
	return float64(s.ActualRows) / float64(s.EstimatedRows)
}

// QueryProfile is the aggregated EXPLAIN ANALYZE result for one executed
// PhysicalPlan.
type QueryProfile struct {
	PlanID             string
	Steps              []ProfileStep
	TotalEstimatedMs   float64
	TotalActualMs      float64
	OptimizationHints  []string
}

// TotalTimeAccuracyRatio is TotalActualMs/TotalEstimatedMs.
func (p QueryProfile) TotalTimeAccuracyRatio() float64 {
	if p.TotalEstimatedMs <= 0 {
		return math.Inf(1)
	}
	return p.TotalActualMs / p.TotalEstimatedMs
}

// RenderText renders the profile as a human-readable EXPLAIN ANALYZE block.
func (p QueryProfile) RenderText(explain ExplainOutput) string {
	out := "=== VeriSimDB EXPLAIN ANALYZE ===\n\n"
	out += fmt.Sprintf("Plan ID: %s\n", p.PlanID)
	out += fmt.Sprintf("Strategy: %s\n", explain.Strategy)
	out += fmt.Sprintf("Total Estimated: %.1fms | Total Actual: %.1fms | Accuracy: %.2fx\n\n",
		p.TotalEstimatedMs, p.TotalActualMs, p.TotalTimeAccuracyRatio())

	out += "--- Steps ---\n"
	for i, step := range p.Steps {
		out += fmt.Sprintf("  Step %d: %s [%s]\n", i+1, step.StepName, step.Modality)
		out += fmt.Sprintf("    Estimated: %.1fms / ~%d rows\n", step.EstimatedMs, step.EstimatedRows)
		out += fmt.Sprintf("    Actual:    %.1fms / %d rows\n", step.ActualMs, step.ActualRows)
		out += fmt.Sprintf("    Time accuracy: %.2fx | Row accuracy: %.2fx\n",
			step.TimeAccuracyRatio(), step.RowAccuracyRatio())
	}

	if len(p.OptimizationHints) > 0 {
		out += "\n--- Optimization Hints ---\n"
		for _, hint := range p.OptimizationHints {
			out += fmt.Sprintf("  * %s\n", hint)
		}
	}
	return out
}

// Profiler wraps a PhysicalPlan and records actual per-step execution
// metrics, producing a QueryProfile on Finish (spec.md §4.5 "Profiler").
type Profiler struct {
	planID  string
	plan    PhysicalPlan
	results []*ProfileStep
}

// NewProfiler constructs a Profiler for plan, identified by planID.
func NewProfiler(planID string, plan PhysicalPlan) *Profiler {
	return &Profiler{planID: planID, plan: plan, results: make([]*ProfileStep, len(plan.Steps))}
}

// RecordStep records actual metrics for the step at stepIndex (0-based).
// Returns a *StepIndexOutOfRangeError if stepIndex doesn't name a step of
// the wrapped plan (spec.md §9: the core never uses panics for control
// flow).
func (p *Profiler) RecordStep(stepIndex int, actualMs float64, actualRows uint64, started, ended time.Time) error {
	if stepIndex < 0 || stepIndex >= len(p.plan.Steps) {
		return &StepIndexOutOfRangeError{Index: stepIndex, StepCount: len(p.plan.Steps)}
	}
	step := p.plan.Steps[stepIndex]
	p.results[stepIndex] = &ProfileStep{
		StepName:      step.Operation,
		Modality:      step.Modality.String(),
		EstimatedMs:   step.Cost.TimeMs,
		ActualMs:      actualMs,
		EstimatedRows: step.Cost.EstimatedRows,
		ActualRows:    actualRows,
		StartedAt:     started,
		EndedAt:       ended,
	}
	return nil
}

// Finish consumes the profiler, feeding every recorded step's actuals
// into stats for adaptive tuning, and returns the aggregated QueryProfile.
// Steps never recorded via RecordStep are filled with zero actuals.
func (p *Profiler) Finish(stats *StatisticsCollector) QueryProfile {
	steps := make([]ProfileStep, len(p.plan.Steps))
	for i, recorded := range p.results {
		if recorded != nil {
			steps[i] = *recorded
		} else {
			planStep := p.plan.Steps[i]
			now := time.Now().UTC()
			steps[i] = ProfileStep{
				StepName:      planStep.Operation,
				Modality:      planStep.Modality.String(),
				EstimatedMs:   planStep.Cost.TimeMs,
				EstimatedRows: planStep.Cost.EstimatedRows,
				StartedAt:     now,
				EndedAt:       now,
			}
		}
		if stats != nil {
			stats.RecordExecution(p.plan.Steps[i].Modality, steps[i].ActualMs, steps[i].ActualRows)
		}
	}

	var totalEstimated, totalActual float64
	for _, s := range steps {
		totalEstimated += s.EstimatedMs
		totalActual += s.ActualMs
	}

	return QueryProfile{
		PlanID:            p.planID,
		Steps:             steps,
		TotalEstimatedMs:  totalEstimated,
		TotalActualMs:     totalActual,
		OptimizationHints: generateHints(steps, totalEstimated, totalActual),
	}
}

func generateHints(steps []ProfileStep, totalEstimatedMs, totalActualMs float64) []string {
	var hints []string

	if totalEstimatedMs > 0 {
		ratio := totalActualMs / totalEstimatedMs
		if ratio > slowThreshold {
			hints = append(hints, fmt.Sprintf(
				"Query was %.1fx slower than estimated (%.0fms actual vs %.0fms estimated) — planner may be underestimating costs",
				ratio, totalActualMs, totalEstimatedMs))
		} else if ratio < fastThreshold {
			hints = append(hints, fmt.Sprintf(
				"Query was %.1fx faster than estimated (%.0fms actual vs %.0fms estimated) — planner may be overestimating costs",
				ratio, totalActualMs, totalEstimatedMs))
		}
	}

	for _, step := range steps {
		ratio := step.TimeAccuracyRatio()
		if !math.IsInf(ratio, 0) && ratio > slowThreshold {
			hints = append(hints, fmt.Sprintf(
				"Step '%s' [%s]: %.1fx slower than estimated (%.0fms vs %.0fms) — consider updating cost model for this modality",
				step.StepName, step.Modality, ratio, step.ActualMs, step.EstimatedMs))
		} else if ratio < fastThreshold {
			hints = append(hints, fmt.Sprintf(
				"Step '%s' [%s]: %.1fx faster than estimated (%.0fms vs %.0fms) — aggressive mode may be appropriate",
				step.StepName, step.Modality, ratio, step.ActualMs, step.EstimatedMs))
		}
	}

	for _, step := range steps {
		ratio := step.RowAccuracyRatio()
		if !math.IsInf(ratio, 0) && ratio > rowOverThreshold {
			hints = append(hints, fmt.Sprintf(
				"Step '%s' [%s]: returned %.1fx more rows than estimated (%d vs %d) — selectivity estimate may be too low",
				step.StepName, step.Modality, ratio, step.ActualRows, step.EstimatedRows))
		} else if ratio < rowUnderThreshold && step.EstimatedRows > 0 {
			hints = append(hints, fmt.Sprintf(
				"Step '%s' [%s]: returned %.1fx fewer rows than estimated (%d vs %d) — selectivity estimate may be too high",
				step.StepName, step.Modality, ratio, step.ActualRows, step.EstimatedRows))
		}
	}

	return hints
}
