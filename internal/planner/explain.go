package planner

import "fmt"

// PerformanceHint is one human-readable optimization suggestion attached
// to an EXPLAIN or EXPLAIN ANALYZE output.
type PerformanceHint struct {
	Severity string // "info" | "analyze"
	Message  string
}

// ExplainOutput reformats a PhysicalPlan into a text block plus a
// structured representation (spec.md §4.5 "EXPLAIN").
type ExplainOutput struct {
	Steps            []PlanStep
	Strategy         ExecutionStrategy
	TotalCost        CostEstimate
	PerformanceHints []PerformanceHint
	TextOutput       string
}

// NewExplainOutput renders physical into an ExplainOutput.
func NewExplainOutput(physical PhysicalPlan, cfg Config) ExplainOutput {
	hints := make([]PerformanceHint, 0, len(physical.Notes))
	for _, note := range physical.Notes {
		hints = append(hints, PerformanceHint{Severity: "info", Message: note})
	}

	text := fmt.Sprintf("=== VeriSimDB EXPLAIN ===\n\nStrategy: %s\nTotal estimated: %.1fms (%d rows, selectivity %.2f)\n\n--- Steps ---\n",
		physical.Strategy, physical.TotalCost.TimeMs, physical.TotalCost.EstimatedRows, physical.TotalCost.Selectivity)
	for _, step := range physical.Steps {
		text += fmt.Sprintf("  Step %d: %s [%s]\n    Cost: %.1fms, ~%d rows, selectivity %.2f\n",
			step.Step, step.Operation, step.Modality, step.Cost.TimeMs, step.Cost.EstimatedRows, step.Cost.Selectivity)
		if step.OptimizationHint != nil {
			text += fmt.Sprintf("    Hint: %s\n", *step.OptimizationHint)
		}
		if len(step.PushedPredicates) > 0 {
			text += fmt.Sprintf("    Pushed predicates: %v\n", step.PushedPredicates)
		}
	}
	if len(physical.Notes) > 0 {
		text += "\n--- Notes ---\n"
		for _, note := range physical.Notes {
			text += fmt.Sprintf("  * %s\n", note)
		}
	}

	return ExplainOutput{
		Steps:            physical.Steps,
		Strategy:         physical.Strategy,
		TotalCost:        physical.TotalCost,
		PerformanceHints: hints,
		TextOutput:       text,
	}
}

// ExplainAnalyzeOutput merges an ExplainOutput with a QueryProfile's
// actual execution metrics (spec.md §4.5 "EXPLAIN ANALYZE").
type ExplainAnalyzeOutput struct {
	Explain       ExplainOutput
	Profile       QueryProfile
	CombinedHints []PerformanceHint
	TextOutput    string
}

// WithProfile combines e with profile into an ExplainAnalyzeOutput.
func (e ExplainOutput) WithProfile(profile QueryProfile) ExplainAnalyzeOutput {
	hints := make([]PerformanceHint, len(e.PerformanceHints))
	copy(hints, e.PerformanceHints)
	for _, h := range profile.OptimizationHints {
		hints = append(hints, PerformanceHint{Severity: "analyze", Message: h})
	}
	return ExplainAnalyzeOutput{
		Explain:       e,
		Profile:       profile,
		CombinedHints: hints,
		TextOutput:    profile.RenderText(e),
	}
}
