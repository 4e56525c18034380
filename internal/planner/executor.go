package planner

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// StepRunner executes one PlanStep against whatever backs that step's
// modality (a hexad sub-store, a federation call, ...) and reports how
// many rows it actually produced. The executor only cares about timing
// and row counts; the runner owns everything else about the step.
type StepRunner func(ctx context.Context, step PlanStep) (rows uint64, err error)

// Execute runs every step of plan via run, honoring plan.Strategy: Parallel
// steps run concurrently through an errgroup, bounded by the context;
// Sequential steps run one at a time in plan order (spec.md §4.5 "Choose
// strategy"). Every step's actual timing feeds both the returned Profiler
// and stats, whether or not the plan fails, so a partial run still leaves
// adaptive statistics and an EXPLAIN ANALYZE profile behind. Execute
// returns the first error encountered (for Parallel, via errgroup's
// first-error-wins semantics), but the Profiler reflects whatever had
// completed at that point.
func Execute(ctx context.Context, planID string, plan PhysicalPlan, stats *StatisticsCollector, run StepRunner) (QueryProfile, error) {
	profiler := NewProfiler(planID, plan)

	record := func(ctx context.Context, step PlanStep) error {
		started := time.Now().UTC()
		rows, runErr := run(ctx, step)
		ended := time.Now().UTC()
		if recErr := profiler.RecordStep(step.Step-stepOffset(plan), durationMs(started, ended), rows, started, ended); recErr != nil {
			return fmt.Errorf("planner: step %d (%s/%s): %w", step.Step, step.Modality, step.Operation, recErr)
		}
		if runErr != nil {
			return fmt.Errorf("planner: step %d (%s/%s): %w", step.Step, step.Modality, step.Operation, runErr)
		}
		return nil
	}

	var runErr error
	switch plan.Strategy {
	case Parallel:
		eg, egCtx := errgroup.WithContext(ctx)
		for _, step := range plan.Steps {
			step := step
			eg.Go(func() error { return record(egCtx, step) })
		}
		runErr = eg.Wait()
	default:
		for _, step := range plan.Steps {
			if err := record(ctx, step); err != nil {
				runErr = err
				break
			}
		}
	}

	return profiler.Finish(stats), runErr
}

func durationMs(started, ended time.Time) float64 {
	return float64(ended.Sub(started)) / float64(time.Millisecond)
}

// stepOffset adapts a PlanStep's 1-based or otherwise externally-numbered
// Step field to the Profiler's 0-based slice index. Optimize numbers steps
// starting at plan.Steps[0].Step, so the offset is whatever that first
// value is.
func stepOffset(plan PhysicalPlan) int {
	if len(plan.Steps) == 0 {
		return 0
	}
	return plan.Steps[0].Step
}
