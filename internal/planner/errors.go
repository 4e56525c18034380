package planner

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPlan is returned by Optimize when the logical plan has no
	// modality nodes to schedule (spec.md §4.5 step 1).
	ErrEmptyPlan = errors.New("planner: empty plan: no modality nodes to optimize")

	// ErrUnboundParameter is returned by BindParams when a parameter named
	// in the statement's schema has no bound value.
	ErrUnboundParameter = errors.New("planner: unbound parameter")

	// ErrUnknownPreparedID names a prepared statement id that is not in the
	// cache. PlanCache.Get does not return it; Get reports a miss as false.
	ErrUnknownPreparedID = errors.New("planner: unknown prepared statement id")
)

// StepIndexOutOfRangeError is returned by Profiler.RecordStep when the
// caller names a step that doesn't exist in the wrapped plan.
type StepIndexOutOfRangeError struct {
	Index     int
	StepCount int
}

func (e *StepIndexOutOfRangeError) Error() string {
	return fmt.Sprintf("planner: step index %d out of range (plan has %d steps)", e.Index, e.StepCount)
}
