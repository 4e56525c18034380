package planner

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"verisimdb/internal/modality"
)

// Planner transforms LogicalPlans into optimized PhysicalPlans. Grounded
// on original_source/rust-core/verisim-planner/src/optimizer.rs's
// Planner, generalized from a single-owner struct to one guarded by a
// mutex so config updates are safe from concurrent query planning
// (spec.md §5 "no singletons" — callers inject and own their Planner).
type Planner struct {
	mu    sync.RWMutex
	cfg   Config
	stats *StatisticsCollector
	log   *zap.Logger
}

// NewPlanner constructs a Planner with cfg and a fresh StatisticsCollector.
func NewPlanner(cfg Config, log *zap.Logger) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{cfg: cfg, stats: NewStatisticsCollector(), log: log}
}

// Config returns the planner's current configuration.
func (p *Planner) Config() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// SetConfig replaces the planner's configuration.
func (p *Planner) SetConfig(cfg Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
}

// Stats exposes the planner's statistics collector.
func (p *Planner) Stats() *StatisticsCollector { return p.stats }

// Optimize transforms logical into an optimized PhysicalPlan (spec.md
// §4.5 "Optimise").
func (p *Planner) Optimize(logical LogicalPlan) (PhysicalPlan, error) {
	if len(logical.Nodes) == 0 {
		return PhysicalPlan{}, ErrEmptyPlan
	}

	p.mu.RLock()
	cfg := p.cfg
	p.mu.RUnlock()

	type scored struct {
		idx  int
		cost CostEstimate
		hint *string
	}
	scoredNodes := make([]scored, len(logical.Nodes))
	for i, node := range logical.Nodes {
		stats := p.stats.get(node.Modality)
		cost := Estimate(node, cfg, stats)
		hint := OptimizationHint(node)
		scoredNodes[i] = scored{idx: i, cost: cost, hint: hint}
	}

	sort.SliceStable(scoredNodes, func(a, b int) bool {
		pa := ExecutionPriority(logical.Nodes[scoredNodes[a].idx].Modality)
		pb := ExecutionPriority(logical.Nodes[scoredNodes[b].idx].Modality)
		if pa != pb {
			return pa < pb
		}
		return scoredNodes[a].cost.TimeMs < scoredNodes[b].cost.TimeMs
	})

	strategy := Sequential
	if len(logical.Nodes) >= cfg.ParallelThreshold {
		strategy = Parallel
	}

	steps := make([]PlanStep, 0, len(scoredNodes))
	costs := make([]CostEstimate, 0, len(scoredNodes))
	for stepNum, sn := range scoredNodes {
		node := logical.Nodes[sn.idx]
		operation := fmt.Sprintf("%s %s", operationName(node.Modality), conditionSummary(node.Conditions))
		predicates := make([]string, len(node.Conditions))
		for i, c := range node.Conditions {
			predicates[i] = string(c.Kind)
		}
		steps = append(steps, PlanStep{
			Step:             stepNum + 1,
			Operation:        operation,
			Modality:         node.Modality,
			Cost:             sn.cost,
			OptimizationHint: sn.hint,
			PushedPredicates: predicates,
		})
		costs = append(costs, sn.cost)
	}

	totalCost := Combine(costs, strategy == Parallel)

	var notes []string
	if strategy == Parallel {
		notes = append(notes, fmt.Sprintf("Parallel execution across %d modalities", len(steps)))
	} else {
		notes = append(notes, "Sequential execution")
	}
	if totalCost.TimeMs > 500 {
		notes = append(notes, "High estimated cost — consider adding LIMIT or more selective predicates")
	}
	for _, step := range steps {
		if step.Cost.Selectivity > 0.5 && step.Cost.TimeMs > 100 {
			notes = append(notes, fmt.Sprintf(
				"Step %d: %s has high selectivity (%.0f%%) — may benefit from additional predicates",
				step.Step, step.Modality, step.Cost.Selectivity*100))
		}
	}

	p.log.Debug("optimized logical plan", zap.Int("nodes", len(logical.Nodes)),
		zap.String("strategy", string(strategy)), zap.Float64("total_ms", totalCost.TimeMs))

	return PhysicalPlan{Steps: steps, Strategy: strategy, TotalCost: totalCost, Notes: notes}, nil
}

// Explain optimizes logical and renders it as an ExplainOutput.
func (p *Planner) Explain(logical LogicalPlan) (ExplainOutput, error) {
	physical, err := p.Optimize(logical)
	if err != nil {
		return ExplainOutput{}, err
	}
	return NewExplainOutput(physical, p.Config()), nil
}

func operationName(m modality.Modality) string {
	switch m {
	case modality.Graph:
		return "Graph traversal"
	case modality.Vector:
		return "Vector similarity search"
	case modality.Tensor:
		return "Tensor computation"
	case modality.Semantic:
		return "Semantic verification"
	case modality.Document:
		return "Document fulltext search"
	case modality.Temporal:
		return "Temporal version lookup"
	case modality.Provenance:
		return "Provenance chain scan"
	case modality.Spatial:
		return "Spatial predicate scan"
	default:
		return "Scan"
	}
}

func conditionSummary(conditions []ConditionKind) string {
	if len(conditions) == 0 {
		return "(scan)"
	}
	return fmt.Sprintf("(%d conditions)", len(conditions))
}
