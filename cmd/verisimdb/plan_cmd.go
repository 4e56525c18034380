package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"verisimdb/internal/modality"
	"verisimdb/internal/planner"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build and explain query plans",
}

var planExplainCmd = &cobra.Command{
	Use:   "explain <query.json>",
	Short: "Render EXPLAIN output for a logical query described in a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanExplain,
}

func init() {
	planCmd.AddCommand(planExplainCmd)
}

// queryNodeSpec is the JSON shape accepted by `plan explain`: a minimal,
// human-writable stand-in for planner.PlanNode/ConditionKind.
type queryNodeSpec struct {
	Modality    string              `json:"modality"`
	Conditions  []conditionSpec     `json:"conditions"`
	Projections []string            `json:"projections"`
	EarlyLimit  *int                `json:"early_limit"`
}

type conditionSpec struct {
	Kind      string `json:"kind"`
	Field     string `json:"field"`
	Value     string `json:"value"`
	Low       string `json:"low"`
	High      string `json:"high"`
	Query     string `json:"query"`
	K         int    `json:"k"`
	Predicate string `json:"predicate"`
	Depth     *uint32 `json:"depth"`
	Timestamp string `json:"timestamp"`
	Contract   string `json:"contract"`
	Operation  string `json:"operation"`
	Expression string `json:"expression"`
}

type querySpec struct {
	Source string          `json:"source"`
	Nodes  []queryNodeSpec `json:"nodes"`
}

func runPlanExplain(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read query file: %w", err)
	}

	var spec querySpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("parse query file: %w", err)
	}

	logical, err := toLogicalPlan(spec)
	if err != nil {
		return fmt.Errorf("build logical plan: %w", err)
	}

	plannerCfg := planner.DefaultConfig()
	for mod, mode := range cfg.Planner.ModalityOverrides {
		m, ok := modalityByName(mod)
		if !ok {
			continue
		}
		plannerCfg.ModalityOverrides[m] = planner.OptimizationMode(mode)
	}
	plannerCfg.GlobalMode = planner.OptimizationMode(cfg.Planner.Mode)
	plannerCfg.StatisticsWeight = cfg.Planner.StatisticsWeight
	plannerCfg.EnableAdaptive = cfg.Planner.EnableAdaptive
	plannerCfg.ParallelThreshold = cfg.Planner.ParallelThreshold

	p := planner.NewPlanner(plannerCfg, log)
	explain, err := p.Explain(logical)
	if err != nil {
		return fmt.Errorf("explain plan: %w", err)
	}

	fmt.Print(explain.TextOutput)
	return nil
}

func toLogicalPlan(spec querySpec) (planner.LogicalPlan, error) {
	var source planner.QuerySource
	switch spec.Source {
	case "", "hexad":
		source = planner.QuerySource{Kind: planner.SourceHexad}
	case "federation":
		source = planner.QuerySource{Kind: planner.SourceFederation}
	case "store":
		source = planner.QuerySource{Kind: planner.SourceStore}
	default:
		return planner.LogicalPlan{}, fmt.Errorf("unknown source %q", spec.Source)
	}

	nodes := make([]planner.PlanNode, 0, len(spec.Nodes))
	for _, n := range spec.Nodes {
		m, ok := modalityByName(n.Modality)
		if !ok {
			return planner.LogicalPlan{}, fmt.Errorf("unknown modality %q", n.Modality)
		}
		conditions := make([]planner.ConditionKind, 0, len(n.Conditions))
		for _, c := range n.Conditions {
			cond, err := toConditionKind(c)
			if err != nil {
				return planner.LogicalPlan{}, err
			}
			conditions = append(conditions, cond)
		}
		nodes = append(nodes, planner.PlanNode{
			Modality:    m,
			Conditions:  conditions,
			Projections: n.Projections,
			EarlyLimit:  n.EarlyLimit,
		})
	}

	return planner.LogicalPlan{Source: source, Nodes: nodes}, nil
}

func toConditionKind(c conditionSpec) (planner.ConditionKind, error) {
	switch c.Kind {
	case "equality":
		return planner.ConditionKind{Kind: planner.ConditionEquality, Field: c.Field, Value: c.Value}, nil
	case "range":
		return planner.ConditionKind{Kind: planner.ConditionRange, Field: c.Field, Low: c.Low, High: c.High}, nil
	case "fulltext":
		return planner.ConditionKind{Kind: planner.ConditionFulltext, Query: c.Query}, nil
	case "similarity":
		return planner.ConditionKind{Kind: planner.ConditionSimilarity, K: c.K}, nil
	case "traversal":
		return planner.ConditionKind{Kind: planner.ConditionTraversal, Predicate: c.Predicate, Depth: c.Depth}, nil
	case "at_time":
		return planner.ConditionKind{Kind: planner.ConditionAtTime, Timestamp: c.Timestamp}, nil
	case "proof_verification":
		return planner.ConditionKind{Kind: planner.ConditionProofVerification, Contract: c.Contract}, nil
	case "tensor_op":
		return planner.ConditionKind{Kind: planner.ConditionTensorOp, Operation: c.Operation}, nil
	case "predicate":
		return planner.ConditionKind{Kind: planner.ConditionPredicate, Expression: c.Expression}, nil
	default:
		return planner.ConditionKind{}, fmt.Errorf("unknown condition kind %q", c.Kind)
	}
}

func modalityByName(name string) (modality.Modality, bool) {
	for _, m := range modality.Ordered {
		if m.String() == name {
			return m, true
		}
	}
	return 0, false
}
