package proof

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// constWire is the reserved wire index representing the constant 1
// (spec.md §4.7 "Reserved wire index MAX represents the constant 1").
// The original represents this as usize::MAX inside a sparse map; a
// negative sentinel serves the same purpose in Go without forcing every
// coefficient map to carry a huge key.
const constWire = -1

// GateType names an R1CS gate's semantics (spec.md §4.7).
type GateType string

const (
	GateAnd               GateType = "and"
	GateOr                GateType = "or"
	GateXor               GateType = "xor"
	GateNot               GateType = "not"
	GateLinearCombination GateType = "linear_combination"
)

// WireDef declares one wire in a CircuitDef.
type WireDef struct {
	Name     string
	IsPublic bool
	IsOutput bool
}

// GateDef declares one gate consuming named input wires and producing a
// named output wire.
type GateDef struct {
	Gate   GateType
	Inputs []string
	Output string
}

// CircuitDef is the uncompiled description of a custom verification
// circuit (spec.md §4.7 "CircuitDef").
type CircuitDef struct {
	Name       string
	Wires      []WireDef
	Gates      []GateDef
	Parameters []string
}

// R1CSConstraint is one rank-1 constraint A·B = C, each side a sparse
// linear combination of wire indices.
type R1CSConstraint struct {
	A map[int]float64
	B map[int]float64
	C map[int]float64
}

// CircuitIR is the compiled intermediate representation of a CircuitDef.
type CircuitIR struct {
	Name             string
	NumPublicInputs  int
	NumWitnessWires  int
	NumWires         int
	Constraints      []R1CSConstraint
	ParameterWires   map[string]int
}

// CompiledCircuit pairs a CircuitIR with its integrity hash and
// verification key.
type CompiledCircuit struct {
	IR               CircuitIR
	CircuitHash      string
	VerificationKey  []byte
}

// CompileCircuit translates def's wires and gates into R1CS constraints
// (spec.md §4.7 gate semantics):
//
//	AND:                a·b = c
//	OR (boolean):       a·b = c, callers enforce booleanness separately
//	XOR (boolean):      a·(2b) = a + b - c
//	NOT:                a·1 = a - c, which holds only for c = 0 (not a complement)
//	LinearCombination:  (Σ aᵢ)·1 = c
func CompileCircuit(def CircuitDef) (CompiledCircuit, error) {
	wireIndex := make(map[string]int, len(def.Wires))
	for _, w := range def.Wires {
		wireIndex[w.Name] = len(wireIndex)
	}

	var numPublic, numWitness int
	for _, w := range def.Wires {
		if w.IsPublic || w.IsOutput {
			numPublic++
		} else {
			numWitness++
		}
	}

	constraints := make([]R1CSConstraint, 0, len(def.Gates))
	for _, gate := range def.Gates {
		outIdx, ok := wireIndex[gate.Output]
		if !ok {
			return CompiledCircuit{}, &CompilationError{Detail: fmt.Sprintf("unknown output wire: %s", gate.Output)}
		}

		switch gate.Gate {
		case GateAnd, GateOr:
			if len(gate.Inputs) != 2 {
				return CompiledCircuit{}, &CompilationError{Detail: fmt.Sprintf("%s gate requires exactly 2 inputs", gate.Gate)}
			}
			aIdx, err := resolveWire(wireIndex, gate.Inputs[0])
			if err != nil {
				return CompiledCircuit{}, err
			}
			bIdx, err := resolveWire(wireIndex, gate.Inputs[1])
			if err != nil {
				return CompiledCircuit{}, err
			}
			constraints = append(constraints, R1CSConstraint{
				A: map[int]float64{aIdx: 1},
				B: map[int]float64{bIdx: 1},
				C: map[int]float64{outIdx: 1},
			})

		case GateXor:
			if len(gate.Inputs) != 2 {
				return CompiledCircuit{}, &CompilationError{Detail: "xor gate requires exactly 2 inputs"}
			}
			aIdx, err := resolveWire(wireIndex, gate.Inputs[0])
			if err != nil {
				return CompiledCircuit{}, err
			}
			bIdx, err := resolveWire(wireIndex, gate.Inputs[1])
			if err != nil {
				return CompiledCircuit{}, err
			}
			constraints = append(constraints, R1CSConstraint{
				A: map[int]float64{aIdx: 1},
				B: map[int]float64{bIdx: 2},
				C: map[int]float64{aIdx: 1, bIdx: 1, outIdx: -1},
			})

		case GateNot:
			if len(gate.Inputs) != 1 {
				return CompiledCircuit{}, &CompilationError{Detail: "not gate requires exactly 1 input"}
			}
			aIdx, err := resolveWire(wireIndex, gate.Inputs[0])
			if err != nil {
				return CompiledCircuit{}, err
			}
			constraints = append(constraints, R1CSConstraint{
				A: map[int]float64{aIdx: 1},
				B: map[int]float64{constWire: 1},
				C: map[int]float64{aIdx: 1, outIdx: -1},
			})

		case GateLinearCombination:
			sum := make(map[int]float64, len(gate.Inputs))
			for _, name := range gate.Inputs {
				idx, err := resolveWire(wireIndex, name)
				if err != nil {
					return CompiledCircuit{}, err
				}
				sum[idx] = 1
			}
			constraints = append(constraints, R1CSConstraint{
				A: sum,
				B: map[int]float64{constWire: 1},
				C: map[int]float64{outIdx: 1},
			})

		default:
			return CompiledCircuit{}, &CompilationError{Detail: fmt.Sprintf("unknown gate type: %s", gate.Gate)}
		}
	}

	paramWires := make(map[string]int)
	for _, p := range def.Parameters {
		if idx, ok := wireIndex[p]; ok {
			paramWires[p] = idx
		}
	}

	ir := CircuitIR{
		Name:            def.Name,
		NumPublicInputs: numPublic,
		NumWitnessWires: numWitness,
		NumWires:        len(wireIndex),
		Constraints:     constraints,
		ParameterWires:  paramWires,
	}

	irBytes, err := json.Marshal(ir)
	if err != nil {
		return CompiledCircuit{}, &CompilationError{Detail: err.Error()}
	}
	circuitHashBytes := sha256.Sum256(irBytes)
	circuitHash := hex.EncodeToString(circuitHashBytes[:])

	return CompiledCircuit{
		IR:              ir,
		CircuitHash:     circuitHash,
		VerificationKey: generateVerificationKey(ir),
	}, nil
}

func resolveWire(wireIndex map[string]int, name string) (int, error) {
	idx, ok := wireIndex[name]
	if !ok {
		return 0, &CompilationError{Detail: fmt.Sprintf("unknown wire: %s", name)}
	}
	return idx, nil
}

// generateVerificationKey fingerprints ir's name, sizes, and every
// constraint in declaration order (spec.md §4.7 "deterministic digest
// over (name, public_input_count, total_wires, every constraint)").
func generateVerificationKey(ir CircuitIR) []byte {
	h := sha256.New()
	h.Write([]byte(ir.Name))
	h.Write(leUint64(uint64(ir.NumPublicInputs)))
	h.Write(leUint64(uint64(ir.NumWires)))
	for _, c := range ir.Constraints {
		b, _ := json.Marshal(c)
		h.Write(b)
	}
	return h.Sum(nil)
}

func leUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

const verifyTolerance = 1e-10

// Verify checks witness and publicInputs against circuit's R1CS
// constraints: builds the full assignment [publicInputs ∥ witness], then
// for every constraint checks eval(A)·eval(B) ≈ eval(C) within
// verifyTolerance (spec.md §4.7).
func (c CompiledCircuit) Verify(publicInputs, witness []float64) (bool, error) {
	if len(publicInputs) != c.IR.NumPublicInputs {
		return false, fmt.Errorf("%w: expected %d public inputs, got %d", ErrInvalidWitness, c.IR.NumPublicInputs, len(publicInputs))
	}
	expectedWitnessLen := c.IR.NumWires - c.IR.NumPublicInputs
	if len(witness) != expectedWitnessLen {
		return false, fmt.Errorf("%w: expected %d witness values, got %d", ErrInvalidWitness, expectedWitnessLen, len(witness))
	}

	assignment := make([]float64, 0, c.IR.NumWires)
	assignment = append(assignment, publicInputs...)
	assignment = append(assignment, witness...)

	for _, constraint := range c.IR.Constraints {
		a := evalLinear(constraint.A, assignment)
		b := evalLinear(constraint.B, assignment)
		cc := evalLinear(constraint.C, assignment)
		product := a * b
		diff := product - cc
		if diff < 0 {
			diff = -diff
		}
		if diff > verifyTolerance {
			return false, nil
		}
	}
	return true, nil
}

func evalLinear(terms map[int]float64, assignment []float64) float64 {
	var sum float64
	for wire, coeff := range terms {
		if wire == constWire {
			sum += coeff * 1.0
			continue
		}
		if wire >= 0 && wire < len(assignment) {
			sum += coeff * assignment[wire]
		}
	}
	return sum
}
