package proof

import (
	"errors"
	"fmt"
)

// ErrCircuitNotFound is returned when a registry lookup names an
// unregistered circuit.
var ErrCircuitNotFound = errors.New("proof: circuit not found")

// ErrCircuitAlreadyExists is returned by RegisterCircuit when name is
// already taken.
var ErrCircuitAlreadyExists = errors.New("proof: circuit already exists")

// ErrInvalidWitness is returned by Verify when the supplied public-input
// or witness slice doesn't match the circuit's declared wire counts
// (spec.md §4.7 "dimensions must match the circuit's declared counts").
var ErrInvalidWitness = errors.New("proof: invalid witness")

// CompilationError reports a CircuitDef that failed to compile.
type CompilationError struct {
	Detail string
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("proof: circuit compilation failed: %s", e.Detail)
}
