package proof

import "sync"

// CircuitRegistry maps circuit names to their compiled verification
// circuits (spec.md §4.7 "Custom-circuit registry"). Generalized from a
// single-owner registry into one guarded by sync.RWMutex so callers can
// register and verify concurrently (spec.md §5 "no singletons" — callers
// inject and own their CircuitRegistry).
type CircuitRegistry struct {
	mu       sync.RWMutex
	circuits map[string]CompiledCircuit
}

// NewCircuitRegistry constructs an empty registry.
func NewCircuitRegistry() *CircuitRegistry {
	return &CircuitRegistry{circuits: make(map[string]CompiledCircuit)}
}

// Register adds circuit under name. Returns ErrCircuitAlreadyExists if
// name is taken.
func (r *CircuitRegistry) Register(name string, circuit CompiledCircuit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.circuits[name]; ok {
		return ErrCircuitAlreadyExists
	}
	r.circuits[name] = circuit
	return nil
}

// Get returns the compiled circuit registered under name.
func (r *CircuitRegistry) Get(name string) (CompiledCircuit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.circuits[name]
	return c, ok
}

// VerifyWith verifies witness/publicInputs against the named circuit.
func (r *CircuitRegistry) VerifyWith(name string, publicInputs, witness []float64) (bool, error) {
	r.mu.RLock()
	circuit, ok := r.circuits[name]
	r.mu.RUnlock()
	if !ok {
		return false, ErrCircuitNotFound
	}
	return circuit.Verify(publicInputs, witness)
}

// List returns every registered circuit name.
func (r *CircuitRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.circuits))
	for name := range r.circuits {
		names = append(names, name)
	}
	return names
}

// Unregister removes name from the registry, reporting whether it was
// present.
func (r *CircuitRegistry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.circuits[name]; !ok {
		return false
	}
	delete(r.circuits, name)
	return true
}
