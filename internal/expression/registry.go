package expression

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages function registration and lookup. Overloads of a name are
// kept in registration order and the first one is used for evaluation.
type Registry struct {
	mu        sync.RWMutex
	functions map[string][]*FunctionDefinition
}

// NewRegistry creates a new, empty function registry.
func NewRegistry() *Registry {
	return &Registry{
		functions: make(map[string][]*FunctionDefinition),
	}
}

// Register registers a function definition.
// Returns an ExpressionError of kind DuplicateFunctionDeclaration if an
// overload with the same key already exists.
func (r *Registry) Register(def *FunctionDefinition) error {
	if def == nil {
		return fmt.Errorf("cannot register nil function")
	}
	if def.Invoke == nil {
		return fmt.Errorf("function '%s' has no evaluation rule", def.Name)
	}
	if !IsValidFunctionName(def.Name) {
		return fmt.Errorf("function name '%s' cannot be lexed as a function", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := def.Key()
	for _, existing := range r.functions[def.Name] {
		if existing.Key() == key {
			return &ExpressionError{
				Kind:     KindDuplicateFunctionDeclaration,
				Position: -1,
				Function: def.Name,
				Message:  key,
			}
		}
	}

	r.functions[def.Name] = append(r.functions[def.Name], def)
	return nil
}

// MustRegister registers a function and panics on error.
func (r *Registry) MustRegister(def *FunctionDefinition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Unregister removes every overload of name.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.functions[name]; !exists {
		return fmt.Errorf("function '%s' is not registered", name)
	}

	delete(r.functions, name)
	return nil
}

// Lookup returns the first registered overload of name.
func (r *Registry) Lookup(name string) (*FunctionDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	overloads := r.functions[name]
	if len(overloads) == 0 {
		return nil, false
	}
	return overloads[0], true
}

// Overloads returns all overloads of name in registration order.
func (r *Registry) Overloads(name string) []*FunctionDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*FunctionDefinition, len(r.functions[name]))
	copy(out, r.functions[name])
	return out
}

// Has checks if a function exists in the registry.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.functions[name]
	return exists
}

// Names returns the registered function names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns every overload, sorted by name and then registration order.
func (r *Registry) List() []*FunctionDefinition {
	var result []*FunctionDefinition
	for _, name := range r.Names() {
		result = append(result, r.Overloads(name)...)
	}
	return result
}

// Count returns the number of registered overloads.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, overloads := range r.functions {
		n += len(overloads)
	}
	return n
}

// Clear removes all functions from the registry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions = make(map[string][]*FunctionDefinition)
}
