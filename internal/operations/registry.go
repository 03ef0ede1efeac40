package operations

import (
	"context"
	"fmt"
	"sort"
	"sync"

	apperrors "b3data/internal/errors"
)

// Step represents a single Step in the operation
type Step interface {
	// ID returns the unique identifier for this Step
	ID() string

	// Action returns the registry key the Step was built from
	Action() string

	// Validate checks if the Step can be executed with the current state
	Validate(state *OperationState) error

	// Execute runs the Step with the given context and operation state
	Execute(ctx context.Context, state *OperationState) error
}

// Factory builds a Step from its recipe entry.
type Factory func(cfg StepConfig) (Step, error)

// Registry maps step actions to the factories that build them.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for action.
func (r *Registry) Register(action string, factory Factory) error {
	if action == "" {
		return fmt.Errorf("step action cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("cannot register nil factory for %s", action)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[action]; exists {
		return fmt.Errorf("step action %s already registered", action)
	}
	r.factories[action] = factory
	return nil
}

// Has checks if an action is registered
func (r *Registry) Has(action string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[action]
	return exists
}

// Actions returns the registered actions sorted by name.
func (r *Registry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := make([]string, 0, len(r.factories))
	for action := range r.factories {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}

// Build creates the Step for cfg.
func (r *Registry) Build(cfg StepConfig) (Step, error) {
	r.mu.RLock()
	factory, exists := r.factories[cfg.Action]
	r.mu.RUnlock()

	if !exists {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("step %q has unknown action %q", cfg.ID, cfg.Action)).
			WithContext("actions", r.Actions())
	}
	return factory(cfg)
}
