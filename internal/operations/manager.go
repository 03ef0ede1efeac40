package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"b3data/internal/infrastructure"
)

// Manager runs recipes step by step.
type Manager struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *infrastructure.DataMetrics
}

// NewManager creates a Manager. A nil logger uses slog.Default(); metrics
// may be nil.
func NewManager(registry *Registry, logger *slog.Logger, metrics *infrastructure.DataMetrics) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		logger:   infrastructure.WithComponent(logger, "operations"),
		metrics:  metrics,
	}
}

// Registry returns the registry steps are built from.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Execute builds every step of r before running any, then runs them in
// order. The first failure stops the run and the remaining steps are
// skipped. The returned state is never nil.
func (m *Manager) Execute(ctx context.Context, r *Recipe) (*OperationState, error) {
	state := NewOperationState(uuid.NewString(), r.Name)

	steps := make([]Step, 0, len(r.Steps))
	for _, cfg := range r.Steps {
		step, err := m.registry.Build(cfg)
		if err != nil {
			state.Fail(err)
			return state, err
		}
		steps = append(steps, step)
		state.Steps = append(state.Steps, NewStepState(cfg.ID, cfg.Action))
	}

	ctx, span := infrastructure.StartSpan(ctx, "operations.execute",
		attribute.String("operation.id", state.ID),
		attribute.String("recipe", r.Name),
		attribute.Int("steps", len(steps)))
	defer span.End()

	m.logger.InfoContext(ctx, "Executing recipe",
		slog.String("operation_id", state.ID),
		slog.String("recipe", r.Name),
		slog.Int("step_count", len(steps)))

	state.Start()
	for i, step := range steps {
		if err := m.executeStep(ctx, state, step, state.Steps[i]); err != nil {
			for _, rest := range state.Steps[i+1:] {
				rest.Skip()
			}
			err = fmt.Errorf("step %s: %w", step.ID(), err)
			infrastructure.RecordError(ctx, err)
			state.Fail(err)
			return state, err
		}
	}
	state.Complete()

	m.logger.InfoContext(ctx, "Recipe completed",
		slog.String("operation_id", state.ID),
		slog.Int("outputs", len(state.Outputs)),
		slog.Duration("duration", state.EndTime.Sub(state.StartTime)))
	return state, nil
}

func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step, stepState *StepState) (err error) {
	ctx, span := infrastructure.StartSpan(ctx, "operations.step",
		attribute.String("step.id", step.ID()),
		attribute.String("step.action", step.Action()))
	start := time.Now()
	defer func() {
		infrastructure.RecordError(ctx, err)
		m.metrics.RecordOperation(ctx, "step_"+step.Action(), time.Since(start), err)
		span.End()
	}()

	stepState.Start()
	if err := step.Validate(state); err != nil {
		stepState.Fail(err)
		return err
	}
	if err := step.Execute(ctx, state); err != nil {
		stepState.Fail(err)
		m.logger.ErrorContext(ctx, "Step failed",
			slog.String("step_id", step.ID()),
			slog.String("action", step.Action()),
			slog.String("error", err.Error()))
		return err
	}

	if t, err := state.Table(step.ID()); err == nil {
		stepState.Rows = rowCount(t)
	}
	stepState.Complete()
	m.logger.DebugContext(ctx, "Step completed",
		slog.String("step_id", step.ID()),
		slog.String("action", step.Action()),
		slog.Int("rows", stepState.Rows),
		slog.Duration("duration", stepState.Duration()))
	return nil
}
