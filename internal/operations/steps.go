package operations

import (
	"context"
	"fmt"

	"b3data/internal/dataprocessing"
	apperrors "b3data/internal/errors"
	"b3data/internal/exporter"
	"b3data/internal/schema"
)

// Deps are what the built-in steps read, transform and write with.
type Deps struct {
	Processor *dataprocessing.Processor
	Writer    *exporter.TableWriter
	// InputPath resolves the in field of load and stack steps. Nil uses the
	// path as given.
	InputPath func(name string) string
	// CheckOutput vets the out field of save steps before anything is
	// written. Nil accepts every path.
	CheckOutput func(path string) error
}

// NewDefaultRegistry registers the load, stack, unstack, filter, aggregate
// and save actions.
func NewDefaultRegistry(deps Deps) *Registry {
	if deps.InputPath == nil {
		deps.InputPath = func(name string) string { return name }
	}
	if deps.CheckOutput == nil {
		deps.CheckOutput = func(string) error { return nil }
	}
	r := NewRegistry()
	for action, build := range map[string]func(StepConfig, Deps) (Step, error){
		ActionLoad:      newLoadStep,
		ActionStack:     newStackStep,
		ActionUnstack:   newUnstackStep,
		ActionFilter:    newFilterStep,
		ActionAggregate: newAggregateStep,
		ActionSave:      newSaveStep,
	} {
		// actions are distinct keys of this map
		_ = r.Register(action, func(cfg StepConfig) (Step, error) { return build(cfg, deps) })
	}
	return r
}

// baseStep carries the recipe entry every step shares.
type baseStep struct {
	cfg  StepConfig
	deps Deps
}

func (b baseStep) ID() string     { return b.cfg.ID }
func (b baseStep) Action() string { return b.cfg.Action }

func (b baseStep) Validate(state *OperationState) error {
	_, err := state.Table(b.cfg.From)
	return err
}

func (b baseStep) input(state *OperationState) (dataprocessing.Table, error) {
	t, err := state.Table(b.cfg.From)
	if err != nil {
		return nil, err
	}
	table, ok := t.(dataprocessing.Table)
	if !ok {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("step %q needs a scalar or stacked table, got %s", b.cfg.ID, describe(t)))
	}
	return table, nil
}

func needField(cfg StepConfig, field, value string) error {
	if value == "" {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("%s step %q needs %s", cfg.Action, cfg.ID, field))
	}
	return nil
}

type loadStep struct {
	baseStep
	kind schema.Kind
}

func newLoadStep(cfg StepConfig, deps Deps) (Step, error) {
	if err := needField(cfg, "in", cfg.In); err != nil {
		return nil, err
	}
	s := &loadStep{baseStep: baseStep{cfg: cfg, deps: deps}}
	if cfg.Kind != "" {
		kind, err := schema.ParseKind(cfg.Kind)
		if err != nil {
			return nil, err
		}
		s.kind = kind
	}
	return s, nil
}

func (s *loadStep) Validate(*OperationState) error { return nil }

func (s *loadStep) Execute(ctx context.Context, state *OperationState) error {
	t, err := s.deps.Processor.LoadAny(ctx, s.deps.InputPath(s.cfg.In), s.kind)
	if err != nil {
		return err
	}
	state.SetTable(s.cfg.ID, t)
	return nil
}

// stackStep reads a wide file when in is set and stacks the wide table of
// an earlier step otherwise.
type stackStep struct{ baseStep }

func newStackStep(cfg StepConfig, deps Deps) (Step, error) {
	return &stackStep{baseStep{cfg: cfg, deps: deps}}, nil
}

func (s *stackStep) Validate(state *OperationState) error {
	if s.cfg.In != "" {
		return nil
	}
	return s.baseStep.Validate(state)
}

func (s *stackStep) Execute(ctx context.Context, state *OperationState) error {
	if s.cfg.In != "" {
		t, err := s.deps.Processor.LoadTimeseries(ctx, s.deps.InputPath(s.cfg.In))
		if err != nil {
			return err
		}
		state.SetTable(s.cfg.ID, t)
		return nil
	}

	t, err := state.Table(s.cfg.From)
	if err != nil {
		return err
	}
	wide, ok := t.(*dataprocessing.WideTable)
	if !ok {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("stack step %q needs a wide table, got %s", s.cfg.ID, describe(t)))
	}
	stacked, err := s.deps.Processor.Stack(ctx, wide)
	if err != nil {
		return err
	}
	state.SetTable(s.cfg.ID, stacked)
	return nil
}

type unstackStep struct{ baseStep }

func newUnstackStep(cfg StepConfig, deps Deps) (Step, error) {
	return &unstackStep{baseStep{cfg: cfg, deps: deps}}, nil
}

func (s *unstackStep) Execute(ctx context.Context, state *OperationState) error {
	t, err := state.Table(s.cfg.From)
	if err != nil {
		return err
	}
	stacked, ok := t.(*dataprocessing.SeriesTable)
	if !ok {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("unstack step %q needs stacked time series, got %s", s.cfg.ID, describe(t)))
	}
	wide, err := s.deps.Processor.Unstack(ctx, stacked)
	if err != nil {
		return err
	}
	state.SetTable(s.cfg.ID, wide)
	return nil
}

type filterStep struct{ baseStep }

func newFilterStep(cfg StepConfig, deps Deps) (Step, error) {
	if err := needField(cfg, "key", cfg.Key); err != nil {
		return nil, err
	}
	return &filterStep{baseStep{cfg: cfg, deps: deps}}, nil
}

func (s *filterStep) Execute(ctx context.Context, state *OperationState) error {
	t, err := s.input(state)
	if err != nil {
		return err
	}
	filtered, err := s.deps.Processor.FilterBy(ctx, t, s.cfg.Key, s.cfg.Values)
	if err != nil {
		return err
	}
	state.SetTable(s.cfg.ID, filtered)
	return nil
}

type aggregateStep struct{ baseStep }

func newAggregateStep(cfg StepConfig, deps Deps) (Step, error) {
	if err := needField(cfg, "key", cfg.Key); err != nil {
		return nil, err
	}
	return &aggregateStep{baseStep{cfg: cfg, deps: deps}}, nil
}

func (s *aggregateStep) Execute(ctx context.Context, state *OperationState) error {
	t, err := s.input(state)
	if err != nil {
		return err
	}
	aggregated, err := s.deps.Processor.AggregateBy(ctx, t, s.cfg.Key)
	if err != nil {
		return err
	}
	state.SetTable(s.cfg.ID, aggregated)
	return nil
}

// saveStep writes its input and passes it on unchanged.
type saveStep struct{ baseStep }

func newSaveStep(cfg StepConfig, deps Deps) (Step, error) {
	if err := needField(cfg, "out", cfg.Out); err != nil {
		return nil, err
	}
	return &saveStep{baseStep{cfg: cfg, deps: deps}}, nil
}

func (s *saveStep) Execute(ctx context.Context, state *OperationState) error {
	t, err := state.Table(s.cfg.From)
	if err != nil {
		return err
	}
	if err := s.deps.CheckOutput(s.cfg.Out); err != nil {
		return err
	}
	full, err := s.deps.Writer.Export(ctx, s.cfg.Out, t)
	if err != nil {
		return err
	}
	state.AddOutput(full)
	state.SetTable(s.cfg.ID, t)
	return nil
}

func describe(t any) string {
	switch t.(type) {
	case *dataprocessing.ScalarTable:
		return "scalars"
	case *dataprocessing.SeriesTable:
		return "stacked time series"
	case *dataprocessing.WideTable:
		return "a wide time series"
	}
	return fmt.Sprintf("%T", t)
}

// rowCount is the length of a produced table, -1 for anything else.
func rowCount(t any) int {
	if l, ok := t.(interface{ Len() int }); ok {
		return l.Len()
	}
	return -1
}
