package dataprocessing

import (
	"context"
	"errors"
	"log/slog"

	apperrors "b3data/internal/errors"
	"b3data/internal/schema"
)

// Processor bundles the loader, stacker and engine built from one set of
// options, which is what the command line and most callers need.
type Processor struct {
	*Loader
	*Stacker
	*Engine
}

// New creates a Processor. A nil logger uses slog.Default().
func New(logger *slog.Logger, opts Options) *Processor {
	return &Processor{
		Loader:  NewLoader(logger, opts),
		Stacker: NewStacker(logger, opts),
		Engine:  NewEngine(logger, opts),
	}
}

// LoadAny loads path as kind, or, when kind is empty, as scalars first and
// as time series if the scalar columns are missing.
func (p *Processor) LoadAny(ctx context.Context, path string, kind schema.Kind) (Table, error) {
	if kind != "" {
		return p.Load(ctx, path, kind)
	}
	t, err := p.LoadScalars(ctx, path)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, apperrors.ErrMissingRequiredColumns) {
		return nil, err
	}
	series, err := p.LoadTimeseries(ctx, path)
	if err != nil {
		return nil, err
	}
	return series, nil
}
