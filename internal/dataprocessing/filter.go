package dataprocessing

import (
	"context"
	"log/slog"

	apperrors "b3data/internal/errors"
	"b3data/internal/infrastructure"
	"b3data/internal/schema"
)

var (
	scalarFilterKeys = []string{
		schema.ColScenario, schema.ColRegion, schema.ColCarrier,
		schema.ColTech, schema.ColType, schema.ColVarName,
	}
	seriesFilterKeys = []string{schema.ColRegion, schema.ColVarName}
)

// Engine filters and aggregates scalar and stacked time series tables.
type Engine struct {
	logger  *slog.Logger
	opts    Options
	notices notifier
}

// NewEngine creates an Engine. A nil logger uses slog.Default().
func NewEngine(logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "engine")
	return &Engine{
		logger:  logger,
		opts:    opts.withDefaults(),
		notices: notifier{logger: logger, metrics: opts.Metrics},
	}
}

// FilterBy keeps the rows whose key column equals one of values. Rows are
// grouped in the order of values, each group in table order; a value that
// matches nothing emits a notice. The result keeps t's columns.
func (e *Engine) FilterBy(ctx context.Context, t Table, key string, values []string) (result Table, err error) {
	ctx, finish := startOperation(ctx, e.opts.Metrics, "filter")
	defer func() { finish(err) }()

	kind, err := Classify(t)
	if err != nil {
		return nil, err
	}
	allowed := scalarFilterKeys
	if kind == schema.Timeseries {
		allowed = seriesFilterKeys
	}
	if !contains(allowed, key) {
		return nil, apperrors.NewInvalidFilterKeyError(key, allowed)
	}
	if !contains(t.Columns(), key) {
		return nil, apperrors.NewMissingColumnError(key)
	}

	// one pass over the table, bucketing row numbers by matched value
	order := make(map[string]int, len(values))
	var wanted []string
	for _, v := range values {
		if _, dup := order[v]; !dup {
			order[v] = len(wanted)
			wanted = append(wanted, v)
		}
	}
	buckets := make([][]int, len(wanted))
	for i := 0; i < t.Len(); i++ {
		v, ok := t.cell(i, key)
		if !ok {
			continue
		}
		if pos, hit := order[v]; hit {
			buckets[pos] = append(buckets[pos], i)
		}
	}

	rows := make([]int, 0, t.Len())
	for pos, v := range wanted {
		if len(buckets[pos]) == 0 {
			e.notices.info(ctx, "filter", "%s not found as item in column %s.", v, key)
			continue
		}
		rows = append(rows, buckets[pos]...)
	}

	e.logger.DebugContext(ctx, "Filtered table",
		slog.String("key", key),
		slog.Int("values", len(wanted)),
		slog.Int("rows_in", t.Len()),
		slog.Int("rows_out", len(rows)))
	return t.subset(rows), nil
}

// FilterScalars is FilterBy for a scalar table.
func (e *Engine) FilterScalars(ctx context.Context, t *ScalarTable, key string, values []string) (*ScalarTable, error) {
	out, err := e.FilterBy(ctx, t, key, values)
	if err != nil {
		return nil, err
	}
	return out.(*ScalarTable), nil
}

// FilterSeries is FilterBy for a stacked time series table.
func (e *Engine) FilterSeries(ctx context.Context, t *SeriesTable, key string, values []string) (*SeriesTable, error) {
	out, err := e.FilterBy(ctx, t, key, values)
	if err != nil {
		return nil, err
	}
	return out.(*SeriesTable), nil
}
