package dataprocessing

import (
	"context"
	"log/slog"
	"strings"

	apperrors "b3data/internal/errors"
	"b3data/internal/schema"
	"b3data/pkg/contracts/domain"
)

var (
	scalarAggregationKeys = []string{schema.ColRegion, schema.ColCarrier, schema.ColTech}
	seriesAggregationKeys = []string{schema.ColRegion}
)

// AggregateBy sums t per value of key. Scalars are grouped per scenario and
// key value and reduced by the category their var_name names; time series
// are summed element-wise per key value.
func (e *Engine) AggregateBy(ctx context.Context, t Table, key string) (result Table, err error) {
	ctx, finish := startOperation(ctx, e.opts.Metrics, "aggregate")
	defer func() { finish(err) }()

	kind, err := Classify(t)
	if err != nil {
		return nil, err
	}
	allowed := scalarAggregationKeys
	if kind == schema.Timeseries {
		allowed = seriesAggregationKeys
	}
	if !contains(allowed, key) {
		return nil, apperrors.NewInvalidAggregationKeyError(key, allowed)
	}
	if !contains(t.Columns(), key) {
		return nil, apperrors.NewMissingColumnError(key)
	}

	switch tt := t.(type) {
	case *ScalarTable:
		result, err = aggregateScalars(tt, key)
	case *SeriesTable:
		result, err = aggregateSeries(tt, key)
	default:
		err = apperrors.NewUnrecognizedSchemaError(
			schema.MustLookup(schema.Scalars).Full, schema.MustLookup(schema.Timeseries).Full)
	}
	if err != nil {
		return nil, err
	}

	e.logger.DebugContext(ctx, "Aggregated table",
		slog.String("key", key),
		slog.Int("rows_in", t.Len()),
		slog.Int("rows_out", result.Len()))
	return result, nil
}

// AggregateScalars is AggregateBy for a scalar table.
func (e *Engine) AggregateScalars(ctx context.Context, t *ScalarTable, key string) (*ScalarTable, error) {
	out, err := e.AggregateBy(ctx, t, key)
	if err != nil {
		return nil, err
	}
	return out.(*ScalarTable), nil
}

// AggregateSeries is AggregateBy for a stacked time series table.
func (e *Engine) AggregateSeries(ctx context.Context, t *SeriesTable, key string) (*SeriesTable, error) {
	out, err := e.AggregateBy(ctx, t, key)
	if err != nil {
		return nil, err
	}
	return out.(*SeriesTable), nil
}

// buckets accumulates named sums in first-insertion order.
type buckets struct {
	names []string
	sums  map[string]float64
}

func (b *buckets) add(name string, v float64) {
	if b.sums == nil {
		b.sums = make(map[string]float64)
	}
	if _, ok := b.sums[name]; !ok {
		b.names = append(b.names, name)
	}
	b.sums[name] += v
}

type scalarGroup struct {
	scenario, keyValue string
}

func aggregateScalars(t *ScalarTable, key string) (*ScalarTable, error) {
	var scenarios, keyValues []string
	seenScenario := make(map[string]bool)
	seenKey := make(map[string]bool)
	groups := make(map[scalarGroup]*buckets)

	for i, row := range t.Rows {
		keyValue, _ := t.cell(i, key)
		if !seenScenario[row.Scenario] {
			seenScenario[row.Scenario] = true
			scenarios = append(scenarios, row.Scenario)
		}
		if !seenKey[keyValue] {
			seenKey[keyValue] = true
			keyValues = append(keyValues, keyValue)
		}

		name, sign, err := classifyVariable(row, key)
		if err != nil {
			return nil, err
		}
		g := scalarGroup{scenario: row.Scenario, keyValue: keyValue}
		if groups[g] == nil {
			groups[g] = &buckets{}
		}
		groups[g].add(name, sign*row.VarValue)
	}

	out := &ScalarTable{Header: schema.MustLookup(schema.Scalars).Full, Rows: []domain.Scalar{}}
	for _, scenario := range scenarios {
		for _, keyValue := range keyValues {
			b := groups[scalarGroup{scenario: scenario, keyValue: keyValue}]
			if b == nil {
				continue
			}
			for _, name := range b.names {
				out.Rows = append(out.Rows, aggregatedScalar(scenario, key, keyValue, name, b.sums[name]))
			}
		}
	}
	return out, nil
}

func aggregatedScalar(scenario, key, keyValue, varName string, value float64) domain.Scalar {
	row := domain.Scalar{
		Scenario: scenario,
		Name:     "Aggregated by " + key,
		VarName:  varName,
		Carrier:  domain.AggregatePlaceholder,
		Region:   domain.AggregatePlaceholder,
		Tech:     domain.AggregatePlaceholder,
		Type:     domain.AggregatePlaceholder,
		VarValue: value,
		VarUnit:  domain.Text("-"),
	}
	switch key {
	case schema.ColRegion:
		row.Region = keyValue
	case schema.ColCarrier:
		row.Carrier = keyValue
	case schema.ColTech:
		row.Tech = keyValue
	}
	return row
}

// classifyVariable returns the bucket a scalar row sums into and the sign
// of its contribution. Categories are tried in the order capacity, flow,
// costs, invest, losses.
func classifyVariable(row domain.Scalar, key string) (string, float64, error) {
	v := row.VarName
	switch {
	case strings.Contains(v, "capacity"):
		return "capacity", 1, nil

	case strings.Contains(v, "flow"):
		segments := strings.Split(v, "_")
		if len(segments) < 3 {
			return "", 0, apperrors.NewUnknownVariableError(v).
				WithContext("reason", "flow var_name needs the carrier as third '_' segment")
		}
		name := "flow_" + segments[2]
		if key == schema.ColCarrier || key == schema.ColTech {
			name += "_" + row.Carrier
		}
		sign, err := direction(v)
		return name, sign, err

	case strings.Contains(v, "costs"):
		sign, err := direction(v)
		return "costs", sign, err

	case strings.Contains(v, "invest"):
		sign, err := direction(v)
		return "invest", sign, err

	case strings.Contains(v, "losses"):
		return "losses", 1, nil
	}
	return "", 0, apperrors.NewUnknownVariableError(v)
}

// direction reads "in" (add) or "out" (subtract) from a var_name. A whole
// "_"-delimited segment decides first, so "flow_out_wind" subtracts; a
// substring-first rule would add it because "wind" contains "in". Without
// such a segment plain substrings are checked, "in" before "out".
func direction(varName string) (float64, error) {
	for _, seg := range strings.Split(varName, "_") {
		switch seg {
		case "in":
			return 1, nil
		case "out":
			return -1, nil
		}
	}
	switch {
	case strings.Contains(varName, "in"):
		return 1, nil
	case strings.Contains(varName, "out"):
		return -1, nil
	}
	return 0, apperrors.NewUnknownVariableError(varName).
		WithContext("reason", "no 'in' or 'out' direction")
}

func aggregateSeries(t *SeriesTable, key string) (*SeriesTable, error) {
	out := &SeriesTable{
		Header:    schema.MustLookup(schema.Timeseries).Full,
		Rows:      []domain.StackedSeries{},
		IndexName: t.IndexName,
	}
	if len(t.Rows) == 0 {
		return out, nil
	}

	var keyValues []string
	sums := make(map[string][]float64)
	for i, row := range t.Rows {
		keyValue, _ := t.cell(i, key)
		sum, seen := sums[keyValue]
		if !seen {
			keyValues = append(keyValues, keyValue)
			sums[keyValue] = append([]float64(nil), row.Series...)
			continue
		}
		if len(row.Series) != len(sum) {
			return nil, apperrors.NewSeriesLengthMismatchError(row.VarName, len(row.Series), len(sum))
		}
		for k, v := range row.Series {
			sum[k] += v
		}
	}

	first := t.Rows[0]
	for _, keyValue := range keyValues {
		out.Rows = append(out.Rows, domain.StackedSeries{
			Region:     keyValue,
			VarName:    "Aggregated by " + key,
			Start:      first.Start,
			Stop:       first.Stop,
			Resolution: first.Resolution,
			Series:     sums[keyValue],
			VarUnit:    domain.Text("-"),
		})
	}
	return out, nil
}
