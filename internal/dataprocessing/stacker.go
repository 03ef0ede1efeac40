package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	apperrors "b3data/internal/errors"
	"b3data/internal/infrastructure"
	"b3data/internal/schema"
	"b3data/pkg/contracts/domain"
)

// DefaultIndexName names the timestamp index of loaded time series.
const DefaultIndexName = "timeindex"

// stackedColumns are the columns Stack produces.
var stackedColumns = []string{
	schema.ColVarName,
	schema.ColTimeStart,
	schema.ColTimeStop,
	schema.ColTimeResolution,
	schema.ColSeries,
}

// Stacker converts between wide and stacked time series.
type Stacker struct {
	logger  *slog.Logger
	opts    Options
	notices notifier
}

// NewStacker creates a Stacker. A nil logger uses slog.Default().
func NewStacker(logger *slog.Logger, opts Options) *Stacker {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "stacker")
	return &Stacker{
		logger:  logger,
		opts:    opts.withDefaults(),
		notices: notifier{logger: logger, metrics: opts.Metrics},
	}
}

// Stack turns every column of wide into one stacked row. The index must be
// strictly ascending and of a single fixed frequency. When wide.Freq is
// empty the inferred frequency is applied and a notice is emitted.
func (s *Stacker) Stack(ctx context.Context, wide *WideTable) (stacked *SeriesTable, err error) {
	ctx, finish := startOperation(ctx, s.opts.Metrics, "stack")
	defer func() { finish(err) }()

	if wide == nil || len(wide.Index) == 0 {
		return nil, apperrors.NewNotTimeIndexedError("the index is empty")
	}
	for i := 1; i < len(wide.Index); i++ {
		if !wide.Index[i].After(wide.Index[i-1]) {
			return nil, apperrors.NewNotTimeIndexedError(
				fmt.Sprintf("timestamp %s does not follow %s", wide.Index[i].Format(time.DateTime), wide.Index[i-1].Format(time.DateTime)))
		}
	}
	for j, col := range wide.Columns {
		if len(wide.Data[j]) != len(wide.Index) {
			return nil, apperrors.NewSeriesLengthMismatchError(col, len(wide.Data[j]), len(wide.Index))
		}
	}

	freq, err := s.resolveFrequency(ctx, wide)
	if err != nil {
		return nil, err
	}

	index, data := wide.Index, wide.Data
	if wide.Freq == "" {
		index, data = asFreq(wide.Index, wide.Data, freq)
	}

	stacked = &SeriesTable{
		Header:    append([]string(nil), stackedColumns...),
		Rows:      make([]domain.StackedSeries, 0, len(wide.Columns)),
		IndexName: wide.IndexName,
	}
	for j, col := range wide.Columns {
		stacked.Rows = append(stacked.Rows, domain.StackedSeries{
			VarName:    col,
			Start:      index[0],
			Stop:       index[len(index)-1],
			Resolution: freq.String(),
			Series:     append([]float64(nil), data[j]...),
		})
	}

	s.logger.DebugContext(ctx, "Stacked time series",
		slog.Int("columns", len(stacked.Rows)),
		slog.Int("steps", len(index)),
		slog.String("frequency", freq.String()))
	return stacked, nil
}

func (s *Stacker) resolveFrequency(ctx context.Context, wide *WideTable) (Frequency, error) {
	if wide.Freq != "" {
		freq, err := ParseFrequency(wide.Freq)
		if err != nil {
			return Frequency{}, apperrors.NewNoFixedFrequencyError(err.Error())
		}
		if !freq.Conforms(wide.Index) {
			return Frequency{}, apperrors.NewNoFixedFrequencyError(
				fmt.Sprintf("the index does not follow its frequency %q", wide.Freq))
		}
		return freq, nil
	}

	freq, ok := InferFrequency(wide.Index)
	if !ok {
		return Frequency{}, apperrors.NewNoFixedFrequencyError(
			"provide data with a specific frequency (e.g. 'H' or 'T') and at least three timestamps")
	}
	s.notices.info(ctx, "stack",
		"The frequency of your data is not specified, but is of the following frequency alias: %s. "+
			"The frequency of your data is therefore automatically set to the frequency with this alias.", freq)
	return freq, nil
}

// asFreq reindexes data onto the full range of freq between the first and
// last timestamp. Steps absent from index become NaN.
func asFreq(index []time.Time, data [][]float64, freq Frequency) ([]time.Time, [][]float64) {
	full := freq.Range(index[0], index[len(index)-1])
	pos := make(map[int64]int, len(index))
	for i, ts := range index {
		pos[ts.UnixNano()] = i
	}

	out := make([][]float64, len(data))
	for j, col := range data {
		values := make([]float64, len(full))
		for i, ts := range full {
			if src, ok := pos[ts.UnixNano()]; ok {
				values[i] = col[src]
			} else {
				values[i] = math.NaN()
			}
		}
		out[j] = values
	}
	return full, out
}

// Unstack rebuilds the wide form of a stacked table. Every row must share
// the same resolution, start and stop, checked in that order, and every
// series must cover the resulting index exactly.
func (s *Stacker) Unstack(ctx context.Context, stacked *SeriesTable) (wide *WideTable, err error) {
	ctx, finish := startOperation(ctx, s.opts.Metrics, "unstack")
	defer func() { finish(err) }()

	if stacked == nil || len(stacked.Rows) == 0 {
		return nil, apperrors.NewMissingTimeFieldError("start date", schema.ColTimeStart)
	}

	resolution, err := consistentField(stacked, "frequency", schema.ColTimeResolution,
		func(r domain.StackedSeries) (string, bool) { return r.Resolution, r.Resolution != "" })
	if err != nil {
		return nil, err
	}
	start, err := consistentTime(stacked, "start date", schema.ColTimeStart,
		func(r domain.StackedSeries) time.Time { return r.Start })
	if err != nil {
		return nil, err
	}
	stop, err := consistentTime(stacked, "end date", schema.ColTimeStop,
		func(r domain.StackedSeries) time.Time { return r.Stop })
	if err != nil {
		return nil, err
	}

	for _, col := range []string{schema.ColSource, schema.ColComment} {
		if stacked.HasColumn(col) {
			s.notices.warn(ctx, "unstack", "Caution any remarks in column '%s' are lost after unstacking.", col)
		}
	}

	freq, err := ParseFrequency(resolution)
	if err != nil {
		return nil, apperrors.NewParsingError("invalid timeindex_resolution", err).
			WithContext("resolution", resolution)
	}
	index := freq.Range(start, stop)

	wide = &WideTable{
		Index:     index,
		IndexName: stacked.IndexName,
		Freq:      resolution,
		Columns:   make([]string, 0, len(stacked.Rows)),
		Data:      make([][]float64, 0, len(stacked.Rows)),
	}
	for _, row := range stacked.Rows {
		if len(row.Series) != len(index) {
			return nil, apperrors.NewSeriesLengthMismatchError(row.VarName, len(row.Series), len(index))
		}
		wide.Columns = append(wide.Columns, row.VarName)
		wide.Data = append(wide.Data, append([]float64(nil), row.Series...))
	}

	s.logger.DebugContext(ctx, "Unstacked time series",
		slog.Int("columns", len(wide.Columns)),
		slog.Int("steps", len(index)))
	return wide, nil
}

// consistentField returns the single value of a time field shared by all
// rows. Differing values are reported before missing ones.
func consistentField(t *SeriesTable, name, col string, get func(domain.StackedSeries) (string, bool)) (string, error) {
	if !t.HasColumn(col) || len(t.Rows) == 0 {
		return "", apperrors.NewMissingTimeFieldError(name, col)
	}
	first, ok := get(t.Rows[0])
	for _, r := range t.Rows[1:] {
		v, vok := get(r)
		if v != first || vok != ok {
			return "", apperrors.NewInconsistentTimeIndexError(name, col)
		}
	}
	if !ok {
		return "", apperrors.NewMissingTimeFieldError(name, col)
	}
	return first, nil
}

func consistentTime(t *SeriesTable, name, col string, get func(domain.StackedSeries) time.Time) (time.Time, error) {
	v, err := consistentField(t, name, col, func(r domain.StackedSeries) (string, bool) {
		ts := get(r)
		if ts.IsZero() {
			return "", false
		}
		return ts.UTC().Format(time.RFC3339Nano), true
	})
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, v)
}
