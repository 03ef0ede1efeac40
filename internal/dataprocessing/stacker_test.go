package dataprocessing

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "b3data/internal/errors"
	"b3data/internal/schema"
	"b3data/internal/shared/testutil"
	"b3data/pkg/contracts/domain"
)

func newTestStacker(t *testing.T) (*Stacker, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	return NewStacker(logger, DefaultOptions()), handler
}

func sampleWide() *WideTable {
	return &WideTable{
		Index:     hourly("2019-01-01 00:00:00", 3),
		IndexName: DefaultIndexName,
		Columns:   []string{"BB-demand", "BE-demand"},
		Data:      [][]float64{{1, 2, 3}, {4, 5, 6}},
	}
}

func TestStack(t *testing.T) {
	stacker, handler := newTestStacker(t)

	stacked, err := stacker.Stack(context.Background(), sampleWide())
	require.NoError(t, err)

	assert.Equal(t, stackedColumns, stacked.Header)
	assert.Equal(t, DefaultIndexName, stacked.IndexName)
	require.Len(t, stacked.Rows, 2)

	row := stacked.Rows[1]
	assert.Equal(t, "BE-demand", row.VarName)
	assert.Equal(t, ts("2019-01-01 00:00:00"), row.Start)
	assert.Equal(t, ts("2019-01-01 02:00:00"), row.Stop)
	assert.Equal(t, "H", row.Resolution)
	assert.Equal(t, []float64{4, 5, 6}, row.Series)

	testutil.AssertNotice(t, handler, slog.LevelInfo,
		"User info: The frequency of your data is not specified, but is of the following frequency alias: H.")
}

func TestStack_ExplicitFrequency(t *testing.T) {
	stacker, handler := newTestStacker(t)
	wide := sampleWide()
	wide.Freq = "60min"

	stacked, err := stacker.Stack(context.Background(), wide)
	require.NoError(t, err)
	assert.Equal(t, "60min", stacked.Rows[0].Resolution)
	testutil.AssertNoNotices(t, handler)
}

func TestStack_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(w *WideTable)
		wantErr error
	}{
		{
			name:    "empty index",
			mutate:  func(w *WideTable) { w.Index = nil },
			wantErr: apperrors.ErrNotTimeIndexed,
		},
		{
			name:    "descending index",
			mutate:  func(w *WideTable) { w.Index[0], w.Index[2] = w.Index[2], w.Index[0] },
			wantErr: apperrors.ErrNotTimeIndexed,
		},
		{
			name:    "duplicate timestamp",
			mutate:  func(w *WideTable) { w.Index[1] = w.Index[0] },
			wantErr: apperrors.ErrNotTimeIndexed,
		},
		{
			name:    "frequency does not fit",
			mutate:  func(w *WideTable) { w.Freq = "2H" },
			wantErr: apperrors.ErrNoFixedFrequency,
		},
		{
			name:    "unknown frequency alias",
			mutate:  func(w *WideTable) { w.Freq = "fortnight" },
			wantErr: apperrors.ErrNoFixedFrequency,
		},
		{
			name:    "irregular index",
			mutate:  func(w *WideTable) { w.Index[2] = w.Index[2].Add(time.Minute) },
			wantErr: apperrors.ErrNoFixedFrequency,
		},
		{
			name:    "ragged column",
			mutate:  func(w *WideTable) { w.Data[1] = w.Data[1][:2] },
			wantErr: apperrors.ErrSeriesLengthMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stacker, _ := newTestStacker(t)
			wide := sampleWide()
			tt.mutate(wide)

			_, err := stacker.Stack(context.Background(), wide)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestAsFreq_FillsGapsWithNaN(t *testing.T) {
	h, err := ParseFrequency("H")
	require.NoError(t, err)

	index := []time.Time{ts("2019-01-01 00:00:00"), ts("2019-01-01 01:00:00"), ts("2019-01-01 03:00:00")}
	full, data := asFreq(index, [][]float64{{1, 2, 4}}, h)

	assert.Equal(t, hourly("2019-01-01 00:00:00", 4), full)
	require.Len(t, data[0], 4)
	assert.Equal(t, []float64{1, 2}, data[0][:2])
	assert.True(t, math.IsNaN(data[0][2]))
	assert.Equal(t, 4.0, data[0][3])
}

func TestUnstack_RoundTrip(t *testing.T) {
	stacker, _ := newTestStacker(t)
	wide := sampleWide()

	stacked, err := stacker.Stack(context.Background(), wide)
	require.NoError(t, err)

	back, err := stacker.Unstack(context.Background(), stacked)
	require.NoError(t, err)

	assert.Equal(t, wide.Index, back.Index)
	assert.Equal(t, wide.Columns, back.Columns)
	assert.Equal(t, wide.Data, back.Data)
	assert.Equal(t, "H", back.Freq)
	assert.Equal(t, DefaultIndexName, back.IndexName)

	values, ok := back.Column("BB-demand")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, values)
}

func TestUnstack_WarnsAboutRemarks(t *testing.T) {
	stacker, handler := newTestStacker(t)
	stacked := sampleStacked()
	stacked.Header = schema.MustLookup(schema.Timeseries).Full

	_, err := stacker.Unstack(context.Background(), stacked)
	require.NoError(t, err)

	testutil.AssertNotice(t, handler, slog.LevelWarn,
		"User warning: Caution any remarks in column 'source' are lost after unstacking.")
	testutil.AssertNotice(t, handler, slog.LevelWarn, "column 'comment'")
}

func sampleStacked() *SeriesTable {
	start, stop := ts("2019-01-01 00:00:00"), ts("2019-01-01 02:00:00")
	return &SeriesTable{
		Header:    append([]string(nil), stackedColumns...),
		IndexName: DefaultIndexName,
		Rows: []domain.StackedSeries{
			{VarName: "BB-demand", Start: start, Stop: stop, Resolution: "H", Series: []float64{1, 2, 3}},
			{VarName: "BE-demand", Start: start, Stop: stop, Resolution: "H", Series: []float64{4, 5, 6}},
		},
	}
}

func TestUnstack_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *SeriesTable)
		wantErr error
		wantMsg string
	}{
		{
			name:    "no rows",
			mutate:  func(s *SeriesTable) { s.Rows = nil },
			wantErr: apperrors.ErrMissingTimeField,
			wantMsg: "start date",
		},
		{
			name:    "differing frequency",
			mutate:  func(s *SeriesTable) { s.Rows[1].Resolution = "15min" },
			wantErr: apperrors.ErrInconsistentTimeIndex,
			wantMsg: "frequency",
		},
		{
			name:    "differing start",
			mutate:  func(s *SeriesTable) { s.Rows[1].Start = ts("2019-01-01 01:00:00") },
			wantErr: apperrors.ErrInconsistentTimeIndex,
			wantMsg: "start date",
		},
		{
			name:    "differing stop",
			mutate:  func(s *SeriesTable) { s.Rows[0].Stop = ts("2019-01-01 03:00:00") },
			wantErr: apperrors.ErrInconsistentTimeIndex,
			wantMsg: "end date",
		},
		{
			name: "missing frequency column",
			mutate: func(s *SeriesTable) {
				s.Header = []string{schema.ColVarName, schema.ColTimeStart, schema.ColTimeStop, schema.ColSeries}
			},
			wantErr: apperrors.ErrMissingTimeField,
			wantMsg: "frequency",
		},
		{
			name: "missing start everywhere",
			mutate: func(s *SeriesTable) {
				s.Rows[0].Start = time.Time{}
				s.Rows[1].Start = time.Time{}
			},
			wantErr: apperrors.ErrMissingTimeField,
			wantMsg: "start date",
		},
		{
			name:    "missing start in one row",
			mutate:  func(s *SeriesTable) { s.Rows[1].Start = time.Time{} },
			wantErr: apperrors.ErrInconsistentTimeIndex,
			wantMsg: "start date",
		},
		{
			name:    "series shorter than range",
			mutate:  func(s *SeriesTable) { s.Rows[0].Series = []float64{1, 2} },
			wantErr: apperrors.ErrSeriesLengthMismatch,
		},
		{
			name: "invalid resolution",
			mutate: func(s *SeriesTable) {
				s.Rows[0].Resolution = "fortnight"
				s.Rows[1].Resolution = "fortnight"
			},
			wantErr: apperrors.ErrParsing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stacker, _ := newTestStacker(t)
			stacked := sampleStacked()
			tt.mutate(stacked)

			_, err := stacker.Unstack(context.Background(), stacked)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}
