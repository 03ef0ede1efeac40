package dataprocessing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "b3data/internal/errors"
	"b3data/internal/shared/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadFixtureScalars(t *testing.T) *ScalarTable {
	t.Helper()
	loader := NewLoader(discardLogger(), DefaultOptions())
	table, err := loader.LoadScalars(context.Background(), testutil.WriteFile(t, "scalars.csv", testutil.ScalarsCSV))
	require.NoError(t, err)
	return table
}

func loadFixtureSeries(t *testing.T) *SeriesTable {
	t.Helper()
	loader := NewLoader(discardLogger(), DefaultOptions())
	table, err := loader.LoadTimeseries(context.Background(), testutil.WriteFile(t, "stacked.csv", testutil.StackedCSV))
	require.NoError(t, err)
	return table
}

func newTestEngine(t *testing.T) (*Engine, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	return NewEngine(logger, DefaultOptions()), handler
}

func ids(t *ScalarTable) []int64 {
	out := make([]int64, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r.ID.Int64)
	}
	return out
}

func TestFilterScalars(t *testing.T) {
	table := loadFixtureScalars(t)

	tests := []struct {
		name    string
		key     string
		values  []string
		wantIDs []int64
	}{
		{name: "single value", key: "scenario", values: []string{"other"}, wantIDs: []int64{5}},
		{name: "grouped by value order", key: "scenario", values: []string{"other", "base"}, wantIDs: []int64{5, 0, 1, 2, 3, 4}},
		{name: "duplicates ignored", key: "region", values: []string{"BE", "BE"}, wantIDs: []int64{1}},
		{name: "carrier", key: "carrier", values: []string{"ch4"}, wantIDs: []int64{2, 3}},
		{name: "var_name", key: "var_name", values: []string{"capacity"}, wantIDs: []int64{0, 1, 5}},
		{name: "type", key: "type", values: []string{"conversion", "volatile"}, wantIDs: []int64{2, 3, 0, 1, 4, 5}},
		{name: "nothing matches", key: "tech", values: []string{"nuclear"}, wantIDs: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t)

			out, err := engine.FilterScalars(context.Background(), table, tt.key, tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids(out))
			assert.Equal(t, table.Columns(), out.Columns())
		})
	}
}

func TestFilterScalars_DoesNotModifyInput(t *testing.T) {
	table := loadFixtureScalars(t)
	before := table.Clone()
	engine, _ := newTestEngine(t)

	out, err := engine.FilterScalars(context.Background(), table, "region", []string{"BB"})
	require.NoError(t, err)
	out.Rows[0].Scenario = "mutated"

	assert.Equal(t, before, table)
}

func TestFilter_NoticeForMissingValue(t *testing.T) {
	table := loadFixtureScalars(t)
	engine, handler := newTestEngine(t)

	out, err := engine.FilterBy(context.Background(), table, "region", []string{"BB", "HH"})
	require.NoError(t, err)
	assert.Equal(t, 5, out.Len())

	testutil.AssertNotice(t, handler, slog.LevelInfo, "User info: HH not found as item in column region.")
	assert.Len(t, handler.Notices(), 1)
}

func TestFilterSeries(t *testing.T) {
	table := loadFixtureSeries(t)
	engine, _ := newTestEngine(t)

	out, err := engine.FilterSeries(context.Background(), table, "region", []string{"BE", "BB"})
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "BE-pv-profile", out.Rows[0].VarName)
	assert.Equal(t, "BB-wind-profile", out.Rows[1].VarName)
	assert.Equal(t, table.IndexName, out.IndexName)

	out.Rows[0].Series[0] = 99
	assert.Equal(t, 0.0, table.Rows[1].Series[0], "series are copied")
}

func TestFilter_Errors(t *testing.T) {
	scalars := loadFixtureScalars(t)
	series := loadFixtureSeries(t)

	tests := []struct {
		name    string
		table   Table
		key     string
		wantErr error
	}{
		{name: "scalar value column", table: scalars, key: "var_value", wantErr: apperrors.ErrInvalidFilterKey},
		{name: "series key only valid for scalars", table: series, key: "scenario", wantErr: apperrors.ErrInvalidFilterKey},
		{
			name:    "unrecognized table",
			table:   &ScalarTable{Header: []string{"scenario", "region"}},
			key:     "region",
			wantErr: apperrors.ErrUnrecognizedSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t)
			_, err := engine.FilterBy(context.Background(), tt.table, tt.key, []string{"x"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}
