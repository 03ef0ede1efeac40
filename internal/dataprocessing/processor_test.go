package dataprocessing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"b3data/internal/config"
	apperrors "b3data/internal/errors"
	"b3data/internal/schema"
	"b3data/internal/shared/testutil"
)

func TestProcessor_LoadAny(t *testing.T) {
	p := New(discardLogger(), DefaultOptions())
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
		kind    schema.Kind
		want    schema.Kind
	}{
		{name: "scalars detected", content: testutil.ScalarsCSV, want: schema.Scalars},
		{name: "time series detected", content: testutil.WideCSV, want: schema.Timeseries},
		{name: "explicit kind", content: testutil.StackedCSV, kind: schema.Timeseries, want: schema.Timeseries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := p.LoadAny(ctx, testutil.WriteFile(t, "data.csv", tt.content), tt.kind)
			require.NoError(t, err)

			kind, err := Classify(table)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestProcessor_LoadAnyKeepsFileErrors(t *testing.T) {
	p := New(discardLogger(), DefaultOptions())
	_, err := p.LoadAny(context.Background(), "does-not-exist.csv", "")
	assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(err))
}

func TestProcessor_Pipeline(t *testing.T) {
	p := New(discardLogger(), DefaultOptions())
	ctx := context.Background()

	table, err := p.LoadTimeseries(ctx, testutil.WriteFile(t, "profiles.csv", testutil.WideCSV))
	require.NoError(t, err)

	be, err := p.FilterSeries(ctx, table, "region", []string{"BE", "BE_BB"})
	require.NoError(t, err)
	require.Len(t, be.Rows, 2)

	summed, err := p.AggregateSeries(ctx, be, "region")
	require.NoError(t, err)
	require.Len(t, summed.Rows, 2)

	wide, err := p.Unstack(ctx, summed)
	require.NoError(t, err)
	assert.Equal(t, 4, wide.Len())
	assert.Equal(t, []string{"Aggregated by region", "Aggregated by region"}, wide.Columns)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default().Processing
	cfg.RegionCodes = []string{"DE"}
	cfg.Sheet = "data"

	opts := OptionsFromConfig(cfg, nil)
	assert.Equal(t, []string{"DE"}, opts.RegionCodes)
	assert.Equal(t, "data", opts.Sheet)

	cfg.RegionCodes[0] = "FR"
	assert.Equal(t, []string{"DE"}, opts.RegionCodes, "codes are copied")

	empty := Options{}.withDefaults()
	assert.Equal(t, []string{"BE", "BB"}, empty.RegionCodes)
	assert.Equal(t, "_", empty.RegionSeparator)
}

func TestProcessor_MissingRegionWithCustomCodes(t *testing.T) {
	opts := DefaultOptions()
	opts.RegionCodes = []string{"DE"}
	p := New(discardLogger(), opts)

	_, err := p.LoadTimeseries(context.Background(), testutil.WriteFile(t, "profiles.csv", testutil.WideCSV))
	assert.True(t, errors.Is(err, apperrors.ErrMissingRegion))
}
