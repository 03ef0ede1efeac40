package dataprocessing

import (
	apperrors "b3data/internal/errors"
	"b3data/internal/schema"
)

// Classify decides whether t holds scalars or stacked time series by its
// required columns: the present columns minus every optional column of
// either schema must equal one schema's required set.
func Classify(t Table) (schema.Kind, error) {
	scalars := schema.MustLookup(schema.Scalars)
	series := schema.MustLookup(schema.Timeseries)

	var required []string
	for _, col := range t.Columns() {
		if scalars.IsOptional(col) || series.IsOptional(col) {
			continue
		}
		required = append(required, col)
	}

	switch {
	case sameSet(required, scalars.Required):
		return schema.Scalars, nil
	case sameSet(required, series.Required):
		return schema.Timeseries, nil
	}
	return "", apperrors.NewUnrecognizedSchemaError(scalars.Full, series.Full)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if !contains(b, v) {
			return false
		}
	}
	return true
}

// FileSummary describes a table file without applying a schema to it.
type FileSummary struct {
	Path    string
	Kind    schema.Kind
	Columns int
	Rows    int
}

// Inspect reads the file at path and guesses its kind from the header: a
// file carrying every required scalar column is scalars, anything else is
// read as time series. It is safe for concurrent use.
func (l *Loader) Inspect(path string) (FileSummary, error) {
	raw, err := readRawTable(path, l.opts.Sheet)
	if err != nil {
		return FileSummary{}, err
	}
	kind := schema.Timeseries
	if len(schema.Missing(schema.MustLookup(schema.Scalars).Required, raw.header)) == 0 {
		kind = schema.Scalars
	}
	return FileSummary{Path: path, Kind: kind, Columns: len(raw.header), Rows: len(raw.rows)}, nil
}
