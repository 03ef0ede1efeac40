// Package schema holds the fixed column layouts of the two record types the
// data pipeline understands: scalars and stacked time series.
package schema

import (
	"strings"

	apperrors "b3data/internal/errors"
)

// Kind identifies a record type.
type Kind string

const (
	Scalars    Kind = "scalars"
	Timeseries Kind = "timeseries"
)

// Column names shared by loader, stacker and engine.
const (
	ColIDScalar  = "id_scal"
	ColScenario  = "scenario"
	ColName      = "name"
	ColVarName   = "var_name"
	ColCarrier   = "carrier"
	ColRegion    = "region"
	ColTech      = "tech"
	ColType      = "type"
	ColVarValue  = "var_value"
	ColVarUnit   = "var_unit"
	ColReference = "reference"
	ColComment   = "comment"

	ColIDSeries       = "id_ts"
	ColTimeStart      = "timeindex_start"
	ColTimeStop       = "timeindex_stop"
	ColTimeResolution = "timeindex_resolution"
	ColSeries         = "series"
	ColSource         = "source"
)

var (
	scalarFull = []string{
		ColIDScalar, ColScenario, ColName, ColVarName, ColCarrier, ColRegion,
		ColTech, ColType, ColVarValue, ColVarUnit, ColReference, ColComment,
	}
	scalarOptional = []string{ColIDScalar, ColVarUnit, ColReference, ColComment}

	seriesFull = []string{
		ColIDSeries, ColRegion, ColVarName, ColTimeStart, ColTimeStop,
		ColTimeResolution, ColSeries, ColVarUnit, ColSource, ColComment,
	}
	// region is required but can be derived from var_name on load
	seriesOptional = []string{ColIDSeries, ColVarUnit, ColSource, ColComment}
)

// Header describes the columns of one record type. Required is Full minus
// Optional, in canonical order.
type Header struct {
	Kind     Kind
	Full     []string
	Optional []string
	Required []string
}

// Lookup returns the header of kind. Every call returns fresh slices, so
// callers may modify the result.
func Lookup(kind Kind) (Header, error) {
	switch kind {
	case Scalars:
		return newHeader(kind, scalarFull, scalarOptional), nil
	case Timeseries:
		return newHeader(kind, seriesFull, seriesOptional), nil
	default:
		return Header{}, apperrors.NewInvalidSchemaKindError(string(kind))
	}
}

// MustLookup is Lookup for the two known kinds; it panics on anything else.
func MustLookup(kind Kind) Header {
	h, err := Lookup(kind)
	if err != nil {
		panic(err)
	}
	return h
}

// ParseKind accepts the spellings used on the command line and in config files.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scalars", "scalar":
		return Scalars, nil
	case "timeseries", "time_series", "time-series", "ts":
		return Timeseries, nil
	default:
		return "", apperrors.NewInvalidSchemaKindError(s)
	}
}

func newHeader(kind Kind, full, optional []string) Header {
	h := Header{
		Kind:     kind,
		Full:     append([]string(nil), full...),
		Optional: append([]string(nil), optional...),
	}
	for _, col := range full {
		if !contains(optional, col) {
			h.Required = append(h.Required, col)
		}
	}
	return h
}

// IsOptional reports whether col is an optional column of h.
func (h Header) IsOptional(col string) bool {
	return contains(h.Optional, col)
}

// Has reports whether col belongs to h at all.
func (h Header) Has(col string) bool {
	return contains(h.Full, col)
}

// RequiredWithout returns Required minus the given columns.
func (h Header) RequiredWithout(cols ...string) []string {
	out := make([]string, 0, len(h.Required))
	for _, c := range h.Required {
		if !contains(cols, c) {
			out = append(out, c)
		}
	}
	return out
}

// Missing returns the entries of want absent from have, in want's order.
func Missing(want, have []string) []string {
	var out []string
	for _, c := range want {
		if !contains(have, c) {
			out = append(out, c)
		}
	}
	return out
}

// Canonical orders cols by their position in h.Full. Columns unknown to h
// are dropped.
func (h Header) Canonical(cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range h.Full {
		if contains(cols, c) {
			out = append(out, c)
		}
	}
	return out
}

// Equal reports whether a and b hold the same columns in the same order.
func Equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
