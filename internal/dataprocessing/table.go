package dataprocessing

import (
	"time"

	"b3data/internal/schema"
	"b3data/pkg/contracts/domain"
)

// Table is a schema-shaped table the filter and aggregate engine can
// classify. It is implemented by *ScalarTable and *SeriesTable.
type Table interface {
	// Columns returns the table's columns in order.
	Columns() []string
	// Len returns the number of rows.
	Len() int

	cell(row int, col string) (string, bool)
	subset(rows []int) Table
}

// ScalarTable is a table of scalar records. Header lists the columns the
// table actually has; a field of domain.Scalar whose column is not in Header
// is not part of the table.
type ScalarTable struct {
	Header []string
	Rows   []domain.Scalar
}

// SeriesTable is a table of stacked time series. IndexName remembers the
// name of the timestamp index the rows were stacked from.
type SeriesTable struct {
	Header    []string
	Rows      []domain.StackedSeries
	IndexName string
}

// WideTable is the unstacked form: one row per timestamp and one column per
// variable. Data[j] holds the values of Columns[j]; NaN marks a missing step.
// Freq is the frequency alias of Index, empty when it has not been set.
type WideTable struct {
	Index     []time.Time
	IndexName string
	Freq      string
	Columns   []string
	Data      [][]float64
}

// Columns implements Table.
func (t *ScalarTable) Columns() []string { return append([]string(nil), t.Header...) }

// Len implements Table.
func (t *ScalarTable) Len() int { return len(t.Rows) }

// HasColumn reports whether col is part of the table.
func (t *ScalarTable) HasColumn(col string) bool { return contains(t.Header, col) }

// Clone returns a deep copy of t.
func (t *ScalarTable) Clone() *ScalarTable {
	out := &ScalarTable{
		Header: append([]string(nil), t.Header...),
		Rows:   make([]domain.Scalar, len(t.Rows)),
	}
	copy(out.Rows, t.Rows)
	return out
}

func (t *ScalarTable) cell(row int, col string) (string, bool) {
	r := t.Rows[row]
	switch col {
	case schema.ColScenario:
		return r.Scenario, true
	case schema.ColName:
		return r.Name, true
	case schema.ColVarName:
		return r.VarName, true
	case schema.ColCarrier:
		return r.Carrier, true
	case schema.ColRegion:
		return r.Region, true
	case schema.ColTech:
		return r.Tech, true
	case schema.ColType:
		return r.Type, true
	case schema.ColVarUnit:
		return r.VarUnit.String, r.VarUnit.Valid
	case schema.ColReference:
		return r.Reference.String, r.Reference.Valid
	case schema.ColComment:
		return r.Comment.String, r.Comment.Valid
	}
	return "", false
}

func (t *ScalarTable) subset(rows []int) Table {
	out := &ScalarTable{
		Header: append([]string(nil), t.Header...),
		Rows:   make([]domain.Scalar, 0, len(rows)),
	}
	for _, i := range rows {
		out.Rows = append(out.Rows, t.Rows[i])
	}
	return out
}

// Columns implements Table.
func (t *SeriesTable) Columns() []string { return append([]string(nil), t.Header...) }

// Len implements Table.
func (t *SeriesTable) Len() int { return len(t.Rows) }

// HasColumn reports whether col is part of the table.
func (t *SeriesTable) HasColumn(col string) bool { return contains(t.Header, col) }

// Clone returns a deep copy of t, series included.
func (t *SeriesTable) Clone() *SeriesTable {
	out := &SeriesTable{
		Header:    append([]string(nil), t.Header...),
		Rows:      make([]domain.StackedSeries, len(t.Rows)),
		IndexName: t.IndexName,
	}
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

func (t *SeriesTable) cell(row int, col string) (string, bool) {
	r := t.Rows[row]
	switch col {
	case schema.ColRegion:
		return r.Region, true
	case schema.ColVarName:
		return r.VarName, true
	case schema.ColTimeResolution:
		return r.Resolution, r.Resolution != ""
	case schema.ColVarUnit:
		return r.VarUnit.String, r.VarUnit.Valid
	case schema.ColSource:
		return r.Source.String, r.Source.Valid
	case schema.ColComment:
		return r.Comment.String, r.Comment.Valid
	}
	return "", false
}

func (t *SeriesTable) subset(rows []int) Table {
	out := &SeriesTable{
		Header:    append([]string(nil), t.Header...),
		Rows:      make([]domain.StackedSeries, 0, len(rows)),
		IndexName: t.IndexName,
	}
	for _, i := range rows {
		out.Rows = append(out.Rows, t.Rows[i].Clone())
	}
	return out
}

// Len returns the number of timestamps.
func (w *WideTable) Len() int { return len(w.Index) }

// Column returns the values of the named column.
func (w *WideTable) Column(name string) ([]float64, bool) {
	for j, c := range w.Columns {
		if c == name {
			return w.Data[j], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of w.
func (w *WideTable) Clone() *WideTable {
	out := &WideTable{
		Index:     append([]time.Time(nil), w.Index...),
		IndexName: w.IndexName,
		Freq:      w.Freq,
		Columns:   append([]string(nil), w.Columns...),
		Data:      make([][]float64, len(w.Data)),
	}
	for j, col := range w.Data {
		out.Data[j] = append([]float64(nil), col...)
	}
	return out
}
