package exporter

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"b3data/internal/dataprocessing"
	apperrors "b3data/internal/errors"
	"b3data/internal/schema"
	"b3data/pkg/contracts/domain"
)

// Grid is a table rendered to text cells, ready for CSV, XLSX or the
// terminal preview.
type Grid struct {
	Header  []string
	Records [][]string
}

// ScalarGrid renders t with exactly the columns of t.Header.
func ScalarGrid(t *dataprocessing.ScalarTable) Grid {
	g := Grid{Header: t.Columns(), Records: make([][]string, 0, len(t.Rows))}
	for _, row := range t.Rows {
		rec := make([]string, len(g.Header))
		for j, col := range g.Header {
			rec[j] = scalarCell(row, col)
		}
		g.Records = append(g.Records, rec)
	}
	return g
}

// SeriesGrid renders t with exactly the columns of t.Header.
func SeriesGrid(t *dataprocessing.SeriesTable, layout string) Grid {
	g := Grid{Header: t.Columns(), Records: make([][]string, 0, len(t.Rows))}
	for _, row := range t.Rows {
		rec := make([]string, len(g.Header))
		for j, col := range g.Header {
			rec[j] = seriesCell(row, col, layout)
		}
		g.Records = append(g.Records, rec)
	}
	return g
}

// WideGrid renders t as one row per timestamp with the index first.
func WideGrid(t *dataprocessing.WideTable, layout string) Grid {
	indexName := t.IndexName
	if indexName == "" {
		indexName = dataprocessing.DefaultIndexName
	}
	g := Grid{
		Header:  append([]string{indexName}, t.Columns...),
		Records: make([][]string, 0, len(t.Index)),
	}
	for i, ts := range t.Index {
		rec := make([]string, 0, len(g.Header))
		rec = append(rec, formatTime(ts, layout))
		for _, col := range t.Data {
			rec = append(rec, dataprocessing.FormatFloat(col[i]))
		}
		g.Records = append(g.Records, rec)
	}
	return g
}

// GridOf renders any of the table types of the dataprocessing package.
func GridOf(t any, layout string) (Grid, error) {
	switch tt := t.(type) {
	case *dataprocessing.ScalarTable:
		return ScalarGrid(tt), nil
	case *dataprocessing.SeriesTable:
		return SeriesGrid(tt, layout), nil
	case *dataprocessing.WideTable:
		return WideGrid(tt, layout), nil
	}
	return Grid{}, apperrors.NewAppValidationError(fmt.Sprintf("cannot export %T", t))
}

func scalarCell(r domain.Scalar, col string) string {
	switch col {
	case schema.ColIDScalar:
		return formatID(r.ID)
	case schema.ColScenario:
		return r.Scenario
	case schema.ColName:
		return r.Name
	case schema.ColVarName:
		return r.VarName
	case schema.ColCarrier:
		return r.Carrier
	case schema.ColRegion:
		return r.Region
	case schema.ColTech:
		return r.Tech
	case schema.ColType:
		return r.Type
	case schema.ColVarValue:
		return dataprocessing.FormatFloat(r.VarValue)
	case schema.ColVarUnit:
		return formatText(r.VarUnit)
	case schema.ColReference:
		return formatText(r.Reference)
	case schema.ColComment:
		return formatText(r.Comment)
	}
	return ""
}

func seriesCell(r domain.StackedSeries, col, layout string) string {
	switch col {
	case schema.ColIDSeries:
		return formatID(r.ID)
	case schema.ColRegion:
		return r.Region
	case schema.ColVarName:
		return r.VarName
	case schema.ColTimeStart:
		return formatTime(r.Start, layout)
	case schema.ColTimeStop:
		return formatTime(r.Stop, layout)
	case schema.ColTimeResolution:
		return r.Resolution
	case schema.ColSeries:
		return dataprocessing.EncodeSeries(r.Series)
	case schema.ColVarUnit:
		return formatText(r.VarUnit)
	case schema.ColSource:
		return formatText(r.Source)
	case schema.ColComment:
		return formatText(r.Comment)
	}
	return ""
}

func formatID(id sql.NullInt64) string {
	if !id.Valid {
		return ""
	}
	return strconv.FormatInt(id.Int64, 10)
}

func formatText(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}

// formatTime leaves the zero time empty. A timestamp off UTC keeps its
// offset, appended when layout carries no zone of its own.
func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	if _, offset := t.Zone(); offset != 0 && !layoutHasZone(layout) {
		return t.Format(layout + "-07:00")
	}
	return t.Format(layout)
}

func layoutHasZone(layout string) bool {
	for _, directive := range []string{"MST", "Z07", "-07"} {
		if strings.Contains(layout, directive) {
			return true
		}
	}
	return false
}
