package dataprocessing

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	apperrors "b3data/internal/errors"
	"b3data/internal/infrastructure"
	"b3data/internal/schema"
	"b3data/pkg/contracts/domain"
)

// results exports carry three extra header rows below the column names
var resultsHeaderRows = []string{"to", "type", "timeindex"}

// Loader reads scalar and time series tables from CSV or XLSX files and
// repairs them into their canonical schema.
type Loader struct {
	logger  *slog.Logger
	opts    Options
	stacker *Stacker
	regions RegionInferrer
	notices notifier
}

// NewLoader creates a Loader. A nil logger uses slog.Default().
func NewLoader(logger *slog.Logger, opts Options) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	componentLogger := infrastructure.WithComponent(logger, "loader")
	return &Loader{
		logger:  componentLogger,
		opts:    opts,
		stacker: NewStacker(logger, opts),
		regions: RegionInferrer{Codes: opts.RegionCodes, Separator: opts.RegionSeparator},
		notices: notifier{logger: componentLogger, metrics: opts.Metrics},
	}
}

// Load dispatches on kind.
func (l *Loader) Load(ctx context.Context, path string, kind schema.Kind) (Table, error) {
	switch kind {
	case schema.Scalars:
		t, err := l.LoadScalars(ctx, path)
		if err != nil {
			return nil, err
		}
		return t, nil
	case schema.Timeseries:
		t, err := l.LoadTimeseries(ctx, path)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, apperrors.NewInvalidSchemaKindError(string(kind))
	}
}

// LoadScalars reads a scalar table. Every required column must be present;
// a missing id_scal is numbered 0..n-1 and every other missing optional
// column is added empty with a notice. Columns outside the schema are
// dropped.
func (l *Loader) LoadScalars(ctx context.Context, path string) (table *ScalarTable, err error) {
	ctx, finish := startOperation(ctx, l.opts.Metrics, "load_scalars")
	defer func() { finish(err) }()

	raw, err := readRawTable(path, l.opts.Sheet)
	if err != nil {
		return nil, err
	}

	header := schema.MustLookup(schema.Scalars)
	name := baseName(path)
	if missing := schema.Missing(header.Required, raw.header); len(missing) > 0 {
		return nil, apperrors.NewMissingRequiredColumnsError(name, missing)
	}

	cols := newColumnIndex(raw)
	table = &ScalarTable{
		Header: header.Full,
		Rows:   make([]domain.Scalar, 0, len(raw.rows)),
	}
	for i, rec := range raw.rows {
		row := domain.Scalar{
			Scenario:  cols.text(rec, schema.ColScenario),
			Name:      cols.text(rec, schema.ColName),
			VarName:   cols.text(rec, schema.ColVarName),
			Carrier:   cols.text(rec, schema.ColCarrier),
			Region:    cols.text(rec, schema.ColRegion),
			Tech:      cols.text(rec, schema.ColTech),
			Type:      cols.text(rec, schema.ColType),
			VarUnit:   cols.nullText(rec, schema.ColVarUnit),
			Reference: cols.nullText(rec, schema.ColReference),
			Comment:   cols.nullText(rec, schema.ColComment),
		}

		row.VarValue, err = parseCellFloat(cols.text(rec, schema.ColVarValue))
		if err != nil {
			return nil, rowError(name, i, schema.ColVarValue, err)
		}

		if cols.has(schema.ColIDScalar) {
			if row.ID, err = cols.id(rec, schema.ColIDScalar); err != nil {
				return nil, rowError(name, i, schema.ColIDScalar, err)
			}
		} else {
			row.ID = domain.NullID(int64(i))
		}
		table.Rows = append(table.Rows, row)
	}

	for _, col := range header.Optional {
		if col != schema.ColIDScalar && !cols.has(col) {
			l.notices.info(ctx, "load_scalars",
				"The data in %s is missing the optional column: %s. "+
					"An empty column named %s is added automatically.", name, col, col)
		}
	}

	l.opts.Metrics.RecordRowsRead(ctx, string(schema.Scalars), len(table.Rows))
	l.logger.InfoContext(ctx, "Loaded scalars",
		slog.String("path", path),
		slog.Int("rows", len(table.Rows)))
	return table, nil
}

// LoadTimeseries reads a time series table in any of its three layouts:
// stacked, wide with a timestamp first column, or a results export whose
// "from"/"to"/"type"/"timeindex" header rows are folded into column names
// "{type} from {from} to {to}". Wide layouts are stacked. Missing id_ts,
// region and optional columns are filled in.
func (l *Loader) LoadTimeseries(ctx context.Context, path string) (table *SeriesTable, err error) {
	ctx, finish := startOperation(ctx, l.opts.Metrics, "load_timeseries")
	defer func() { finish(err) }()

	raw, err := readRawTable(path, l.opts.Sheet)
	if err != nil {
		return nil, err
	}
	if isResultsLayout(raw) {
		raw = foldResultsHeader(raw)
		l.logger.DebugContext(ctx, "Folded results header", slog.String("path", path))
	}

	header := schema.MustLookup(schema.Timeseries)
	name := baseName(path)

	stacked := false
	for _, col := range raw.header {
		if contains(header.Required, col) {
			stacked = true
			break
		}
	}

	if stacked {
		table, err = l.parseStacked(raw, name, header)
	} else {
		var wide *WideTable
		if wide, err = parseWide(raw, name); err == nil {
			table, err = l.stacker.Stack(ctx, wide)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := l.completeSeries(ctx, table, header, name); err != nil {
		return nil, err
	}

	l.opts.Metrics.RecordRowsRead(ctx, string(schema.Timeseries), len(table.Rows))
	l.logger.InfoContext(ctx, "Loaded time series",
		slog.String("path", path),
		slog.Bool("stacked", stacked),
		slog.Int("rows", len(table.Rows)))
	return table, nil
}

func isResultsLayout(raw *rawTable) bool {
	if len(raw.header) == 0 || raw.header[0] != "from" || len(raw.rows) < len(resultsHeaderRows) {
		return false
	}
	for i, want := range resultsHeaderRows {
		if strings.TrimSpace(raw.rows[i][0]) != want {
			return false
		}
	}
	return true
}

func foldResultsHeader(raw *rawTable) *rawTable {
	header := make([]string, len(raw.header))
	header[0] = DefaultIndexName
	for j := 1; j < len(raw.header); j++ {
		to := strings.TrimSpace(raw.rows[0][j])
		typ := strings.TrimSpace(raw.rows[1][j])
		header[j] = typ + " from " + raw.header[j] + " to " + to
	}
	return &rawTable{header: header, rows: raw.rows[len(resultsHeaderRows):]}
}

// parseWide reads the first column as the timestamp index and every other
// column as a variable.
func parseWide(raw *rawTable, name string) (*WideTable, error) {
	if len(raw.header) == 0 {
		return nil, apperrors.NewNotTimeIndexedError(name + " has no columns")
	}

	wide := &WideTable{
		Index:     make([]time.Time, 0, len(raw.rows)),
		IndexName: DefaultIndexName,
		Columns:   append([]string(nil), raw.header[1:]...),
		Data:      make([][]float64, len(raw.header)-1),
	}
	for i, rec := range raw.rows {
		ts, err := parseTimestamp(rec[0])
		if err != nil {
			return nil, apperrors.NewNotTimeIndexedError(
				fmt.Sprintf("row %d of %s: %v", i+2, name, err))
		}
		wide.Index = append(wide.Index, ts)
		for j := 1; j < len(rec); j++ {
			v, err := parseCellFloat(rec[j])
			if err != nil {
				return nil, rowError(name, i, raw.header[j], err)
			}
			wide.Data[j-1] = append(wide.Data[j-1], v)
		}
	}
	return wide, nil
}

func (l *Loader) parseStacked(raw *rawTable, name string, header schema.Header) (*SeriesTable, error) {
	if missing := schema.Missing(header.RequiredWithout(schema.ColRegion), raw.header); len(missing) > 0 {
		return nil, apperrors.NewMissingRequiredColumnsError(name, missing)
	}

	cols := newColumnIndex(raw)
	table := &SeriesTable{
		Header:    header.Canonical(raw.header),
		Rows:      make([]domain.StackedSeries, 0, len(raw.rows)),
		IndexName: DefaultIndexName,
	}
	for i, rec := range raw.rows {
		row := domain.StackedSeries{
			Region:     cols.text(rec, schema.ColRegion),
			VarName:    cols.text(rec, schema.ColVarName),
			Resolution: cols.text(rec, schema.ColTimeResolution),
			VarUnit:    cols.nullText(rec, schema.ColVarUnit),
			Source:     cols.nullText(rec, schema.ColSource),
			Comment:    cols.nullText(rec, schema.ColComment),
		}

		var err error
		if cols.has(schema.ColIDSeries) {
			if row.ID, err = cols.id(rec, schema.ColIDSeries); err != nil {
				return nil, rowError(name, i, schema.ColIDSeries, err)
			}
		}
		if row.Start, err = parseOptionalTimestamp(cols.text(rec, schema.ColTimeStart)); err != nil {
			return nil, rowError(name, i, schema.ColTimeStart, err)
		}
		if row.Stop, err = parseOptionalTimestamp(cols.text(rec, schema.ColTimeStop)); err != nil {
			return nil, rowError(name, i, schema.ColTimeStop, err)
		}
		if row.Series, err = DecodeSeries(cols.text(rec, schema.ColSeries)); err != nil {
			return nil, rowError(name, i, schema.ColSeries, err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// completeSeries turns a table holding exactly the required columns, with or
// without region, into a full one: sequential ids, regions derived from
// var_name and empty optional columns. Any other column set is kept as read.
func (l *Loader) completeSeries(ctx context.Context, table *SeriesTable, header schema.Header, name string) error {
	present := table.Header
	if len(schema.Missing(header.Full, present)) == 0 {
		table.Header = header.Full
		return nil
	}
	if !sameSet(present, header.Required) && !sameSet(present, header.RequiredWithout(schema.ColRegion)) {
		l.logger.DebugContext(ctx, "Optional columns partly present, table not completed",
			slog.String("file", name),
			slog.Any("columns", present))
		return nil
	}

	if !contains(present, schema.ColIDSeries) {
		for i := range table.Rows {
			table.Rows[i].ID = domain.NullID(int64(i))
		}
	}

	if !contains(present, schema.ColRegion) {
		for i := range table.Rows {
			region, err := l.regions.Infer(table.Rows[i].VarName)
			if err != nil {
				return err
			}
			table.Rows[i].Region = region
		}
		l.logger.DebugContext(ctx, "Derived regions from var_name", slog.Int("rows", len(table.Rows)))
	}

	for _, col := range header.Optional {
		if col != schema.ColIDSeries && !contains(present, col) {
			l.notices.info(ctx, "load_timeseries",
				"The data in %s is missing the optional column: %s. "+
					"An empty column named %s is added automatically.", name, col, col)
		}
	}

	table.Header = header.Full
	return nil
}

// columnIndex maps column names of a raw table to their position.
type columnIndex map[string]int

func newColumnIndex(raw *rawTable) columnIndex {
	idx := make(columnIndex, len(raw.header))
	for i, c := range raw.header {
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	return idx
}

func (c columnIndex) has(col string) bool {
	_, ok := c[col]
	return ok
}

func (c columnIndex) text(rec []string, col string) string {
	if i, ok := c[col]; ok {
		return strings.TrimSpace(rec[i])
	}
	return ""
}

// nullText treats an empty cell as missing.
func (c columnIndex) nullText(rec []string, col string) sql.NullString {
	v := c.text(rec, col)
	return sql.NullString{String: v, Valid: v != ""}
}

func (c columnIndex) id(rec []string, col string) (sql.NullInt64, error) {
	id, ok, err := parseCellID(c.text(rec, col))
	if err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: id, Valid: ok}, nil
}

func rowError(name string, row int, col string, err error) error {
	// +2: one for the header line, one for 1-based numbering
	return apperrors.NewParsingError(fmt.Sprintf("%s line %d, column %s", name, row+2, col), err).
		WithContext("column", col).
		WithContext("line", row+2)
}

// parseTimestamp accepts the canonical "2006-01-02 15:04:05" layout and,
// through dateparse, any other common date layout. Timestamps without a
// zone are taken as UTC.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.DateTime, s); err == nil {
		return ts, nil
	}
	ts, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return ts, nil
}

func parseOptionalTimestamp(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return parseTimestamp(s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
