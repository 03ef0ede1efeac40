package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"b3data/internal/config"
	"b3data/internal/dataprocessing"
	apperrors "b3data/internal/errors"
	"b3data/internal/infrastructure"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriterOptions configures a TableWriter.
type WriterOptions struct {
	// Paths places bare output file names in the output directory. When nil
	// paths are used as given.
	Paths *config.Paths
	// BOMPrefix writes a UTF-8 BOM so that Excel detects the encoding.
	BOMPrefix bool
	// TimestampLayout formats time index values; empty means config.TimestampLayout.
	TimestampLayout string
	// Sheet names the worksheet of .xlsx output; empty means "data".
	Sheet string
	// Metrics counts written rows and notices. May be nil.
	Metrics *infrastructure.DataMetrics
}

// WriterOptionsFromConfig builds WriterOptions from the processing section.
func WriterOptionsFromConfig(cfg config.ProcessingConfig, paths *config.Paths, metrics *infrastructure.DataMetrics) WriterOptions {
	return WriterOptions{
		Paths:           paths,
		BOMPrefix:       cfg.BOMPrefix,
		TimestampLayout: cfg.TimestampLayout,
		Sheet:           cfg.Sheet,
		Metrics:         metrics,
	}
}

// TableWriter persists scalar, stacked and wide tables as CSV or XLSX.
type TableWriter struct {
	logger *slog.Logger
	opts   WriterOptions
}

// NewTableWriter creates a TableWriter. A nil logger uses slog.Default().
func NewTableWriter(logger *slog.Logger, opts WriterOptions) *TableWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TimestampLayout == "" {
		opts.TimestampLayout = config.TimestampLayout
	}
	if opts.Sheet == "" {
		opts.Sheet = "data"
	}
	return &TableWriter{
		logger: infrastructure.WithComponent(logger, "exporter"),
		opts:   opts,
	}
}

// SaveScalars writes a scalar table as CSV and returns the path written.
func (w *TableWriter) SaveScalars(ctx context.Context, path string, t *dataprocessing.ScalarTable) (string, error) {
	return w.Save(ctx, path, ScalarGrid(t))
}

// SaveSeries writes a stacked time series table as CSV and returns the path
// written.
func (w *TableWriter) SaveSeries(ctx context.Context, path string, t *dataprocessing.SeriesTable) (string, error) {
	return w.Save(ctx, path, SeriesGrid(t, w.opts.TimestampLayout))
}

// SaveWide writes a wide time series as CSV, index first, and returns the
// path written.
func (w *TableWriter) SaveWide(ctx context.Context, path string, t *dataprocessing.WideTable) (string, error) {
	return w.Save(ctx, path, WideGrid(t, w.opts.TimestampLayout))
}

// SaveTable writes any table the dataprocessing package produces.
func (w *TableWriter) SaveTable(ctx context.Context, path string, t any) (string, error) {
	g, err := GridOf(t, w.opts.TimestampLayout)
	if err != nil {
		return "", err
	}
	return w.Save(ctx, path, g)
}

// Export writes any table the dataprocessing package produces, as a
// workbook when path ends in .xlsx and as CSV otherwise.
func (w *TableWriter) Export(ctx context.Context, path string, t any) (string, error) {
	g, err := GridOf(t, w.opts.TimestampLayout)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return w.SaveXLSX(ctx, path, g)
	}
	return w.Save(ctx, path, g)
}

// Save writes g as CSV: the header row, then every record, no index column.
// The parent directory is created when missing.
func (w *TableWriter) Save(ctx context.Context, path string, g Grid) (full string, err error) {
	ctx, span := infrastructure.StartSpan(ctx, "exporter.save_csv")
	start := time.Now()
	defer func() {
		infrastructure.RecordError(ctx, err)
		w.opts.Metrics.RecordOperation(ctx, "save_csv", time.Since(start), err)
		span.End()
	}()

	stream, err := w.CreateStreamWriter(ctx, path, g.Header)
	if err != nil {
		return "", err
	}
	for i, record := range g.Records {
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return "", apperrors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err).
				WithContext("path", stream.Name())
		}
	}
	if err := stream.Close(); err != nil {
		return "", apperrors.NewStorageError("failed to flush CSV", err).WithContext("path", stream.Name())
	}

	full = stream.Name()
	w.opts.Metrics.RecordRowsWritten(ctx, "csv", stream.Rows())
	w.logger.DebugContext(ctx, "Wrote CSV file",
		slog.String("path", full),
		slog.Int("rows", stream.Rows()))
	w.saved(ctx, full)
	return full, nil
}

// StreamWriter writes a CSV file record by record.
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
	rows   int
}

// CreateStreamWriter creates filePath, writes the optional BOM and the
// headers, and returns a writer for the records.
func (w *TableWriter) CreateStreamWriter(ctx context.Context, filePath string, headers []string) (*StreamWriter, error) {
	full := w.resolvePath(filePath)
	w.logger.DebugContext(ctx, "Creating CSV stream writer",
		slog.String("file_path", full),
		slog.Int("header_count", len(headers)))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, apperrors.NewStorageError("failed to create directory", err).WithContext("path", full)
	}
	file, err := os.Create(full)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create file", err).WithContext("path", full)
	}

	if w.opts.BOMPrefix {
		if _, err := file.Write(utf8BOM); err != nil {
			file.Close()
			return nil, apperrors.NewStorageError("failed to write BOM", err).WithContext("path", full)
		}
	}

	writer := csv.NewWriter(file)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, apperrors.NewStorageError("failed to write headers", err).WithContext("path", full)
		}
	}
	return &StreamWriter{file: file, writer: writer}, nil
}

// WriteRecord writes a single record to the stream.
func (s *StreamWriter) WriteRecord(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Rows returns the number of records written so far.
func (s *StreamWriter) Rows() int { return s.rows }

// Name returns the path of the underlying file.
func (s *StreamWriter) Name() string { return s.file.Name() }

// Close flushes and closes the stream writer.
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// resolvePath places bare file names in the output directory.
func (w *TableWriter) resolvePath(filePath string) string {
	if w.opts.Paths == nil {
		return filePath
	}
	return w.opts.Paths.OutputPath(filePath)
}

func (w *TableWriter) saved(ctx context.Context, path string) {
	infrastructure.EmitNotice(ctx, w.logger, w.opts.Metrics, slog.LevelInfo, "save",
		fmt.Sprintf("The data has been saved to: %s.", path))
}
