package exporter

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "b3data/internal/errors"
	"b3data/internal/infrastructure"
)

// SaveXLSX writes g to a single-sheet workbook. Cells that hold a number are
// stored as numbers so spreadsheet formulas work on them; everything else is
// text.
func (w *TableWriter) SaveXLSX(ctx context.Context, path string, g Grid) (full string, err error) {
	ctx, span := infrastructure.StartSpan(ctx, "exporter.save_xlsx")
	start := time.Now()
	defer func() {
		infrastructure.RecordError(ctx, err)
		w.opts.Metrics.RecordOperation(ctx, "save_xlsx", time.Since(start), err)
		span.End()
	}()

	full = w.resolvePath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", apperrors.NewStorageError("failed to create directory", err).WithContext("path", full)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := w.opts.Sheet
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return "", apperrors.NewStorageError("failed to name sheet", err).WithContext("sheet", sheet)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return "", apperrors.NewStorageError("failed to open sheet writer", err).WithContext("sheet", sheet)
	}
	if err := sw.SetRow("A1", textRow(g.Header)); err != nil {
		return "", apperrors.NewStorageError("failed to write headers", err).WithContext("path", full)
	}
	for i, record := range g.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", apperrors.NewStorageError("invalid cell", err).WithContext("row", i+2)
		}
		if err := sw.SetRow(cell, valueRow(record)); err != nil {
			return "", apperrors.NewStorageError("failed to write row", err).WithContext("row", i+2)
		}
	}
	if err := sw.Flush(); err != nil {
		return "", apperrors.NewStorageError("failed to flush sheet", err).WithContext("path", full)
	}
	if err := f.SaveAs(full); err != nil {
		return "", apperrors.NewStorageError("failed to save workbook", err).WithContext("path", full)
	}

	w.opts.Metrics.RecordRowsWritten(ctx, "xlsx", len(g.Records))
	w.saved(ctx, full)
	return full, nil
}

func textRow(cells []string) []interface{} {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

func valueRow(cells []string) []interface{} {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		if v, err := strconv.ParseFloat(c, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			row[i] = v
			continue
		}
		row[i] = c
	}
	return row
}
