// Package exporter persists the tables of the dataprocessing package and
// previews them on a terminal.
//
// Tables are first rendered to a Grid of text cells: missing values become
// empty cells, floats use their shortest round-trip form, timestamps use the
// configured layout and series are written as "[v1, v2, ...]". A Grid is
// then written by TableWriter as CSV (optionally with a UTF-8 BOM) or as an
// .xlsx workbook, or printed by Preview.
//
// Example usage:
//
//	w := exporter.NewTableWriter(logger, exporter.WriterOptions{Paths: paths})
//	path, err := w.SaveSeries(ctx, "profiles_stacked.csv", stacked)
//
// Every save emits the user notice "The data has been saved to: PATH.".
package exporter
