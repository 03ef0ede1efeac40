package exporter

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"b3data/internal/config"
	"b3data/internal/shared/testutil"
)

func TestSaveXLSX(t *testing.T) {
	w, handler := newTestWriter(t, WriterOptions{Sheet: "profiles"})
	path := filepath.Join(t.TempDir(), "wide.xlsx")

	full, err := w.SaveXLSX(context.Background(), path, WideGrid(sampleWide(), config.TimestampLayout))
	require.NoError(t, err)
	assert.Equal(t, path, full)
	testutil.AssertNotice(t, handler, slog.LevelInfo, "The data has been saved to: "+path+".")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"profiles"}, f.GetSheetList())
	rows, err := f.GetRows("profiles")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"datetime", "BB-demand", "BE-demand"}, rows[0])
	assert.Equal(t, "2019-01-01 00:00:00", rows[1][0])

	cellType, err := f.GetCellType("profiles", "C2")
	require.NoError(t, err)
	assert.Contains(t, []excelize.CellType{excelize.CellTypeUnset, excelize.CellTypeNumber}, cellType,
		"numbers are stored as numbers")

	value, err := f.GetCellValue("profiles", "C2")
	require.NoError(t, err)
	assert.Equal(t, "0.25", value)
}

func TestValueRow(t *testing.T) {
	row := valueRow([]string{"1.5", "", "BB", "nan", "[1, 2]"})
	assert.Equal(t, []interface{}{1.5, "", "BB", "nan", "[1, 2]"}, row)
}
