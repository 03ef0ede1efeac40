package dataprocessing

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "b3data/internal/errors"
	"b3data/internal/shared/testutil"
)

func TestReadRawTable_CSV(t *testing.T) {
	path := testutil.WriteFile(t, "raw.csv", "\ufeffa, b ,c\n1,2,3\n,,\n4,5\n")

	raw, err := readRawTable(path, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, raw.header)
	require.Len(t, raw.rows, 2, "blank rows are skipped")
	assert.Equal(t, []string{"1", "2", "3"}, raw.rows[0])
	assert.Equal(t, []string{"4", "5", ""}, raw.rows[1], "short rows are padded")
	assert.Equal(t, 1, raw.columnIndex("b"))
	assert.Equal(t, -1, raw.columnIndex("d"))
}

func TestReadRawTable_Workbook(t *testing.T) {
	f := excelize.NewFile()
	sheet := "scalars"
	f.SetSheetName(f.GetSheetName(0), sheet)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"scenario", "var_value"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"base", 12.5}))

	path := filepath.Join(t.TempDir(), "scalars.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	raw, err := readRawTable(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"scenario", "var_value"}, raw.header)
	require.Len(t, raw.rows, 1)
	assert.Equal(t, []string{"base", "12.5"}, raw.rows[0])

	_, err = readRawTable(path, "missing")
	assert.True(t, errors.Is(err, apperrors.ErrParsing))
}

func TestReadRawTable_Errors(t *testing.T) {
	_, err := readRawTable(filepath.Join(t.TempDir(), "absent.csv"), "")
	assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(err))

	empty := testutil.WriteFile(t, "empty.csv", "")
	_, err = readRawTable(empty, "")
	assert.True(t, errors.Is(err, apperrors.ErrParsing))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "profiles", baseName("/data/in/profiles.csv"))
	assert.Equal(t, "scalars", baseName("scalars.xlsx"))
}
