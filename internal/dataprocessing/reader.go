package dataprocessing

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "b3data/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// rawTable is a file's grid before any schema is applied: the first row as
// header, every following row padded or cut to the header's width.
type rawTable struct {
	header []string
	rows   [][]string
}

func (r *rawTable) columnIndex(col string) int {
	for i, c := range r.header {
		if c == col {
			return i
		}
	}
	return -1
}

// readRawTable reads a .csv or .xlsx file. For workbooks, sheet selects the
// sheet; empty means the first one.
func readRawTable(path, sheet string) (*rawTable, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readWorkbook(path, sheet)
	default:
		records, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("%s has no header row", path), nil)
	}

	t := &rawTable{header: trimCells(records[0])}
	width := len(t.header)
	for _, rec := range records[1:] {
		if isBlankRecord(rec) {
			continue
		}
		row := make([]string, width)
		copy(row, rec)
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(path)
		}
		return nil, apperrors.NewStorageError("failed to open file", err).WithContext("path", path)
	}
	defer file.Close()

	reader := csv.NewReader(stripBOM(file))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read CSV %s", path), err)
	}
	return records, nil
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(path)
		}
		return nil, apperrors.NewStorageError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParsingError(fmt.Sprintf("%s has no sheets", path), nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q of %s", sheet, path), err)
	}
	return rows, nil
}

func trimCells(rec []string) []string {
	out := make([]string, len(rec))
	for i, c := range rec {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func isBlankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// baseName is the file name without directory and extension, used in user
// notices.
func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
