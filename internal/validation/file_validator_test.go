package validation

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "b3data/internal/errors"
)

func newTestValidator() *FileValidator {
	return NewFileValidator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("scenario,var_value\n"), 0o644))
	return path
}

func TestFileValidator_ValidateInputFile(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T) string
		wantType apperrors.ErrorType
	}{
		{
			name:  "csv file",
			setup: func(t *testing.T) string { return writeFile(t, t.TempDir(), "scalars.csv") },
		},
		{
			name:  "upper case workbook extension",
			setup: func(t *testing.T) string { return writeFile(t, t.TempDir(), "profiles.XLSX") },
		},
		{
			name:  "macro workbook",
			setup: func(t *testing.T) string { return writeFile(t, t.TempDir(), "profiles.xlsm") },
		},
		{
			name:     "missing file",
			setup:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.csv") },
			wantType: apperrors.ErrTypeNotFound,
		},
		{
			name:     "directory",
			setup:    func(t *testing.T) string { return t.TempDir() },
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name:     "unsupported extension",
			setup:    func(t *testing.T) string { return writeFile(t, t.TempDir(), "notes.txt") },
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name:     "excel lock file",
			setup:    func(t *testing.T) string { return writeFile(t, t.TempDir(), "~$profiles.xlsx") },
			wantType: apperrors.ErrTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTestValidator().ValidateInputFile(tt.setup(t))
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
		})
	}
}

func TestFileValidator_ValidateOutputFile(t *testing.T) {
	tests := []struct {
		name     string
		path     func(dir string) string
		wantType apperrors.ErrorType
	}{
		{name: "csv in existing dir", path: func(dir string) string { return filepath.Join(dir, "out.csv") }},
		{name: "xlsx in new dir", path: func(dir string) string { return filepath.Join(dir, "results", "out.xlsx") }},
		{
			name:     "xlsm is read only",
			path:     func(dir string) string { return filepath.Join(dir, "out.xlsm") },
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name:     "no extension",
			path:     func(dir string) string { return filepath.Join(dir, "out") },
			wantType: apperrors.ErrTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path(t.TempDir())
			err := newTestValidator().ValidateOutputFile(path)
			if tt.wantType == "" {
				require.NoError(t, err)
				assert.DirExists(t, filepath.Dir(path))
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
		})
	}
}

func TestFileValidator_ValidateOutputFile_DirectoryTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")
	require.NoError(t, os.Mkdir(target, 0o755))

	err := newTestValidator().ValidateOutputFile(target)
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))
}

func TestFileValidator_ValidateInputDirectory(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "scalars.csv")
	v := newTestValidator()

	assert.NoError(t, v.ValidateInputDirectory(dir))
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(v.ValidateInputDirectory(file)))
	assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(v.ValidateInputDirectory(filepath.Join(dir, "nope"))))
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	v := newTestValidator()

	require.NoError(t, v.ValidateOutputDirectory(dir))
	assert.DirExists(t, dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "the write test file is removed")

	blocker := writeFile(t, t.TempDir(), "file.csv")
	err = v.ValidateOutputDirectory(filepath.Join(blocker, "sub"))
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))
}

func TestNewFileValidator_NilLogger(t *testing.T) {
	assert.NotNil(t, NewFileValidator(nil).logger)
}
