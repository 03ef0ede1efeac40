package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "b3data/internal/errors"
)

// InputExtensions are the file types tables are read from.
var InputExtensions = []string{".csv", ".xlsx", ".xlsm"}

// OutputExtensions are the file types tables are written to.
var OutputExtensions = []string{".csv", ".xlsx"}

// FileValidator checks input and output locations before a command touches
// them, so that problems surface as typed errors instead of half-written files.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateInputFile checks that path is a readable table file with a
// supported extension.
func (v *FileValidator) ValidateInputFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supported(InputExtensions, ext) {
		v.logger.Error("Unsupported input file type",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewAppValidationError(
			fmt.Sprintf("%s is not a table file (extension %q, want one of %s)", path, ext, strings.Join(InputExtensions, ", "))).
			WithContext("path", path)
	}

	// lock files Excel leaves next to open workbooks
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Skipping temporary Excel file", slog.String("file", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a temporary Excel file", path)).
			WithContext("path", path)
	}
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return apperrors.NewNotFoundError(fmt.Sprintf("file %s", path)).WithContext("path", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file", slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path)).
			WithContext("path", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputFile checks the extension of path and that its directory
// can be created and written.
func (v *FileValidator) ValidateOutputFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !supported(OutputExtensions, ext) {
		v.logger.Error("Unsupported output file type",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewAppValidationError(
			fmt.Sprintf("cannot write %s (extension %q, want one of %s)", path, ext, strings.Join(OutputExtensions, ", "))).
			WithContext("path", path)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path)).
			WithContext("path", path)
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}

// ValidateInputDirectory checks that dir exists and is a directory.
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist", slog.String("directory", dir))
		return apperrors.NewNotFoundError(fmt.Sprintf("input directory %s", dir)).
			WithContext("path", dir)
	}
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to access directory %s", dir), err)
	}
	if !info.IsDir() {
		v.logger.Error("Path is not a directory", slog.String("path", dir))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is not a directory", dir)).
			WithContext("path", dir)
	}
	return nil
}

// ValidateOutputDirectory ensures dir exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	// Verify it is writable by creating a temporary file
	tmp, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	tmp.Close()
	os.Remove(tmp.Name())

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

func supported(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}
