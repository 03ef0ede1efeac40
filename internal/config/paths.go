package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved directories the CLI reads from and writes to.
type Paths struct {
	BaseDir   string
	DataDir   string
	OutputDir string
	LogsDir   string
}

// GetPaths resolves cfg against its base directory. Without a configured
// base, paths are relative to the executable, never the working directory.
func GetPaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		exe, err = filepath.EvalSymlinks(exe)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
		}
		base = filepath.Dir(exe)
	}

	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	return &Paths{
		BaseDir:   base,
		DataDir:   resolve(base, cfg.DataDir),
		OutputDir: resolve(base, cfg.OutputDir),
		LogsDir:   resolve(base, cfg.LogsDir),
	}, nil
}

func resolve(base, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

// EnsureDirectories creates the output and logs directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// InputPath resolves an input file name. Paths that exist as given, absolute
// paths and paths with a directory part are returned unchanged; a bare file
// name is looked up in DataDir.
func (p *Paths) InputPath(name string) string {
	if filepath.IsAbs(name) || filepath.Base(name) != name || FileExists(name) {
		return name
	}
	return filepath.Join(p.DataDir, name)
}

// OutputPath resolves an output file name. A bare file name is placed in
// OutputDir; anything else is returned unchanged.
func (p *Paths) OutputPath(name string) string {
	if filepath.IsAbs(name) || filepath.Base(name) != name {
		return name
	}
	return filepath.Join(p.OutputDir, name)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LogPathResolution logs the resolved directories for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("output", p.OutputDir),
			slog.String("logs", p.LogsDir),
		))
}
