package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// Every path is derived from the executable location, never the working directory,
// so a packaged binary and a development build behave the same.
type Paths struct {
	ExecutableDir string
	LogsDir       string
	LicenseFile   string
	ConfigFile    string
}

// executablePath is swapped in tests
var executablePath = os.Executable

// GetPaths returns the application paths relative to the executable location
func GetPaths() (*Paths, error) {
	exe, err := executablePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return NewPaths(filepath.Dir(exe)), nil
}

// NewPaths builds the path set for a given base directory
func NewPaths(exeDir string) *Paths {
	return &Paths{
		ExecutableDir: exeDir,
		LogsDir:       filepath.Join(exeDir, "logs"),
		LicenseFile:   filepath.Join(exeDir, LicenseFileName),
		ConfigFile:    filepath.Join(exeDir, ConfigFileName),
	}
}

// GetRelativePath returns a path relative to the executable directory
func (p *Paths) GetRelativePath(subpath string) string {
	if filepath.IsAbs(subpath) {
		return subpath
	}
	return filepath.Join(p.ExecutableDir, subpath)
}

// LogPathResolution logs path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		return
	}

	wd, _ := os.Getwd()
	logger.Debug("Path resolution summary",
		slog.Group("paths",
			slog.String("executable_dir", p.ExecutableDir),
			slog.String("logs", p.LogsDir),
			slog.String("license", p.LicenseFile),
			slog.String("config", p.ConfigFile),
		),
		slog.Group("environment",
			slog.String("working_dir", wd),
			slog.String("method", "executable-relative"),
		),
		slog.Bool("license_exists", FileExists(p.LicenseFile)),
	)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
