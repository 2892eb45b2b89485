package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the on-disk locations the application writes to.
// All paths are relative to the executable directory, never the working directory.
type Paths struct {
	ExecutableDir string
	LogsDir       string
	ExportsDir    string
}

// GetPaths returns the application paths relative to the executable location
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return PathsFor(filepath.Dir(exe)), nil
}

// PathsFor lays out the application directories under root
func PathsFor(root string) *Paths {
	return &Paths{
		ExecutableDir: root,
		LogsDir:       filepath.Join(root, "logs"),
		ExportsDir:    filepath.Join(root, "exports"),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.LogsDir, p.ExportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// ExportPath returns the default location for an exported file
func (p *Paths) ExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filepath.Base(filename))
}
