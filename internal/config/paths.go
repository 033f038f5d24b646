package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains the locations relative paths are resolved against.
// Scheduled runs start from an arbitrary working directory, so the
// executable directory is the anchor, never the working directory.
type Paths struct {
	ExecutableDir string
}

// GetPaths returns the application paths relative to the executable location
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return &Paths{ExecutableDir: filepath.Dir(exe)}, nil
}

// Resolve returns p unchanged when absolute or empty, otherwise joined
// to the executable directory
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.ExecutableDir, path)
}

// EnsureDir creates dir with parents if it does not exist
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
