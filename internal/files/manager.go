package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// partialSuffix marks a download Chrome is still writing
const partialSuffix = ".crdownload"

// Manager provides file operations on the download directory
type Manager struct {
	dir    string
	logger *slog.Logger
}

// NewManager creates a new file manager for the download directory
func NewManager(dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		dir:    dir,
		logger: logger.With(slog.String("component", "files")),
	}
}

// Dir returns the managed directory
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the location of name inside the managed directory
func (m *Manager) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.dir, name)
}

// EnsureDirectory creates the download directory if it doesn't exist
func (m *Manager) EnsureDirectory() error {
	m.logger.Debug("Ensuring directory exists", slog.String("dir", m.dir))

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	return nil
}

// FileExists reports whether a complete, non-empty file exists at path
func (m *Manager) FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Size() > 0
}

// DeleteFile removes path and any partial download of it. A missing file is
// not an error.
func (m *Manager) DeleteFile(path string) error {
	var errs []error
	for _, p := range []string{path, path + partialSuffix} {
		err := os.Remove(p)
		switch {
		case err == nil:
			m.logger.Info("Deleted file", slog.String("path", p))
		case errors.Is(err, fs.ErrNotExist):
		default:
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CleanPartialDownloads removes abandoned partial downloads from the directory
func (m *Manager) CleanPartialDownloads() (int, error) {
	matches, err := filepath.Glob(filepath.Join(m.dir, "*"+partialSuffix))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, p := range matches {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		m.logger.Info("Removed partial downloads", slog.Int("count", removed))
	}
	return removed, nil
}

// WaitForFile polls every interval until a complete file exists at path.
// It returns the context error when ctx ends first.
func (m *Manager) WaitForFile(ctx context.Context, path string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		if m.FileExists(path) && !m.FileExists(path+partialSuffix) {
			m.logger.DebugContext(ctx, "Download complete",
				slog.String("path", path),
				slog.Duration("waited", time.Since(start)))
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
