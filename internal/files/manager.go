package files

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// Manager stages uploaded input files under a root directory, one
// subdirectory per run.
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(root string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{root: root, logger: logger.With(slog.String("component", "files.manager"))}
}

// RunDir returns the staging directory of a run.
func (m *Manager) RunDir(runID string) string {
	return filepath.Join(m.root, runID)
}

// StageUploads copies the uploaded parts into the run directory and returns
// their paths in upload order. Only the base name of each client supplied
// filename is used.
func (m *Manager) StageUploads(runID string, uploads []*multipart.FileHeader) ([]string, error) {
	dir := m.RunDir(runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	paths := make([]string, 0, len(uploads))
	for i, fh := range uploads {
		name := sanitizeName(fh.Filename)
		if name == "" {
			name = fmt.Sprintf("upload_%d.csv", i+1)
		}
		// Prefix keeps upload order under name-sorted expansion and avoids
		// collisions between equally named parts.
		dst := filepath.Join(dir, fmt.Sprintf("%03d_%s", i+1, name))
		if err := copyPart(fh, dst); err != nil {
			return nil, fmt.Errorf("failed to stage %s: %w", fh.Filename, err)
		}
		paths = append(paths, dst)
	}

	m.logger.Debug("uploads staged",
		slog.String("run_id", runID),
		slog.Int("file_count", len(paths)))
	return paths, nil
}

// Cleanup removes the run's staging directory.
func (m *Manager) Cleanup(runID string) error {
	if runID == "" {
		return nil
	}
	return os.RemoveAll(m.RunDir(runID))
}

func copyPart(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}
