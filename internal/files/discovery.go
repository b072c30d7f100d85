package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TabularExtensions lists the extensions picked up when a directory is
// expanded.
var TabularExtensions = []string{".csv", ".tsv", ".txt", ".xlsx"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Candidate is one file to load, or the reason a given path produced none.
type Candidate struct {
	Path string
	Err  error
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance. Relative paths are
// resolved against basePath; an empty basePath keeps them relative to the
// working directory.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// IsTabular reports whether name has one of the TabularExtensions.
func IsTabular(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range TabularExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (d *Discovery) resolve(path string) string {
	if filepath.IsAbs(path) || d.basePath == "" {
		return path
	}
	return filepath.Join(d.basePath, path)
}

// FindTabularFiles lists the tabular files directly inside dir, sorted by
// name.
func (d *Discovery) FindTabularFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsTabular(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// Expand turns user supplied paths into load candidates, preserving the
// given order. Paths that cannot be used become candidates carrying an error
// so the caller can report them without aborting.
func (d *Discovery) Expand(paths []string) []Candidate {
	var out []Candidate
	for _, p := range paths {
		full := d.resolve(p)
		info, err := os.Stat(full)
		if err != nil {
			out = append(out, Candidate{Path: full, Err: err})
			continue
		}
		if !info.IsDir() {
			out = append(out, Candidate{Path: full})
			continue
		}

		found, err := d.FindTabularFiles(full)
		if err != nil {
			out = append(out, Candidate{Path: full, Err: err})
			continue
		}
		if len(found) == 0 {
			out = append(out, Candidate{Path: full, Err: fmt.Errorf("no tabular files in directory %s", full)})
			continue
		}
		for _, f := range found {
			out = append(out, Candidate{Path: f.Path})
		}
	}
	return out
}
