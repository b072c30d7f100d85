package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxNameAttempts bounds the numeric suffixes tried for one file name.
const maxNameAttempts = 1000

var (
	errNoDirectory   = errors.New("no directory configured")
	errSameDirectory = errors.New("fallback directory is the primary directory")
)

// Store writes report files into a primary directory or, when that cannot
// be used, a fallback directory.
type Store struct {
	primary  string
	fallback string
}

// NewStore creates a Store. An empty fallback defaults to the system temp
// directory.
func NewStore(primary, fallback string) *Store {
	if fallback == "" {
		fallback = os.TempDir()
	}
	return &Store{primary: primary, fallback: fallback}
}

// PrimaryDir returns the preferred output directory.
func (s *Store) PrimaryDir() string { return s.primary }

// FallbackDir returns the directory used when the primary one fails.
func (s *Store) FallbackDir() string { return s.fallback }

// WritePrimary writes data under name in the primary directory and returns
// the path written. An existing file is never overwritten; a numeric suffix
// is added to the name instead.
func (s *Store) WritePrimary(name string, data []byte) (string, error) {
	return writeExclusive(s.primary, name, data)
}

// WriteFallback writes data under name in the fallback directory.
func (s *Store) WriteFallback(name string, data []byte) (string, error) {
	if s.fallback == s.primary {
		return "", errSameDirectory
	}
	return writeExclusive(s.fallback, name, data)
}

func writeExclusive(dir, name string, data []byte) (string, error) {
	if dir == "" {
		return "", errNoDirectory
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i < maxNameAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}

		_, werr := f.Write(data)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(path)
			return "", errors.Join(werr, cerr)
		}
		return path, nil
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, dir)
}
