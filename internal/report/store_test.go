package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockedDir returns a path below a regular file, which cannot be created.
func blockedDir(t *testing.T, name string) string {
	t.Helper()
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	return filepath.Join(blocker, name)
}

func TestStoreWritePrimary(t *testing.T) {
	t.Run("creates directory", func(t *testing.T) {
		primary := filepath.Join(t.TempDir(), "nested", "reports")
		s := NewStore(primary, t.TempDir())

		path, err := s.WritePrimary("r.html", []byte("doc"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(primary, "r.html"), path)
	})

	t.Run("adds numeric suffix", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "r.html"), []byte("old"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "r_1.html"), []byte("old"), 0o644))
		s := NewStore(dir, "")

		path, err := s.WritePrimary("r.html", []byte("new"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "r_2.html"), path)

		old, err := os.ReadFile(filepath.Join(dir, "r.html"))
		require.NoError(t, err)
		assert.Equal(t, "old", string(old))
	})

	t.Run("unusable directory", func(t *testing.T) {
		s := NewStore(blockedDir(t, "reports"), t.TempDir())
		path, err := s.WritePrimary("r.html", []byte("doc"))
		assert.Error(t, err)
		assert.Empty(t, path)
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := NewStore("", t.TempDir()).WritePrimary("r.html", []byte("doc"))
		assert.ErrorIs(t, err, errNoDirectory)
	})
}

func TestStoreWriteFallback(t *testing.T) {
	fallback := filepath.Join(t.TempDir(), "tmp")
	s := NewStore(blockedDir(t, "reports"), fallback)

	path, err := s.WriteFallback("r.html", []byte("doc"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fallback, "r.html"), path)

	same := t.TempDir()
	_, err = NewStore(same, same).WriteFallback("r.html", []byte("doc"))
	assert.ErrorIs(t, err, errSameDirectory)
}

func TestNewStoreDefaultsFallbackToTemp(t *testing.T) {
	s := NewStore("reports", "")
	assert.Equal(t, "reports", s.PrimaryDir())
	assert.Equal(t, os.TempDir(), s.FallbackDir())
}
