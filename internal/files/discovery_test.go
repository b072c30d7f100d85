package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	return p
}

func TestIsTabular(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.csv", true},
		{"A.CSV", true},
		{"b.tsv", true},
		{"c.xlsx", true},
		{"d.txt", true},
		{"e.pdf", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTabular(tt.name))
		})
	}
}

func TestFindTabularFilesSortedByName(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.csv")
	touch(t, dir, "a.xlsx")
	touch(t, dir, "notes.pdf")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	files, err := NewDiscovery("").FindTabularFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.xlsx", files[0].Name)
	assert.Equal(t, "b.csv", files[1].Name)
}

func TestExpandPreservesOrderAndReportsProblems(t *testing.T) {
	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	emptyDir := filepath.Join(base, "empty")
	require.NoError(t, os.Mkdir(dataDir, 0o755))
	require.NoError(t, os.Mkdir(emptyDir, 0o755))
	touch(t, dataDir, "2.csv")
	touch(t, dataDir, "1.csv")
	single := touch(t, base, "single.csv")

	got := NewDiscovery(base).Expand([]string{single, "data", "missing.csv", "empty"})
	require.Len(t, got, 5)

	assert.Equal(t, single, got[0].Path)
	assert.NoError(t, got[0].Err)
	assert.Equal(t, filepath.Join(dataDir, "1.csv"), got[1].Path)
	assert.Equal(t, filepath.Join(dataDir, "2.csv"), got[2].Path)
	assert.Error(t, got[3].Err)
	assert.Equal(t, emptyDir, got[4].Path)
	assert.Error(t, got[4].Err)
}
