package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

// SessionHeader is the header row of the original simulator export.
var SessionHeader = []string{"Fecha", "Hora", "Hidratos (g)", "Caminata (min)", "Sueño (h)", "Glucosa (mg/dL)"}

// MorningSession and AfternoonSession are the two example sessions shipped
// with the application.
var (
	MorningSession   = []string{"23/11/2025", "08:30", "50", "20", "7", "95"}
	AfternoonSession = []string{"23/11/2025", "13:45", "80", "10", "5", "165"}
)

// WriteCSV writes header and rows to dir/name and returns the path.
func WriteCSV(t *testing.T, dir, name string, header []string, rows ...[]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if header != nil {
		if err := w.Write(header); err != nil {
			t.Fatalf("write header: %v", err)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	return path
}

// WriteSessionCSV writes rows under the standard session header.
func WriteSessionCSV(t *testing.T, dir, name string, rows ...[]string) string {
	t.Helper()
	return WriteCSV(t, dir, name, SessionHeader, rows...)
}

// WriteRaw writes content verbatim, for malformed fixtures.
func WriteRaw(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
