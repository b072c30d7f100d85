package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glucoreport/internal/shared/testutil"
)

// isolate points every configurable directory into a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("GLUCO_CONFIG", "")
	t.Setenv("GLUCO_LOGGING_LEVEL", "error")
	t.Setenv("GLUCO_REPORT_OUTPUT_DIR", filepath.Join(root, "reports"))
	t.Setenv("GLUCO_REPORT_FALLBACK_DIR", filepath.Join(root, "fallback"))
	t.Setenv("GLUCO_EXAMPLES_DIR", filepath.Join(root, "examples"))
	t.Setenv("GLUCO_TELEMETRY_ENABLED", "false")
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSimulateCommand(t *testing.T) {
	root := isolate(t)
	csvPath := filepath.Join(root, "session.csv")

	out, err := execute(t, "simulate", "--carbs", "80", "--walk", "10", "--sleep", "5", "--csv", csvPath)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Estimated glucose: 183 mg/dL (High)")
	assert.Contains(t, out, "carbs: +96  walk: -8  sleep: +5.0 for <7h sleep")
	assert.Contains(t, out, "educational purposes only")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Glucosa (mg/dL)")
	assert.Contains(t, string(data), "+5.0 for <7h sleep")
}

func TestSimulateAppendFeedsAnalyze(t *testing.T) {
	root := isolate(t)
	log := filepath.Join(root, "sessions.csv")

	for _, args := range [][]string{
		{"simulate", "--carbs", "50", "--walk", "20", "--csv", log, "--append"},
		{"simulate", "--carbs", "80", "--walk", "10", "--sleep", "5", "--csv", log, "--append"},
	} {
		out, err := execute(t, args...)
		require.NoError(t, err, out)
	}

	data, err := os.ReadFile(log)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "Glucosa (mg/dL)"))

	out, err := execute(t, "analyze", log, "--out", filepath.Join(root, "out"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "Sessions:     2 from 1 file(s)")
}

func TestSimulateCommandRejectsBadInput(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "carbs out of range", args: []string{"simulate", "--carbs", "500", "--walk", "10"}},
		{name: "sleep out of range", args: []string{"simulate", "--carbs", "50", "--walk", "10", "--sleep", "1"}},
		{name: "missing walk", args: []string{"simulate", "--carbs", "50"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestExamplesCommand(t *testing.T) {
	root := isolate(t)
	dir := filepath.Join(root, "my-examples")

	out, err := execute(t, "examples", "--dir", dir)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Example data in "+dir)
	assert.Contains(t, out, "simulation_example_1.csv")
	assert.Contains(t, out, "simulation_example_2.csv")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestAnalyzeCommand(t *testing.T) {
	root := isolate(t)
	in := testutil.WriteSessionCSV(t, t.TempDir(), "week.csv", testutil.MorningSession, testutil.AfternoonSession)
	outDir := filepath.Join(root, "out")

	t.Run("quiet prints only the path", func(t *testing.T) {
		out, err := execute(t, "analyze", in, "--out", outDir, "--quiet")
		require.NoError(t, err, out)

		path := strings.TrimSpace(out)
		assert.Equal(t, outDir, filepath.Dir(path))
		assert.Equal(t, ".html", filepath.Ext(path))
		assert.FileExists(t, path)
	})

	t.Run("progress and summary", func(t *testing.T) {
		out, err := execute(t, "analyze", in, "--out", t.TempDir())
		require.NoError(t, err, out)

		assert.Contains(t, out, "LOADING")
		assert.Contains(t, out, "[100%] DONE")
		assert.Contains(t, out, "Sessions:     2 from 1 file(s)")
		assert.Contains(t, out, "Report:")
	})
}

func TestAnalyzeCommandUsesExamples(t *testing.T) {
	isolate(t)

	out, err := execute(t, "analyze", "--out", t.TempDir())
	require.NoError(t, err, out)
	assert.Contains(t, out, "Input:        example data")
	assert.Contains(t, out, "Sessions:     2 from 2 file(s)")
}

func TestAnalyzeCommandFailsWithoutData(t *testing.T) {
	isolate(t)
	broken := testutil.WriteRaw(t, t.TempDir(), "broken.csv", []byte{0xff, 0xfe, 0x00})

	out, err := execute(t, "analyze", broken, "--out", t.TempDir())
	require.Error(t, err)
	assert.NotContains(t, out, "Report:")
}
