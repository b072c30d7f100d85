package operations

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	chart "github.com/wcharczuk/go-chart/v2"

	"glucoreport/internal/charts"
	apperrors "glucoreport/internal/errors"
	"glucoreport/internal/loader"
	"glucoreport/internal/report"
	"glucoreport/internal/shared/testutil"
	"glucoreport/pkg/contracts/domain"
)

var clock = func() time.Time { return time.Date(2025, 11, 23, 18, 0, 0, 0, time.UTC) }

type fixture struct {
	pipeline  *Pipeline
	status    *StatusBroadcaster
	reports   string
	fallback  string
	collected *collector
}

type collector struct {
	mu      sync.Mutex
	updates []Update
}

func (c *collector) Deliver(u Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
}

func (c *collector) all() []Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Update(nil), c.updates...)
}

type staticExamples struct {
	paths []string
	err   error
}

func (s staticExamples) Provision(context.Context) ([]string, error) { return s.paths, s.err }

func newFixture(t *testing.T, rendererOpts []charts.Option, opts ...PipelineOption) *fixture {
	t.Helper()
	f := &fixture{
		reports:   filepath.Join(t.TempDir(), "reports"),
		fallback:  t.TempDir(),
		collected: &collector{},
	}
	f.status = NewStatusBroadcaster(nil, 256, f.collected)
	t.Cleanup(f.status.Stop)

	composer := report.NewComposer(report.NewStore(f.reports, f.fallback), nil)
	base := []PipelineOption{WithStatus(f.status), WithClock(clock)}
	p, err := NewPipeline(loader.New(nil), charts.NewRenderer(rendererOpts...), composer, append(base, opts...)...)
	require.NoError(t, err)
	f.pipeline = p
	return f
}

func TestPipelineScenarios(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]string
		wantBand domain.StatusBand
		wantRecs []domain.RecommendationKind
	}{
		{
			name:     "optimal session",
			rows:     [][]string{testutil.MorningSession},
			wantBand: domain.BandOptimal,
			wantRecs: []domain.RecommendationKind{domain.RecommendationOptimal, domain.RecommendationActivity, domain.RecommendationNextStep},
		},
		{
			name:     "high session",
			rows:     [][]string{testutil.AfternoonSession},
			wantBand: domain.BandHigh,
			wantRecs: []domain.RecommendationKind{domain.RecommendationHigh, domain.RecommendationSleep, domain.RecommendationActivity, domain.RecommendationNextStep},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			in := testutil.WriteSessionCSV(t, t.TempDir(), "session.csv", tt.rows...)

			res, err := f.pipeline.Run(context.Background(), Request{Paths: []string{in}})
			require.NoError(t, err)

			assert.Equal(t, tt.wantBand, res.Summary.Band)
			var kinds []domain.RecommendationKind
			for _, r := range res.Recommendations {
				kinds = append(kinds, r.Kind)
			}
			assert.Equal(t, tt.wantRecs, kinds)
			assert.Empty(t, res.Warnings)
			assert.False(t, res.Fallback)
			assert.Equal(t, filepath.Join(f.reports, report.FileName(clock())), res.ReportPath)

			doc, err := os.ReadFile(res.ReportPath)
			require.NoError(t, err)
			embedded, err := report.ExtractSummary(doc)
			require.NoError(t, err)
			assert.Equal(t, res.Summary, embedded)
		})
	}
}

func TestPipelineCountsAllParsedRows(t *testing.T) {
	f := newFixture(t, nil)
	dir := t.TempDir()
	a := testutil.WriteSessionCSV(t, dir, "a.csv", testutil.MorningSession, testutil.AfternoonSession)
	b := testutil.WriteSessionCSV(t, dir, "b.csv", testutil.MorningSession)
	empty := testutil.WriteSessionCSV(t, dir, "c.csv")
	broken := testutil.WriteRaw(t, dir, "broken.csv", []byte{0xff, 0xfe, 0x00})

	res, err := f.pipeline.Run(context.Background(), Request{Paths: []string{a, b, empty, broken}})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Summary.RecordCount)
	assert.Equal(t, 3, res.FileCount)
	assert.Equal(t, filepath.Base(dir), res.SourceLabel)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, domain.WarningSourceLoader, res.Warnings[0].Source)
	assert.Equal(t, "broken.csv", res.Warnings[0].File)

	doc, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "broken.csv: file skipped")
}

func TestPipelineNoValidData(t *testing.T) {
	f := newFixture(t, nil)
	dir := t.TempDir()
	broken := testutil.WriteRaw(t, dir, "broken.csv", []byte(""))
	missing := filepath.Join(dir, "missing.csv")

	res, err := f.pipeline.Run(context.Background(), Request{RunID: "run-1", Paths: []string{broken, missing}})
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNoValidData)
	assert.Equal(t, ErrorTypeFatal, GetErrorType(err))

	_, statErr := os.Stat(f.reports)
	assert.True(t, os.IsNotExist(statErr), "no report directory is created")
	entries, _ := os.ReadDir(f.fallback)
	assert.Empty(t, entries)

	snap, ok := f.status.Snapshot("run-1")
	require.True(t, ok)
	assert.Equal(t, PhaseFailed, snap.Phase)
	assert.NotEmpty(t, snap.Error)
	assert.Len(t, snap.Warnings, 2)
}

func TestPipelineHeaderOnlyInputFails(t *testing.T) {
	f := newFixture(t, nil)
	in := testutil.WriteSessionCSV(t, t.TempDir(), "header_only.csv")

	res, err := f.pipeline.Run(context.Background(), Request{RunID: "run-empty", Paths: []string{in}})
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNoValidData)

	_, statErr := os.Stat(f.reports)
	assert.True(t, os.IsNotExist(statErr), "no report is written")

	snap, ok := f.status.Snapshot("run-empty")
	require.True(t, ok)
	assert.Equal(t, PhaseFailed, snap.Phase)
}

func TestPipelineFactorsChartFault(t *testing.T) {
	failing := func(int, int) (chart.Renderer, error) { return nil, errors.New("injected fault") }
	f := newFixture(t, []charts.Option{charts.WithFactorsBackend(failing)})
	in := testutil.WriteSessionCSV(t, t.TempDir(), "session.csv", testutil.MorningSession)

	res, err := f.pipeline.Run(context.Background(), Request{Paths: []string{in}})
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, domain.WarningSourceCharts, res.Warnings[0].Source)
	assert.Contains(t, res.Warnings[0].Message, "injected fault")

	doc, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	html := string(doc)
	assert.Contains(t, html, "Example values are shown")
	assert.Contains(t, html, "injected fault")
	assert.Equal(t, 2, strings.Count(html, "data:image/png;base64,"))
}

func TestPipelineDefaultedColumns(t *testing.T) {
	f := newFixture(t, nil)
	in := testutil.WriteCSV(t, t.TempDir(), "glucose_only.csv", []string{"Glucose (mg/dL)"}, []string{"150"}, []string{"130"})

	res, err := f.pipeline.Run(context.Background(), Request{Paths: []string{in}})
	require.NoError(t, err)

	assert.Equal(t, 140.0, res.Summary.MeanGlucose)
	assert.Equal(t, domain.BandOptimal, res.Summary.Band)
	assert.Len(t, res.Summary.Defaulted, 3)
	assert.Len(t, res.Warnings, 3)
	for _, w := range res.Warnings {
		assert.Equal(t, domain.WarningSourceSummary, w.Source)
	}
}

func TestPipelineUsesExamplesWithoutInput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "example_data")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	paths := []string{
		testutil.WriteSessionCSV(t, dir, "simulation_1.csv", testutil.MorningSession),
		testutil.WriteSessionCSV(t, dir, "simulation_2.csv", testutil.AfternoonSession),
	}
	f := newFixture(t, nil, WithExamples(staticExamples{paths: paths}))

	res, err := f.pipeline.Run(context.Background(), Request{})
	require.NoError(t, err)
	assert.True(t, res.UsedExamples)
	assert.Equal(t, "example_data", res.SourceLabel)
	assert.Equal(t, 2, res.Summary.RecordCount)
	assert.Equal(t, 130.0, res.Summary.MeanGlucose)
}

func TestPipelineExampleProviderFailure(t *testing.T) {
	f := newFixture(t, nil, WithExamples(staticExamples{err: errors.New("read-only disk")}))

	_, err := f.pipeline.Run(context.Background(), Request{})
	assert.ErrorIs(t, err, apperrors.ErrNoValidData)
}

func TestPipelineFallbackLocation(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	fallback := t.TempDir()

	composer := report.NewComposer(report.NewStore(filepath.Join(blocker, "reports"), fallback), nil)
	p, err := NewPipeline(loader.New(nil), charts.NewRenderer(), composer, WithClock(clock))
	require.NoError(t, err)
	in := testutil.WriteSessionCSV(t, t.TempDir(), "session.csv", testutil.MorningSession)

	res, err := p.Run(context.Background(), Request{Paths: []string{in}})
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, fallback, filepath.Dir(res.ReportPath))
	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, domain.WarningSourceReport, res.Warnings[len(res.Warnings)-1].Source)
}

func TestPipelineDoubleWriteFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	status := NewStatusBroadcaster(nil, 0)
	defer status.Stop()

	composer := report.NewComposer(report.NewStore(filepath.Join(blocker, "a"), filepath.Join(blocker, "b")), nil)
	p, err := NewPipeline(loader.New(nil), charts.NewRenderer(), composer, WithStatus(status))
	require.NoError(t, err)
	in := testutil.WriteSessionCSV(t, t.TempDir(), "session.csv", testutil.MorningSession)

	res, err := p.Run(context.Background(), Request{RunID: "double", Paths: []string{in}})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)

	snap, ok := status.Snapshot("double")
	require.True(t, ok)
	assert.Equal(t, PhaseFailed, snap.Phase)
}

func TestPipelinePDFWithoutPrinter(t *testing.T) {
	f := newFixture(t, nil)
	in := testutil.WriteSessionCSV(t, t.TempDir(), "session.csv", testutil.MorningSession)

	res, err := f.pipeline.Run(context.Background(), Request{Paths: []string{in}, PDF: true})
	require.NoError(t, err)
	assert.Empty(t, res.PDFPath)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, "PDF")
}

func TestPipelinePublishesPhases(t *testing.T) {
	f := newFixture(t, nil)
	in := testutil.WriteSessionCSV(t, t.TempDir(), "session.csv", testutil.MorningSession)

	res, err := f.pipeline.Run(context.Background(), Request{RunID: "phases", Paths: []string{in}})
	require.NoError(t, err)
	f.status.Stop()

	var phases []Phase
	for _, u := range f.collected.all() {
		assert.Equal(t, "phases", u.RunID)
		if len(phases) == 0 || phases[len(phases)-1] != u.Phase {
			phases = append(phases, u.Phase)
		}
	}
	assert.Equal(t, []Phase{PhaseLoading, PhaseAggregating, PhaseRenderingCharts, PhaseComposing, PhaseDone}, phases)

	snap, ok := f.status.Snapshot("phases")
	require.True(t, ok)
	assert.Equal(t, PhaseDone, snap.Phase)
	assert.Equal(t, 100, snap.Progress)
	assert.Equal(t, res.ReportPath, snap.ReportPath)
	require.NotNil(t, snap.Summary)
	assert.Equal(t, res.Summary, *snap.Summary)
	assert.NotNil(t, snap.CompletedAt)
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "example", SourceLabel(nil))
	assert.Equal(t, "exports", SourceLabel([]string{filepath.Join("data", "exports", "a.csv")}))
	assert.Equal(t, "example", SourceLabel([]string{"a.csv"}))
}
