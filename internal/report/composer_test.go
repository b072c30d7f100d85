package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "glucoreport/internal/errors"
	"glucoreport/internal/shared/testutil"
	"glucoreport/pkg/contracts/domain"
)

var fixedTime = time.Date(2025, 11, 23, 14, 5, 9, 0, time.UTC)

func sampleInput() Input {
	return Input{
		Summary: domain.Summary{
			MeanGlucose: 130,
			MeanCarbs:   65,
			MeanWalk:    15,
			MeanSleep:   6,
			RecordCount: 2,
			Band:        domain.BandOptimal,
		},
		Trend:   domain.ImagePayload{MIMEType: domain.MIMETypePNG, Data: []byte("trend-bytes")},
		Factors: domain.ImagePayload{MIMEType: domain.MIMETypePNG, Data: []byte("factor-bytes")},
		Recommendations: []domain.Recommendation{
			{Kind: domain.RecommendationOptimal, Title: "Good control", Text: "Keep these habits."},
			{Kind: domain.RecommendationNextStep, Title: "Next step", Text: "Export more simulations."},
		},
		RecordCount: 2,
		Provenance:  Provenance{FileCount: 2, SourceLabel: "example_data"},
		GeneratedAt: fixedTime,
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "glucose_report_20251123_140509.html", FileName(fixedTime))
}

func TestRenderDocument(t *testing.T) {
	in := sampleInput()
	in.Warnings = []domain.RunWarning{
		{Source: domain.WarningSourceLoader, File: "broken.csv", Message: "malformed CSV"},
	}

	doc, err := Render(in)
	require.NoError(t, err)
	html := string(doc)

	assert.Contains(t, html, "<title>"+DefaultTitle+"</title>")
	assert.Contains(t, html, "130.0 mg/dL")
	assert.Contains(t, html, "65.0 g")
	assert.Contains(t, html, "15.0 min")
	assert.Contains(t, html, "6.0 h")
	assert.Contains(t, html, "2 sessions")
	assert.Contains(t, html, "OPTIMAL - Good control")
	assert.Contains(t, html, "example_data")
	assert.Contains(t, html, `src="`+in.Trend.DataURI()+`"`)
	assert.Contains(t, html, `src="`+in.Factors.DataURI()+`"`)
	assert.Contains(t, html, "Keep these habits.")
	assert.Contains(t, html, "broken.csv: malformed CSV")
	assert.Contains(t, html, "23 November 2025 at 14:05")

	assert.NotContains(t, html, "http://")
	assert.NotContains(t, html, "https://")
	assert.NotContains(t, html, "ZgotmplZ")
	assert.Less(t, strings.Index(html, "Good control"), strings.Index(html, "Next step"))
}

func TestRenderBandsAndNotes(t *testing.T) {
	tests := []struct {
		band domain.StatusBand
		want string
	}{
		{domain.BandHigh, `class="band high"`},
		{domain.BandLow, `class="band low"`},
		{domain.BandOptimal, `class="band optimal"`},
		{"", `class="band optimal"`},
	}
	for _, tt := range tests {
		in := sampleInput()
		in.Summary.Band = tt.band
		doc, err := Render(in)
		require.NoError(t, err)
		assert.Contains(t, string(doc), tt.want)
	}

	in := sampleInput()
	in.Factors.Placeholder = true
	in.Summary.Defaulted = []domain.Column{domain.ColumnWalk, domain.ColumnSleep}
	doc, err := Render(in)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "Example values are shown")
	assert.Contains(t, string(doc), "Default values used for: walk_min, sleep_h")
	assert.NotContains(t, string(doc), "<h2>Notes</h2>")
}

func TestRenderEscapesUntrustedText(t *testing.T) {
	in := sampleInput()
	in.Provenance.SourceLabel = "<script>alert(1)</script>"
	doc, err := Render(in)
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "<script>alert(1)</script>")
}

func TestEmbeddedSummaryRoundTrip(t *testing.T) {
	summaries := []domain.Summary{
		{MeanGlucose: 95, MeanCarbs: 50, MeanWalk: 20, MeanSleep: 7, RecordCount: 1, Band: domain.BandOptimal},
		{MeanGlucose: 0.1 + 0.2, MeanCarbs: 1.0 / 3.0, MeanWalk: 1e-9, MeanSleep: 123456.789, RecordCount: 3, Band: domain.BandLow},
		{MeanGlucose: 140.00000000000003, MeanCarbs: 50, MeanWalk: 20, MeanSleep: 7, RecordCount: 0, Band: domain.BandHigh,
			Defaulted: []domain.Column{domain.ColumnCarbs, domain.ColumnWalk, domain.ColumnSleep}},
	}
	for _, s := range summaries {
		in := sampleInput()
		in.Summary = s
		doc, err := Render(in)
		require.NoError(t, err)

		got, err := ExtractSummary(doc)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestExtractSummaryErrors(t *testing.T) {
	_, err := ExtractSummary([]byte("<html></html>"))
	assert.ErrorIs(t, err, ErrSummaryNotFound)

	_, err = ExtractSummary([]byte(summaryOpen + "{"))
	assert.ErrorIs(t, err, ErrSummaryNotFound)

	_, err = ExtractSummary([]byte(summaryOpen + "{not json" + summaryClose))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSummaryNotFound)
}

func TestComposeWritesArtifact(t *testing.T) {
	primary := filepath.Join(t.TempDir(), "Glucose Reports")
	c := NewComposer(NewStore(primary, t.TempDir()), nil)

	art, err := c.Compose(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.False(t, art.Fallback)
	assert.Equal(t, filepath.Join(primary, FileName(fixedTime)), art.Path)

	written, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	assert.Equal(t, art.Document, written)

	again, err := c.Compose(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(primary, "glucose_report_20251123_140509_1.html"), again.Path)
}

func TestComposeDefaultsGenerationTime(t *testing.T) {
	c := NewComposer(NewStore(t.TempDir(), ""), nil)
	in := sampleInput()
	in.GeneratedAt = time.Time{}

	art, err := c.Compose(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(art.Filename, "glucose_report_"))
	assert.NotEqual(t, FileName(time.Time{}), art.Filename)
}

func TestComposeFallsBackWithNote(t *testing.T) {
	fallback := t.TempDir()
	logger, handler := testutil.NewTestLogger(t)
	c := NewComposer(NewStore(blockedDir(t, "reports"), fallback), logger)

	in := sampleInput()
	in.Warnings = []domain.RunWarning{{Source: domain.WarningSourceLoader, Message: "first"}}
	art, err := c.Compose(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, art.Fallback)
	require.NotNil(t, art.Note)
	assert.Equal(t, domain.WarningSourceReport, art.Note.Source)
	assert.Equal(t, filepath.Join(fallback, FileName(fixedTime)), art.Path)
	assert.Contains(t, string(art.Document), "the report was saved in "+fallback)
	assert.Len(t, in.Warnings, 1, "caller warnings are not modified")
	assert.True(t, handler.ContainsMessage("primary report location failed"))
}

func TestComposeFailsWhenNothingWritable(t *testing.T) {
	c := NewComposer(NewStore(blockedDir(t, "a"), blockedDir(t, "b")), nil)
	art, err := c.Compose(context.Background(), sampleInput())
	assert.Nil(t, art)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
}
