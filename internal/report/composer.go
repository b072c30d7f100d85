package report

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	apperrors "glucoreport/internal/errors"
	"glucoreport/pkg/contracts"
	"glucoreport/pkg/contracts/domain"
)

// DefaultTitle is used when Input.Title is empty.
const DefaultTitle = "Glucose Session Report"

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html.tmpl").
		Funcs(template.FuncMap{
			"fixed1": func(v float64) string { return fmt.Sprintf("%.1f", v) },
		}).
		ParseFS(templateFS, "templates/report.html.tmpl"),
)

// Provenance describes where the analysed data came from.
type Provenance struct {
	FileCount   int    `json:"file_count"`
	SourceLabel string `json:"source_label"`
}

// Input is everything a report shows.
type Input struct {
	Title           string
	Summary         domain.Summary
	Trend           domain.ImagePayload
	Factors         domain.ImagePayload
	Recommendations []domain.Recommendation
	RecordCount     int
	Provenance      Provenance
	Warnings        []domain.RunWarning
	GeneratedAt     time.Time
}

// Artifact is a written report.
type Artifact struct {
	Path     string
	Filename string
	Document []byte
	// Fallback is set when the primary directory could not be used; Note
	// is the warning added to the document in that case.
	Fallback bool
	Note     *domain.RunWarning
}

// Composer renders reports and hands them to a Store.
type Composer struct {
	store  *Store
	logger *slog.Logger
}

// NewComposer creates a Composer writing through store.
func NewComposer(store *Store, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		store:  store,
		logger: logger.With(slog.String("component", "report")),
	}
}

// Compose renders the report and writes it. A failed write never yields an
// artifact.
func (c *Composer) Compose(ctx context.Context, in Input) (*Artifact, error) {
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = time.Now()
	}

	doc, err := Render(in)
	if err != nil {
		c.logger.ErrorContext(ctx, "report rendering failed", slog.String("error", err.Error()))
		return nil, err
	}

	name := FileName(in.GeneratedAt)
	path, err := c.store.WritePrimary(name, doc)
	if err == nil {
		c.logger.InfoContext(ctx, "report written",
			slog.String("path", path),
			slog.Int("bytes", len(doc)))
		return &Artifact{Path: path, Filename: name, Document: doc}, nil
	}
	primaryErr := err
	c.logger.WarnContext(ctx, "primary report location failed",
		slog.String("dir", c.store.PrimaryDir()),
		slog.String("error", primaryErr.Error()))

	note := domain.RunWarning{
		Source:  domain.WarningSourceReport,
		Message: fmt.Sprintf("Could not write to %s; the report was saved in %s instead.", c.store.PrimaryDir(), c.store.FallbackDir()),
	}
	in.Warnings = append(append([]domain.RunWarning(nil), in.Warnings...), note)
	if doc, err = Render(in); err != nil {
		return nil, err
	}

	path, err = c.store.WriteFallback(name, doc)
	if err != nil {
		c.logger.ErrorContext(ctx, "fallback report location failed",
			slog.String("dir", c.store.FallbackDir()),
			slog.String("error", err.Error()))
		return nil, apperrors.NewPersistenceError(
			"report could not be written to the primary or fallback location",
			errors.Join(primaryErr, err)).
			WithContext("primary", c.store.PrimaryDir()).
			WithContext("fallback", c.store.FallbackDir())
	}

	c.logger.InfoContext(ctx, "report written",
		slog.String("path", path),
		slog.Bool("fallback", true),
		slog.Int("bytes", len(doc)))
	return &Artifact{Path: path, Filename: name, Document: doc, Fallback: true, Note: &note}, nil
}

// FileName returns the timestamped report file name.
func FileName(at time.Time) string {
	return "glucose_report_" + at.Format("20060102_150405") + ".html"
}

type bandView struct {
	Class string
	Text  string
}

var bandViews = map[domain.StatusBand]bandView{
	domain.BandHigh:    {Class: "high", Text: "HIGH - Needs attention"},
	domain.BandLow:     {Class: "low", Text: "LOW - Risk of hypoglycaemia"},
	domain.BandOptimal: {Class: "optimal", Text: "OPTIMAL - Good control"},
}

type view struct {
	Title           string
	GeneratedAt     time.Time
	Summary         domain.Summary
	Band            bandView
	Defaulted       []string
	TrendURI        template.URL
	FactorsURI      template.URL
	TrendNote       string
	FactorsNote     string
	Recommendations []domain.Recommendation
	RecordCount     int
	Provenance      Provenance
	Warnings        []domain.RunWarning
	SummaryJSON     template.JS
	Version         string
	Disclaimer      string
}

// Render produces the HTML document for in.
func Render(in Input) ([]byte, error) {
	summaryJSON, err := json.Marshal(in.Summary)
	if err != nil {
		return nil, apperrors.NewRenderingError("report", fmt.Errorf("encode summary: %w", err))
	}

	v := view{
		Title:           in.Title,
		GeneratedAt:     in.GeneratedAt,
		Summary:         in.Summary,
		Band:            bandViews[in.Summary.Band],
		TrendURI:        template.URL(in.Trend.DataURI()),
		FactorsURI:      template.URL(in.Factors.DataURI()),
		Recommendations: in.Recommendations,
		RecordCount:     in.RecordCount,
		Provenance:      in.Provenance,
		Warnings:        in.Warnings,
		SummaryJSON:     template.JS(summaryJSON),
		Version:         contracts.GetVersionString(),
		Disclaimer:      domain.Disclaimer,
	}
	if v.Title == "" {
		v.Title = DefaultTitle
	}
	if v.Band.Class == "" {
		v.Band = bandViews[domain.BandOptimal]
	}
	if v.Provenance.SourceLabel == "" {
		v.Provenance.SourceLabel = "example"
	}
	for _, col := range in.Summary.Defaulted {
		v.Defaulted = append(v.Defaulted, string(col))
	}
	if in.Trend.Placeholder {
		v.TrendNote = "No trend could be drawn from the loaded data."
	}
	if in.Factors.Placeholder {
		v.FactorsNote = "Example values are shown because the chart could not be drawn."
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, v); err != nil {
		return nil, apperrors.NewRenderingError("report", err)
	}
	return buf.Bytes(), nil
}
