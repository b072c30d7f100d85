package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"glucoreport/internal/advice"
	"glucoreport/internal/analysis"
	"glucoreport/internal/charts"
	"glucoreport/internal/infrastructure"
	"glucoreport/internal/loader"
	"glucoreport/internal/report"
	"glucoreport/pkg/contracts/domain"
)

// Stage names used in errors.
const (
	StepLoad    = "load"
	StepCompose = "compose"
)

// Pipeline runs loader, aggregator, chart renderer, recommendation engine
// and report composer in sequence.
type Pipeline struct {
	loader   *loader.Loader
	renderer *charts.Renderer
	composer *report.Composer
	pdf      *report.PDFPrinter
	examples ExampleProvider
	status   *StatusBroadcaster
	tracer   *PipelineTracer
	logger   *slog.Logger
	title    string
	now      func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithExamples sets the provider used when a request names no input.
func WithExamples(p ExampleProvider) PipelineOption {
	return func(pl *Pipeline) { pl.examples = p }
}

// WithStatus publishes progress through sb.
func WithStatus(sb *StatusBroadcaster) PipelineOption {
	return func(pl *Pipeline) { pl.status = sb }
}

// WithPDFPrinter enables PDF renditions for requests that ask for one.
func WithPDFPrinter(p *report.PDFPrinter) PipelineOption {
	return func(pl *Pipeline) { pl.pdf = p }
}

// WithTracer sets the OpenTelemetry instrumentation.
func WithTracer(t *PipelineTracer) PipelineOption {
	return func(pl *Pipeline) { pl.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(pl *Pipeline) {
		if logger != nil {
			pl.logger = logger
		}
	}
}

// WithTitle sets the default report title.
func WithTitle(title string) PipelineOption {
	return func(pl *Pipeline) { pl.title = title }
}

// WithClock replaces time.Now for the report timestamp.
func WithClock(now func() time.Time) PipelineOption {
	return func(pl *Pipeline) { pl.now = now }
}

// NewPipeline creates a Pipeline from its stages.
func NewPipeline(l *loader.Loader, r *charts.Renderer, c *report.Composer, opts ...PipelineOption) (*Pipeline, error) {
	p := &Pipeline{
		loader:   l,
		renderer: r,
		composer: c,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tracer == nil {
		t, err := NewPipelineTracer(nil)
		if err != nil {
			return nil, fmt.Errorf("create pipeline tracer: %w", err)
		}
		p.tracer = t
	}
	p.logger = p.logger.With(slog.String("component", "pipeline"))
	return p, nil
}

// Run executes one report run. On success the report has been written and
// its path is in the result. The only failures are an input set with no
// parseable file and a report that could not be written anywhere.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	ctx = infrastructure.WithRunID(infrastructure.WithTraceID(ctx, req.RunID), req.RunID)
	ctx, span := p.tracer.StartRun(ctx, req.RunID, len(req.Paths))
	defer span.End()

	start := time.Now()
	r := &run{
		id:     req.RunID,
		state:  NewRunState(req.RunID),
		status: p.status,
		logger: p.logger.With(slog.String("run_id", req.RunID)),
	}

	res, err := p.execute(ctx, r, req)
	duration := time.Since(start)
	p.tracer.FinishRun(ctx, span, err, duration)
	if err != nil {
		r.logger.ErrorContext(ctx, "report run failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration))
		return nil, err
	}
	res.Duration = duration
	r.logger.InfoContext(ctx, "report run completed",
		slog.String("report", res.ReportPath),
		slog.Int("warnings", len(res.Warnings)),
		slog.Duration("duration", duration))
	return res, nil
}

func (p *Pipeline) execute(ctx context.Context, r *run, req Request) (*Result, error) {
	if err := r.enter(ctx, PhaseLoading, "Loading input files"); err != nil {
		return nil, err
	}
	paths, usedExamples := req.Paths, false
	if len(paths) == 0 {
		paths, usedExamples = p.examplePaths(ctx, r)
	}

	stageCtx, end := p.tracer.Stage(ctx, PhaseLoading)
	ds, skipped, err := p.loader.Load(stageCtx, paths)
	end(err)
	for _, w := range skipped {
		r.warn(ctx, domain.WarningSourceLoader, filepath.Base(w.File), fmt.Sprintf("file skipped: %v", causeOf(w.Err)))
	}
	if err != nil {
		p.tracer.RecordLoad(ctx, 0, len(skipped))
		return nil, r.fail(ctx, NewFatalError(StepLoad, "no valid data could be loaded", err))
	}
	p.tracer.RecordLoad(ctx, ds.Len(), len(skipped))
	r.info(ctx, fmt.Sprintf("Loaded %d session(s) from %d file(s)", ds.Len(), len(ds.Sources)))

	if err := r.enter(ctx, PhaseAggregating, "Computing averages"); err != nil {
		return nil, err
	}
	_, end = p.tracer.Stage(ctx, PhaseAggregating)
	summary := analysis.Summarize(ds)
	end(nil)
	for _, col := range summary.Defaulted {
		r.warn(ctx, domain.WarningSourceSummary, "",
			fmt.Sprintf("no usable %s values; using default %g", col, domain.Fallback(col)))
	}

	if err := r.enter(ctx, PhaseRenderingCharts, "Rendering charts"); err != nil {
		return nil, err
	}
	stageCtx, end = p.tracer.Stage(ctx, PhaseRenderingCharts)
	trend := p.renderer.Trend(stageCtx, ds)
	factors := p.renderer.Factors(stageCtx, summary)
	end(nil)
	if trend.Err != nil {
		p.tracer.RecordChartFallback(ctx, charts.ChartTrend)
		r.warn(ctx, domain.WarningSourceCharts, "", fmt.Sprintf("trend chart replaced by placeholder: %v", causeOf(trend.Err)))
	}
	if factors.Err != nil {
		p.tracer.RecordChartFallback(ctx, charts.ChartFactors)
		r.warn(ctx, domain.WarningSourceCharts, "", fmt.Sprintf("factors chart replaced by placeholder: %v", causeOf(factors.Err)))
	}
	recs := advice.Recommend(summary)

	if err := r.enter(ctx, PhaseComposing, "Writing report"); err != nil {
		return nil, err
	}
	title := req.Title
	if title == "" {
		title = p.title
	}
	provenance := report.Provenance{
		FileCount:   len(ds.Sources),
		SourceLabel: SourceLabel(ds.Sources),
	}
	stageCtx, end = p.tracer.Stage(ctx, PhaseComposing)
	art, err := p.composer.Compose(stageCtx, report.Input{
		Title:           title,
		Summary:         summary,
		Trend:           trend.Payload,
		Factors:         factors.Payload,
		Recommendations: recs,
		RecordCount:     ds.Len(),
		Provenance:      provenance,
		Warnings:        r.warningsSnapshot(),
		GeneratedAt:     p.now(),
	})
	end(err)
	if err != nil {
		return nil, r.fail(ctx, NewFatalError(StepCompose, "report could not be written", err))
	}
	if art.Note != nil {
		r.warn(ctx, art.Note.Source, "", art.Note.Message)
	}

	res := &Result{
		RunID:           r.id,
		ReportPath:      art.Path,
		Fallback:        art.Fallback,
		Summary:         summary,
		Recommendations: recs,
		FileCount:       provenance.FileCount,
		SourceLabel:     provenance.SourceLabel,
		UsedExamples:    usedExamples,
	}
	if req.PDF {
		res.PDFPath = p.printPDF(ctx, r, art.Path)
	}
	res.Warnings = r.warningsSnapshot()

	if p.status != nil {
		p.status.Complete(res)
	}
	if err := r.enter(ctx, PhaseDone, "Report ready: "+art.Path); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) examplePaths(ctx context.Context, r *run) ([]string, bool) {
	if p.examples == nil {
		return nil, false
	}
	paths, err := p.examples.Provision(ctx)
	if err != nil {
		r.warn(ctx, domain.WarningSourceLoader, "", fmt.Sprintf("example data unavailable: %v", err))
		return nil, false
	}
	r.info(ctx, fmt.Sprintf("No input files given; using %d example file(s)", len(paths)))
	return paths, true
}

func (p *Pipeline) printPDF(ctx context.Context, r *run, htmlPath string) string {
	if p.pdf == nil {
		r.warn(ctx, domain.WarningSourceReport, "", "PDF rendition is not configured")
		return ""
	}
	r.info(ctx, "Printing PDF")
	out, err := p.pdf.Print(ctx, htmlPath)
	if err != nil {
		r.warn(ctx, domain.WarningSourceReport, "", fmt.Sprintf("PDF rendition failed: %v", err))
		return ""
	}
	return out
}

// run is the mutable state of one Pipeline.Run call.
type run struct {
	id     string
	state  *RunState
	status *StatusBroadcaster
	logger *slog.Logger

	mu       sync.Mutex
	warnings []domain.RunWarning
}

func (r *run) enter(ctx context.Context, phase Phase, message string) error {
	if err := r.state.Advance(phase); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "phase entered", slog.String("phase", string(phase)))
	r.publish(phase, LevelInfo, message)
	return nil
}

func (r *run) info(ctx context.Context, message string) {
	r.logger.DebugContext(ctx, "run progress", slog.String("message", message))
	r.publish("", LevelInfo, message)
}

func (r *run) warn(ctx context.Context, source domain.WarningSource, file, message string) {
	r.mu.Lock()
	r.warnings = append(r.warnings, domain.RunWarning{Source: source, File: file, Message: message})
	r.mu.Unlock()

	r.logger.WarnContext(ctx, "run warning",
		slog.String("source", string(source)),
		slog.String("file", file),
		slog.String("message", message))
	if file != "" {
		message = file + ": " + message
	}
	r.publish("", LevelWarning, message)
}

func (r *run) fail(ctx context.Context, err *OperationError) error {
	if advErr := r.state.Advance(PhaseFailed); advErr != nil {
		r.logger.ErrorContext(ctx, "invalid failure transition", slog.String("error", advErr.Error()))
	}
	infrastructure.RecordError(ctx, err)
	r.publish(PhaseFailed, LevelError, err.Error())
	return err
}

func (r *run) publish(phase Phase, level Level, message string) {
	if r.status == nil {
		return
	}
	current := r.state.Phase()
	if phase == "" {
		phase = current
	}
	r.status.Publish(Update{
		RunID:    r.id,
		Phase:    phase,
		Progress: phaseProgress[phase],
		Level:    level,
		Message:  message,
	})
}

func (r *run) warningsSnapshot() []domain.RunWarning {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.RunWarning(nil), r.warnings...)
}

// SourceLabel names the origin of the data: the directory holding the first
// loaded file, or "example" when there is none.
func SourceLabel(sources []string) string {
	if len(sources) == 0 {
		return "example"
	}
	dir := filepath.Base(filepath.Dir(sources[0]))
	if dir == "." || dir == string(filepath.Separator) {
		return "example"
	}
	return dir
}
