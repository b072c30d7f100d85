package charts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	apperrors "glucoreport/internal/errors"
	"glucoreport/pkg/contracts/domain"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 400
	DefaultDPI    = 100

	ChartTrend   = "trend"
	ChartFactors = "factors"

	// maxSequenceTicks caps explicit integer ticks on the sequence axis.
	maxSequenceTicks = 20
)

var (
	colorGlucose = drawing.ColorFromHex("2980b9")
	colorHigh    = drawing.ColorFromHex("e74c3c")
	colorLow     = drawing.ColorFromHex("2ecc71")
	colorCarbs   = drawing.ColorFromHex("c2185b")
	colorWalk    = drawing.ColorFromHex("1976d2")
	colorSleep   = drawing.ColorFromHex("2e7d32")
	colorGrid    = drawing.ColorFromHex("e5e8eb")

	errNonFinite = errors.New("non-finite value in chart input")
)

// Result is the outcome of rendering one chart. Payload is always usable;
// Err is set when the placeholder replaced the requested chart.
type Result struct {
	Payload domain.ImagePayload
	Err     error
}

// Renderer draws report charts.
type Renderer struct {
	width   int
	height  int
	dpi     float64
	logger  *slog.Logger
	trend   chart.RendererProvider
	factors chart.RendererProvider
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the pixel size of both charts.
func WithSize(width, height int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
		if height > 0 {
			r.height = height
		}
	}
}

// WithDPI sets the resolution passed to the chart backend.
func WithDPI(dpi float64) Option {
	return func(r *Renderer) {
		if dpi > 0 {
			r.dpi = dpi
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithBackend replaces the raster backend of both charts.
func WithBackend(p chart.RendererProvider) Option {
	return func(r *Renderer) {
		r.trend = p
		r.factors = p
	}
}

// WithTrendBackend replaces the raster backend of the trend chart only.
func WithTrendBackend(p chart.RendererProvider) Option {
	return func(r *Renderer) { r.trend = p }
}

// WithFactorsBackend replaces the raster backend of the factors chart only.
func WithFactorsBackend(p chart.RendererProvider) Option {
	return func(r *Renderer) { r.factors = p }
}

// NewRenderer creates a Renderer producing PNG images.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		width:   DefaultWidth,
		height:  DefaultHeight,
		dpi:     DefaultDPI,
		logger:  slog.Default(),
		trend:   chart.PNG,
		factors: chart.PNG,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "charts"))
	return r
}

// Trend plots glucose against time when timestamps are available, otherwise
// against the 1-based row sequence. Reference lines mark the high and low
// thresholds.
func (r *Renderer) Trend(ctx context.Context, ds *domain.Dataset) Result {
	if ds == nil || !ds.HasColumn(domain.ColumnGlucose) {
		return r.noData(ctx)
	}

	points := trendPoints(ds)
	var (
		c   chart.Chart
		err error
	)
	switch {
	case len(points.timed) > 0:
		c, err = r.timeChart(points.timed)
	case len(points.sequence) > 0:
		c, err = r.sequenceChart(points.sequence)
	default:
		return r.noData(ctx)
	}
	if err == nil {
		var buf bytes.Buffer
		if err = c.Render(r.trend, &buf); err == nil {
			r.logger.DebugContext(ctx, "chart rendered",
				slog.String("chart", ChartTrend),
				slog.Int("bytes", buf.Len()))
			return Result{Payload: domain.ImagePayload{MIMEType: domain.MIMETypePNG, Data: buf.Bytes()}}
		}
	}
	return r.fallback(ctx, ChartTrend, err)
}

// Factors draws one bar per lifestyle factor from the summary means.
func (r *Renderer) Factors(ctx context.Context, s domain.Summary) Result {
	bc, err := r.factorsChart(s)
	if err == nil {
		var buf bytes.Buffer
		if err = bc.Render(r.factors, &buf); err == nil {
			r.logger.DebugContext(ctx, "chart rendered",
				slog.String("chart", ChartFactors),
				slog.Int("bytes", buf.Len()))
			return Result{Payload: domain.ImagePayload{MIMEType: domain.MIMETypePNG, Data: buf.Bytes()}}
		}
	}
	return r.fallback(ctx, ChartFactors, err)
}

func (r *Renderer) fallback(ctx context.Context, name string, cause error) Result {
	r.logger.WarnContext(ctx, "chart fallback",
		slog.String("chart", name),
		slog.String("error", cause.Error()))
	return Result{
		Payload: placeholderFor(name, r.width, r.height),
		Err:     apperrors.NewRenderingError(name, cause),
	}
}

func placeholderFor(name string, w, h int) domain.ImagePayload {
	if name == ChartFactors {
		return placeholderFactors(w, h)
	}
	return placeholderMessage(w, h, "Trend chart unavailable")
}

func (r *Renderer) noData(ctx context.Context) Result {
	r.logger.InfoContext(ctx, "trend chart has no glucose values")
	return Result{Payload: placeholderMessage(r.width, r.height, "No glucose readings available")}
}

type timedPoint struct {
	at    time.Time
	value float64
}

type seqPoint struct {
	index int
	value float64
}

type points struct {
	timed    []timedPoint
	sequence []seqPoint
}

// trendPoints collects plottable glucose readings. Timed points are only
// gathered when the dataset carries both date and time columns.
func trendPoints(ds *domain.Dataset) points {
	var p points
	useTime := ds.HasColumn(domain.ColumnDate) && ds.HasColumn(domain.ColumnTime)
	for i, rec := range ds.Records {
		if rec.GlucoseMgDL == nil {
			continue
		}
		v := *rec.GlucoseMgDL
		p.sequence = append(p.sequence, seqPoint{index: i + 1, value: v})
		if useTime && rec.Timestamp != nil {
			p.timed = append(p.timed, timedPoint{at: *rec.Timestamp, value: v})
		}
	}
	sort.SliceStable(p.timed, func(i, j int) bool {
		return p.timed[i].at.Before(p.timed[j].at)
	})
	return p
}

func (r *Renderer) timeChart(pts []timedPoint) (chart.Chart, error) {
	xs := make([]time.Time, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = p.at
		ys[i] = p.value
	}
	yr, err := glucoseRange(ys)
	if err != nil {
		return chart.Chart{}, err
	}

	first, last := xs[0], xs[len(xs)-1]
	if first.Equal(last) {
		first, last = first.Add(-30*time.Minute), last.Add(30*time.Minute)
	}
	minX, maxX := chart.TimeToFloat64(first), chart.TimeToFloat64(last)

	c := r.baseChart("Blood Glucose Trend", yr)
	c.XAxis = chart.XAxis{
		Name:           "Date and time",
		ValueFormatter: chart.TimeValueFormatterWithFormat("02/01 15:04"),
		Range:          &chart.ContinuousRange{Min: minX, Max: maxX},
	}
	c.Series = []chart.Series{
		chart.TimeSeries{
			Name:    "Measured glucose",
			XValues: xs,
			YValues: ys,
			Style:   lineStyle(),
		},
		chart.TimeSeries{
			Name:    fmt.Sprintf("High limit (>%.0f mg/dL)", domain.HighGlucoseThreshold),
			XValues: []time.Time{first, last},
			YValues: []float64{domain.HighGlucoseThreshold, domain.HighGlucoseThreshold},
			Style:   referenceStyle(colorHigh),
		},
		chart.TimeSeries{
			Name:    fmt.Sprintf("Low limit (<%.0f mg/dL)", domain.LowGlucoseThreshold),
			XValues: []time.Time{first, last},
			YValues: []float64{domain.LowGlucoseThreshold, domain.LowGlucoseThreshold},
			Style:   referenceStyle(colorLow),
		},
	}
	c.Elements = []chart.Renderable{chart.Legend(&c)}
	return c, nil
}

func (r *Renderer) sequenceChart(pts []seqPoint) (chart.Chart, error) {
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = float64(p.index)
		ys[i] = p.value
	}
	yr, err := glucoseRange(ys)
	if err != nil {
		return chart.Chart{}, err
	}

	minX, maxX := xs[0]-0.5, xs[len(xs)-1]+0.5
	c := r.baseChart("Recorded Glucose Values", yr)
	c.XAxis = chart.XAxis{
		Name:  "Session number",
		Range: &chart.ContinuousRange{Min: minX, Max: maxX},
		Ticks: sequenceTicks(xs, minX, maxX),
	}
	c.Series = []chart.Series{
		chart.ContinuousSeries{
			Name:    "Measured glucose",
			XValues: xs,
			YValues: ys,
			Style:   lineStyle(),
		},
		chart.ContinuousSeries{
			Name:    fmt.Sprintf("High limit (>%.0f mg/dL)", domain.HighGlucoseThreshold),
			XValues: []float64{minX, maxX},
			YValues: []float64{domain.HighGlucoseThreshold, domain.HighGlucoseThreshold},
			Style:   referenceStyle(colorHigh),
		},
		chart.ContinuousSeries{
			Name:    fmt.Sprintf("Low limit (<%.0f mg/dL)", domain.LowGlucoseThreshold),
			XValues: []float64{minX, maxX},
			YValues: []float64{domain.LowGlucoseThreshold, domain.LowGlucoseThreshold},
			Style:   referenceStyle(colorLow),
		},
	}
	c.Elements = []chart.Renderable{chart.Legend(&c)}
	return c, nil
}

func (r *Renderer) baseChart(title string, yr *chart.ContinuousRange) chart.Chart {
	return chart.Chart{
		Title:  title,
		Width:  r.width,
		Height: r.height,
		DPI:    r.dpi,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		YAxis: chart.YAxis{
			Name:           "Glucose (mg/dL)",
			Range:          yr,
			GridMajorStyle: chart.Style{StrokeColor: colorGrid, StrokeWidth: 1},
		},
	}
}

// glucoseRange spans the readings and both reference lines with a margin.
func glucoseRange(ys []float64) (*chart.ContinuousRange, error) {
	lo, hi := domain.LowGlucoseThreshold, domain.HighGlucoseThreshold
	for _, v := range ys {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errNonFinite
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return &chart.ContinuousRange{Min: math.Max(0, lo-20), Max: hi + 20}, nil
}

// sequenceTicks labels each session and pins unlabeled ticks to the range
// edges. go-chart derives the axis range from explicit ticks, so a single
// session would otherwise collapse it to zero width.
func sequenceTicks(xs []float64, minX, maxX float64) []chart.Tick {
	if len(xs) > maxSequenceTicks {
		return nil
	}
	ticks := make([]chart.Tick, 0, len(xs)+2)
	ticks = append(ticks, chart.Tick{Value: minX})
	for _, x := range xs {
		ticks = append(ticks, chart.Tick{Value: x, Label: strconv.Itoa(int(x))})
	}
	return append(ticks, chart.Tick{Value: maxX})
}

func lineStyle() chart.Style {
	return chart.Style{
		StrokeColor: colorGlucose,
		StrokeWidth: 2,
		DotColor:    colorGlucose,
		DotWidth:    4,
	}
}

func referenceStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor:     col.WithAlpha(180),
		StrokeWidth:     1.5,
		StrokeDashArray: []float64{6, 4},
	}
}

// factor is one bar of the factors chart.
type factor struct {
	label string
	unit  string
	value float64
	color drawing.Color
}

func factorsOf(s domain.Summary) []factor {
	return []factor{
		{label: "Carbohydrates", unit: "g", value: s.MeanCarbs, color: colorCarbs},
		{label: "Walking", unit: "min", value: s.MeanWalk, color: colorWalk},
		{label: "Sleep", unit: "h", value: s.MeanSleep, color: colorSleep},
	}
}

func (r *Renderer) factorsChart(s domain.Summary) (chart.BarChart, error) {
	factors := factorsOf(s)
	bars := make([]chart.Value, 0, len(factors))
	maxV, minV := 0.0, 0.0
	for _, f := range factors {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return chart.BarChart{}, fmt.Errorf("%s: %w", f.label, errNonFinite)
		}
		maxV = math.Max(maxV, f.value)
		minV = math.Min(minV, f.value)
		bars = append(bars, chart.Value{
			Value: f.value,
			Label: fmt.Sprintf("%s %.1f %s", f.label, f.value, f.unit),
			Style: chart.Style{FillColor: f.color.WithAlpha(217), StrokeColor: drawing.ColorWhite, StrokeWidth: 1.5},
		})
	}

	top := maxV * 1.3
	if maxV <= 0 {
		top = 1
	}
	return chart.BarChart{
		Title:    "Factors Influencing Glucose",
		Width:    r.width,
		Height:   r.height,
		DPI:      r.dpi,
		BarWidth: r.width / 6,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		YAxis: chart.YAxis{
			Name:  "Average value",
			Range: &chart.ContinuousRange{Min: minV * 1.3, Max: top},
		},
		Bars: bars,
	}, nil
}
