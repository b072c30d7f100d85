package charts

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	chart "github.com/wcharczuk/go-chart/v2"

	apperrors "glucoreport/internal/errors"
	"glucoreport/internal/shared/testutil"
	"glucoreport/pkg/contracts/domain"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func failingBackend(int, int) (chart.Renderer, error) {
	return nil, errors.New("backend unavailable")
}

func timedDataset(t *testing.T, readings ...float64) *domain.Dataset {
	t.Helper()
	ds := domain.NewDataset()
	for _, col := range []domain.Column{domain.ColumnDate, domain.ColumnTime, domain.ColumnGlucose} {
		ds.Columns[col] = true
	}
	base := time.Date(2025, 11, 23, 8, 30, 0, 0, time.Local)
	for i, v := range readings {
		// reverse arrival order so the renderer has to sort
		at := base.Add(time.Duration(len(readings)-i) * time.Hour)
		ds.Records = append(ds.Records, domain.SessionRecord{
			Timestamp:   &at,
			Date:        at.Format("02/01/2006"),
			Time:        at.Format("15:04"),
			GlucoseMgDL: domain.Float(v),
		})
	}
	return ds
}

func sequenceDataset(readings ...float64) *domain.Dataset {
	ds := domain.NewDataset()
	ds.Columns[domain.ColumnGlucose] = true
	for _, v := range readings {
		ds.Records = append(ds.Records, domain.SessionRecord{GlucoseMgDL: domain.Float(v)})
	}
	return ds
}

func assertPNG(t *testing.T, p domain.ImagePayload, width, height int) {
	t.Helper()
	require.False(t, p.Empty())
	assert.Equal(t, domain.MIMETypePNG, p.MIMEType)
	require.True(t, bytes.HasPrefix(p.Data, pngSignature))
	cfg, err := png.DecodeConfig(bytes.NewReader(p.Data))
	require.NoError(t, err)
	assert.Equal(t, width, cfg.Width)
	assert.Equal(t, height, cfg.Height)
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name            string
		ds              *domain.Dataset
		wantPlaceholder bool
	}{
		{name: "timestamps", ds: timedDataset(t, 95, 165, 120)},
		{name: "single timestamp", ds: timedDataset(t, 95)},
		{name: "sequence", ds: sequenceDataset(95, 165, 60)},
		{name: "single sequence point", ds: sequenceDataset(140)},
		{name: "no glucose column", ds: domain.NewDataset(), wantPlaceholder: true},
		{name: "nil dataset", ds: nil, wantPlaceholder: true},
		{
			name: "glucose column without numbers",
			ds: func() *domain.Dataset {
				ds := domain.NewDataset()
				ds.Columns[domain.ColumnGlucose] = true
				ds.Records = []domain.SessionRecord{{}, {}}
				return ds
			}(),
			wantPlaceholder: true,
		},
	}

	r := NewRenderer(WithSize(640, 320))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Trend(context.Background(), tt.ds)
			assert.NoError(t, res.Err)
			assert.Equal(t, tt.wantPlaceholder, res.Payload.Placeholder)
			assertPNG(t, res.Payload, 640, 320)
		})
	}
}

func TestTrendPointsOrdering(t *testing.T) {
	ds := timedDataset(t, 100, 110, 120)
	p := trendPoints(ds)

	require.Len(t, p.timed, 3)
	assert.Equal(t, 120.0, p.timed[0].value)
	assert.Equal(t, 100.0, p.timed[2].value)

	require.Len(t, p.sequence, 3)
	assert.Equal(t, 1, p.sequence[0].index)
	assert.Equal(t, 100.0, p.sequence[0].value)
}

func TestTrendPointsWithoutTimeColumn(t *testing.T) {
	ds := timedDataset(t, 100, 110)
	delete(ds.Columns, domain.ColumnTime)

	p := trendPoints(ds)
	assert.Empty(t, p.timed)
	assert.Len(t, p.sequence, 2)
}

func TestTrendNonFiniteFallsBack(t *testing.T) {
	r := NewRenderer()
	res := r.Trend(context.Background(), sequenceDataset(95, math.Inf(1)))

	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, apperrors.ErrRendering)
	assert.True(t, res.Payload.Placeholder)
	assertPNG(t, res.Payload, DefaultWidth, DefaultHeight)
}

func TestFactors(t *testing.T) {
	r := NewRenderer()

	t.Run("measured means", func(t *testing.T) {
		res := r.Factors(context.Background(), domain.Summary{MeanCarbs: 65, MeanWalk: 15, MeanSleep: 6})
		assert.NoError(t, res.Err)
		assert.False(t, res.Payload.Placeholder)
		assertPNG(t, res.Payload, DefaultWidth, DefaultHeight)
	})

	t.Run("all fallback values", func(t *testing.T) {
		s := domain.Summary{
			MeanCarbs: domain.FallbackCarbs,
			MeanWalk:  domain.FallbackWalk,
			MeanSleep: domain.FallbackSleep,
			Defaulted: []domain.Column{domain.ColumnCarbs, domain.ColumnWalk, domain.ColumnSleep},
		}
		res := r.Factors(context.Background(), s)
		assert.NoError(t, res.Err)
		assert.False(t, res.Payload.Placeholder)
	})

	t.Run("all zero", func(t *testing.T) {
		res := r.Factors(context.Background(), domain.Summary{})
		assert.NoError(t, res.Err)
		assert.False(t, res.Payload.Placeholder)
	})

	t.Run("non-finite mean", func(t *testing.T) {
		res := r.Factors(context.Background(), domain.Summary{MeanCarbs: math.NaN(), MeanWalk: 20, MeanSleep: 7})
		require.Error(t, res.Err)
		assert.ErrorIs(t, res.Err, apperrors.ErrRendering)
		assert.True(t, res.Payload.Placeholder)
	})
}

func TestInjectedBackendFault(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	r := NewRenderer(WithFactorsBackend(failingBackend), WithLogger(logger), WithSize(400, 300))

	res := r.Factors(context.Background(), domain.Summary{MeanCarbs: 50, MeanWalk: 20, MeanSleep: 7})
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, apperrors.ErrRendering)
	assert.Contains(t, res.Err.Error(), "backend unavailable")
	assert.True(t, res.Payload.Placeholder)
	assertPNG(t, res.Payload, 400, 300)

	testutil.AssertLogContains(t, handler, slog.LevelWarn, "chart fallback")
	testutil.AssertLogAttr(t, handler, "chart", ChartFactors)

	trend := r.Trend(context.Background(), sequenceDataset(95))
	assert.NoError(t, trend.Err, "trend backend is unaffected")
	assert.False(t, trend.Payload.Placeholder)
}

func TestWithBackendAffectsBothCharts(t *testing.T) {
	r := NewRenderer(WithBackend(failingBackend))

	assert.Error(t, r.Trend(context.Background(), sequenceDataset(95)).Err)
	assert.Error(t, r.Factors(context.Background(), domain.Summary{MeanCarbs: 1}).Err)
}

func TestFallbackPlaceholderMatchesChart(t *testing.T) {
	r := NewRenderer(WithBackend(failingBackend), WithSize(400, 300))

	trend := r.Trend(context.Background(), sequenceDataset(95, 120))
	require.Error(t, trend.Err)
	assert.Equal(t, placeholderMessage(400, 300, "Trend chart unavailable").Data, trend.Payload.Data)
	assert.NotEqual(t, placeholderFactors(400, 300).Data, trend.Payload.Data)

	factors := r.Factors(context.Background(), domain.Summary{MeanCarbs: 50, MeanWalk: 20, MeanSleep: 7})
	require.Error(t, factors.Err)
	assert.Equal(t, placeholderFactors(400, 300).Data, factors.Payload.Data)
}

func TestSequenceTicksSpanRange(t *testing.T) {
	tests := []struct {
		name      string
		xs        []float64
		wantTicks int
	}{
		{"single session", []float64{1}, 3},
		{"three sessions", []float64{1, 2, 3}, 5},
		{"too many to label", make([]float64, maxSequenceTicks+1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticks := sequenceTicks(tt.xs, 0.5, 3.5)
			require.Len(t, ticks, tt.wantTicks)
			if tt.wantTicks == 0 {
				return
			}
			assert.Equal(t, 0.5, ticks[0].Value)
			assert.Equal(t, 3.5, ticks[len(ticks)-1].Value)
			assert.Less(t, ticks[0].Value, ticks[len(ticks)-1].Value)
		})
	}
}

func TestSingleSessionTrendRendersChart(t *testing.T) {
	res := NewRenderer().Trend(context.Background(), sequenceDataset(95))

	require.NoError(t, res.Err)
	assert.False(t, res.Payload.Placeholder)
	assertPNG(t, res.Payload, DefaultWidth, DefaultHeight)
}

func TestPlaceholderTinyCanvas(t *testing.T) {
	p := placeholderFactors(60, 40)
	assertPNG(t, p, 60, 40)
	assert.True(t, p.Placeholder)
}

func TestGlucoseRangeCoversThresholds(t *testing.T) {
	yr, err := glucoseRange([]float64{100, 110})
	require.NoError(t, err)
	assert.LessOrEqual(t, yr.Min, domain.LowGlucoseThreshold)
	assert.GreaterOrEqual(t, yr.Max, domain.HighGlucoseThreshold)

	yr, err = glucoseRange([]float64{250})
	require.NoError(t, err)
	assert.Greater(t, yr.Max, 250.0)

	_, err = glucoseRange([]float64{math.NaN()})
	assert.ErrorIs(t, err, errNonFinite)
}
