package simulator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "glucoreport/internal/errors"
	"glucoreport/pkg/contracts/domain"
)

var sessionTime = time.Date(2025, 11, 23, 8, 30, 0, 0, time.UTC)

func TestSimulate(t *testing.T) {
	tests := []struct {
		name        string
		in          Inputs
		glucose     float64
		carbsEffect float64
		walkEffect  float64
		sleepEffect float64
		sleepText   string
		band        domain.StatusBand
	}{
		{
			name:        "optimal sleep",
			in:          Inputs{Carbs: 50, Walk: 20, Sleep: 7},
			glucose:     134,
			carbsEffect: 60,
			walkEffect:  16,
			sleepText:   "0 for optimal sleep",
			band:        domain.BandOptimal,
		},
		{
			name:        "short sleep raises glucose",
			in:          Inputs{Carbs: 80, Walk: 10, Sleep: 5},
			glucose:     183,
			carbsEffect: 96,
			walkEffect:  8,
			sleepEffect: 5,
			sleepText:   "+5.0 for <7h sleep",
			band:        domain.BandHigh,
		},
		{
			name:        "clamped at the ceiling",
			in:          Inputs{Carbs: 150, Walk: 0, Sleep: 3},
			glucose:     MaxGlucose,
			carbsEffect: 180,
			sleepEffect: 10,
			sleepText:   "+10.0 for <7h sleep",
			band:        domain.BandHigh,
		},
		{
			name:        "walk discount capped and floor clamp",
			in:          Inputs{Carbs: 0, Walk: 120, Sleep: 12},
			glucose:     MinGlucose,
			walkEffect:  MaxWalkDiscount,
			sleepEffect: -2.8,
			sleepText:   "-2.8 for >8h sleep",
			band:        domain.BandLow,
		},
		{
			name:        "rounding of fractional effects",
			in:          Inputs{Carbs: 33, Walk: 7, Sleep: 8},
			glucose:     124,
			carbsEffect: 40,
			walkEffect:  6,
			sleepText:   "0 for optimal sleep",
			band:        domain.BandOptimal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Simulate(tt.in, sessionTime)
			require.NoError(t, err)

			assert.Equal(t, tt.in, res.Inputs)
			assert.Equal(t, sessionTime, res.At)
			assert.Equal(t, tt.glucose, res.Glucose)
			assert.Equal(t, tt.carbsEffect, res.CarbsEffect)
			assert.Equal(t, tt.walkEffect, res.WalkEffect)
			assert.InDelta(t, tt.sleepEffect, res.SleepEffect, 1e-9)
			assert.Equal(t, tt.sleepText, res.SleepText)
			assert.Equal(t, tt.band, res.Band())
			assert.NotEmpty(t, res.Advice)
		})
	}
}

func TestSimulateStaysInRange(t *testing.T) {
	for carbs := 0.0; carbs <= 150; carbs += 15 {
		for walk := 0.0; walk <= 120; walk += 20 {
			for sleep := 3.0; sleep <= 12; sleep += 1.5 {
				res, err := Simulate(Inputs{Carbs: carbs, Walk: walk, Sleep: sleep}, sessionTime)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, res.Glucose, MinGlucose)
				assert.LessOrEqual(t, res.Glucose, MaxGlucose)
				assert.LessOrEqual(t, res.WalkEffect, MaxWalkDiscount)
			}
		}
	}
}

func TestSimulateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
	}{
		{"negative carbs", Inputs{Carbs: -1, Walk: 10, Sleep: 7}},
		{"too many carbs", Inputs{Carbs: 151, Walk: 10, Sleep: 7}},
		{"walk too long", Inputs{Carbs: 50, Walk: 121, Sleep: 7}},
		{"too little sleep", Inputs{Carbs: 50, Walk: 10, Sleep: 2.9}},
		{"too much sleep", Inputs{Carbs: 50, Walk: 10, Sleep: 12.1}},
		{"not a number", Inputs{Carbs: math.NaN(), Walk: 10, Sleep: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Simulate(tt.in, sessionTime)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func kinds(recs []domain.Recommendation) []domain.RecommendationKind {
	out := make([]domain.RecommendationKind, len(recs))
	for i, r := range recs {
		out[i] = r.Kind
	}
	return out
}

func TestAdvise(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   []domain.RecommendationKind
	}{
		{
			name:   "high with short sleep and little walking",
			result: Result{Inputs: Inputs{Walk: 10, Sleep: 5}, Glucose: 183},
			want: []domain.RecommendationKind{
				domain.RecommendationHigh, domain.RecommendationActivity,
				domain.RecommendationSleep, domain.RecommendationActivity,
			},
		},
		{
			name:   "low with long sleep",
			result: Result{Inputs: Inputs{Walk: 120, Sleep: 10}, Glucose: 70},
			want: []domain.RecommendationKind{
				domain.RecommendationLow, domain.RecommendationActivity, domain.RecommendationSleep,
			},
		},
		{
			name:   "optimal with good habits",
			result: Result{Inputs: Inputs{Walk: 30, Sleep: 8}, Glucose: 110},
			want:   []domain.RecommendationKind{domain.RecommendationOptimal},
		},
		{
			name:   "thresholds are strict",
			result: Result{Inputs: Inputs{Walk: 30, Sleep: 7}, Glucose: 140},
			want:   []domain.RecommendationKind{domain.RecommendationOptimal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kinds(Advise(tt.result)))
		})
	}
}
