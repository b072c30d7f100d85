package simulator

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "glucoreport/internal/errors"
	"glucoreport/pkg/contracts/domain"
)

// Model constants.
const (
	BaseGlucose     = 90.0
	CarbFactor      = 1.2
	WalkFactor      = 0.8
	MaxWalkDiscount = 30.0
	MinGlucose      = 70.0
	MaxGlucose      = 200.0

	// Sleep between these bounds (inclusive) carries no adjustment.
	OptimalSleepMin = 7.0
	OptimalSleepMax = 8.0

	shortSleepFactor   = 2.5
	longSleepFactor    = -0.7
	maxLongSleepCredit = -5.0
)

// Inputs are the slider values of one simulated session.
type Inputs struct {
	Carbs float64 `json:"carbs_g" validate:"min=0,max=150"`
	Walk  float64 `json:"walk_min" validate:"min=0,max=120"`
	Sleep float64 `json:"sleep_h" validate:"min=3,max=12"`
}

// Result is the outcome of Simulate.
type Result struct {
	Inputs

	At          time.Time `json:"at"`
	Glucose     float64   `json:"glucose_mg_dl"`
	CarbsEffect float64   `json:"carbs_effect"`
	WalkEffect  float64   `json:"walk_effect"`
	SleepEffect float64   `json:"sleep_effect"`
	SleepText   string    `json:"sleep_text"`

	Advice []domain.Recommendation `json:"advice"`
}

// Band classifies the estimated glucose like the report does.
func (r Result) Band() domain.StatusBand {
	switch {
	case r.Glucose > domain.HighGlucoseThreshold:
		return domain.BandHigh
	case r.Glucose < domain.LowGlucoseThreshold:
		return domain.BandLow
	}
	return domain.BandOptimal
}

var validate = validator.New()

// Validate checks every input against its allowed range.
func (in Inputs) Validate() error {
	if err := validate.Struct(in); err != nil {
		return apperrors.NewAppError(apperrors.ErrTypeValidation, "simulation inputs out of range", err).
			WithContext("carbs", in.Carbs).
			WithContext("walk", in.Walk).
			WithContext("sleep", in.Sleep)
	}
	return nil
}

// Simulate runs the model for in, stamping the result with at.
func Simulate(in Inputs, at time.Time) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	carbs := in.Carbs * CarbFactor
	walk := math.Min(in.Walk*WalkFactor, MaxWalkDiscount)
	sleep, sleepText := sleepAdjustment(in.Sleep)

	glucose := BaseGlucose + carbs - walk + sleep
	glucose = math.Max(MinGlucose, math.Min(MaxGlucose, glucose))

	res := Result{
		Inputs:      in,
		At:          at,
		Glucose:     math.Round(glucose),
		CarbsEffect: math.Round(carbs),
		WalkEffect:  math.Round(walk),
		SleepEffect: math.Round(sleep*10) / 10,
		SleepText:   sleepText,
	}
	res.Advice = Advise(res)
	return res, nil
}

func sleepAdjustment(hours float64) (float64, string) {
	switch {
	case hours < OptimalSleepMin:
		adj := (OptimalSleepMin - hours) * shortSleepFactor
		return adj, fmt.Sprintf("+%.1f for <7h sleep", adj)
	case hours > OptimalSleepMax:
		adj := math.Max(maxLongSleepCredit, (hours-OptimalSleepMax)*longSleepFactor)
		return adj, fmt.Sprintf("%.1f for >8h sleep", adj)
	}
	return 0, "0 for optimal sleep"
}
