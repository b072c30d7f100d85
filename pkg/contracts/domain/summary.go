package domain

// Glucose status thresholds in mg/dL. Comparisons are strict on both sides.
const (
	HighGlucoseThreshold = 140.0
	LowGlucoseThreshold  = 80.0
)

// Fallback means used when a column is absent or carries no numeric cell.
const (
	FallbackGlucose = 95.0
	FallbackCarbs   = 50.0
	FallbackWalk    = 20.0
	FallbackSleep   = 7.0
)

// Advisory cut-offs for the sleep and activity rules.
const (
	MinRecommendedSleep = 7.0
	MinRecommendedWalk  = 30.0
)

// Fallback returns the fallback mean for a numeric column.
func Fallback(col Column) float64 {
	switch col {
	case ColumnGlucose:
		return FallbackGlucose
	case ColumnCarbs:
		return FallbackCarbs
	case ColumnWalk:
		return FallbackWalk
	case ColumnSleep:
		return FallbackSleep
	}
	return 0
}

// StatusBand classifies the mean glucose.
type StatusBand string

const (
	BandHigh    StatusBand = "HIGH"
	BandLow     StatusBand = "LOW"
	BandOptimal StatusBand = "OPTIMAL"
)

// Label returns a human readable name for the band.
func (b StatusBand) Label() string {
	switch b {
	case BandHigh:
		return "High"
	case BandLow:
		return "Low"
	default:
		return "Optimal"
	}
}

// Summary is the aggregate of one run. It is computed once and never mutated.
type Summary struct {
	MeanGlucose float64    `json:"mean_glucose"`
	MeanCarbs   float64    `json:"mean_carbs"`
	MeanWalk    float64    `json:"mean_walk"`
	MeanSleep   float64    `json:"mean_sleep"`
	RecordCount int        `json:"record_count"`
	Band        StatusBand `json:"band"`
	Defaulted   []Column   `json:"defaulted,omitempty"`
}

// Mean returns the summary mean for a numeric column.
func (s Summary) Mean(col Column) float64 {
	switch col {
	case ColumnGlucose:
		return s.MeanGlucose
	case ColumnCarbs:
		return s.MeanCarbs
	case ColumnWalk:
		return s.MeanWalk
	case ColumnSleep:
		return s.MeanSleep
	}
	return 0
}

// IsDefaulted reports whether the mean for col came from the fallback table.
func (s Summary) IsDefaulted(col Column) bool {
	for _, c := range s.Defaulted {
		if c == col {
			return true
		}
	}
	return false
}
