// Package analysis computes the aggregate summary of a loaded dataset.
package analysis

import (
	"sort"

	"glucoreport/pkg/contracts/domain"
)

// Summarize computes the per-column means and the status band. A column that
// is absent, or present without a single numeric cell, takes its fallback
// value and is listed in Summary.Defaulted.
//
// Values are summed in ascending order so that any permutation of the
// records yields a bit-identical mean.
func Summarize(ds *domain.Dataset) domain.Summary {
	s := domain.Summary{RecordCount: ds.Len()}

	means := make(map[domain.Column]float64, len(domain.NumericColumns))
	for _, col := range domain.NumericColumns {
		mean, ok := columnMean(ds, col)
		if !ok {
			mean = domain.Fallback(col)
			s.Defaulted = append(s.Defaulted, col)
		}
		means[col] = mean
	}

	s.MeanGlucose = means[domain.ColumnGlucose]
	s.MeanCarbs = means[domain.ColumnCarbs]
	s.MeanWalk = means[domain.ColumnWalk]
	s.MeanSleep = means[domain.ColumnSleep]
	s.Band = Classify(s.MeanGlucose)
	return s
}

// Classify maps a mean glucose to its band. Both thresholds are exclusive:
// exactly 140 or 80 is OPTIMAL.
func Classify(meanGlucose float64) domain.StatusBand {
	switch {
	case meanGlucose > domain.HighGlucoseThreshold:
		return domain.BandHigh
	case meanGlucose < domain.LowGlucoseThreshold:
		return domain.BandLow
	default:
		return domain.BandOptimal
	}
}

func columnMean(ds *domain.Dataset, col domain.Column) (float64, bool) {
	if !ds.HasColumn(col) {
		return 0, false
	}
	values := make([]float64, 0, ds.Len())
	for _, rec := range ds.Records {
		if v := rec.Value(col); v != nil {
			values = append(values, *v)
		}
	}
	if len(values) == 0 {
		return 0, false
	}

	sort.Float64s(values)
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}
