package simulator

import (
	"glucoreport/pkg/contracts/domain"
)

// Per-session advice differs from the report rules: it reacts to a single
// estimate rather than a mean, and long sleep is flagged too.
var (
	sessionHigh = []domain.Recommendation{
		{Kind: domain.RecommendationHigh, Title: "High glucose", Text: "Reduce carbohydrates at your next meal."},
		{Kind: domain.RecommendationActivity, Title: "Tip", Text: "Increase walking time to 30-40 minutes to improve control."},
	}
	sessionLow = []domain.Recommendation{
		{Kind: domain.RecommendationLow, Title: "Low glucose", Text: "Make sure you eat enough carbohydrates."},
		{Kind: domain.RecommendationActivity, Title: "Tip", Text: "Shorten the walk if it is very intense."},
	}
	sessionOptimal = domain.Recommendation{
		Kind: domain.RecommendationOptimal, Title: "Excellent balance", Text: "Keep these habits.",
	}
	sessionShortSleep = domain.Recommendation{
		Kind: domain.RecommendationSleep, Title: "Sleep", Text: "Prioritise 7-8 hours of sleep to improve insulin sensitivity.",
	}
	sessionLongSleep = domain.Recommendation{
		Kind: domain.RecommendationSleep, Title: "Sleep", Text: "Too much sleep can affect metabolism. 7-8 hours is ideal.",
	}
	sessionLowActivity = domain.Recommendation{
		Kind: domain.RecommendationActivity, Title: "Activity", Text: "Try to walk at least 30 minutes a day for better glucose control.",
	}
)

// Advise returns the advice for one simulated session: the band messages,
// then the sleep rule, then the walking rule.
func Advise(r Result) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, 4)
	switch r.Band() {
	case domain.BandHigh:
		out = append(out, sessionHigh...)
	case domain.BandLow:
		out = append(out, sessionLow...)
	default:
		out = append(out, sessionOptimal)
	}

	switch {
	case r.Sleep < OptimalSleepMin:
		out = append(out, sessionShortSleep)
	case r.Sleep > OptimalSleepMax:
		out = append(out, sessionLongSleep)
	}

	if r.Walk < domain.MinRecommendedWalk {
		out = append(out, sessionLowActivity)
	}
	return out
}
