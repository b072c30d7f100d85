// Package advice turns an aggregate summary into the ordered list of
// recommendations shown in the report.
package advice

import (
	"glucoreport/pkg/contracts/domain"
)

var (
	highGlucose = domain.Recommendation{
		Kind:  domain.RecommendationHigh,
		Title: "High glucose",
		Text:  "Consider reducing carbohydrates to 45-50 g per meal and increasing walking to 30-40 minutes a day.",
	}
	lowGlucose = domain.Recommendation{
		Kind:  domain.RecommendationLow,
		Title: "Low glucose",
		Text:  "Make sure to eat at least 40 g of carbohydrates per meal and ease off walking if sessions are very long.",
	}
	goodControl = domain.Recommendation{
		Kind:  domain.RecommendationOptimal,
		Title: "Good control",
		Text:  "Keep these habits. Small sleep adjustments (7-8 hours) can improve control further.",
	}
	shortSleep = domain.Recommendation{
		Kind:  domain.RecommendationSleep,
		Title: "Insufficient sleep",
		Text:  "Aim for 7-8 hours. Lack of sleep raises insulin resistance by 25-30%.",
	}
	lowActivity = domain.Recommendation{
		Kind:  domain.RecommendationActivity,
		Title: "Reduced activity",
		Text:  "Walking 30 minutes a day can lower glucose by 15-20%.",
	}
	nextStep = domain.Recommendation{
		Kind:  domain.RecommendationNextStep,
		Title: "Next step",
		Text:  "Export more simulations from different times of day to see complete patterns.",
	}
)

// Recommend applies the rules in fixed order: one band message, the sleep
// rule, the activity rule, and always the closing suggestion. The result
// has between 2 and 4 entries.
func Recommend(s domain.Summary) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, 4)

	switch s.Band {
	case domain.BandHigh:
		out = append(out, highGlucose)
	case domain.BandLow:
		out = append(out, lowGlucose)
	default:
		out = append(out, goodControl)
	}

	if s.MeanSleep < domain.MinRecommendedSleep {
		out = append(out, shortSleep)
	}
	if s.MeanWalk < domain.MinRecommendedWalk {
		out = append(out, lowActivity)
	}

	return append(out, nextStep)
}
