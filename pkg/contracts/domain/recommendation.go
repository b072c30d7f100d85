package domain

// RecommendationKind tags each advisory so shells can style or filter them.
type RecommendationKind string

const (
	RecommendationHigh     RecommendationKind = "high"
	RecommendationLow      RecommendationKind = "low"
	RecommendationOptimal  RecommendationKind = "optimal"
	RecommendationSleep    RecommendationKind = "sleep"
	RecommendationActivity RecommendationKind = "activity"
	RecommendationNextStep RecommendationKind = "next_step"
)

// Recommendation is one advisory line of the report.
type Recommendation struct {
	Kind  RecommendationKind `json:"kind"`
	Title string             `json:"title"`
	Text  string             `json:"text"`
}

// Disclaimer accompanies every report and export.
const Disclaimer = "This report is for educational purposes only. Always consult your doctor about your personal treatment."
