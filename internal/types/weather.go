package types

// TimeWindow describes the recommended visiting window for a place
// under given weather conditions.
type TimeWindow struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`
}

// ImpactSeverity grades how badly weather disrupts a journey.
type ImpactSeverity string

const (
	ImpactSeverityLow    ImpactSeverity = "low"
	ImpactSeverityMedium ImpactSeverity = "medium"
	ImpactSeverityHigh   ImpactSeverity = "high"
)

// JourneyImpact is the weather assessment of an in-progress
// multi-stop itinerary.
type JourneyImpact struct {
	Severity           ImpactSeverity `json:"severity"`
	Reasons            []string       `json:"reasons"`
	Suggestions        []string       `json:"suggestions"`
	IndoorAlternatives []string       `json:"indoor_alternatives,omitempty"`
}
