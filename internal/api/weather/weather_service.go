package weather

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/localscout/discovery/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service scores a place's fitness for the current weather,
// independently of any text query.
type Service interface {
	Score(place types.Place, weather types.WeatherSnapshot) float64
	Reason(place types.Place, weather types.WeatherSnapshot) []string
	OptimalWindow(place types.Place, weather types.WeatherSnapshot) types.TimeWindow
	AssessJourneyImpact(journey []types.Place, weather types.WeatherSnapshot) types.JourneyImpact
}

// ServiceImpl provides the implementation for Service.
type ServiceImpl struct {
	logger *slog.Logger
}

// NewService creates a new weather suitability service.
func NewService(logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger}
}

const (
	baseScore        = 0.5
	exactMatchScore  = 1.0
	partialScore     = 0.8
	indoorOverride   = 0.9
	conflictScore    = 0.2
	hotThresholdC    = 35.0
	coldThresholdC   = 15.0
	mildSunnyMaxC    = 30.0
	extremeHeatC     = 38.0
	coldJourneyC     = 10.0
	humidThresholdPc = 80.0
)

var (
	indoorTags  = []string{"indoor", "covered", "air-conditioned", "shelter"}
	outdoorTags = []string{"outdoor", "garden", "patio", "open-air", "rooftop"}
)

// Score computes a [0,1] suitability value. Places without weather tags
// stay at the neutral base score.
func (s *ServiceImpl) Score(place types.Place, weather types.WeatherSnapshot) float64 {
	if len(place.WeatherSuitability) == 0 {
		return baseScore
	}

	condition := strings.ToLower(weather.Condition)
	score := baseScore

	switch {
	case hasExactTag(place, condition):
		score = exactMatchScore
	case hasCompatibleTag(place, condition):
		score = partialScore
	}

	rainy := strings.Contains(condition, "rain")
	hot := weather.TemperatureC > hotThresholdC

	if hasAnyTag(place, indoorTags) && (rainy || hot) {
		// Indoor venues become the refuge during rain or extreme heat.
		if score < indoorOverride {
			score = indoorOverride
		}
	}

	if isConflicting(place, condition, weather.TemperatureC) {
		score = conflictScore
	}

	score = s.adjustForTemperature(score, place, weather.TemperatureC)
	score = s.adjustForHumidity(score, place, weather.Humidity)

	return clamp01(score)
}

func (s *ServiceImpl) adjustForTemperature(score float64, place types.Place, tempC float64) float64 {
	switch {
	case tempC > hotThresholdC:
		if hasAnyTag(place, indoorTags) {
			score += 0.2
		}
		if hasAnyTag(place, outdoorTags) {
			score -= 0.2
		}
	case tempC < coldThresholdC:
		if hasAnyTag(place, outdoorTags) {
			score -= 0.15
		}
	}
	return score
}

func (s *ServiceImpl) adjustForHumidity(score float64, place types.Place, humidity float64) float64 {
	if humidity > humidThresholdPc {
		if hasTag(place, "air-conditioned") {
			score += 0.1
		}
		if hasAnyTag(place, outdoorTags) {
			score -= 0.15
		}
	}
	return score
}

// Reason builds the human-readable explanation for a score. The result
// is never empty.
func (s *ServiceImpl) Reason(place types.Place, weather types.WeatherSnapshot) []string {
	condition := strings.ToLower(weather.Condition)
	rainy := strings.Contains(condition, "rain")
	hot := weather.TemperatureC > hotThresholdC

	var reasons []string
	if hasExactTag(place, condition) {
		reasons = append(reasons, fmt.Sprintf("Well suited for %s weather", condition))
	} else if hasCompatibleTag(place, condition) {
		reasons = append(reasons, fmt.Sprintf("A good alternative during %s conditions", condition))
	}

	if hasAnyTag(place, indoorTags) {
		if rainy {
			reasons = append(reasons, "Indoor venue keeps you dry during rain")
		}
		if hot {
			reasons = append(reasons, "Indoor venue offers relief from the heat")
		}
	}
	if weather.Humidity > humidThresholdPc && hasTag(place, "air-conditioned") {
		reasons = append(reasons, "Air conditioning helps on a humid day")
	}
	if isConflicting(place, condition, weather.TemperatureC) {
		reasons = append(reasons, "Current weather works against this venue's setting")
	}
	if place.Rating >= 4.5 {
		reasons = append(reasons, "Highly rated by visitors")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Suitable for current weather conditions")
	}
	return reasons
}

// OptimalWindow picks the recommended visiting window from a small
// decision table keyed on condition and temperature.
func (s *ServiceImpl) OptimalWindow(place types.Place, weather types.WeatherSnapshot) types.TimeWindow {
	condition := strings.ToLower(weather.Condition)
	rainy := strings.Contains(condition, "rain")
	sunny := strings.Contains(condition, "sun") || strings.Contains(condition, "clear")

	switch {
	case weather.TemperatureC > hotThresholdC && hasAnyTag(place, outdoorTags):
		return types.TimeWindow{Start: "06:00", End: "09:00", Description: "Beat the heat with an early visit"}
	case weather.TemperatureC > hotThresholdC:
		return types.TimeWindow{Start: "10:00", End: "22:00", Description: "Indoor comfort all day"}
	case rainy:
		return types.TimeWindow{Start: "10:00", End: "20:00", Description: "Sheltered hours during the rain"}
	case sunny && weather.TemperatureC < mildSunnyMaxC:
		return types.TimeWindow{Start: "08:00", End: "20:00", Description: "Pleasant weather most of the day"}
	default:
		return types.TimeWindow{Start: "10:00", End: "18:00", Description: "Standard visiting hours"}
	}
}

// AssessJourneyImpact grades an in-progress itinerary against the
// current weather. High severity yields indoor alternatives and
// shelter suggestions.
func (s *ServiceImpl) AssessJourneyImpact(journey []types.Place, weather types.WeatherSnapshot) types.JourneyImpact {
	condition := strings.ToLower(weather.Condition)
	rainy := strings.Contains(condition, "rain")

	outdoorCount := 0
	walkCount := 0
	var indoorNames []string
	for _, p := range journey {
		if hasAnyTag(p, outdoorTags) {
			outdoorCount++
		}
		if strings.Contains(strings.ToLower(p.Category), "park") || hasTag(p, "outdoor") {
			walkCount++
		}
		if hasAnyTag(p, indoorTags) {
			indoorNames = append(indoorNames, p.Name)
		}
	}
	outdoorHeavy := len(journey) > 0 && outdoorCount*2 >= len(journey)
	walkingIntensive := len(journey) > 0 && walkCount*2 >= len(journey)

	impact := types.JourneyImpact{Severity: types.ImpactSeverityLow}

	switch {
	case rainy && outdoorHeavy:
		impact.Severity = types.ImpactSeverityHigh
		impact.Reasons = append(impact.Reasons, "Rain expected across mostly outdoor stops")
	case weather.TemperatureC > extremeHeatC && walkingIntensive:
		impact.Severity = types.ImpactSeverityHigh
		impact.Reasons = append(impact.Reasons, "Extreme heat on a walking-intensive route")
	case weather.TemperatureC < coldJourneyC && outdoorHeavy:
		impact.Severity = types.ImpactSeverityHigh
		impact.Reasons = append(impact.Reasons, "Cold conditions for an outdoor-heavy route")
	case weather.TemperatureC > hotThresholdC,
		weather.Humidity > humidThresholdPc && outdoorCount > 0:
		impact.Severity = types.ImpactSeverityMedium
		impact.Reasons = append(impact.Reasons, "Heat or humidity may make parts of the route uncomfortable")
		impact.Suggestions = append(impact.Suggestions, "Carry water and plan breaks at covered stops")
	}

	if impact.Severity == types.ImpactSeverityHigh {
		impact.Suggestions = append(impact.Suggestions,
			"Consider reordering the route to favour covered venues",
			"Look for nearby shelters between outdoor stops",
		)
		if len(indoorNames) > 0 {
			impact.IndoorAlternatives = indoorNames
		} else {
			impact.IndoorAlternatives = []string{"Swap outdoor stops for nearby indoor venues"}
		}
	}

	if len(impact.Reasons) == 0 {
		impact.Reasons = append(impact.Reasons, "Weather poses no significant risk to this journey")
	}
	return impact
}

// hasExactTag reports whether a weather tag matches the condition
// directly (e.g. condition "rainy" and tag "rainy").
func hasExactTag(place types.Place, condition string) bool {
	for _, tag := range place.WeatherSuitability {
		t := strings.ToLower(tag)
		if t == condition || (len(t) > 2 && strings.Contains(condition, t)) {
			return true
		}
	}
	return false
}

// hasCompatibleTag reports a recognized partial match: rain pairs with
// indoor-style tags, sun with outdoor-style tags, clouds with outdoor
// walking tags.
func hasCompatibleTag(place types.Place, condition string) bool {
	switch {
	case strings.Contains(condition, "rain"):
		return hasAnyTag(place, []string{"indoor", "covered", "shelter"})
	case strings.Contains(condition, "sun"), strings.Contains(condition, "clear"):
		return hasAnyTag(place, []string{"outdoor", "garden", "patio"})
	case strings.Contains(condition, "cloud"):
		return hasAnyTag(place, []string{"outdoor", "walk"})
	}
	return false
}

// isConflicting flags outdoor-only venues during rain and all-indoor
// venues during mild sunny weather.
func isConflicting(place types.Place, condition string, tempC float64) bool {
	rainy := strings.Contains(condition, "rain")
	sunny := strings.Contains(condition, "sun") || strings.Contains(condition, "clear")

	if rainy && hasAnyTag(place, outdoorTags) && !hasAnyTag(place, indoorTags) {
		return true
	}
	if sunny && tempC < mildSunnyMaxC && hasAnyTag(place, indoorTags) && !hasAnyTag(place, outdoorTags) && !hasTag(place, "sunny") {
		return true
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func hasTag(place types.Place, want string) bool {
	for _, tag := range place.WeatherSuitability {
		if strings.EqualFold(tag, want) {
			return true
		}
	}
	return false
}

func hasAnyTag(place types.Place, wanted []string) bool {
	for _, w := range wanted {
		if hasTag(place, w) {
			return true
		}
	}
	return false
}
