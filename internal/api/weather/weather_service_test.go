package weather

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localscout/discovery/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestScore_NoWeatherTagsIsNeutral(t *testing.T) {
	svc := NewService(testLogger())

	place := types.Place{ID: "p1", Name: "Plain Diner"}
	score := svc.Score(place, types.WeatherSnapshot{Condition: "rainy", TemperatureC: 25, Humidity: 60})

	assert.Equal(t, 0.5, score)
}

func TestScore_ExactTagMatch(t *testing.T) {
	svc := NewService(testLogger())

	place := types.Place{ID: "p1", WeatherSuitability: []string{"rainy", "covered"}}
	score := svc.Score(place, types.WeatherSnapshot{Condition: "rainy", TemperatureC: 25, Humidity: 60})

	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScore_IndoorAirConditionedRainyHumid(t *testing.T) {
	svc := NewService(testLogger())

	// Compatible match 0.8, indoor override 0.9, humidity bonus +0.1.
	place := types.Place{
		ID:                 "p1",
		Rating:             4.6,
		WeatherSuitability: []string{"indoor", "air-conditioned"},
	}
	weather := types.WeatherSnapshot{Condition: "rainy", TemperatureC: 33, Humidity: 85}

	score := svc.Score(place, weather)
	assert.InDelta(t, 1.0, score, 1e-9)

	reasons := svc.Reason(place, weather)
	assert.Contains(t, reasons, "Air conditioning helps on a humid day")
	assert.Contains(t, reasons, "Highly rated by visitors")
}

func TestScore_OutdoorOnlyDuringRainIsConflicting(t *testing.T) {
	svc := NewService(testLogger())

	weather := types.WeatherSnapshot{Condition: "rainy", TemperatureC: 25, Humidity: 60}
	tagSets := [][]string{
		{"outdoor"},
		{"outdoor", "garden"},
		{"garden", "patio"},
	}
	for _, tags := range tagSets {
		place := types.Place{ID: "p1", WeatherSuitability: tags}
		score := svc.Score(place, weather)
		assert.LessOrEqual(t, score, 0.2, "tags %v should conflict with rain", tags)
	}
}

func TestScore_AllIndoorDuringMildSunnyIsConflicting(t *testing.T) {
	svc := NewService(testLogger())

	place := types.Place{ID: "p1", WeatherSuitability: []string{"indoor"}}
	score := svc.Score(place, types.WeatherSnapshot{Condition: "sunny", TemperatureC: 24, Humidity: 50})

	assert.InDelta(t, 0.2, score, 1e-9)
}

func TestScore_HotWeatherAdjustments(t *testing.T) {
	svc := NewService(testLogger())
	weather := types.WeatherSnapshot{Condition: "sunny", TemperatureC: 38, Humidity: 50}

	indoor := types.Place{ID: "p1", WeatherSuitability: []string{"indoor"}}
	outdoor := types.Place{ID: "p2", WeatherSuitability: []string{"outdoor", "garden"}}

	// Indoor: base 0.5, override 0.9 (hot), +0.2 temperature bonus, clamped ordering.
	assert.Greater(t, svc.Score(indoor, weather), svc.Score(outdoor, weather))
}

func TestScore_AlwaysInRange(t *testing.T) {
	svc := NewService(testLogger())

	weathers := []types.WeatherSnapshot{
		{Condition: "rainy", TemperatureC: 5, Humidity: 95},
		{Condition: "sunny", TemperatureC: 42, Humidity: 20},
		{Condition: "cloudy", TemperatureC: 22, Humidity: 85},
	}
	places := []types.Place{
		{ID: "a", WeatherSuitability: []string{"outdoor"}},
		{ID: "b", WeatherSuitability: []string{"indoor", "air-conditioned"}},
		{ID: "c", WeatherSuitability: []string{"sunny", "outdoor", "garden"}},
		{ID: "d"},
	}
	for _, w := range weathers {
		for _, p := range places {
			score := svc.Score(p, w)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	}
}

func TestReason_NeverEmpty(t *testing.T) {
	svc := NewService(testLogger())

	reasons := svc.Reason(types.Place{ID: "p1"}, types.WeatherSnapshot{Condition: "cloudy", TemperatureC: 22, Humidity: 50})

	require.NotEmpty(t, reasons)
	assert.Equal(t, []string{"Suitable for current weather conditions"}, reasons)
}

func TestOptimalWindow_DecisionTable(t *testing.T) {
	svc := NewService(testLogger())

	outdoorPlace := types.Place{ID: "p1", WeatherSuitability: []string{"outdoor"}}
	indoorPlace := types.Place{ID: "p2", WeatherSuitability: []string{"indoor"}}

	tests := []struct {
		name    string
		place   types.Place
		weather types.WeatherSnapshot
		start   string
		end     string
	}{
		{"hot outdoor", outdoorPlace, types.WeatherSnapshot{Condition: "sunny", TemperatureC: 38}, "06:00", "09:00"},
		{"hot indoor", indoorPlace, types.WeatherSnapshot{Condition: "sunny", TemperatureC: 38}, "10:00", "22:00"},
		{"rainy", indoorPlace, types.WeatherSnapshot{Condition: "rainy", TemperatureC: 24}, "10:00", "20:00"},
		{"mild sunny", outdoorPlace, types.WeatherSnapshot{Condition: "sunny", TemperatureC: 26}, "08:00", "20:00"},
		{"default", indoorPlace, types.WeatherSnapshot{Condition: "cloudy", TemperatureC: 20}, "10:00", "18:00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			window := svc.OptimalWindow(tc.place, tc.weather)
			assert.Equal(t, tc.start, window.Start)
			assert.Equal(t, tc.end, window.End)
			assert.NotEmpty(t, window.Description)
		})
	}
}

func TestAssessJourneyImpact_RainOnOutdoorHeavyRouteIsHigh(t *testing.T) {
	svc := NewService(testLogger())

	journey := []types.Place{
		{ID: "a", Name: "Rose Garden", WeatherSuitability: []string{"outdoor", "garden"}},
		{ID: "b", Name: "River Walk", WeatherSuitability: []string{"outdoor"}},
		{ID: "c", Name: "City Museum", WeatherSuitability: []string{"indoor"}},
	}
	impact := svc.AssessJourneyImpact(journey, types.WeatherSnapshot{Condition: "rainy", TemperatureC: 22, Humidity: 70})

	assert.Equal(t, types.ImpactSeverityHigh, impact.Severity)
	assert.NotEmpty(t, impact.Reasons)
	assert.NotEmpty(t, impact.Suggestions)
	assert.Contains(t, impact.IndoorAlternatives, "City Museum")
}

func TestAssessJourneyImpact_ExtremeHeatWalkingRouteIsHigh(t *testing.T) {
	svc := NewService(testLogger())

	journey := []types.Place{
		{ID: "a", Category: "park", WeatherSuitability: []string{"outdoor"}},
		{ID: "b", Category: "park", WeatherSuitability: []string{"outdoor"}},
	}
	impact := svc.AssessJourneyImpact(journey, types.WeatherSnapshot{Condition: "sunny", TemperatureC: 40, Humidity: 40})

	assert.Equal(t, types.ImpactSeverityHigh, impact.Severity)
}

func TestAssessJourneyImpact_MildWeatherIsLow(t *testing.T) {
	svc := NewService(testLogger())

	journey := []types.Place{
		{ID: "a", WeatherSuitability: []string{"indoor"}},
		{ID: "b", WeatherSuitability: []string{"indoor", "air-conditioned"}},
	}
	impact := svc.AssessJourneyImpact(journey, types.WeatherSnapshot{Condition: "cloudy", TemperatureC: 22, Humidity: 55})

	assert.Equal(t, types.ImpactSeverityLow, impact.Severity)
	assert.NotEmpty(t, impact.Reasons)
	assert.Empty(t, impact.IndoorAlternatives)
}
