package search

import (
	"context"
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

func floatPtr(f float64) *float64 { return &f }

func testCorpus() []types.Place {
	return []types.Place{
		{
			ID: "cafe-1", Name: "Blue Tokai Coffee", Description: "Specialty coffee roasters",
			Category: "cafe", Latitude: 12.9716, Longitude: 77.6411, Rating: 4.5,
			WeatherSuitability: []string{"indoor", "air-conditioned"}, BestTimeToVisit: "morning",
		},
		{
			ID: "park-1", Name: "Cubbon Park", Description: "Sprawling green lung of the city",
			Category: "park", Latitude: 12.9763, Longitude: 77.5929, Rating: 4.6,
			WeatherSuitability: []string{"sunny", "outdoor"}, BestTimeToVisit: "morning walks",
		},
		{
			ID: "mall-1", Name: "Phoenix Marketcity", Description: "Large shopping mall",
			Category: "mall", Latitude: 12.99, Longitude: 77.66, Rating: 4.2,
			WeatherSuitability: []string{"indoor", "covered", "air-conditioned"}, BestTimeToVisit: "afternoon",
		},
		{
			ID: "bar-1", Name: "Toit Brewpub", Description: "Craft beer and wood-fired pizza",
			Category: "bar", Latitude: 12.9784, Longitude: 77.6408, Rating: 4.7,
			WeatherSuitability: []string{"indoor"}, BestTimeToVisit: "evening and night",
		},
	}
}

func TestSearch_ScoresInRangeAndSortedDescending(t *testing.T) {
	svc := NewService(testLogger())

	sctx := &types.SearchContext{
		Weather:   &types.WeatherSnapshot{Condition: "sunny", TemperatureC: 26, Humidity: 50},
		TimeOfDay: types.TimeOfDayMorning,
		Location:  &types.Coordinates{Latitude: 12.9716, Longitude: 77.6411},
	}
	results := svc.Search(context.Background(), "morning", types.SearchFilters{}, testCorpus(), sctx)

	require.NotEmpty(t, results)
	for i, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, r.Score, results[i-1].Score)
		}
	}
}

func TestSearch_ShortQueryKeepsWholeCorpus(t *testing.T) {
	svc := NewService(testLogger())

	results := svc.Search(context.Background(), "a", types.SearchFilters{}, testCorpus(), nil)

	assert.Len(t, results, len(testCorpus()))
}

func TestSearch_TokensUseANDSemantics(t *testing.T) {
	svc := NewService(testLogger())

	results := svc.Search(context.Background(), "coffee roasters", types.SearchFilters{}, testCorpus(), nil)

	require.Len(t, results, 1)
	assert.Equal(t, "cafe-1", results[0].Place.ID)
}

func TestSearch_CategoryFilter(t *testing.T) {
	svc := NewService(testLogger())

	results := svc.Search(context.Background(), "", types.SearchFilters{Categories: []string{"park"}}, testCorpus(), nil)

	require.Len(t, results, 1)
	assert.Equal(t, "park-1", results[0].Place.ID)
}

func TestSearch_WeatherTagFilter(t *testing.T) {
	svc := NewService(testLogger())

	filters := types.SearchFilters{WeatherSuitability: []string{"covered"}}
	results := svc.Search(context.Background(), "", filters, testCorpus(), nil)

	require.Len(t, results, 1)
	assert.Equal(t, "mall-1", results[0].Place.ID)
}

func TestSearch_DistanceFilterExcludesFarPlaces(t *testing.T) {
	svc := NewService(testLogger())

	sctx := &types.SearchContext{Location: &types.Coordinates{Latitude: 12.9716, Longitude: 77.6411}}
	filters := types.SearchFilters{MaxDistanceKm: floatPtr(1.0)}
	results := svc.Search(context.Background(), "", filters, testCorpus(), sctx)

	for _, r := range results {
		// The mall at (12.99, 77.66) is ~3 km away and must be excluded.
		assert.NotEqual(t, "mall-1", r.Place.ID)
		require.NotNil(t, r.DistanceKm)
		assert.LessOrEqual(t, *r.DistanceKm, 1.0)
	}
}

func TestSearch_DistanceFilterIgnoredWithoutLocation(t *testing.T) {
	svc := NewService(testLogger())

	filters := types.SearchFilters{MaxDistanceKm: floatPtr(1.0)}
	results := svc.Search(context.Background(), "", filters, testCorpus(), nil)

	// No caller coordinates: the filter silently has no effect.
	assert.Len(t, results, len(testCorpus()))
}

func TestSearch_TieBreakPreservesCorpusOrder(t *testing.T) {
	svc := NewService(testLogger())

	corpus := []types.Place{
		{ID: "a", Name: "Twin One", Rating: 4.0},
		{ID: "b", Name: "Twin Two", Rating: 4.0},
	}
	results := svc.Search(context.Background(), "", types.SearchFilters{}, corpus, nil)

	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Place.ID)
	assert.Equal(t, "b", results[1].Place.ID)
}

func TestSearch_MatchingFactors(t *testing.T) {
	svc := NewService(testLogger())

	results := svc.Search(context.Background(), "coffee", types.SearchFilters{Categories: []string{"cafe"}}, testCorpus(), nil)

	require.Len(t, results, 1)
	factors := results[0].MatchingFactors
	assert.Contains(t, factors, `Name matches "coffee"`)
	assert.Contains(t, factors, "In requested category cafe")
	assert.Contains(t, factors, "Highly rated")
}

func TestSearch_RainRecommendation(t *testing.T) {
	svc := NewService(testLogger())

	sctx := &types.SearchContext{
		Weather: &types.WeatherSnapshot{Condition: "rainy", TemperatureC: 24, Humidity: 80},
	}
	results := svc.Search(context.Background(), "mall", types.SearchFilters{}, testCorpus(), sctx)

	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Recommendations, "A dry choice for a rainy day")
}

func TestProximityDecay(t *testing.T) {
	svc := NewService(testLogger())

	near := &types.SearchContext{Location: &types.Coordinates{Latitude: 12.9716, Longitude: 77.6411}}
	far := &types.SearchContext{Location: &types.Coordinates{Latitude: 13.10, Longitude: 77.75}}

	corpus := testCorpus()[:1]
	nearScore := svc.Search(context.Background(), "", types.SearchFilters{}, corpus, near)[0].Score
	farScore := svc.Search(context.Background(), "", types.SearchFilters{}, corpus, far)[0].Score

	assert.Greater(t, nearScore, farScore)
}

func TestDefaultScoringWeights_SumToOne(t *testing.T) {
	require.NoError(t, DefaultScoringWeights().Validate())
}

func TestScoringWeights_ValidateRejectsBadSum(t *testing.T) {
	weights := DefaultScoringWeights()
	weights.Text = 0.5

	assert.Error(t, weights.Validate())
}

func TestHaversineKm(t *testing.T) {
	// ~3.3 km between these two points.
	d := haversineKm(12.9716, 77.6411, 12.99, 77.66)
	assert.InDelta(t, 3.0, d, 0.6)
}
