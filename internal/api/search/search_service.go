package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/localscout/discovery/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service ranks candidate places against a query, a filter set and the
// situational context.
type Service interface {
	Search(ctx context.Context, query string, filters types.SearchFilters, corpus []types.Place, sctx *types.SearchContext) []types.SearchResult
}

// ScoringWeights are the relevance term weights. They must sum to 1.0;
// the final score is additionally clamped to 1.0.
type ScoringWeights struct {
	Text      float64
	Rating    float64
	Proximity float64
	Weather   float64
	TimeOfDay float64
}

// DefaultScoringWeights returns the production weight set.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Text:      0.30,
		Rating:    0.25,
		Proximity: 0.20,
		Weather:   0.15,
		TimeOfDay: 0.10,
	}
}

// Validate checks the weight-sum invariant.
func (w ScoringWeights) Validate() error {
	sum := w.Text + w.Rating + w.Proximity + w.Weather + w.TimeOfDay
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights sum to %f, want 1.0", sum)
	}
	return nil
}

// proximityDecay controls the exp(-k*d) distance falloff. The value is
// empirical; changing it is a deliberate behaviour change.
const proximityDecay = 1.5

const earthRadiusKm = 6371.0

// ServiceImpl provides the implementation for Service.
type ServiceImpl struct {
	logger  *slog.Logger
	weights ScoringWeights
}

// NewService creates a ranker with the default weights.
func NewService(logger *slog.Logger) *ServiceImpl {
	return NewServiceWithWeights(DefaultScoringWeights(), logger)
}

// NewServiceWithWeights creates a ranker with explicit weights.
func NewServiceWithWeights(weights ScoringWeights, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, weights: weights}
}

// Search filters and scores the corpus, returning results sorted
// descending by score. The sort is stable so corpus order breaks ties.
func (s *ServiceImpl) Search(ctx context.Context, query string, filters types.SearchFilters, corpus []types.Place, sctx *types.SearchContext) []types.SearchResult {
	_, span := otel.Tracer("SearchService").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("query", query),
		attribute.Int("corpus.size", len(corpus)),
	))
	defer span.End()

	tokens := tokenize(query)

	var results []types.SearchResult
	for _, place := range corpus {
		if !matchesTokens(place, tokens) {
			continue
		}
		if !matchesFilters(place, filters) {
			continue
		}

		var distanceKm *float64
		if sctx != nil && sctx.Location != nil {
			d := haversineKm(sctx.Location.Latitude, sctx.Location.Longitude, place.Latitude, place.Longitude)
			distanceKm = &d
		}
		// Distance filter only applies when the caller location is
		// known; otherwise it silently has no effect.
		if filters.MaxDistanceKm != nil && distanceKm != nil && *distanceKm > *filters.MaxDistanceKm {
			continue
		}

		score := s.score(place, tokens, distanceKm, sctx)
		results = append(results, types.SearchResult{
			Place:           place,
			Score:           score,
			DistanceKm:      distanceKm,
			MatchingFactors: matchingFactors(place, tokens, filters),
			Recommendations: recommendations(place, sctx),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	span.SetAttributes(attribute.Int("results.count", len(results)))
	return results
}

// tokenize splits the query on whitespace. Queries shorter than two
// characters skip the text pre-filter entirely.
func tokenize(query string) []string {
	if len(query) < 2 {
		return nil
	}
	return strings.Fields(strings.ToLower(query))
}

// matchesTokens applies AND semantics over substring matches against
// the place's concatenated searchable text.
func matchesTokens(place types.Place, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	text := searchableText(place)
	for _, token := range tokens {
		if !strings.Contains(text, token) {
			return false
		}
	}
	return true
}

func searchableText(place types.Place) string {
	parts := []string{place.Name, place.Description, place.Category, place.BestTimeToVisit}
	parts = append(parts, place.WeatherSuitability...)
	return strings.ToLower(strings.Join(parts, " "))
}

func matchesFilters(place types.Place, filters types.SearchFilters) bool {
	if len(filters.Categories) > 0 {
		found := false
		for _, c := range filters.Categories {
			if strings.EqualFold(place.Category, c) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(filters.WeatherSuitability) > 0 {
		if !intersects(place.WeatherSuitability, filters.WeatherSuitability) {
			return false
		}
	}
	return true
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(x, y) {
				return true
			}
		}
	}
	return false
}

// score combines the weighted terms and clamps the result to 1.0.
func (s *ServiceImpl) score(place types.Place, tokens []string, distanceKm *float64, sctx *types.SearchContext) float64 {
	score := s.weights.Text * textRelevance(place, tokens)
	score += s.weights.Rating * (place.Rating / 5.0)

	if distanceKm != nil {
		score += s.weights.Proximity * math.Exp(-proximityDecay**distanceKm)
	}
	if sctx != nil && sctx.Weather != nil {
		score += s.weights.Weather * weatherFit(place, *sctx.Weather)
	}
	if sctx != nil && sctx.TimeOfDay != "" {
		score += s.weights.TimeOfDay * timeOfDayFit(place, sctx.TimeOfDay)
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// textRelevance credits each token once at the strongest tier it hits:
// name 0.4, category 0.3, anywhere in the full text 0.2.
func textRelevance(place types.Place, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	name := strings.ToLower(place.Name)
	category := strings.ToLower(place.Category)
	fullText := searchableText(place)

	var total float64
	for _, token := range tokens {
		switch {
		case strings.Contains(name, token):
			total += 0.4
		case strings.Contains(category, token):
			total += 0.3
		case strings.Contains(fullText, token):
			total += 0.2
		}
	}
	return total / float64(len(tokens))
}

func weatherFit(place types.Place, weather types.WeatherSnapshot) float64 {
	if len(place.WeatherSuitability) == 0 {
		return 0.5
	}
	condition := strings.ToLower(weather.Condition)

	for _, tag := range place.WeatherSuitability {
		if strings.EqualFold(tag, condition) {
			return 1.0
		}
	}
	if strings.Contains(condition, "rain") && hasFoldTag(place.WeatherSuitability, "rainy") {
		return 0.8
	}
	if strings.Contains(condition, "sun") && hasFoldTag(place.WeatherSuitability, "sunny") {
		return 0.8
	}
	if strings.Contains(condition, "cloud") && hasFoldTag(place.WeatherSuitability, "cloudy") {
		return 0.6
	}
	return 0.3
}

var timeOfDaySynonyms = map[types.TimeOfDay][]string{
	types.TimeOfDayMorning:   {"breakfast"},
	types.TimeOfDayAfternoon: {"lunch"},
	types.TimeOfDayEvening:   {"dinner", "night"},
}

func timeOfDayFit(place types.Place, timeOfDay types.TimeOfDay) float64 {
	bestTime := strings.ToLower(place.BestTimeToVisit)
	if strings.Contains(bestTime, string(timeOfDay)) {
		return 1.0
	}
	for _, syn := range timeOfDaySynonyms[timeOfDay] {
		if strings.Contains(bestTime, syn) {
			return 0.8
		}
	}
	return 0.5
}

func hasFoldTag(tags []string, want string) bool {
	for _, tag := range tags {
		if strings.EqualFold(tag, want) {
			return true
		}
	}
	return false
}

// matchingFactors explains why a place surfaced.
func matchingFactors(place types.Place, tokens []string, filters types.SearchFilters) []string {
	var factors []string
	name := strings.ToLower(place.Name)
	category := strings.ToLower(place.Category)

	for _, token := range tokens {
		switch {
		case strings.Contains(name, token):
			factors = append(factors, fmt.Sprintf("Name matches %q", token))
		case strings.Contains(category, token):
			factors = append(factors, fmt.Sprintf("Category matches %q", token))
		}
	}
	for _, c := range filters.Categories {
		if strings.EqualFold(place.Category, c) {
			factors = append(factors, fmt.Sprintf("In requested category %s", c))
		}
	}
	if place.Rating >= 4.0 {
		factors = append(factors, "Highly rated")
	}
	for _, tag := range filters.WeatherSuitability {
		if hasFoldTag(place.WeatherSuitability, tag) {
			factors = append(factors, fmt.Sprintf("Suited for %s weather", tag))
		}
	}
	return factors
}

// recommendations produces the short contextual notes keyed on time of
// day, rating and live weather.
func recommendations(place types.Place, sctx *types.SearchContext) []string {
	var recs []string
	if sctx == nil {
		return recs
	}

	category := strings.ToLower(place.Category)
	switch sctx.TimeOfDay {
	case types.TimeOfDayMorning:
		if strings.Contains(category, "cafe") || strings.Contains(category, "coffee") {
			recs = append(recs, "Great for a morning coffee")
		}
	case types.TimeOfDayAfternoon:
		if strings.Contains(category, "restaurant") || strings.Contains(category, "food") {
			recs = append(recs, "Good lunch option this afternoon")
		}
	case types.TimeOfDayEvening:
		if strings.Contains(category, "bar") || strings.Contains(category, "pub") || strings.Contains(category, "restaurant") {
			recs = append(recs, "Popular evening spot")
		}
	}

	if place.Rating >= 4.5 {
		recs = append(recs, "One of the top rated places around")
	}
	if sctx.Weather != nil && strings.Contains(strings.ToLower(sctx.Weather.Condition), "rain") &&
		(hasFoldTag(place.WeatherSuitability, "rainy") || hasFoldTag(place.WeatherSuitability, "indoor") || hasFoldTag(place.WeatherSuitability, "covered")) {
		recs = append(recs, "A dry choice for a rainy day")
	}
	return recs
}

// haversineKm is the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
