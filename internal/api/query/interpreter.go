package query

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/localscout/discovery/internal/types"
)

var _ Interpreter = (*InterpreterImpl)(nil)

// Interpreter turns free-text queries into structured filter hints.
// Parsing is pure and deterministic; the pattern tables are fixed at
// construction time so tests can substitute fixtures.
type Interpreter interface {
	Parse(query string) types.ParsedQuery
	ToFilters(parsed types.ParsedQuery, sctx *types.SearchContext) types.SearchFilters
	Suggest(partialQuery string, timeOfDay types.TimeOfDay) []string
}

// Patterns holds the trigger dictionaries. Each dictionary maps a
// canonical tag to its trigger substrings. Single-valued dictionaries
// (mood, time, weather, price, crowd) resolve to the first tag with any
// match; the category dictionary accumulates every matching tag.
type Patterns struct {
	Mood     []PatternEntry
	Time     []PatternEntry
	Category []PatternEntry
	Weather  []PatternEntry
	Price    []PatternEntry
	Crowd    []PatternEntry

	// CategoryExpansion maps a category hint to the concrete place
	// categories it covers.
	CategoryExpansion map[string][]string

	// Completions maps a trigger substring to full query suggestions.
	Completions map[string][]string

	// TimeOfDaySuggestions are the generic fallbacks per time bucket.
	TimeOfDaySuggestions map[types.TimeOfDay][]string
}

// PatternEntry pairs a canonical tag with its trigger substrings.
// Order matters: dictionaries are scanned top to bottom.
type PatternEntry struct {
	Tag      string
	Triggers []string
}

// DefaultPatterns returns the built-in trigger dictionaries.
func DefaultPatterns() Patterns {
	return Patterns{
		Mood: []PatternEntry{
			{Tag: "quiet", Triggers: []string{"quiet", "calm", "peaceful", "silent", "relax"}},
			{Tag: "lively", Triggers: []string{"lively", "busy", "buzzing", "vibrant", "happening"}},
			{Tag: "romantic", Triggers: []string{"romantic", "date", "couple"}},
			{Tag: "family", Triggers: []string{"family", "kids", "children"}},
		},
		Time: []PatternEntry{
			{Tag: "morning", Triggers: []string{"morning", "breakfast", "sunrise", "early"}},
			{Tag: "afternoon", Triggers: []string{"afternoon", "lunch", "midday"}},
			{Tag: "evening", Triggers: []string{"evening", "dinner", "night", "sunset", "late"}},
		},
		Category: []PatternEntry{
			{Tag: "coffee", Triggers: []string{"coffee", "cafe", "espresso", "latte", "brew"}},
			{Tag: "food", Triggers: []string{"food", "eat", "restaurant", "meal", "hungry", "cuisine"}},
			{Tag: "shopping", Triggers: []string{"shop", "mall", "market", "boutique", "buy"}},
			{Tag: "park", Triggers: []string{"park", "garden", "green", "walk", "nature"}},
			{Tag: "culture", Triggers: []string{"museum", "gallery", "art", "theatre", "history"}},
			{Tag: "nightlife", Triggers: []string{"bar", "pub", "club", "drinks", "beer", "cocktail"}},
		},
		Weather: []PatternEntry{
			{Tag: "rainy", Triggers: []string{"rain", "rainy", "wet", "monsoon", "drizzle"}},
			{Tag: "sunny", Triggers: []string{"sunny", "sunshine", "clear sky", "bright"}},
			{Tag: "indoor", Triggers: []string{"indoor", "inside", "air conditioned", "ac"}},
			{Tag: "outdoor", Triggers: []string{"outdoor", "outside", "open air", "rooftop"}},
		},
		Price: []PatternEntry{
			{Tag: "budget", Triggers: []string{"cheap", "budget", "affordable", "inexpensive"}},
			{Tag: "premium", Triggers: []string{"fancy", "premium", "upscale", "luxury", "expensive"}},
		},
		Crowd: []PatternEntry{
			{Tag: "low", Triggers: []string{"empty", "uncrowded", "hidden", "secret"}},
			{Tag: "high", Triggers: []string{"popular", "crowded", "famous", "trending"}},
		},
		CategoryExpansion: map[string][]string{
			"coffee":    {"cafe", "coffee_shop"},
			"food":      {"restaurant", "food_court"},
			"shopping":  {"mall", "market", "boutique"},
			"park":      {"park", "garden"},
			"culture":   {"museum", "gallery", "theatre"},
			"nightlife": {"bar", "pub", "club"},
		},
		Completions: map[string][]string{
			"coff": {"coffee near me", "quiet coffee shop", "coffee and breakfast"},
			"quie": {"quiet places to relax", "quiet morning coffee"},
			"rain": {"rainy day indoor places", "covered markets"},
			"walk": {"evening walk in the park", "walking trails nearby"},
			"din":  {"dinner places nearby", "romantic dinner spot"},
		},
		TimeOfDaySuggestions: map[types.TimeOfDay][]string{
			types.TimeOfDayMorning:   {"breakfast spots", "morning walks", "quiet coffee shop"},
			types.TimeOfDayAfternoon: {"lunch nearby", "air conditioned cafes", "museums to visit"},
			types.TimeOfDayEvening:   {"dinner places nearby", "rooftop bars", "evening walk in the park"},
		},
	}
}

// InterpreterImpl provides the implementation for Interpreter.
type InterpreterImpl struct {
	logger   *slog.Logger
	patterns Patterns
}

// NewInterpreter creates an interpreter with the default dictionaries.
func NewInterpreter(logger *slog.Logger) *InterpreterImpl {
	return NewInterpreterWithPatterns(DefaultPatterns(), logger)
}

// NewInterpreterWithPatterns creates an interpreter over the given
// dictionaries. Intended for tests that need fixture tables.
func NewInterpreterWithPatterns(patterns Patterns, logger *slog.Logger) *InterpreterImpl {
	return &InterpreterImpl{
		logger:   logger,
		patterns: patterns,
	}
}

// Parse lower-cases the query and scans each dictionary independently,
// so a single query can yield a mood, a time bucket and a weather hint
// at once.
func (i *InterpreterImpl) Parse(query string) types.ParsedQuery {
	q := strings.ToLower(query)

	parsed := types.ParsedQuery{
		Mood:        firstMatch(i.patterns.Mood, q),
		TimeOfDay:   firstMatch(i.patterns.Time, q),
		WeatherHint: firstMatch(i.patterns.Weather, q),
		PriceHint:   firstMatch(i.patterns.Price, q),
		CrowdHint:   firstMatch(i.patterns.Crowd, q),
	}

	// Categories accumulate: "coffee and shopping" spans two.
	for _, entry := range i.patterns.Category {
		if anyTrigger(entry.Triggers, q) {
			parsed.CategoryHints = append(parsed.CategoryHints, entry.Tag)
		}
	}
	return parsed
}

// ToFilters maps a parsed query plus situational context onto concrete
// search filters.
func (i *InterpreterImpl) ToFilters(parsed types.ParsedQuery, sctx *types.SearchContext) types.SearchFilters {
	var filters types.SearchFilters

	switch parsed.Mood {
	case "quiet":
		filters.CrowdLevel = types.CrowdLevelLow
	case "lively":
		filters.CrowdLevel = types.CrowdLevelHigh
	}

	liveRain := sctx != nil && sctx.Weather != nil &&
		strings.Contains(strings.ToLower(sctx.Weather.Condition), "rain")

	switch {
	case parsed.WeatherHint == "rainy" || liveRain:
		filters.WeatherSuitability = []string{"rainy", "covered", "indoor"}
	case parsed.WeatherHint == "sunny":
		filters.WeatherSuitability = []string{"sunny", "outdoor"}
	}

	seen := make(map[string]bool)
	for _, hint := range parsed.CategoryHints {
		expansions, ok := i.patterns.CategoryExpansion[hint]
		if !ok {
			expansions = []string{hint}
		}
		for _, c := range expansions {
			if !seen[c] {
				seen[c] = true
				filters.Categories = append(filters.Categories, c)
			}
		}
	}

	if parsed.PriceHint != "" {
		filters.PriceTier = types.PriceTier(parsed.PriceHint)
	}
	if parsed.CrowdHint != "" {
		filters.CrowdLevel = types.CrowdLevel(parsed.CrowdHint)
	}

	return filters
}

const maxSuggestions = 6

// Suggest returns up to six deduplicated completions: pattern-triggered
// completions first, then time-of-day generics.
func (i *InterpreterImpl) Suggest(partialQuery string, timeOfDay types.TimeOfDay) []string {
	q := strings.ToLower(strings.TrimSpace(partialQuery))

	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if len(out) < maxSuggestions && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	if q != "" {
		triggers := make([]string, 0, len(i.patterns.Completions))
		for trigger := range i.patterns.Completions {
			triggers = append(triggers, trigger)
		}
		sort.Strings(triggers) // map order is not stable
		for _, trigger := range triggers {
			if strings.Contains(q, trigger) || strings.HasPrefix(trigger, q) {
				for _, c := range i.patterns.Completions[trigger] {
					add(c)
				}
			}
		}
	}
	for _, s := range i.patterns.TimeOfDaySuggestions[timeOfDay] {
		add(s)
	}
	return out
}

func firstMatch(entries []PatternEntry, q string) string {
	for _, entry := range entries {
		if anyTrigger(entry.Triggers, q) {
			return entry.Tag
		}
	}
	return ""
}

func anyTrigger(triggers []string, q string) bool {
	for _, t := range triggers {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}
