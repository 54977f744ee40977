package types

// PriceTier buckets a place's price expectation for filtering.
type PriceTier string

const (
	PriceTierAny      PriceTier = "any"
	PriceTierBudget   PriceTier = "budget"
	PriceTierModerate PriceTier = "moderate"
	PriceTierPremium  PriceTier = "premium"
)

// TimeRequired buckets how long a visit typically takes.
type TimeRequired string

const (
	TimeRequiredAny       TimeRequired = "any"
	TimeRequiredQuick     TimeRequired = "quick"
	TimeRequiredModerate  TimeRequired = "moderate"
	TimeRequiredLeisurely TimeRequired = "leisurely"
)

// CrowdLevel buckets the expected crowd at a place.
type CrowdLevel string

const (
	CrowdLevelAny      CrowdLevel = "any"
	CrowdLevelLow      CrowdLevel = "low"
	CrowdLevelModerate CrowdLevel = "moderate"
	CrowdLevelHigh     CrowdLevel = "high"
)

// TimeOfDay buckets the caller's local time.
type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
)

// SearchFilters is a per-request value object. It is produced fresh for
// every request and treated as immutable once handed to the ranker.
type SearchFilters struct {
	Categories         []string     `json:"categories,omitempty"`
	PriceTier          PriceTier    `json:"price_tier,omitempty"`
	TimeRequired       TimeRequired `json:"time_required,omitempty"`
	WeatherSuitability []string     `json:"weather_suitability,omitempty"`
	CrowdLevel         CrowdLevel   `json:"crowd_level,omitempty"`
	Accessibility      []string     `json:"accessibility,omitempty"`
	MaxDistanceKm      *float64     `json:"max_distance_km,omitempty"`
}

// WeatherSnapshot is the current weather observation carried in a
// SearchContext.
type WeatherSnapshot struct {
	Condition    string  `json:"condition"`
	TemperatureC float64 `json:"temperature_c"`
	Humidity     float64 `json:"humidity"`
}

// SearchContext carries the situational signals for one request.
type SearchContext struct {
	Weather       *WeatherSnapshot `json:"weather,omitempty"`
	TimeOfDay     TimeOfDay        `json:"time_of_day,omitempty"`
	Location      *Coordinates     `json:"location,omitempty"`
	Preferences   []string         `json:"preferences,omitempty"`
	RecentQueries []string         `json:"recent_queries,omitempty"` // most-recent-first, bounded
}

// SearchResult is a derived, per-query view over a Place. It is never
// persisted.
type SearchResult struct {
	Place           Place    `json:"place"`
	Score           float64  `json:"score"`
	DistanceKm      *float64 `json:"distance_km,omitempty"`
	MatchingFactors []string `json:"matching_factors,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// ParsedQuery is the structured reading of a free-text query. The
// single-valued fields hold the first matching canonical tag of their
// dictionary; CategoryHints accumulates every matching category.
type ParsedQuery struct {
	Mood          string   `json:"mood,omitempty"`
	TimeOfDay     string   `json:"time_of_day,omitempty"`
	CategoryHints []string `json:"category_hints,omitempty"`
	WeatherHint   string   `json:"weather_hint,omitempty"`
	PriceHint     string   `json:"price_hint,omitempty"`
	CrowdHint     string   `json:"crowd_hint,omitempty"`
}
