package types

// Wire shapes for the Google-Places-style provider API. Field names
// follow the provider's JSON contract, not ours.

type ProviderLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ProviderGeometry struct {
	Location ProviderLocation `json:"location"`
}

type ProviderOpeningHours struct {
	OpenNow *bool `json:"open_now,omitempty"`
}

type ProviderPhoto struct {
	PhotoReference string `json:"photo_reference"`
	Height         int    `json:"height"`
	Width          int    `json:"width"`
}

// ProviderPlace is one result row from a nearby search.
type ProviderPlace struct {
	PlaceID          string                `json:"place_id"`
	Name             string                `json:"name"`
	Vicinity         string                `json:"vicinity,omitempty"`
	Rating           *float64              `json:"rating,omitempty"`
	UserRatingsTotal *int                  `json:"user_ratings_total,omitempty"`
	PriceLevel       *int                  `json:"price_level,omitempty"`
	Types            []string              `json:"types,omitempty"`
	Geometry         ProviderGeometry      `json:"geometry"`
	OpeningHours     *ProviderOpeningHours `json:"opening_hours,omitempty"`
	Photos           []ProviderPhoto       `json:"photos,omitempty"`
}

type NearbySearchResponse struct {
	Results []ProviderPlace `json:"results"`
	Status  string          `json:"status"`
}

type ProviderReview struct {
	AuthorName string  `json:"author_name"`
	Rating     float64 `json:"rating"`
	Text       string  `json:"text"`
}

type ProviderEditorialSummary struct {
	Overview string `json:"overview"`
}

// ProviderPlaceDetails is the detail-call projection, a superset of the
// nearby-search row.
type ProviderPlaceDetails struct {
	ProviderPlace
	FormattedPhoneNumber string                    `json:"formatted_phone_number,omitempty"`
	Website              string                    `json:"website,omitempty"`
	Reviews              []ProviderReview          `json:"reviews,omitempty"`
	EditorialSummary     *ProviderEditorialSummary `json:"editorial_summary,omitempty"`
}

type PlaceDetailsResponse struct {
	Result *ProviderPlaceDetails `json:"result"`
	Status string                `json:"status"`
}

type AutocompletePrediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

type AutocompleteResponse struct {
	Predictions []AutocompletePrediction `json:"predictions"`
	Status      string                   `json:"status"`
}
