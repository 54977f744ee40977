package types

import "fmt"

// ProviderIDPrefix marks place identifiers that originate from the
// third-party provider rather than the internal repository.
const ProviderIDPrefix = "google-"

// Place is the canonical venue entity shared by the repository, the
// provider merge layer and the ranking pipeline. The discovery engine
// never mutates a Place; it only produces derived views.
type Place struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Category           string   `json:"category,omitempty"`
	Latitude           float64  `json:"latitude"`
	Longitude          float64  `json:"longitude"`
	Rating             float64  `json:"rating"`
	WeatherSuitability []string `json:"weather_suitability,omitempty"`
	BestTimeToVisit    string   `json:"best_time_to_visit,omitempty"`
	Curated            bool     `json:"curated"`
}

// Validate checks the coordinate and rating invariants.
func (p *Place) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("place %s: latitude %f out of range", p.ID, p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("place %s: longitude %f out of range", p.ID, p.Longitude)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("place %s: rating %f out of range", p.ID, p.Rating)
	}
	return nil
}

// PlaceSource identifies which data source produced an EnhancedPlace.
type PlaceSource string

const (
	PlaceSourceInternal PlaceSource = "internal"
	PlaceSourceProvider PlaceSource = "google"
	PlaceSourceMerged   PlaceSource = "merged"
)

// EnhancedPlace is a Place reconciled with live provider attributes.
type EnhancedPlace struct {
	Place
	Source           PlaceSource `json:"source"`
	ProviderPlaceID  string      `json:"provider_place_id,omitempty"`
	IsOpenNow        *bool       `json:"is_open_now,omitempty"`
	LiveRating       *float64    `json:"live_rating,omitempty"`
	UserRatingsTotal *int        `json:"user_ratings_total,omitempty"`
	PriceLevel       *int        `json:"price_level,omitempty"`
	Photos           []string    `json:"photos,omitempty"`
	PhoneNumber      string      `json:"phone_number,omitempty"`
	Website          string      `json:"website,omitempty"`
}

// Viewport is a geographic bounding box used by map-driven queries.
type Viewport struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Center returns the representative midpoint of the viewport.
func (v Viewport) Center() (lat, lng float64) {
	return (v.North + v.South) / 2, (v.East + v.West) / 2
}

// ViewportOptions narrows a viewport query.
type ViewportOptions struct {
	Categories []string `json:"categories,omitempty"`
	MinRating  float64  `json:"min_rating,omitempty"`
	OpenNow    bool     `json:"open_now,omitempty"`
}

// LiveStatus is the ephemeral open/closed view for a single place.
type LiveStatus struct {
	IsOpen     bool   `json:"is_open"`
	StatusText string `json:"status_text"`
}

// Coordinates is a latitude/longitude pair in floating point degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
