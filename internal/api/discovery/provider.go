package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/localscout/discovery/internal/types"
)

var _ ProviderClient = (*GoogleClient)(nil)

// ProviderClient is the third-party place-data collaborator. All calls
// degrade to empty results when credentials are missing; callers treat
// a failed category as an empty one rather than failing the request.
type ProviderClient interface {
	NearbySearch(ctx context.Context, lat, lng float64, radiusM int, placeType, keyword string) ([]types.ProviderPlace, error)
	PlaceDetails(ctx context.Context, placeID string) (*types.ProviderPlaceDetails, error)
	Autocomplete(ctx context.Context, input string, location *types.Coordinates, radiusM int) ([]types.AutocompletePrediction, error)
	PhotoURL(photoReference string, maxWidth int) string
}

// GoogleClient talks to the Google-Places-shaped HTTP API.
type GoogleClient struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

const defaultProviderBaseURL = "https://maps.googleapis.com/maps/api/place"

// NewGoogleClient creates a provider client. An empty apiKey is valid:
// every call then returns empty results without touching the network.
func NewGoogleClient(apiKey string, logger *slog.Logger) *GoogleClient {
	return &GoogleClient{
		logger:     logger,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultProviderBaseURL,
		apiKey:     apiKey,
	}
}

// NewGoogleClientWithBaseURL is used by tests to point the client at a
// stub server.
func NewGoogleClientWithBaseURL(apiKey, baseURL string, logger *slog.Logger) *GoogleClient {
	c := NewGoogleClient(apiKey, logger)
	c.baseURL = baseURL
	return c
}

func (c *GoogleClient) NearbySearch(ctx context.Context, lat, lng float64, radiusM int, placeType, keyword string) ([]types.ProviderPlace, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("radius", strconv.Itoa(radiusM))
	if placeType != "" {
		params.Set("type", placeType)
	}
	if keyword != "" {
		params.Set("keyword", keyword)
	}
	params.Set("key", c.apiKey)

	var resp types.NearbySearchResponse
	if err := c.getJSON(ctx, "/nearbysearch/json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("nearby search returned status %s", resp.Status)
	}
	return resp.Results, nil
}

func (c *GoogleClient) PlaceDetails(ctx context.Context, placeID string) (*types.ProviderPlaceDetails, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("key", c.apiKey)

	var resp types.PlaceDetailsResponse
	if err := c.getJSON(ctx, "/details/json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("place details returned status %s", resp.Status)
	}
	return resp.Result, nil
}

func (c *GoogleClient) Autocomplete(ctx context.Context, input string, location *types.Coordinates, radiusM int) ([]types.AutocompletePrediction, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("input", input)
	if location != nil {
		params.Set("location", fmt.Sprintf("%f,%f", location.Latitude, location.Longitude))
		params.Set("radius", strconv.Itoa(radiusM))
	}
	params.Set("key", c.apiKey)

	var resp types.AutocompleteResponse
	if err := c.getJSON(ctx, "/autocomplete/json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("autocomplete returned status %s", resp.Status)
	}
	return resp.Predictions, nil
}

// PhotoURL resolves a photo reference through the templated photo
// endpoint. Empty when unauthenticated so clients skip the image.
func (c *GoogleClient) PhotoURL(photoReference string, maxWidth int) string {
	if c.apiKey == "" || photoReference == "" {
		return ""
	}
	return fmt.Sprintf("%s/photo?maxwidth=%d&photo_reference=%s&key=%s",
		c.baseURL, maxWidth, url.QueryEscape(photoReference), c.apiKey)
}

func (c *GoogleClient) getJSON(ctx context.Context, path string, params url.Values, dst interface{}) error {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("building provider request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		// Malformed responses are treated like an unavailable provider.
		c.logger.WarnContext(ctx, "Failed to decode provider response", slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("decoding provider response: %w", err)
	}
	return nil
}
