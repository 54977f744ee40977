package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/localscout/discovery/app/observability/metrics"
	"github.com/localscout/discovery/internal/api/query"
	"github.com/localscout/discovery/internal/api/search"
	"github.com/localscout/discovery/internal/api/weather"
	"github.com/localscout/discovery/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service is the discovery query surface: cached, merged views over
// the internal repository and the third-party provider.
type Service interface {
	Search(ctx context.Context, queryText string, filters types.SearchFilters, sctx *types.SearchContext) ([]types.SearchResult, error)
	Suggest(ctx context.Context, partialQuery string, sctx *types.SearchContext) ([]string, error)
	GetViewportPlaces(ctx context.Context, bounds types.Viewport, opts types.ViewportOptions) ([]types.EnhancedPlace, error)
	GetPlaceDetails(ctx context.Context, id string) (*types.EnhancedPlace, error)
	GetLiveStatus(ctx context.Context, ids []string) (map[string]types.LiveStatus, error)
	ClearCache()
}

// coordMatchEpsilon is the merge-dedup coordinate threshold (~100 m).
// The value is empirical; changing it is a deliberate behaviour change.
const coordMatchEpsilon = 0.001

const maxMergedPhotos = 3

// ServiceImpl provides the implementation for Service.
type ServiceImpl struct {
	logger      *slog.Logger
	repo        Repository
	provider    ProviderClient
	cache       *Cache
	interpreter query.Interpreter
	ranker      search.Service
	weatherSvc  weather.Service
	metrics     *metrics.AppMetrics
}

// SetMetrics attaches the metric instruments. Optional; the service
// works without them so tests need no meter provider.
func (s *ServiceImpl) SetMetrics(m *metrics.AppMetrics) {
	s.metrics = m
}

// NewService creates the discovery service. The cache is injected so
// its lifecycle stays explicit and tests can clear it.
func NewService(
	repo Repository,
	provider ProviderClient,
	cache *Cache,
	interpreter query.Interpreter,
	ranker search.Service,
	weatherSvc weather.Service,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		repo:        repo,
		provider:    provider,
		cache:       cache,
		interpreter: interpreter,
		ranker:      ranker,
		weatherSvc:  weatherSvc,
	}
}

// Search interprets the query, loads the corpus and ranks it. Explicit
// filters from the caller take precedence over interpreted hints.
func (s *ServiceImpl) Search(ctx context.Context, queryText string, filters types.SearchFilters, sctx *types.SearchContext) ([]types.SearchResult, error) {
	ctx, span := otel.Tracer("DiscoveryService").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("query", queryText),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.SearchDurationSeconds.Record(ctx, time.Since(start).Seconds())
		}
	}()

	parsed := s.interpreter.Parse(queryText)
	interpreted := s.interpreter.ToFilters(parsed, sctx)
	merged := mergeFilters(filters, interpreted)

	corpus, err := s.corpus(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load search corpus", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("loading search corpus: %w", err)
	}

	results := s.ranker.Search(ctx, queryText, merged, corpus, sctx)

	// Weather reasoning enriches the top results without re-sorting.
	if sctx != nil && sctx.Weather != nil {
		for i := range results {
			reasons := s.weatherSvc.Reason(results[i].Place, *sctx.Weather)
			results[i].Recommendations = append(results[i].Recommendations, reasons...)
		}
	}

	span.SetAttributes(attribute.Int("results.count", len(results)))
	span.SetStatus(codes.Ok, "Search completed")
	return results, nil
}

// corpus loads the ranker's candidate set, cached under the search TTL.
func (s *ServiceImpl) corpus(ctx context.Context) ([]types.Place, error) {
	const key = "search:corpus"
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]types.Place), nil
	}

	v, _, err := s.cache.Do(key, func() (interface{}, error) {
		places, err := s.repo.ListPlaces(ctx, 0)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, places, searchTTL)
		return places, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.Place), nil
}

// Suggest unions interpreter completions with provider autocomplete.
// Provider failures degrade to local suggestions only.
func (s *ServiceImpl) Suggest(ctx context.Context, partialQuery string, sctx *types.SearchContext) ([]string, error) {
	ctx, span := otel.Tracer("DiscoveryService").Start(ctx, "Suggest")
	defer span.End()

	timeOfDay := types.TimeOfDayAfternoon
	var location *types.Coordinates
	if sctx != nil {
		if sctx.TimeOfDay != "" {
			timeOfDay = sctx.TimeOfDay
		}
		location = sctx.Location
	}

	suggestions := s.interpreter.Suggest(partialQuery, timeOfDay)

	predictions, err := s.provider.Autocomplete(ctx, partialQuery, location, 5000)
	if err != nil {
		s.logger.WarnContext(ctx, "Provider autocomplete failed, using local suggestions", slog.Any("error", err))
	}
	seen := make(map[string]bool, len(suggestions))
	for _, sg := range suggestions {
		seen[sg] = true
	}
	for _, p := range predictions {
		if len(suggestions) >= 6 {
			break
		}
		if !seen[p.Description] {
			seen[p.Description] = true
			suggestions = append(suggestions, p.Description)
		}
	}
	return suggestions, nil
}

// GetViewportPlaces returns the merged place set for a bounding box.
// Identical concurrent requests share one underlying fetch; results are
// cached under the viewport TTL.
func (s *ServiceImpl) GetViewportPlaces(ctx context.Context, bounds types.Viewport, opts types.ViewportOptions) ([]types.EnhancedPlace, error) {
	ctx, span := otel.Tracer("DiscoveryService").Start(ctx, "GetViewportPlaces", trace.WithAttributes(
		attribute.Float64("bounds.north", bounds.North),
		attribute.Float64("bounds.south", bounds.South),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ViewportDurationSeconds.Record(ctx, time.Since(start).Seconds())
		}
	}()

	key := viewportKey(bounds, opts)
	if cached, ok := s.cache.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		if s.metrics != nil {
			s.metrics.CacheHitsTotal.Add(ctx, 1)
		}
		return cached.([]types.EnhancedPlace), nil
	}
	if s.metrics != nil {
		s.metrics.CacheMissesTotal.Add(ctx, 1)
	}

	v, shared, err := s.cache.Do(key, func() (interface{}, error) {
		places, err := s.fetchViewportPlaces(ctx, bounds, opts)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, places, viewportTTL)
		return places, nil
	})
	if shared && s.metrics != nil {
		s.metrics.DedupJoinsTotal.Add(ctx, 1)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	places := v.([]types.EnhancedPlace)
	span.SetAttributes(attribute.Int("places.count", len(places)))
	span.SetStatus(codes.Ok, "Viewport places retrieved")
	return places, nil
}

func (s *ServiceImpl) fetchViewportPlaces(ctx context.Context, bounds types.Viewport, opts types.ViewportOptions) ([]types.EnhancedPlace, error) {
	centerLat, centerLng := bounds.Center()
	radiusM := viewportRadiusM(bounds)

	categories := opts.Categories
	if len(categories) == 0 {
		categories = []string{""}
	}

	// Per-category provider fetches run concurrently; a failed category
	// is logged and skipped so the rest of the request survives.
	var mu sync.Mutex
	var providerPlaces []types.ProviderPlace
	var wg sync.WaitGroup
	for _, category := range categories {
		wg.Add(1)
		go func(category string) {
			defer wg.Done()
			if s.metrics != nil {
				s.metrics.ProviderCallsTotal.Add(ctx, 1)
			}
			results, err := s.provider.NearbySearch(ctx, centerLat, centerLng, radiusM, category, "")
			if err != nil {
				if s.metrics != nil {
					s.metrics.ProviderErrorsTotal.Add(ctx, 1)
				}
				s.logger.WarnContext(ctx, "Provider category fetch failed, skipping",
					slog.String("category", category), slog.Any("error", err))
				return
			}
			mu.Lock()
			providerPlaces = append(providerPlaces, filterProviderPlaces(results, opts)...)
			mu.Unlock()
		}(category)
	}

	internal, repoErr := s.repo.GetPlacesInBounds(ctx, bounds)
	if repoErr != nil {
		// Partial results beat total failure: fall back to provider-only.
		s.logger.ErrorContext(ctx, "Repository viewport query failed, serving provider results only", slog.Any("error", repoErr))
		internal = nil
	}
	wg.Wait()

	return s.mergePlaces(internal, dedupeProviderPlaces(providerPlaces)), nil
}

// mergePlaces reconciles internal and provider records. Internal
// descriptive fields always win; the provider contributes live fields.
func (s *ServiceImpl) mergePlaces(internal []PlaceRecord, providerPlaces []types.ProviderPlace) []types.EnhancedPlace {
	matched := make(map[string]bool, len(providerPlaces))

	var out []types.EnhancedPlace
	for _, rec := range internal {
		enhanced := types.EnhancedPlace{
			Place:           rec.Place,
			Source:          types.PlaceSourceInternal,
			ProviderPlaceID: rec.ProviderPlaceID,
		}
		for idx, pp := range providerPlaces {
			if matched[pp.PlaceID] {
				continue
			}
			if samePlace(rec, pp) {
				enhancePlace(&enhanced, providerPlaces[idx], s.provider)
				matched[pp.PlaceID] = true
				break
			}
		}
		out = append(out, enhanced)
	}

	for _, pp := range providerPlaces {
		if matched[pp.PlaceID] {
			continue
		}
		out = append(out, synthesizePlace(pp, s.provider))
	}
	return out
}

// samePlace implements the merge identity: shared provider ID, or a
// case-insensitive name match with coordinates agreeing within the
// epsilon.
func samePlace(rec PlaceRecord, pp types.ProviderPlace) bool {
	if rec.ProviderPlaceID != "" && rec.ProviderPlaceID == pp.PlaceID {
		return true
	}
	return strings.EqualFold(rec.Name, pp.Name) &&
		math.Abs(rec.Latitude-pp.Geometry.Location.Lat) <= coordMatchEpsilon &&
		math.Abs(rec.Longitude-pp.Geometry.Location.Lng) <= coordMatchEpsilon
}

// enhancePlace overlays the provider's live attributes onto a matched
// internal record without touching its descriptive fields.
func enhancePlace(enhanced *types.EnhancedPlace, pp types.ProviderPlace, provider ProviderClient) {
	enhanced.Source = types.PlaceSourceMerged
	enhanced.ProviderPlaceID = pp.PlaceID
	if pp.OpeningHours != nil && pp.OpeningHours.OpenNow != nil {
		enhanced.IsOpenNow = pp.OpeningHours.OpenNow
	}
	enhanced.LiveRating = pp.Rating
	enhanced.UserRatingsTotal = pp.UserRatingsTotal
	enhanced.PriceLevel = pp.PriceLevel
	for i, photo := range pp.Photos {
		if i >= maxMergedPhotos {
			break
		}
		if u := provider.PhotoURL(photo.PhotoReference, 800); u != "" {
			enhanced.Photos = append(enhanced.Photos, u)
		}
	}
}

// synthesizePlace turns an unmatched provider record into a new place
// with a provenance-prefixed identifier.
func synthesizePlace(pp types.ProviderPlace, provider ProviderClient) types.EnhancedPlace {
	rating := 0.0
	if pp.Rating != nil {
		rating = *pp.Rating
	}
	enhanced := types.EnhancedPlace{
		Place: types.Place{
			ID:          types.ProviderIDPrefix + pp.PlaceID,
			Name:        pp.Name,
			Description: pp.Vicinity,
			Category:    categoryFromTypes(pp.Types),
			Latitude:    pp.Geometry.Location.Lat,
			Longitude:   pp.Geometry.Location.Lng,
			Rating:      rating,
		},
		Source:          types.PlaceSourceProvider,
		ProviderPlaceID: pp.PlaceID,
	}
	if pp.OpeningHours != nil && pp.OpeningHours.OpenNow != nil {
		enhanced.IsOpenNow = pp.OpeningHours.OpenNow
	}
	enhanced.LiveRating = pp.Rating
	enhanced.UserRatingsTotal = pp.UserRatingsTotal
	enhanced.PriceLevel = pp.PriceLevel
	for i, photo := range pp.Photos {
		if i >= maxMergedPhotos {
			break
		}
		if u := provider.PhotoURL(photo.PhotoReference, 800); u != "" {
			enhanced.Photos = append(enhanced.Photos, u)
		}
	}
	return enhanced
}

// providerTypeCategories maps provider place types onto our category
// vocabulary, most specific first.
var providerTypeCategories = []struct {
	providerType string
	category     string
}{
	{"cafe", "cafe"},
	{"coffee_shop", "cafe"},
	{"restaurant", "restaurant"},
	{"bar", "bar"},
	{"night_club", "club"},
	{"shopping_mall", "mall"},
	{"park", "park"},
	{"museum", "museum"},
	{"art_gallery", "gallery"},
	{"movie_theater", "theatre"},
	{"supermarket", "market"},
	{"store", "boutique"},
}

func categoryFromTypes(providerTypes []string) string {
	for _, mapping := range providerTypeCategories {
		for _, t := range providerTypes {
			if t == mapping.providerType {
				return mapping.category
			}
		}
	}
	if len(providerTypes) > 0 {
		return providerTypes[0]
	}
	return ""
}

// GetPlaceDetails routes by identifier prefix, caching either path
// under the static details TTL. Unknown IDs return (nil, nil).
func (s *ServiceImpl) GetPlaceDetails(ctx context.Context, id string) (*types.EnhancedPlace, error) {
	ctx, span := otel.Tracer("DiscoveryService").Start(ctx, "GetPlaceDetails", trace.WithAttributes(
		attribute.String("place.id", id),
	))
	defer span.End()

	key := detailsKey(id)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*types.EnhancedPlace), nil
	}

	v, _, err := s.cache.Do(key, func() (interface{}, error) {
		var place *types.EnhancedPlace
		var err error
		if strings.HasPrefix(id, types.ProviderIDPrefix) {
			place, err = s.providerDetails(ctx, strings.TrimPrefix(id, types.ProviderIDPrefix))
		} else {
			place, err = s.internalDetails(ctx, id)
		}
		if err != nil {
			return nil, err
		}
		if place != nil {
			s.cache.Set(key, place, detailsTTL)
		}
		return place, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	place, _ := v.(*types.EnhancedPlace)
	span.SetStatus(codes.Ok, "Place details resolved")
	return place, nil
}

func (s *ServiceImpl) providerDetails(ctx context.Context, providerID string) (*types.EnhancedPlace, error) {
	details, err := s.provider.PlaceDetails(ctx, providerID)
	if err != nil {
		s.logger.WarnContext(ctx, "Provider details fetch failed", slog.Any("error", err))
		return nil, nil
	}
	if details == nil {
		return nil, nil
	}
	enhanced := synthesizePlace(details.ProviderPlace, s.provider)
	enhanced.PhoneNumber = details.FormattedPhoneNumber
	enhanced.Website = details.Website
	if details.EditorialSummary != nil && details.EditorialSummary.Overview != "" {
		enhanced.Description = details.EditorialSummary.Overview
	}
	return &enhanced, nil
}

func (s *ServiceImpl) internalDetails(ctx context.Context, id string) (*types.EnhancedPlace, error) {
	placeID, err := uuid.Parse(id)
	if err != nil {
		// Not a repository identifier; treat as unknown.
		return nil, nil
	}
	record, err := s.repo.GetPlaceByID(ctx, placeID)
	if err != nil {
		return nil, fmt.Errorf("reading place %s: %w", id, err)
	}
	if record == nil {
		return nil, nil
	}

	enhanced := types.EnhancedPlace{
		Place:           record.Place,
		Source:          types.PlaceSourceInternal,
		ProviderPlaceID: record.ProviderPlaceID,
	}
	if record.ProviderPlaceID != "" {
		if details, err := s.provider.PlaceDetails(ctx, record.ProviderPlaceID); err != nil {
			s.logger.WarnContext(ctx, "Live enrichment failed, serving repository record", slog.Any("error", err))
		} else if details != nil {
			enhancePlace(&enhanced, details.ProviderPlace, s.provider)
			enhanced.PhoneNumber = details.FormattedPhoneNumber
			enhanced.Website = details.Website
		}
	}
	return &enhanced, nil
}

// GetLiveStatus resolves open/closed state per place ID under the
// dynamic TTL. IDs without provider data report "Status unavailable".
func (s *ServiceImpl) GetLiveStatus(ctx context.Context, ids []string) (map[string]types.LiveStatus, error) {
	ctx, span := otel.Tracer("DiscoveryService").Start(ctx, "GetLiveStatus", trace.WithAttributes(
		attribute.Int("ids.count", len(ids)),
	))
	defer span.End()

	out := make(map[string]types.LiveStatus, len(ids))
	for _, id := range ids {
		key := liveStatusKey(id)
		if cached, ok := s.cache.Get(key); ok {
			out[id] = cached.(types.LiveStatus)
			continue
		}

		status := s.resolveLiveStatus(ctx, id)
		s.cache.Set(key, status, dynamicTTL)
		out[id] = status
	}
	return out, nil
}

func (s *ServiceImpl) resolveLiveStatus(ctx context.Context, id string) types.LiveStatus {
	providerID := ""
	if strings.HasPrefix(id, types.ProviderIDPrefix) {
		providerID = strings.TrimPrefix(id, types.ProviderIDPrefix)
	} else if placeID, err := uuid.Parse(id); err == nil {
		if record, err := s.repo.GetPlaceByID(ctx, placeID); err == nil && record != nil {
			providerID = record.ProviderPlaceID
		}
	}
	if providerID == "" {
		return types.LiveStatus{StatusText: "Status unavailable"}
	}

	details, err := s.provider.PlaceDetails(ctx, providerID)
	if err != nil || details == nil || details.OpeningHours == nil || details.OpeningHours.OpenNow == nil {
		return types.LiveStatus{StatusText: "Status unavailable"}
	}
	if *details.OpeningHours.OpenNow {
		return types.LiveStatus{IsOpen: true, StatusText: "Open now"}
	}
	return types.LiveStatus{IsOpen: false, StatusText: "Closed"}
}

// ClearCache drops every cached entry.
func (s *ServiceImpl) ClearCache() {
	s.cache.Clear()
}

// mergeFilters overlays interpreted hints underneath explicit caller
// filters; explicit values win field by field.
func mergeFilters(explicit, interpreted types.SearchFilters) types.SearchFilters {
	out := explicit
	if len(out.Categories) == 0 {
		out.Categories = interpreted.Categories
	}
	if len(out.WeatherSuitability) == 0 {
		out.WeatherSuitability = interpreted.WeatherSuitability
	}
	if out.CrowdLevel == "" || out.CrowdLevel == types.CrowdLevelAny {
		out.CrowdLevel = interpreted.CrowdLevel
	}
	if out.PriceTier == "" || out.PriceTier == types.PriceTierAny {
		out.PriceTier = interpreted.PriceTier
	}
	return out
}

// filterProviderPlaces applies the viewport options to one provider
// category response.
func filterProviderPlaces(results []types.ProviderPlace, opts types.ViewportOptions) []types.ProviderPlace {
	var filtered []types.ProviderPlace
	for _, pp := range results {
		if opts.MinRating > 0 && (pp.Rating == nil || *pp.Rating < opts.MinRating) {
			continue
		}
		if opts.OpenNow && (pp.OpeningHours == nil || pp.OpeningHours.OpenNow == nil || !*pp.OpeningHours.OpenNow) {
			continue
		}
		filtered = append(filtered, pp)
	}
	return filtered
}

// dedupeProviderPlaces collapses duplicates across category fetches.
func dedupeProviderPlaces(places []types.ProviderPlace) []types.ProviderPlace {
	seen := make(map[string]bool, len(places))
	var out []types.ProviderPlace
	for _, pp := range places {
		if seen[pp.PlaceID] {
			continue
		}
		seen[pp.PlaceID] = true
		out = append(out, pp)
	}
	return out
}

// viewportRadiusM approximates the bounding box with a radius covering
// its half-diagonal, capped at the provider's 50 km limit.
func viewportRadiusM(bounds types.Viewport) int {
	centerLat, _ := bounds.Center()
	latKm := (bounds.North - bounds.South) * 111.0
	lngKm := (bounds.East - bounds.West) * 111.0 * math.Cos(centerLat*math.Pi/180)
	radiusKm := math.Sqrt(latKm*latKm+lngKm*lngKm) / 2
	radiusM := int(radiusKm * 1000)
	if radiusM < 100 {
		radiusM = 100
	}
	if radiusM > 50000 {
		radiusM = 50000
	}
	return radiusM
}
