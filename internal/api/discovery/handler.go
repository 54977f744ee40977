package discovery

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/localscout/discovery/internal/api"
	"github.com/localscout/discovery/internal/types"
)

// HandlerImpl exposes the discovery query surface over HTTP.
type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

// NewHandlerImpl creates a new discovery handler instance.
func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service: service,
		logger:  logger,
	}
}

// SearchRequest is the POST /search body.
type SearchRequest struct {
	Query   string               `json:"query"`
	Filters types.SearchFilters  `json:"filters"`
	Context *types.SearchContext `json:"context,omitempty"`
}

// Search ranks places for a free-text query plus optional filters and
// situational context.
func (h *HandlerImpl) Search(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DiscoveryHandler").Start(r.Context(), "Search", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/discovery/search"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Search"))

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	results, err := h.service.Search(ctx, req.Query, req.Filters, req.Context)
	if err != nil {
		l.ErrorContext(ctx, "Search failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Search failed")
		return
	}
	if results == nil {
		results = []types.SearchResult{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, results)
}

// Suggest returns query completions for a partial input.
func (h *HandlerImpl) Suggest(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DiscoveryHandler").Start(r.Context(), "Suggest", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/discovery/suggest"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Suggest"))

	sctx := &types.SearchContext{
		TimeOfDay: types.TimeOfDay(r.URL.Query().Get("time_of_day")),
	}
	suggestions, err := h.service.Suggest(ctx, r.URL.Query().Get("q"), sctx)
	if err != nil {
		l.ErrorContext(ctx, "Suggest failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Suggest failed")
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, suggestions)
}

// GetViewportPlaces returns the merged place set for a bounding box.
func (h *HandlerImpl) GetViewportPlaces(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DiscoveryHandler").Start(r.Context(), "GetViewportPlaces", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/discovery/viewport"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetViewportPlaces"))

	bounds, err := parseViewport(r)
	if err != nil {
		l.ErrorContext(ctx, "Invalid viewport bounds", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid viewport bounds")
		return
	}

	opts := types.ViewportOptions{
		OpenNow: r.URL.Query().Get("open_now") == "true",
	}
	if categories := r.URL.Query().Get("categories"); categories != "" {
		opts.Categories = strings.Split(categories, ",")
	}
	if minRating := r.URL.Query().Get("min_rating"); minRating != "" {
		opts.MinRating, _ = strconv.ParseFloat(minRating, 64)
	}

	places, err := h.service.GetViewportPlaces(ctx, bounds, opts)
	if err != nil {
		l.ErrorContext(ctx, "Viewport query failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Viewport query failed")
		return
	}
	if places == nil {
		places = []types.EnhancedPlace{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, places)
}

// GetPlaceDetails returns a single enhanced place or 404.
func (h *HandlerImpl) GetPlaceDetails(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DiscoveryHandler").Start(r.Context(), "GetPlaceDetails", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/discovery/places/{id}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetPlaceDetails"))

	id := chi.URLParam(r, "id")
	if id == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Place ID is required")
		return
	}

	place, err := h.service.GetPlaceDetails(ctx, id)
	if err != nil {
		l.ErrorContext(ctx, "Place details lookup failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Place details lookup failed")
		return
	}
	if place == nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "Place not found")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, place)
}

// LiveStatusRequest is the POST /live-status body.
type LiveStatusRequest struct {
	IDs []string `json:"ids"`
}

// GetLiveStatus returns open/closed state for a batch of place IDs.
func (h *HandlerImpl) GetLiveStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DiscoveryHandler").Start(r.Context(), "GetLiveStatus", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/discovery/live-status"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetLiveStatus"))

	var req LiveStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		api.ErrorResponse(w, r, http.StatusBadRequest, "At least one place ID is required")
		return
	}

	statuses, err := h.service.GetLiveStatus(ctx, req.IDs)
	if err != nil {
		l.ErrorContext(ctx, "Live status lookup failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Live status lookup failed")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, statuses)
}

func parseViewport(r *http.Request) (types.Viewport, error) {
	var bounds types.Viewport
	var err error
	q := r.URL.Query()
	if bounds.North, err = strconv.ParseFloat(q.Get("north"), 64); err != nil {
		return bounds, err
	}
	if bounds.South, err = strconv.ParseFloat(q.Get("south"), 64); err != nil {
		return bounds, err
	}
	if bounds.East, err = strconv.ParseFloat(q.Get("east"), 64); err != nil {
		return bounds, err
	}
	if bounds.West, err = strconv.ParseFloat(q.Get("west"), 64); err != nil {
		return bounds, err
	}
	return bounds, nil
}
