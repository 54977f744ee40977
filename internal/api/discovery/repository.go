package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/localscout/discovery/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

// PlaceRecord is an internal repository row: a Place plus its optional
// provider linkage used by the merge layer.
type PlaceRecord struct {
	types.Place
	ProviderPlaceID string
}

// Repository is the internal place store. The write path is owned
// elsewhere; the discovery engine only reads.
type Repository interface {
	GetPlacesInBounds(ctx context.Context, bounds types.Viewport) ([]PlaceRecord, error)
	GetPlaceByID(ctx context.Context, id uuid.UUID) (*PlaceRecord, error)
	ListPlaces(ctx context.Context, limit int) ([]types.Place, error)
}

// querier is the subset of pgxpool.Pool the repository needs. Tests
// substitute a pgxmock pool.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RepositoryImpl provides the pgx implementation for Repository.
type RepositoryImpl struct {
	logger *slog.Logger
	pgpool querier
}

// NewPostgresRepository creates a new place repository instance.
func NewPostgresRepository(pgpool *pgxpool.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

const placeColumns = `id, name, description, COALESCE(category, ''), latitude, longitude,
	rating, weather_suitability, COALESCE(best_time_to_visit, ''), curated, COALESCE(provider_place_id, '')`

// GetPlacesInBounds returns every place whose coordinates fall inside
// the viewport.
func (r *RepositoryImpl) GetPlacesInBounds(ctx context.Context, bounds types.Viewport) ([]PlaceRecord, error) {
	ctx, span := otel.Tracer("DiscoveryRepository").Start(ctx, "GetPlacesInBounds", trace.WithAttributes(
		attribute.Float64("bounds.north", bounds.North),
		attribute.Float64("bounds.south", bounds.South),
	))
	defer span.End()

	query := fmt.Sprintf(`
        SELECT %s
        FROM places
        WHERE latitude BETWEEN $1 AND $2
          AND longitude BETWEEN $3 AND $4`, placeColumns)

	rows, err := r.pgpool.Query(ctx, query, bounds.South, bounds.North, bounds.West, bounds.East)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query places in bounds", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("querying places in bounds: %w", err)
	}
	defer rows.Close()

	records, err := scanPlaceRecords(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "Places retrieved")
	return records, nil
}

// GetPlaceByID returns a single place or nil when unknown.
func (r *RepositoryImpl) GetPlaceByID(ctx context.Context, id uuid.UUID) (*PlaceRecord, error) {
	ctx, span := otel.Tracer("DiscoveryRepository").Start(ctx, "GetPlaceByID", trace.WithAttributes(
		attribute.String("place.id", id.String()),
	))
	defer span.End()

	query := fmt.Sprintf(`SELECT %s FROM places WHERE id = $1`, placeColumns)

	record, err := scanPlaceRecord(r.pgpool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query place by ID", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("querying place by id: %w", err)
	}

	span.SetStatus(codes.Ok, "Place retrieved")
	return record, nil
}

// ListPlaces returns the search corpus, curated places first.
func (r *RepositoryImpl) ListPlaces(ctx context.Context, limit int) ([]types.Place, error) {
	ctx, span := otel.Tracer("DiscoveryRepository").Start(ctx, "ListPlaces")
	defer span.End()

	if limit <= 0 {
		limit = 500
	}
	query := fmt.Sprintf(`SELECT %s FROM places ORDER BY curated DESC, rating DESC LIMIT $1`, placeColumns)

	rows, err := r.pgpool.Query(ctx, query, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list places", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("listing places: %w", err)
	}
	defer rows.Close()

	records, err := scanPlaceRecords(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	places := make([]types.Place, len(records))
	for i, rec := range records {
		places[i] = rec.Place
	}
	span.SetStatus(codes.Ok, "Places listed")
	return places, nil
}

func scanPlaceRecords(rows pgx.Rows) ([]PlaceRecord, error) {
	var records []PlaceRecord
	for rows.Next() {
		record, err := scanPlaceRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating place rows: %w", err)
	}
	return records, nil
}

func scanPlaceRecord(row pgx.Row) (*PlaceRecord, error) {
	var record PlaceRecord
	var id uuid.UUID
	err := row.Scan(
		&id,
		&record.Name,
		&record.Description,
		&record.Category,
		&record.Latitude,
		&record.Longitude,
		&record.Rating,
		&record.WeatherSuitability,
		&record.BestTimeToVisit,
		&record.Curated,
		&record.ProviderPlaceID,
	)
	if err != nil {
		return nil, err
	}
	record.ID = id.String()
	return &record, nil
}
