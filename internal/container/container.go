package container

import (
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/localscout/discovery/app/db"
	"github.com/localscout/discovery/app/observability/metrics"
	"github.com/localscout/discovery/config"
	"github.com/localscout/discovery/internal/api/discovery"
	"github.com/localscout/discovery/internal/api/query"
	"github.com/localscout/discovery/internal/api/search"
	"github.com/localscout/discovery/internal/api/weather"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *slog.Logger
	Pool             *pgxpool.Pool
	Cache            *discovery.Cache
	DiscoveryHandler *discovery.HandlerImpl
	DiscoveryService discovery.Service
}

// NewContainer initializes and returns a new dependency container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	// Initialize database
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	// Initialize repositories and collaborators
	placeRepo := discovery.NewPostgresRepository(pool, logger)
	apiKeyEnv := cfg.Provider.APIKeyEnv
	if apiKeyEnv == "" {
		apiKeyEnv = "PLACES_API_KEY"
	}
	providerClient := discovery.NewGoogleClient(os.Getenv(apiKeyEnv), logger)
	cache := discovery.NewCache()

	// Initialize services
	interpreter := query.NewInterpreter(logger)
	ranker := search.NewService(logger)
	weatherService := weather.NewService(logger)
	discoveryService := discovery.NewService(placeRepo, providerClient, cache, interpreter, ranker, weatherService, logger)
	metrics.InitAppMetrics()
	discoveryService.SetMetrics(metrics.Get())

	// Initialize HandlerImpls
	discoveryHandler := discovery.NewHandlerImpl(discoveryService, logger)

	return &Container{
		Config:           cfg,
		Logger:           logger,
		Pool:             pool,
		Cache:            cache,
		DiscoveryHandler: discoveryHandler,
		DiscoveryService: discoveryService,
	}, nil
}

// Close releases pooled resources.
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
