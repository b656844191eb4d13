// Package app wires the rota service together: database connections,
// repositories, domain services, and the command and query handlers the
// API and CLI adapters call.
package app

import (
	"context"
	"fmt"
	"log/slog"

	availCommands "github.com/domicare/rota/internal/availability/application/commands"
	availQueries "github.com/domicare/rota/internal/availability/application/queries"
	availServices "github.com/domicare/rota/internal/availability/application/services"
	availabilityDomain "github.com/domicare/rota/internal/availability/domain"
	dirCommands "github.com/domicare/rota/internal/directory/application/commands"
	dirQueries "github.com/domicare/rota/internal/directory/application/queries"
	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	"github.com/domicare/rota/internal/directory/infrastructure/geocoding"
	schedCommands "github.com/domicare/rota/internal/scheduling/application/commands"
	schedQueries "github.com/domicare/rota/internal/scheduling/application/queries"
	schedServices "github.com/domicare/rota/internal/scheduling/application/services"
	schedSubscribers "github.com/domicare/rota/internal/scheduling/application/subscribers"
	schedulingDomain "github.com/domicare/rota/internal/scheduling/domain"
	"github.com/domicare/rota/internal/scheduling/infrastructure/routing"
	settingsCommands "github.com/domicare/rota/internal/settings/application/commands"
	settingsQueries "github.com/domicare/rota/internal/settings/application/queries"
	settingsServices "github.com/domicare/rota/internal/settings/application/services"
	settingsDomain "github.com/domicare/rota/internal/settings/domain"
	sharedApplication "github.com/domicare/rota/internal/shared/application"
	"github.com/domicare/rota/internal/shared/infrastructure/database"
	"github.com/domicare/rota/internal/shared/infrastructure/database/postgres"
	"github.com/domicare/rota/internal/shared/infrastructure/database/sqlite"
	"github.com/domicare/rota/internal/shared/infrastructure/eventbus"
	"github.com/domicare/rota/internal/shared/infrastructure/migrations"
	"github.com/domicare/rota/internal/shared/infrastructure/outbox"
	"github.com/domicare/rota/pkg/config"
	"github.com/domicare/rota/pkg/geo"
	"github.com/domicare/rota/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Observability. Metrics backs the /metrics snapshot; Health holds
	// one checker per connected dependency.
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Database
	Conn   database.Connection
	Driver database.Driver

	// Redis (optional, backs the shared travel cache)
	RedisClient *redis.Client

	// Routing planner when an OSRM service is configured, kept for its
	// health check.
	osrm *routing.OSRMPlanner

	// Repositories
	CareGiverRepo    directoryDomain.CareGiverRepository
	CareReceiverRepo directoryDomain.CareReceiverRepository
	AppointmentRepo  schedulingDomain.AppointmentRepository
	VersionRepo      availabilityDomain.Repository
	SettingsRepo     settingsDomain.Repository
	OutboxRepo       outbox.Repository

	// Publishers
	EventPublisher eventbus.Publisher

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// External clients
	Geocoder      *geocoding.Client
	TravelPlanner schedServices.TravelPlanner

	// Domain services
	VersionResolver *availServices.VersionResolver
	Settings        *settingsServices.CachedSettings
	Oracle          *schedServices.FeasibilityOracle
	Engine          *schedServices.AssignmentEngine
	Validator       *schedServices.ScheduleValidator
	Analyzer        *schedServices.MatchAnalyzer

	// Scheduling command handlers
	GenerateScheduleHandler        *schedCommands.GenerateScheduleHandler
	CreateAppointmentHandler       *schedCommands.CreateAppointmentHandler
	UpdateAppointmentStatusHandler *schedCommands.UpdateAppointmentStatusHandler
	DeleteAppointmentHandler       *schedCommands.DeleteAppointmentHandler
	ValidateScheduleHandler        *schedCommands.ValidateScheduleHandler

	// Scheduling query handlers
	ListAppointmentsHandler   *schedQueries.ListAppointmentsHandler
	GetAppointmentHandler     *schedQueries.GetAppointmentHandler
	UnscheduledVisitsHandler  *schedQueries.UnscheduledVisitsHandler
	AnalyzeUnscheduledHandler *schedQueries.AnalyzeUnscheduledHandler
	FindAvailableHandler      *schedQueries.FindAvailableHandler
	ScheduleStatsHandler      *schedQueries.ScheduleStatsHandler

	// Directory command handlers
	CreateCareGiverHandler        *dirCommands.CreateCareGiverHandler
	UpdateCareGiverHandler        *dirCommands.UpdateCareGiverHandler
	DeactivateCareGiverHandler    *dirCommands.DeactivateCareGiverHandler
	CreateCareReceiverHandler     *dirCommands.CreateCareReceiverHandler
	UpdateCareReceiverHandler     *dirCommands.UpdateCareReceiverHandler
	DeactivateCareReceiverHandler *dirCommands.DeactivateCareReceiverHandler

	// Directory query handlers
	GetCareGiverHandler      *dirQueries.GetCareGiverHandler
	ListCareGiversHandler    *dirQueries.ListCareGiversHandler
	GetCareReceiverHandler   *dirQueries.GetCareReceiverHandler
	ListCareReceiversHandler *dirQueries.ListCareReceiversHandler

	// Availability handlers
	CreateVersionHandler     *availCommands.CreateVersionHandler
	GetCurrentVersionHandler *availQueries.GetCurrentVersionHandler
	GetHistoryHandler        *availQueries.GetHistoryHandler

	// Settings handlers
	UpdateSettingsHandler *settingsCommands.UpdateSettingsHandler
	GetSettingsHandler    *settingsQueries.GetSettingsHandler

	// Event subscribers
	RevalidationSubscriber *schedSubscribers.RevalidationSubscriber

	// Outbox processor
	OutboxProcessor *outbox.Processor
}

// NewContainer creates a fully wired container for server mode. The
// database driver is resolved from configuration; Redis, RabbitMQ,
// routing, and geocoding are optional and degrade to local fallbacks
// in development.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
	}

	if err := c.connectDatabase(ctx); err != nil {
		return nil, err
	}

	// Connect to Redis (optional, required only for the shared travel
	// cache)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				c.Conn.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, travel cache disabled", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					c.Conn.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, travel cache disabled", "error", err)
			} else {
				c.RedisClient = redisClient
				logger.Info("connected to Redis")
			}
		}
	}

	factory := NewRepositoryFactory(c.Conn)
	if err := c.createRepositories(factory); err != nil {
		c.closeConnections()
		return nil, err
	}

	// Create event publisher
	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		// Fall back to noop publisher in development
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ not available, using noop publisher")
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
		} else {
			c.closeConnections()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
	} else {
		c.EventPublisher = publisher
	}

	c.Geocoder = geocoding.NewClient(cfg.GeocodingURL, cfg.GeocodingTimeout, c.fallbackLocation(), logger)
	c.TravelPlanner = c.buildTravelPlanner()
	c.Health = c.buildHealthRegistry()

	c.wireServices()
	c.wireHandlers()

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, c.outboxProcessorConfig(), logger)

	return c, nil
}

// NewLocalContainer creates a container for local mode with SQLite.
// Zero-config operation: no PostgreSQL, Redis, RabbitMQ, or external
// routing and geocoding services are required.
func NewLocalContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
	}

	conn, err := sqlite.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := migrations.RunSQLiteMigrations(ctx, conn.DB()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	c.Conn = conn
	c.Driver = database.DriverSQLite

	factory := NewRepositoryFactory(conn)
	if err := c.createRepositories(factory); err != nil {
		conn.Close()
		return nil, err
	}

	// No RabbitMQ in local mode; the processor drains the outbox into
	// an in-process bus, so availability and directory changes still
	// trigger revalidation without a broker.
	bus := eventbus.NewInProcessBus(logger)
	c.EventPublisher = bus

	// Empty base URLs keep both clients on their local fallbacks.
	c.Geocoder = geocoding.NewClient("", cfg.GeocodingTimeout, c.fallbackLocation(), logger)
	c.TravelPlanner = schedServices.NewHaversinePlanner()
	c.Health = c.buildHealthRegistry()

	c.wireServices()
	c.wireHandlers()
	bus.RegisterConsumer(c.RevalidationSubscriber)

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, c.outboxProcessorConfig(), logger)

	logger.Info("local mode initialized", "driver", database.DriverSQLite, "path", cfg.SQLitePath)

	return c, nil
}

// connectDatabase resolves the configured driver, opens the
// connection, and applies migrations.
func (c *Container) connectDatabase(ctx context.Context) error {
	cfg := c.Config
	dbCfg := database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   cfg.DatabaseMaxConns,
	}

	switch driver := dbCfg.ResolveDriver(); driver {
	case database.DriverPostgres:
		conn, err := postgres.NewConnection(ctx, dbCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := conn.Ping(ctx); err != nil {
			conn.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, conn.Pool()); err != nil {
			conn.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.Conn = conn
		c.Driver = database.DriverPostgres

	case database.DriverSQLite:
		conn, err := sqlite.NewConnection(ctx, dbCfg)
		if err != nil {
			return fmt.Errorf("failed to open SQLite database: %w", err)
		}
		if err := migrations.RunSQLiteMigrations(ctx, conn.DB()); err != nil {
			conn.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.Conn = conn
		c.Driver = database.DriverSQLite

	default:
		return fmt.Errorf("unsupported database driver: %s", driver)
	}

	c.Logger.Info("connected to database", "driver", c.Driver)
	return nil
}

// createRepositories builds every repository and the unit of work for
// the connected driver.
func (c *Container) createRepositories(factory *RepositoryFactory) error {
	careGivers, err := factory.CareGiverRepository()
	if err != nil {
		return fmt.Errorf("failed to create care giver repository: %w", err)
	}
	c.CareGiverRepo = careGivers

	careReceivers, err := factory.CareReceiverRepository()
	if err != nil {
		return fmt.Errorf("failed to create care receiver repository: %w", err)
	}
	c.CareReceiverRepo = careReceivers

	appointments, err := factory.AppointmentRepository()
	if err != nil {
		return fmt.Errorf("failed to create appointment repository: %w", err)
	}
	c.AppointmentRepo = appointments

	versions, err := factory.VersionRepository()
	if err != nil {
		return fmt.Errorf("failed to create availability version repository: %w", err)
	}
	c.VersionRepo = versions

	settingsRepo, err := factory.SettingsRepository()
	if err != nil {
		return fmt.Errorf("failed to create settings repository: %w", err)
	}
	c.SettingsRepo = settingsRepo

	outboxRepo, err := factory.OutboxRepository()
	if err != nil {
		return fmt.Errorf("failed to create outbox repository: %w", err)
	}
	c.OutboxRepo = outboxRepo

	uow, err := factory.UnitOfWork()
	if err != nil {
		return fmt.Errorf("failed to create unit of work: %w", err)
	}
	c.UnitOfWork = uow

	return nil
}

// buildTravelPlanner picks the travel time source: OSRM behind the
// Redis cache when both are configured, OSRM alone without Redis, and
// the straight-line estimate when no routing service is set.
func (c *Container) buildTravelPlanner() schedServices.TravelPlanner {
	cfg := c.Config
	if cfg.RoutingURL == "" {
		c.Logger.Info("no routing service configured, travel times use straight-line estimates")
		return schedServices.NewHaversinePlanner()
	}

	c.osrm = routing.NewOSRMPlanner(cfg.RoutingURL, cfg.RoutingTimeout, c.Logger)
	if c.RedisClient == nil {
		return c.osrm
	}
	return routing.NewRedisTravelCache(c.RedisClient, c.osrm, cfg.TravelCacheTTL, c.Metrics, c.Logger)
}

// buildHealthRegistry registers one checker per dependency the
// container actually connected. The API server serves the aggregate on
// its health endpoint.
func (c *Container) buildHealthRegistry() *observability.HealthRegistry {
	health := observability.NewHealthRegistry()
	health.Register("database", observability.DatabaseHealthChecker(c.Conn.Ping))

	if c.RedisClient != nil {
		health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return c.RedisClient.Ping(ctx).Err()
		}))
	}
	if publisher, ok := c.EventPublisher.(*eventbus.RabbitMQPublisher); ok {
		health.Register("rabbitmq", observability.RabbitMQHealthChecker(publisher.Status))
	}
	if c.osrm != nil {
		health.Register("routing", observability.RoutingHealthChecker(c.osrm.Status))
	}
	return health
}

func (c *Container) fallbackLocation() geo.Coordinates {
	return geo.Coordinates{
		Longitude: c.Config.DefaultLongitude,
		Latitude:  c.Config.DefaultLatitude,
	}
}

// wireServices builds the domain services from the repositories and
// external clients.
func (c *Container) wireServices() {
	c.VersionResolver = availServices.NewVersionResolver(c.VersionRepo, c.CareGiverRepo)
	c.Settings = settingsServices.NewCachedSettings(c.SettingsRepo)
	c.Oracle = schedServices.NewFeasibilityOracle(c.CareGiverRepo, c.CareReceiverRepo, c.AppointmentRepo, c.VersionResolver, c.Settings, c.TravelPlanner)
	c.Engine = schedServices.NewAssignmentEngine(c.CareGiverRepo, c.AppointmentRepo, c.VersionResolver, c.Oracle, c.Settings)
	c.Validator = schedServices.NewScheduleValidator(c.CareGiverRepo, c.CareReceiverRepo, c.AppointmentRepo, c.VersionResolver)
	c.Analyzer = schedServices.NewMatchAnalyzer(c.CareGiverRepo, c.CareReceiverRepo, c.AppointmentRepo, c.VersionResolver, c.Settings, c.TravelPlanner)
}

// wireHandlers builds every command and query handler.
func (c *Container) wireHandlers() {
	// Availability handlers come first: version creation doubles as
	// the availability seeder for newly registered care givers.
	c.CreateVersionHandler = availCommands.NewCreateVersionHandler(c.VersionRepo, c.OutboxRepo, c.UnitOfWork)
	c.GetCurrentVersionHandler = availQueries.NewGetCurrentVersionHandler(c.VersionRepo, c.VersionResolver)
	c.GetHistoryHandler = availQueries.NewGetHistoryHandler(c.VersionRepo)

	// Directory command handlers
	c.CreateCareGiverHandler = dirCommands.NewCreateCareGiverHandler(c.CareGiverRepo, c.OutboxRepo, c.UnitOfWork, c.Geocoder, c.CreateVersionHandler)
	c.UpdateCareGiverHandler = dirCommands.NewUpdateCareGiverHandler(c.CareGiverRepo, c.OutboxRepo, c.UnitOfWork, c.Geocoder)
	c.DeactivateCareGiverHandler = dirCommands.NewDeactivateCareGiverHandler(c.CareGiverRepo, c.OutboxRepo, c.UnitOfWork)
	c.CreateCareReceiverHandler = dirCommands.NewCreateCareReceiverHandler(c.CareReceiverRepo, c.OutboxRepo, c.UnitOfWork, c.Geocoder)
	c.UpdateCareReceiverHandler = dirCommands.NewUpdateCareReceiverHandler(c.CareReceiverRepo, c.OutboxRepo, c.UnitOfWork, c.Geocoder)
	c.DeactivateCareReceiverHandler = dirCommands.NewDeactivateCareReceiverHandler(c.CareReceiverRepo, c.OutboxRepo, c.UnitOfWork)

	// Directory query handlers
	c.GetCareGiverHandler = dirQueries.NewGetCareGiverHandler(c.CareGiverRepo)
	c.ListCareGiversHandler = dirQueries.NewListCareGiversHandler(c.CareGiverRepo)
	c.GetCareReceiverHandler = dirQueries.NewGetCareReceiverHandler(c.CareReceiverRepo)
	c.ListCareReceiversHandler = dirQueries.NewListCareReceiversHandler(c.CareReceiverRepo)

	// Scheduling command handlers
	c.GenerateScheduleHandler = schedCommands.NewGenerateScheduleHandler(c.CareReceiverRepo, c.Engine, c.OutboxRepo, c.UnitOfWork, c.Metrics, c.Logger)
	c.CreateAppointmentHandler = schedCommands.NewCreateAppointmentHandler(c.CareReceiverRepo, c.CareGiverRepo, c.AppointmentRepo, c.VersionResolver, c.Oracle, c.OutboxRepo, c.UnitOfWork)
	c.UpdateAppointmentStatusHandler = schedCommands.NewUpdateAppointmentStatusHandler(c.AppointmentRepo, c.OutboxRepo, c.UnitOfWork)
	c.DeleteAppointmentHandler = schedCommands.NewDeleteAppointmentHandler(c.AppointmentRepo, c.OutboxRepo, c.UnitOfWork)
	c.ValidateScheduleHandler = schedCommands.NewValidateScheduleHandler(c.Validator, c.OutboxRepo, c.UnitOfWork, c.Metrics, c.Logger)

	// Scheduling query handlers
	c.ListAppointmentsHandler = schedQueries.NewListAppointmentsHandler(c.AppointmentRepo, c.CareGiverRepo, c.CareReceiverRepo)
	c.GetAppointmentHandler = schedQueries.NewGetAppointmentHandler(c.AppointmentRepo, c.CareGiverRepo, c.CareReceiverRepo)
	c.UnscheduledVisitsHandler = schedQueries.NewUnscheduledVisitsHandler(c.CareGiverRepo, c.CareReceiverRepo, c.AppointmentRepo, c.Oracle, c.Settings)
	c.AnalyzeUnscheduledHandler = schedQueries.NewAnalyzeUnscheduledHandler(c.CareReceiverRepo, c.Analyzer)
	c.FindAvailableHandler = schedQueries.NewFindAvailableHandler(c.CareGiverRepo, c.CareReceiverRepo, c.Oracle, c.Settings, c.TravelPlanner)
	c.ScheduleStatsHandler = schedQueries.NewScheduleStatsHandler(c.AppointmentRepo)

	// Settings handlers
	c.UpdateSettingsHandler = settingsCommands.NewUpdateSettingsHandler(c.SettingsRepo, c.Settings, c.OutboxRepo, c.UnitOfWork)
	c.GetSettingsHandler = settingsQueries.NewGetSettingsHandler(c.Settings)

	// Event subscribers. Local mode registers this on the in-process
	// bus; in server mode the worker consumes it from RabbitMQ.
	c.RevalidationSubscriber = schedSubscribers.NewRevalidationSubscriber(
		c.ValidateScheduleHandler,
		c.Config.RevalidationWindowDays,
		c.Logger,
	)
}

func (c *Container) outboxProcessorConfig() outbox.ProcessorConfig {
	cfg := c.Config
	pc := outbox.DefaultProcessorConfig()
	if cfg.OutboxPollInterval > 0 {
		pc.PollInterval = cfg.OutboxPollInterval
	}
	if cfg.OutboxBatchSize > 0 {
		pc.BatchSize = cfg.OutboxBatchSize
	}
	if cfg.OutboxMaxRetries > 0 {
		pc.MaxRetries = cfg.OutboxMaxRetries
	}
	pc.Metrics = c.Metrics
	return pc
}

// Ready reports whether the container's database can take traffic.
func (c *Container) Ready(ctx context.Context) error {
	return c.Conn.Ping(ctx)
}

// closeConnections tears down the connections opened so far. Used on
// construction failure paths before the container is fully built.
func (c *Container) closeConnections() {
	if c.RedisClient != nil {
		c.RedisClient.Close()
	}
	if c.Conn != nil {
		c.Conn.Close()
	}
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.Conn != nil {
		if err := c.Conn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.Driver)
		}
	}
}
