package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/freightdesk/backend/docs"
	financeapp "github.com/freightdesk/backend/internal/application/finance"
	"github.com/freightdesk/backend/internal/application/numbering"
	partnerapp "github.com/freightdesk/backend/internal/application/partner"
	shipmentapp "github.com/freightdesk/backend/internal/application/shipment"
	"github.com/freightdesk/backend/internal/domain/attachment"
	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/freightdesk/backend/internal/infrastructure/cache"
	"github.com/freightdesk/backend/internal/infrastructure/config"
	"github.com/freightdesk/backend/internal/infrastructure/logger"
	"github.com/freightdesk/backend/internal/infrastructure/persistence"
	"github.com/freightdesk/backend/internal/infrastructure/scheduler"
	"github.com/freightdesk/backend/internal/infrastructure/storage"
	"github.com/freightdesk/backend/internal/infrastructure/telemetry"
	"github.com/freightdesk/backend/internal/interfaces/http/handler"
	"github.com/freightdesk/backend/internal/interfaces/http/router"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

//	@title			Freight Backend API
//	@version		1.0
//	@description	Shipment booking, cost lifecycle and reconciliation API

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting freight backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	loc, err := cfg.Numbering.Location()
	if err != nil {
		log.Fatal("Invalid numbering timezone", zap.String("timezone", cfg.Numbering.Timezone), zap.Error(err))
	}
	clock := shared.SystemClock(loc)

	// Telemetry
	providers, err := telemetry.Setup(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log = providers.BridgeLogger(log, logger.ParseLevel(cfg.Log.Level))
	meter := providers.Meter(telemetry.MeterName)

	// Continuous profiling, linked to spans before any tracer is handed out
	profiler, err := telemetry.StartProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		providers.EnableSpanProfiles()
	}

	// Databases
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Log.SlowQueryThreshold),
	)
	stores, err := persistence.OpenStores(cfg, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to databases", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing databases", zap.Error(err))
		}
	}()
	if err := prepareStores(cfg, stores, meter, providers.IsEnabled()); err != nil {
		log.Fatal("Failed to prepare databases", zap.Error(err))
	}
	log.Info("Databases connected", zap.Strings("stores", config.Stores))

	// Sweep lease
	lease, err := cache.NewLeaseFactory(cfg.Redis, cache.WithLogger(log)).CreateLease()
	if err != nil {
		log.Fatal("Failed to create sweep lease", zap.Error(err))
	}
	defer func() {
		_ = lease.Close()
	}()

	objects, err := newObjectStorage(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// Repositories
	customerRepo := persistence.NewGormCustomerRepository(stores.Main.DB)
	supplierRepo := persistence.NewGormSupplierRepository(stores.Main.DB)
	shipmentRepo := persistence.NewGormShipmentRepository(stores.Shipment.DB)
	costRepo := persistence.NewGormCostRepository(stores.Finance.DB)
	appRepo := persistence.NewGormApplicationRepository(stores.Finance.DB)
	attachmentRepo := persistence.NewGormAttachmentRepository(stores.Attachment.DB)
	financeScope := persistence.NewGormFinanceTransactionScope(stores.Finance.DB)

	// Code generators
	shipmentCodes := numbering.NewSequentialCodeGenerator(
		persistence.NewShipmentSequenceAllocator(stores.Shipment.DB, cfg.Numbering.ShipmentPrefix),
		cfg.Numbering.ShipmentPrefix, clock,
	)
	applicationNumbers := numbering.NewSequentialCodeGenerator(
		persistence.NewApplicationSequenceAllocator(stores.Finance.DB, cfg.Numbering.ApplicationPrefix),
		cfg.Numbering.ApplicationPrefix, clock,
	)
	var partnerCodeOpts []numbering.RandomCodeOption
	if cfg.Numbering.RandomCodeMaxAttempts > 0 {
		partnerCodeOpts = append(partnerCodeOpts, numbering.WithMaxAttempts(cfg.Numbering.RandomCodeMaxAttempts))
	}

	// Reconciliation
	reconMetrics, err := telemetry.NewReconciliationMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create reconciliation metrics", zap.Error(err))
	}
	sweeper := financeapp.NewReconciliationSweeper(
		shipmentRepo, costRepo, appRepo, financeScope, reconMetrics, clock, log.Named("reconciliation"),
	)
	reconScheduler := scheduler.NewReconciliationScheduler(scheduler.Config{
		Enabled:    cfg.Reconciliation.Enabled,
		Interval:   cfg.Reconciliation.Interval,
		RunTimeout: cfg.Reconciliation.RunTimeout,
		LeaseTTL:   cfg.Reconciliation.LeaseTTL,
	}, sweeper, lease, log.Named("scheduler"))

	var trigger financeapp.ReconcileTrigger
	if cfg.Reconciliation.Enabled && cfg.Reconciliation.TriggerAfterMutation {
		trigger = reconScheduler
	}

	// Application services
	lifecycleMetrics, err := telemetry.NewLifecycleMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create lifecycle metrics", zap.Error(err))
	}
	lifecycleService := financeapp.NewCostLifecycleService(
		costRepo, appRepo, financeScope, applicationNumbers, log.Named("finance"),
		financeapp.WithApplicationCreateAttempts(cfg.Numbering.ApplicationCreateAttempts),
		financeapp.WithLifecycleTrigger(trigger),
		financeapp.WithLifecycleMetrics(lifecycleMetrics),
		financeapp.WithLifecycleClock(clock),
	)
	costService := financeapp.NewCostService(costRepo, shipmentRepo, trigger, clock, log.Named("finance"))
	shipmentService := shipmentapp.NewShipmentService(shipmentapp.Dependencies{
		Shipments:   shipmentRepo,
		Costs:       costRepo,
		Attachments: attachmentRepo,
		Objects:     objects,
		Customers:   customerRepo,
		Codes:       shipmentCodes,
		Trigger:     trigger,
	}, cfg.Numbering.ShipmentCreateAttempts, clock, log.Named("shipment"))
	partnerService := partnerapp.NewPartnerService(customerRepo, supplierRepo, clock, log.Named("partner"), partnerCodeOpts...)

	// HTTP
	engine := router.NewEngine(router.EngineConfig{
		ServiceName:      cfg.Telemetry.ServiceName,
		TracingEnabled:   providers.IsEnabled(),
		ProfilingEnabled: profiler.IsEnabled(),
		Meter:            meter,
	}, log)

	checks := make(map[string]handler.HealthCheck, len(config.Stores))
	for _, db := range stores.All() {
		checks[db.Name] = db.Ping
	}
	r := router.NewRouter(engine,
		router.WithHealth(handler.NewSystemHandler(checks).Health),
		router.WithSwagger(ginSwagger.WrapHandler(swaggerFiles.Handler)),
	)
	r.Register(
		handler.NewFinanceHandler(lifecycleService, costService, sweeper),
		handler.NewShipmentHandler(shipmentService, handler.DefaultMaxUploadBytes),
		handler.NewPartnerHandler(partnerService),
	)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	if cfg.Reconciliation.Enabled {
		if err := reconScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start reconciliation scheduler", zap.Error(err))
		}
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := reconScheduler.Stop(ctx); err != nil {
		log.Error("Reconciliation scheduler did not stop cleanly", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Profiler did not stop cleanly", zap.Error(err))
	}
	if err := providers.Shutdown(ctx); err != nil {
		log.Error("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// prepareStores creates sqlite schemas and installs the per-store GORM
// plugins. Postgres schemas are owned by cmd/migrate.
func prepareStores(cfg *config.Config, stores *persistence.Stores, meter metric.Meter, tracing bool) error {
	for _, db := range stores.All() {
		if cfg.Database(db.Name).Driver == "sqlite" {
			if err := persistence.AutoMigrate(db); err != nil {
				return err
			}
		}
		plugin, err := telemetry.NewDBMetricsPlugin(meter, db.Name)
		if err != nil {
			return err
		}
		if err := db.DB.Use(plugin); err != nil {
			return err
		}
		if tracing {
			if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{Store: db.Name}); err != nil {
				return err
			}
		}
	}
	return nil
}

// newObjectStorage returns S3 storage when enabled, an in-memory store in
// local development and nil otherwise, which disables attachments.
func newObjectStorage(cfg *config.Config, log *zap.Logger) (attachment.ObjectStorage, error) {
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log.Named("storage")))
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s3Storage, nil
	}
	if cfg.App.Env == "local" {
		log.Warn("Object storage disabled, keeping attachments in memory")
		return storage.NewMemoryObjectStorage(), nil
	}
	log.Warn("Object storage disabled, attachment uploads will be rejected")
	return nil, nil
}
