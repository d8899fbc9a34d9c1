package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	redisclient "github.com/VitalPointAI/argus-sub001/internal/clients/redis"
	"github.com/VitalPointAI/argus-sub001/internal/data/db"
	apphttp "github.com/VitalPointAI/argus-sub001/internal/http"
	"github.com/VitalPointAI/argus-sub001/internal/observability"
	"github.com/VitalPointAI/argus-sub001/internal/platform/envutil"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
)

// App owns every long-lived dependency of the reputation engine. New wires
// them, Start launches background work, Run blocks on the HTTP listener and
// Close tears everything down in reverse order.
type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Bus      redisclient.AlertBus
	Metrics  *observability.Metrics
	Cfg      Config
	Repos    Repos
	Services Services
	Handlers Handlers
	Server   *apphttp.Server

	cancel       context.CancelFunc
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	gormDB := pg.DB()
	if err := db.AutoMigrateAll(gormDB); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	if err := db.EnsureReputationIndexes(gormDB); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	// The alert bus is optional. Without REDIS_ADDR the engine still scores,
	// it just stops telling anyone about it.
	bus, busErr := redisclient.NewAlertBus(log)
	if busErr != nil {
		log.Info("Alert bus disabled", "reason", busErr.Error())
		bus = nil
	}

	var metrics *observability.Metrics
	if observability.Enabled() {
		metrics = observability.Init(log)
	}

	reposet := wireRepos(gormDB, log)
	serviceset := wireServices(gormDB, log, cfg, reposet, bus)
	handlerset := wireHandlers(log, gormDB, bus, serviceset)
	server := wireServer(log, metrics, handlerset)

	return &App{
		Log:      log,
		DB:       gormDB,
		Bus:      bus,
		Metrics:  metrics,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		Handlers: handlerset,
		Server:   server,
	}, nil
}

// Start launches the decay worker, metric collectors and tracing. Calling it
// twice is a no-op.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.otelShutdown = observability.InitOTel(ctx, a.Log, observability.OtelConfig{
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "argus-reputation"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
	})

	if a.Services.DecayWorker != nil {
		a.Services.DecayWorker.Start(ctx)
	}

	if a.Metrics != nil {
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		if addr := os.Getenv("REDIS_ADDR"); addr != "" {
			a.Metrics.StartRedisCollector(ctx, a.Log, addr)
		}
		if addr := envutil.String("METRICS_ADDR", ""); addr != "" {
			a.Metrics.StartServer(ctx, a.Log, addr)
		}
	}
}

// Run blocks serving HTTP on the given address.
func (a *App) Run(address string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(address)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
		cancel()
		a.otelShutdown = nil
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil && a.Log != nil {
			a.Log.Warn("Alert bus close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
