package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careview/platform/pkg/cache"
	"github.com/careview/platform/pkg/common/config"
	"github.com/careview/platform/pkg/common/database"
	"github.com/careview/platform/pkg/common/kafka"
	"github.com/careview/platform/pkg/common/logger"
	"github.com/careview/platform/pkg/dashboard"
	"github.com/careview/platform/pkg/fetcher"
	"github.com/careview/platform/pkg/middleware"
	"github.com/careview/platform/pkg/normalizer"
	"github.com/careview/platform/pkg/observability/metrics"
	"github.com/careview/platform/pkg/poller"
	"github.com/careview/platform/pkg/schema"
	"github.com/gorilla/mux"
)

func main() {
	logger.Init()
	cfg := config.Load()

	catalog, err := schema.Load(cfg.CatalogPath)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to load schema catalog, using defaults")
		catalog = schema.DefaultCatalog()
	}

	sources := map[string]string{}
	if cfg.DoctorsURL != "" {
		sources["doctors"] = cfg.DoctorsURL
	}
	if cfg.PatientsURL != "" {
		sources["patients"] = cfg.PatientsURL
	}
	if len(sources) == 0 {
		logger.Log.Fatal("No dataset URLs configured (DOCTORS_CSV_URL / PATIENTS_CSV_URL)")
	}

	var repo *dashboard.Repository
	if cfg.AuditEnabled {
		db, err := database.GetPostgres()
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to connect to PostgreSQL")
		}
		repo = dashboard.NewRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Fatal("Failed to migrate refresh audit table")
		}
		defer database.ClosePostgres()
	}

	var snapshots dashboard.SnapshotCache
	if cfg.CacheEnabled {
		snapshots = cache.NewSnapshots(database.GetRedis(), cfg.CacheTTL)
		defer database.CloseRedis()
	}

	var producer dashboard.EventPublisher
	if cfg.EventsEnabled {
		kafkaProducer := kafka.NewProducer(cfg.KafkaTopic)
		defer kafkaProducer.Close()
		producer = kafkaProducer
	}

	service := dashboard.NewService(
		catalog,
		normalizer.NewParser(catalog.Renames, cfg.MinRowRatio),
		fetcher.New(cfg.FetchTimeout, cfg.FetchRetries),
		sources,
		repo,
		snapshots,
		producer,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service.Restore(ctx)

	pollers := make(map[string]*poller.Poller, len(sources))
	for kind := range sources {
		kind := kind
		pollers[kind] = poller.New(kind, cfg.PollInterval, func(ctx context.Context) {
			if _, err := service.Refresh(ctx, kind); err != nil {
				logger.WithDataset(kind).WithError(err).Error("Scheduled refresh failed")
			}
		})
		if cfg.PollOnStartup {
			pollers[kind].Start(ctx)
		}
	}

	router := mux.NewRouter()
	router.Use(middleware.Recovery, middleware.Logging, middleware.CORS)
	router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	router.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	handler := dashboard.NewHandler(ctx, service, pollers)
	handler.Register(router.PathPrefix("/api/v1").Subrouter())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":     cfg.ServerHost,
			"port":     cfg.ServerPort,
			"datasets": len(sources),
		}).Info("Dashboard Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Dashboard Service...")
	for _, p := range pollers {
		p.Stop()
	}
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Dashboard Service stopped")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
