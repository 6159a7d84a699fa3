package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/synaptica-ai/order-etl/pkg/catalog"
	"github.com/synaptica-ai/order-etl/pkg/common/config"
	"github.com/synaptica-ai/order-etl/pkg/common/database"
	"github.com/synaptica-ai/order-etl/pkg/common/kafka"
	"github.com/synaptica-ai/order-etl/pkg/common/logger"
	"github.com/synaptica-ai/order-etl/pkg/common/middleware"
	"github.com/synaptica-ai/order-etl/pkg/common/models"
	"github.com/synaptica-ai/order-etl/pkg/etl"
	"github.com/synaptica-ai/order-etl/pkg/observability/metrics"
	"github.com/synaptica-ai/order-etl/pkg/pipeline"
	"github.com/synaptica-ai/order-etl/pkg/runs"
	"github.com/synaptica-ai/order-etl/pkg/storage"
)

func main() {
	logger.Init("order-etl-service")
	cfg, err := config.LoadWithFile(os.Getenv("ETL_CONFIG_FILE"))
	if err != nil {
		logger.Log.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var awsCfg *aws.Config
	loadAWS := func() aws.Config {
		if awsCfg == nil {
			var opts []func(*awsconfig.LoadOptions) error
			if cfg.AWSRegion != "" {
				opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
			}
			loaded, err := awsconfig.LoadDefaultConfig(ctx, opts...)
			if err != nil {
				logger.Log.WithError(err).Fatal("failed to load AWS configuration")
			}
			awsCfg = &loaded
		}
		return *awsCfg
	}

	readiness := map[string]database.Check{}

	var store storage.BlobStore
	switch cfg.BlobBackend {
	case config.BlobBackendS3:
		store = storage.NewS3Store(s3.NewFromConfig(loadAWS()))
	case config.BlobBackendRedis:
		client := database.GetRedis(cfg)
		store = storage.NewRedisStore(client, 0)
		readiness["redis"] = database.RedisCheck(client)
		defer database.CloseRedis()
	default:
		store = storage.NewMemoryStore()
	}

	var notifier catalog.Notifier
	switch cfg.NotifierBackend {
	case config.NotifierKafka:
		producer := kafka.NewProducer(cfg, cfg.CatalogEventTopic)
		defer producer.Close()
		notifier = catalog.NewKafkaNotifier(producer, "order-etl-service")
	default:
		notifier = catalog.NewGlueNotifier(glue.NewFromConfig(loadAWS()))
	}

	orchestrator := pipeline.New(store, notifier,
		pipeline.WithCrawlerName(cfg.CrawlerName),
		pipeline.WithLogger(logger.WithField("component", "orchestrator")),
	)

	var tracker etl.RunTracker
	if cfg.RunTrackingEnabled {
		db, err := database.GetPostgres(cfg)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to connect to postgres")
		}
		defer database.ClosePostgres()

		repo := runs.NewRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Fatal("failed to migrate run tables")
		}
		tracker = repo
		readiness["postgres"] = database.PostgresCheck(db)
	}

	svc := etl.NewService(orchestrator, tracker, cfg.RunRetention)
	handler := etl.NewHTTPHandler(svc, cfg.MaxRequestBody)

	router := mux.NewRouter()
	router.Use(middleware.Recovery, middleware.Logging)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", database.ReadyHandler(readiness, 2*time.Second)).Methods(http.MethodGet)

	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	handler.Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":     cfg.ServerHost,
			"port":     cfg.ServerPort,
			"blob":     cfg.BlobBackend,
			"notifier": cfg.NotifierBackend,
		}).Info("Order ETL Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	if cfg.TriggerTopic != "" {
		consumer := kafka.NewConsumer(cfg, cfg.TriggerTopic, "")
		defer consumer.Close()

		go func() {
			err := consumer.Consume(ctx, func(ctx context.Context, event models.TriggerEvent) error {
				_, err := svc.Handle(ctx, event)
				return err
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.WithError(err).Error("trigger consumer stopped")
			}
		}()
	}

	scheduler := cron.New()
	if svc.TrackingEnabled() {
		if _, err := scheduler.AddFunc(cfg.CleanupSchedule, func() {
			if err := svc.Cleanup(ctx); err != nil {
				logger.Log.WithError(err).Warn("cleanup job failed")
			}
		}); err != nil {
			logger.Log.WithError(err).Fatal("invalid cleanup schedule")
		}
	}
	scheduler.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Order ETL Service...")
	cancel()
	<-scheduler.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Order ETL Service stopped")
}
