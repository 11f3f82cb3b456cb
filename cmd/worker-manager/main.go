// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ai2c-dataviz/internal/analytics/dataset"
	"ai2c-dataviz/internal/analytics/guard"
	"ai2c-dataviz/internal/analytics/insights"
	"ai2c-dataviz/internal/analytics/schema"
	"ai2c-dataviz/internal/cache"
	"ai2c-dataviz/internal/common/aws"
	"ai2c-dataviz/internal/common/camunda"
	"ai2c-dataviz/internal/common/config"
	"ai2c-dataviz/internal/common/database"
	"ai2c-dataviz/internal/common/logger"
	"ai2c-dataviz/internal/common/observability"
	"ai2c-dataviz/internal/common/storage"
	"ai2c-dataviz/internal/models"
	"ai2c-dataviz/pkg/registry"

	ap "ai2c-dataviz/internal/workers/analytics/aggregate-pivot"
	cq "ai2c-dataviz/internal/workers/analytics/classify-questions"
	pdv "ai2c-dataviz/internal/workers/analytics/pivot-dimension-values"
	pdt "ai2c-dataviz/internal/workers/analytics/pivot-drill-through"
	qi "ai2c-dataviz/internal/workers/analytics/question-insights"
	sdo "ai2c-dataviz/internal/workers/analytics/survey-dataset-overview"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}
	_ = bootLog.Sync()

	zapLog := logger.NewFromConfig(cfg.Logging)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.Timeout),
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig:            camunda.DefaultRetryConfig,
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Activity registry ---
	reg := loadRegistry(cfg.Registry.Path, zapLog)

	// --- PostgreSQL, only when it is a dataset source ---
	var pg *database.PostgresClient
	if cfg.Dataset.UsesSource(config.SourcePostgres) {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Redis, only when the schema cache is shared ---
	var rdb *database.RedisClient
	if cfg.Cache.RedisEnabled {
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Object storage ---
	var reader storage.Reader
	switch cfg.Storage.Backend {
	case config.StorageLocal:
		reader = storage.NewLocalReader(cfg.Storage.LocalRoot)
		zapLog.Info("Using local object storage", zap.String("root", cfg.Storage.LocalRoot))
	default:
		s3Client, err := aws.NewS3Client(ctx, cfg.Storage.Region)
		if err != nil {
			zapLog.Fatal("s3 client failed", zap.Error(err))
		}
		reader = s3Client
		zapLog.Info("Using S3 object storage", zap.String("region", cfg.Storage.Region))
	}

	// --- Dataset service ---
	sources := make([]dataset.Source, 0, len(cfg.Dataset.Sources))
	for _, name := range cfg.Dataset.Sources {
		switch name {
		case config.SourceObject:
			sources = append(sources, dataset.NewObjectSource(reader, cfg.Storage.ReportsBucket, cfg.Storage.ReportsPrefix, cfg.Storage.Delimiter()))
		case config.SourcePostgres:
			src, err := dataset.NewPostgresSource(pg.DB, cfg.Dataset.PostgresTable)
			if err != nil {
				zapLog.Fatal("postgres dataset source failed", zap.Error(err))
			}
			sources = append(sources, src)
		}
	}

	tableCache := cache.New[*models.ResponseTable]("table", cache.WithLogger[*models.ResponseTable](log))
	schemaOpts := []cache.Option[models.Schema]{cache.WithLogger[models.Schema](log)}
	if rdb != nil {
		schemaOpts = append(schemaOpts, cache.WithBacking[models.Schema](
			cache.NewRedisBacking[models.Schema](rdb.Client, cfg.Cache.RedisPrefix+":schema"),
		))
	}
	schemaCache := cache.New[models.Schema]("schema", schemaOpts...)

	resolver := schema.NewResolver(reader, schema.Layout{
		EnvBuckets: cfg.Storage.SchemaEnvBuckets,
		BaseBucket: cfg.Storage.SchemaBaseBucket,
		Prefix:     cfg.Storage.SchemaPrefix,
	}, schemaCache, log)
	data := dataset.NewService(dataset.NewStore(sources, tableCache, log), resolver)

	zapLog.Info("Dataset service ready",
		zap.Strings("sources", cfg.Dataset.Sources),
		zap.Bool("sharedSchemaCache", rdb != nil),
	)

	// --- Workers ---
	guardCfg := guard.Thresholds{
		MinUnique: cfg.Engine.CardinalityMinUnique,
		MaxRatio:  cfg.Engine.CardinalityMaxRatio,
	}
	opts := insights.DefaultOptions()
	opts.TopTokens = cfg.Engine.TopTokens
	opts.RawSampleSize = cfg.Engine.RawSampleSize

	timeout := func(taskType string) time.Duration {
		fallback := config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
		if reg == nil {
			return fallback
		}
		if a, ok := reg.Find(taskType); ok {
			return a.TimeoutDuration(fallback)
		}
		return fallback
	}

	handlers := []struct {
		taskType string
		handle   worker.JobHandler
	}{
		{sdo.TaskType, sdo.NewHandler(&sdo.Config{
			Timeout: timeout(sdo.TaskType),
			Guard:   guardCfg,
			Options: opts,
		}, data, obs, log).Handle},
		{cq.TaskType, cq.NewHandler(&cq.Config{
			Timeout:     timeout(cq.TaskType),
			Concurrency: cq.LoadConfig().Concurrency,
		}, data, log).Handle},
		{ap.TaskType, ap.NewHandler(&ap.Config{
			Timeout: timeout(ap.TaskType),
			Guard:   guardCfg,
		}, data, obs, log).Handle},
		{pdt.TaskType, pdt.NewHandler(&pdt.Config{
			Timeout:        timeout(pdt.TaskType),
			DetailRowLimit: cfg.Engine.DetailRowLimit,
			Guard:          guardCfg,
		}, data, obs, log).Handle},
		{pdv.TaskType, pdv.NewHandler(&pdv.Config{
			Timeout: timeout(pdv.TaskType),
			Guard:   guardCfg,
		}, data, log).Handle},
		{qi.TaskType, qi.NewHandler(&qi.Config{
			Timeout: timeout(qi.TaskType),
			Guard:   guardCfg,
			Options: opts,
		}, data, log).Handle},
	}

	if reg != nil {
		taskTypes := make([]string, len(handlers))
		for i, h := range handlers {
			taskTypes[i] = h.taskType
		}
		if missing := reg.Missing(taskTypes...); len(missing) > 0 {
			zapLog.Warn("workers not declared in activity registry", zap.Strings("taskTypes", missing))
		}
	}

	workers := make([]*camunda.Worker, 0, len(handlers))
	for _, h := range handlers {
		w := camunda.NewWorker(zeebe.GetClient(), h.taskType, config.GetWorkerConfig(cfg, h.taskType), h.handle, log)
		if w != nil {
			workers = append(workers, w)
		}
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// loadRegistry returns nil when the registry is unreadable; workers then
// run on their configured timeouts.
func loadRegistry(path string, log *zap.Logger) *registry.ActivityRegistry {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry unavailable", zap.String("path", path), zap.Error(err))
		return nil
	}
	if err := reg.Validate(); err != nil {
		log.Warn("activity registry has problems", zap.String("path", path), zap.Error(err))
	}
	log.Info("Activity registry loaded", zap.String("path", path), zap.Int("activities", len(reg.Activities)))
	return reg
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
