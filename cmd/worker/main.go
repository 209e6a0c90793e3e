// Catalog sync worker entry point: consumes catalog-change and mapping
// events and keeps the vector index in step with the ground-truth catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/RxMatch-Intelligence/internal/application/catalogsync"
	"github.com/turtacn/RxMatch-Intelligence/internal/config"
	"github.com/turtacn/RxMatch-Intelligence/internal/domain/catalog"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/metrics"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/search/milvus"
	miniostore "github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/storage/minio"
	"github.com/turtacn/RxMatch-Intelligence/internal/intelligence/encoder"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

const (
	defaultConfigPath = "configs/config.yaml"
	healthPort        = 8081
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	skipRebuild := flag.Bool("skip-rebuild", false, "skip the startup index rebuild")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
	logger.Info("starting RxMatch-Intelligence sync worker")

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("PostgreSQL connection failed", logging.Err(err))
		os.Exit(1)
	}
	defer pool.Close()

	index := milvus.NewIndex(cfg.Milvus, logger)
	defer index.Close()

	// The dump store is optional; without it, dump_available events fail and
	// are skipped after retries.
	var dumps catalogsync.DumpFetcher
	if cfg.MinIO.Endpoint != "" {
		store, err := miniostore.NewDumpStore(cfg.MinIO, logger)
		if err != nil {
			logger.Warn("Dump store unavailable: bulk imports disabled", logging.Err(err))
		} else {
			dumps = store
		}
	}

	m := metrics.New()

	svc := catalogsync.NewService(catalogsync.ServiceDeps{
		Catalog: postgres.NewCatalogRepository(pool, logger),
		History: postgres.NewHistoryRepository(pool, logger),
		Index:   index,
		Dense:   encoder.NewDenseEncoder(cfg.Encoder, logger),
		Sparse:  encoder.NewTermFrequencyEncoder(),
		Dumps:   dumps,
		Metrics: m,
		Logger:  logger,
	})

	if !*skipRebuild {
		if err := svc.RebuildIndex(ctx); err != nil {
			// A cold index is degraded service, not a dead worker; the
			// lexical fallback still answers while events keep flowing.
			logger.Error("Startup index rebuild failed", logging.Err(err))
		}
	}

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.Handlers{
		OnCatalogEvent: func(ctx context.Context, event kafka.CatalogEvent) error {
			return handleCatalogEvent(ctx, svc, event)
		},
		OnMappingEvent: func(ctx context.Context, event kafka.MappingEvent) error {
			return svc.RecordMapping(ctx, event.PrescriberID, event.MedicineID)
		},
	}, logger)
	if err != nil {
		logger.Error("Kafka consumer init failed", logging.Err(err))
		os.Exit(1)
	}
	consumer.Start(ctx)

	healthSrv := startHealthServer(m, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutdown signal received", logging.String("signal", sig.String()))

	if err := consumer.Close(); err != nil {
		logger.Error("Consumer close error", logging.Err(err))
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Health server shutdown error", logging.Err(err))
	}
	logger.Info("Worker stopped")
}

// handleCatalogEvent routes one catalog change to the sync service.
func handleCatalogEvent(ctx context.Context, svc *catalogsync.Service, event kafka.CatalogEvent) error {
	switch event.Type {
	case kafka.EventCatalogUpsert:
		return svc.UpsertRecord(ctx, &catalog.Record{
			ID:               event.ID,
			BrandName:        event.BrandName,
			GenericName:      event.GenericName,
			OfficialStrength: event.OfficialStrength,
			Form:             event.Form,
			CombinationFlag:  event.CombinationFlag,
		})
	case kafka.EventCatalogDelete:
		return svc.DeleteRecord(ctx, event.ID)
	case kafka.EventDumpAvailable:
		return svc.ImportDumpObject(ctx, event.DumpObject)
	default:
		// Unknown types never become known; drop without retrying.
		return apperrors.New(apperrors.ErrCodeSerialization,
			fmt.Sprintf("unknown catalog event type %q", event.Type))
	}
}

// startHealthServer exposes liveness and metrics for the worker on a side
// port, separate from the API server's surface.
func startHealthServer(m *metrics.Metrics, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", healthPort),
		Handler: mux,
	}
	go func() {
		logger.Info("Worker health server listening", logging.Int("port", healthPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", logging.Err(err))
		}
	}()
	return srv
}

// loadConfig reads the configured file, falling back to environment-only
// configuration when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}
