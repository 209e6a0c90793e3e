// API server entry point: extraction, matching pipeline, and guardrails
// behind the HTTP surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/RxMatch-Intelligence/internal/application/extraction"
	"github.com/turtacn/RxMatch-Intelligence/internal/application/matching"
	"github.com/turtacn/RxMatch-Intelligence/internal/config"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/database/postgres"
	redisstore "github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/metrics"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/search/milvus"
	"github.com/turtacn/RxMatch-Intelligence/internal/intelligence/encoder"
	httpserver "github.com/turtacn/RxMatch-Intelligence/internal/interfaces/http"
	"github.com/turtacn/RxMatch-Intelligence/internal/interfaces/http/handlers"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	migrate := flag.Bool("migrate", false, "apply pending schema migrations before serving")
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
	logger.Info("starting RxMatch-Intelligence API server",
		logging.Int("port", cfg.Server.Port),
		logging.String("mode", cfg.Server.Mode))

	ctx := context.Background()

	if *migrate {
		if err := postgres.Migrate(cfg.Database, logger); err != nil {
			logger.Error("Migration failed", logging.Err(err))
			os.Exit(1)
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("PostgreSQL connection failed", logging.Err(err))
		os.Exit(1)
	}
	defer pool.Close()

	catalogRepo := postgres.NewCatalogRepository(pool, logger)
	historyRepo := postgres.NewHistoryRepository(pool, logger)

	checks := map[string]handlers.Pinger{"postgres": pool}

	// Redis backs the precomputed-response cache; the server runs without it.
	var cache handlers.ResponseCache
	if cfg.Redis.Addr != "" {
		client, err := redisstore.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis unavailable: response caching disabled", logging.Err(err))
		} else {
			defer client.Close()
			cache = redisstore.NewResponseCache(client, cfg.Redis, logger)
			checks["redis"] = &redisPinger{client: client}
		}
	}

	// The vector index connects lazily; when unreachable, retrieval degrades
	// to the lexical catalog fallback per request.
	index := milvus.NewIndex(cfg.Milvus, logger)
	defer index.Close()

	dense := encoder.NewDenseEncoder(cfg.Encoder, logger)
	sparse := encoder.NewTermFrequencyEncoder()
	if records, err := catalogRepo.ListAll(ctx); err == nil {
		corpus := make([]string, len(records))
		for n, rec := range records {
			corpus[n] = rec.SearchText()
		}
		sparse.Fit(corpus)
		logger.Info("Sparse vocabulary fitted", logging.Int("records", len(records)))
	} else {
		logger.Warn("Could not fit sparse vocabulary from catalog", logging.Err(err))
	}

	policy := matching.NewPolicyHolder(matching.PolicyFromConfig(cfg.Matching))
	if cfg.Matching.PolicyPath != "" {
		if mc, err := config.LoadMatchingPolicy(cfg.Matching.PolicyPath); err == nil {
			policy.Store(matching.PolicyFromConfig(*mc))
		}
		stop, err := config.WatchMatchingPolicy(cfg.Matching.PolicyPath, func(mc *config.MatchingConfig) {
			policy.Store(matching.PolicyFromConfig(*mc))
			logger.Info("Matching policy reloaded", logging.String("path", cfg.Matching.PolicyPath))
		})
		if err != nil {
			logger.Warn("Policy hot-reload disabled", logging.Err(err))
		} else {
			defer func() { _ = stop() }()
		}
	}

	m := metrics.New()

	pipeline := matching.NewPipeline(matching.PipelineDeps{
		Normalizer: matching.NewNormalizer(),
		Retriever: matching.NewRetriever(matching.RetrieverDeps{
			Index:         index,
			Dense:         dense,
			Sparse:        sparse,
			Catalog:       catalogRepo,
			EmbeddingDim:  cfg.Encoder.Dimension,
			SearchTimeout: cfg.Milvus.SearchTimeout,
			Policy:        policy,
			Logger:        logger,
		}),
		Reranker:   matching.NewHistoryReranker(historyRepo, policy, logger),
		Guardrails: matching.NewGuardrailEngine(policy),
		Catalog:    catalogRepo,
		Metrics:    m,
		Logger:     logger,
	})

	router := httpserver.NewRouter(httpserver.RouterConfig{
		MatchHandler:   handlers.NewMatchHandler(extraction.NewService(nil, logger), pipeline, cache, m, logger),
		HealthHandler:  handlers.NewHealthHandler(checks),
		MetricsHandler: m.Handler(),
		HTTPMetrics:    m,
		Logger:         logger,
		Mode:           cfg.Server.Mode,
	})
	server := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", logging.Err(err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("Shutdown signal received", logging.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	logger.Info("Server stopped")
}

// loadConfig reads the configured file, falling back to environment-only
// configuration when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}
