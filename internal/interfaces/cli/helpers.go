package cli

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/RxMatch-Intelligence/internal/application/matching"
	"github.com/turtacn/RxMatch-Intelligence/internal/config"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/search/milvus"
	"github.com/turtacn/RxMatch-Intelligence/internal/intelligence/encoder"
)

// loadConfig reads the configured file, falling back to environment-only
// configuration when the default path does not exist.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config.LoadFromEnv()
	}
	return config.Load(configPath)
}

func newLogger(cfg *config.Config) (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
}

// pipelineEnv bundles everything a one-shot pipeline run needs.
type pipelineEnv struct {
	pipeline *matching.Pipeline
	pool     *pgxpool.Pool
	index    *milvus.Index
}

func (e *pipelineEnv) close() {
	if e.index != nil {
		_ = e.index.Close()
	}
	if e.pool != nil {
		e.pool.Close()
	}
}

// buildPipelineEnv wires the matching pipeline against the configured
// stores.  The vector index and dense encoder stay lazy; when unreachable,
// retrieval degrades to the lexical catalog fallback.
func buildPipelineEnv(ctx context.Context, cfg *config.Config, logger logging.Logger) (*pipelineEnv, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	catalogRepo := postgres.NewCatalogRepository(pool, logger)
	historyRepo := postgres.NewHistoryRepository(pool, logger)
	index := milvus.NewIndex(cfg.Milvus, logger)
	dense := encoder.NewDenseEncoder(cfg.Encoder, logger)

	sparse := encoder.NewTermFrequencyEncoder()
	if records, err := catalogRepo.ListAll(ctx); err == nil {
		corpus := make([]string, len(records))
		for n, rec := range records {
			corpus[n] = rec.SearchText()
		}
		sparse.Fit(corpus)
	}

	policy := matching.NewPolicyHolder(matching.PolicyFromConfig(cfg.Matching))
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
		Logger:     logger,
	})

	return &pipelineEnv{
		pipeline: pipeline,
		pool:     pool,
		index:    index,
	}, nil
}
