package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/RxMatch-Intelligence/internal/application/catalogsync"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/search/milvus"
	"github.com/turtacn/RxMatch-Intelligence/internal/intelligence/encoder"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the vector index from the full catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			index := milvus.NewIndex(cfg.Milvus, logger)
			defer index.Close()

			svc := catalogsync.NewService(catalogsync.ServiceDeps{
				Catalog:   postgres.NewCatalogRepository(pool, logger),
				History:   postgres.NewHistoryRepository(pool, logger),
				Index:     index,
				Dense:     encoder.NewDenseEncoder(cfg.Encoder, logger),
				Sparse:    encoder.NewTermFrequencyEncoder(),
				Logger:    logger,
				BatchSize: cfg.Worker.BatchSize,
			})
			return svc.RebuildIndex(ctx)
		},
	}
}
