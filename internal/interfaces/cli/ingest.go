package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/RxMatch-Intelligence/internal/application/catalogsync"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/messaging/kafka"
	miniostore "github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/storage/minio"
)

// newIngestCmd uploads a catalog dump to object storage and announces it on
// the catalog event stream so the sync worker imports it.
func newIngestCmd() *cobra.Command {
	var objectName string

	cmd := &cobra.Command{
		Use:   "ingest <dump file>",
		Short: "Upload a catalog dump and announce it to the sync worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			// Parse locally before uploading so malformed dumps are rejected
			// at the operator's terminal, not in the worker's retry loop.
			records, err := catalogsync.ParseDump(data)
			if err != nil {
				return err
			}

			if objectName == "" {
				objectName = fmt.Sprintf("dumps/%s-%s",
					time.Now().UTC().Format("20060102T150405Z"), filepath.Base(args[0]))
			}

			ctx := cmd.Context()
			store, err := miniostore.NewDumpStore(cfg.MinIO, logger)
			if err != nil {
				return err
			}
			size, err := store.Put(ctx, objectName, data)
			if err != nil {
				return err
			}

			producer, err := kafka.NewProducer(cfg.Kafka, logger)
			if err != nil {
				return err
			}
			defer producer.Close()
			if err := producer.PublishCatalogEvent(ctx, kafka.CatalogEvent{
				Type:       kafka.EventDumpAvailable,
				DumpObject: objectName,
			}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%d records, %d bytes) and announced to sync worker\n",
				objectName, len(records), size)
			return nil
		},
	}
	cmd.Flags().StringVar(&objectName, "object", "", "object name in the dump bucket (default: timestamped)")
	return cmd
}
