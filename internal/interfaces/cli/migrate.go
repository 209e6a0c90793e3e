package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/database/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending catalog schema migrations",
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
			return postgres.Migrate(cfg.Database, logger)
		},
	}
}
