package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/RxMatch-Intelligence/internal/application/extraction"
	"github.com/turtacn/RxMatch-Intelligence/internal/application/matching"
)

func newMatchCmd() *cobra.Command {
	var prescriberID string

	cmd := &cobra.Command{
		Use:   "match <raw text>",
		Short: "Run one prescription text through the full matching pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			env, err := buildPipelineEnv(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer env.close()

			extractor := extraction.NewService(nil, logger)
			var extractionLog []string
			mentions, err := extractor.Extract(ctx, extraction.Request{
				RawText: strings.Join(args, " "),
			}, func(line string) { extractionLog = append(extractionLog, line) })
			if err != nil {
				return err
			}

			result, err := env.pipeline.Process(ctx, matching.Request{
				Mentions:     mentions,
				PrescriberID: prescriberID,
			})
			if err != nil {
				return err
			}
			result.Trail = append(extractionLog, result.Trail...)

			payload, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		},
	}

	cmd.Flags().StringVar(&prescriberID, "prescriber", "", "prescriber id for history re-ranking")
	return cmd
}
