package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/repage/internal/orchestrator"
	"github.com/local/repage/internal/source"
	"github.com/local/repage/internal/store"
)

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	var resume, reset bool

	cmd := &cobra.Command{
		Use:   "batch <collection-dir>",
		Short: "Repaginate <folder>/final into <folder>/output for every folder",
		Long: `Walks the folders of <collection-dir> in name order. Folders without a
final/ folder are skipped. A failing folder is logged and the batch moves on.
With REDIS_URL set, each folder's state is recorded, and --resume skips the
folders that already completed. --reset clears the recorded states first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			collection := args[0]
			if err := source.CheckDir(collection); err != nil {
				return WrapExitError(ExitFailure, "invalid collection directory", err)
			}

			lay, err := rootOpts.layout(ctx, collection)
			if err != nil {
				return err
			}
			bopts := orchestrator.BatchOptions{Options: lay, Resume: resume, Reset: reset, RunID: rootOpts.RunID}

			if url := rootOpts.config.RedisURL; url != "" {
				rs, err := store.NewRedisStatus(url)
				if err != nil {
					return WrapExitError(ExitFailure, "connect to redis", err)
				}
				defer rs.Close()
				bopts.Status = rs
			} else if resume || reset {
				log.Warn().Msg("--resume and --reset need REDIS_URL, every folder will be processed")
			}

			res, err := orchestrator.RepaginateAll(ctx, collection, bopts)
			if err != nil {
				return WrapExitError(ExitFailure, "batch aborted", err)
			}
			printBatch(cmd, res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&resume, "resume", false, "skip folders recorded as done")
	cmd.Flags().BoolVar(&reset, "reset", false, "forget recorded folder states before running")
	return cmd
}
