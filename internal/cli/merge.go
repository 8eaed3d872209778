package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/local/repage/internal/chapters"
	"github.com/local/repage/internal/orchestrator"
)

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "merge <manga-dir>",
		Short: "Merge chapter folders into a single final/ folder",
		Long: `Orders the chapter folders of <manga-dir> (chapters by volume and number,
then prologues, epilogues, side stories, creator's notes and the rest) and
copies their images into <manga-dir>/final as 1.<ext>, 2.<ext>, ...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := chapters.Chapters(args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "invalid manga directory", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), chapters.FormatOrder(names))
			if dryRun {
				return nil
			}
			res, err := chapters.Merge(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "merge failed", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied %d images into %s\n", res.Copied, res.Destination)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the chapter order without copying")
	return cmd
}

// NewMergeAllCommand creates the merge-all command.
func NewMergeAllCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "merge-all <collection-dir>",
		Short:         "Run merge on every manga folder of a collection",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := orchestrator.MergeAll(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "merge-all aborted", err)
			}
			printBatch(cmd, res)
			return nil
		},
	}
	return cmd
}

func printBatch(cmd *cobra.Command, res orchestrator.BatchResult) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "done: %d, failed: %d, skipped: %d\n", len(res.Done), len(res.Failed), len(res.Skipped))
	for _, f := range res.Failed {
		fmt.Fprintf(w, "failed: %s\n", f)
	}
}
