package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/local/repage/internal/orchestrator"
)

// NewDocumentCommand creates the document command.
func NewDocumentCommand(rootOpts *RootOptions) *cobra.Command {
	var dpi int

	cmd := &cobra.Command{
		Use:   "document <file> <output-dir>",
		Short: "Render a PDF, CBZ or EPUB and repaginate its pages",
		Long: `Renders every page of the document at --dpi and feeds the rendered pages
through the same repagination as a directory of images. Pages that fail to
render are skipped with a warning.`,
		Args:          minArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			lay, err := rootOpts.layout(cmd.Context(), "")
			if err != nil {
				return err
			}
			stats, err := orchestrator.RepaginateDocument(cmd.Context(), args[0], args[1], dpi, lay)
			if err != nil {
				return WrapExitError(ExitFailure, "document repagination aborted", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[1], stats.Describe())
			return nil
		},
	}

	cmd.Flags().IntVar(&dpi, "dpi", rootOpts.config.Layout.DPI, "render resolution")
	return cmd
}
