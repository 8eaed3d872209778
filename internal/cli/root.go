package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/repage/internal/config"
	"github.com/local/repage/internal/logger"
	"github.com/local/repage/internal/orchestrator"
	"github.com/local/repage/internal/sink"
	"github.com/local/repage/internal/source"
	"github.com/local/repage/internal/storage"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Multiplier float64
	Tolerance  int
	Quality    int
	Lossless   bool
	Format     string

	RunID  string
	config config.Config
	format sink.Format
}

// NewRootCommand creates the root command. Flag defaults come from cfg.
func NewRootCommand(cfg config.Config) *cobra.Command {
	opts := &RootOptions{config: cfg}

	cmd := &cobra.Command{
		Use:   "repage <input-dir> <output-dir>",
		Short: "Repaginate manga pages to a fixed aspect ratio",
		Long: `Reads the images of <input-dir> in reading order and rewrites them into
<output-dir> as pages whose height is multiplier times their width. Tall
pages are split, short consecutive pages of similar width are stacked.
Output files are numbered 1, 2, 3, ...`,
		Args:          minArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			f, err := sink.ParseFormat(opts.Format)
			if err != nil {
				return WrapExitError(ExitFailure, "invalid --format", err)
			}
			opts.format = f
			if opts.Quality < 1 || opts.Quality > 100 {
				return NewExitError(ExitFailure, fmt.Sprintf("invalid --quality %d, must be between 1 and 100", opts.Quality))
			}
			if opts.Verbose {
				logger.SetVerbose()
			}
			opts.RunID = uuid.NewString()
			logger.WithRunID(opts.RunID)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepaginate(cmd, opts, args[0], args[1])
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	pf.Float64Var(&opts.Multiplier, "multiplier", cfg.Layout.Multiplier, "target height as a multiple of page width")
	pf.IntVar(&opts.Tolerance, "tolerance", cfg.Layout.Tolerance, "max width difference in pixels for stacking pages")
	pf.IntVar(&opts.Quality, "quality", cfg.Output.Quality, "encoder quality (1-100)")
	pf.BoolVar(&opts.Lossless, "lossless", cfg.Output.Lossless, "lossless webp output")
	pf.StringVar(&opts.Format, "format", cfg.Output.Format, "output format (webp|jpeg|png)")

	cmd.AddCommand(NewDocumentCommand(opts))
	cmd.AddCommand(NewMergeCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewMergeAllCommand(opts))
	cmd.AddCommand(NewDoctorCommand(opts))

	return cmd
}

// minArgs is cobra.MinimumNArgs with the usage line in the message.
func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return NewExitError(ExitFailure, fmt.Sprintf("usage: %s", cmd.UseLine()))
		}
		return nil
	}
}

// layout builds the orchestrator options shared by every repaginating command.
// collection, when set, nests mirrored keys under each folder's relative path.
func (o *RootOptions) layout(ctx context.Context, collection string) (orchestrator.Options, error) {
	out := orchestrator.Options{
		Multiplier: o.Multiplier,
		Tolerance:  o.Tolerance,
		Output:     sink.Options{Format: o.format, Quality: o.Quality, Lossless: o.Lossless},
	}

	s3opts := o.s3Options()
	if !s3opts.Enabled() {
		return out, nil
	}
	up, err := storage.NewS3Uploader(ctx, s3opts)
	if err != nil {
		return out, WrapExitError(ExitFailure, "configure S3 mirror", err)
	}
	out.Mirror = func(outputDir string) sink.Mirror {
		if collection == "" {
			return up
		}
		rel, err := filepath.Rel(collection, outputDir)
		if err != nil {
			return up
		}
		return up.WithPrefix(rel)
	}
	log.Info().Str("bucket", s3opts.Bucket).Str("prefix", s3opts.Prefix).Msg("mirroring pages to S3")
	return out, nil
}

func (o *RootOptions) s3Options() storage.Options {
	c := o.config.S3
	return storage.Options{
		Bucket:          c.Bucket,
		Prefix:          c.Prefix,
		Region:          c.Region,
		Endpoint:        c.Endpoint,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
	}
}

func runRepaginate(cmd *cobra.Command, opts *RootOptions, input, output string) error {
	if err := source.CheckDir(input); err != nil {
		return WrapExitError(ExitFailure, "invalid input directory", err)
	}
	lay, err := opts.layout(cmd.Context(), "")
	if err != nil {
		return err
	}
	stats, err := orchestrator.Repaginate(cmd.Context(), input, output, lay)
	if err != nil {
		return WrapExitError(ExitFailure, "repagination aborted", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", output, stats.Describe())
	return nil
}
