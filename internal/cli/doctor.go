package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/local/repage/internal/imagerender"
	"github.com/local/repage/internal/statuscheck"
	"github.com/local/repage/internal/storage"
	"github.com/local/repage/internal/store"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand(rootOpts *RootOptions) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the renderer and the configured Redis and S3 backends",
		Long: `Runs one probe per backend and prints the result. Backends that are not
configured are reported but do not fail the check.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := statuscheck.Options{Renderer: imagerender.SelfTest, OutputDir: outputDir}

			if url := rootOpts.config.RedisURL; url != "" {
				rs, err := store.NewRedisStatus(url)
				if err != nil {
					opts.Redis = failingPinger{err}
				} else {
					defer rs.Close()
					opts.Redis = rs
				}
			}
			if s3opts := rootOpts.s3Options(); s3opts.Enabled() {
				client, err := storage.NewClient(ctx, s3opts)
				if err != nil {
					return WrapExitError(ExitFailure, "configure S3 client", err)
				}
				opts.S3, opts.S3Bucket = client, s3opts.Bucket
			}

			sum := statuscheck.New(opts).Summary(ctx)
			w := cmd.OutOrStdout()
			for _, st := range sum.All() {
				mark := "ok"
				switch {
				case !st.Configured:
					mark = "--"
				case !st.OK:
					mark = "FAIL"
				}
				fmt.Fprintf(w, "%-9s %-4s %s\n", st.Name, mark, st.Message)
			}
			if !sum.Healthy() {
				return NewExitError(ExitFailure, "one or more checks failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output", "", "also check that this directory is writable")
	return cmd
}

// failingPinger reports a connection error found while building the client.
type failingPinger struct{ err error }

func (p failingPinger) Ping(context.Context) error { return p.err }
