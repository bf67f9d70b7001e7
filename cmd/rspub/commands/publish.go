package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/EHRI/rspub-core/cmd/rspub/opts"
	"github.com/EHRI/rspub-core/pkg/console"
	"github.com/EHRI/rspub-core/pkg/publish"
)

// NewPublishCmd creates a new publish command
func NewPublishCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		startNew bool
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "publish [directory ...]",
		Short: "Publish the resource set as ResourceSync documents",
		Long: `Publish brings the sitemap documents up to date with the files on disk.
It will:
1. Reconstruct the state a consumer holds from the stored documents
2. Scan the file set and compute the changes
3. Write the documents the configured strategy asks for
4. Reweave the capability list and the source description`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "publish").Logger().WithContext(ctx)

			if dryRun {
				opts.Params.DryRun = true
			}

			// Create publisher
			pub, err := publish.New(publish.Options{
				Parameters: opts.Params,
				Observer:   opts.Console,
				StartNew:   startNew,
			})
			if err != nil {
				return errors.Errorf("creating publisher: %w", err)
			}

			// Run publication
			report, err := pub.Execute(ctx, args)
			if err != nil {
				return errors.Errorf("publishing: %w", err)
			}

			return console.RenderReport(opts.Out, report)
		},
	}

	cmd.Flags().BoolVar(&startNew, "new", false, "start a fresh snapshot regardless of strategy")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute documents without writing them")

	return cmd
}
