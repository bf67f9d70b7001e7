package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/EHRI/rspub-core/cmd/rspub/opts"
	"github.com/EHRI/rspub-core/pkg/transport"
)

// NewPackCmd creates a new pack command
func NewPackCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		zipPath string
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Pack the publication into a zip archive",
		Long: `Pack collects the publication into an archive laid out the way the
web server should serve it.
It will:
1. Collect the resources the published documents reference
2. Stage them together with the sitemap documents
3. Write the archive when anything was staged`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Create packer
			packer, err := transport.New(transport.Options{
				Parameters: opts.Params,
				Observer:   opts.Console,
			})
			if err != nil {
				return errors.Errorf("creating packer: %w", err)
			}

			// Run packing
			summary, err := packer.Zip(ctx, zipPath, all)
			if err != nil {
				return errors.Errorf("packing: %w", err)
			}

			fmt.Fprintln(opts.Out, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&zipPath, "zip", "resourcesync.zip", "path of the archive to write")
	cmd.Flags().BoolVar(&all, "all", false, "pack every resource, not only the latest page")

	return cmd
}
