package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/EHRI/rspub-core/cmd/rspub/opts"
	"github.com/EHRI/rspub-core/pkg/audit"
)

// NewAuditCmd creates a new audit command
func NewAuditCmd(opts *opts.RootOpts) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Verify the publication from the consumer's side",
		Long: `Audit fetches the published URIs over HTTP and compares the content
with the local records.
It will:
1. Reconstruct the set of published resources
2. Fetch every resource and sitemap URI
3. Compare checksums and report the differences`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Create auditor
			auditor, err := audit.New(audit.Options{
				Parameters: opts.Params,
				Observer:   opts.Console,
			})
			if err != nil {
				return errors.Errorf("creating auditor: %w", err)
			}

			// Run audit
			result, err := auditor.Run(ctx, all)
			if err != nil {
				return errors.Errorf("auditing: %w", err)
			}

			fmt.Fprint(opts.Out, result.Report())
			if result.HasFailures() {
				return errors.Errorf("audit found %d problems", result.Failures())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "audit every resource, not only the latest page")

	return cmd
}
