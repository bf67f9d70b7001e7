// Copyright 2025 EHRI
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/EHRI/rspub-core/cmd/rspub/commands"
	"github.com/EHRI/rspub-core/cmd/rspub/opts"
)

// newRootCmd assembles the command tree. The shared options are filled
// in the persistent pre-run, after the flags are parsed.
func newRootCmd() *cobra.Command {
	rootOpts := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "rspub",
		Short: "Publish a directory of files under the ResourceSync framework",
		Long: `rspub turns a directory of files into a ResourceSync publication:
sitemap documents that tell harvesters what a site holds and what
changed, plus the capability list and source description that make
the publication discoverable.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Setup logging
			setupLogging()
			ctx := log.Logger.WithContext(cmd.Context())
			cmd.SetContext(ctx)

			// Create root options
			o, err := newRootOpts(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			*rootOpts = *o
			return nil
		},
	}
	rootCmd.Version = GetVersionInfo().Version
	rootCmd.SetVersionTemplate(FormatVersion())

	// Add shared flags
	addRootFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(
		commands.NewPublishCmd(rootOpts),
		commands.NewPackCmd(rootOpts),
		commands.NewAuditCmd(rootOpts),
	)

	return rootCmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
