package main

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/EHRI/rspub-core/cmd/rspub/opts"
	"github.com/EHRI/rspub-core/pkg/config"
	"github.com/EHRI/rspub-core/pkg/console"
)

var (
	// Flags
	configFile string
	debug      bool
	verbose    bool
	assumeYes  bool
)

// newRootOpts creates a new RootOpts with initialized dependencies
func newRootOpts(ctx context.Context, out io.Writer) (*opts.RootOpts, error) {
	// Load parameters
	params, err := config.Load(ctx, configFile)
	if err != nil {
		return nil, errors.Errorf("loading parameters: %w", err)
	}

	// Create console
	cons := console.New(ctx, out)
	cons.Verbose = verbose
	cons.AssumeYes = assumeYes

	return &opts.RootOpts{
		Params:  params,
		Console: cons,
		Out:     out,
	}, nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", ".rspub.yaml", "parameters file path")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log per-file progress")
	cmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "answer confirmation prompts with yes")
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}
