package opts

import (
	"io"

	"github.com/EHRI/rspub-core/pkg/config"
	"github.com/EHRI/rspub-core/pkg/console"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	// Params is the validated publication configuration.
	Params *config.Parameters

	// Console renders progress and answers confirmation prompts.
	Console *console.Console

	// Out receives command output like reports and summaries.
	Out io.Writer
}
