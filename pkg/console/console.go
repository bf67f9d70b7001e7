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

// Package console renders engine events for people. It implements
// observe.Observer, so it attaches to a run like any other listener.
package console

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"github.com/EHRI/rspub-core/pkg/observe"
)

// 📺 Console writes human-readable progress to a writer
type Console struct {
	out  io.Writer
	zlog zerolog.Logger
	mu   sync.Mutex

	// AssumeYes answers guarded mutations without prompting.
	AssumeYes bool

	// Verbose renders per-file events, not just the run milestones.
	Verbose bool
}

// 🏭 New creates a console bound to a writer
func New(ctx context.Context, out io.Writer) *Console {
	return &Console{
		out:  out,
		zlog: *zerolog.Ctx(ctx),
	}
}

// Inform renders one event.
func (c *Console) Inform(ctx context.Context, e observe.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Kind {
	case observe.KindExecutionStart:
		title := color.New(color.Bold, color.FgCyan).Sprint("rspub")
		fmt.Fprintf(c.out, "\n%s %s\n\n", title,
			color.New(color.Faint).Sprint("• publishing ("+e.Strategy+")"))

	case observe.KindStartFileSearch:
		fmt.Fprintf(c.out, "🔍 Searching %s\n", color.New(color.FgCyan).Sprint(e.Path))

	case observe.KindCreatedResource:
		if c.Verbose {
			fmt.Fprintf(c.out, "   ✨ %s\n", filepath.Base(e.Path))
		}

	case observe.KindRejectedFile:
		if c.Verbose {
			fmt.Fprintf(c.out, "   ⏭  %s\n", color.New(color.Faint).Sprint(filepath.Base(e.Path)))
		}

	case observe.KindFoundChanges:
		if e.Counts != nil {
			fmt.Fprintf(c.out, "🔄 %s\n", FormatCounts(*e.Counts))
		}

	case observe.KindCompletedDocument:
		c.renderDocument(e)

	case observe.KindExecutionEnd:
		done := color.New(color.FgGreen).Sprint("Done:")
		if e.Counts != nil {
			fmt.Fprintf(c.out, "\n✅ %s %s\n", done, FormatCounts(*e.Counts))
		} else {
			fmt.Fprintf(c.out, "\n✅ %s %d pages\n", done, e.Count)
		}

	case observe.KindTransportStart:
		fmt.Fprintf(c.out, "📦 Packing %s\n", color.New(color.FgCyan).Sprint(e.Path))

	case observe.KindCopiedFile:
		if c.Verbose {
			fmt.Fprintf(c.out, "   📄 %s\n", filepath.Base(e.Path))
		}

	case observe.KindFileNotFound:
		fmt.Fprintf(c.out, "⚠️  Missing %s\n", color.New(color.FgYellow).Sprint(e.Path))

	case observe.KindZipCreated:
		fmt.Fprintf(c.out, "🗜  Created %s\n", e.Path)

	case observe.KindTransportEnd:
		fmt.Fprintf(c.out, "✅ %s %d files\n", color.New(color.FgGreen).Sprint("Packed"), e.Count)

	case observe.KindAuditStart:
		fmt.Fprintf(c.out, "🔎 Auditing %s\n", color.New(color.FgCyan).Sprint(e.URI))

	case observe.KindCheckURI:
		if c.Verbose {
			fmt.Fprintf(c.out, "   🔗 %s\n", e.URI)
		}

	case observe.KindURIVerified:
		if e.Err != nil {
			fmt.Fprintf(c.out, "   %s %s: %v\n", color.New(color.FgRed).Sprint("✗"), e.URI, e.Err)
		} else if c.Verbose {
			fmt.Fprintf(c.out, "   %s %s\n", color.New(color.FgGreen).Sprint("✓"), e.URI)
		}

	case observe.KindAuditEnd:
		fmt.Fprintf(c.out, "✅ %s %d URIs\n", color.New(color.FgGreen).Sprint("Checked"), e.Count)
	}

	c.zlog.Debug().
		Str("event", e.Kind.String()).
		Str("path", e.Path).
		Str("uri", e.URI).
		Msg("event")
}

// Confirm asks the user before a guarded mutation. With AssumeYes set
// the question is answered without prompting. Per-URI check
// confirmations are consented silently; those exist for programmatic
// observers, not for people.
func (c *Console) Confirm(ctx context.Context, e observe.Event) bool {
	if e.Kind != observe.KindClearMetadataDirectory {
		return true
	}
	prompt := fmt.Sprintf("Clear the metadata directory %s?", e.Path)

	if c.AssumeYes {
		c.mu.Lock()
		fmt.Fprintf(c.out, "⚠️  %s %s\n",
			color.New(color.FgYellow).Sprint(prompt),
			color.New(color.Faint).Sprint("(assumed yes)"))
		c.mu.Unlock()
		return true
	}

	ok, err := pterm.DefaultInteractiveConfirm.WithDefaultValue(false).Show(prompt)
	if err != nil {
		c.zlog.Warn().Err(err).Msg("confirmation prompt failed, refusing")
		return false
	}
	return ok
}

func (c *Console) renderDocument(e observe.Event) {
	d := e.Descriptor
	if d == nil {
		return
	}

	symbol := "💾"
	if !d.Saved {
		symbol = "📄"
	}
	fmt.Fprintf(c.out, "%s %-28s %4d %s\n",
		symbol,
		filepath.Base(d.Path),
		d.ResourceCount,
		color.New(color.Faint).Sprint(d.URI))
}

// FormatCounts renders a reconciliation summary on one line.
func FormatCounts(c observe.ChangeCounts) string {
	return fmt.Sprintf("%d created, %d updated, %d deleted, %d unchanged",
		c.Created, c.Updated, c.Deleted, c.Unchanged)
}
