package console

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"

	"github.com/EHRI/rspub-core/pkg/publish"
)

// RenderReport prints the outcome of an execution as a table of the
// documents it produced.
func RenderReport(w io.Writer, r *publish.Report) error {
	data := pterm.TableData{{"document", "capability", "resources", "saved", "uri"}}
	for _, d := range r.Documents {
		data = append(data, []string{
			filepath.Base(d.Path),
			string(d.Capability),
			strconv.Itoa(d.ResourceCount),
			strconv.FormatBool(d.Saved),
			d.URI,
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering report: %w", err)
	}
	fmt.Fprintln(w, table)
	fmt.Fprintf(w, "run %s • strategy %s • took %s\n",
		r.RunID, r.Strategy, r.FinishedAt.Sub(r.StartedAt))
	return nil
}
