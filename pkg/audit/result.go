package audit

import (
	"fmt"
	"strings"
)

// Tally counts audit outcomes for one class of URIs.
type Tally struct {
	// Checked is the number of URIs fetched.
	Checked int

	// OK is the number of URIs that returned the expected content.
	OK int

	// NotFound counts URIs that did not return a 200.
	NotFound int

	// ChecksumErrors counts URIs whose content did not match the local
	// record.
	ChecksumErrors int

	// Errors counts URIs that could not be fetched at all.
	Errors int
}

// Failures returns the number of checks that did not come back OK.
func (t Tally) Failures() int {
	return t.NotFound + t.ChecksumErrors + t.Errors
}

// Result holds the outcome of an audit run.
type Result struct {
	Resources Tally
	Sitemaps  Tally
}

// Failures returns the total number of failed checks.
func (r *Result) Failures() int {
	return r.Resources.Failures() + r.Sitemaps.Failures()
}

// HasFailures reports whether any check failed.
func (r *Result) HasFailures() bool {
	return r.Failures() > 0
}

// Report renders the result as a plain text summary.
func (r *Result) Report() string {
	var b strings.Builder
	writeTally(&b, "resources", r.Resources)
	writeTally(&b, "sitemaps", r.Sitemaps)
	if r.HasFailures() {
		fmt.Fprintf(&b, "audit failed, %d problems\n", r.Failures())
	} else {
		b.WriteString("audit passed\n")
	}
	return b.String()
}

func writeTally(b *strings.Builder, name string, t Tally) {
	fmt.Fprintf(b, "%s\n", name)
	fmt.Fprintf(b, "  %-17s%4d\n", "checked", t.Checked)
	fmt.Fprintf(b, "  %-17s%4d\n", "ok", t.OK)
	fmt.Fprintf(b, "  %-17s%4d\n", "not found", t.NotFound)
	fmt.Fprintf(b, "  %-17s%4d\n", "checksum errors", t.ChecksumErrors)
	fmt.Fprintf(b, "  %-17s%4d\n", "errors", t.Errors)
}
