package sitemap

import (
	"fmt"
	"time"
)

// Descriptor is the receipt for a finalized document. One is produced
// for every document a run completes, whether or not it was written to
// disk (dry runs set Saved to false).
type Descriptor struct {
	URI           string
	Path          string
	Ordinal       int
	ResourceCount int
	Capability    Capability
	Saved         bool
	StartedAt     time.Time
	FinishedAt    time.Time
}

// String renders a short human-readable summary.
func (d Descriptor) String() string {
	return fmt.Sprintf("%s, resource_count: %d, ordinal: %d, saved: %t, uri: %s",
		d.Capability, d.ResourceCount, d.Ordinal, d.Saved, d.URI)
}
