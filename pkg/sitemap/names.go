package sitemap

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// CapabilityListName is the filename of the capabilitylist in the
	// metadata directory.
	CapabilityListName = "capabilitylist.xml"

	// WellKnownPath is the slash-separated relative path of the source
	// description document.
	WellKnownPath = ".well-known/resourcesync"

	// IndexOrdinal is the sentinel ordinal of an index document: index
	// filenames carry no number.
	IndexOrdinal = -1
)

// PageName renders the filename of a numbered page. The underscore
// before the zero-filled ordinal distinguishes pages from indexes
// (changelist_0001.xml vs changelist-index.xml).
func PageName(cap Capability, ordinal, width int) string {
	return fmt.Sprintf("%s_%0*d.xml", cap, width, ordinal)
}

// IndexName renders the filename of the index document of a capability.
func IndexName(cap Capability) string {
	return string(cap) + "-index.xml"
}

// PageOrdinal extracts the ordinal from a page filename. The second
// return value reports whether name is a page of the given capability.
func PageOrdinal(cap Capability, name string) (int, bool) {
	prefix := string(cap) + "_"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".xml") {
		return 0, false
	}
	digits := name[len(prefix) : len(name)-len(".xml")]
	if digits == "" {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	ordinal, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return ordinal, true
}
