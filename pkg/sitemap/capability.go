// Package sitemap models the documents of the ResourceSync framework
// and their XML wire format: paginated resourcelists and changelists,
// their indexes, the capabilitylist and the source description.
package sitemap

import (
	"gitlab.com/tozd/go/errors"
)

// Capability is the role a document plays in the framework.
type Capability string

const (
	CapabilityResourceList         Capability = "resourcelist"
	CapabilityChangeList           Capability = "changelist"
	CapabilityResourceDump         Capability = "resourcedump"
	CapabilityChangeDump           Capability = "changedump"
	CapabilityResourceDumpManifest Capability = "resourcedump-manifest"
	CapabilityChangeDumpManifest   Capability = "changedump-manifest"
	CapabilityCapabilityList       Capability = "capabilitylist"
	CapabilityDescription          Capability = "description"
)

// ListCapabilities are the document kinds that appear as entries in a
// capabilitylist.
var ListCapabilities = []Capability{
	CapabilityResourceList,
	CapabilityChangeList,
	CapabilityResourceDump,
	CapabilityChangeDump,
}

// String returns the wire name of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a wire name into a Capability.
func ParseCapability(s string) (Capability, error) {
	switch Capability(s) {
	case CapabilityResourceList, CapabilityChangeList,
		CapabilityResourceDump, CapabilityChangeDump,
		CapabilityResourceDumpManifest, CapabilityChangeDumpManifest,
		CapabilityCapabilityList, CapabilityDescription:
		return Capability(s), nil
	}
	return "", errors.Errorf("unknown capability: %q", s)
}
