package sitemap

import (
	"time"

	"github.com/EHRI/rspub-core/pkg/resource"
)

// Document is the in-memory form of one sitemap document. Resources
// keep their insertion order: changelists are ordered by change group,
// resourcelists by URI, and the order is part of the wire format.
type Document struct {
	Capability Capability
	IsIndex    bool

	At        time.Time // snapshot taken at (resourcelist)
	Completed time.Time // snapshot completed at (resourcelist)
	From      time.Time // changes recorded from (changelist)
	Until     time.Time // changes recorded until (closed changelist)

	UpLink    string
	IndexLink string

	Resources []resource.Resource
}

// New returns an empty document of the given capability.
func New(cap Capability) *Document {
	return &Document{Capability: cap}
}

// NewIndex returns an empty index document of the given capability.
func NewIndex(cap Capability) *Document {
	return &Document{Capability: cap, IsIndex: true}
}

// Add appends a resource, preserving insertion order.
func (d *Document) Add(r resource.Resource) {
	d.Resources = append(d.Resources, r)
}

// Upsert replaces the entry with the same URI, or appends when the URI
// is new.
func (d *Document) Upsert(r resource.Resource) {
	for i := range d.Resources {
		if d.Resources[i].URI == r.URI {
			d.Resources[i] = r
			return
		}
	}
	d.Resources = append(d.Resources, r)
}

// Len reports the number of resources in the document.
func (d *Document) Len() int {
	return len(d.Resources)
}
