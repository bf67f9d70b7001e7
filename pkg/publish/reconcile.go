package publish

import (
	"sort"
	"time"

	"github.com/EHRI/rspub-core/pkg/observe"
	"github.com/EHRI/rspub-core/pkg/resource"
)

// ChangeSet partitions a live scan against reconstructed consumer
// state. Each group is sorted by URI.
type ChangeSet struct {
	Created   []resource.Resource
	Updated   []resource.Resource
	Deleted   []resource.Resource
	Unchanged []resource.Resource
}

// Reconcile classifies scanned resources against the consumer state.
// A resource is updated when its md5 differs from what the consumer
// saw; timestamps alone do not count. Created, updated and deleted
// entries are stamped with the change kind and changedAt. Deleted
// entries keep the metadata the consumer last saw.
func Reconcile(previous map[string]resource.Resource, scanned []resource.Resource, changedAt time.Time) *ChangeSet {
	current := make(map[string]resource.Resource, len(scanned))
	for _, r := range scanned {
		current[r.URI] = r
	}

	cs := &ChangeSet{}
	for _, r := range current {
		prev, ok := previous[r.URI]
		switch {
		case !ok:
			r.Change = resource.ChangeCreated
			r.ChangeTime = changedAt
			cs.Created = append(cs.Created, r)
		case r.MD5 != prev.MD5:
			r.Change = resource.ChangeUpdated
			r.ChangeTime = changedAt
			cs.Updated = append(cs.Updated, r)
		default:
			cs.Unchanged = append(cs.Unchanged, r)
		}
	}

	for _, r := range previous {
		if _, ok := current[r.URI]; !ok {
			r.Change = resource.ChangeDeleted
			r.ChangeTime = changedAt
			cs.Deleted = append(cs.Deleted, r)
		}
	}

	sortByURI(cs.Created)
	sortByURI(cs.Updated)
	sortByURI(cs.Deleted)
	sortByURI(cs.Unchanged)
	return cs
}

// Changes returns the entries that enter change documents, in
// publication order: creations, then updates, then deletions.
func (c *ChangeSet) Changes() []resource.Resource {
	out := make([]resource.Resource, 0, len(c.Created)+len(c.Updated)+len(c.Deleted))
	out = append(out, c.Created...)
	out = append(out, c.Updated...)
	out = append(out, c.Deleted...)
	return out
}

// Counts summarizes the change set.
func (c *ChangeSet) Counts() observe.ChangeCounts {
	return observe.ChangeCounts{
		Created:   len(c.Created),
		Updated:   len(c.Updated),
		Deleted:   len(c.Deleted),
		Unchanged: len(c.Unchanged),
	}
}

func sortByURI(rs []resource.Resource) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].URI < rs[j].URI })
}
