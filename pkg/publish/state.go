// Package publish is the publication engine: it reconstructs the state
// a remote consumer holds from the documents already published,
// reconciles that state against the live file set, and emits the next
// generation of sitemap documents.
package publish

import (
	"context"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/EHRI/rspub-core/pkg/resource"
	"github.com/EHRI/rspub-core/pkg/sitemap"
	"github.com/EHRI/rspub-core/pkg/store"
)

// State is the view a consumer that followed every published document
// holds: the last snapshot with all later changes folded in.
type State struct {
	// Resources maps URI to the resource metadata the consumer last
	// saw.
	Resources map[string]resource.Resource

	// BaselineCompletedAt is when the last snapshot page finished.
	// Zero when no snapshot exists.
	BaselineCompletedAt time.Time

	// ResourceListNames and ChangeListNames are the page files found
	// in the store, sorted by name.
	ResourceListNames []string
	ChangeListNames   []string
}

// Reconstruct replays the published documents into consumer state.
// Snapshot pages are applied first, then change pages in publication
// order: creations and updates overwrite, deletions remove.
func Reconstruct(ctx context.Context, st store.Store) (*State, error) {
	names, err := st.Names(ctx)
	if err != nil {
		return nil, errors.Errorf("listing store: %w", err)
	}

	state := &State{
		Resources:         map[string]resource.Resource{},
		ResourceListNames: pageNames(names, sitemap.CapabilityResourceList),
		ChangeListNames:   pageNames(names, sitemap.CapabilityChangeList),
	}

	for _, name := range state.ResourceListNames {
		doc, err := readDocument(ctx, st, name)
		if err != nil {
			return nil, err
		}
		state.BaselineCompletedAt = doc.Completed
		if state.BaselineCompletedAt.IsZero() {
			state.BaselineCompletedAt = doc.At
		}
		for _, r := range doc.Resources {
			state.Resources[r.URI] = r
		}
	}

	for _, name := range state.ChangeListNames {
		doc, err := readDocument(ctx, st, name)
		if err != nil {
			return nil, err
		}
		for _, r := range doc.Resources {
			switch r.Change {
			case resource.ChangeCreated, resource.ChangeUpdated:
				state.Resources[r.URI] = r
			case resource.ChangeDeleted:
				delete(state.Resources, r.URI)
			}
		}
	}

	return state, nil
}

// pageNames keeps the names that are pages of the given capability,
// preserving the sorted order of the input.
func pageNames(names []string, cap sitemap.Capability) []string {
	var out []string
	for _, name := range names {
		if _, ok := sitemap.PageOrdinal(cap, name); ok {
			out = append(out, name)
		}
	}
	return out
}

// lastOrdinal returns the ordinal of the last existing page of the
// given capability, or -1 when none exists.
func lastOrdinal(names []string, cap sitemap.Capability) int {
	pages := pageNames(names, cap)
	if len(pages) == 0 {
		return -1
	}
	ordinal, _ := sitemap.PageOrdinal(cap, pages[len(pages)-1])
	return ordinal
}

func readDocument(ctx context.Context, st store.Store, name string) (*sitemap.Document, error) {
	data, err := st.Read(ctx, name)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", name, err)
	}
	doc, err := sitemap.Decode(data)
	if err != nil {
		return nil, errors.Errorf("decoding %s: %w", name, err)
	}
	return doc, nil
}
