package publish

import (
	"context"
	"time"

	"github.com/EHRI/rspub-core/pkg/config"
	"github.com/EHRI/rspub-core/pkg/observe"
	"github.com/EHRI/rspub-core/pkg/resource"
	"github.com/EHRI/rspub-core/pkg/sitemap"
)

// executeChangeList reconstructs consumer state, reconciles it against
// the scanned resources and paginates the changes into changelist
// pages. Under the new_changelist strategy every run opens a fresh
// page and closes the pages it supersedes; under inc_changelist the
// latest page keeps filling until it reaches capacity.
func (e *executor) executeChangeList(ctx context.Context, strategy config.Strategy, scanned []resource.Resource) ([]sitemap.Descriptor, *observe.ChangeCounts, error) {
	state, err := Reconstruct(ctx, e.st)
	if err != nil {
		return nil, nil, err
	}

	// The first ever changelist continues the story where the snapshot
	// ended; later new_changelist pages start at this run.
	changelogFrom := state.BaselineCompletedAt
	if strategy == config.StrategyNewChangeList && len(state.ChangeListNames) > 0 {
		changelogFrom = e.runStart
	}

	cs := Reconcile(state.Resources, scanned, e.runStart)
	counts := cs.Counts()
	e.inform(ctx, observe.Event{Kind: observe.KindFoundChanges, Counts: &counts})

	pages, err := e.paginateChanges(ctx, strategy, state, cs, changelogFrom)
	if err != nil {
		return nil, nil, err
	}

	if strategy == config.StrategyNewChangeList {
		if err := e.closeSuperseded(ctx, state.ChangeListNames, len(pages) > 0); err != nil {
			return nil, nil, err
		}
	}

	if _, err := e.createChangeListIndex(ctx, state.BaselineCompletedAt); err != nil {
		return nil, nil, err
	}

	return pages, &counts, nil
}

// paginateChanges writes the change entries into pages. The running
// count carries across pages so every page except the last fills to
// capacity exactly. Under inc_changelist the latest existing page is
// resumed (and rewritten under its own ordinal) unless it is already
// full.
func (e *executor) paginateChanges(ctx context.Context, strategy config.Strategy, state *State, cs *ChangeSet, changelogFrom time.Time) ([]sitemap.Descriptor, error) {
	ordinal := lastOrdinal(state.ChangeListNames, sitemap.CapabilityChangeList)

	var (
		pages []sitemap.Descriptor
		doc   *sitemap.Document
		count int
	)

	if strategy == config.StrategyIncChangeList && len(state.ChangeListNames) > 0 {
		last := state.ChangeListNames[len(state.ChangeListNames)-1]
		resumed, err := readDocument(ctx, e.st, last)
		if err != nil {
			return nil, err
		}
		ordinal--
		count = resumed.Len()
		if count >= e.params.MaxItemsInList {
			ordinal++
			count = 0
		} else {
			doc = resumed
		}
	}

	closePage := func() error {
		ordinal++
		d, err := e.finish(ctx, ordinal, doc, time.Time{}, time.Time{})
		if err != nil {
			return err
		}
		pages = append(pages, d)
		doc = nil
		return nil
	}

	for _, r := range cs.Changes() {
		if doc == nil {
			doc = sitemap.New(sitemap.CapabilityChangeList)
			doc.From = changelogFrom
		}
		doc.Add(r)
		count++

		if count%e.params.MaxItemsInList == 0 {
			if err := closePage(); err != nil {
				return nil, err
			}
		}
	}

	if doc != nil && cs.Counts().Total() > 0 {
		if err := closePage(); err != nil {
			return nil, err
		}
	}

	return pages, nil
}

// closeSuperseded stamps an until time on every change page that was
// open before this run replaced it. Nothing is closed when the run
// produced no documents.
func (e *executor) closeSuperseded(ctx context.Context, names []string, produced bool) error {
	if !produced || e.params.DryRun {
		return nil
	}
	for _, name := range names {
		doc, err := readDocument(ctx, e.st, name)
		if err != nil {
			return err
		}
		if !doc.Until.IsZero() {
			continue
		}
		doc.Until = e.runStart
		if err := e.rewrite(ctx, name, doc); err != nil {
			return err
		}
	}
	return nil
}

// createChangeListIndex rebuilds the changelist index from the pages
// in the store. The index covers the whole change history, so it
// starts where the snapshot ended. An index exists only while more
// than one page does; pages not yet pointing at the index are
// rewritten to do so.
func (e *executor) createChangeListIndex(ctx context.Context, baselineCompletedAt time.Time) (*sitemap.Descriptor, error) {
	indexName := sitemap.IndexName(sitemap.CapabilityChangeList)

	if !e.params.DryRun {
		exists, err := e.st.Exists(ctx, indexName)
		if err != nil {
			return nil, err
		}
		if exists {
			if err := e.st.Remove(ctx, indexName); err != nil {
				return nil, err
			}
		}
	}

	names, err := e.st.Names(ctx)
	if err != nil {
		return nil, err
	}
	pages := pageNames(names, sitemap.CapabilityChangeList)
	if len(pages) <= 1 {
		return nil, nil
	}

	idx := sitemap.NewIndex(sitemap.CapabilityChangeList)
	idx.From = baselineCompletedAt
	indexURI := e.params.URLForDocument(indexName)

	for _, name := range pages {
		page, err := readDocument(ctx, e.st, name)
		if err != nil {
			return nil, err
		}
		idx.Add(resource.Resource{
			URI:   e.params.URLForDocument(name),
			From:  page.From,
			Until: page.Until,
		})
		if !e.params.DryRun && page.IndexLink == "" {
			page.IndexLink = indexURI
			if err := e.rewrite(ctx, name, page); err != nil {
				return nil, err
			}
		}
	}

	d, err := e.finish(ctx, sitemap.IndexOrdinal, idx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	return &d, nil
}
