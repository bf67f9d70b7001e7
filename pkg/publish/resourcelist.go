package publish

import (
	"context"
	"time"

	"github.com/EHRI/rspub-core/pkg/resource"
	"github.com/EHRI/rspub-core/pkg/sitemap"
)

// generateResourceList paginates a complete snapshot of the scanned
// resources. Pages fill to the configured capacity; each page records
// when it was opened (at) and closed (completed).
func (e *executor) generateResourceList(ctx context.Context, resources []resource.Resource) ([]sitemap.Descriptor, error) {
	names, err := e.st.Names(ctx)
	if err != nil {
		return nil, err
	}
	ordinal := lastOrdinal(names, sitemap.CapabilityResourceList)

	var (
		pages    []sitemap.Descriptor
		doc      *sitemap.Document
		docStart time.Time
		count    int
	)

	closePage := func() error {
		ordinal++
		docEnd := e.now()
		doc.Completed = docEnd
		d, err := e.finish(ctx, ordinal, doc, docStart, docEnd)
		if err != nil {
			return err
		}
		pages = append(pages, d)
		doc = nil
		return nil
	}

	for _, r := range resources {
		if doc == nil {
			doc = sitemap.New(sitemap.CapabilityResourceList)
			docStart = e.now()
			doc.At = docStart
		}
		doc.Add(r)
		count++

		if count%e.params.MaxItemsInList == 0 {
			if err := closePage(); err != nil {
				return nil, err
			}
		}
	}
	if doc != nil {
		if err := closePage(); err != nil {
			return nil, err
		}
	}

	return pages, nil
}

// createResourceListIndex gathers this run's snapshot pages under one
// index. A single page needs no index. Saved pages are rewritten to
// point at the index.
func (e *executor) createResourceListIndex(ctx context.Context, pages []sitemap.Descriptor, runEnd time.Time) (*sitemap.Descriptor, error) {
	if len(pages) <= 1 {
		return nil, nil
	}

	indexName := sitemap.IndexName(sitemap.CapabilityResourceList)
	indexURI := e.params.URLForDocument(indexName)

	idx := sitemap.NewIndex(sitemap.CapabilityResourceList)
	idx.At = e.runStart
	idx.Completed = runEnd

	for _, page := range pages {
		idx.Add(resource.Resource{
			URI:       page.URI,
			At:        page.StartedAt,
			Completed: page.FinishedAt,
		})
		if page.Saved {
			if err := e.setIndexLink(ctx, page, indexURI); err != nil {
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

// setIndexLink rewrites a stored page so it points at its index.
func (e *executor) setIndexLink(ctx context.Context, page sitemap.Descriptor, indexURI string) error {
	name := sitemap.PageName(page.Capability, page.Ordinal, e.params.ZeroFillName)
	doc, err := readDocument(ctx, e.st, name)
	if err != nil {
		return err
	}
	doc.IndexLink = indexURI
	return e.rewrite(ctx, name, doc)
}
