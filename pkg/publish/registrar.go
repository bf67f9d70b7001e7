package publish

import (
	"context"
	"time"

	"github.com/EHRI/rspub-core/pkg/observe"
	"github.com/EHRI/rspub-core/pkg/resource"
	"github.com/EHRI/rspub-core/pkg/sitemap"
)

// createCapabilityList rebuilds the capability list from the documents
// in the store. For each list capability the index represents the
// whole set when one exists; otherwise every page is listed.
func (e *executor) createCapabilityList(ctx context.Context) (sitemap.Descriptor, error) {
	if !e.params.DryRun {
		exists, err := e.st.Exists(ctx, sitemap.CapabilityListName)
		if err != nil {
			return sitemap.Descriptor{}, err
		}
		if exists {
			if err := e.st.Remove(ctx, sitemap.CapabilityListName); err != nil {
				return sitemap.Descriptor{}, err
			}
		}
	}

	names, err := e.st.Names(ctx)
	if err != nil {
		return sitemap.Descriptor{}, err
	}

	doc := sitemap.New(sitemap.CapabilityCapabilityList)
	for _, cap := range sitemap.ListCapabilities {
		indexName := sitemap.IndexName(cap)
		exists, err := e.st.Exists(ctx, indexName)
		if err != nil {
			return sitemap.Descriptor{}, err
		}
		if exists {
			doc.Add(resource.Resource{
				URI:        e.params.URLForDocument(indexName),
				Capability: string(cap),
			})
			continue
		}
		for _, name := range pageNames(names, cap) {
			doc.Add(resource.Resource{
				URI:        e.params.URLForDocument(name),
				Capability: string(cap),
			})
		}
	}

	return e.finish(ctx, sitemap.IndexOrdinal, doc, time.Time{}, time.Time{})
}

// updateDescription upserts the capability list into the source
// description at the well-known location. Existing entries for other
// capability lists survive, so several publications can share one
// description. The description is the top of the document hierarchy
// and carries no up link.
func (e *executor) updateDescription(ctx context.Context, capabilityListURI string) (sitemap.Descriptor, error) {
	doc := sitemap.New(sitemap.CapabilityDescription)

	exists, err := e.st.Exists(ctx, sitemap.WellKnownPath)
	if err != nil {
		return sitemap.Descriptor{}, err
	}
	if exists {
		doc, err = readDocument(ctx, e.st, sitemap.WellKnownPath)
		if err != nil {
			return sitemap.Descriptor{}, err
		}
	}

	doc.Upsert(resource.Resource{
		URI:        capabilityListURI,
		Capability: string(sitemap.CapabilityCapabilityList),
	})

	d := sitemap.Descriptor{
		URI:           e.params.DescriptionURL(),
		Path:          e.st.Path(sitemap.WellKnownPath),
		Ordinal:       sitemap.IndexOrdinal,
		ResourceCount: doc.Len(),
		Capability:    sitemap.CapabilityDescription,
		FinishedAt:    e.now(),
	}

	if !e.params.DryRun {
		if err := e.rewrite(ctx, sitemap.WellKnownPath, doc); err != nil {
			return d, err
		}
		d.Saved = true
	}

	e.documents = append(e.documents, d)
	e.inform(ctx, observe.Event{
		Kind:       observe.KindCompletedDocument,
		URI:        d.URI,
		Path:       d.Path,
		Descriptor: &d,
	})
	return d, nil
}
