package publish

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gitlab.com/tozd/go/errors"

	"github.com/EHRI/rspub-core/pkg/config"
	"github.com/EHRI/rspub-core/pkg/observe"
	"github.com/EHRI/rspub-core/pkg/sitemap"
	"github.com/EHRI/rspub-core/pkg/store"
)

// executor carries what every step of a run needs: parameters, the
// document store and the identity of the run. Every document finished
// during the run is collected on it, in completion order.
type executor struct {
	params   *config.Parameters
	st       store.Store
	obs      observe.Observer
	runID    uuid.UUID
	runStart time.Time
	now      func() time.Time

	documents []sitemap.Descriptor
}

func (e *executor) inform(ctx context.Context, ev observe.Event) {
	if e.obs != nil {
		ev.RunID = e.runID
		e.obs.Inform(ctx, ev)
	}
}

// clearStore empties the metadata directory after the observers
// consent. A veto aborts the run with an InterruptError.
func (e *executor) clearStore(ctx context.Context) error {
	ev := observe.Event{
		Kind:  observe.KindClearMetadataDirectory,
		RunID: e.runID,
		Path:  e.params.AbsMetadataDir(),
	}
	if e.obs != nil && !e.obs.Confirm(ctx, ev) {
		return &observe.InterruptError{Event: ev}
	}
	if err := e.st.Clear(ctx); err != nil {
		return errors.Errorf("clearing store: %w", err)
	}
	return nil
}

// upFor returns the up link target of a document: the capabilitylist
// points at the description, everything else at the capabilitylist.
func (e *executor) upFor(doc *sitemap.Document) string {
	if doc.Capability == sitemap.CapabilityCapabilityList {
		return e.params.DescriptionURL()
	}
	return e.params.CapabilityListURL()
}

// documentName returns the filename a finished document is stored
// under. Indexes and the capabilitylist carry no ordinal.
func (e *executor) documentName(doc *sitemap.Document, ordinal int) string {
	if doc.IsIndex {
		return sitemap.IndexName(doc.Capability)
	}
	if ordinal >= 0 {
		return sitemap.PageName(doc.Capability, ordinal, e.params.ZeroFillName)
	}
	return string(doc.Capability) + ".xml"
}

// finish names a document, sets its up link, stores it unless this is
// a dry run, and reports it. startedAt and finishedAt describe the
// window the document covers; a zero finishedAt means now.
func (e *executor) finish(ctx context.Context, ordinal int, doc *sitemap.Document, startedAt, finishedAt time.Time) (sitemap.Descriptor, error) {
	name := e.documentName(doc, ordinal)
	doc.UpLink = e.upFor(doc)

	if finishedAt.IsZero() {
		finishedAt = e.now()
	}
	d := sitemap.Descriptor{
		URI:           e.params.URLForDocument(name),
		Path:          e.st.Path(name),
		Ordinal:       ordinal,
		ResourceCount: doc.Len(),
		Capability:    doc.Capability,
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
	}

	if !e.params.DryRun {
		if err := e.rewrite(ctx, name, doc); err != nil {
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

func (e *executor) rewrite(ctx context.Context, name string, doc *sitemap.Document) error {
	data, err := sitemap.Encode(doc)
	if err != nil {
		return errors.Errorf("encoding %s: %w", name, err)
	}
	if err := e.st.WriteAtomic(ctx, name, data); err != nil {
		return errors.Errorf("storing %s: %w", name, err)
	}
	return nil
}
