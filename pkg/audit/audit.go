// Copyright 2025 EHRI
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package audit verifies a publication from the consumer's side: it
// fetches every published URI over HTTP and compares checksums with
// the local records.
package audit

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"io"
	"net/http"
	"sort"

	"gitlab.com/tozd/go/errors"

	"github.com/EHRI/rspub-core/pkg/config"
	"github.com/EHRI/rspub-core/pkg/observe"
	"github.com/EHRI/rspub-core/pkg/publish"
	"github.com/EHRI/rspub-core/pkg/resource"
	"github.com/EHRI/rspub-core/pkg/sitemap"
	"github.com/EHRI/rspub-core/pkg/store"
)

// Failure categories, matched with errors.Is.
var (
	ErrNotFound         = errors.New("uri not found")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Options configures an Auditor.
type Options struct {
	// Parameters is the validated publication configuration. Required.
	Parameters *config.Parameters

	// Store holds the sitemap documents. Defaults to a DirStore on the
	// metadata directory.
	Store store.Store

	// Observer receives audit events. Check events are confirmations:
	// a veto aborts the audit.
	Observer observe.Observer

	// Client performs the HTTP requests. Defaults to
	// http.DefaultClient.
	Client *http.Client
}

// 🔎 Auditor fetches published URIs and verifies them
type Auditor struct {
	params *config.Parameters
	st     store.Store
	obs    observe.Observer
	client *http.Client
}

// New creates an Auditor.
func New(opts Options) (*Auditor, error) {
	if opts.Parameters == nil {
		return nil, errors.New("parameters are required")
	}
	a := &Auditor{
		params: opts.Parameters,
		st:     opts.Store,
		obs:    opts.Observer,
		client: opts.Client,
	}
	if a.st == nil {
		a.st = store.NewDirStore(opts.Parameters.AbsMetadataDir())
	}
	if a.client == nil {
		a.client = http.DefaultClient
	}
	return a, nil
}

// Run audits the publication: every resource the published state
// references (or, without all, only the latest page's entries) and
// every stored sitemap document including the description. Individual
// failures are counted, not fatal; an observer veto aborts.
func (a *Auditor) Run(ctx context.Context, all bool) (*Result, error) {
	a.inform(ctx, observe.Event{Kind: observe.KindAuditStart, URI: a.params.ServerRoot()})

	result := &Result{}
	if err := a.auditResources(ctx, all, &result.Resources); err != nil {
		return nil, err
	}
	if err := a.auditSitemaps(ctx, &result.Sitemaps); err != nil {
		return nil, err
	}

	a.inform(ctx, observe.Event{
		Kind:  observe.KindAuditEnd,
		Count: result.Resources.Checked + result.Sitemaps.Checked,
	})
	return result, nil
}

func (a *Auditor) auditResources(ctx context.Context, all bool, tally *Tally) error {
	resources, err := a.resourcesToAudit(ctx, all)
	if err != nil {
		return err
	}
	for _, r := range resources {
		if err := a.verify(ctx, r.URI, r.MD5, tally); err != nil {
			return err
		}
	}
	return nil
}

func (a *Auditor) auditSitemaps(ctx context.Context, tally *Tally) error {
	names, err := a.st.Names(ctx)
	if err != nil {
		return err
	}
	for _, name := range store.FilterXML(names) {
		data, err := a.st.Read(ctx, name)
		if err != nil {
			return err
		}
		if err := a.verify(ctx, a.params.URLForDocument(name), resource.MD5Bytes(data), tally); err != nil {
			return err
		}
	}

	exists, err := a.st.Exists(ctx, sitemap.WellKnownPath)
	if err != nil {
		return err
	}
	if exists {
		data, err := a.st.Read(ctx, sitemap.WellKnownPath)
		if err != nil {
			return err
		}
		if err := a.verify(ctx, a.params.DescriptionURL(), resource.MD5Bytes(data), tally); err != nil {
			return err
		}
	}
	return nil
}

// resourcesToAudit mirrors the transport selection: the reconstructed
// state, or only the latest page's live entries.
func (a *Auditor) resourcesToAudit(ctx context.Context, all bool) ([]resource.Resource, error) {
	state, err := publish.Reconstruct(ctx, a.st)
	if err != nil {
		return nil, err
	}

	if all {
		out := make([]resource.Resource, 0, len(state.Resources))
		for _, uri := range sortedURIs(state.Resources) {
			out = append(out, state.Resources[uri])
		}
		return out, nil
	}

	names := state.ChangeListNames
	if len(names) == 0 {
		names = state.ResourceListNames
	}
	if len(names) == 0 {
		return nil, nil
	}

	data, err := a.st.Read(ctx, names[len(names)-1])
	if err != nil {
		return nil, err
	}
	doc, err := sitemap.Decode(data)
	if err != nil {
		return nil, errors.Errorf("decoding %s: %w", names[len(names)-1], err)
	}

	var out []resource.Resource
	for _, r := range doc.Resources {
		if r.Change == resource.ChangeDeleted {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// verify checks one URI and books the outcome. The error return is
// reserved for vetoes; fetch failures land in the tally.
func (a *Auditor) verify(ctx context.Context, uri, wantMD5 string, tally *Tally) error {
	ev := observe.Event{Kind: observe.KindCheckURI, URI: uri}
	if a.obs != nil && !a.obs.Confirm(ctx, ev) {
		return &observe.InterruptError{Event: ev}
	}
	tally.Checked++

	err := a.fetch(ctx, uri, wantMD5)
	switch {
	case err == nil:
		tally.OK++
	case errors.Is(err, ErrNotFound):
		tally.NotFound++
	case errors.Is(err, ErrChecksumMismatch):
		tally.ChecksumErrors++
	default:
		tally.Errors++
	}
	a.inform(ctx, observe.Event{Kind: observe.KindURIVerified, URI: uri, Err: err})
	return nil
}

func (a *Auditor) fetch(ctx context.Context, uri, wantMD5 string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return errors.Errorf("building request for %s: %w", uri, err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return errors.Errorf("fetching %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("%s returned %s: %w", uri, resp.Status, ErrNotFound)
	}

	h := md5.New()
	if _, err := io.Copy(h, resp.Body); err != nil {
		return errors.Errorf("reading %s: %w", uri, err)
	}
	if got := base64.StdEncoding.EncodeToString(h.Sum(nil)); got != wantMD5 {
		return errors.Errorf("%s local %s remote %s: %w", uri, wantMD5, got, ErrChecksumMismatch)
	}
	return nil
}

func (a *Auditor) inform(ctx context.Context, ev observe.Event) {
	if a.obs != nil {
		a.obs.Inform(ctx, ev)
	}
}

func sortedURIs(m map[string]resource.Resource) []string {
	uris := make([]string, 0, len(m))
	for uri := range m {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}
