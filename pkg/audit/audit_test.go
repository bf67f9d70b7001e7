package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EHRI/rspub-core/pkg/config"
	"github.com/EHRI/rspub-core/pkg/observe"
	"github.com/EHRI/rspub-core/pkg/publish"
)

// serveTree serves the resource directory the way a production web
// server would: files under the URL prefix, the description at the
// well-known location on the server root.
func serveTree(t *testing.T, resourceDir string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/resourcesync", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(resourceDir, "metadata", ".well-known", "resourcesync"))
	})
	mux.Handle("/", http.FileServer(http.Dir(resourceDir)))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newParams(t *testing.T, resourceDir, urlPrefix string) *config.Parameters {
	t.Helper()
	p := &config.Parameters{
		ResourceDir: resourceDir,
		URLPrefix:   urlPrefix,
	}
	require.NoError(t, p.Validate(), "validating parameters")
	return p
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "creating parent of %s", name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "writing %s", name)
}

func runPublication(t *testing.T, params *config.Parameters) {
	t.Helper()
	pub, err := publish.New(publish.Options{Parameters: params})
	require.NoError(t, err, "creating publisher")
	_, err = pub.Execute(context.Background(), nil)
	require.NoError(t, err, "publishing")
}

func uriFor(t *testing.T, params *config.Parameters, name string) string {
	t.Helper()
	uri, err := params.URIFromPath(filepath.Join(params.ResourceDir, filepath.FromSlash(name)))
	require.NoError(t, err, "resolving uri of %s", name)
	return uri
}

// recorder collects informs and confirms separately.
type recorder struct {
	mu       sync.Mutex
	events   []observe.Event
	confirms []observe.Event
}

func (r *recorder) Inform(ctx context.Context, e observe.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Confirm(ctx context.Context, e observe.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirms = append(r.confirms, e)
	return true
}

func (r *recorder) confirmedURIs(kind observe.Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var uris []string
	for _, e := range r.confirms {
		if e.Kind == kind {
			uris = append(uris, e.URI)
		}
	}
	return uris
}

func (r *recorder) verifiedErr(uri string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Kind == observe.KindURIVerified && e.URI == uri {
			return e.Err
		}
	}
	return nil
}

func TestAuditorRequiresParameters(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err, "parameters are required")
}

func TestAuditAllPasses(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "aaa")
	writeFile(t, dir, "docs/b.txt", "bbb")
	srv := serveTree(t, dir)
	params := newParams(t, dir, srv.URL)
	runPublication(t, params)

	rec := &recorder{}
	auditor, err := New(Options{Parameters: params, Observer: rec})
	require.NoError(t, err, "creating auditor")

	result, err := auditor.Run(context.Background(), true)
	require.NoError(t, err, "auditing")

	assert.Equal(t, &Result{
		Resources: Tally{Checked: 2, OK: 2},
		Sitemaps:  Tally{Checked: 3, OK: 3},
	}, result, "every uri verifies against its record")
	assert.False(t, result.HasFailures(), "a clean publication audits clean")

	assert.Equal(t, []string{
		uriFor(t, params, "a.txt"),
		uriFor(t, params, "docs/b.txt"),
		params.URLForDocument("capabilitylist.xml"),
		params.URLForDocument("resourcelist_0000.xml"),
		params.DescriptionURL(),
	}, rec.confirmedURIs(observe.KindCheckURI), "resources first, then documents, in name order")

	require.NotEmpty(t, rec.events, "events were delivered")
	first, last := rec.events[0], rec.events[len(rec.events)-1]
	assert.Equal(t, observe.KindAuditStart, first.Kind, "the audit announces itself")
	assert.Equal(t, params.ServerRoot(), first.URI, "the audit names the server")
	assert.Equal(t, observe.KindAuditEnd, last.Kind, "the audit reports completion")
	assert.Equal(t, 5, last.Count, "the end event carries the total")
}

func TestAuditDetectsProblems(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "aaa")
	writeFile(t, dir, "b.txt", "bbb")
	srv := serveTree(t, dir)
	params := newParams(t, dir, srv.URL)
	runPublication(t, params)

	// Drift after publication: a.txt served with other content, b.txt
	// gone.
	writeFile(t, dir, "a.txt", "tampered")
	require.NoError(t, os.Remove(filepath.Join(dir, "b.txt")), "removing b.txt")

	rec := &recorder{}
	auditor, err := New(Options{Parameters: params, Observer: rec})
	require.NoError(t, err, "creating auditor")

	result, err := auditor.Run(context.Background(), true)
	require.NoError(t, err, "failing checks do not abort the audit")

	assert.Equal(t, Tally{Checked: 2, NotFound: 1, ChecksumErrors: 1}, result.Resources,
		"both kinds of drift are counted")
	assert.Equal(t, Tally{Checked: 3, OK: 3}, result.Sitemaps, "the documents still verify")
	assert.True(t, result.HasFailures(), "drift fails the audit")
	assert.Equal(t, 2, result.Failures(), "two problems found")

	assert.ErrorIs(t, rec.verifiedErr(uriFor(t, params, "a.txt")), ErrChecksumMismatch,
		"changed content is a checksum mismatch")
	assert.ErrorIs(t, rec.verifiedErr(uriFor(t, params, "b.txt")), ErrNotFound,
		"a missing file is a 404")
}

func TestAuditLatestPage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "aaa")
	srv := serveTree(t, dir)
	params := newParams(t, dir, srv.URL)
	runPublication(t, params)

	writeFile(t, dir, "c.txt", "ccc")
	params.Strategy = config.StrategyNewChangeList
	runPublication(t, params)

	rec := &recorder{}
	auditor, err := New(Options{Parameters: params, Observer: rec})
	require.NoError(t, err, "creating auditor")

	result, err := auditor.Run(context.Background(), false)
	require.NoError(t, err, "auditing")

	assert.Equal(t, Tally{Checked: 1, OK: 1}, result.Resources,
		"only the latest page's resource is checked")
	assert.Equal(t, Tally{Checked: 4, OK: 4}, result.Sitemaps,
		"snapshot page, change page, capability list and description")

	checked := rec.confirmedURIs(observe.KindCheckURI)
	assert.Contains(t, checked, uriFor(t, params, "c.txt"), "the changed resource is checked")
	assert.NotContains(t, checked, uriFor(t, params, "a.txt"), "untouched resources are skipped")
}

func TestAuditVeto(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "aaa")
	srv := serveTree(t, dir)
	params := newParams(t, dir, srv.URL)
	runPublication(t, params)

	auditor, err := New(Options{
		Parameters: params,
		Observer: observe.Funcs{
			ConfirmFunc: func(ctx context.Context, e observe.Event) bool {
				return e.Kind != observe.KindCheckURI
			},
		},
	})
	require.NoError(t, err, "creating auditor")

	result, err := auditor.Run(context.Background(), true)
	require.Error(t, err, "a veto aborts the audit")
	assert.True(t, observe.IsInterrupt(err), "the abort is an observer interrupt")
	assert.Nil(t, result, "no result for an aborted audit")
}

func TestAuditUnreachableServer(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "aaa")
	srv := serveTree(t, dir)
	params := newParams(t, dir, srv.URL)
	runPublication(t, params)
	srv.Close()

	auditor, err := New(Options{Parameters: params})
	require.NoError(t, err, "creating auditor")

	result, err := auditor.Run(context.Background(), true)
	require.NoError(t, err, "an unreachable server does not abort the audit")

	assert.Equal(t, Tally{Checked: 1, Errors: 1}, result.Resources,
		"fetch failures are counted")
	assert.Equal(t, Tally{Checked: 3, Errors: 3}, result.Sitemaps,
		"document fetches fail the same way")
	assert.True(t, result.HasFailures(), "an unreachable server fails the audit")
}

func TestAuditEmptyPublication(t *testing.T) {
	params := newParams(t, t.TempDir(), "http://example.com")

	auditor, err := New(Options{Parameters: params})
	require.NoError(t, err, "creating auditor")

	result, err := auditor.Run(context.Background(), false)
	require.NoError(t, err, "an empty store is not an error")
	assert.Equal(t, &Result{}, result, "nothing checked")
}

func TestReportGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)

	ok := &Result{
		Resources: Tally{Checked: 2, OK: 2},
		Sitemaps:  Tally{Checked: 3, OK: 3},
	}
	g.Assert(t, "report_ok", []byte(ok.Report()))

	failed := &Result{
		Resources: Tally{Checked: 4, OK: 2, NotFound: 1, ChecksumErrors: 1},
		Sitemaps:  Tally{Checked: 5, OK: 4, Errors: 1},
	}
	g.Assert(t, "report_failures", []byte(failed.Report()))
}
