package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EHRI/rspub-core/pkg/gate"
	"github.com/EHRI/rspub-core/pkg/observe"
	"github.com/EHRI/rspub-core/pkg/resource"
)

type recordingObserver struct {
	events []observe.Event
}

func (r *recordingObserver) Inform(_ context.Context, ev observe.Event) {
	r.events = append(r.events, ev)
}

func (r *recordingObserver) Confirm(_ context.Context, ev observe.Event) bool {
	return true
}

func (r *recordingObserver) count(kind observe.Kind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755), "creating parent dirs")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "writing file")
}

func TestScannerScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")
	writeFile(t, filepath.Join(root, "docs", "b.txt"), "bravo")
	writeFile(t, filepath.Join(root, ".hidden", "c.txt"), "charlie")
	writeFile(t, filepath.Join(root, "metadata", "old.xml"), "<urlset/>")

	obs := &recordingObserver{}
	scanner := &Scanner{
		Builder: resource.FileBuilder{URLPrefix: "http://example.com/rs/", Root: root},
		Accept: gate.New(
			[]gate.Predicate{gate.Directories(root)},
			[]gate.Predicate{gate.HiddenFile(), gate.Directories(filepath.Join(root, "metadata"))},
		),
		Observer: obs,
	}

	resources, err := scanner.Scan(context.Background(), []string{root})
	require.NoError(t, err, "scanning")

	require.Len(t, resources, 2, "should accept two files")
	assert.Equal(t, "http://example.com/rs/a.txt", resources[0].URI, "first uri should match")
	assert.Equal(t, "http://example.com/rs/docs/b.txt", resources[1].URI, "second uri should match")
	assert.Equal(t, int64(5), resources[0].Length, "length should be set")
	assert.NotEmpty(t, resources[0].MD5, "md5 should be set")

	assert.Equal(t, 1, obs.count(observe.KindStartFileSearch), "one search start per root")
	assert.Equal(t, 2, obs.count(observe.KindCreatedResource), "one event per accepted file")
	assert.Equal(t, 2, obs.count(observe.KindRejectedFile), "one event per rejected file")
}

func TestScannerScanMissingRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")

	scanner := &Scanner{
		Builder: resource.FileBuilder{URLPrefix: "http://example.com/", Root: root},
	}

	resources, err := scanner.Scan(context.Background(), []string{
		filepath.Join(root, "no-such-dir"),
		root,
	})
	require.NoError(t, err, "missing roots should be skipped")
	assert.Len(t, resources, 1, "existing root should still be scanned")
}

func TestScannerScanFileRoot(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "only.txt")
	writeFile(t, path, "solo")

	scanner := &Scanner{
		Builder: resource.FileBuilder{URLPrefix: "http://example.com/", Root: root},
	}

	resources, err := scanner.Scan(context.Background(), []string{path})
	require.NoError(t, err, "scanning a file root")
	require.Len(t, resources, 1, "file root should yield itself")
	assert.Equal(t, "http://example.com/only.txt", resources[0].URI, "uri should match")
}

func TestScannerScanCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := &Scanner{
		Builder: resource.FileBuilder{URLPrefix: "http://example.com/", Root: root},
	}

	_, err := scanner.Scan(ctx, []string{root})
	require.Error(t, err, "cancelled context should stop the walk")
	assert.ErrorIs(t, err, context.Canceled, "error should be the context error")
}

func TestSelectorRoundTrip(t *testing.T) {
	s := &Selector{}
	s.Include("/data/collection-a", "/data/collection-b")
	s.Exclude("/data/collection-a/drafts")

	path := filepath.Join(t.TempDir(), "selector.yaml")
	require.NoError(t, s.Save(path), "saving selector")

	loaded, err := LoadSelector(path)
	require.NoError(t, err, "loading selector")
	assert.Equal(t, s.Includes, loaded.Includes, "includes should round-trip")
	assert.Equal(t, s.Excludes, loaded.Excludes, "excludes should round-trip")
}

func TestSelectorInclude(t *testing.T) {
	s := &Selector{}
	s.Include("/data/a", "/data/b")
	s.Include("/data/a", "/data/c")

	assert.Equal(t, []string{"/data/a", "/data/b", "/data/c"}, s.Includes,
		"includes should dedupe and keep first-seen order")
}

func TestSelectorRoots(t *testing.T) {
	s := &Selector{}
	assert.Equal(t, []string{"/data"}, s.Roots("/data"), "empty selector should fall back to the default root")

	s.Include("/data/a")
	assert.Equal(t, []string{"/data/a"}, s.Roots("/data"), "includes should replace the default root")
}

func TestSelectorApply(t *testing.T) {
	everything := func(string) bool { return true }

	s := &Selector{}
	s.Exclude(filepath.FromSlash("/data/drafts"), filepath.FromSlash("/data/notes.txt"))
	pred := s.Apply(everything)

	assert.True(t, pred(filepath.FromSlash("/data/a.txt")), "unrelated file should pass")
	assert.False(t, pred(filepath.FromSlash("/data/notes.txt")), "excluded file should be rejected")
	assert.False(t, pred(filepath.FromSlash("/data/drafts/d.txt")), "file under excluded dir should be rejected")
}

func TestSelectorApplyEmpty(t *testing.T) {
	everything := func(string) bool { return true }
	s := &Selector{}

	pred := s.Apply(everything)
	assert.True(t, pred("/data/a.txt"), "empty selector should not narrow the gate")
}
