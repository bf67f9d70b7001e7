package gate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func yes(string) bool { return true }
func no(string) bool  { return false }

func TestCombinators(t *testing.T) {
	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{name: "not_true", p: Not(yes), want: false},
		{name: "not_false", p: Not(no), want: true},
		{name: "and_empty", p: And(), want: true},
		{name: "and_all_true", p: And(yes, yes), want: true},
		{name: "and_one_false", p: And(yes, no), want: false},
		{name: "or_empty", p: Or(), want: false},
		{name: "or_one_true", p: Or(no, yes), want: true},
		{name: "or_all_false", p: Or(no, no), want: false},
		{name: "nor_empty", p: Nor(), want: true},
		{name: "nor_one_true", p: Nor(no, yes), want: false},
		{name: "nor_all_false", p: Nor(no, no), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p("any/path"), "predicate result should match")
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		includes []Predicate
		excludes []Predicate
		want     bool
	}{
		{
			name:     "included_not_excluded",
			includes: []Predicate{yes},
			excludes: []Predicate{no},
			want:     true,
		},
		{
			name:     "included_and_excluded",
			includes: []Predicate{yes},
			excludes: []Predicate{yes},
			want:     false,
		},
		{
			name:     "not_included",
			includes: []Predicate{no},
			excludes: []Predicate{no},
			want:     false,
		},
		{
			name:     "no_includes_rejects_everything",
			includes: nil,
			excludes: nil,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.includes, tt.excludes)
			assert.Equal(t, tt.want, g("some/file.txt"), "gate result should match")
		})
	}
}

func TestHiddenFile(t *testing.T) {
	p := HiddenFile()

	assert.True(t, p(filepath.Join("dir", ".hidden")), "dot file should match")
	assert.True(t, p(filepath.Join(".git", "config")), "file in dot directory should match")
	assert.False(t, p(filepath.Join("dir", "visible.txt")), "plain file should not match")
	assert.False(t, p(filepath.Join(".", "visible.txt")), "current-dir prefix is not hidden")
}

func TestDirectories(t *testing.T) {
	p := Directories(filepath.Join("/data", "resources"))

	assert.True(t, p(filepath.Join("/data", "resources", "a.txt")), "file under directory should match")
	assert.True(t, p(filepath.Join("/data", "resources", "sub", "b.txt")), "nested file should match")
	assert.False(t, p(filepath.Join("/data", "other", "a.txt")), "sibling directory should not match")
	assert.False(t, p(filepath.Join("/data", "resources2", "a.txt")), "prefix-sharing directory should not match")
}

func TestPaths(t *testing.T) {
	p := Paths(filepath.Join("/data", "metadata", ".well-known", "resourcesync"))

	assert.True(t, p(filepath.Join("/data", "metadata", ".well-known", "resourcesync")), "exact path should match")
	assert.False(t, p(filepath.Join("/data", "metadata", "resourcelist_0000.xml")), "other path should not match")
}

func TestDirectoryPattern(t *testing.T) {
	p, err := DirectoryPattern("logs$")
	require.NoError(t, err, "compiling pattern")

	assert.True(t, p(filepath.Join("/var", "logs", "app.log")), "matching directory should match")
	assert.False(t, p(filepath.Join("/var", "data", "app.log")), "other directory should not match")

	_, err = DirectoryPattern("([")
	require.Error(t, err, "invalid pattern should error")
}

func TestFilenamePattern(t *testing.T) {
	p, err := FilenamePattern(`\.xml$`)
	require.NoError(t, err, "compiling pattern")

	assert.True(t, p(filepath.Join("dir", "doc.xml")), "matching filename should match")
	assert.False(t, p(filepath.Join("dir.xml", "doc.txt")), "directory name should not be considered")
}

func TestGlob(t *testing.T) {
	p, err := Glob("/data", "**/*.bak")
	require.NoError(t, err, "building glob predicate")

	assert.True(t, p(filepath.Join("/data", "deep", "nested", "old.bak")), "nested match should pass")
	assert.True(t, p(filepath.Join("/data", "old.bak")), "top-level match should pass")
	assert.False(t, p(filepath.Join("/data", "keep.txt")), "non-matching file should fail")

	_, err = Glob("/data", "[")
	require.Error(t, err, "invalid glob should error")
}

func TestModifiedAfter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644), "writing test file")

	assert.True(t, ModifiedAfter(time.Now().Add(-time.Hour))(path), "recent file should match")
	assert.False(t, ModifiedAfter(time.Now().Add(time.Hour))(path), "future cutoff should not match")
	assert.False(t, ModifiedAfter(time.Time{})(filepath.Join(dir, "absent.txt")), "missing file should be rejected")
}

func TestDefaultBuilder(t *testing.T) {
	resourceDir := filepath.Join("/data", "resources")
	metadataDir := filepath.Join(resourceDir, "metadata")
	description := filepath.Join(metadataDir, ".well-known", "resourcesync")

	g := Compose(context.Background(), DefaultBuilder{
		ResourceDir:     resourceDir,
		MetadataDir:     metadataDir,
		DescriptionPath: description,
		ExcludeGlobs:    []string{"**/*.tmp"},
	})

	tests := []struct {
		name string
		path string
		want bool
	}{
		{
			name: "plain_resource",
			path: filepath.Join(resourceDir, "docs", "a.txt"),
			want: true,
		},
		{
			name: "outside_resource_dir",
			path: filepath.Join("/data", "elsewhere", "a.txt"),
			want: false,
		},
		{
			name: "hidden_file",
			path: filepath.Join(resourceDir, ".hidden"),
			want: false,
		},
		{
			name: "sitemap_in_metadata_dir",
			path: filepath.Join(metadataDir, "resourcelist_0000.xml"),
			want: false,
		},
		{
			name: "description_document",
			path: description,
			want: false,
		},
		{
			name: "glob_excluded",
			path: filepath.Join(resourceDir, "cache", "x.tmp"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g(tt.path), "gate decision should match for %s", tt.path)
		})
	}
}
