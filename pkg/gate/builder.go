package gate

import (
	"context"

	"github.com/rs/zerolog"
)

// Builder contributes include and exclude predicates to the resource
// gate. Each builder receives the predicates assembled so far and
// returns the extended list.
type Builder interface {
	BuildIncludes(includes []Predicate) []Predicate
	BuildExcludes(excludes []Predicate) []Predicate
}

var builders []Builder

// Register adds a builder to the composition chain. Registered
// builders run after the default builder, in registration order.
func Register(b Builder) {
	builders = append(builders, b)
}

// Compose runs the default builder and every registered builder and
// combines their predicates into a single gate.
func Compose(ctx context.Context, def Builder) Predicate {
	includes := def.BuildIncludes(nil)
	excludes := def.BuildExcludes(nil)
	for _, b := range builders {
		includes = b.BuildIncludes(includes)
		excludes = b.BuildExcludes(excludes)
	}

	zerolog.Ctx(ctx).Debug().
		Int("includes", len(includes)).
		Int("excludes", len(excludes)).
		Int("builders", len(builders)+1).
		Msg("composed resource gate")

	return New(includes, excludes)
}

// DefaultBuilder assembles the standard gate of a publication run:
// everything under the resource directory is included; hidden files,
// the metadata directory, the description document and any configured
// glob patterns are excluded.
type DefaultBuilder struct {
	ResourceDir     string
	MetadataDir     string
	DescriptionPath string
	PluginDir       string
	ExcludeGlobs    []string // validated doublestar patterns, relative to ResourceDir
}

func (b DefaultBuilder) BuildIncludes(includes []Predicate) []Predicate {
	return append(includes, Directories(b.ResourceDir))
}

func (b DefaultBuilder) BuildExcludes(excludes []Predicate) []Predicate {
	excludes = append(excludes, HiddenFile())
	excludes = append(excludes, Directories(b.MetadataDir))
	if b.DescriptionPath != "" {
		excludes = append(excludes, Paths(b.DescriptionPath))
	}
	if b.PluginDir != "" {
		excludes = append(excludes, Directories(b.PluginDir))
	}
	for _, pattern := range b.ExcludeGlobs {
		if p, err := Glob(b.ResourceDir, pattern); err == nil {
			excludes = append(excludes, p)
		}
	}
	return excludes
}
