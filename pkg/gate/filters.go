package gate

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// HiddenFile accepts paths with a dot-prefixed segment anywhere.
func HiddenFile() Predicate {
	return func(path string) bool {
		for _, part := range strings.Split(filepath.ToSlash(path), "/") {
			if strings.HasPrefix(part, ".") && part != "." && part != ".." {
				return true
			}
		}
		return false
	}
}

// Directories accepts paths located under any of the given
// directories.
func Directories(dirs ...string) Predicate {
	cleaned := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d != "" {
			cleaned = append(cleaned, filepath.Clean(d)+string(filepath.Separator))
		}
	}
	return func(path string) bool {
		p := filepath.Clean(path)
		for _, d := range cleaned {
			if strings.HasPrefix(p, d) {
				return true
			}
		}
		return false
	}
}

// Paths accepts exactly the given paths.
func Paths(paths ...string) Predicate {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p != "" {
			set[filepath.Clean(p)] = struct{}{}
		}
	}
	return func(path string) bool {
		_, ok := set[filepath.Clean(path)]
		return ok
	}
}

// DirectoryPattern accepts paths whose directory part matches the
// regular expression.
func DirectoryPattern(expr string) (Predicate, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Errorf("compiling directory pattern: %w", err)
	}
	return func(path string) bool {
		return re.MatchString(filepath.Dir(path))
	}, nil
}

// FilenamePattern accepts paths whose base name matches the regular
// expression.
func FilenamePattern(expr string) (Predicate, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Errorf("compiling filename pattern: %w", err)
	}
	return func(path string) bool {
		return re.MatchString(filepath.Base(path))
	}, nil
}

// Glob accepts paths matching a doublestar glob pattern. The pattern
// is matched against the slash-separated path relative to root, or
// against the whole path when root is empty.
func Glob(root, pattern string) (Predicate, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.Errorf("invalid glob pattern: %q", pattern)
	}
	return func(path string) bool {
		p := path
		if root != "" {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return false
			}
			p = rel
		}
		return doublestar.MatchUnvalidated(pattern, filepath.ToSlash(p))
	}, nil
}

// ModifiedAfter accepts regular files modified after t. Paths that
// cannot be stated are rejected.
func ModifiedAfter(t time.Time) Predicate {
	return func(path string) bool {
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		return info.ModTime().After(t)
	}
}
