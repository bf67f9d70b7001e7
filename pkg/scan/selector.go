package scan

import (
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/EHRI/rspub-core/pkg/gate"
)

// Selector names the parts of a resource tree a publication covers.
// Includes become scan roots, excludes prune files or whole subtrees.
// A selector persists as a small YAML document so a collection
// curator can keep it next to the parameters file.
type Selector struct {
	Includes []string `yaml:"includes,omitempty"`
	Excludes []string `yaml:"excludes,omitempty"`
}

// LoadSelector reads a selector from a YAML file.
func LoadSelector(path string) (*Selector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading selector file: %w", err)
	}

	var s Selector
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Errorf("parsing selector: %w", err)
	}
	return &s, nil
}

// Save writes the selector to a YAML file.
func (s *Selector) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Errorf("marshaling selector: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Errorf("writing selector file: %w", err)
	}
	return nil
}

// Include adds paths to the included set, keeping first-seen order.
func (s *Selector) Include(paths ...string) {
	s.Includes = appendClean(s.Includes, paths)
}

// Exclude adds paths to the excluded set, keeping first-seen order.
func (s *Selector) Exclude(paths ...string) {
	s.Excludes = appendClean(s.Excludes, paths)
}

// Roots returns the scan roots: the included paths, or the default
// root when nothing is included.
func (s *Selector) Roots(defaultRoot string) []string {
	if s == nil || len(s.Includes) == 0 {
		return []string{defaultRoot}
	}
	return s.Includes
}

// Apply narrows an accept predicate with this selector's excludes.
// An excluded path rejects both the exact file and everything under
// it when it names a directory.
func (s *Selector) Apply(accept gate.Predicate) gate.Predicate {
	if s == nil || len(s.Excludes) == 0 {
		return accept
	}
	return gate.And(
		accept,
		gate.Nor(
			gate.Paths(s.Excludes...),
			gate.Directories(s.Excludes...),
		),
	)
}

func appendClean(dst []string, paths []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, p := range dst {
		seen[p] = true
	}
	for _, p := range paths {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			dst = append(dst, p)
		}
	}
	return dst
}
