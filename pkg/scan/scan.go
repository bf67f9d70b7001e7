// Package scan walks file trees and turns accepted files into resource
// records.
package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/EHRI/rspub-core/pkg/gate"
	"github.com/EHRI/rspub-core/pkg/observe"
	"github.com/EHRI/rspub-core/pkg/resource"
)

// Scanner walks one or more roots and builds a resource record for
// every regular file the gate accepts. Roots that do not exist are
// skipped with a warning.
type Scanner struct {
	Builder  resource.FileBuilder
	Accept   gate.Predicate
	Observer observe.Observer
}

// Scan walks the given roots in order. Files under a root are visited
// in lexical order, so repeated scans of an unchanged tree yield the
// same sequence.
func (s *Scanner) Scan(ctx context.Context, roots []string) ([]resource.Resource, error) {
	logger := zerolog.Ctx(ctx)

	var resources []resource.Resource
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.Errorf("resolving scan root: %w", err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			logger.Warn().Str("root", abs).Msg("scan root does not exist, skipping")
			continue
		}

		s.inform(ctx, observe.Event{Kind: observe.KindStartFileSearch, Path: abs})

		if !info.IsDir() {
			if err := s.consider(ctx, abs, &resources); err != nil {
				return nil, err
			}
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return errors.Errorf("walking %s: %w", path, err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !d.Type().IsRegular() {
				return nil
			}
			return s.consider(ctx, path, &resources)
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Debug().Int("count", len(resources)).Msg("file search done")
	return resources, nil
}

func (s *Scanner) consider(ctx context.Context, path string, resources *[]resource.Resource) error {
	if s.Accept != nil && !s.Accept(path) {
		s.inform(ctx, observe.Event{Kind: observe.KindRejectedFile, Path: path})
		return nil
	}

	r, err := s.Builder.Build(path)
	if err != nil {
		return errors.Errorf("building resource for %s: %w", path, err)
	}

	s.inform(ctx, observe.Event{Kind: observe.KindCreatedResource, Path: path, URI: r.URI, Resource: &r})
	*resources = append(*resources, r)
	return nil
}

func (s *Scanner) inform(ctx context.Context, ev observe.Event) {
	if s.Observer != nil {
		s.Observer.Inform(ctx, ev)
	}
}
