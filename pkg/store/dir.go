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

package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/EHRI/rspub-core/pkg/sitemap"
)

// 📁 DirStore keeps documents in a directory on disk
type DirStore struct {
	dir string
}

// NewDirStore returns a store rooted at dir. The directory is created
// on the first write.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: filepath.Clean(dir)}
}

// Dir returns the store root.
func (s *DirStore) Dir() string {
	return s.dir
}

func (s *DirStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.FromSlash(name))
}

func (s *DirStore) Names(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Errorf("listing metadata directory: %w", err)
	}

	// ReadDir returns entries sorted by name.
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (s *DirStore) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

func (s *DirStore) WriteAtomic(ctx context.Context, name string, data []byte) error {
	absPath := s.Path(name)

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	// Write to temp file, then rename into place.
	tempPath := absPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tempPath, absPath); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("name", name).Int("bytes", len(data)).Msg("stored document")
	return nil
}

func (s *DirStore) Remove(ctx context.Context, name string) error {
	if err := os.Remove(s.Path(name)); err != nil {
		return errors.Errorf("removing %s: %w", name, err)
	}
	return nil
}

func (s *DirStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(s.Path(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking %s: %w", name, err)
}

func (s *DirStore) Clear(ctx context.Context) error {
	names, err := s.Names(ctx)
	if err != nil {
		return err
	}
	for _, name := range FilterXML(names) {
		if err := s.Remove(ctx, name); err != nil {
			return err
		}
	}

	wellKnown := s.Path(sitemap.WellKnownPath)
	if _, err := os.Stat(wellKnown); err == nil {
		if err := os.Remove(wellKnown); err != nil {
			return errors.Errorf("removing description: %w", err)
		}
	}

	zerolog.Ctx(ctx).Debug().Str("dir", s.dir).Msg("cleared metadata directory")
	return nil
}
