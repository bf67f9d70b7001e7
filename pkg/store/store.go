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

// Package store abstracts the metadata directory that holds the
// sitemap documents of a publication. The engine talks to the Store
// interface so tests can fake historical documents without a real
// directory tree.
package store

import (
	"context"
	"path"
	"strings"
)

// 💾 Store is the document store of one publication
type Store interface {
	// Names lists the files at the root of the store, sorted by name.
	Names(ctx context.Context) ([]string, error)

	// Read returns the contents of a stored document. The name is a
	// slash-separated path relative to the store root.
	Read(ctx context.Context, name string) ([]byte, error)

	// WriteAtomic stores a document so that readers never observe a
	// partial write. Parent directories are created as needed.
	WriteAtomic(ctx context.Context, name string, data []byte) error

	// Remove deletes a stored document. Removing an absent document is
	// an error.
	Remove(ctx context.Context, name string) error

	// Exists reports whether a document is present.
	Exists(ctx context.Context, name string) (bool, error)

	// Clear removes every sitemap document from the store, including
	// the well-known description.
	Clear(ctx context.Context) error

	// Path resolves a document name to the location descriptors report.
	Path(name string) string
}

// FilterXML keeps the names with an .xml extension.
func FilterXML(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.EqualFold(path.Ext(n), ".xml") {
			out = append(out, n)
		}
	}
	return out
}
