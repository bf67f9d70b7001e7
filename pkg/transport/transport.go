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

// Package transport stages published resources and sitemap documents
// into a zip archive, laid out the way the web server serves them.
package transport

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/EHRI/rspub-core/pkg/config"
	"github.com/EHRI/rspub-core/pkg/observe"
	"github.com/EHRI/rspub-core/pkg/publish"
	"github.com/EHRI/rspub-core/pkg/resource"
	"github.com/EHRI/rspub-core/pkg/sitemap"
	"github.com/EHRI/rspub-core/pkg/store"
)

// Options configures a Packer.
type Options struct {
	// Parameters is the validated publication configuration. Required.
	Parameters *config.Parameters

	// Store holds the sitemap documents. Defaults to a DirStore on the
	// metadata directory.
	Store store.Store

	// Observer receives transport events.
	Observer observe.Observer

	// Uploader, when set, delivers the archive after it is written.
	Uploader Uploader
}

// 📦 Packer stages a publication into an archive
type Packer struct {
	params   *config.Parameters
	st       store.Store
	obs      observe.Observer
	uploader Uploader
}

// New creates a Packer.
func New(opts Options) (*Packer, error) {
	if opts.Parameters == nil {
		return nil, errors.New("parameters are required")
	}
	p := &Packer{
		params:   opts.Parameters,
		st:       opts.Store,
		obs:      opts.Observer,
		uploader: opts.Uploader,
	}
	if p.st == nil {
		p.st = store.NewDirStore(opts.Parameters.AbsMetadataDir())
	}
	return p, nil
}

// Summary reports what one packing run staged.
type Summary struct {
	Resources int
	Sitemaps  int
	Missing   int

	// ZipPath is where the archive was written; empty when there was
	// nothing to pack.
	ZipPath string
}

func (s *Summary) String() string {
	return fmt.Sprintf("resources: %d, sitemaps: %d, missing: %d", s.Resources, s.Sitemaps, s.Missing)
}

// Zip stages resources and sitemaps into a temporary tree and writes
// it as a zip archive at zipPath. With all set, every resource the
// published state references is staged; otherwise only the resources
// on the latest page. Resources missing on disk are reported and
// skipped. No archive is written when nothing was staged. A configured
// Uploader receives the finished archive.
func (p *Packer) Zip(ctx context.Context, zipPath string, all bool) (*Summary, error) {
	if zipPath == "" {
		return nil, errors.New("zip path is required")
	}

	p.inform(ctx, observe.Event{Kind: observe.KindTransportStart, Path: p.params.ResourceDir})

	tmp, err := os.MkdirTemp("", "rspub-transport-")
	if err != nil {
		return nil, errors.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	resources, err := p.resourcesToStage(ctx, all)
	if err != nil {
		return nil, err
	}

	copied, missing, err := p.stageResources(ctx, tmp, resources)
	if err != nil {
		return nil, err
	}

	sitemaps, err := p.stageSitemaps(ctx, tmp)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Resources: copied, Sitemaps: sitemaps, Missing: missing}
	if copied+sitemaps > 0 {
		if err := writeZip(tmp, zipPath); err != nil {
			return nil, err
		}
		summary.ZipPath = zipPath
		p.inform(ctx, observe.Event{Kind: observe.KindZipCreated, Path: zipPath})

		if p.uploader != nil {
			if err := p.uploader.Upload(ctx, zipPath); err != nil {
				return nil, errors.Errorf("uploading %s: %w", zipPath, err)
			}
			zerolog.Ctx(ctx).Info().Str("zip", zipPath).Msg("archive uploaded")
		}
	} else {
		zerolog.Ctx(ctx).Info().Msg("nothing to pack, not creating archive")
	}

	p.inform(ctx, observe.Event{Kind: observe.KindTransportEnd, Count: copied + sitemaps})
	return summary, nil
}

// resourcesToStage selects the resources to copy: the whole published
// state, or only the entries of the latest page (the newest changelist
// page, else the newest snapshot page), skipping deletions.
func (p *Packer) resourcesToStage(ctx context.Context, all bool) ([]resource.Resource, error) {
	if all {
		state, err := publish.Reconstruct(ctx, p.st)
		if err != nil {
			return nil, err
		}
		uris := make([]string, 0, len(state.Resources))
		for uri := range state.Resources {
			uris = append(uris, uri)
		}
		sort.Strings(uris)
		out := make([]resource.Resource, 0, len(uris))
		for _, uri := range uris {
			out = append(out, state.Resources[uri])
		}
		return out, nil
	}

	names, err := p.st.Names(ctx)
	if err != nil {
		return nil, err
	}

	var last string
	for _, cap := range []sitemap.Capability{sitemap.CapabilityChangeList, sitemap.CapabilityResourceList} {
		for _, name := range names {
			if _, ok := sitemap.PageOrdinal(cap, name); ok {
				last = name
			}
		}
		if last != "" {
			break
		}
	}
	if last == "" {
		return nil, nil
	}

	data, err := p.st.Read(ctx, last)
	if err != nil {
		return nil, err
	}
	doc, err := sitemap.Decode(data)
	if err != nil {
		return nil, errors.Errorf("decoding %s: %w", last, err)
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

// stageResources copies resources into the staging tree under their
// served paths. Copies run in parallel; a missing source file is
// counted and reported, not fatal.
func (p *Packer) stageResources(ctx context.Context, tmp string, resources []resource.Resource) (copied, missing int, err error) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, r := range resources {
		r := r
		g.Go(func() error {
			src, err := p.params.PathFromURI(r.URI)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(p.params.ResourceDir, src)
			if err != nil {
				return errors.Errorf("relativizing %s: %w", src, err)
			}

			if err := copyFile(src, filepath.Join(tmp, rel)); err != nil {
				if os.IsNotExist(err) {
					mu.Lock()
					missing++
					mu.Unlock()
					p.inform(gctx, observe.Event{Kind: observe.KindFileNotFound, Path: src, URI: r.URI})
					return nil
				}
				return errors.Errorf("staging %s: %w", src, err)
			}

			mu.Lock()
			copied++
			n := copied
			mu.Unlock()
			p.inform(gctx, observe.Event{Kind: observe.KindCopiedFile, Path: src, URI: r.URI, Count: n})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return copied, missing, nil
}

// stageSitemaps copies every stored document into the staging tree:
// the sitemaps under the metadata directory, the description at the
// well-known location under the archive root.
func (p *Packer) stageSitemaps(ctx context.Context, tmp string) (int, error) {
	names, err := p.st.Names(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	metadataDir := filepath.Join(tmp, filepath.FromSlash(p.params.MetadataDir))
	for _, name := range store.FilterXML(names) {
		src := p.st.Path(name)
		if err := copyFile(src, filepath.Join(metadataDir, name)); err != nil {
			return 0, errors.Errorf("staging %s: %w", name, err)
		}
		count++
		p.inform(ctx, observe.Event{Kind: observe.KindCopiedFile, Path: src, Count: count})
	}

	exists, err := p.st.Exists(ctx, sitemap.WellKnownPath)
	if err != nil {
		return 0, err
	}
	if exists {
		src := p.st.Path(sitemap.WellKnownPath)
		if err := copyFile(src, filepath.Join(tmp, filepath.FromSlash(sitemap.WellKnownPath))); err != nil {
			return 0, errors.Errorf("staging description: %w", err)
		}
		count++
		p.inform(ctx, observe.Event{Kind: observe.KindCopiedFile, Path: src, Count: count})
	}

	return count, nil
}

func (p *Packer) inform(ctx context.Context, ev observe.Event) {
	if p.obs != nil {
		p.obs.Inform(ctx, ev)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeZip archives the staging tree. Entry names are slash-separated
// paths relative to the tree root, so the archive unpacks into the
// server's document root as served.
func writeZip(root, zipPath string) error {
	if err := os.MkdirAll(filepath.Dir(zipPath), 0755); err != nil {
		return errors.Errorf("creating archive directory: %w", err)
	}
	f, err := os.Create(zipPath)
	if err != nil {
		return errors.Errorf("creating archive: %w", err)
	}
	zw := zip.NewWriter(f)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		hdr.Method = zip.Deflate

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})

	if err := zw.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	if err := f.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	if walkErr != nil {
		return errors.Errorf("writing archive: %w", walkErr)
	}
	return nil
}
