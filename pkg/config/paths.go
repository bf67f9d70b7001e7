package config

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/EHRI/rspub-core/pkg/resource"
	"github.com/EHRI/rspub-core/pkg/sitemap"
)

// AbsMetadataDir returns the directory the sitemap documents live in.
func (p *Parameters) AbsMetadataDir() string {
	return filepath.Join(p.ResourceDir, p.MetadataDir)
}

// AbsMetadataPath returns the absolute path of a named document in the
// metadata directory.
func (p *Parameters) AbsMetadataPath(name string) string {
	return filepath.Join(p.AbsMetadataDir(), filepath.FromSlash(name))
}

// AbsDescriptionDir returns the directory holding the source description.
// It defaults to the metadata directory.
func (p *Parameters) AbsDescriptionDir() string {
	if p.DescriptionDir != "" {
		return p.DescriptionDir
	}
	return p.AbsMetadataDir()
}

// AbsDescriptionPath returns the absolute path of the source description
// document.
func (p *Parameters) AbsDescriptionPath() string {
	return filepath.Join(p.AbsDescriptionDir(), filepath.FromSlash(sitemap.WellKnownPath))
}

// ServerRoot returns the scheme and host part of the URL prefix.
func (p *Parameters) ServerRoot() string {
	u, err := url.Parse(p.URLPrefix)
	if err != nil {
		return p.URLPrefix
	}
	return u.Scheme + "://" + u.Host
}

// DescriptionURL returns the URI of the source description. The
// description is served from the well-known location at the server root.
func (p *Parameters) DescriptionURL() string {
	return p.ServerRoot() + "/" + sitemap.WellKnownPath
}

// CapabilityListURL returns the URI of the capability list document.
func (p *Parameters) CapabilityListURL() string {
	return p.URLForDocument(sitemap.CapabilityListName)
}

// URLForDocument returns the URI a named sitemap document is served under.
func (p *Parameters) URLForDocument(name string) string {
	rel := path.Join(filepath.ToSlash(p.MetadataDir), name)
	return p.URLPrefix + resource.SanitizeURLPath(rel)
}

// URIFromPath returns the URI a file under the resource directory is
// served under.
func (p *Parameters) URIFromPath(absPath string) (string, error) {
	rel, err := filepath.Rel(p.ResourceDir, absPath)
	if err != nil {
		return "", errors.Errorf("relativizing path: %w", err)
	}
	if strings.HasPrefix(rel, "..") {
		return "", errors.Errorf("path outside resource directory: %s", absPath)
	}
	return p.URLPrefix + resource.SanitizeURLPath(filepath.ToSlash(rel)), nil
}

// PathFromURI returns the absolute local path a document URI maps to.
// It is the inverse of URLForDocument and URIFromPath for URIs under
// the URL prefix.
func (p *Parameters) PathFromURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, p.URLPrefix) {
		return "", errors.Errorf("uri outside url_prefix %s: %s", p.URLPrefix, uri)
	}
	rel, err := url.PathUnescape(strings.TrimPrefix(uri, p.URLPrefix))
	if err != nil {
		return "", errors.Errorf("unescaping uri: %w", err)
	}
	return filepath.Join(p.ResourceDir, filepath.FromSlash(rel)), nil
}
