package resource

import (
	"crypto/md5"
	"encoding/base64"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// FileBuilder turns files on disk into Resource records. URIs are
// formed by appending the sanitized path relative to Root to the
// URLPrefix.
type FileBuilder struct {
	URLPrefix string // normalized with a trailing slash
	Root      string // absolute path of the resource directory
}

// Build stats and hashes the file at path and returns its record.
func (b FileBuilder) Build(path string) (Resource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Resource{}, errors.Errorf("resolving path: %w", err)
	}

	rel, err := filepath.Rel(b.Root, abs)
	if err != nil {
		return Resource{}, errors.Errorf("relativizing %s: %w", abs, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Resource{}, errors.Errorf("reading file info: %w", err)
	}

	hash, err := MD5File(abs)
	if err != nil {
		return Resource{}, err
	}

	return Resource{
		URI:          b.URLPrefix + SanitizeURLPath(rel),
		Length:       info.Size(),
		LastModified: info.ModTime().UTC(),
		MD5:          hash,
		MimeType:     MimeType(abs),
	}, nil
}

// SanitizeURLPath converts a relative file path into a URL path:
// platform separators become slashes and each segment is
// percent-encoded.
func SanitizeURLPath(rel string) string {
	u := url.URL{Path: filepath.ToSlash(rel)}
	return u.EscapedPath()
}

// MD5File returns the base64-encoded md5 digest of the file contents.
func MD5File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Errorf("opening file: %w", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Errorf("hashing file: %w", err)
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// MD5Bytes returns the base64-encoded md5 digest of b.
func MD5Bytes(b []byte) string {
	sum := md5.Sum(b)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// MimeType guesses the content type from the file extension. The
// charset parameter, if any, is stripped. Unknown extensions map to
// application/octet-stream.
func MimeType(path string) string {
	t := mime.TypeByExtension(filepath.Ext(path))
	if t == "" {
		return "application/octet-stream"
	}
	if i := strings.Index(t, ";"); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}
