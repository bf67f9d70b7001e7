package sitemap

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/EHRI/rspub-core/pkg/resource"
)

const (
	xmlnsSitemap = "http://www.sitemaps.org/schemas/sitemap/0.9"
	xmlnsRS      = "http://www.resourcesync.org/ns/"

	relUp    = "up"
	relIndex = "index"

	hashPrefixMD5 = "md5:"
)

// Outbound wire structs. Element names carry the rs: prefix verbatim;
// the encoder writes prefixed names as-is.

type mdOut struct {
	Capability string `xml:"capability,attr,omitempty"`
	At         string `xml:"at,attr,omitempty"`
	Completed  string `xml:"completed,attr,omitempty"`
	From       string `xml:"from,attr,omitempty"`
	Until      string `xml:"until,attr,omitempty"`
	Change     string `xml:"change,attr,omitempty"`
	DateTime   string `xml:"datetime,attr,omitempty"`
	Hash       string `xml:"hash,attr,omitempty"`
	Length     string `xml:"length,attr,omitempty"`
	Type       string `xml:"type,attr,omitempty"`
}

type lnOut struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

type urlOut struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
	MD      *mdOut `xml:"rs:md"`
}

type urlsetOut struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	XmlnsRS string   `xml:"xmlns:rs,attr"`
	Links   []lnOut  `xml:"rs:ln"`
	MD      *mdOut   `xml:"rs:md"`
	URLs    []urlOut `xml:"url"`
}

type sitemapindexOut struct {
	XMLName xml.Name `xml:"sitemapindex"`
	Xmlns   string   `xml:"xmlns,attr"`
	XmlnsRS string   `xml:"xmlns:rs,attr"`
	Links   []lnOut  `xml:"rs:ln"`
	MD      *mdOut   `xml:"rs:md"`
	URLs    []urlOut `xml:"sitemap"`
}

// Inbound wire structs. Resync elements are matched on the namespace
// URL so the decoder is indifferent to the prefix a producer chose.

type mdIn struct {
	Capability string `xml:"capability,attr"`
	At         string `xml:"at,attr"`
	Completed  string `xml:"completed,attr"`
	From       string `xml:"from,attr"`
	Until      string `xml:"until,attr"`
	Change     string `xml:"change,attr"`
	DateTime   string `xml:"datetime,attr"`
	Hash       string `xml:"hash,attr"`
	Length     string `xml:"length,attr"`
	Type       string `xml:"type,attr"`
}

type lnIn struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

type urlIn struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
	MD      *mdIn  `xml:"http://www.resourcesync.org/ns/ md"`
}

type urlsetIn struct {
	Links []lnIn  `xml:"http://www.resourcesync.org/ns/ ln"`
	MD    *mdIn   `xml:"http://www.resourcesync.org/ns/ md"`
	URLs  []urlIn `xml:"url"`
}

type sitemapindexIn struct {
	Links []lnIn  `xml:"http://www.resourcesync.org/ns/ ln"`
	MD    *mdIn   `xml:"http://www.resourcesync.org/ns/ md"`
	URLs  []urlIn `xml:"sitemap"`
}

// Encode renders the document as pretty-printed sitemap XML.
func Encode(d *Document) ([]byte, error) {
	md := &mdOut{
		Capability: string(d.Capability),
		At:         resource.FormatW3C(d.At),
		Completed:  resource.FormatW3C(d.Completed),
		From:       resource.FormatW3C(d.From),
		Until:      resource.FormatW3C(d.Until),
	}

	var links []lnOut
	if d.UpLink != "" {
		links = append(links, lnOut{Rel: relUp, Href: d.UpLink})
	}
	if d.IndexLink != "" {
		links = append(links, lnOut{Rel: relIndex, Href: d.IndexLink})
	}

	urls := make([]urlOut, 0, len(d.Resources))
	for _, r := range d.Resources {
		urls = append(urls, encodeResource(r))
	}

	var out []byte
	var err error
	if d.IsIndex {
		out, err = xml.MarshalIndent(sitemapindexOut{
			Xmlns:   xmlnsSitemap,
			XmlnsRS: xmlnsRS,
			Links:   links,
			MD:      md,
			URLs:    urls,
		}, "", "  ")
	} else {
		out, err = xml.MarshalIndent(urlsetOut{
			Xmlns:   xmlnsSitemap,
			XmlnsRS: xmlnsRS,
			Links:   links,
			MD:      md,
			URLs:    urls,
		}, "", "  ")
	}
	if err != nil {
		return nil, errors.Errorf("marshaling sitemap: %w", err)
	}

	buf := bytes.NewBufferString(xml.Header)
	buf.Write(out)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func encodeResource(r resource.Resource) urlOut {
	md := mdOut{
		Capability: r.Capability,
		Change:     string(r.Change),
		DateTime:   resource.FormatW3C(r.ChangeTime),
		At:         resource.FormatW3C(r.At),
		Completed:  resource.FormatW3C(r.Completed),
		From:       resource.FormatW3C(r.From),
		Until:      resource.FormatW3C(r.Until),
		Type:       r.MimeType,
	}
	if r.MD5 != "" {
		md.Hash = hashPrefixMD5 + r.MD5
	}
	if r.Length > 0 {
		md.Length = strconv.FormatInt(r.Length, 10)
	}

	u := urlOut{
		Loc:     r.URI,
		LastMod: resource.FormatW3C(r.LastModified),
	}
	if md != (mdOut{}) {
		u.MD = &md
	}
	return u
}

// Decode parses sitemap XML into a document. Unknown capabilities,
// unknown change kinds and malformed timestamps are errors: state
// replay must not continue from a half-understood file.
func Decode(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Errorf("parsing sitemap: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "urlset":
			var in urlsetIn
			if err := dec.DecodeElement(&in, &se); err != nil {
				return nil, errors.Errorf("decoding urlset: %w", err)
			}
			return fromWire(false, in.MD, in.Links, in.URLs)
		case "sitemapindex":
			var in sitemapindexIn
			if err := dec.DecodeElement(&in, &se); err != nil {
				return nil, errors.Errorf("decoding sitemapindex: %w", err)
			}
			return fromWire(true, in.MD, in.Links, in.URLs)
		default:
			return nil, errors.Errorf("unexpected root element: %s", se.Name.Local)
		}
	}
}

func fromWire(isIndex bool, md *mdIn, links []lnIn, urls []urlIn) (*Document, error) {
	if md == nil || md.Capability == "" {
		return nil, errors.New("document carries no capability")
	}
	cap, err := ParseCapability(md.Capability)
	if err != nil {
		return nil, err
	}

	d := &Document{Capability: cap, IsIndex: isIndex}
	if d.At, err = resource.ParseW3C(md.At); err != nil {
		return nil, errors.Errorf("at attribute: %w", err)
	}
	if d.Completed, err = resource.ParseW3C(md.Completed); err != nil {
		return nil, errors.Errorf("completed attribute: %w", err)
	}
	if d.From, err = resource.ParseW3C(md.From); err != nil {
		return nil, errors.Errorf("from attribute: %w", err)
	}
	if d.Until, err = resource.ParseW3C(md.Until); err != nil {
		return nil, errors.Errorf("until attribute: %w", err)
	}

	for _, ln := range links {
		switch ln.Rel {
		case relUp:
			d.UpLink = ln.Href
		case relIndex:
			d.IndexLink = ln.Href
		}
	}

	for _, u := range urls {
		r, err := decodeResource(u)
		if err != nil {
			return nil, errors.Errorf("entry %s: %w", u.Loc, err)
		}
		d.Add(r)
	}
	return d, nil
}

func decodeResource(u urlIn) (resource.Resource, error) {
	r := resource.Resource{URI: u.Loc}

	var err error
	if r.LastModified, err = resource.ParseW3C(u.LastMod); err != nil {
		return r, errors.Errorf("lastmod: %w", err)
	}
	if u.MD == nil {
		return r, nil
	}

	if r.Change, err = resource.ParseChangeKind(u.MD.Change); err != nil {
		return r, err
	}
	if r.ChangeTime, err = resource.ParseW3C(u.MD.DateTime); err != nil {
		return r, errors.Errorf("datetime attribute: %w", err)
	}
	if r.At, err = resource.ParseW3C(u.MD.At); err != nil {
		return r, errors.Errorf("at attribute: %w", err)
	}
	if r.Completed, err = resource.ParseW3C(u.MD.Completed); err != nil {
		return r, errors.Errorf("completed attribute: %w", err)
	}
	if r.From, err = resource.ParseW3C(u.MD.From); err != nil {
		return r, errors.Errorf("from attribute: %w", err)
	}
	if r.Until, err = resource.ParseW3C(u.MD.Until); err != nil {
		return r, errors.Errorf("until attribute: %w", err)
	}
	if u.MD.Length != "" {
		if r.Length, err = strconv.ParseInt(u.MD.Length, 10, 64); err != nil {
			return r, errors.Errorf("length attribute: %w", err)
		}
	}
	r.MimeType = u.MD.Type
	r.MD5 = md5FromHash(u.MD.Hash)
	r.Capability = u.MD.Capability
	return r, nil
}

// md5FromHash extracts the md5 digest from a hash attribute, which may
// list several space-separated algorithm:digest pairs.
func md5FromHash(hash string) string {
	for _, field := range strings.Fields(hash) {
		if strings.HasPrefix(field, hashPrefixMD5) {
			return strings.TrimPrefix(field, hashPrefixMD5)
		}
	}
	return ""
}
