// Package sitemap generates sitemap and sitemap index files following the
// sitemaps.org protocol. URL entries are accumulated into sitemap documents,
// split across multiple gzip-compressed files when they exceed the configured
// entry cap, and the generated files are listed in sitemap index documents
// which are themselves split when they exceed the configured sitemap cap.
package sitemap

import (
	"encoding/xml"
	"errors"
	"time"
)

type (

	// URLSet is a structure of <urlset>, the root element of a sitemap
	// document. It carries the sitemaps.org namespace declarations as
	// attributes and the list of <url> child elements.
	// The same structure is used for generating documents and for reading
	// generated documents back.
	URLSet struct {
		XMLName           xml.Name `xml:"urlset"`
		Xmlns             string   `xml:"xmlns,attr"`
		XmlnsXSI          string   `xml:"xmlns:xsi,attr"`
		XSISchemaLocation string   `xml:"xsi:schemaLocation,attr"`
		URL               []URL    `xml:"url"`
	}

	// URL is a structure of <url> in <urlset>.
	// The field order fixes the element order within <url>: loc, lastmod,
	// changefreq, priority. Optional fields are omitted when unset.
	URL struct {
		Loc        string         `xml:"loc"`
		LastMod    *lastModTime   `xml:"lastmod,omitempty"`
		ChangeFreq *urlChangeFreq `xml:"changefreq,omitempty"`
		Priority   *float32       `xml:"priority,omitempty"`
	}

	// SitemapIndex is a structure of <sitemapindex>, the root element of a
	// sitemap index document. It carries the same namespace declarations as
	// URLSet and the list of <sitemap> child elements.
	SitemapIndex struct {
		XMLName           xml.Name   `xml:"sitemapindex"`
		Xmlns             string     `xml:"xmlns,attr"`
		XmlnsXSI          string     `xml:"xmlns:xsi,attr"`
		XSISchemaLocation string     `xml:"xsi:schemaLocation,attr"`
		Sitemap           []IndexRef `xml:"sitemap"`
	}

	// IndexRef is a structure of <sitemap> in <sitemapindex>.
	// It references one generated sitemap file by absolute URL with an
	// optional last modification time.
	IndexRef struct {
		Loc     string       `xml:"loc"`
		LastMod *lastModTime `xml:"lastmod,omitempty"`
	}

	// URLMeta holds the optional fields of one URL entry: last modification
	// time, change frequency and priority. Any subset of the three fields may
	// be set; the element order in the generated <url> does not depend on
	// which fields are present.
	URLMeta struct {
		LastMod    *time.Time
		ChangeFreq urlChangeFreq
		Priority   *float32
	}

	lastModTime struct {
		time.Time
	}

	// urlChangeFreq represents the frequency at which a URL is expected to
	// change. Possible values are: "always", "hourly", "daily", "weekly",
	// "monthly", "yearly", and "never".
	urlChangeFreq string
)

const (
	// ChangeFreqAlways is a constant representing the "always" value for urlChangeFreq.
	ChangeFreqAlways urlChangeFreq = "always"

	// ChangeFreqHourly is a constant representing the "hourly" value for urlChangeFreq.
	ChangeFreqHourly urlChangeFreq = "hourly"

	// ChangeFreqDaily is a constant representing the "daily" value for urlChangeFreq.
	ChangeFreqDaily urlChangeFreq = "daily"

	// ChangeFreqWeekly is a constant representing the "weekly" value for urlChangeFreq.
	ChangeFreqWeekly urlChangeFreq = "weekly"

	// ChangeFreqMonthly is a constant representing the "monthly" value for urlChangeFreq.
	ChangeFreqMonthly urlChangeFreq = "monthly"

	// ChangeFreqYearly is a constant representing the "yearly" value for urlChangeFreq.
	ChangeFreqYearly urlChangeFreq = "yearly"

	// ChangeFreqNever is a constant representing the "never" value for urlChangeFreq.
	ChangeFreqNever urlChangeFreq = "never"
)

const (
	xmlnsSitemap = "http://www.sitemaps.org/schemas/sitemap/0.9"
	xmlnsXSI     = "http://www.w3.org/2001/XMLSchema-instance"

	schemaLocationURLSet = "http://www.sitemaps.org/schemas/sitemap/0.9 http://www.sitemaps.org/schemas/sitemap/0.9/sitemap.xsd"
	schemaLocationIndex  = "http://www.sitemaps.org/schemas/sitemap/0.9 http://www.sitemaps.org/schemas/sitemap/0.9/siteindex.xsd"

	// lastModLayout is the <lastmod> output format: W3C datetime with a
	// numeric UTC offset and no fractional seconds.
	lastModLayout = "2006-01-02T15:04:05-07:00"
)

var (
	// ErrEmptyLoc is returned when a URL entry is appended without a location.
	ErrEmptyLoc = errors.New("loc must not be empty")

	// ErrEmptyRootURL is returned by Generate when the root URL is empty.
	ErrEmptyRootURL = errors.New("root URL must not be empty")

	// ErrNilEntries is returned by Generate when the entry collection is nil.
	ErrNilEntries = errors.New("entries must not be nil")
)

// URLSetBuilder accumulates URL entries for one sitemap document.
// It does not enforce any entry cap itself; the generator splits entries
// across builders before a document grows beyond the configured maximum.
type URLSetBuilder struct {
	doc URLSet
}

// NewURLSetBuilder creates an empty sitemap document builder.
// The document root is initialized with the sitemaps.org namespace and
// schema location attributes.
func NewURLSetBuilder() *URLSetBuilder {
	return &URLSetBuilder{
		doc: URLSet{
			Xmlns:             xmlnsSitemap,
			XmlnsXSI:          xmlnsXSI,
			XSISchemaLocation: schemaLocationURLSet,
		},
	}
}

// AppendURL appends one <url> element with the given location and the
// optional fields of meta. The location is taken as-is; it is not validated
// or normalized beyond the standard XML text escaping applied during
// serialization.
// It returns ErrEmptyLoc and leaves the document unchanged when loc is empty.
func (b *URLSetBuilder) AppendURL(loc string, meta URLMeta) error {
	if loc == "" {
		return ErrEmptyLoc
	}

	u := URL{Loc: loc}
	if meta.LastMod != nil {
		u.LastMod = &lastModTime{*meta.LastMod}
	}
	if meta.ChangeFreq != "" {
		changeFreq := meta.ChangeFreq
		u.ChangeFreq = &changeFreq
	}
	if meta.Priority != nil {
		priority := *meta.Priority
		u.Priority = &priority
	}

	b.doc.URL = append(b.doc.URL, u)

	return nil
}

// IsEmpty returns true if the document contains no <url> elements or the
// builder is nil.
func (b *URLSetBuilder) IsEmpty() bool {
	return b == nil || len(b.doc.URL) == 0
}

// Serialize returns the document as UTF-8 XML text, prefixed with the XML
// declaration. The output is deterministic; calling Serialize twice without
// appending in between yields identical bytes.
func (b *URLSetBuilder) Serialize() ([]byte, error) {
	out, err := xml.Marshal(b.doc)
	if err != nil {
		return nil, err
	}

	return append([]byte(xml.Header), out...), nil
}

// IndexBuilder accumulates references to generated sitemap files for one
// sitemap index document.
type IndexBuilder struct {
	doc SitemapIndex
}

// NewIndexBuilder creates an empty sitemap index document builder.
// The document root is initialized with the sitemaps.org namespace and
// schema location attributes.
func NewIndexBuilder() *IndexBuilder {
	return &IndexBuilder{
		doc: SitemapIndex{
			Xmlns:             xmlnsSitemap,
			XmlnsXSI:          xmlnsXSI,
			XSISchemaLocation: schemaLocationIndex,
		},
	}
}

// AppendSitemapURL appends one <sitemap> element referencing a generated
// sitemap file by its absolute URL, with an optional last modification time.
// It returns ErrEmptyLoc and leaves the document unchanged when loc is empty.
func (b *IndexBuilder) AppendSitemapURL(loc string, lastMod *time.Time) error {
	if loc == "" {
		return ErrEmptyLoc
	}

	ref := IndexRef{Loc: loc}
	if lastMod != nil {
		ref.LastMod = &lastModTime{*lastMod}
	}

	b.doc.Sitemap = append(b.doc.Sitemap, ref)

	return nil
}

// IsEmpty returns true if the document contains no <sitemap> elements or the
// builder is nil.
func (b *IndexBuilder) IsEmpty() bool {
	return b == nil || len(b.doc.Sitemap) == 0
}

// Serialize returns the document as UTF-8 XML text, prefixed with the XML
// declaration. The output is deterministic; calling Serialize twice without
// appending in between yields identical bytes.
func (b *IndexBuilder) Serialize() ([]byte, error) {
	out, err := xml.Marshal(b.doc)
	if err != nil {
		return nil, err
	}

	return append([]byte(xml.Header), out...), nil
}

// MarshalXML encodes the time in the lastModLayout format. The offset is
// always numeric; UTC is written as +00:00, not Z.
func (l lastModTime) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(l.Format(lastModLayout), start)
}

// UnmarshalXML parses a <lastmod> value. The sitemaps.org protocol allows
// the full range of W3C datetime precisions, so the value is tried against
// each supported layout.
func (l *lastModTime) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var v string
	err := d.DecodeElement(&v, &start)
	if err != nil {
		return err
	}

	formats := []string{
		"2006",
		"2006-01",
		"2006-01-02",
		"2006-01-02T15:04-07:00",
		"2006-01-02T15:04Z",
		"2006-01-02T15:04:05-07:00",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999Z",
		time.RFC3339,
		time.RFC3339Nano,
	}

	var parsedTime time.Time
	for _, format := range formats {
		parsedTime, err = time.Parse(format, v)
		if err == nil {
			*l = lastModTime{parsedTime}
			return nil
		}
	}

	return err
}
