package sitemap

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

type (

	// G is a structure that holds various data related to one generation run.
	// It contains a cfg field of type `config`, which stores configuration settings.
	// The sitemapFiles field is a slice of strings that contains the filenames of the written sitemap files.
	// The indexFiles field is a slice of strings that contains the filenames of the written sitemap index files.
	// The errs field is a slice of errors that holds any encountered errors during configuration and generation.
	// The now field supplies the timestamp registered as <lastmod> for each written sitemap file.
	G struct {
		cfg          config
		sitemapFiles []string
		indexFiles   []string
		errs         []error
		now          func() time.Time
	}

	// config is a structure that holds configuration settings.
	// It contains a maxURLsPerSitemap field of type int, which caps the number of <url> entries per sitemap file.
	// The maxSitemapsPerIndex field of type int caps the number of <sitemap> entries per sitemap index file.
	// The outputDir field of type string is the directory the generated filenames are joined with.
	// The writeFile field of type WriteFileFunc is the collaborator that persists a (filename, content) pair.
	config struct {
		maxURLsPerSitemap   int
		maxSitemapsPerIndex int
		outputDir           string
		writeFile           WriteFileFunc
	}

	// Entry is one page to list in the generated sitemaps.
	// Loc is required; LastMod, ChangeFreq and Priority are optional.
	Entry struct {
		Loc        string
		LastMod    *time.Time
		ChangeFreq urlChangeFreq
		Priority   float32
	}

	// WriteFileFunc persists one generated file. Errors are returned to the
	// Generate caller unchanged; generation stops at the first failed write.
	WriteFileFunc func(path string, content []byte) error
)

// New creates a new instance of the G structure.
// It initializes the structure with default configuration values
// and returns a pointer to the created instance.
func New() *G {
	g := &G{now: time.Now}

	g.setConfigDefaults()

	return g
}

// setConfigDefaults sets the default configuration values for the G structure.
// It initializes the cfg field with the default values for maxURLsPerSitemap,
// maxSitemapsPerIndex, outputDir and writeFile.
// The default maxURLsPerSitemap is 50000 and the default maxSitemapsPerIndex
// is 1000, the caps suggested by the sitemaps.org protocol.
// The default outputDir is the current directory and the default writeFile
// persists to the local filesystem.
// This method does not return any value.
func (g *G) setConfigDefaults() {
	g.cfg = config{
		maxURLsPerSitemap:   50000,
		maxSitemapsPerIndex: 1000,
		outputDir:           ".",
		writeFile: func(path string, content []byte) error {
			return os.WriteFile(path, content, 0644)
		},
	}
}

// SetMaxURLsPerSitemap sets the maximum number of URL entries per sitemap file.
// A sitemap file is written and a new document is started whenever the cap is reached.
// Values below 1 are rejected; the error is appended to the error list in the struct.
// The function returns a pointer to the G structure to allow method chaining.
func (g *G) SetMaxURLsPerSitemap(n int) *G {
	if n < 1 {
		g.errs = append(g.errs, fmt.Errorf("maxURLsPerSitemap must be at least 1, got %d", n))
		return g
	}
	g.cfg.maxURLsPerSitemap = n

	return g
}

// SetMaxSitemapsPerIndex sets the maximum number of sitemap references per sitemap index file.
// An index file is written and a new index document is started whenever the cap is reached.
// Values below 1 are rejected; the error is appended to the error list in the struct.
// The function returns a pointer to the G structure to allow method chaining.
func (g *G) SetMaxSitemapsPerIndex(n int) *G {
	if n < 1 {
		g.errs = append(g.errs, fmt.Errorf("maxSitemapsPerIndex must be at least 1, got %d", n))
		return g
	}
	g.cfg.maxSitemapsPerIndex = n

	return g
}

// SetOutputDir sets the directory the generated filenames are joined with
// before they are handed to the write collaborator.
// The function returns a pointer to the G structure to allow method chaining.
func (g *G) SetOutputDir(dir string) *G {
	g.cfg.outputDir = dir

	return g
}

// SetWriteFile sets the collaborator that persists generated files.
// A nil function is rejected; the error is appended to the error list in the struct.
// The function returns a pointer to the G structure to allow method chaining.
func (g *G) SetWriteFile(writeFile WriteFileFunc) *G {
	if writeFile == nil {
		g.errs = append(g.errs, errors.New("writeFile must not be nil"))
		return g
	}
	g.cfg.writeFile = writeFile

	return g
}

// Generate is a method of the G structure. It generates the sitemap and
// sitemap index files for the given entries in one synchronous pass.
// If the G object has any errors, it returns an error with the message "errors occurred before generating, see GetErrors() for details".
// The rootURL is the base the relative sitemap filenames are resolved against
// when they are registered in the index documents; it must not be empty and
// must parse as a URL. The entries collection must not be nil; an empty
// collection generates no files.
// Entries are processed strictly in order. Every maxURLsPerSitemap entries
// the current sitemap document is serialized, gzip-compressed and written as
// sitemap{N}.xml.gz (N counted from 1), and its resolved absolute URL is
// registered in the current index document with the current time as lastmod.
// Every maxSitemapsPerIndex written sitemap files the current index document
// is written uncompressed as sitemapindex{M}.xml (M counted from 1) and a new
// index document is started. Partial documents are written after the last
// entry.
// An entry without a positive priority is written with priority 1.
// The first failed write aborts the run; files written before the failure
// remain.
// It returns the G structure and nil error if the method was able to complete successfully.
func (g *G) Generate(rootURL string, entries []Entry) (*G, error) {
	if len(g.errs) > 0 {
		return g, errors.New("errors occurred before generating, see GetErrors() for details")
	}

	if rootURL == "" {
		g.errs = append(g.errs, ErrEmptyRootURL)
		return g, ErrEmptyRootURL
	}
	root, err := url.Parse(rootURL)
	if err != nil {
		g.errs = append(g.errs, err)
		return g, err
	}
	if entries == nil {
		g.errs = append(g.errs, ErrNilEntries)
		return g, ErrNilEntries
	}

	g.sitemapFiles = nil
	g.indexFiles = nil

	urlSet := NewURLSetBuilder()
	index := NewIndexBuilder()
	sitemapNum := 1
	indexNum := 1

	for i, entry := range entries {
		if err := urlSet.AppendURL(entry.Loc, entry.meta()); err != nil {
			g.errs = append(g.errs, err)
			return g, err
		}

		if (i+1)%g.cfg.maxURLsPerSitemap != 0 && i+1 != len(entries) {
			continue
		}

		if err := g.flushSitemap(urlSet, index, root, sitemapNum); err != nil {
			g.errs = append(g.errs, err)
			return g, err
		}
		if sitemapNum%g.cfg.maxSitemapsPerIndex == 0 {
			if err := g.flushIndex(index, indexNum); err != nil {
				g.errs = append(g.errs, err)
				return g, err
			}
			index = NewIndexBuilder()
			indexNum++
		}
		sitemapNum++
		urlSet = NewURLSetBuilder()
	}

	if !index.IsEmpty() {
		if err := g.flushIndex(index, indexNum); err != nil {
			g.errs = append(g.errs, err)
			return g, err
		}
	}

	return g, nil
}

// meta derives the URLMeta written for the entry.
// LastMod and ChangeFreq are passed through as-is. Priority falls back to 1
// whenever the entry does not carry a positive one, so <priority> is always
// emitted.
func (e Entry) meta() URLMeta {
	priority := e.Priority
	if priority <= 0 {
		priority = 1
	}

	return URLMeta{
		LastMod:    e.LastMod,
		ChangeFreq: e.ChangeFreq,
		Priority:   &priority,
	}
}

// flushSitemap serializes the sitemap document, gzip-compresses it and writes
// it as sitemap{n}.xml.gz through the write collaborator. The filename is
// resolved against root and registered in the index document with the current
// time as lastmod, and recorded in the sitemapFiles list.
func (g *G) flushSitemap(urlSet *URLSetBuilder, index *IndexBuilder, root *url.URL, n int) error {
	content, err := urlSet.Serialize()
	if err != nil {
		return err
	}
	compressed, err := zip(content)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("sitemap%d.xml.gz", n)
	if err := g.cfg.writeFile(filepath.Join(g.cfg.outputDir, name), compressed); err != nil {
		return err
	}

	ref, err := url.Parse(name)
	if err != nil {
		return err
	}
	lastMod := g.now()
	if err := index.AppendSitemapURL(root.ResolveReference(ref).String(), &lastMod); err != nil {
		return err
	}

	g.sitemapFiles = append(g.sitemapFiles, name)

	return nil
}

// flushIndex serializes the index document and writes it uncompressed as
// sitemapindex{m}.xml through the write collaborator, and records the
// filename in the indexFiles list.
func (g *G) flushIndex(index *IndexBuilder, m int) error {
	content, err := index.Serialize()
	if err != nil {
		return err
	}

	name := fmt.Sprintf("sitemapindex%d.xml", m)
	if err := g.cfg.writeFile(filepath.Join(g.cfg.outputDir, name), content); err != nil {
		return err
	}

	g.indexFiles = append(g.indexFiles, name)

	return nil
}

// GetSitemapFiles returns the filenames of the sitemap files written by the
// last Generate call, in write order.
func (g *G) GetSitemapFiles() []string {
	if g == nil || len(g.sitemapFiles) <= 0 {
		return []string{}
	}
	return g.sitemapFiles
}

// GetSitemapFileCount returns the count of sitemap files written by the last
// Generate call.
func (g *G) GetSitemapFileCount() int64 {
	if g == nil {
		return 0
	}
	return int64(len(g.sitemapFiles))
}

// GetIndexFiles returns the filenames of the sitemap index files written by
// the last Generate call, in write order.
func (g *G) GetIndexFiles() []string {
	if g == nil || len(g.indexFiles) <= 0 {
		return []string{}
	}
	return g.indexFiles
}

// GetIndexFileCount returns the count of sitemap index files written by the
// last Generate call.
func (g *G) GetIndexFileCount() int64 {
	if g == nil {
		return 0
	}
	return int64(len(g.indexFiles))
}

func (g *G) GetErrorsCount() int64 {
	if g == nil {
		return 0
	}
	return int64(len(g.errs))
}

func (g *G) GetErrors() []error {
	if g == nil {
		return nil
	}
	return g.errs
}

// zip compresses the given content using gzip compression.
// It returns the compressed content as a byte array.
// If an error occurs during compression, it returns the original content and the error.
func zip(content []byte) ([]byte, error) {
	writer := bytes.NewBuffer(nil)
	gzipWriter := gzip.NewWriter(writer)
	_, err := gzipWriter.Write(content)
	if err != nil {
		return content, err
	}
	err = gzipWriter.Close()
	if err != nil {
		return content, err
	}
	compressed := writer.Bytes()
	return compressed, nil
}
