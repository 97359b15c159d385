package sitemap

import (
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// ParseURLSet parses sitemap data into a URLSet.
// The data parameter contains the XML data of the sitemap, either plain or
// gzip-compressed as written by Generate; compressed data is transparently
// uncompressed first.
// If the data is empty, it returns an error with the message "sitemap is empty".
// It uses an xml.Decoder with a charset reader, so documents with a non-UTF-8
// encoding declaration are decoded as well.
// It returns the URLSet object and any uncompression or decoding error that occurred.
func ParseURLSet(data []byte) (URLSet, error) {
	var urlSet URLSet

	if len(data) == 0 {
		return urlSet, fmt.Errorf("sitemap is empty")
	}

	data, err := checkAndUnzipContent(data)
	if err != nil {
		return urlSet, err
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel

	err = decoder.Decode(&urlSet)
	return urlSet, err
}

// ParseSitemapIndex parses sitemap index data into a SitemapIndex.
// The data parameter contains the XML data of the sitemap index, either plain
// or gzip-compressed; compressed data is transparently uncompressed first.
// If the data is empty, it returns an error with the message "sitemapindex is empty".
// It uses an xml.Decoder with a charset reader, so documents with a non-UTF-8
// encoding declaration are decoded as well.
// It returns the SitemapIndex object and any uncompression or decoding error that occurred.
func ParseSitemapIndex(data []byte) (SitemapIndex, error) {
	var smIndex SitemapIndex

	if len(data) == 0 {
		return smIndex, fmt.Errorf("sitemapindex is empty")
	}

	data, err := checkAndUnzipContent(data)
	if err != nil {
		return smIndex, err
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel

	err = decoder.Decode(&smIndex)
	return smIndex, err
}

// checkAndUnzipContent checks if the content is a gzip file and unzips it if necessary.
// If the content is a gzip file, it returns the uncompressed content.
// If the content is not a gzip file, it returns the content unchanged.
//
// Param content: The content to be checked and possibly unzipped
// Return []byte: The checked and possibly uncompressed content
func checkAndUnzipContent(content []byte) ([]byte, error) {
	gzipPrefix := []byte("\x1f\x8b\x08")
	if bytes.HasPrefix(content, gzipPrefix) {
		return unzip(content)
	}
	return content, nil
}

// unzip decompresses the given content using gzip compression.
// It returns the uncompressed content and any error encountered during decompression.
// If an error occurs and it is not `io.ErrUnexpectedEOF`, the original content is returned.
func unzip(content []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return content, err
	}

	defer func(reader *gzip.Reader) {
		_ = reader.Close()
	}(reader)

	uncompressed, err := io.ReadAll(reader)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return content, err
	}

	return uncompressed, nil
}
