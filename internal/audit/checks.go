package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// StructuredDataSuffix marks the files the auditor inspects.
	StructuredDataSuffix = ".pdf.jsonld"

	// PageImageExt is the suffix of page images belonging to a document.
	PageImageExt = ".png"

	graphKey  = "@graph"
	sourceKey = "source"
)

var pageRefPattern = regexp.MustCompile(`\(Page \d+\)`)

// Document is one structured-data file and the page images sharing its root name.
type Document struct {
	File       string   // e.g. "A.pdf.jsonld"
	Root       string   // e.g. "A"
	Path       string   // full path of File
	PageImages []string // names of <Root>*.png files in the same directory
}

// Discover lists the structured-data files in dir, sorted by name, each with
// its page-image set.
func Discover(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list output directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	var docs []Document
	for _, name := range names {
		if !strings.HasSuffix(name, StructuredDataSuffix) {
			continue
		}
		root := strings.TrimSuffix(name, StructuredDataSuffix)
		docs = append(docs, Document{
			File:       name,
			Root:       root,
			Path:       filepath.Join(dir, name),
			PageImages: pageImages(names, root),
		})
	}
	return docs, nil
}

// pageImages returns every name starting with root and ending in .png.
// The prefix match is loose: root "A" also claims "AB_page_1.png".
func pageImages(names []string, root string) []string {
	var pngs []string
	for _, name := range names {
		if strings.HasPrefix(name, root) && strings.HasSuffix(name, PageImageExt) {
			pngs = append(pngs, name)
		}
	}
	return pngs
}

// Inspect runs every check against doc and returns the diagnoses in check
// order: graph-empty, no page images, invalid sources. A read or parse failure
// is returned alone.
func (a *Auditor) Inspect(doc Document) []Entry {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return []Entry{parseFailure(doc.File, err)}
	}

	if off := invalidUTF8Offset(data); off >= 0 {
		return []Entry{parseFailure(doc.File, fmt.Errorf("invalid UTF-8 at byte %d", off))}
	}

	var content any
	if err := json.Unmarshal(data, &content); err != nil {
		return []Entry{parseFailure(doc.File, err)}
	}

	hasGraph, err := hasKey(content, graphKey)
	if err != nil {
		return []Entry{parseFailure(doc.File, err)}
	}
	var graph any
	if hasGraph {
		graph = content.(map[string]any)[graphKey]
	}

	var found []Entry
	if hasGraph && isEmptySequence(graph) {
		found = append(found, Entry{File: doc.File, Status: StatusGraphEmpty})
	}

	pages := len(doc.PageImages)
	if pages == 0 {
		return append(found, Entry{File: doc.File, Status: StatusNoPageImages})
	}

	sources, err := CountPageSources(graph)
	if err != nil {
		return []Entry{parseFailure(doc.File, err)}
	}
	ratio := float64(sources) / float64(pages)
	if ratio < a.minRatio || ratio > a.maxRatio {
		found = append(found, Entry{
			File:           doc.File,
			Status:         StatusInvalidSources,
			Pages:          &pages,
			Sources:        &sources,
			SourcesPerPage: &ratio,
		})
	}
	return found
}

// CountPageSources counts graph entries whose source is a string carrying a
// "(Page N)" reference. A graph that is not a list counts zero. An entry that
// cannot hold a source field (a number, boolean or null) is an error, as is a
// string or list entry that names "source" but cannot be indexed by it.
func CountPageSources(graph any) (int, error) {
	list, ok := graph.([]any)
	if !ok {
		return 0, nil
	}

	count := 0
	for i, item := range list {
		has, err := hasKey(item, sourceKey)
		if err != nil {
			return 0, fmt.Errorf("%s entry %d: %w", graphKey, i, err)
		}
		if !has {
			continue
		}
		source, ok := item.(map[string]any)[sourceKey].(string)
		if ok && pageRefPattern.MatchString(source) {
			count++
		}
	}
	return count, nil
}

// hasKey reports whether v is an object containing key. Strings and lists only
// answer "no": a string containing key, or a list holding key as an element,
// cannot be indexed by it and is an error. Scalars have no keys at all.
func hasKey(v any, key string) (bool, error) {
	switch t := v.(type) {
	case map[string]any:
		_, ok := t[key]
		return ok, nil
	case string:
		if strings.Contains(t, key) {
			return false, fmt.Errorf("cannot look up %q in a string", key)
		}
		return false, nil
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == key {
				return false, fmt.Errorf("cannot look up %q in an array", key)
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("cannot look up %q in %s", key, jsonKind(v))
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// invalidUTF8Offset returns the byte offset of the first invalid UTF-8
// sequence in data, or -1 when data is valid.
func invalidUTF8Offset(data []byte) int {
	if utf8.Valid(data) {
		return -1
	}
	for off := 0; off < len(data); {
		r, size := utf8.DecodeRune(data[off:])
		if r == utf8.RuneError && size <= 1 {
			return off
		}
		off += size
	}
	return -1
}

func isEmptySequence(v any) bool {
	list, ok := v.([]any)
	return ok && len(list) == 0
}

func parseFailure(file string, err error) Entry {
	return Entry{
		File:   file,
		Status: fmt.Sprintf("%s: %v", StatusParseFailure, err),
		Error:  err.Error(),
	}
}
