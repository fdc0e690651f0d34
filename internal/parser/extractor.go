// Package parser extracts link targets from fetched page bodies.
// Two strategies share one contract: a cheap line scan that only sees
// literal absolute URLs, and a DOM extractor that also resolves relative links.
package parser

import (
	"fmt"

	"github.com/masahif/linkaudit/internal/config"
)

// Extractor returns the unique absolute URLs a page references
type Extractor interface {
	Links(pageURL string, lines []string) ([]string, error)
}

// New returns the extractor selected by kind ("scan" or "dom")
func New(kind string) (Extractor, error) {
	switch kind {
	case config.ExtractorScan, "":
		return NewScanExtractor(), nil
	case config.ExtractorDOM:
		return NewDOMExtractor(), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownExtractor, kind)
	}
}

// appendUnique appends link to links unless seen already holds it
func appendUnique(links []string, seen map[string]struct{}, link string) []string {
	if _, ok := seen[link]; ok {
		return links
	}
	seen[link] = struct{}{}
	return append(links, link)
}
