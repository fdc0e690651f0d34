package crawler

import (
	"context"
	"fmt"
	"log/slog"
)

// PageScanner fetches a visited page and extracts the links it references
type PageScanner struct {
	fetcher   Fetcher
	extractor LinkExtractor
}

// NewPageScanner creates a page scanner
func NewPageScanner(fetcher Fetcher, extractor LinkExtractor) *PageScanner {
	return &PageScanner{
		fetcher:   fetcher,
		extractor: extractor,
	}
}

// Scan fetches url and returns its links. Fetch and extraction failures are
// reported in PageResult.Err with an empty link set; they are never fatal.
func (p *PageScanner) Scan(ctx context.Context, url string) *PageResult {
	result := &PageResult{URL: url}

	resp, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		result.Err = err
		return result
	}
	result.StatusCode = resp.StatusCode

	// Error pages are not scanned for links
	if resp.StatusCode >= 400 {
		result.Err = fmt.Errorf("page returned status %d", resp.StatusCode)
		return result
	}

	links, err := p.extractor.Links(url, resp.Lines)
	if err != nil {
		result.Err = err
		return result
	}

	slog.Debug("Found links", "url", url, "status", resp.StatusCode, "links_count", len(links), "lines", len(resp.Lines))
	result.Links = links
	return result
}
