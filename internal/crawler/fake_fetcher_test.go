package crawler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

func init() {
	// Set error level logging during tests to only show critical issues
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	slog.SetDefault(logger)
}

// fakePage is one canned response of a fakeSite
type fakePage struct {
	status int
	body   string
	err    error
}

// fakeSite is an in-memory Fetcher that counts every call per URL.
// Unknown URLs answer 404.
type fakeSite struct {
	mu      sync.Mutex
	pages   map[string]fakePage
	probes  map[string]int
	fetches map[string]int
	delay   time.Duration
}

func newFakeSite(pages map[string]fakePage) *fakeSite {
	return &fakeSite{
		pages:   pages,
		probes:  make(map[string]int),
		fetches: make(map[string]int),
	}
}

func (f *fakeSite) wait(ctx context.Context) error {
	if f.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeSite) lookup(url string) fakePage {
	if page, ok := f.pages[url]; ok {
		return page
	}
	return fakePage{status: 404}
}

func (f *fakeSite) Fetch(ctx context.Context, url string) (*Response, error) {
	f.mu.Lock()
	f.fetches[url]++
	page := f.lookup(url)
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if page.err != nil {
		return nil, page.err
	}
	return &Response{URL: url, StatusCode: page.status, Lines: strings.Split(page.body, "\n")}, nil
}

func (f *fakeSite) Probe(ctx context.Context, url string) (int, error) {
	f.mu.Lock()
	f.probes[url]++
	page := f.lookup(url)
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return 0, err
	}
	if page.err != nil {
		return 0, page.err
	}
	return page.status, nil
}

func (f *fakeSite) probeCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes[url]
}

func (f *fakeSite) fetchCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[url]
}

// maxProbes returns the highest probe count of any URL
func (f *fakeSite) maxProbes() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var worst string
	var most int
	for url, n := range f.probes {
		if n > most {
			worst, most = url, n
		}
	}
	return worst, most
}

// maxFetches returns the highest fetch count of any URL
func (f *fakeSite) maxFetches() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var worst string
	var most int
	for url, n := range f.fetches {
		if n > most {
			worst, most = url, n
		}
	}
	return worst, most
}

// anchors renders one href per line, the shape the scan extractor reads
func anchors(urls ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>\n")
	for _, u := range urls {
		b.WriteString(`<a href="` + u + `">link</a>` + "\n")
	}
	b.WriteString("</body></html>")
	return b.String()
}

// lineExtractor is a minimal scan-style extractor so engine tests do not
// depend on the parser package
type lineExtractor struct {
	fail map[string]bool
}

func (e lineExtractor) Links(pageURL string, lines []string) ([]string, error) {
	if e.fail[pageURL] {
		return nil, errors.New("render failed")
	}
	seen := make(map[string]bool)
	var links []string
	for _, line := range lines {
		i := strings.Index(line, `href="`)
		if i < 0 {
			continue
		}
		rest := line[i+len(`href="`):]
		j := strings.IndexByte(rest, '"')
		if j < 0 || !strings.HasPrefix(rest[:j], "http") || seen[rest[:j]] {
			continue
		}
		seen[rest[:j]] = true
		links = append(links, rest[:j])
	}
	return links, nil
}
