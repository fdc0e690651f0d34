package parser

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DOMExtractor parses the page into a document and reads href on every
// anchor and src on every image. Relative values are resolved against the
// page URL (or its <base href>). Results are computed once per page URL and
// cached for the lifetime of the extractor.
type DOMExtractor struct {
	allowedSchemes []string

	mu    sync.Mutex
	cache map[string][]string
}

// NewDOMExtractor creates a DOM extractor that keeps http and https links
func NewDOMExtractor() *DOMExtractor {
	return &DOMExtractor{
		allowedSchemes: []string{"http", "https"},
		cache:          make(map[string][]string),
	}
}

// Links implements Extractor
func (p *DOMExtractor) Links(pageURL string, lines []string) ([]string, error) {
	p.mu.Lock()
	cached, ok := p.cache[pageURL]
	p.mu.Unlock()
	if ok {
		return cached, nil
	}

	links, err := p.extract(pageURL, lines)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if existing, ok := p.cache[pageURL]; ok {
		links = existing
	} else {
		p.cache[pageURL] = links
	}
	p.mu.Unlock()
	return links, nil
}

func (p *DOMExtractor) extract(pageURL string, lines []string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	root, err := html.Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	links := []string{}
	seen := make(map[string]struct{})
	collect := func(attr string) func(int, *goquery.Selection) {
		return func(_ int, s *goquery.Selection) {
			value, _ := s.Attr(attr)
			if link, ok := p.resolve(base, value); ok {
				links = appendUnique(links, seen, link)
			}
		}
	}

	doc.Find("a[href]").Each(collect("href"))
	doc.Find("img[src]").Each(collect("src"))

	return links, nil
}

// resolve turns an attribute value into an absolute URL, dropping fragments-only,
// mailto and javascript values and anything outside the allowed schemes
func (p *DOMExtractor) resolve(base *url.URL, value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" || strings.HasPrefix(value, "#") {
		return "", false
	}
	lower := strings.ToLower(value)
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "javascript:") {
		return "", false
	}

	ref, err := url.Parse(value)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if !p.isAllowedScheme(resolved.Scheme) {
		return "", false
	}
	return resolved.String(), true
}

func (p *DOMExtractor) isAllowedScheme(scheme string) bool {
	for _, allowed := range p.allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}
