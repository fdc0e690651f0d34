package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// resourceExtensions are checked for availability but never crawled
var resourceExtensions = []string{".js", ".rss", ".jpg", ".png", ".css", ".xml"}

// Scope decides which links belong to the crawled domain.
//
// The default test is a literal prefix match against the root URL string, so
// "http://example.com" also admits "http://example.com.evil.net". With
// strictHost the parsed host must additionally equal the root's host.
type Scope struct {
	prefix     string
	host       string
	strictHost bool
}

// NewScope builds the scope rooted at rootURL
func NewScope(rootURL string, strictHost bool) (Scope, error) {
	parsed, err := url.Parse(rootURL)
	if err != nil {
		return Scope{}, fmt.Errorf("invalid root URL: %w", err)
	}
	return Scope{
		prefix:     rootURL,
		host:       strings.ToLower(parsed.Host),
		strictHost: strictHost,
	}, nil
}

// Prefix returns the domain prefix
func (s Scope) Prefix() string {
	return s.prefix
}

// InDomain reports whether link lies inside the crawled domain
func (s Scope) InDomain(link string) bool {
	if !strings.HasPrefix(link, s.prefix) {
		return false
	}
	if !s.strictHost {
		return true
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.ToLower(parsed.Host) == s.host
}

// Partition splits links into in-domain and external sets, keeping order
func (s Scope) Partition(links []string) (internal, external []string) {
	internal = make([]string, 0, len(links))
	external = make([]string, 0, len(links))
	for _, link := range links {
		if s.InDomain(link) {
			internal = append(internal, link)
		} else {
			external = append(external, link)
		}
	}
	return internal, external
}

// IsResource reports whether link names a static resource by its suffix
func IsResource(link string) bool {
	for _, ext := range resourceExtensions {
		if strings.HasSuffix(link, ext) {
			return true
		}
	}
	return false
}
