package parser

import "strings"

const (
	hrefAttr = `href="`
	srcAttr  = `src="`
)

// ScanExtractor finds links by plain string search over the whitespace
// separated tokens of each line. For each token containing href=" or src=" it
// takes the quoted value after the first occurrence of that attribute, href first. Only values starting with "http"
// are kept, so relative, anchor, mailto and javascript links are dropped.
type ScanExtractor struct{}

// NewScanExtractor creates a string-scan extractor
func NewScanExtractor() *ScanExtractor {
	return &ScanExtractor{}
}

// Links implements Extractor. It never fails.
func (s *ScanExtractor) Links(_ string, lines []string) ([]string, error) {
	links := []string{}
	seen := make(map[string]struct{})

	for _, line := range lines {
		for _, token := range strings.Fields(line) {
			link, ok := scanToken(token)
			if !ok {
				continue
			}
			links = appendUnique(links, seen, link)
		}
	}
	return links, nil
}

func scanToken(token string) (string, bool) {
	attr := hrefAttr
	start := strings.Index(token, hrefAttr)
	if start < 0 {
		attr = srcAttr
		start = strings.Index(token, srcAttr)
	}
	if start < 0 {
		return "", false
	}

	rest := token[start+len(attr):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return "", false
	}

	value := rest[:end]
	if !strings.HasPrefix(value, "http") {
		return "", false
	}
	return value, true
}
