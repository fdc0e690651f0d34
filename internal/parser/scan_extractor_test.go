package parser

import (
	"reflect"
	"testing"

	"github.com/masahif/linkaudit/internal/crawler"
)

// Both extractors plug straight into the crawl engine.
var (
	_ Extractor             = (*ScanExtractor)(nil)
	_ Extractor             = (*DOMExtractor)(nil)
	_ crawler.LinkExtractor = (*ScanExtractor)(nil)
	_ crawler.LinkExtractor = (*DOMExtractor)(nil)
	_ crawler.LinkExtractor = Extractor(nil)
)

func TestScanExtractorLinks(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name:  "duplicate anchors collapse to one",
			lines: []string{`<a href="http://x.com/a">`, `<a href="http://x.com/a">`},
			want:  []string{"http://x.com/a"},
		},
		{
			name:  "src attribute",
			lines: []string{`<img src="https://cdn.x.com/logo.png" alt="">`},
			want:  []string{"https://cdn.x.com/logo.png"},
		},
		{
			name:  "href wins over src on the same line",
			lines: []string{`<img src="http://x.com/i.png"><a href="http://x.com/page">`},
			want:  []string{"http://x.com/page"},
		},
		{
			name:  "only first href per token",
			lines: []string{`<a href="http://x.com/1">1</a><a href="http://x.com/2">2</a>`},
			want:  []string{"http://x.com/1"},
		},
		{
			name:  "several links on one line",
			lines: []string{`<a href="http://x.com/a"> <a href="http://x.com/dead1"> <img src="http://y.com/dead2.png">`},
			want:  []string{"http://x.com/a", "http://x.com/dead1", "http://y.com/dead2.png"},
		},
		{
			name:  "tabs separate tokens too",
			lines: []string{"<a\thref=\"http://x.com/t1\">\t<a\thref=\"http://x.com/t2\">"},
			want:  []string{"http://x.com/t1", "http://x.com/t2"},
		},
		{
			name: "relative anchor mailto and javascript are dropped",
			lines: []string{
				`<a href="/about">`,
				`<a href="#top">`,
				`<a href="mailto:me@x.com">`,
				`<a href="javascript:void(0)">`,
			},
			want: []string{},
		},
		{
			name:  "unterminated value",
			lines: []string{`<a href="http://x.com/broken`},
			want:  []string{},
		},
		{
			name:  "single quotes are not recognised",
			lines: []string{`<a href='http://x.com/single'>`},
			want:  []string{},
		},
		{
			name:  "lines without links",
			lines: []string{"<html>", "<body>", "plain text http://x.com/not-a-link", "</body>"},
			want:  []string{},
		},
		{
			name: "first seen order is kept",
			lines: []string{
				`<link href="http://x.com/style.css" rel="stylesheet">`,
				`<script src="http://x.com/app.js"></script>`,
				`<a href="http://x.com/style.css">`,
			},
			want: []string{"http://x.com/style.css", "http://x.com/app.js"},
		},
	}

	extractor := NewScanExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractor.Links("http://x.com/", tt.lines)
			if err != nil {
				t.Fatalf("Links() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Links() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		kind    string
		want    string
		wantErr bool
	}{
		{"scan", "*parser.ScanExtractor", false},
		{"", "*parser.ScanExtractor", false},
		{"dom", "*parser.DOMExtractor", false},
		{"selenium", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got, err := New(tt.kind)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if typeName := reflect.TypeOf(got).String(); typeName != tt.want {
				t.Errorf("New(%q) = %s, want %s", tt.kind, typeName, tt.want)
			}
		})
	}
}
