package crawler

import (
	"context"
	"time"
)

// Crawler defines the main crawling interface
type Crawler interface {
	Start(ctx context.Context) error
	Stop() error
	GetStats() CrawlStats
	Ledger() *Ledger
}

// Fetcher performs single HTTP GETs without following redirects.
// Transport problems come back as errors; they never panic.
type Fetcher interface {
	// Fetch returns the status code and the body split into lines
	Fetch(ctx context.Context, url string) (*Response, error)
	// Probe returns only the status code; the body is discarded
	Probe(ctx context.Context, url string) (int, error)
}

// LinkExtractor returns the unique absolute URLs referenced by a page body
type LinkExtractor interface {
	Links(pageURL string, lines []string) ([]string, error)
}

// CrawlStats represents crawling statistics
type CrawlStats struct {
	ActiveTasks int // Visit/Inspect units submitted but not finished
	PeakTasks   int // Highest ActiveTasks observed during the run
	TasksRun    int // Units that ran to completion
	Interrupted bool // The run ended before all work was done
	StartTime   time.Time
	Duration    time.Duration
}

// Response is what a Fetch returns for a reachable URL
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Lines       []string
	Duration    time.Duration
}

// BrokenLink is a link that failed the availability check
type BrokenLink struct {
	URL        string `json:"url" yaml:"url"`
	Referrer   string `json:"referrer" yaml:"referrer"`
	StatusCode int    `json:"status_code" yaml:"status_code"` // 0 when the transport failed
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// PageResult represents the outcome of scanning one visited page
type PageResult struct {
	URL        string
	StatusCode int
	Links      []string
	Err        error
}
