// Package report turns a finished crawl into a summary and renders it.
package report

import (
	"time"

	"github.com/masahif/linkaudit/internal/crawler"
)

// Report is the outcome of one crawl run.
type Report struct {
	RootURL     string               `json:"root_url" yaml:"root_url"`
	Checked     int                  `json:"checked" yaml:"checked"`
	Visited     int                  `json:"visited" yaml:"visited"`
	BrokenCount int                  `json:"broken_count" yaml:"broken_count"`
	Broken      []crawler.BrokenLink `json:"broken" yaml:"broken"`
	PeakTasks   int                  `json:"peak_tasks" yaml:"peak_tasks"`
	Complete    bool                 `json:"complete" yaml:"complete"`
	StartedAt   time.Time            `json:"started_at" yaml:"started_at"`
	Duration    time.Duration        `json:"duration" yaml:"duration"`

	// VisitedPages and CheckedLinks are kept for export only.
	VisitedPages []string `json:"-" yaml:"-"`
	CheckedLinks []string `json:"-" yaml:"-"`
}

// FromLedger builds a report from the ledger of a finished run.
func FromLedger(root string, ledger *crawler.Ledger, stats crawler.CrawlStats) *Report {
	broken := ledger.Broken()
	return &Report{
		RootURL:      root,
		Checked:      ledger.CheckedCount(),
		Visited:      ledger.VisitedCount(),
		BrokenCount:  len(broken),
		Broken:       broken,
		PeakTasks:    stats.PeakTasks,
		Complete:     !stats.Interrupted,
		StartedAt:    stats.StartTime,
		Duration:     stats.Duration,
		VisitedPages: ledger.Visited(),
		CheckedLinks: ledger.Checked(),
	}
}

// Lines returns one "brokenUrl - referrerPage" entry per broken link.
func (r *Report) Lines() []string {
	lines := make([]string, 0, len(r.Broken))
	for _, b := range r.Broken {
		lines = append(lines, b.URL+" - "+b.Referrer)
	}
	return lines
}
