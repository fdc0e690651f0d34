// Package crawler provides the concurrent broken-link crawl engine.
// Visit units fetch in-domain pages and extract their links; Inspect units
// probe each link once and schedule visits for newly found pages. A shared
// Ledger deduplicates the work and records broken links.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/masahif/linkaudit/internal/config"
)

// progressInterval throttles the progress log line
const progressInterval = 5 * time.Second

// DefaultCrawler implements the Crawler interface
type DefaultCrawler struct {
	config  *config.CrawlConfig
	fetcher Fetcher
	scanner *PageScanner
	checker *AvailabilityChecker
	scope   Scope
	ledger  *Ledger

	// State
	queue       *taskQueue
	interrupted atomic.Bool
	progress    *rate.Sometimes
	startTime   time.Time
	duration    time.Duration
	statsMutex  sync.RWMutex
	cancel      context.CancelFunc
}

// NewCrawler creates a crawler that fetches over HTTP with the configured
// user agent, headers and per-request timeout.
func NewCrawler(cfg *config.CrawlConfig, extractor LinkExtractor) (*DefaultCrawler, error) {
	httpClient := NewHTTPClient(cfg.UserAgent, cfg.RequestTimeout)

	if headers := cfg.HeaderMap(); len(headers) > 0 {
		httpClient.SetCustomHeaders(headers)
		slog.Info("Set custom headers", "count", len(headers))
	}

	return NewCrawlerWithFetcher(cfg, httpClient, extractor)
}

// NewCrawlerWithFetcher creates a crawler over an arbitrary Fetcher. The
// availability policy is always redirect tolerant.
func NewCrawlerWithFetcher(cfg *config.CrawlConfig, fetcher Fetcher, extractor LinkExtractor) (*DefaultCrawler, error) {
	if cfg.Concurrency <= 0 {
		return nil, config.ErrInvalidConcurrency
	}

	scope, err := NewScope(cfg.RootURL, cfg.StrictHost)
	if err != nil {
		return nil, err
	}

	return &DefaultCrawler{
		config:  cfg,
		fetcher: fetcher,
		scanner: NewPageScanner(fetcher, extractor),
		checker: NewAvailabilityChecker(fetcher, RedirectTolerant),
		scope:   scope,
		ledger:  NewLedger(),
	}, nil
}

// Start crawls the domain from the configured root and blocks until no
// Visit or Inspect unit is outstanding, or ctx (or the crawl timeout) ends.
// An interrupted crawl leaves a partial ledger and returns the context error.
func (c *DefaultCrawler) Start(ctx context.Context) error {
	if c.config.CrawlTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, c.config.CrawlTimeout)
		defer cancelTimeout()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.statsMutex.Lock()
	c.cancel = cancel
	c.queue = newTaskQueue()
	c.progress = &rate.Sometimes{Interval: progressInterval}
	c.startTime = time.Now()
	c.duration = 0
	c.statsMutex.Unlock()

	c.interrupted.Store(false)
	c.ledger.Reset()

	slog.Info("Starting crawler", "root_url", c.scope.Prefix(), "concurrency", c.config.Concurrency)
	c.queue.push(task{kind: visitTask, url: c.scope.Prefix()})

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.config.Concurrency; i++ {
		id := i
		g.Go(func() error {
			c.worker(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	// Workers only leave a non-empty queue behind when ctx ended.
	if active, _, _ := c.queue.counts(); active > 0 {
		c.interrupted.Store(true)
	}

	c.statsMutex.Lock()
	c.duration = time.Since(c.startTime)
	c.statsMutex.Unlock()

	stats := c.GetStats()
	if err := ctx.Err(); err != nil && stats.Interrupted {
		slog.Warn("Crawling interrupted", "error", err, "pending_tasks", stats.ActiveTasks)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("crawl deadline exceeded: %w", err)
		}
		return fmt.Errorf("crawl cancelled: %w", err)
	}

	slog.Info("Crawling completed",
		"visited", c.ledger.VisitedCount(),
		"checked", c.ledger.CheckedCount(),
		"broken", c.ledger.BrokenCount(),
		"peak_tasks", stats.PeakTasks,
		"duration", stats.Duration)
	return nil
}

// Stop cancels a running crawl and releases idle connections
func (c *DefaultCrawler) Stop() error {
	c.statsMutex.RLock()
	cancel := c.cancel
	c.statsMutex.RUnlock()
	if cancel != nil {
		cancel()
	}
	if closer, ok := c.fetcher.(interface{ Close() }); ok {
		closer.Close()
	}
	return nil
}

// GetStats returns current crawling statistics
func (c *DefaultCrawler) GetStats() CrawlStats {
	c.statsMutex.RLock()
	defer c.statsMutex.RUnlock()

	stats := CrawlStats{StartTime: c.startTime, Duration: c.duration}
	if c.queue != nil {
		stats.ActiveTasks, stats.PeakTasks, stats.TasksRun = c.queue.counts()
	}
	stats.Interrupted = c.interrupted.Load()
	if stats.Duration == 0 && !c.startTime.IsZero() {
		stats.Duration = time.Since(c.startTime)
	}
	return stats
}

// Ledger returns the crawl's ledger. It is stable once Start has returned.
func (c *DefaultCrawler) Ledger() *Ledger {
	return c.ledger
}

// worker runs queued units until the queue drains or ctx ends
func (c *DefaultCrawler) worker(ctx context.Context, id int) {
	slog.Debug("Worker started", "worker_id", id)
	defer slog.Debug("Worker stopped", "worker_id", id)

	for {
		t, ok := c.queue.pop(ctx)
		if !ok {
			return
		}

		switch t.kind {
		case visitTask:
			c.visit(ctx, id, t.url)
		case inspectTask:
			c.inspect(ctx, id, t.links, t.url)
		}
		c.queue.finish()

		c.progress.Do(c.logProgress)
	}
}

// visit claims page, scans it, and hands its links to two inspect units:
// one for in-domain links and one for the rest, even when either is empty.
func (c *DefaultCrawler) visit(ctx context.Context, id int, page string) {
	if !c.ledger.TryMarkVisited(page) {
		return
	}

	result := c.scanner.Scan(ctx, page)
	if result.Err != nil {
		if ctx.Err() != nil {
			c.interrupted.Store(true)
			return
		}
		slog.Warn("Worker failed to scan page", "worker_id", id, "url", page, "error", result.Err)
	}

	internal, external := c.scope.Partition(result.Links)
	slog.Info("Worker visited page", "worker_id", id, "url", page, "status", result.StatusCode,
		"internal_links", len(internal), "external_links", len(external))

	c.queue.push(task{kind: inspectTask, url: page, links: internal})
	c.queue.push(task{kind: inspectTask, url: page, links: external})
}

// inspect probes each link that no other unit has claimed, records the
// broken ones, and schedules visits for available in-domain pages.
func (c *DefaultCrawler) inspect(ctx context.Context, id int, links []string, referrer string) {
	for _, link := range links {
		if ctx.Err() != nil {
			c.interrupted.Store(true)
			return
		}
		if !c.ledger.TryMarkChecked(link) {
			continue
		}

		verdict := c.checker.Check(ctx, link)
		if ctx.Err() != nil {
			// A cancelled probe says nothing about the link.
			c.interrupted.Store(true)
			return
		}

		if !verdict.Available {
			recorded := c.ledger.RecordBrokenIfAbsent(BrokenLink{
				URL:        link,
				Referrer:   referrer,
				StatusCode: verdict.StatusCode,
				Reason:     verdict.Reason(),
			})
			if recorded {
				slog.Info("Broken link", "worker_id", id, "url", link, "referrer", referrer,
					"status", verdict.StatusCode, "reason", verdict.Reason())
			}
			continue
		}

		if c.shouldVisit(link) {
			c.queue.push(task{kind: visitTask, url: link})
		}
	}
}

// shouldVisit is the recurse predicate: in-domain, not a resource, not yet visited
func (c *DefaultCrawler) shouldVisit(link string) bool {
	return c.scope.InDomain(link) && !IsResource(link) && !c.ledger.IsVisited(link)
}

func (c *DefaultCrawler) logProgress() {
	stats := c.GetStats()
	slog.Info("Crawling stats",
		"active", stats.ActiveTasks,
		"peak", stats.PeakTasks,
		"visited", c.ledger.VisitedCount(),
		"checked", c.ledger.CheckedCount(),
		"broken", c.ledger.BrokenCount(),
		"duration", stats.Duration)
}
