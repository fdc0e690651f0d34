package crawler

import (
	"sort"
	"sync"
)

// Ledger is the shared deduplication state of one crawl: pages visited,
// links checked, and broken links with the first page that referenced them.
// Every mutation is a single claim-or-skip step under the owning lock; no lock
// is held by callers or across network calls. Readers during a running crawl
// may see a partial, growing state.
type Ledger struct {
	visitedMu sync.Mutex
	visited   map[string]struct{}

	checkedMu sync.Mutex
	checked   map[string]struct{}

	brokenMu sync.Mutex
	broken   map[string]BrokenLink
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	l := &Ledger{}
	l.Reset()
	return l
}

// Reset empties the ledger for a new run
func (l *Ledger) Reset() {
	l.visitedMu.Lock()
	l.visited = make(map[string]struct{})
	l.visitedMu.Unlock()

	l.checkedMu.Lock()
	l.checked = make(map[string]struct{})
	l.checkedMu.Unlock()

	l.brokenMu.Lock()
	l.broken = make(map[string]BrokenLink)
	l.brokenMu.Unlock()
}

// TryMarkVisited returns true only for the call that adds url to the visited set
func (l *Ledger) TryMarkVisited(url string) bool {
	l.visitedMu.Lock()
	defer l.visitedMu.Unlock()
	return claim(l.visited, url)
}

// TryMarkChecked returns true only for the call that adds url to the checked set
func (l *Ledger) TryMarkChecked(url string) bool {
	l.checkedMu.Lock()
	defer l.checkedMu.Unlock()
	return claim(l.checked, url)
}

// RecordBrokenIfAbsent stores link unless its URL is already recorded.
// It returns true when link was stored.
func (l *Ledger) RecordBrokenIfAbsent(link BrokenLink) bool {
	l.brokenMu.Lock()
	defer l.brokenMu.Unlock()
	if _, exists := l.broken[link.URL]; exists {
		return false
	}
	l.broken[link.URL] = link
	return true
}

// IsVisited reports whether url has been claimed for a visit
func (l *Ledger) IsVisited(url string) bool {
	l.visitedMu.Lock()
	defer l.visitedMu.Unlock()
	_, ok := l.visited[url]
	return ok
}

// VisitedCount returns the number of visited pages
func (l *Ledger) VisitedCount() int {
	l.visitedMu.Lock()
	defer l.visitedMu.Unlock()
	return len(l.visited)
}

// CheckedCount returns the number of probed links
func (l *Ledger) CheckedCount() int {
	l.checkedMu.Lock()
	defer l.checkedMu.Unlock()
	return len(l.checked)
}

// BrokenCount returns the number of broken links
func (l *Ledger) BrokenCount() int {
	l.brokenMu.Lock()
	defer l.brokenMu.Unlock()
	return len(l.broken)
}

// Visited returns the visited pages, sorted
func (l *Ledger) Visited() []string {
	l.visitedMu.Lock()
	defer l.visitedMu.Unlock()
	return sortedKeys(l.visited)
}

// Checked returns the probed links, sorted
func (l *Ledger) Checked() []string {
	l.checkedMu.Lock()
	defer l.checkedMu.Unlock()
	return sortedKeys(l.checked)
}

// Broken returns the broken links sorted by URL
func (l *Ledger) Broken() []BrokenLink {
	l.brokenMu.Lock()
	links := make([]BrokenLink, 0, len(l.broken))
	for _, link := range l.broken {
		links = append(links, link)
	}
	l.brokenMu.Unlock()

	sort.Slice(links, func(i, j int) bool { return links[i].URL < links[j].URL })
	return links
}

func claim(set map[string]struct{}, url string) bool {
	if _, exists := set[url]; exists {
		return false
	}
	set[url] = struct{}{}
	return true
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
