package crawler

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
)

func TestLedgerClaimsAreExclusive(t *testing.T) {
	ledger := NewLedger()

	const goroutines = 64
	var visitWins, checkWins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ledger.TryMarkVisited("http://x.com/shared.html") {
				visitWins.Add(1)
			}
			if ledger.TryMarkChecked("http://x.com/shared.html") {
				checkWins.Add(1)
			}
		}()
	}
	wg.Wait()

	if visitWins.Load() != 1 {
		t.Errorf("TryMarkVisited winners = %d, want 1", visitWins.Load())
	}
	if checkWins.Load() != 1 {
		t.Errorf("TryMarkChecked winners = %d, want 1", checkWins.Load())
	}
	if !ledger.IsVisited("http://x.com/shared.html") {
		t.Error("expected URL to be visited")
	}
	if ledger.IsVisited("http://x.com/other.html") {
		t.Error("unexpected visited URL")
	}
}

func TestLedgerRecordBrokenFirstWriterWins(t *testing.T) {
	ledger := NewLedger()

	if !ledger.RecordBrokenIfAbsent(BrokenLink{URL: "http://y.com/dead", Referrer: "http://x.com/a", StatusCode: 404}) {
		t.Fatal("first record should be inserted")
	}
	if ledger.RecordBrokenIfAbsent(BrokenLink{URL: "http://y.com/dead", Referrer: "http://x.com/b", StatusCode: 500}) {
		t.Fatal("second record should be ignored")
	}

	broken := ledger.Broken()
	if len(broken) != 1 {
		t.Fatalf("expected 1 broken link, got %d", len(broken))
	}
	if broken[0].Referrer != "http://x.com/a" || broken[0].StatusCode != 404 {
		t.Errorf("expected first writer to be kept, got %+v", broken[0])
	}
}

func TestLedgerConcurrentBrokenRecording(t *testing.T) {
	ledger := NewLedger()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			referrer := fmt.Sprintf("http://x.com/page%d", i)
			if ledger.RecordBrokenIfAbsent(BrokenLink{URL: "http://y.com/dead", Referrer: referrer}) {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 || ledger.BrokenCount() != 1 {
		t.Errorf("wins = %d, broken = %d; want 1 and 1", wins.Load(), ledger.BrokenCount())
	}
}

func TestLedgerSnapshotsAndReset(t *testing.T) {
	ledger := NewLedger()
	for _, u := range []string{"http://x.com/c", "http://x.com/a", "http://x.com/b"} {
		ledger.TryMarkVisited(u)
		ledger.TryMarkChecked(u)
	}
	ledger.TryMarkChecked("http://y.com/")
	ledger.RecordBrokenIfAbsent(BrokenLink{URL: "http://x.com/z", Referrer: "http://x.com/a"})
	ledger.RecordBrokenIfAbsent(BrokenLink{URL: "http://x.com/m", Referrer: "http://x.com/a"})

	if got, want := ledger.Visited(), []string{"http://x.com/a", "http://x.com/b", "http://x.com/c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Visited() = %v, want %v", got, want)
	}
	if ledger.VisitedCount() != 3 || ledger.CheckedCount() != 4 || ledger.BrokenCount() != 2 {
		t.Errorf("counts = %d/%d/%d, want 3/4/2", ledger.VisitedCount(), ledger.CheckedCount(), ledger.BrokenCount())
	}
	if broken := ledger.Broken(); broken[0].URL != "http://x.com/m" || broken[1].URL != "http://x.com/z" {
		t.Errorf("Broken() not sorted: %+v", broken)
	}
	if checked := ledger.Checked(); len(checked) != 4 || checked[3] != "http://y.com/" {
		t.Errorf("Checked() = %v", checked)
	}

	ledger.Reset()
	if ledger.VisitedCount()+ledger.CheckedCount()+ledger.BrokenCount() != 0 {
		t.Error("Reset() should empty the ledger")
	}
	if !ledger.TryMarkVisited("http://x.com/a") {
		t.Error("claims should succeed again after Reset()")
	}
}
