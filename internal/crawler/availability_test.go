package crawler

import (
	"context"
	"errors"
	"testing"
)

func TestStatusPolicies(t *testing.T) {
	tests := []struct {
		code             int
		successOnly      bool
		redirectTolerant bool
	}{
		{200, true, true},
		{201, false, false},
		{204, false, false},
		{299, false, false},
		{300, false, true},
		{301, false, true},
		{302, false, true},
		{304, false, true},
		{307, false, true},
		{308, false, false},
		{100, false, false},
		{404, false, false},
		{500, false, false},
		{0, false, false},
	}

	for _, tt := range tests {
		if got := SuccessOnly(tt.code); got != tt.successOnly {
			t.Errorf("SuccessOnly(%d) = %v, want %v", tt.code, got, tt.successOnly)
		}
		if got := RedirectTolerant(tt.code); got != tt.redirectTolerant {
			t.Errorf("RedirectTolerant(%d) = %v, want %v", tt.code, got, tt.redirectTolerant)
		}
	}
}

func TestAvailabilityChecker(t *testing.T) {
	site := newFakeSite(map[string]fakePage{
		"http://x.com/ok":    {status: 200},
		"http://x.com/moved": {status: 301},
		"http://x.com/down":  {err: errors.New("connection refused")},
	})
	ctx := context.Background()

	strict := NewAvailabilityChecker(site, SuccessOnly)
	tolerant := NewAvailabilityChecker(site, RedirectTolerant)

	if !strict.IsAvailable(ctx, "http://x.com/ok") {
		t.Error("200 should be available")
	}
	if strict.IsAvailable(ctx, "http://x.com/moved") {
		t.Error("301 should not pass the success-only policy")
	}
	if !tolerant.IsAvailable(ctx, "http://x.com/moved") {
		t.Error("301 should pass the redirect tolerant policy")
	}

	missing := tolerant.Check(ctx, "http://x.com/missing")
	if missing.Available || missing.StatusCode != 404 || missing.Reason() != "Not Found" {
		t.Errorf("unexpected verdict for 404: %+v reason=%q", missing, missing.Reason())
	}

	down := tolerant.Check(ctx, "http://x.com/down")
	if down.Available || down.StatusCode != 0 || down.Reason() != "connection refused" {
		t.Errorf("unexpected verdict for transport failure: %+v reason=%q", down, down.Reason())
	}

	if reason := (Verdict{StatusCode: 599}).Reason(); reason != "unexpected status" {
		t.Errorf("Reason() for unknown code = %q", reason)
	}
	if reason := (Verdict{Available: true, StatusCode: 200}).Reason(); reason != "" {
		t.Errorf("Reason() for available = %q, want empty", reason)
	}
}
