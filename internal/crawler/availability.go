package crawler

import (
	"context"
	"net/http"
)

// StatusPolicy decides whether a status code means the resource is available
type StatusPolicy func(code int) bool

// SuccessOnly accepts nothing but 200
func SuccessOnly(code int) bool {
	return code == http.StatusOK
}

// RedirectTolerant accepts 200 and the redirect range 300-307
func RedirectTolerant(code int) bool {
	return code == http.StatusOK ||
		(code >= http.StatusMultipleChoices && code <= http.StatusTemporaryRedirect)
}

// Verdict is the outcome of one availability check
type Verdict struct {
	Available  bool
	StatusCode int
	Err        error
}

// Reason describes why a verdict is not available
func (v Verdict) Reason() string {
	switch {
	case v.Err != nil:
		return v.Err.Error()
	case v.Available:
		return ""
	default:
		if text := http.StatusText(v.StatusCode); text != "" {
			return text
		}
		return "unexpected status"
	}
}

// AvailabilityChecker applies a StatusPolicy to the status a Fetcher probes
type AvailabilityChecker struct {
	fetcher Fetcher
	policy  StatusPolicy
}

// NewAvailabilityChecker composes policy over fetcher
func NewAvailabilityChecker(fetcher Fetcher, policy StatusPolicy) *AvailabilityChecker {
	return &AvailabilityChecker{fetcher: fetcher, policy: policy}
}

// Check probes url once. A transport failure is simply not available.
func (a *AvailabilityChecker) Check(ctx context.Context, url string) Verdict {
	code, err := a.fetcher.Probe(ctx, url)
	if err != nil {
		return Verdict{Err: err}
	}
	return Verdict{Available: a.policy(code), StatusCode: code}
}

// IsAvailable reports whether url passes the policy
func (a *AvailabilityChecker) IsAvailable(ctx context.Context, url string) bool {
	return a.Check(ctx, url).Available
}
