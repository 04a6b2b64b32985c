package engine

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Policy carries the tunable rate governing thresholds. The remote service's
// enforcement thresholds are undocumented, so none of these are hard-coded
// at call sites.
type Policy struct {
	// MinSpacing is the minimum delay between consecutive requests.
	MinSpacing time.Duration
	// DefaultBackoff applies after a 429 that carries no Retry-After.
	DefaultBackoff time.Duration
	// WarnThreshold is the window utilization ratio that triggers a warning.
	WarnThreshold float64
	// CheckInterval is the poll cadence of WaitUntilReady.
	CheckInterval time.Duration
}

// DefaultPolicy returns the observed-safe defaults for the character API.
func DefaultPolicy() Policy {
	return Policy{
		MinSpacing:     time.Second,
		DefaultBackoff: 60 * time.Second,
		WarnThreshold:  0.8,
		CheckInterval:  time.Second,
	}
}

// Window is the tracked state of one sliding rate limit window.
type Window struct {
	Seconds int
	Hits    int
	Max     int
}

// Governor tracks the remote API's request budget across its overlapping
// sliding windows and gates every outgoing call. All mutation goes through
// the mutex; WaitUntilReady never sleeps while holding it.
type Governor struct {
	Policy Policy
	Clock  func() time.Time
	Logger *zap.Logger

	mu           sync.Mutex
	windows      map[int]Window
	lastRequest  time.Time
	backoffUntil time.Time
}

// NewGovernor builds a governor with the given policy, filling zero policy
// fields from DefaultPolicy.
func NewGovernor(policy Policy, logger *zap.Logger) *Governor {
	defaults := DefaultPolicy()
	if policy.MinSpacing <= 0 {
		policy.MinSpacing = defaults.MinSpacing
	}
	if policy.DefaultBackoff <= 0 {
		policy.DefaultBackoff = defaults.DefaultBackoff
	}
	if policy.WarnThreshold <= 0 || policy.WarnThreshold > 1 {
		policy.WarnThreshold = defaults.WarnThreshold
	}
	if policy.CheckInterval <= 0 {
		policy.CheckInterval = defaults.CheckInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Governor{
		Policy:  policy,
		Logger:  logger,
		windows: make(map[int]Window),
	}
}

// CanProceed reports whether a request may be issued now: the backoff
// deadline has passed, no tracked window is saturated, and the minimum
// inter-request spacing has elapsed.
func (g *Governor) CanProceed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now.Before(g.backoffUntil) {
		return false
	}

	for _, window := range g.windows {
		if window.Max > 0 && window.Hits >= window.Max {
			return false
		}
	}

	if !g.lastRequest.IsZero() && now.Sub(g.lastRequest) < g.Policy.MinSpacing {
		return false
	}

	return true
}

// RecordRequest stamps the last-request time. Callers invoke it immediately
// before issuing a call so failed round trips still count against spacing.
func (g *Governor) RecordRequest() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastRequest = g.now()
}

// ObserveQuotaHeaders replaces the window table from the paired quota
// headers: rules ("hits:windowSeconds:maxHits" tuples) and state
// ("currentHits:windowSeconds:hitsInWindow" tuples), both comma-separated.
// Malformed tuples are skipped individually.
func (g *Governor) ObserveQuotaHeaders(rules, state string) {
	if strings.TrimSpace(rules) == "" || strings.TrimSpace(state) == "" {
		return
	}

	windows := make(map[int]Window)
	for _, part := range strings.Split(state, ",") {
		hits, seconds, ok := parseTuple(part)
		if !ok {
			continue
		}
		windows[seconds] = Window{
			Seconds: seconds,
			Hits:    hits,
			Max:     maxForWindow(rules, seconds),
		}
	}

	g.mu.Lock()
	g.windows = windows
	g.mu.Unlock()

	for _, window := range windows {
		if window.Max <= 0 {
			continue
		}
		ratio := float64(window.Hits) / float64(window.Max)
		if ratio >= g.Policy.WarnThreshold {
			g.Logger.Warn("approaching rate limit window",
				zap.Int("window_seconds", window.Seconds),
				zap.Int("hits", window.Hits),
				zap.Int("max", window.Max))
		}
	}
}

// OnRateLimited sets the backoff deadline after an explicit 429, using the
// default backoff when the server gave no Retry-After.
func (g *Governor) OnRateLimited(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = g.Policy.DefaultBackoff
	}

	g.mu.Lock()
	g.backoffUntil = g.now().Add(retryAfter)
	g.mu.Unlock()

	g.Logger.Warn("rate limited by remote API",
		zap.Duration("backoff", retryAfter))
}

// WaitUntilReady blocks until CanProceed returns true, polling at the
// policy's check interval. It returns early with ctx.Err() on cancellation.
func (g *Governor) WaitUntilReady(ctx context.Context) error {
	if g.CanProceed() {
		return nil
	}

	ticker := time.NewTicker(g.Policy.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if g.CanProceed() {
				return nil
			}
		}
	}
}

// Windows returns a copy of the tracked window table, for display.
func (g *Governor) Windows() []Window {
	g.mu.Lock()
	defer g.mu.Unlock()

	windows := make([]Window, 0, len(g.windows))
	for _, window := range g.windows {
		windows = append(windows, window)
	}
	return windows
}

// BackoffRemaining reports how long the current backoff has left, zero when
// no backoff is active.
func (g *Governor) BackoffRemaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	remaining := g.backoffUntil.Sub(g.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (g *Governor) now() time.Time {
	if g.Clock != nil {
		return g.Clock()
	}
	return time.Now().UTC()
}

// parseTuple decodes the first two fields of a colon-delimited quota tuple.
func parseTuple(value string) (first, second int, ok bool) {
	fields := strings.Split(strings.TrimSpace(value), ":")
	if len(fields) < 2 {
		return 0, 0, false
	}

	first, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, false
	}
	second, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, false
	}

	return first, second, true
}

// maxForWindow extracts the request ceiling for a window from the rules
// header, zero when the window is not described.
func maxForWindow(rules string, seconds int) int {
	for _, part := range strings.Split(rules, ",") {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) < 3 {
			continue
		}
		window, err := strconv.Atoi(fields[1])
		if err != nil || window != seconds {
			continue
		}
		max, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		return max
	}
	return 0
}
