// Package engine contains the rate governor and the polling orchestrator
// that drive all remote traffic for the tracker.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mufasadb/poe-level-tracker/internal/core"
)

// AccountTracker checks one account for level-ups.
type AccountTracker interface {
	TrackAccount(ctx context.Context, account string, leagues []string) ([]core.LevelUpEvent, error)
}

// AccountSource enumerates the accounts to poll each cycle.
type AccountSource interface {
	ListAccounts(ctx context.Context) ([]string, error)
}

// Notifier receives level-up events. Implementations live outside the core.
type Notifier interface {
	NotifyLevelUp(ctx context.Context, event core.LevelUpEvent) error
}

// Poller iterates tracked accounts on a schedule and relays level-up events
// to the notifier. Cycles run sequentially on one goroutine, so two
// transitions for the same (character, league) pair can never interleave.
type Poller struct {
	Tracker      AccountTracker
	Accounts     AccountSource
	Notifier     Notifier
	Leagues      []string
	Interval     time.Duration
	AccountDelay time.Duration
	Logger       *zap.Logger
}

// NewPoller builds a poller with sane defaults for unset pacing values.
func NewPoller(tracker AccountTracker, accounts AccountSource, notifier Notifier, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		Tracker:      tracker,
		Accounts:     accounts,
		Notifier:     notifier,
		Interval:     5 * time.Minute,
		AccountDelay: 2 * time.Second,
		Logger:       logger,
	}
}

// Run polls until ctx is cancelled. Cancellation stops new cycles; the
// in-flight account fetch finishes rather than aborting mid-call.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	p.Logger.Info("poller started",
		zap.Duration("interval", interval),
		zap.Strings("leagues", p.Leagues))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			p.Logger.Info("poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.RunCycle(ctx)
		}
	}
}

// RunCycle checks every tracked account once. Per-account failures are
// logged and never abort the cycle for the remaining accounts.
func (p *Poller) RunCycle(ctx context.Context) {
	accounts, err := p.Accounts.ListAccounts(ctx)
	if err != nil {
		p.Logger.Error("listing tracked accounts failed", zap.Error(err))
		return
	}
	if len(accounts) == 0 {
		return
	}

	p.Logger.Debug("starting tracking cycle", zap.Int("accounts", len(accounts)))

	total := 0
	for i, account := range accounts {
		if ctx.Err() != nil {
			return
		}

		events, err := p.Tracker.TrackAccount(ctx, account, p.Leagues)
		if err != nil {
			p.logAccountError(account, err)
		}

		for _, event := range events {
			p.notify(ctx, event)
		}
		total += len(events)

		if i < len(accounts)-1 && !p.sleep(ctx, p.accountDelay()) {
			return
		}
	}

	if total > 0 {
		p.Logger.Info("tracking cycle found level-ups", zap.Int("events", total))
	}
}

func (p *Poller) notify(ctx context.Context, event core.LevelUpEvent) {
	p.Logger.Info("level up detected",
		zap.String("account", event.Account),
		zap.String("character", event.Character),
		zap.String("league", event.League),
		zap.Int("old_level", event.OldLevel),
		zap.Int("new_level", event.NewLevel))

	if p.Notifier == nil {
		return
	}
	if err := p.Notifier.NotifyLevelUp(ctx, event); err != nil {
		p.Logger.Error("notification failed",
			zap.String("character", event.Character),
			zap.Error(err))
	}
}

func (p *Poller) logAccountError(account string, err error) {
	kind := core.KindOf(err)
	fields := []zap.Field{
		zap.String("account", account),
		zap.String("kind", string(kind)),
		zap.Error(err),
	}

	switch kind {
	case core.KindPrivateProfile, core.KindAccountNotFound:
		p.Logger.Warn("account is not trackable", fields...)
	case core.KindRateLimited:
		p.Logger.Warn("tracking cycle rate limited", fields...)
	default:
		p.Logger.Error("account check failed", fields...)
	}
}

// sleep waits for the inter-account delay, returning false when ctx was
// cancelled mid-wait.
func (p *Poller) sleep(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return true
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (p *Poller) accountDelay() time.Duration {
	if p.AccountDelay > 0 {
		return p.AccountDelay
	}
	return 2 * time.Second
}
