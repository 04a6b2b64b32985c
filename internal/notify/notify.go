// Package notify delivers level-up events to external sinks. The core never
// formats chat text; these adapters sit at the presentation boundary.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/mufasadb/poe-level-tracker/internal/core"
)

// Notifier mirrors the collaborator contract the poller expects.
type Notifier interface {
	NotifyLevelUp(ctx context.Context, event core.LevelUpEvent) error
}

// LogNotifier writes events to the structured log. Used as the always-on
// sink and as the fallback when no webhook is configured.
type LogNotifier struct {
	Logger *zap.Logger
}

// NotifyLevelUp implements Notifier.
func (n *LogNotifier) NotifyLevelUp(ctx context.Context, event core.LevelUpEvent) error {
	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("level up",
		zap.String("event_id", event.EventID),
		zap.String("account", event.Account),
		zap.String("character", event.Character),
		zap.String("class", event.Class),
		zap.String("league", event.League),
		zap.Int("old_level", event.OldLevel),
		zap.Int("new_level", event.NewLevel))
	return nil
}

// Multi fans an event out to several notifiers, returning the first error
// after attempting all of them.
type Multi []Notifier

// NotifyLevelUp implements Notifier.
func (m Multi) NotifyLevelUp(ctx context.Context, event core.LevelUpEvent) error {
	var first error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.NotifyLevelUp(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
