// Package tracker diffs fresh character snapshots against the snapshot
// store and decides which changes are notification-worthy level-ups.
package tracker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mufasadb/poe-level-tracker/internal/core"
)

// Source fetches a point-in-time snapshot of all characters on an account.
type Source interface {
	FetchCharacters(ctx context.Context, account string, realm core.Realm) ([]core.CharacterSnapshot, error)
}

// SnapshotStore is the subset of the store the detector needs.
type SnapshotStore interface {
	GetRecord(ctx context.Context, character, league string) (*core.StoredRecord, error)
	PutRecord(ctx context.Context, character, league string, level int, class string) error
}

// Tracker applies the per-(character, league) transition rule: first
// observation is a baseline, a level increase is a level-up, a decrease is a
// silent update, and an unchanged level leaves the store untouched.
type Tracker struct {
	Source Source
	Store  SnapshotStore
	Realm  core.Realm
	Logger *zap.Logger
	Clock  func() time.Time
}

// New builds a tracker over a source and a store.
func New(source Source, store SnapshotStore, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		Source: source,
		Store:  store,
		Realm:  core.RealmPC,
		Logger: logger,
	}
}

// CheckLevelUp applies the transition rule for one snapshot and reports
// whether it constitutes a level-up. The store is already updated when it
// returns true.
func (t *Tracker) CheckLevelUp(ctx context.Context, snapshot core.CharacterSnapshot) (bool, error) {
	stored, err := t.Store.GetRecord(ctx, snapshot.Name, snapshot.League)
	if err != nil {
		return false, err
	}

	switch {
	case stored == nil:
		// Baseline observation, never a level-up.
		t.Logger.Info("tracking new character",
			zap.String("character", snapshot.Name),
			zap.String("league", snapshot.League),
			zap.Int("level", snapshot.Level))
		return false, t.Store.PutRecord(ctx, snapshot.Name, snapshot.League, snapshot.Level, snapshot.Class)
	case snapshot.Level > stored.Level:
		return true, t.Store.PutRecord(ctx, snapshot.Name, snapshot.League, snapshot.Level, snapshot.Class)
	case snapshot.Level != stored.Level:
		// League reset or recreated character. Update silently.
		t.Logger.Info("character level decreased",
			zap.String("character", snapshot.Name),
			zap.String("league", snapshot.League),
			zap.Int("stored", stored.Level),
			zap.Int("observed", snapshot.Level))
		return false, t.Store.PutRecord(ctx, snapshot.Name, snapshot.League, snapshot.Level, snapshot.Class)
	default:
		return false, nil
	}
}

// TrackAccount fetches all characters for an account, applies the transition
// rule to each, and returns level-up events in remote order. A fetch failure
// yields an empty event list and the classified error. Storage write
// failures are logged and do not suppress the event: the in-memory state is
// already updated and the next successful flush reconciles the file.
func (t *Tracker) TrackAccount(ctx context.Context, account string, leagues []string) ([]core.LevelUpEvent, error) {
	characters, err := t.Source.FetchCharacters(ctx, account, t.realm())
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]struct{}, len(leagues))
	for _, league := range leagues {
		allowed[league] = struct{}{}
	}

	var events []core.LevelUpEvent
	for _, character := range characters {
		if len(allowed) > 0 {
			if _, ok := allowed[character.League]; !ok {
				continue
			}
		}

		// Capture the previous level before the transition mutates the store.
		oldLevel := 0
		if stored, err := t.Store.GetRecord(ctx, character.Name, character.League); err == nil && stored != nil {
			oldLevel = stored.Level
		}

		leveledUp, err := t.CheckLevelUp(ctx, character)
		if err != nil {
			if core.KindOf(err) == core.KindStorageWrite {
				t.Logger.Warn("snapshot flush failed, state kept in memory",
					zap.String("character", character.Name),
					zap.Error(err))
			} else {
				t.Logger.Error("level check failed",
					zap.String("character", character.Name),
					zap.Error(err))
				continue
			}
		}

		if leveledUp {
			events = append(events, core.LevelUpEvent{
				EventID:    uuid.New().String(),
				Account:    account,
				Character:  character.Name,
				Class:      character.Class,
				League:     character.League,
				Realm:      character.Realm,
				OldLevel:   oldLevel,
				NewLevel:   character.Level,
				ObservedAt: t.now(),
			})
		}
	}

	return events, nil
}

// Probe checks whether an account is reachable, returning its characters.
// Used by the account management surfaces before tracking begins.
func (t *Tracker) Probe(ctx context.Context, account string) ([]core.CharacterSnapshot, error) {
	if err := core.ValidateAccount(account); err != nil {
		return nil, err
	}
	return t.Source.FetchCharacters(ctx, account, t.realm())
}

func (t *Tracker) realm() core.Realm {
	if t.Realm != "" {
		return t.Realm
	}
	return core.RealmPC
}

func (t *Tracker) now() time.Time {
	if t.Clock != nil {
		return t.Clock()
	}
	return time.Now().UTC()
}
