package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Realm identifies the platform a character plays on.
type Realm string

const (
	RealmPC   Realm = "pc"
	RealmXbox Realm = "xbox"
	RealmSony Realm = "sony"
)

// ParseRealm validates a realm string, defaulting empty input to pc.
func ParseRealm(value string) (Realm, error) {
	switch Realm(strings.ToLower(strings.TrimSpace(value))) {
	case "":
		return RealmPC, nil
	case RealmPC:
		return RealmPC, nil
	case RealmXbox:
		return RealmXbox, nil
	case RealmSony:
		return RealmSony, nil
	default:
		return "", fmt.Errorf("unknown realm: %q", value)
	}
}

// ValidateAccount checks the name#discriminator account format used by the
// character API. Equality between accounts is exact string match.
func ValidateAccount(account string) error {
	value := strings.TrimSpace(account)
	if value == "" {
		return errors.New("account name is required")
	}

	name, discriminator, found := strings.Cut(value, "#")
	if !found {
		return fmt.Errorf("account %q must include a discriminator (Name#1234)", account)
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(discriminator) == "" {
		return fmt.Errorf("account %q has an empty name or discriminator", account)
	}

	return nil
}

// CharacterSnapshot is a point-in-time read of one character. Instances are
// immutable; every poll produces fresh values.
type CharacterSnapshot struct {
	Name   string `json:"name"`
	Realm  Realm  `json:"realm"`
	Class  string `json:"class"`
	League string `json:"league"`
	Level  int    `json:"level"`
}

// StoredRecord is the last observed state for a (character, league) pair.
type StoredRecord struct {
	Level       int       `json:"level"`
	Class       string    `json:"class"`
	LastUpdated time.Time `json:"last_updated"`
}

// StoredSnapshot pairs a stored record with its key, for enumeration.
type StoredSnapshot struct {
	Character string       `json:"character"`
	League    string       `json:"league"`
	Record    StoredRecord `json:"record"`
}

// LevelUpEvent reports a detected level increase for a tracked character.
type LevelUpEvent struct {
	EventID    string    `json:"event_id"`
	Account    string    `json:"account"`
	Character  string    `json:"character"`
	Class      string    `json:"class"`
	League     string    `json:"league"`
	Realm      Realm     `json:"realm"`
	OldLevel   int       `json:"old_level"`
	NewLevel   int       `json:"new_level"`
	ObservedAt time.Time `json:"observed_at"`
}
