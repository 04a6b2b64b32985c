// Package store persists last-observed character state and the tracked
// account set. Two drivers are available: a flat JSON document rewritten in
// full on every update, and a libsql database for deployments that want a
// transactional store. The detector only sees the Store interface.
package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mufasadb/poe-level-tracker/internal/core"
)

const (
	DriverFile   = "file"
	DriverLibsql = "libsql"
)

// Config selects and configures a store driver.
type Config struct {
	Driver       string `mapstructure:"driver"`
	Path         string `mapstructure:"path"`
	AccountsPath string `mapstructure:"accounts_path"`
	URL          string `mapstructure:"url"`
	AuthToken    string `mapstructure:"auth_token"`
}

// Store is the durable mapping behind the level-up detector.
type Store interface {
	// GetRecord returns the stored record for a (character, league) pair,
	// nil when the pair has never been observed.
	GetRecord(ctx context.Context, character, league string) (*core.StoredRecord, error)
	// PutRecord upserts a record, stamping the current time. The update is
	// durable before PutRecord returns.
	PutRecord(ctx context.Context, character, league string, level int, class string) error
	// AllRecords enumerates every stored record for display.
	AllRecords(ctx context.Context) ([]core.StoredSnapshot, error)

	ListAccounts(ctx context.Context) ([]string, error)
	AddAccount(ctx context.Context, account string) error
	RemoveAccount(ctx context.Context, account string) error

	Close() error
}

// Open initializes the store selected by cfg.Driver.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	driver := strings.TrimSpace(cfg.Driver)
	if driver == "" {
		driver = DriverFile
	}

	switch driver {
	case DriverFile:
		return OpenFileStore(cfg, logger)
	case DriverLibsql:
		return OpenLibsqlStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}
