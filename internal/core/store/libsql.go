package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/mufasadb/poe-level-tracker/internal/core"
)

// LibsqlStore keeps snapshots and accounts in a libsql database, local or
// remote. Suited to deployments where several tools share the tracker state.
type LibsqlStore struct {
	DB *sql.DB
}

// OpenLibsqlStore connects, pings, and migrates the schema.
func OpenLibsqlStore(ctx context.Context, cfg Config) (*LibsqlStore, error) {
	dsn, err := buildLibsqlDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open libsql store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping libsql store: %w", err)
	}

	s := &LibsqlStore{DB: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *LibsqlStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS characters (
			name TEXT NOT NULL,
			league TEXT NOT NULL,
			level INTEGER NOT NULL,
			class TEXT NOT NULL,
			last_updated INTEGER NOT NULL,
			PRIMARY KEY (name, league)
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			account TEXT PRIMARY KEY,
			added_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate store: %w", err)
		}
	}
	return nil
}

// GetRecord implements Store.
func (s *LibsqlStore) GetRecord(ctx context.Context, character, league string) (*core.StoredRecord, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	var (
		level       int
		class       string
		lastUpdated int64
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT level, class, last_updated
		FROM characters
		WHERE name = ? AND league = ?
	`, character, league)

	if err := row.Scan(&level, &class, &lastUpdated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, core.NewRemoteError(core.KindStorageRead, "", err)
	}

	return &core.StoredRecord{
		Level:       level,
		Class:       class,
		LastUpdated: time.Unix(lastUpdated, 0).UTC(),
	}, nil
}

// PutRecord implements Store.
func (s *LibsqlStore) PutRecord(ctx context.Context, character, league string, level int, class string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO characters (name, league, level, class, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name, league) DO UPDATE SET
			level = excluded.level,
			class = excluded.class,
			last_updated = excluded.last_updated
	`, character, league, level, class, time.Now().UTC().Unix())
	if err != nil {
		return core.NewRemoteError(core.KindStorageWrite, "", err)
	}
	return nil
}

// AllRecords implements Store.
func (s *LibsqlStore) AllRecords(ctx context.Context) ([]core.StoredSnapshot, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT name, league, level, class, last_updated
		FROM characters
		ORDER BY name, league
	`)
	if err != nil {
		return nil, core.NewRemoteError(core.KindStorageRead, "", err)
	}
	defer rows.Close() // nolint:errcheck // read-only cursor cleanup

	var snapshots []core.StoredSnapshot
	for rows.Next() {
		var (
			snapshot    core.StoredSnapshot
			lastUpdated int64
		)
		if err := rows.Scan(&snapshot.Character, &snapshot.League, &snapshot.Record.Level, &snapshot.Record.Class, &lastUpdated); err != nil {
			return nil, core.NewRemoteError(core.KindStorageRead, "", err)
		}
		snapshot.Record.LastUpdated = time.Unix(lastUpdated, 0).UTC()
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, core.NewRemoteError(core.KindStorageRead, "", err)
	}
	return snapshots, nil
}

// ListAccounts implements Store.
func (s *LibsqlStore) ListAccounts(ctx context.Context) ([]string, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT account FROM accounts ORDER BY account`)
	if err != nil {
		return nil, core.NewRemoteError(core.KindStorageRead, "", err)
	}
	defer rows.Close() // nolint:errcheck // read-only cursor cleanup

	var accounts []string
	for rows.Next() {
		var account string
		if err := rows.Scan(&account); err != nil {
			return nil, core.NewRemoteError(core.KindStorageRead, "", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, core.NewRemoteError(core.KindStorageRead, "", err)
	}
	return accounts, nil
}

// AddAccount implements Store.
func (s *LibsqlStore) AddAccount(ctx context.Context, account string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if err := core.ValidateAccount(account); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO accounts (account, added_at) VALUES (?, ?)
		ON CONFLICT(account) DO NOTHING
	`, account, time.Now().UTC().Unix())
	if err != nil {
		return core.NewRemoteError(core.KindStorageWrite, account, err)
	}
	return nil
}

// RemoveAccount implements Store.
func (s *LibsqlStore) RemoveAccount(ctx context.Context, account string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	_, err := s.DB.ExecContext(ctx, `DELETE FROM accounts WHERE account = ?`, account)
	if err != nil {
		return core.NewRemoteError(core.KindStorageWrite, account, err)
	}
	return nil
}

// Close implements Store.
func (s *LibsqlStore) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func buildLibsqlDSN(cfg Config) (string, error) {
	if dsn := strings.TrimSpace(cfg.URL); dsn != "" {
		return addAuthToken(dsn, cfg.AuthToken)
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return "", errors.New("store path or url is required")
	}

	if path == ":memory:" {
		return path, nil
	}

	if strings.HasPrefix(path, "file:") || strings.HasPrefix(path, "libsql:") {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create store directory: %w", err)
	}
	return "file:" + filepath.Clean(path), nil
}

func addAuthToken(dsn, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return dsn, nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid store url: %w", err)
	}

	query := parsed.Query()
	query.Set("authToken", token)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
