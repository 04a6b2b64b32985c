package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mufasadb/poe-level-tracker/internal/core"
)

// fileRecord is the on-disk shape of one stored observation. The document is
// keyed by character name, then league.
type fileRecord struct {
	Level       int       `json:"level"`
	Class       string    `json:"class"`
	LastUpdated time.Time `json:"last_updated"`
}

type accountsDocument struct {
	Accounts []string `json:"accounts"`
}

// FileStore keeps state in memory and rewrites a flat JSON document on every
// update. A flush failure never rolls back the in-memory state; the next
// successful flush reconciles the file.
type FileStore struct {
	Clock func() time.Time

	mu           sync.Mutex
	path         string
	accountsPath string
	logger       *zap.Logger
	records      map[string]map[string]fileRecord
	accounts     []string
}

// OpenFileStore loads prior durable state. A missing or corrupt file
// degrades to an empty store; corruption is logged for the operator.
func OpenFileStore(cfg Config, logger *zap.Logger) (*FileStore, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("store path is required")
	}
	accountsPath := strings.TrimSpace(cfg.AccountsPath)
	if accountsPath == "" {
		accountsPath = filepath.Join(filepath.Dir(path), "tracked_accounts.json")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &FileStore{
		path:         path,
		accountsPath: accountsPath,
		logger:       logger,
		records:      make(map[string]map[string]fileRecord),
	}

	s.loadRecords()
	s.loadAccounts()

	return s, nil
}

// GetRecord implements Store.
func (s *FileStore) GetRecord(ctx context.Context, character, league string) (*core.StoredRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	leagues, ok := s.records[character]
	if !ok {
		return nil, nil
	}
	record, ok := leagues[league]
	if !ok {
		return nil, nil
	}

	return &core.StoredRecord{
		Level:       record.Level,
		Class:       record.Class,
		LastUpdated: record.LastUpdated,
	}, nil
}

// PutRecord implements Store. The in-memory map is updated before the flush
// so one failed write cannot lose newer state.
func (s *FileStore) PutRecord(ctx context.Context, character, league string, level int, class string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[character] == nil {
		s.records[character] = make(map[string]fileRecord)
	}
	s.records[character][league] = fileRecord{
		Level:       level,
		Class:       class,
		LastUpdated: s.now(),
	}

	if err := s.flushRecords(); err != nil {
		return core.NewRemoteError(core.KindStorageWrite, "", err)
	}
	return nil
}

// AllRecords implements Store, sorted by character then league for stable
// display output.
func (s *FileStore) AllRecords(ctx context.Context) ([]core.StoredSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshots := make([]core.StoredSnapshot, 0, len(s.records))
	for character, leagues := range s.records {
		for league, record := range leagues {
			snapshots = append(snapshots, core.StoredSnapshot{
				Character: character,
				League:    league,
				Record: core.StoredRecord{
					Level:       record.Level,
					Class:       record.Class,
					LastUpdated: record.LastUpdated,
				},
			})
		}
	}

	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].Character != snapshots[j].Character {
			return snapshots[i].Character < snapshots[j].Character
		}
		return snapshots[i].League < snapshots[j].League
	})

	return snapshots, nil
}

// ListAccounts implements Store.
func (s *FileStore) ListAccounts(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make([]string, len(s.accounts))
	copy(accounts, s.accounts)
	return accounts, nil
}

// AddAccount implements Store. Adding an already-tracked account is a no-op.
func (s *FileStore) AddAccount(ctx context.Context, account string) error {
	if err := core.ValidateAccount(account); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing == account {
			return nil
		}
	}
	s.accounts = append(s.accounts, account)
	sort.Strings(s.accounts)

	if err := s.flushAccounts(); err != nil {
		return core.NewRemoteError(core.KindStorageWrite, account, err)
	}
	return nil
}

// RemoveAccount implements Store.
func (s *FileStore) RemoveAccount(ctx context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.accounts[:0]
	for _, existing := range s.accounts {
		if existing != account {
			kept = append(kept, existing)
		}
	}
	s.accounts = kept

	if err := s.flushAccounts(); err != nil {
		return core.NewRemoteError(core.KindStorageWrite, account, err)
	}
	return nil
}

// Close implements Store. File state is flushed on every mutation, so there
// is nothing left to release.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) loadRecords() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("snapshot file unreadable, starting empty",
				zap.String("path", s.path), zap.Error(err))
		}
		return
	}

	var records map[string]map[string]fileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("snapshot file corrupt, starting empty",
			zap.String("path", s.path), zap.Error(err))
		return
	}
	if records != nil {
		s.records = records
	}
}

func (s *FileStore) loadAccounts() {
	data, err := os.ReadFile(s.accountsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("accounts file unreadable, starting empty",
				zap.String("path", s.accountsPath), zap.Error(err))
		}
		return
	}

	var doc accountsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("accounts file corrupt, starting empty",
			zap.String("path", s.accountsPath), zap.Error(err))
		return
	}
	s.accounts = doc.Accounts
	sort.Strings(s.accounts)
}

func (s *FileStore) flushRecords() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return err
	}
	return writeDurable(s.path, data)
}

func (s *FileStore) flushAccounts() error {
	data, err := json.MarshalIndent(accountsDocument{Accounts: s.accounts}, "", "  ")
	if err != nil {
		return err
	}
	return writeDurable(s.accountsPath, data)
}

func (s *FileStore) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

// writeDurable writes via a temp file, syncs, and renames so a crash mid
// write never leaves a truncated document behind.
func writeDurable(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
