package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTempFileStore(t *testing.T) (*FileStore, Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		Driver:       DriverFile,
		Path:         filepath.Join(dir, "tracked_characters.json"),
		AccountsPath: filepath.Join(dir, "tracked_accounts.json"),
	}

	s, err := OpenFileStore(cfg, nil)
	require.NoError(t, err)
	return s, cfg
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, cfg := newTempFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutRecord(ctx, "Foo", "Standard", 50, "Witch"))

	// A fresh store over the same file sees the durable state.
	reopened, err := OpenFileStore(cfg, nil)
	require.NoError(t, err)

	record, err := reopened.GetRecord(ctx, "Foo", "Standard")
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, 50, record.Level)
	require.Equal(t, "Witch", record.Class)
	require.False(t, record.LastUpdated.IsZero())
}

func TestFileStoreGetUnknownPair(t *testing.T) {
	s, _ := newTempFileStore(t)

	record, err := s.GetRecord(context.Background(), "Nobody", "Standard")
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestFileStoreUpsertKeepsOneRecordPerPair(t *testing.T) {
	s, _ := newTempFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutRecord(ctx, "Foo", "Standard", 50, "Witch"))
	require.NoError(t, s.PutRecord(ctx, "Foo", "Standard", 55, "Witch"))
	require.NoError(t, s.PutRecord(ctx, "Foo", "Hardcore", 10, "Witch"))

	snapshots, err := s.AllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	// Sorted by character then league.
	require.Equal(t, "Hardcore", snapshots[0].League)
	require.Equal(t, 10, snapshots[0].Record.Level)
	require.Equal(t, "Standard", snapshots[1].League)
	require.Equal(t, 55, snapshots[1].Record.Level)
}

func TestFileStoreCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracked_characters.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := OpenFileStore(Config{Path: path}, nil)
	require.NoError(t, err)

	snapshots, err := s.AllRecords(context.Background())
	require.NoError(t, err)
	require.Empty(t, snapshots)

	// The store recovers by rewriting the file on the next put.
	require.NoError(t, s.PutRecord(context.Background(), "Foo", "Standard", 50, "Witch"))
	reopened, err := OpenFileStore(Config{Path: path}, nil)
	require.NoError(t, err)
	record, err := reopened.GetRecord(context.Background(), "Foo", "Standard")
	require.NoError(t, err)
	require.Equal(t, 50, record.Level)
}

func TestFileStoreMissingFileStartsEmpty(t *testing.T) {
	s, err := OpenFileStore(Config{Path: filepath.Join(t.TempDir(), "nope", "data.json")}, nil)
	require.NoError(t, err)

	snapshots, err := s.AllRecords(context.Background())
	require.NoError(t, err)
	require.Empty(t, snapshots)
}

func TestFileStoreAccounts(t *testing.T) {
	s, cfg := newTempFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddAccount(ctx, "Tester#1234"))
	require.NoError(t, s.AddAccount(ctx, "Another#5678"))
	// Duplicate adds are no-ops.
	require.NoError(t, s.AddAccount(ctx, "Tester#1234"))

	accounts, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Another#5678", "Tester#1234"}, accounts)

	require.NoError(t, s.RemoveAccount(ctx, "Another#5678"))

	reopened, err := OpenFileStore(cfg, nil)
	require.NoError(t, err)
	accounts, err = reopened.ListAccounts(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Tester#1234"}, accounts)
}

func TestFileStoreRejectsInvalidAccount(t *testing.T) {
	s, _ := newTempFileStore(t)

	require.Error(t, s.AddAccount(context.Background(), "missing-discriminator"))
}

func TestOpenSelectsDriver(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(context.Background(), Config{
		Driver: DriverFile,
		Path:   filepath.Join(dir, "data.json"),
	}, nil)
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)

	_, err = Open(context.Background(), Config{Driver: "bolt"}, nil)
	require.Error(t, err)
}
