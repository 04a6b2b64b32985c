package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mufasadb/poe-level-tracker/internal/core"
)

type stubSource struct {
	characters []core.CharacterSnapshot
	err        error
	calls      int
}

func (s *stubSource) FetchCharacters(ctx context.Context, account string, realm core.Realm) ([]core.CharacterSnapshot, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.characters, nil
}

type memoryStore struct {
	records map[string]core.StoredRecord
	putErr  error
	puts    int
}

func key(character, league string) string {
	return character + "|" + league
}

func (m *memoryStore) GetRecord(ctx context.Context, character, league string) (*core.StoredRecord, error) {
	if m.records == nil {
		return nil, nil
	}
	if record, ok := m.records[key(character, league)]; ok {
		copied := record
		return &copied, nil
	}
	return nil, nil
}

func (m *memoryStore) PutRecord(ctx context.Context, character, league string, level int, class string) error {
	if m.records == nil {
		m.records = make(map[string]core.StoredRecord)
	}
	m.puts++
	m.records[key(character, league)] = core.StoredRecord{
		Level:       level,
		Class:       class,
		LastUpdated: time.Now().UTC(),
	}
	return m.putErr
}

func snapshot(name, league string, level int) core.CharacterSnapshot {
	return core.CharacterSnapshot{
		Name:   name,
		Realm:  core.RealmPC,
		Class:  "Witch",
		League: league,
		Level:  level,
	}
}

func TestFirstObservationIsBaseline(t *testing.T) {
	store := &memoryStore{}
	tr := New(&stubSource{}, store, nil)

	leveledUp, err := tr.CheckLevelUp(context.Background(), snapshot("Foo", "Standard", 50))
	require.NoError(t, err)
	require.False(t, leveledUp)

	stored, err := store.GetRecord(context.Background(), "Foo", "Standard")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, 50, stored.Level)
	require.Equal(t, "Witch", stored.Class)
}

func TestLevelIncreaseIsLevelUp(t *testing.T) {
	store := &memoryStore{}
	tr := New(&stubSource{}, store, nil)

	_, err := tr.CheckLevelUp(context.Background(), snapshot("Foo", "Standard", 50))
	require.NoError(t, err)

	leveledUp, err := tr.CheckLevelUp(context.Background(), snapshot("Foo", "Standard", 55))
	require.NoError(t, err)
	require.True(t, leveledUp)

	stored, _ := store.GetRecord(context.Background(), "Foo", "Standard")
	require.Equal(t, 55, stored.Level)
}

func TestUnchangedLevelDoesNotMutateStore(t *testing.T) {
	store := &memoryStore{}
	tr := New(&stubSource{}, store, nil)

	_, err := tr.CheckLevelUp(context.Background(), snapshot("Foo", "Standard", 55))
	require.NoError(t, err)
	putsAfterBaseline := store.puts

	leveledUp, err := tr.CheckLevelUp(context.Background(), snapshot("Foo", "Standard", 55))
	require.NoError(t, err)
	require.False(t, leveledUp)
	require.Equal(t, putsAfterBaseline, store.puts)
}

func TestLevelDecreaseIsSilentUpdate(t *testing.T) {
	store := &memoryStore{}
	tr := New(&stubSource{}, store, nil)

	_, err := tr.CheckLevelUp(context.Background(), snapshot("Foo", "Standard", 55))
	require.NoError(t, err)

	leveledUp, err := tr.CheckLevelUp(context.Background(), snapshot("Foo", "Standard", 12))
	require.NoError(t, err)
	require.False(t, leveledUp)

	stored, _ := store.GetRecord(context.Background(), "Foo", "Standard")
	require.Equal(t, 12, stored.Level)
}

func TestSameNameDifferentLeaguesAreIndependent(t *testing.T) {
	store := &memoryStore{}
	tr := New(&stubSource{}, store, nil)

	_, err := tr.CheckLevelUp(context.Background(), snapshot("Foo", "Standard", 90))
	require.NoError(t, err)

	leveledUp, err := tr.CheckLevelUp(context.Background(), snapshot("Foo", "Hardcore", 10))
	require.NoError(t, err)
	require.False(t, leveledUp)

	stored, _ := store.GetRecord(context.Background(), "Foo", "Standard")
	require.Equal(t, 90, stored.Level)
}

func TestTrackAccountReportsEventsInRemoteOrder(t *testing.T) {
	store := &memoryStore{}
	source := &stubSource{characters: []core.CharacterSnapshot{
		snapshot("Alpha", "Standard", 10),
		snapshot("Beta", "Standard", 20),
	}}
	tr := New(source, store, nil)

	events, err := tr.TrackAccount(context.Background(), "Tester#1234", nil)
	require.NoError(t, err)
	require.Empty(t, events)

	source.characters = []core.CharacterSnapshot{
		snapshot("Alpha", "Standard", 12),
		snapshot("Beta", "Standard", 25),
	}

	events, err = tr.TrackAccount(context.Background(), "Tester#1234", nil)
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.Equal(t, "Alpha", events[0].Character)
	require.Equal(t, 10, events[0].OldLevel)
	require.Equal(t, 12, events[0].NewLevel)
	require.Equal(t, "Beta", events[1].Character)
	require.Equal(t, 20, events[1].OldLevel)
	require.Equal(t, 25, events[1].NewLevel)
	require.Equal(t, "Tester#1234", events[0].Account)
	require.NotEmpty(t, events[0].EventID)
}

func TestTrackAccountLeagueFilter(t *testing.T) {
	store := &memoryStore{}
	source := &stubSource{characters: []core.CharacterSnapshot{
		snapshot("Alpha", "Standard", 10),
		snapshot("Beta", "Hardcore", 20),
	}}
	tr := New(source, store, nil)

	_, err := tr.TrackAccount(context.Background(), "Tester#1234", []string{"Standard"})
	require.NoError(t, err)

	// Only the Standard character was baselined.
	stored, _ := store.GetRecord(context.Background(), "Alpha", "Standard")
	require.NotNil(t, stored)
	stored, _ = store.GetRecord(context.Background(), "Beta", "Hardcore")
	require.Nil(t, stored)
}

func TestTrackAccountFetchFailure(t *testing.T) {
	store := &memoryStore{}
	source := &stubSource{err: core.NewRemoteError(core.KindPrivateProfile, "Bar#1111", nil)}
	tr := New(source, store, nil)

	events, err := tr.TrackAccount(context.Background(), "Bar#1111", nil)
	require.Empty(t, events)
	require.Equal(t, core.KindPrivateProfile, core.KindOf(err))
	require.Equal(t, 0, store.puts)
}

func TestTrackAccountStorageWriteFailureKeepsEvent(t *testing.T) {
	store := &memoryStore{}
	source := &stubSource{characters: []core.CharacterSnapshot{snapshot("Foo", "Standard", 50)}}
	tr := New(source, store, nil)

	_, err := tr.TrackAccount(context.Background(), "Tester#1234", nil)
	require.NoError(t, err)

	// Flush starts failing; memory is still updated and the event reported.
	store.putErr = core.NewRemoteError(core.KindStorageWrite, "", errors.New("disk full"))
	source.characters = []core.CharacterSnapshot{snapshot("Foo", "Standard", 51)}

	events, err := tr.TrackAccount(context.Background(), "Tester#1234", nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, 50, events[0].OldLevel)
	require.Equal(t, 51, events[0].NewLevel)

	stored, _ := store.GetRecord(context.Background(), "Foo", "Standard")
	require.Equal(t, 51, stored.Level)
}
