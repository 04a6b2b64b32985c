package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mufasadb/poe-level-tracker/internal/core"
)

func TestCharacterTable(t *testing.T) {
	rendered := CharacterTable("Tester#1234", []core.CharacterSnapshot{
		{Name: "Foo", Realm: core.RealmPC, Class: "Witch", League: "Standard", Level: 50},
	})

	require.Contains(t, rendered, "Foo")
	require.Contains(t, rendered, "Witch")
	require.Contains(t, rendered, "Standard")
	require.Contains(t, rendered, "1 characters")
}

func TestSnapshotTable(t *testing.T) {
	rendered := SnapshotTable([]core.StoredSnapshot{
		{
			Character: "Foo",
			League:    "Standard",
			Record: core.StoredRecord{
				Level:       55,
				Class:       "Witch",
				LastUpdated: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
			},
		},
	})

	require.Contains(t, rendered, "Foo")
	require.Contains(t, rendered, "55")
	require.Contains(t, rendered, "2026-08-30T12:00:00Z")
}

func TestEncodeJSON(t *testing.T) {
	encoded, err := Encode(map[string]int{"level": 55}, FormatJSON)
	require.NoError(t, err)
	require.Contains(t, encoded, `"level": 55`)
}

func TestEncodeYAML(t *testing.T) {
	encoded, err := Encode(map[string]int{"level": 55}, FormatYAML)
	require.NoError(t, err)
	require.Contains(t, encoded, "level: 55")
}

func TestEncodeUnknownFormat(t *testing.T) {
	_, err := Encode(nil, "toml")
	require.Error(t, err)
}
