// Package output renders tracker data for terminal display and for
// machine-readable export.
package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mufasadb/poe-level-tracker/internal/core"
	"github.com/mufasadb/poe-level-tracker/internal/core/engine"
)

// CharacterTable renders a fetched character list as an ASCII table.
func CharacterTable(account string, characters []core.CharacterSnapshot) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(account)
	t.AppendHeader(table.Row{"Character", "Class", "League", "Level", "Realm"})

	for _, character := range characters {
		t.AppendRow(table.Row{
			character.Name,
			character.Class,
			character.League,
			character.Level,
			string(character.Realm),
		})
	}

	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d characters", len(characters))})
	return t.Render()
}

// SnapshotTable renders the stored snapshot records.
func SnapshotTable(snapshots []core.StoredSnapshot) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Character", "League", "Level", "Class", "Last Updated"})

	for _, snapshot := range snapshots {
		t.AppendRow(table.Row{
			snapshot.Character,
			snapshot.League,
			snapshot.Record.Level,
			snapshot.Record.Class,
			snapshot.Record.LastUpdated.Format(time.RFC3339),
		})
	}

	return t.Render()
}

// WindowTable renders the governor's tracked rate limit windows.
func WindowTable(windows []engine.Window) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Window (s)", "Hits", "Max"})

	for _, window := range windows {
		t.AppendRow(table.Row{window.Seconds, window.Hits, window.Max})
	}

	return t.Render()
}
