package tui

import (
	"github.com/JonMunkholm/workbook-migrate/internal/client"
	tea "github.com/charmbracelet/bubbletea"
)

// MenuItem is one selectable action.
type MenuItem struct {
	Label  string
	Action func(m *Model) tea.Cmd
}

// Menu is the action list shown under the current screen. It is rebuilt
// whenever the controller changes state.
type Menu struct {
	Title string
	Items []MenuItem
}

// buildMenu returns the actions that make sense for the model's current
// snapshot.
func buildMenu(m *Model) *Menu {
	quit := MenuItem{Label: "Quit", Action: func(*Model) tea.Cmd { return tea.Quit }}

	switch {
	case m.busy:
		return &Menu{}

	case m.snap.Fault != nil:
		return &Menu{Title: "Import failed", Items: []MenuItem{
			{Label: "Start over", Action: (*Model).startOver},
			quit,
		}}

	case m.snap.State == client.StateComplete:
		return &Menu{Title: "Import complete", Items: []MenuItem{
			{Label: toggleLabel(m.showWarnings), Action: (*Model).toggleWarnings},
			{Label: "Import again", Action: (*Model).startOver},
			quit,
		}}

	case m.snap.State == client.StatePreview:
		return &Menu{Title: "Ready to import", Items: []MenuItem{
			{Label: "Import", Action: (*Model).startImport},
			{Label: toggleLabel(m.showWarnings), Action: (*Model).toggleWarnings},
			quit,
		}}

	default:
		return &Menu{Items: []MenuItem{quit}}
	}
}

func toggleLabel(showing bool) string {
	if showing {
		return "Hide warnings"
	}
	return "Show warnings"
}
