// Package tui is the terminal front end for a migration: it previews one
// workbook, asks before importing and follows the import's progress.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/workbook-migrate/internal/client"
	"github.com/JonMunkholm/workbook-migrate/internal/core"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// SnapshotMsg carries a controller change into the program.
type SnapshotMsg client.Snapshot

type previewDoneMsg struct{ err error }

type importDoneMsg struct {
	result *core.MigrationResult
	err    error
}

// Model is the bubbletea model for one workbook.
type Model struct {
	ctx      context.Context
	ctrl     *client.Controller
	fileName string
	data     []byte

	snap         client.Snapshot
	menu         *Menu
	cursor       int
	busy         bool
	showWarnings bool
	err          error
	bar          progress.Model
	width        int
}

// New creates a model that previews data with ctrl as soon as it starts.
func New(ctx context.Context, ctrl *client.Controller, fileName string, data []byte) *Model {
	m := &Model{
		ctx:      ctx,
		ctrl:     ctrl,
		fileName: fileName,
		data:     data,
		busy:     true,
		bar:      progress.New(progress.WithSolidFill("#00aadd")),
	}
	m.snap = ctrl.Snapshot()
	m.refreshMenu()
	return m
}

// Run previews and imports one workbook through backend in a terminal UI.
func Run(ctx context.Context, backend client.Backend, fileName string, data []byte) error {
	var p *tea.Program
	ctrl := client.NewController(backend, client.WithOnChange(func(s client.Snapshot) {
		p.Send(SnapshotMsg(s))
	}))
	p = tea.NewProgram(New(ctx, ctrl, fileName, data), tea.WithContext(ctx))

	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return m.previewCmd()
}

func (m *Model) previewCmd() tea.Cmd {
	ctx, ctrl, name, data := m.ctx, m.ctrl, m.fileName, m.data
	return func() tea.Msg {
		return previewDoneMsg{err: ctrl.Preview(ctx, name, data)}
	}
}

func (m *Model) startImport() tea.Cmd {
	m.busy = true
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		result, err := ctrl.Import(ctx)
		return importDoneMsg{result: result, err: err}
	}
}

func (m *Model) startOver() tea.Cmd {
	m.ctrl.Reset()
	m.err = nil
	m.busy = true
	m.showWarnings = false
	return m.previewCmd()
}

func (m *Model) toggleWarnings() tea.Cmd {
	m.showWarnings = !m.showWarnings
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-4, 10), 80)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		m.snap = client.Snapshot(msg)

	case previewDoneMsg:
		m.busy = false
		m.err = msg.err
		m.snap = m.ctrl.Snapshot()

	case importDoneMsg:
		m.busy = false
		// The fault overlay already carries import failures.
		var importErr *client.ImportError
		if msg.err != nil && !errors.As(msg.err, &importErr) {
			m.err = msg.err
		}
		m.snap = m.ctrl.Snapshot()
	}

	m.refreshMenu()
	return m, nil
}

// refreshMenu rebuilds the menu, moving the cursor to the top when the
// screen changed.
func (m *Model) refreshMenu() {
	prev := m.menu
	m.menu = buildMenu(m)
	if prev == nil || prev.Title != m.menu.Title || m.cursor >= len(m.menu.Items) {
		m.cursor = 0
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}
	case "enter", " ":
		if m.cursor < len(m.menu.Items) {
			cmd := m.menu.Items[m.cursor].Action(m)
			m.refreshMenu()
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Workbook migration: " + m.fileName))
	b.WriteString("\n")

	switch {
	case m.snap.State == client.StateIdle && m.busy:
		b.WriteString(mutedStyle.Render("Reading workbook..."))
		b.WriteString("\n")
	case m.snap.State == client.StatePreview:
		m.viewPreview(&b)
	case m.snap.State == client.StateImporting:
		m.viewProgress(&b)
	case m.snap.State == client.StateComplete:
		m.viewProgress(&b)
		m.viewReport(&b, m.snap.Report)
	}

	if m.snap.Fault != nil {
		b.WriteString(errorStyle.Render("Import failed: " + m.snap.Fault.Message))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + core.FormatUserError(m.err)))
		b.WriteString("\n")
	}

	m.viewMenu(&b)
	return b.String()
}

func (m *Model) viewPreview(b *strings.Builder) {
	p := m.snap.Preview
	fmt.Fprintf(b, "%d records across %d tables, %s\n\n",
		p.TotalRecords, len(p.Tables), warningStyle.Render(fmt.Sprintf("%d warnings", p.TotalWarnings)))
	for _, t := range p.Tables {
		fmt.Fprintf(b, "  %-20s %5d\n", t.Label, t.RecordCount)
	}
	if len(p.SkippedSheets) > 0 {
		b.WriteString("\n" + mutedStyle.Render("Sheets not found: "+strings.Join(p.SkippedSheets, ", ")) + "\n")
	}
	if m.showWarnings {
		viewWarnings(b, p.AllWarnings)
	}
}

func (m *Model) viewProgress(b *strings.Builder) {
	percent := float64(m.snap.Last.Percent()) / 100
	if m.snap.State == client.StateComplete {
		percent = 1
	}
	b.WriteString(m.bar.ViewAs(percent))
	b.WriteString("\n")
	if m.snap.Last.Message != "" {
		b.WriteString(mutedStyle.Render(m.snap.Last.Message))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for _, item := range m.snap.Sheets {
		if item.Status == client.PhaseDone {
			b.WriteString(doneStyle.Render("  ✓ " + item.Name))
		} else {
			b.WriteString(activeStyle.Render("  ▸ " + item.Name))
		}
		b.WriteString("\n")
	}
}

func (m *Model) viewReport(b *strings.Builder, r *core.MigrationResult) {
	if r == nil {
		return
	}
	fmt.Fprintf(b, "\n%d inserted, %d updated, %d warnings in %d ms\n",
		r.TotalInserted, r.TotalUpdated, r.TotalWarnings, r.DurationMS)
	for _, t := range r.Tables {
		if t.Error != "" {
			b.WriteString(errorStyle.Render(t.Label + ": " + t.Error))
			b.WriteString("\n")
		}
	}
	if m.showWarnings {
		viewWarnings(b, r.AllWarnings)
	}
}

func viewWarnings(b *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		b.WriteString("\n" + mutedStyle.Render("No warnings.") + "\n")
		return
	}
	b.WriteString("\n")
	for _, msg := range warnings {
		b.WriteString(warningStyle.Render("  ! " + msg))
		b.WriteString("\n")
	}
}

func (m *Model) viewMenu(b *strings.Builder) {
	if len(m.menu.Items) == 0 {
		return
	}
	b.WriteString("\n")
	if m.menu.Title != "" {
		b.WriteString(activeStyle.Render(m.menu.Title))
		b.WriteString("\n")
	}
	for i, item := range m.menu.Items {
		if i == m.cursor {
			b.WriteString(selectedItemStyle.Render(item.Label))
		} else {
			b.WriteString(itemStyle.Render(item.Label))
		}
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("\n↑/↓ move · enter select · q quit"))
	b.WriteString("\n")
}
