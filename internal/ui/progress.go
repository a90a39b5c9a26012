// Package ui renders live analysis progress for the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Event reports one analyzed file.
type Event struct {
	Path     string
	Errors   int
	Warnings int
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	cleanStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	queuedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

// maxVisibleFiles caps the file list so large workspaces scroll instead of
// overflowing the terminal.
const maxVisibleFiles = 16

type fileItem struct {
	path   string
	status string
}

type progressModel struct {
	title     string
	events    <-chan Event
	spinner   spinner.Model
	bar       progress.Model
	items     []fileItem
	index     map[string]int
	completed int
	width     int
	done      bool
}

type eventMsg Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders per-file analysis
// progress. The model quits when the event channel closes.
func NewProgressModel(title string, files []string, events <-chan Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		items:   make([]fileItem, len(files)),
		index:   make(map[string]int, len(files)),
		width:   80,
	}
	for i, file := range files {
		m.items[i] = fileItem{path: file, status: "queued"}
		m.index[file] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.nextEvent())
}

func (m *progressModel) nextEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(Event(msg)), m.nextEvent())

	case doneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		updated, cmd := m.bar.Update(msg)
		m.bar = updated.(progress.Model)
		return m, cmd

	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
	}
	return m, nil
}

// applyEvent marks a file finished. Repeat events for the same path update
// the status without advancing the bar.
func (m *progressModel) applyEvent(ev Event) tea.Cmd {
	idx, ok := m.index[ev.Path]
	if !ok {
		return nil
	}
	if m.items[idx].status == "queued" {
		m.completed++
	}
	m.items[idx].status = statusLabel(ev)
	return m.bar.SetPercent(float64(m.completed) / float64(len(m.items)))
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}

	var b strings.Builder
	header := fmt.Sprintf("%s (%d/%d)", m.title, m.completed, len(m.items))
	if m.done {
		b.WriteString(titleStyle.Render("done: " + header))
	} else {
		b.WriteString(m.spinner.View())
		b.WriteByte(' ')
		b.WriteString(titleStyle.Render(header))
	}
	b.WriteString("\n\n")

	nameWidth := m.width - 16
	if nameWidth < 20 {
		nameWidth = 20
	}
	for _, item := range m.visibleItems() {
		fmt.Fprintf(&b, "  %s %s\n",
			statusStyle(item.status).Render(fmt.Sprintf("%12s", item.status)),
			truncate(item.path, nameWidth))
	}

	b.WriteByte('\n')
	if m.done {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

// visibleItems windows the list around the analysis frontier: everything up
// to the last finished file, clipped to the most recent maxVisibleFiles.
func (m *progressModel) visibleItems() []fileItem {
	if len(m.items) <= maxVisibleFiles {
		return m.items
	}
	end := m.completed + 1
	if end > len(m.items) {
		end = len(m.items)
	}
	if end < maxVisibleFiles {
		end = maxVisibleFiles
	}
	return m.items[end-maxVisibleFiles : end]
}

func statusLabel(ev Event) string {
	switch {
	case ev.Errors == 1:
		return "1 error"
	case ev.Errors > 1:
		return fmt.Sprintf("%d errors", ev.Errors)
	case ev.Warnings == 1:
		return "1 warning"
	case ev.Warnings > 1:
		return fmt.Sprintf("%d warnings", ev.Warnings)
	default:
		return "clean"
	}
}

func statusStyle(status string) lipgloss.Style {
	switch {
	case strings.HasSuffix(status, "error") || strings.HasSuffix(status, "errors"):
		return errorStyle
	case strings.HasSuffix(status, "warning") || strings.HasSuffix(status, "warnings"):
		return warnStyle
	case status == "clean":
		return cleanStyle
	}
	return queuedStyle
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
