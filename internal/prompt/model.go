// Package prompt provides the Bubble Tea conflict prompt.
package prompt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/gazetag/internal/filter"
)

const maxTableHeight = 10

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Model asks which code to keep for the conflicting events of a pass.
type Model struct {
	summary filter.ConflictSummary
	table   table.Model

	choice filter.Resolution
	done   bool

	width  int
	height int
}

// NewModel constructs a prompt for summary. The default choice is to keep
// the new codes.
func NewModel(summary filter.ConflictSummary) *Model {
	return &Model{
		summary: summary,
		table:   buildConflictTable(summary, maxTableHeight),
		choice:  filter.KeepNew,
	}
}

// Choice returns the selected resolution.
func (m *Model) Choice() filter.Resolution {
	return m.choice
}

// Done reports whether the user answered the prompt.
func (m *Model) Done() bool {
	return m.done
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(tableHeight(len(m.summary.Conflicts), msg.Height-6))
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "n", "N", "enter":
			return m.finish(filter.KeepNew)
		case "e", "E":
			return m.finish(filter.KeepExisting)
		case "esc", "q", "ctrl+c":
			return m.finish(filter.KeepNew)
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) finish(choice filter.Resolution) (tea.Model, tea.Cmd) {
	m.choice = choice
	m.done = true
	return m, tea.Quit
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.done {
		return ""
	}
	s := m.summary
	header := titleStyle.Render(fmt.Sprintf("Filter pass %d: %d conflicts", s.PassNumber, s.Count))
	detail := textStyle.Render(fmt.Sprintf("%d of %d matched events (%.1f%%) were already coded by an earlier pass.", s.Count, s.Matches, s.Percent))
	footer := footerStyle.Render("n/enter keep new codes · e keep existing codes · ↑/↓ scroll")
	return strings.Join([]string{header, detail, "", m.table.View(), "", footer}, "\n")
}

func buildConflictTable(summary filter.ConflictSummary, height int) table.Model {
	columns := []table.Column{
		{Title: "Event", Width: 7},
		{Title: "Condition", Width: 9},
		{Title: "Region", Width: 16},
		{Title: "Existing", Width: 8},
		{Title: "New", Width: 8},
	}
	rows := make([]table.Row, 0, len(summary.Conflicts))
	for _, c := range summary.Conflicts {
		cond := "-"
		if c.Condition != nil {
			cond = strconv.Itoa(*c.Condition)
		}
		rows = append(rows, table.Row{
			strconv.Itoa(c.Index + 1),
			cond,
			c.Region,
			c.Existing,
			c.New,
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(tableHeight(len(rows), height)),
	)
	t.SetStyles(conflictTableStyles())
	return t
}

// tableHeight includes the two header lines.
func tableHeight(rows, limit int) int {
	height := rows + 2
	if limit > 0 && height > limit {
		height = limit
	}
	if height < 3 {
		height = 3
	}
	return height
}

func conflictTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

// Resolver runs the prompt on a terminal and implements filter.Resolver.
// An aborted or failed prompt keeps the new codes.
type Resolver struct {
	In  io.Reader
	Out io.Writer
}

// Choose implements filter.Resolver.
func (r Resolver) Choose(summary filter.ConflictSummary) filter.Resolution {
	m := NewModel(summary)
	opts := []tea.ProgramOption{}
	if r.In != nil {
		opts = append(opts, tea.WithInput(r.In))
	}
	if r.Out != nil {
		opts = append(opts, tea.WithOutput(r.Out))
	}
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return filter.KeepNew
	}
	return m.Choice()
}
