// # cmd/classdep/ui.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leima-hit/dependency-analyzer/internal/core/app"
	"github.com/leima-hit/dependency-analyzer/internal/engine/architecture"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	cycleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	violationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	duplicateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C084FC")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list       list.Model
	update     app.Update
	lastUpdate time.Time
}

type updateMsg struct {
	update app.Update
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.update = msg.update
		m.lastUpdate = time.Now()

		items := []list.Item{}
		for _, c := range m.update.Cycles {
			items = append(items, item{
				title: "Module Cycle",
				desc:  strings.Join(c, " -> "),
			})
		}
		for _, v := range m.update.Violations {
			items = append(items, item{
				title: "Rule Violation",
				desc:  violationLine(v),
			})
		}
		for _, d := range m.update.Duplicates {
			items = append(items, item{
				title: "Duplicate Class",
				desc:  fmt.Sprintf("%s in %s", d.Class, strings.Join(d.Modules, ", ")),
			})
		}
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	u := m.update
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d classes | %d modules | %d edges",
		m.lastUpdate.Format("15:04:05"), u.ClassCount, u.ModuleCount, u.EdgeCount))

	var summary string
	if len(u.Cycles) == 0 && len(u.Violations) == 0 && len(u.Duplicates) == 0 {
		summary = successStyle.Render("✅ System Clean")
	} else {
		summary = fmt.Sprintf("⚠️  %s | %s | %s",
			cycleStyle.Render(fmt.Sprintf("%d Cycles", len(u.Cycles))),
			violationStyle.Render(fmt.Sprintf("%d Violations", len(u.Violations))),
			duplicateStyle.Render(fmt.Sprintf("%d Duplicates", len(u.Duplicates))))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Class Dependency Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func violationLine(v architecture.Violation) string {
	if v.Type == "class_count" {
		return fmt.Sprintf("[%s] %s holds %d classes (limit %d)", v.RuleName, v.Module, v.Actual, v.Limit)
	}
	return fmt.Sprintf("[%s] %s -> %s (%s -> %s)", v.RuleName, v.Module, v.Target, v.FromClass, v.ToClass)
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Detected Issues"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}

func runUI(ctx context.Context, p *tea.Program, first app.Update) int {
	// Send blocks until the program's event loop is receiving, so the
	// initial state rides in from a goroutine the same way watch updates do.
	go p.Send(updateMsg{update: first})

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return 0
		}
		slog.Error("terminal UI failed", "error", err)
		return 2
	}
	return 0
}
