package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/xbridge/conformance"
)

type interactiveModel struct {
	ctx      context.Context
	err      error
	cfg      conformance.Config
	report   *conformance.Report
	spinner  spinner.Model
	items    []groupItem
	selected int
	state    modelState
}

type groupItem struct {
	label  string
	groups []conformance.Group
	cases  int
}

type modelState int

const (
	stateSelectGroup modelState = iota
	stateRunning
	stateShowResult
)

type runResultMsg struct {
	err    error
	report *conformance.Report
}

func newInteractiveModel(ctx context.Context, cfg *conformance.Config) *interactiveModel {
	items := []groupItem{{label: "all", cases: len(conformance.Suite())}}
	for _, g := range conformance.Groups() {
		items = append(items, groupItem{
			label:  string(g),
			groups: []conformance.Group{g},
			cases:  len(conformance.Select([]conformance.Group{g})),
		})
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = groupStyle
	return &interactiveModel{
		ctx:     ctx,
		cfg:     *cfg,
		items:   items,
		spinner: sp,
		state:   stateSelectGroup,
	}
}

func runInteractive(ctx context.Context, cfg *conformance.Config) error {
	p := tea.NewProgram(newInteractiveModel(ctx, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectGroup && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectGroup && m.selected < len(m.items)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectGroup:
				m.state = stateRunning
				return m, tea.Batch(m.spinner.Tick, m.runGroup)
			case stateShowResult:
				m.reset()
			}

		case "esc":
			if m.state == stateShowResult {
				m.reset()
			}
		}

	case runResultMsg:
		m.report = msg.report
		m.err = msg.err
		m.state = stateShowResult

	case spinner.TickMsg:
		if m.state == stateRunning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m *interactiveModel) reset() {
	m.state = stateSelectGroup
	m.report = nil
	m.err = nil
}

// runGroup opens a fresh session for the selected item, so repeated runs
// never share a flag or a heap.
func (m *interactiveModel) runGroup() tea.Msg {
	cfg := m.cfg
	cfg.Groups = m.items[m.selected].groups
	r, err := conformance.Run(m.ctx, &cfg)
	return runResultMsg{report: r, err: err}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Bridge Check"))
	b.WriteString(" ")
	b.WriteString(backendLabel(m.cfg))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectGroup:
		b.WriteString("Select a case group to run:\n\n")
		for i, it := range m.items {
			line := fmt.Sprintf("%-12s %s", it.label, typeStyle.Render(fmt.Sprintf("%d cases", it.cases)))
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter run • q quit"))

	case stateRunning:
		fmt.Fprintf(&b, "%s Running %s...\n", m.spinner.View(), groupStyle.Render(m.items[m.selected].label))

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(renderReport(m.report, true))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func backendLabel(cfg conformance.Config) string {
	if cfg.Heap.Backend == "" {
		return "arena"
	}
	return string(cfg.Heap.Backend)
}
