package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/xbridge/atom"
	"github.com/wippyai/xbridge/conformance"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	groupStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// isTerminal reports whether w is a terminal. Anything that is not an
// *os.File is treated as a pipe.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// painter applies styles only when the output is a terminal.
type painter bool

func (p painter) paint(s lipgloss.Style, text string) string {
	if !p {
		return text
	}
	return s.Render(text)
}

func renderReports(reports []*conformance.Report, color bool) string {
	var b strings.Builder
	for i, r := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderReport(r, color))
	}
	return b.String()
}

func renderReport(r *conformance.Report, color bool) string {
	p := painter(color)
	var b strings.Builder

	b.WriteString(p.paint(titleStyle, "Session "+r.Session))
	fmt.Fprintf(&b, " backend=%s\n\n", r.Backend)

	var group conformance.Group
	for _, o := range r.Outcomes {
		if o.Group != group {
			group = o.Group
			b.WriteString(p.paint(groupStyle, string(group)))
			b.WriteString("\n")
		}
		b.WriteString(renderOutcome(o, p))
		b.WriteString("\n")
	}

	failed := len(r.Failed())
	fmt.Fprintf(&b, "\n%d passed, %d failed, %d allocations",
		len(r.Outcomes)-failed, failed, r.Allocs)
	if r.Leaks != (conformance.Leaks{}) {
		b.WriteString(", ")
		b.WriteString(p.paint(errorStyle,
			fmt.Sprintf("leaked %d blocks and %d handles", r.Leaks.Blocks, r.Leaks.Handles)))
	}
	b.WriteString("\n")
	return b.String()
}

func renderOutcome(o conformance.Outcome, p painter) string {
	status := p.paint(passStyle, "PASS")
	if !o.Passed {
		status = p.paint(errorStyle, "FAIL")
	}
	line := fmt.Sprintf("  %s %-36s %s", status, o.Symbol, o.Duration.Round(time.Microsecond))
	if o.Message != "" {
		msg := o.Message
		if o.Panicked {
			msg = "panic: " + msg
		}
		line += "\n      " + p.paint(errorStyle, msg)
	}
	return line
}

func renderAtoms(atoms []atom.Atom, color bool) string {
	p := painter(color)
	var b strings.Builder
	fmt.Fprintf(&b, "%-14s %-20s %s\n", "MANAGED", "NATIVE", "SIZE/ALIGN")
	for _, a := range atoms {
		size, align := a.Layout()
		fmt.Fprintf(&b, "%-14s %s %d/%d\n",
			a.Managed(), p.paint(typeStyle, fmt.Sprintf("%-20s", a.Native())), size, align)
	}
	return b.String()
}
