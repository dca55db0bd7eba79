package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/text/width"
)

var (
	stageStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

type stageMsg string

// resultMsg carries one compiled function's demangled name and resident
// address into the table the progress model renders once done.
type resultMsg struct {
	name string
	addr uintptr
}

type progressModel struct {
	spinner spinner.Model
	stage   string
	total   int
	seen    int
	done    bool
	results []resultMsg
}

func newProgressModel(total int) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return progressModel{spinner: s, total: total}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stageMsg:
		m.stage = string(msg)
		if m.stage == "done" {
			m.done = true
			return m, tea.Quit
		}
		m.seen++
		return m, nil
	case resultMsg:
		m.results = append(m.results, msg)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m progressModel) View() string {
	if m.done {
		return stageStyle.Render("rfspec: finished") + "\n" + renderResultsTable(m.results)
	}
	return fmt.Sprintf("%s %s (%d/%d)\n", m.spinner.View(), stageStyle.Render(m.stage), m.seen, m.total)
}

// startProgressUI launches a bubbletea spinner in the background and
// returns two reporters: one forwarding stage names, the other recording a
// compiled function's name and address for the closing table. The UI exits
// on the "done" stage.
func startProgressUI(cmd *cobra.Command, total int) (report func(string), recordResult func(string, uintptr)) {
	ch := make(chan tea.Msg, 8)
	program := tea.NewProgram(newProgressModel(total), tea.WithOutput(cmd.OutOrStdout()))

	go func() {
		for msg := range ch {
			program.Send(msg)
		}
	}()
	go func() {
		if _, err := program.Run(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "ui: %v\n", err)
		}
	}()

	report = func(stage string) { ch <- stageMsg(stage) }
	recordResult = func(name string, addr uintptr) { ch <- resultMsg{name: name, addr: addr} }
	return report, recordResult
}

// renderResultsTable renders rows as a width-aligned table. Each demangled
// name is folded to its canonical halfwidth form via golang.org/x/text/width
// before go-runewidth measures its display width, so the address column
// stays aligned even against a demangled template name carrying fullwidth
// characters.
func renderResultsTable(rows []resultMsg) string {
	if len(rows) == 0 {
		return ""
	}
	const nameHeader = "function"
	nameWidth := runewidth.StringWidth(nameHeader)
	folded := make([]string, len(rows))
	for i, r := range rows {
		folded[i] = width.Fold.String(r.name)
		if w := runewidth.StringWidth(folded[i]); w > nameWidth {
			nameWidth = w
		}
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(padColumn(nameHeader, nameWidth) + "  address"))
	b.WriteString("\n")
	for i, r := range rows {
		b.WriteString(padColumn(folded[i], nameWidth))
		fmt.Fprintf(&b, "  0x%x\n", r.addr)
	}
	return b.String()
}

// padColumn right-pads s with spaces out to w display columns, measured by
// go-runewidth rather than byte or rune count.
func padColumn(s string, w int) string {
	pad := w - runewidth.StringWidth(s)
	if pad <= 0 {
		return s
	}
	return s + strings.Repeat(" ", pad)
}
