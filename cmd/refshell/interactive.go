package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const maxScrollback = 200

type entry struct {
	err    error
	input  string
	output string
}

type interactiveModel struct {
	sh      *shell
	input   textinput.Model
	log     []entry
	history []string
	recall  int
	height  int
}

func newInteractiveModel(sh *shell) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render("ref> ")
	ti.Placeholder = "get Transform@1.translation"
	ti.Width = 60
	ti.Focus()
	return &interactiveModel{sh: sh, input: ti, height: 24}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.input.Width = max(msg.Width-8, 10)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "up":
			if m.recall > 0 {
				m.recall--
				m.input.SetValue(m.history[m.recall])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.recall < len(m.history)-1 {
				m.recall++
				m.input.SetValue(m.history[m.recall])
				m.input.CursorEnd()
			} else {
				m.recall = len(m.history)
				m.input.SetValue("")
			}
			return m, nil

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			if line == "quit" || line == "exit" {
				return m, tea.Quit
			}
			m.run(line)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) run(line string) {
	m.history = append(m.history, line)
	m.recall = len(m.history)

	out, err := m.sh.exec(line)
	m.log = append(m.log, entry{input: line, output: out, err: err})
	if len(m.log) > maxScrollback {
		m.log = m.log[len(m.log)-maxScrollback:]
	}
}

func (m *interactiveModel) View() string {
	var lines []string
	for _, e := range m.log {
		lines = append(lines, promptStyle.Render("ref> ")+e.input)
		switch {
		case e.err != nil:
			lines = append(lines, errorStyle.Render(fmt.Sprintf("error: %v", e.err)))
		case e.output != "":
			for _, l := range strings.Split(e.output, "\n") {
				lines = append(lines, resultStyle.Render(l))
			}
		}
	}
	// title, blank, input, blank, help
	if room := m.height - 5; room > 0 && len(lines) > room {
		lines = lines[len(lines)-room:]
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Reference Shell"))
	b.WriteString("\n\n")
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter run • ↑/↓ history • help statements • esc quit"))
	return b.String()
}

func runInteractive(sh *shell) error {
	p := tea.NewProgram(newInteractiveModel(sh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
