//go:build !wasip1

package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/reglet-dev/wasm-marshal/config"
	"github.com/reglet-dev/wasm-marshal/host"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	argStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	guestStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D3D3D3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectCommand modelState = iota
	stateInputArgs
	stateShowResult
)

type interactiveModel struct {
	ctx      context.Context
	cfg      config.Config
	session  *session
	guest    *host.CaptureBuffer // guest output and log records of the current call
	err      error
	result   string
	output   string
	commands []command
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

func newInteractiveModel(ctx context.Context, cfg config.Config) *interactiveModel {
	var cmds []command
	for _, c := range commands {
		if c.needsModule {
			cmds = append(cmds, c)
		}
	}
	return &interactiveModel{
		ctx:      ctx,
		cfg:      cfg,
		guest:    host.NewCaptureBuffer(host.DefaultCaptureLimit),
		commands: cmds,
		state:    stateSelectCommand,
	}
}

type loadedMsg struct {
	err     error
	session *session
}

type callResultMsg struct {
	err    error
	result string
	output string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadModule
}

// loadModule opens the session with guest output captured, since anything
// written to the terminal would corrupt the screen.
func (m *interactiveModel) loadModule() tea.Msg {
	logger := slog.New(slog.NewTextHandler(m.guest, &slog.HandlerOptions{Level: m.cfg.SlogLevel()}))
	s, err := openSession(m.ctx, m.cfg, logger, m.guest, m.guest)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{session: s}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, m.quit()

		case "q":
			if m.state != stateInputArgs {
				return m, m.quit()
			}

		case "up", "k":
			if m.state == stateSelectCommand && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectCommand && m.selected < len(m.commands)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectCommand:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.call
				}
				m.state = stateInputArgs
				return m, nil

			case stateInputArgs:
				return m, m.call

			case stateShowResult:
				m.reset()
				return m, nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			if m.state != stateSelectCommand {
				m.reset()
				return m, nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session

	case callResultMsg:
		m.result = msg.result
		m.output = msg.output
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		cmds := make([]tea.Cmd, 0, len(m.inputs))
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) quit() tea.Cmd {
	if m.session != nil {
		_ = m.session.Close(m.ctx)
		m.session = nil
	}
	return tea.Quit
}

func (m *interactiveModel) reset() {
	m.state = stateSelectCommand
	m.inputs = nil
	m.result, m.output = "", ""
	m.err = nil
}

func (m *interactiveModel) prepareInputs() {
	c := m.commands[m.selected]
	m.inputs = make([]textinput.Model, len(c.args))
	for i, name := range c.args {
		ti := textinput.New()
		ti.Prompt = name + ": "
		ti.Width = 40
		if strings.HasPrefix(c.name, "add") {
			ti.Placeholder = "1,2,3"
		}
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) call() tea.Msg {
	if m.session == nil {
		return callResultMsg{err: fmt.Errorf("module not loaded")}
	}

	c := m.commands[m.selected]
	args := make([]string, len(m.inputs))
	for i, input := range m.inputs {
		args[i] = input.Value()
	}

	m.guest.Reset()
	var out bytes.Buffer
	err := c.run(m.ctx, m.session.inst, args, &out)
	for _, w := range m.session.writers {
		w.Flush()
	}
	output := strings.TrimRight(m.guest.String(), "\n")
	if m.guest.Truncated() {
		output += "\n(output truncated)"
	}
	return callResultMsg{
		err:    err,
		result: strings.TrimRight(out.String(), "\n"),
		output: output,
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.session == nil {
		return "Loading module..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("wasmcall"))
	b.WriteString(" ")
	b.WriteString(m.cfg.Module)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectCommand:
		b.WriteString("Select a command:\n\n")
		for i, c := range m.commands {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + c.synopsis()))
			} else {
				b.WriteString("  " + formatCommand(c))
			}
			b.WriteString("  ")
			b.WriteString(helpStyle.Render(c.help))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		c := m.commands[m.selected]
		fmt.Fprintf(&b, "Calling %s\n\n", funcStyle.Render(c.name))
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		c := m.commands[m.selected]
		fmt.Fprintf(&b, "Result of %s:\n\n", funcStyle.Render(c.name))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		if m.output != "" {
			b.WriteString("\n\nGuest output:\n")
			b.WriteString(guestStyle.Render(m.output))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func formatCommand(c command) string {
	parts := []string{funcStyle.Render(c.name)}
	for _, a := range c.args {
		parts = append(parts, argStyle.Render("<"+a+">"))
	}
	return strings.Join(parts, " ")
}

func runInteractive(ctx context.Context, cfg config.Config) error {
	p := tea.NewProgram(newInteractiveModel(ctx, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
