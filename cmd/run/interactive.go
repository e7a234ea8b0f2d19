package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-http/signature"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#98FB98"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// Form fields, in focus order.
const (
	fieldMethod = iota
	fieldURI
	fieldHeader
	fieldBody
	fieldCount
)

type modelState int

const (
	stateLoading modelState = iota
	stateForm
	stateRunning
	stateShowResult
)

type interactiveModel struct {
	err      error
	chain    *chain
	response *signature.Response
	opts     chainOptions
	inputs   []textinput.Model
	focusIdx int
	state    modelState
}

type loadedMsg struct {
	err   error
	chain *chain
}

type runResultMsg struct {
	err      error
	response *signature.Response
}

func newInteractiveModel(opts chainOptions) *interactiveModel {
	m := &interactiveModel{opts: opts, state: stateLoading}

	m.inputs = make([]textinput.Model, fieldCount)
	for i := range m.inputs {
		ti := textinput.New()
		ti.Width = 50
		m.inputs[i] = ti
	}
	m.inputs[fieldMethod].Prompt = "Method: "
	m.inputs[fieldMethod].SetValue("GET")
	m.inputs[fieldURI].Prompt = "URI:    "
	m.inputs[fieldURI].SetValue("/")
	m.inputs[fieldHeader].Prompt = "Header: "
	m.inputs[fieldHeader].Placeholder = "Name: value"
	m.inputs[fieldBody].Prompt = "Body:   "
	m.inputs[fieldMethod].Focus()
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.loadChain, textinput.Blink)
}

func (m *interactiveModel) loadChain() tea.Msg {
	c, err := openChain(context.Background(), m.opts)
	return loadedMsg{chain: c, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m.quit()

		case "q":
			if m.state != stateForm {
				return m.quit()
			}

		case "tab", "down":
			if m.state == stateForm {
				m.focus((m.focusIdx + 1) % fieldCount)
				return m, nil
			}

		case "shift+tab", "up":
			if m.state == stateForm {
				m.focus((m.focusIdx + fieldCount - 1) % fieldCount)
				return m, nil
			}

		case "enter":
			switch m.state {
			case stateForm:
				m.state = stateRunning
				return m, m.runChain(m.request())
			case stateShowResult:
				m.state = stateForm
				return m, nil
			}

		case "esc":
			if m.state == stateShowResult {
				m.state = stateForm
				return m, nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.chain = msg.chain
		m.state = stateForm

	case runResultMsg:
		m.response = msg.response
		m.err = msg.err
		m.state = stateShowResult
		return m, nil
	}

	if m.state == stateForm {
		var cmd tea.Cmd
		m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) quit() (tea.Model, tea.Cmd) {
	if m.chain != nil {
		m.chain.close(context.Background())
		m.chain = nil
	}
	return m, tea.Quit
}

func (m *interactiveModel) focus(idx int) {
	m.inputs[m.focusIdx].Blur()
	m.focusIdx = idx
	m.inputs[m.focusIdx].Focus()
}

// request builds the request flags from the form. An empty header line is
// skipped; a malformed one surfaces as a run error.
func (m *interactiveModel) request() requestFlags {
	flags := requestFlags{
		method: strings.TrimSpace(m.inputs[fieldMethod].Value()),
		uri:    strings.TrimSpace(m.inputs[fieldURI].Value()),
	}
	if h := strings.TrimSpace(m.inputs[fieldHeader].Value()); h != "" {
		flags.headers = headerFlags{h}
	}
	if b := m.inputs[fieldBody].Value(); b != "" {
		flags.body = &b
	}
	return flags
}

func (m *interactiveModel) runChain(flags requestFlags) tea.Cmd {
	c := m.chain
	return func() tea.Msg {
		req, err := buildContext(nil, flags)
		if err != nil {
			return runResultMsg{err: err}
		}
		res, err := c.run(context.Background(), req)
		if err != nil {
			return runResultMsg{err: err}
		}
		return runResultMsg{response: res.Response}
	}
}

func (m *interactiveModel) View() string {
	if m.state == stateLoading {
		if m.err != nil {
			return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
		}
		return "Loading modules..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("wasm-http"))
	b.WriteString(" ")
	b.WriteString(strings.Join(m.opts.files, " -> "))
	b.WriteString("\n\n")

	switch m.state {
	case stateForm:
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter send • ctrl+c quit"))

	case stateRunning:
		b.WriteString("Running chain...")

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(m.renderResponse())
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter/esc back • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) renderResponse() string {
	resp := m.response
	if resp == nil {
		return resultStyle.Render("(no response)")
	}

	var b strings.Builder
	b.WriteString(statusStyle.Render(fmt.Sprintf("Status: %d", resp.StatusCode)))
	b.WriteString("\n")
	for _, name := range resp.Headers.Keys() {
		for _, v := range resp.Headers.Get(name) {
			b.WriteString(labelStyle.Render(name + ":"))
			b.WriteString(" " + v + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(resultStyle.Render(string(resp.Body)))
	return b.String()
}

func runInteractive(opts chainOptions) error {
	m := newInteractiveModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	if m.chain != nil {
		m.chain.close(context.Background())
	}
	return err
}
