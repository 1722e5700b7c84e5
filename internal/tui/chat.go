// internal/tui/chat.go

// Package tui implements the interactive chat session for the modelmux CLI.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/router"
	"github.com/modelmux/modelmux/internal/util"
)

// replyWidth bounds assistant replies so long completions stay readable.
const replyWidth = 100

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

// replyMsg carries the outcome of one chat dispatch back into the update loop.
type replyMsg struct {
	resp llm.Response
	err  error
}

// Model is the bubbletea model for an interactive chat session.
type Model struct {
	router    *router.Router
	modelName string
	options   map[string]any

	input      textinput.Model
	history    []llm.ChatMessage
	transcript []string
	waiting    bool
}

// NewModel builds the initial session state. A non-empty system prompt is
// seeded as the first message of the conversation.
func NewModel(r *router.Router, modelName, system string, options map[string]any) Model {
	input := textinput.New()
	input.Placeholder = "Send a message..."
	input.Focus()
	input.CharLimit = 0
	input.Width = 80

	var history []llm.ChatMessage
	if strings.TrimSpace(system) != "" {
		history = append(history, llm.ChatMessage{Role: llm.RoleSystem, Content: system})
	}

	return Model{
		router:    r,
		modelName: modelName,
		options:   options,
		input:     input,
		history:   history,
	}
}

// Run starts the interactive session and blocks until the user exits.
func Run(r *router.Router, modelName, system string, options map[string]any) error {
	program := tea.NewProgram(NewModel(r, modelName, system, options))
	_, err := program.Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			content := strings.TrimSpace(m.input.Value())
			if content == "" {
				return m, nil
			}
			m.input.Reset()
			m.history = append(m.history, llm.ChatMessage{Role: llm.RoleUser, Content: content})
			m.transcript = append(m.transcript, userStyle.Render("you: ")+content)
			m.waiting = true
			return m, m.dispatch()
		}

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.transcript = append(m.transcript, errorStyle.Render(fmt.Sprintf("error: %v", msg.err)))
			return m, nil
		}
		m.history = append(m.history, llm.ChatMessage{Role: llm.RoleAssistant, Content: msg.resp.Content})
		reply := util.WrapToWidth(msg.resp.Content, replyWidth)
		m.transcript = append(m.transcript, assistantStyle.Render(msg.resp.Model+": ")+reply)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// dispatch sends the conversation so far to the router off the update loop.
func (m Model) dispatch() tea.Cmd {
	history := make([]llm.ChatMessage, len(m.history))
	copy(history, m.history)

	return func() tea.Msg {
		resp, err := m.router.Chat(context.Background(), m.modelName, history, m.options)
		return replyMsg{resp: resp, err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(statusStyle.Render(fmt.Sprintf("chatting with %s (esc to quit)", m.modelName)))
	b.WriteString("\n\n")
	for _, line := range m.transcript {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.waiting {
		b.WriteString(statusStyle.Render("waiting for reply..."))
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	return b.String()
}
