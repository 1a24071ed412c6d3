package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hridayan/khata/internal/common"
	"github.com/hridayan/khata/internal/intent"
)

// replyMsg carries the assistant's answer back into the update loop.
type replyMsg struct {
	reply *intent.Reply
	err   error
}

// ChatModel is the bubbletea model for the interactive chat session.
type ChatModel struct {
	conv   *intent.Conversation
	userID string

	input    textinput.Model
	viewport viewport.Model
	lines    []string
	ready    bool
	waiting  bool
}

// NewChatModel creates the chat UI bound to one user's conversation.
func NewChatModel(conv *intent.Conversation, userID string) ChatModel {
	input := textinput.New()
	input.Placeholder = "spent 250 at Cafe Blue..."
	input.Focus()
	input.CharLimit = 280

	return ChatModel{
		conv:   conv,
		userID: userID,
		input:  input,
		lines: []string{
			AssistantStyle.Render("khata: ") +
				"Tell me about your spending, or type \"help\".",
		},
	}
}

// Init implements tea.Model.
func (m ChatModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting {
				return m, nil
			}
			m.input.Reset()
			m.waiting = true
			m.appendLine(UserStyle.Render("you: ") + text)
			return m, m.send(text)
		}

	case tea.WindowSizeMsg:
		inputHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight
		}
		m.refreshViewport()

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.appendLine(ErrorStyle.Render("khata: " + userMessage(msg.err)))
		} else {
			m.appendReply(msg.reply)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m ChatModel) View() string {
	if !m.ready {
		return "starting..."
	}
	return fmt.Sprintf("%s\n%s", m.viewport.View(), m.input.View())
}

func (m *ChatModel) send(text string) tea.Cmd {
	conv, userID := m.conv, m.userID
	return func() tea.Msg {
		reply, err := conv.Advance(context.Background(), userID, text)
		return replyMsg{reply: reply, err: err}
	}
}

func (m *ChatModel) appendReply(reply *intent.Reply) {
	for _, line := range strings.Split(reply.Message, "\n") {
		m.appendLine(AssistantStyle.Render("khata: ") + line)
	}
	m.appendLine(SubtleStyle.Render(
		fmt.Sprintf("  (%s, confidence %.2f)", reply.Intent.Action, reply.Confidence)))
}

func (m *ChatModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.refreshViewport()
}

func (m *ChatModel) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// userMessage prefers the user-facing text of validation errors.
func userMessage(err error) string {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return err.Error()
}

// RunChat starts the interactive chat session and blocks until the user
// quits.
func RunChat(conv *intent.Conversation, userID string) error {
	p := tea.NewProgram(NewChatModel(conv, userID), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI failed: %w", err)
	}
	return nil
}
