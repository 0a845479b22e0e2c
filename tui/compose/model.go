package compose

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/novaterm/app"
	"github.com/CrestNiraj12/novaterm/tui/common"
)

const charLimit = 1000

// --- Messages ---

// DoneMsg is sent when a message was written (inline or in $EDITOR).
// An empty Content means the user cancelled.
type DoneMsg struct {
	Content   string
	ReplyToID string
	Err       error
}

// editorFinishedMsg is sent after the external editor exits.
type editorFinishedMsg struct {
	tmpPath string
	err     error
}

// --- Model ---

// Model is the message input box at the bottom of a chat.
type Model struct {
	editor     app.Composer
	keys       common.KeyMap
	textarea   textarea.Model
	replyTo    string // ID of the message being answered
	replyLabel string
	editing    bool // $EDITOR is open
}

// New creates an input box. ed may be nil, which disables $EDITOR.
func New(ed app.Composer) Model {
	ta := textarea.New()
	ta.Placeholder = "Write a message…"
	ta.CharLimit = charLimit
	ta.ShowLineNumbers = false
	ta.SetWidth(72)
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))

	return Model{
		editor:   ed,
		keys:     common.DefaultKeyMap(),
		textarea: ta,
	}
}

func (m *Model) Focus() tea.Cmd    { return m.textarea.Focus() }
func (m *Model) Blur()             { m.textarea.Blur() }
func (m Model) Focused() bool      { return m.textarea.Focused() }
func (m Model) Value() string      { return m.textarea.Value() }
func (m Model) ReplyTo() string    { return m.replyTo }
func (m Model) Editing() bool      { return m.editing }
func (m *Model) SetWidth(w int)    { m.textarea.SetWidth(max(w, 10)) }
func (m *Model) SetValue(s string) { m.textarea.SetValue(s) }

// SetReply marks the next message as an answer to id. label is shown above
// the input.
func (m *Model) SetReply(id, label string) {
	m.replyTo = id
	m.replyLabel = label
}

// ClearReply drops the reply target.
func (m *Model) ClearReply() {
	m.replyTo = ""
	m.replyLabel = ""
}

// Reset clears the draft and the reply target.
func (m *Model) Reset() {
	m.textarea.Reset()
	m.ClearReply()
}

// launchEditor prepares the editor command and uses tea.ExecProcess to
// suspend Bubble Tea's raw terminal mode while the editor runs.
func (m *Model) launchEditor() tea.Cmd {
	if m.editor == nil {
		return nil
	}
	cmd, tmpPath, err := m.editor.Cmd(m.textarea.Value(), m.replyLabel)
	if err != nil {
		return done(DoneMsg{Err: fmt.Errorf("preparing editor: %w", err)})
	}
	m.editing = true
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{tmpPath: tmpPath, err: err}
	})
}

// Update handles messages for the input box.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case editorFinishedMsg:
		m.editing = false
		if msg.err != nil {
			return m, done(DoneMsg{Err: fmt.Errorf("editor: %w", msg.err)})
		}
		content, err := m.editor.ReadContent(msg.tmpPath)
		if err != nil {
			return m, done(DoneMsg{Err: err})
		}
		if content == "" {
			return m, done(DoneMsg{}) // Cancel
		}
		out := DoneMsg{Content: content, ReplyToID: m.replyTo}
		m.Reset()
		return m, done(out)

	case tea.KeyMsg:
		if !m.textarea.Focused() {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Editor):
			return m, m.launchEditor()

		case key.Matches(msg, m.keys.Send):
			content := strings.TrimSpace(m.textarea.Value())
			if content == "" {
				return m, nil
			}
			out := DoneMsg{Content: content, ReplyToID: m.replyTo}
			m.Reset()
			return m, done(out)
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// done wraps a DoneMsg into a tea.Cmd for immediate delivery.
func done(msg DoneMsg) tea.Cmd {
	return func() tea.Msg { return msg }
}
