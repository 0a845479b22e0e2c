package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/CrestNiraj12/novaterm/app"
	"github.com/CrestNiraj12/novaterm/domain"
	"github.com/CrestNiraj12/novaterm/infra/config"
	"github.com/CrestNiraj12/novaterm/tui/chat"
	"github.com/CrestNiraj12/novaterm/tui/common"
	"github.com/CrestNiraj12/novaterm/tui/inbox"
)

// Deps holds all dependencies the TUI needs. Plain struct, not a DI container.
type Deps struct {
	Engine        chat.Engine
	Directory     app.DirectoryService
	Editor        app.Composer
	ViewerID      string
	InboxInterval time.Duration
	StatePath     string // Empty disables persisting UI state
	State         config.UIState
	Logger        *zap.Logger
}

type activeView int

const (
	inboxView activeView = iota
	chatView
)

// App is the root Bubble Tea model. It routes between the inbox and one
// open chat.
type App struct {
	deps    Deps
	log     *zap.Logger
	active  activeView
	inbox   inbox.Model
	chat    chat.Model
	hasChat bool
	keys    common.KeyMap
	state   config.UIState
	size    tea.WindowSizeMsg
	status  string // Transient status message (e.g. "Left gophers.")
}

// NewApp creates the root model with all dependencies wired.
func NewApp(deps Deps) App {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return App{
		deps:   deps,
		log:    log.Named("tui"),
		active: inboxView,
		inbox: inbox.New(inbox.Deps{
			Directory: deps.Directory,
			ViewerID:  deps.ViewerID,
			Interval:  deps.InboxInterval,
		}),
		keys:  common.DefaultKeyMap(),
		state: deps.State,
	}
}

// Init starts the inbox, the engine listener and, when one was open last
// time, the previous conversation.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.inbox.Init(),
		chat.WaitForUpdate(a.deps.Engine.Updates()),
	}
	if a.state.LastConversation != "" {
		conv, err := domain.ParseConversationID(a.state.LastConversation)
		if err == nil {
			cmds = append(cmds, func() tea.Msg { return inbox.OpenMsg{Conversation: conv} })
		}
	}
	return tea.Batch(cmds...)
}

// Update handles messages and routes to the active sub-model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.size = msg
		var cmd tea.Cmd
		a.inbox, _ = a.inbox.Update(msg)
		if a.hasChat {
			a.chat, cmd = a.chat.Update(msg)
		}
		return a, cmd

	case tea.KeyMsg:
		// Global key bindings, handled regardless of active view.
		if key.Matches(msg, a.keys.ForceQuit) {
			a.deps.Engine.Close()
			return a, tea.Quit
		}
		a.status = ""
		if a.active == inboxView {
			if key.Matches(msg, a.keys.Quit) {
				a.deps.Engine.Close()
				return a, tea.Quit
			}
			var cmd tea.Cmd
			a.inbox, cmd = a.inbox.Update(msg)
			return a, cmd
		}
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(msg)
		return a, cmd

	case chat.UpdateMsg:
		var cmd tea.Cmd
		if a.hasChat {
			a.chat, cmd = a.chat.Update(msg)
		}
		return a, tea.Batch(cmd, chat.WaitForUpdate(a.deps.Engine.Updates()))

	case inbox.OpenMsg:
		return a.openChat(msg)

	case chat.BackMsg:
		return a.closeChat("")

	case chat.LeftMsg:
		return a.closeChat("Left " + a.chat.Title() + ".")

	case chat.PrefsChangedMsg:
		a.state.ShowTimestamps = msg.ShowTimestamps
		return a, a.saveState()
	}

	// Everything else (fetch results, ticks, spinners) goes to both views;
	// each ignores what is not addressed to it.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.inbox, cmd = a.inbox.Update(msg)
	cmds = append(cmds, cmd)
	if a.hasChat {
		a.chat, cmd = a.chat.Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a App) openChat(msg inbox.OpenMsg) (tea.Model, tea.Cmd) {
	a.chat = chat.New(chat.Deps{
		Engine:         a.deps.Engine,
		Editor:         a.deps.Editor,
		ViewerID:       a.deps.ViewerID,
		ShowTimestamps: a.state.ShowTimestamps,
	}, msg.Conversation, msg.Title)
	a.hasChat = true
	a.active = chatView
	a.status = ""
	if a.size.Width > 0 {
		a.chat, _ = a.chat.Update(a.size)
	}
	a.state.LastConversation = msg.Conversation.String()
	a.log.Info("opening conversation", zap.Stringer("conversation", msg.Conversation))
	return a, tea.Batch(a.chat.Init(), a.saveState())
}

func (a App) closeChat(status string) (tea.Model, tea.Cmd) {
	a.deps.Engine.Close()
	a.active = inboxView
	a.hasChat = false
	a.status = status
	a.state.LastConversation = ""
	var cmd tea.Cmd
	a.inbox, cmd = a.inbox.Refresh()
	return a, tea.Batch(cmd, a.saveState())
}

func (a App) saveState() tea.Cmd {
	path, st, log := a.deps.StatePath, a.state, a.log
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		if err := config.SaveUIState(path, st); err != nil {
			log.Warn("saving ui state failed", zap.Error(err))
		}
		return nil
	}
}

// View renders the active sub-model.
func (a App) View() string {
	var s string

	switch a.active {
	case inboxView:
		s = a.inbox.View()
	case chatView:
		s = a.chat.View()
	}

	// Append transient status if present.
	if a.status != "" {
		s += "\n" + common.StatusBarStyle.Render(a.status)
	}

	return s
}
