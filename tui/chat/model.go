// Package chat renders one open conversation and turns key presses into
// engine calls. The window itself lives in feedsync; this package only
// keeps the last snapshot it was given.
package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/novaterm/app"
	"github.com/CrestNiraj12/novaterm/domain"
	"github.com/CrestNiraj12/novaterm/feedsync"
	"github.com/CrestNiraj12/novaterm/tui/common"
	"github.com/CrestNiraj12/novaterm/tui/compose"
)

// Engine is the part of feedsync.Controller the chat view drives.
type Engine interface {
	Open(ctx context.Context, conv domain.ConversationID) error
	Close()
	Updates() <-chan feedsync.Update
	Anchor() feedsync.ScrollAnchor
	Conversation() (domain.ConversationID, uint64, bool)
	OnScroll(pos feedsync.ScrollPosition) feedsync.ScrollIntent
	LoadOlder(ctx context.Context) error
	Refresh(ctx context.Context) error
	ResumeLive(ctx context.Context) error
	Dispatch(ctx context.Context, m domain.Mutation) error
}

// Deps holds what the chat view needs from the outside.
type Deps struct {
	Engine         Engine
	Editor         app.Composer
	ViewerID       string
	ShowTimestamps bool
}

// --- Messages ---

// UpdateMsg carries one engine update into the Bubble Tea loop.
type UpdateMsg struct {
	Update feedsync.Update
}

// BackMsg asks the parent to return to the inbox.
type BackMsg struct{}

// LeftMsg reports that the viewer left Conversation.
type LeftMsg struct {
	Conversation domain.ConversationID
}

// PrefsChangedMsg reports a display preference the parent may persist.
type PrefsChangedMsg struct {
	ShowTimestamps bool
}

type openedMsg struct {
	conv  domain.ConversationID
	epoch uint64
	err   error
}

type historyMsg struct {
	err error
}

type refreshMsg struct {
	err error
}

type mutationMsg struct {
	mutation domain.Mutation
	err      error
}

// WaitForUpdate blocks on ch and delivers the next engine update. The parent
// re-issues it after every UpdateMsg so exactly one listener is active.
func WaitForUpdate(ch <-chan feedsync.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return UpdateMsg{Update: u}
	}
}

// --- Model ---

type focus int

const (
	focusInput focus = iota
	focusBrowse
)

type pendingConfirm struct {
	prompt   string
	mutation domain.Mutation
}

// Model is the chat view for one conversation.
type Model struct {
	engine   Engine
	viewerID string
	conv     domain.ConversationID
	title    string
	keys     common.KeyMap

	viewport viewport.Model
	input    compose.Model
	spinner  spinner.Model
	focus    focus

	snap     feedsync.Snapshot
	hasSnap  bool
	epoch    uint64
	loadErr  error
	offsets  []int // first content line of each message in snap.Messages
	selected string

	loadingOlder bool
	confirm      *pendingConfirm
	showTimes    bool
	showHints    bool
	status       string
	width        int
	height       int
}

// New creates a chat view for conv. Nothing is fetched until Init.
func New(d Deps, conv domain.ConversationID, title string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = common.TimestampStyle

	if title == "" {
		title = conv.String()
	}
	m := Model{
		engine:    d.Engine,
		viewerID:  d.ViewerID,
		conv:      conv,
		title:     title,
		keys:      common.DefaultKeyMap(),
		viewport:  viewport.New(80, 20),
		input:     compose.New(d.Editor),
		spinner:   s,
		showTimes: d.ShowTimestamps,
		width:     80,
		height:    30,
	}
	m.input.Focus()
	return m
}

// Init opens the conversation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.open(), m.spinner.Tick)
}

// Conversation returns the conversation this view shows.
func (m Model) Conversation() domain.ConversationID { return m.conv }

// Title returns the display name of the conversation.
func (m Model) Title() string { return m.title }

// Snapshot returns the last applied window snapshot.
func (m Model) Snapshot() (feedsync.Snapshot, bool) { return m.snap, m.hasSnap }

// Capturing reports whether key presses belong to the input box, so the
// parent must not treat them as global shortcuts.
func (m Model) Capturing() bool {
	return m.focus == focusInput || m.confirm != nil
}

// --- Commands ---

func (m Model) open() tea.Cmd {
	engine, conv := m.engine, m.conv
	return func() tea.Msg {
		err := engine.Open(context.Background(), conv)
		_, epoch, _ := engine.Conversation()
		return openedMsg{conv: conv, epoch: epoch, err: err}
	}
}

func (m Model) loadOlder() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		return historyMsg{err: engine.LoadOlder(context.Background())}
	}
}

func (m Model) refresh() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		return refreshMsg{err: engine.Refresh(context.Background())}
	}
}

func (m Model) resumeLive() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		return refreshMsg{err: engine.ResumeLive(context.Background())}
	}
}

func (m Model) dispatch(mut domain.Mutation) tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		return mutationMsg{mutation: mut, err: engine.Dispatch(context.Background(), mut)}
	}
}
