package inbox

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/CrestNiraj12/novaterm/app"
	"github.com/CrestNiraj12/novaterm/domain"
	"github.com/CrestNiraj12/novaterm/tui/common"
)

// Deps holds what the inbox needs from the outside.
type Deps struct {
	Directory app.DirectoryService
	ViewerID  string
	Interval  time.Duration
}

// --- Messages ---

// OpenMsg asks the parent to open a conversation.
type OpenMsg struct {
	Conversation domain.ConversationID
	Title        string
}

type loadedMsg struct {
	reqSeq      int
	communities []domain.CommunitySummary
	dms         []domain.InboxEntry
	err         error
}

type tickMsg struct {
	reqSeq int
}

// --- Model ---

type row struct {
	conv  domain.ConversationID
	title string
	dm    *domain.InboxEntry
}

// Model lists joined communities and direct chats, refreshed on a timer.
type Model struct {
	dir      app.DirectoryService
	viewerID string
	interval time.Duration
	keys     common.KeyMap
	spinner  spinner.Model

	communities []domain.CommunitySummary
	dms         []domain.InboxEntry
	loaded      bool
	reqSeq      int
	err         error
	cursor      int
	width       int
	height      int
}

// New creates the inbox. A zero interval falls back to three seconds.
func New(d Deps) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = common.TimestampStyle
	if d.Interval <= 0 {
		d.Interval = 3 * time.Second
	}
	return Model{
		dir:      d.Directory,
		viewerID: d.ViewerID,
		interval: d.Interval,
		keys:     common.DefaultKeyMap(),
		spinner:  s,
		width:    80,
		height:   24,
	}
}

// Init starts the first fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(m.reqSeq), m.spinner.Tick)
}

// Refresh starts a fetch now. Any fetch or tick already in flight is
// superseded.
func (m Model) Refresh() (Model, tea.Cmd) {
	m.reqSeq++
	return m, m.fetch(m.reqSeq)
}

func (m Model) fetch(reqSeq int) tea.Cmd {
	dir := m.dir
	return func() tea.Msg {
		var (
			communities []domain.CommunitySummary
			dms         []domain.InboxEntry
		)
		g, ctx := errgroup.WithContext(context.Background())
		g.Go(func() error {
			var err error
			communities, err = dir.Communities(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			dms, err = dir.Inbox(ctx)
			return err
		})
		err := g.Wait()
		return loadedMsg{reqSeq: reqSeq, communities: communities, dms: dms, err: err}
	}
}

func (m Model) scheduleTick() tea.Cmd {
	seq := m.reqSeq
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return tickMsg{reqSeq: seq}
	})
}

// Update handles messages for the inbox.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case loadedMsg:
		if msg.reqSeq != m.reqSeq {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			return m, m.scheduleTick()
		}
		selected, hadSelection := m.selectedRow()
		m.err = nil
		m.loaded = true
		m.communities = msg.communities
		m.dms = msg.dms
		m.restoreCursor(selected, hadSelection)
		return m, m.scheduleTick()

	case tickMsg:
		if msg.reqSeq != m.reqSeq {
			return m, nil
		}
		return m.Refresh()

	case spinner.TickMsg:
		if m.loaded {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		rows := m.rows()
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(rows)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Refresh):
			return m.Refresh()
		case key.Matches(msg, m.keys.Open):
			if r, ok := m.selectedRow(); ok {
				return m, func() tea.Msg { return OpenMsg{Conversation: r.conv, Title: r.title} }
			}
		}
	}
	return m, nil
}

// rows lists communities first, then direct chats.
func (m Model) rows() []row {
	out := make([]row, 0, len(m.communities)+len(m.dms))
	for _, c := range m.communities {
		out = append(out, row{conv: domain.Community(c.ID), title: c.Name})
	}
	for i := range m.dms {
		e := &m.dms[i]
		out = append(out, row{conv: e.Conversation(), title: e.PeerName, dm: e})
	}
	return out
}

func (m Model) selectedRow() (row, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return row{}, false
	}
	return rows[m.cursor], true
}

// restoreCursor keeps the cursor on the same conversation across refreshes,
// since new direct messages reorder the list.
func (m *Model) restoreCursor(prev row, ok bool) {
	rows := m.rows()
	if ok {
		for i, r := range rows {
			if r.conv == prev.conv {
				m.cursor = i
				return
			}
		}
	}
	m.cursor = min(max(m.cursor, 0), max(len(rows)-1, 0))
}

// UnreadTotal sums unread direct messages.
func (m Model) UnreadTotal() int {
	n := 0
	for _, e := range m.dms {
		n += e.Unread
	}
	return n
}
