package chat

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/novaterm/domain"
	"github.com/CrestNiraj12/novaterm/feedsync"
	"github.com/CrestNiraj12/novaterm/tui/compose"
)

var reactions = []string{"👍", "❤️", "😂", "😮", "😢"}

// Update handles messages for the chat view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case UpdateMsg:
		return m.applyUpdate(msg.Update)

	case openedMsg:
		if msg.conv != m.conv {
			return m, nil
		}
		m.epoch = max(m.epoch, msg.epoch)
		if msg.err != nil && !m.hasSnap {
			m.loadErr = msg.err
		}
		return m, nil

	case historyMsg:
		m.loadingOlder = false
		m.rerender()
		m.setStatusErr(msg.err)
		return m, nil

	case refreshMsg:
		if errors.Is(msg.err, domain.ErrRateExceeded) {
			m.status = "Already up to date."
			return m, nil
		}
		m.setStatusErr(msg.err)
		return m, nil

	case mutationMsg:
		return m.handleMutationResult(msg)

	case compose.DoneMsg:
		if msg.Err != nil {
			m.status = "Error: " + msg.Err.Error()
			return m, nil
		}
		if msg.Content == "" {
			m.status = "Cancelled."
			return m, nil
		}
		if m.guest() {
			m.status = "Join " + m.title + " to write here (J)."
			return m, nil
		}
		if poll, ok := parsePoll(msg.Content); ok {
			m.status = "Creating poll..."
			return m, m.dispatch(poll)
		}
		m.status = "Sending..."
		return m, m.dispatch(domain.Send{Content: msg.Content, Type: domain.MessageText, ReplyToID: msg.ReplyToID})

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.loadingOlder || !m.hasSnap {
			m.rerender()
		}
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		scrollCmd := m.afterScroll()
		return m, tea.Batch(cmd, scrollCmd)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// applyUpdate installs a new snapshot and re-anchors the viewport. Updates
// for another conversation or an older session are ignored.
func (m Model) applyUpdate(u feedsync.Update) (Model, tea.Cmd) {
	if u.Conversation != m.conv || u.Epoch < m.epoch {
		return m, nil
	}
	m.epoch = u.Epoch
	if u.Err != nil {
		m.loadErr = u.Err
		return m, nil
	}
	m.loadErr = nil

	m.snap = u.Snapshot
	m.hasSnap = true
	if u.Snapshot.Title != "" && m.title == m.conv.String() {
		m.title = u.Snapshot.Title
	}
	if u.Change == feedsync.ChangeHistory {
		m.loadingOlder = false
	}
	m.layout()
	prev := m.position() // new height, old content
	m.keepSelection()
	m.rerender()

	m.engine.Anchor().Apply(viewportAdapter{vp: &m.viewport}, u.Change, u.Snapshot.AnchoredToBottom, prev)
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.confirm != nil {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			mut := m.confirm.mutation
			m.confirm = nil
			m.status = "Working..."
			return m, m.dispatch(mut)
		case key.Matches(msg, m.keys.Cancel):
			m.confirm = nil
			m.status = "Cancelled."
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Refresh) {
		m.status = "Refreshing..."
		return m, m.refresh()
	}
	if key.Matches(msg, m.keys.Focus) {
		return m.toggleFocus()
	}

	if m.focus == focusInput {
		if key.Matches(msg, m.keys.Back) {
			if m.input.ReplyTo() != "" {
				m.input.ClearReply()
				m.layout()
				return m, nil
			}
			return m.toggleFocus()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m.handleBrowseKey(msg)
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
		cmd := m.afterScroll()
		return m, cmd

	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
		cmd := m.afterScroll()
		return m, cmd

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height)
		cmd := m.afterScroll()
		return m, cmd

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height)
		cmd := m.afterScroll()
		return m, cmd

	case key.Matches(msg, m.keys.Bottom):
		m.selectLast()
		m.rerender()
		m.viewport.GotoBottom()
		cmd := m.afterScroll()
		return m, cmd

	case key.Matches(msg, m.keys.Timestamps):
		m.showTimes = !m.showTimes
		m.rerender()
		show := m.showTimes
		return m, func() tea.Msg { return PrefsChangedMsg{ShowTimestamps: show} }

	case key.Matches(msg, m.keys.ToggleHints):
		m.showHints = !m.showHints
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Leave):
		m.confirm = &pendingConfirm{prompt: "Leave " + m.title + "?", mutation: domain.Leave{}}
		return m, nil

	case key.Matches(msg, m.keys.Join):
		if !m.guest() {
			return m, nil
		}
		m.status = "Joining..."
		return m, m.dispatch(domain.Join{})

	case key.Matches(msg, m.keys.NewPoll):
		if m.conv.Kind != domain.KindCommunity || m.guest() {
			return m, nil
		}
		m.input.SetValue(pollPrefix)
		return m.toggleFocus()
	}

	sel, ok := m.selectedMessage()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Reply):
		label := sel.SenderName
		if sel.SenderID == m.viewerID {
			label = "yourself"
		}
		m.input.SetReply(sel.ID, label)
		m.layout()
		return m.toggleFocus()

	case key.Matches(msg, m.keys.Vote):
		return m, m.dispatch(domain.Vote{MessageID: sel.ID})

	case key.Matches(msg, m.keys.Pin):
		if !m.canModerate() {
			return m, nil
		}
		return m, m.dispatch(domain.Pin{MessageID: sel.ID})

	case key.Matches(msg, m.keys.Delete):
		m.confirm = &pendingConfirm{prompt: "Delete this message?", mutation: domain.Delete{MessageID: sel.ID}}
		return m, nil

	case key.Matches(msg, m.keys.Ban):
		if !m.canModerate() {
			return m, nil
		}
		if sel.SenderID == m.viewerID {
			m.status = "You can't ban yourself."
			return m, nil
		}
		m.confirm = &pendingConfirm{
			prompt:   "Ban " + sel.SenderName + " from " + m.title + "?",
			mutation: domain.Ban{UserID: sel.SenderID},
		}
		return m, nil

	case key.Matches(msg, m.keys.React):
		return m, m.dispatch(domain.React{MessageID: sel.ID, Reaction: nextReaction(sel.Reaction)})

	case key.Matches(msg, m.keys.PollOption):
		n, _ := strconv.Atoi(msg.String())
		if sel.Poll == nil || n < 1 || n > len(sel.Poll.Options) {
			return m, nil
		}
		return m, m.dispatch(domain.VotePoll{MessageID: sel.ID, OptionID: sel.Poll.Options[n-1].ID})
	}
	return m, nil
}

func (m Model) handleMutationResult(msg mutationMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		m.status = "Error: " + msg.err.Error()
		return m, nil
	}
	switch msg.mutation.(type) {
	case domain.Send:
		m.status = "Sent."
		m.viewport.GotoBottom()
	case domain.Leave:
		conv := m.conv
		return m, func() tea.Msg { return LeftMsg{Conversation: conv} }
	case domain.Delete:
		m.status = "Deleted."
	case domain.Ban:
		m.status = "User banned."
	case domain.Join:
		m.status = "Joined " + m.title + "."
	case domain.CreatePoll:
		m.status = "Poll created."
		m.viewport.GotoBottom()
	default:
		m.status = ""
	}
	return m, nil
}

func (m Model) toggleFocus() (Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == focusInput {
		m.focus = focusBrowse
		m.input.Blur()
		if m.selected == "" {
			m.selectLast()
		}
	} else {
		m.focus = focusInput
		cmd = m.input.Focus()
	}
	m.rerender()
	return m, cmd
}

// afterScroll reports the new position to the engine and acts on its answer.
func (m *Model) afterScroll() tea.Cmd {
	switch m.engine.OnScroll(m.position()) {
	case feedsync.IntentLoadOlder:
		if m.loadingOlder {
			return nil
		}
		m.loadingOlder = true
		m.rerender()
		return m.loadOlder()
	case feedsync.IntentResumeLive:
		return m.resumeLive()
	}
	return nil
}

// guest reports whether the viewer reads a community they have not joined.
func (m Model) guest() bool {
	return m.conv.Kind == domain.KindCommunity && m.hasSnap && m.snap.Access.Guest
}

// canModerate gates the pin and ban keys.
func (m Model) canModerate() bool {
	return m.conv.Kind == domain.KindCommunity && m.snap.Access.CanModerate()
}

const pollPrefix = "/poll "

// parsePoll reads "/poll [-m] question | option | option". Validation of the
// question and options is left to the dispatcher.
func parsePoll(content string) (domain.CreatePoll, bool) {
	rest, ok := strings.CutPrefix(content, strings.TrimSpace(pollPrefix))
	if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\n') {
		return domain.CreatePoll{}, false
	}
	rest = strings.TrimSpace(rest)
	var poll domain.CreatePoll
	if r, ok := strings.CutPrefix(rest, "-m "); ok {
		poll.Multi = true
		rest = r
	}
	parts := strings.Split(rest, "|")
	poll.Question = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		poll.Options = append(poll.Options, strings.TrimSpace(opt))
	}
	return poll, true
}

// setStatusErr shows err unless it is one the viewer cannot act on.
func (m *Model) setStatusErr(err error) {
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrStaleFetch),
		errors.Is(err, domain.ErrBusy),
		errors.Is(err, domain.ErrNoHistory),
		errors.Is(err, domain.ErrClosed):
	case errors.Is(err, domain.ErrNetwork):
		m.status = "Connection problem: " + err.Error()
	default:
		m.status = "Error: " + err.Error()
	}
}

// --- Selection and layout ---

func (m *Model) moveSelection(delta int) {
	msgs := m.snap.Messages
	if len(msgs) == 0 {
		return
	}
	idx := m.selectedIndex()
	if idx < 0 {
		idx = len(msgs) - 1
	} else {
		idx += delta
	}
	if idx < 0 {
		// Past the first loaded message: reveal the banner so the engine
		// sees the top and pages in history.
		m.viewport.SetYOffset(0)
		return
	}
	idx = min(idx, len(msgs)-1)
	m.selected = msgs[idx].ID
	m.rerender()
	m.ensureVisible(idx)
}

func (m *Model) selectLast() {
	if n := len(m.snap.Messages); n > 0 {
		m.selected = m.snap.Messages[n-1].ID
	}
}

func (m Model) selectedIndex() int {
	for i, msg := range m.snap.Messages {
		if msg.ID == m.selected {
			return i
		}
	}
	return -1
}

func (m Model) selectedMessage() (domain.Message, bool) {
	if m.selected == "" {
		return domain.Message{}, false
	}
	return m.snap.Find(m.selected)
}

// keepSelection drops a selection whose message left the window.
func (m *Model) keepSelection() {
	if m.selected == "" {
		return
	}
	if _, ok := m.snap.Find(m.selected); !ok {
		m.selected = ""
		if m.focus == focusBrowse {
			m.selectLast()
		}
	}
}

// ensureVisible scrolls the least amount that shows message idx.
func (m *Model) ensureVisible(idx int) {
	if idx < 0 || idx >= len(m.offsets) {
		return
	}
	start := m.offsets[idx]
	end := m.viewport.TotalLineCount()
	if idx+1 < len(m.offsets) {
		end = m.offsets[idx+1]
	}
	switch {
	case start < m.viewport.YOffset:
		m.viewport.SetYOffset(start)
	case end > m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(min(start, end-m.viewport.Height))
	}
}

func (m Model) position() feedsync.ScrollPosition {
	return feedsync.ScrollPosition{
		Offset:     m.viewport.YOffset,
		ViewHeight: m.viewport.Height,
		Extent:     m.viewport.TotalLineCount(),
	}
}

// rerender refreshes the viewport content without moving it.
func (m *Model) rerender() {
	content, offsets := m.renderContent(time.Now())
	offset := m.viewport.YOffset
	m.viewport.SetContent(content)
	m.viewport.SetYOffset(offset)
	m.offsets = offsets
}

// layout sizes the viewport to what the surrounding chrome leaves.
func (m *Model) layout() {
	chrome := 1 + len(m.snap.Pinned) + 1 // header, pins, status
	chrome += 4                           // input, its hint and reply lines
	if m.showHints {
		chrome++
	}
	m.viewport.Width = max(m.width, 20)
	m.viewport.Height = max(m.height-chrome, 3)
	m.input.SetWidth(m.width - 2)
}

func nextReaction(current string) string {
	for i, r := range reactions {
		if r == current {
			return reactions[(i+1)%len(reactions)]
		}
	}
	return reactions[0]
}
