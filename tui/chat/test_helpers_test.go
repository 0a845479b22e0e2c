package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/novaterm/domain"
	"github.com/CrestNiraj12/novaterm/feedsync"
)

var testConv = domain.Community("3")

type fakeEngine struct {
	mu         sync.Mutex
	updates    chan feedsync.Update
	intent     feedsync.ScrollIntent
	scrolls    []feedsync.ScrollPosition
	dispatched []domain.Mutation
	opened     []domain.ConversationID
	dispatchFn func(domain.Mutation) error
	olderCalls int
	refreshes  int
	resumes    int
	epoch      uint64
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{updates: make(chan feedsync.Update, 4), epoch: 1}
}

func (f *fakeEngine) Open(_ context.Context, conv domain.ConversationID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, conv)
	return nil
}

func (f *fakeEngine) Close()                          {}
func (f *fakeEngine) Updates() <-chan feedsync.Update { return f.updates }
func (f *fakeEngine) Anchor() feedsync.ScrollAnchor   { return feedsync.ScrollAnchor{Tolerance: 3} }

func (f *fakeEngine) ResumeLive(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
	return nil
}

func (f *fakeEngine) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

func (f *fakeEngine) LoadOlder(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.olderCalls++
	return nil
}

func (f *fakeEngine) Conversation() (domain.ConversationID, uint64, bool) {
	return testConv, f.epoch, true
}

func (f *fakeEngine) OnScroll(pos feedsync.ScrollPosition) feedsync.ScrollIntent {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrolls = append(f.scrolls, pos)
	return f.intent
}

func (f *fakeEngine) Dispatch(_ context.Context, m domain.Mutation) error {
	f.mu.Lock()
	f.dispatched = append(f.dispatched, m)
	fn := f.dispatchFn
	f.mu.Unlock()
	if fn != nil {
		return fn(m)
	}
	return nil
}

func (f *fakeEngine) lastDispatched(t *testing.T) domain.Mutation {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.dispatched) == 0 {
		t.Fatalf("nothing was dispatched")
	}
	return f.dispatched[len(f.dispatched)-1]
}

func testMessages(from, to int) []domain.Message {
	out := make([]domain.Message, 0, to-from)
	for seq := from; seq < to; seq++ {
		out = append(out, domain.Message{
			ID:         fmt.Sprintf("m-%d", seq),
			Sequence:   seq,
			SenderID:   "2",
			SenderName: "ada",
			Type:       domain.MessageText,
			Content:    fmt.Sprintf("message %d", seq),
		})
	}
	return out
}

func testUpdate(epoch uint64, change feedsync.Change, msgs []domain.Message, total int, anchored bool) feedsync.Update {
	cursor := 0
	if n := len(msgs); n > 0 {
		cursor = total - (msgs[n-1].Sequence + 1)
	}
	return feedsync.Update{
		Conversation: testConv,
		Epoch:        epoch,
		Change:       change,
		Snapshot: feedsync.Snapshot{
			Conversation:     testConv,
			Messages:         msgs,
			KnownTotal:       total,
			Cursor:           cursor,
			AnchoredToBottom: anchored,
			HasMoreHistory:   len(msgs) > 0 && msgs[0].Sequence > 0,
			Access:           domain.Access{Moderator: true},
		},
	}
}

func newTestModel(t *testing.T, e *fakeEngine) Model {
	t.Helper()
	m := New(Deps{Engine: e, ViewerID: "1"}, testConv, "gophers")
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Msg) {
	t.Helper()
	m, cmd := m.Update(msg)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func atBottom(m Model) bool {
	return m.viewport.YOffset == max(m.viewport.TotalLineCount()-m.viewport.Height, 0)
}
