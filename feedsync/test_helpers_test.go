package feedsync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/CrestNiraj12/novaterm/app"
	"github.com/CrestNiraj12/novaterm/domain"
)

var testConv = domain.Community("3")

func testMessage(seq int) domain.Message {
	return domain.Message{
		ID:       fmt.Sprintf("m-%d", seq),
		Sequence: seq,
		SenderID: "1",
		Content:  fmt.Sprintf("message %d", seq),
		Type:     domain.MessageText,
	}
}

func testPage(total int, seqs ...int) domain.Page {
	records := make([]domain.Message, 0, len(seqs))
	for _, s := range seqs {
		records = append(records, testMessage(s))
	}
	return domain.Page{Records: records, Total: total}
}

func seqRange(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

// logFeed serves an in-memory log with newest-first offset paging.
type logFeed struct {
	mu    sync.Mutex
	msgs  []domain.Message
	calls []int
	gates map[int]chan struct{}
	err   error
	once  error // returned by the next fetch only

	title  string
	access domain.Access
}

func newLogFeed(n int) *logFeed {
	f := &logFeed{gates: map[int]chan struct{}{}}
	for i := 0; i < n; i++ {
		f.msgs = append(f.msgs, testMessage(i))
	}
	return f
}

func (f *logFeed) FetchPage(_ context.Context, _ domain.ConversationID, offset, limit int) (domain.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, offset)
	gate := f.gates[offset]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.once; err != nil {
		f.once = nil
		return domain.Page{}, err
	}
	if f.err != nil {
		return domain.Page{}, f.err
	}
	total := len(f.msgs)
	end := max(total-offset, 0)
	start := max(end-limit, 0)
	return domain.Page{
		Records: append([]domain.Message(nil), f.msgs[start:end]...),
		Total:   total,
		Title:   f.title,
		Access:  f.access,
	}, nil
}

func (f *logFeed) appendMessage(content string) domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := testMessage(len(f.msgs))
	m.Content = content
	f.msgs = append(f.msgs, m)
	return m
}

func (f *logFeed) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *logFeed) setAccess(a domain.Access) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = a
}

func (f *logFeed) failNext(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.once = err
}

// block makes fetches at offset wait until the returned func is called.
func (f *logFeed) block(t *testing.T, offset int) func() {
	t.Helper()
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[offset] = gate
	f.mu.Unlock()
	var once sync.Once
	release := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.gates, offset)
			f.mu.Unlock()
			close(gate)
		})
	}
	t.Cleanup(release)
	return release
}

func (f *logFeed) callsAt(offset int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.calls {
		if o == offset {
			n++
		}
	}
	return n
}

type mutationCall struct {
	name   string
	ref    app.MessageRef
	detail string
}

// stubMutations records calls and appends sent messages to feed.
type stubMutations struct {
	mu    sync.Mutex
	feed  *logFeed
	err   error
	calls []mutationCall
}

func (s *stubMutations) record(name string, ref app.MessageRef, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, mutationCall{name: name, ref: ref, detail: detail})
	return s.err
}

func (s *stubMutations) SendMessage(_ context.Context, _ domain.ConversationID, msg domain.Send) error {
	if err := s.record("send", app.MessageRef{}, msg.Content); err != nil {
		return err
	}
	if s.feed != nil {
		s.feed.appendMessage(msg.Content)
	}
	return nil
}

func (s *stubMutations) VoteMessage(_ context.Context, _ domain.ConversationID, ref app.MessageRef) error {
	return s.record("vote", ref, "")
}

func (s *stubMutations) PinMessage(_ context.Context, _ domain.ConversationID, ref app.MessageRef) error {
	return s.record("pin", ref, "")
}

func (s *stubMutations) DeleteMessage(_ context.Context, _ domain.ConversationID, ref app.MessageRef) error {
	return s.record("delete", ref, "")
}

func (s *stubMutations) BanUser(_ context.Context, _ domain.ConversationID, userID string) error {
	return s.record("ban", app.MessageRef{}, userID)
}

func (s *stubMutations) LeaveConversation(_ context.Context, _ domain.ConversationID) error {
	return s.record("leave", app.MessageRef{}, "")
}

func (s *stubMutations) JoinConversation(_ context.Context, _ domain.ConversationID) error {
	return s.record("join", app.MessageRef{}, "")
}

func (s *stubMutations) CreatePoll(_ context.Context, _ domain.ConversationID, poll domain.CreatePoll) error {
	detail := poll.Question + "|" + strings.Join(poll.Options, "|")
	if err := s.record("create_poll", app.MessageRef{}, detail); err != nil {
		return err
	}
	if s.feed != nil {
		s.feed.appendMessage(poll.Question)
	}
	return nil
}

func (s *stubMutations) VotePoll(_ context.Context, _ domain.ConversationID, ref app.MessageRef, optionID string) error {
	return s.record("vote_poll", ref, optionID)
}

func (s *stubMutations) React(_ context.Context, _ domain.ConversationID, ref app.MessageRef, reaction string) error {
	return s.record("react", ref, reaction)
}

func (s *stubMutations) recorded() []mutationCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mutationCall(nil), s.calls...)
}

func newTestController(t *testing.T, feed app.FeedService, muts app.MutationService, cfg Config) *Controller {
	t.Helper()
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Hour
	}
	c := NewController(Deps{Feed: feed, Mutations: muts, Config: cfg})
	t.Cleanup(c.Close)
	return c
}

func openController(t *testing.T, c *Controller) {
	t.Helper()
	if err := c.Open(context.Background(), testConv); err != nil {
		t.Fatalf("open: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitUpdate(t *testing.T, c *Controller, match func(Update) bool) Update {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case u := <-c.Updates():
			if match(u) {
				return u
			}
		case <-timeout:
			t.Fatalf("timed out waiting for update")
			return Update{}
		}
	}
}

func drainUpdates(c *Controller) {
	for {
		select {
		case <-c.Updates():
		default:
			return
		}
	}
}

func mustSnapshot(t *testing.T, c *Controller) Snapshot {
	t.Helper()
	snap, ok := c.Snapshot()
	if !ok {
		t.Fatalf("expected an open conversation")
	}
	return snap
}

func checkWindowInvariants(t *testing.T, w *Window) {
	t.Helper()
	seen := map[string]bool{}
	for i, m := range w.loaded {
		if seen[m.ID] {
			t.Fatalf("duplicate id %q in window", m.ID)
		}
		seen[m.ID] = true
		if i > 0 && w.loaded[i-1].Sequence >= m.Sequence {
			t.Fatalf("window not strictly ascending at %d: %d then %d", i, w.loaded[i-1].Sequence, m.Sequence)
		}
	}
	if len(w.loaded) > w.knownTotal {
		t.Fatalf("loaded %d exceeds known total %d", len(w.loaded), w.knownTotal)
	}
}
