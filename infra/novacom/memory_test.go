package novacom

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/CrestNiraj12/novaterm/app"
	"github.com/CrestNiraj12/novaterm/domain"
	"github.com/CrestNiraj12/novaterm/feedsync"
)

func newSeededBackend(t *testing.T, messages int) *MemoryBackend {
	t.Helper()
	b := NewMemoryBackend()
	b.AddUser(1, "you", "pw")
	b.AddUser(2, "ada", "pw")
	b.AddCommunity(3, "gophers", 1, 2)
	b.AddModerator(3, 1)
	for i := 0; i < messages; i++ {
		b.Post(3, 2, fmt.Sprintf("message %d", i))
	}
	return b
}

func TestMemoryBackendPaging(t *testing.T) {
	b := newSeededBackend(t, 200)
	feed := NewFeedService(b, "1")
	tests := []struct {
		offset, limit   int
		wantFirst, want int
	}{
		{offset: 0, limit: 50, wantFirst: 150, want: 50},
		{offset: 50, limit: 50, wantFirst: 100, want: 50},
		{offset: 180, limit: 50, wantFirst: 0, want: 20},
		{offset: 250, limit: 50, want: 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("offset %d", tt.offset), func(t *testing.T) {
			page, err := feed.FetchPage(context.Background(), domain.Community("3"), tt.offset, tt.limit)
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if page.Total != 200 || len(page.Records) != tt.want {
				t.Fatalf("page: total %d records %d want 200 and %d", page.Total, len(page.Records), tt.want)
			}
			if tt.want > 0 && page.Records[0].Sequence != tt.wantFirst {
				t.Fatalf("first sequence: got %d want %d", page.Records[0].Sequence, tt.wantFirst)
			}
		})
	}
}

func TestMemoryBackendPinKeepsTwo(t *testing.T) {
	b := newSeededBackend(t, 5)
	muts := NewMutationService(b, "1")
	ctx := context.Background()
	for _, idx := range []int{0, 1, 2} {
		if err := muts.PinMessage(ctx, domain.Community("3"), app.MessageRef{Sequence: idx}); err != nil {
			t.Fatalf("pin %d: %v", idx, err)
		}
	}
	page, _ := NewFeedService(b, "1").FetchPage(ctx, domain.Community("3"), 0, 50)
	var pinned []int
	for _, m := range page.Records {
		if m.Pinned {
			pinned = append(pinned, m.Sequence)
		}
	}
	if len(pinned) != 2 || pinned[0] != 1 || pinned[1] != 2 {
		t.Fatalf("pinned: got %v want [1 2]", pinned)
	}

	err := NewMutationService(b, "2").PinMessage(ctx, domain.Community("3"), app.MessageRef{Sequence: 4})
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("non-moderator pin: got %v want *BackendError", err)
	}
}

func TestMemoryBackendUpvoteToggles(t *testing.T) {
	b := newSeededBackend(t, 3)
	muts := NewMutationService(b, "1")
	feed := NewFeedService(b, "1")
	ctx := context.Background()
	ref := app.MessageRef{Sequence: 2}

	_ = muts.VoteMessage(ctx, domain.Community("3"), ref)
	page, _ := feed.FetchPage(ctx, domain.Community("3"), 0, 50)
	if m := page.Records[2]; m.VoteCount != 1 || !m.ViewerHasVoted {
		t.Fatalf("after vote: got %d voted=%v", m.VoteCount, m.ViewerHasVoted)
	}
	_ = muts.VoteMessage(ctx, domain.Community("3"), ref)
	page, _ = feed.FetchPage(ctx, domain.Community("3"), 0, 50)
	if m := page.Records[2]; m.VoteCount != 0 || m.ViewerHasVoted {
		t.Fatalf("after second vote: got %d voted=%v", m.VoteCount, m.ViewerHasVoted)
	}
}

func TestMemoryBackendDeleteShiftsIndexes(t *testing.T) {
	b := newSeededBackend(t, 4)
	ctx := context.Background()
	if err := NewMutationService(b, "1").DeleteMessage(ctx, domain.Community("3"), app.MessageRef{Sequence: 1}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	page, _ := NewFeedService(b, "1").FetchPage(ctx, domain.Community("3"), 0, 50)
	if page.Total != 3 || page.Records[1].Content != "message 2" || page.Records[1].Sequence != 1 {
		t.Fatalf("after delete: total %d second %q at %d", page.Total, page.Records[1].Content, page.Records[1].Sequence)
	}
}

func TestMemoryBackendBanAndLeave(t *testing.T) {
	b := newSeededBackend(t, 1)
	b.AddCommunity(4, "other", 2)
	ctx := context.Background()

	if err := NewMutationService(b, "1").BanUser(ctx, domain.Community("3"), "2"); err != nil {
		t.Fatalf("ban: %v", err)
	}
	if err := NewMutationService(b, "2").SendMessage(ctx, domain.Community("3"), domain.Send{Content: "hi"}); err == nil {
		t.Fatalf("banned user could post")
	}
	if _, err := b.Call(ctx, "join_community", "2", "3"); err == nil {
		t.Fatalf("banned user could rejoin")
	}

	dir := NewDirectoryService(b, "2")
	comms, _ := dir.Communities(ctx)
	if len(comms) != 1 || comms[0].ID != "4" {
		t.Fatalf("communities after ban: got %+v", comms)
	}
	if err := NewMutationService(b, "2").LeaveConversation(ctx, domain.Community("4")); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if comms, _ := dir.Communities(ctx); len(comms) != 0 {
		t.Fatalf("communities after leave: got %+v", comms)
	}
}

func TestMemoryBackendJoinAndCreatePoll(t *testing.T) {
	b := newSeededBackend(t, 1)
	b.AddUser(3, "grace", "pw")
	b.AddCommunity(5, "lounge", 2)
	ctx := context.Background()
	lounge := domain.Community("5")
	feed := NewFeedService(b, "3")
	muts := NewMutationService(b, "3")
	poll := domain.CreatePoll{Question: "Lunch?", Multi: true, Options: []string{"pizza", "tacos"}}

	page, err := feed.FetchPage(ctx, lounge, 0, 50)
	if err != nil {
		t.Fatalf("fetch as guest: %v", err)
	}
	if !page.Access.Guest || page.Title != "lounge" {
		t.Fatalf("guest page: got %q %+v", page.Title, page.Access)
	}
	var backendErr *BackendError
	if err := muts.CreatePoll(ctx, lounge, poll); !errors.As(err, &backendErr) {
		t.Fatalf("guest created a poll: %v", err)
	}

	if err := muts.JoinConversation(ctx, lounge); err != nil {
		t.Fatalf("join: %v", err)
	}
	page, _ = feed.FetchPage(ctx, lounge, 0, 50)
	if page.Access.Guest || !page.Access.Moderator {
		t.Fatalf("first joiner of an unmoderated community should moderate: %+v", page.Access)
	}

	if err := muts.CreatePoll(ctx, lounge, poll); err != nil {
		t.Fatalf("create poll: %v", err)
	}
	page, _ = feed.FetchPage(ctx, lounge, 0, 50)
	newest, ok := page.Newest()
	if !ok || newest.Type != domain.MessagePoll || newest.Poll == nil {
		t.Fatalf("newest record: got %+v", newest)
	}
	if newest.Poll.Question != "Lunch?" || !newest.Poll.Multi || len(newest.Poll.Options) != 2 || newest.Poll.Options[1].Text != "tacos" {
		t.Fatalf("poll: got %+v", newest.Poll)
	}
}

func TestMemoryBackendPollVotes(t *testing.T) {
	b := newSeededBackend(t, 0)
	idx := b.PostPoll(3, 2, "Tabs?", false, "tabs", "spaces")
	ctx := context.Background()
	feed := NewFeedService(b, "1")
	page, _ := feed.FetchPage(ctx, domain.Community("3"), 0, 50)
	msg := page.Records[idx]
	ref := app.MessageRef{ID: msg.ID, Sequence: msg.Sequence}
	muts := NewMutationService(b, "1")

	_ = muts.VotePoll(ctx, domain.Community("3"), ref, "0")
	_ = muts.VotePoll(ctx, domain.Community("3"), ref, "1")
	page, _ = feed.FetchPage(ctx, domain.Community("3"), 0, 50)
	poll := page.Records[idx].Poll
	if poll.Options[0].Count != 0 || poll.Options[1].Count != 1 || !poll.Options[1].Voted {
		t.Fatalf("single choice poll: got %+v", poll.Options)
	}
}

func TestMemoryBackendDirectChat(t *testing.T) {
	b := newSeededBackend(t, 0)
	b.PostDirect(2, 1, "one")
	b.PostDirect(2, 1, "two")
	ctx := context.Background()

	dir := NewDirectoryService(b, "1")
	entries, err := dir.Inbox(ctx)
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if len(entries) != 1 || entries[0].StatusLabel("1") != "2 new messages" {
		t.Fatalf("inbox before read: got %+v", entries)
	}

	page, err := NewFeedService(b, "1").FetchPage(ctx, domain.Direct("2"), 0, 50)
	if err != nil || len(page.Records) != 2 {
		t.Fatalf("dm page: %v %+v", err, page)
	}
	if err := NewMutationService(b, "1").SendMessage(ctx, domain.Direct("2"), domain.Send{Content: "three"}); err != nil {
		t.Fatalf("send dm: %v", err)
	}
	entries, _ = dir.Inbox(ctx)
	if got := entries[0].StatusLabel("1"); got != "Sent" {
		t.Fatalf("inbox after reply: got %q want Sent", got)
	}

	// ada opens the chat, which marks the reply seen.
	_, _ = NewFeedService(b, "2").FetchPage(ctx, domain.Direct("1"), 0, 50)
	entries, _ = dir.Inbox(ctx)
	if got := entries[0].StatusLabel("1"); got != "Seen" {
		t.Fatalf("inbox after peer read: got %q want Seen", got)
	}
}

func TestMemoryBackendLogin(t *testing.T) {
	b := newSeededBackend(t, 0)
	auth := NewAuthenticator(b)
	id, err := auth.Login(context.Background(), "ada", "pw")
	if err != nil || id != "2" {
		t.Fatalf("login: got %q %v", id, err)
	}
	if _, err := auth.Login(context.Background(), "ada", "nope"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("bad password: got %v want ErrUnauthorized", err)
	}
}

func TestControllerOverMemoryBackend(t *testing.T) {
	b := newSeededBackend(t, 200)
	c := feedsync.NewController(feedsync.Deps{
		Feed:      NewFeedService(b, "1"),
		Mutations: NewMutationService(b, "1"),
		Config:    feedsync.Config{PollInterval: time.Hour},
	})
	t.Cleanup(c.Close)
	ctx := context.Background()

	if err := c.Open(ctx, domain.Community("3")); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := c.LoadOlder(ctx); err != nil {
		t.Fatalf("load older: %v", err)
	}
	snap, _ := c.Snapshot()
	if len(snap.Messages) != 100 || snap.Cursor != 50 {
		t.Fatalf("after history: loaded %d cursor %d", len(snap.Messages), snap.Cursor)
	}

	if err := c.Dispatch(ctx, domain.Vote{MessageID: snap.Messages[0].ID}); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := c.Dispatch(ctx, domain.Send{Content: "from the terminal"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	snap, _ = c.Snapshot()
	last := snap.Messages[len(snap.Messages)-1]
	if snap.Cursor != 0 || last.Content != "from the terminal" || last.Sequence != 200 {
		t.Fatalf("after send: cursor %d newest %q at %d", snap.Cursor, last.Content, last.Sequence)
	}
	if snap.KnownTotal != 201 {
		t.Fatalf("known total: got %d want 201", snap.KnownTotal)
	}
}

func TestDemoBackendIsUsable(t *testing.T) {
	b := NewDemoBackend()
	ctx := context.Background()
	comms, err := NewDirectoryService(b, DemoViewerID).Communities(ctx)
	if err != nil || len(comms) != 2 {
		t.Fatalf("communities: %v %+v", err, comms)
	}
	page, err := NewFeedService(b, DemoViewerID).FetchPage(ctx, domain.Community(comms[0].ID), 0, 50)
	if err != nil || page.Total != 181 {
		t.Fatalf("page: %v total %d", err, page.Total)
	}
	if newest := page.Records[len(page.Records)-1]; newest.Poll == nil {
		t.Fatalf("expected the newest demo message to be a poll")
	}
}
