package novacom

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CrestNiraj12/novaterm/domain"
)

const communityFixture = `{ "name": "gophers", "is_member": true, "is_mod": false, "is_admin": false, "total_msgs": 120, "messages": [
 { "index": 68, "id": 71, "sender": "ada", "senderId": 2, "senderAvatar": "", "content": "first", "type": "text", "mediaUrl": "NONE", "poll": null, "time": "09:30", "votes": 2, "has_voted": true, "pinned": true, "replyTo": -1, "replyPreview": "" },
 { "index": 69, "id": 72, "sender": "grace", "senderId": 3, "senderAvatar": "", "content": "Tabs?", "type": "poll", "mediaUrl": "NONE", "poll": { "question": "Tabs?", "multi": false, "options": [{ "id": 0, "text": "yes", "count": 1, "voted": false }, { "id": 1, "text": "no", "count": 3, "voted": true }] }, "time": "09:31", "votes": 0, "has_voted": false, "pinned": false, "replyTo": 71, "replyPreview": "first" }
] }`

const dmFixture = `{ "friend_id": 7, "total_msgs": 5, "messages": [
 { "id": 3, "senderId": 7, "content": "hi", "time": "10:00", "replyTo": -1, "replyPreview": "", "reaction": "❤️", "isSeen": true, "type": "text", "mediaUrl": "NONE" },
 { "id": 4, "senderId": 1, "content": "pic", "time": "10:01", "replyTo": 3, "replyPreview": "hi", "reaction": "", "isSeen": false, "type": "image", "mediaUrl": "https://img.example/1.png" }
] }`

func TestFetchCommunityPage(t *testing.T) {
	caller := newStubCaller()
	caller.replies["get_community"] = []byte(communityFixture)
	svc := NewFeedService(caller, "1")
	svc.now = func() time.Time { return time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) }

	page, err := svc.FetchPage(context.Background(), domain.Community("3"), 50, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	call := caller.last(t)
	if call.action != "get_community" || !equalStrings(call.params, []string{"3", "1", "50", "2"}) {
		t.Fatalf("call: got %+v", call)
	}
	if page.Total != 120 || len(page.Records) != 2 {
		t.Fatalf("page: total %d records %d", page.Total, len(page.Records))
	}
	if page.Title != "gophers" || page.Access != (domain.Access{}) {
		t.Fatalf("title/access: got %q %+v", page.Title, page.Access)
	}

	first := page.Records[0]
	if first.ID != "71" || first.Sequence != 68 || first.SenderName != "ada" || first.SenderID != "2" {
		t.Fatalf("first record: got %+v", first)
	}
	if first.MediaURL != "" || first.ReplyToID != "" || !first.Pinned || first.VoteCount != 2 || !first.ViewerHasVoted {
		t.Fatalf("first record flags: got %+v", first)
	}
	if want := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC); !first.CreatedAt.Equal(want) {
		t.Fatalf("time: got %s want %s", first.CreatedAt, want)
	}

	poll := page.Records[1]
	if poll.Type != domain.MessagePoll || poll.Poll == nil || len(poll.Poll.Options) != 2 {
		t.Fatalf("poll record: got %+v", poll)
	}
	if poll.ReplyToID != "71" || poll.ReplyPreview != "first" {
		t.Fatalf("reply: got %q %q", poll.ReplyToID, poll.ReplyPreview)
	}
	if got := poll.Poll.Percent(poll.Poll.Options[1]); got != 75 {
		t.Fatalf("poll percent: got %d want 75", got)
	}
}

func TestFetchDirectPageDerivesSequence(t *testing.T) {
	caller := newStubCaller()
	caller.replies["get_dm"] = []byte(dmFixture)
	svc := NewFeedService(caller, "1")

	page, err := svc.FetchPage(context.Background(), domain.Direct("7"), 0, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	call := caller.last(t)
	if call.action != "get_dm" || !equalStrings(call.params, []string{"1", "7", "0", "2"}) {
		t.Fatalf("call: got %+v", call)
	}
	if page.Records[0].Sequence != 3 || page.Records[1].Sequence != 4 {
		t.Fatalf("sequences: got %d, %d want 3, 4", page.Records[0].Sequence, page.Records[1].Sequence)
	}
	second := page.Records[1]
	if second.Type != domain.MessageImage || second.MediaURL != "https://img.example/1.png" || second.Seen {
		t.Fatalf("second record: got %+v", second)
	}
	if page.Records[0].Reaction != "❤️" || !page.Records[0].Seen {
		t.Fatalf("first record: got %+v", page.Records[0])
	}
}

func TestFetchPageErrors(t *testing.T) {
	caller := newStubCaller()
	caller.err = domain.ErrNetwork
	if _, err := NewFeedService(caller, "1").FetchPage(context.Background(), domain.Community("3"), 0, 50); !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("error: got %v want ErrNetwork", err)
	}

	caller = newStubCaller()
	caller.replies["get_community"] = []byte(`{"total_msgs": "lots"}`)
	if _, err := NewFeedService(caller, "1").FetchPage(context.Background(), domain.Community("3"), 0, 50); !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("parse error: got %v want ErrNetwork", err)
	}

	if _, err := NewFeedService(caller, "").FetchPage(context.Background(), domain.Community("3"), 0, 50); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("no viewer: got %v want ErrUnauthorized", err)
	}
}

// blockingCaller holds every call until release is closed.
type blockingCaller struct {
	calls   atomic.Int32
	release chan struct{}
}

func (b *blockingCaller) Call(ctx context.Context, _ string, _ ...string) ([]byte, error) {
	b.calls.Add(1)
	select {
	case <-b.release:
		return []byte(`{"total_msgs":0,"messages":[]}`), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestConcurrentIdenticalFetchesShareOneCall(t *testing.T) {
	caller := &blockingCaller{release: make(chan struct{})}
	svc := NewFeedService(caller, "1")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.FetchPage(context.Background(), domain.Community("3"), 0, 50); err != nil {
				t.Errorf("fetch: %v", err)
			}
		}()
	}
	deadline := time.Now().Add(2 * time.Second)
	for caller.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(caller.release)
	wg.Wait()

	if got := caller.calls.Load(); got != 1 {
		t.Fatalf("backend calls: got %d want 1", got)
	}
}

func TestSharedFetchOutlivesFirstCallersContext(t *testing.T) {
	caller := &blockingCaller{release: make(chan struct{})}
	svc := NewFeedService(caller, "1")

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.FetchPage(firstCtx, domain.Community("3"), 0, 50)
		firstErr <- err
	}()
	deadline := time.Now().Add(2 * time.Second)
	for caller.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	secondErr := make(chan error, 1)
	go func() {
		_, err := svc.FetchPage(context.Background(), domain.Community("3"), 0, 50)
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("first caller: got %v want ErrNetwork", err)
	}
	close(caller.release)
	if err := <-secondErr; err != nil {
		t.Fatalf("second caller inherited the first caller's cancellation: %v", err)
	}
	if got := caller.calls.Load(); got != 1 {
		t.Fatalf("backend calls: got %d want 1", got)
	}
}
