package novacom

import (
	"context"
	"math/rand"
	"time"
)

// DemoViewerID is the user demo mode logs in as.
const DemoViewerID = "1"

var demoLines = []string{
	"anyone tried the new range-over-func iterators yet?",
	"context cancellation finally clicked for me today",
	"hot take: table tests are the best part of the language",
	"is it just me or is the bridge slow this morning",
	"pushed a fix for the flaky poller test",
	"reminder: retro at four",
	"who broke main",
	"not me",
	"lgtm, ship it",
	"the errgroup docs are really good",
	"lunch?",
	"going to refactor the pager after standup",
}

// NewDemoBackend returns a MemoryBackend seeded with a few users, two
// communities with history and some direct chats.
func NewDemoBackend() *MemoryBackend {
	b := NewMemoryBackend()
	b.AddUser(1, "you", "demo")
	b.AddUser(2, "ada", "demo")
	b.AddUser(3, "grace", "demo")
	b.AddUser(4, "linus", "demo")

	b.AddCommunity(1, "gophers", 1, 2, 3, 4)
	b.AddModerator(1, 1)
	for i := 0; i < 180; i++ {
		b.Post(1, 2+i%3, demoLines[i%len(demoLines)])
	}
	b.PostPoll(1, 3, "Tabs or spaces?", false, "tabs", "spaces", "gofmt decides")

	b.AddCommunity(2, "terminal-nerds", 1, 3)
	for i := 0; i < 12; i++ {
		b.Post(2, 1+2*(i%2), demoLines[(i*5)%len(demoLines)])
	}

	b.PostDirect(2, 1, "hey, got a minute?")
	b.PostDirect(1, 2, "sure, what's up")
	b.PostDirect(2, 1, "can you review my PR")
	b.PostDirect(2, 1, "it's the pager one")
	b.PostDirect(1, 3, "thanks for the help yesterday")
	return b
}

// StartChatter posts a message from another user every interval until
// ctx is done, so demo conversations change while open.
func (b *MemoryBackend) StartChatter(ctx context.Context, interval time.Duration) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				line := demoLines[rng.Intn(len(demoLines))]
				if rng.Intn(4) == 0 {
					b.PostDirect(2+rng.Intn(2), 1, line)
					continue
				}
				b.Post(1, 2+rng.Intn(3), line)
			}
		}
	}()
}
