// Package feedsync keeps a bounded, scrollable window of a conversation in
// sync with a backend that only supports offset paging. A Controller owns
// one open conversation at a time: it polls the live tail, pages history in
// on demand and refetches after every mutation the viewer makes.
package feedsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/CrestNiraj12/novaterm/app"
	"github.com/CrestNiraj12/novaterm/domain"
)

// State is the lifecycle state of the open conversation.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLive
	StateLoadingHistory
	StateRefreshing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLive:
		return "live"
	case StateLoadingHistory:
		return "loading-history"
	case StateRefreshing:
		return "refreshing"
	case StateClosed:
		return "closed"
	default:
		return "idle"
	}
}

// ScrollIntent is what the presentation layer should do after a scroll.
type ScrollIntent int

const (
	IntentNone ScrollIntent = iota
	IntentLoadOlder
	IntentResumeLive
)

// Update is published on every applied window change.
type Update struct {
	Conversation domain.ConversationID
	Epoch        uint64
	Change       Change
	Snapshot     Snapshot
	Err          error // Set only for failed loads before any content arrived
}

const updateBuffer = 16

// Deps groups the Controller's collaborators.
type Deps struct {
	Feed      app.FeedService
	Mutations app.MutationService
	Config    Config
	Logger    *zap.Logger
	Metrics   *Metrics
}

// Controller drives one conversation window at a time.
// All methods are safe for concurrent use.
type Controller struct {
	feed       app.FeedService
	dispatcher *Dispatcher
	cfg        Config
	anchor     ScrollAnchor
	log        *zap.Logger
	metrics    *Metrics
	updates    chan Update

	mu     sync.Mutex
	epoch  uint64
	cur    *session
	closed bool // the last session was closed and nothing replaced it
}

type session struct {
	conv        domain.ConversationID
	epoch       uint64
	window      *Window
	state       State
	refreshing  bool
	pendingLive bool // forced refresh requested while a fetch was in flight
	closed      bool
	limiter     *rate.Limiter
	stop        chan struct{}
}

func NewController(d Deps) *Controller {
	cfg := d.Config.withDefaults()
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		feed:       d.Feed,
		dispatcher: NewDispatcher(d.Mutations),
		cfg:        cfg,
		anchor:     ScrollAnchor{Tolerance: cfg.BottomTolerance},
		log:        log.Named("feedsync"),
		metrics:    d.Metrics,
		updates:    make(chan Update, updateBuffer),
	}
}

// Updates delivers applied changes. When the consumer lags, the oldest
// pending update is dropped; every Update carries a full Snapshot.
func (c *Controller) Updates() <-chan Update { return c.updates }

// Anchor returns the scroll anchor configured for this controller.
func (c *Controller) Anchor() ScrollAnchor { return c.anchor }

// Open switches to conv, closing any open conversation, and performs the
// initial live fetch. Polling continues in the background until Close or
// the next Open, even when the initial fetch fails.
func (c *Controller) Open(ctx context.Context, conv domain.ConversationID) error {
	if conv.IsZero() {
		return fmt.Errorf("open: empty conversation id")
	}
	c.mu.Lock()
	c.closeLocked()
	c.epoch++
	s := &session{
		conv:    conv,
		epoch:   c.epoch,
		window:  NewWindow(conv),
		state:   StateLoading,
		limiter: rate.NewLimiter(rate.Every(c.cfg.PollInterval), 1),
		stop:    make(chan struct{}),
	}
	c.cur = s
	c.closed = false
	c.mu.Unlock()

	c.log.Debug("open conversation", zap.Stringer("conversation", conv), zap.Uint64("epoch", s.epoch))
	err := c.refresh(ctx, s, refreshInitial)
	go c.poll(s)
	return err
}

// Close ends the open conversation. Fetches still in flight are not
// aborted; their results are discarded on arrival.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Controller) closeLocked() {
	s := c.cur
	if s == nil {
		return
	}
	s.closed = true
	s.state = StateClosed
	close(s.stop)
	c.cur = nil
	c.closed = true
	c.log.Debug("close conversation", zap.Stringer("conversation", s.conv), zap.Uint64("epoch", s.epoch))
}

// State reports the lifecycle state of the open conversation.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		if c.closed {
			return StateClosed
		}
		return StateIdle
	}
	return c.cur.state
}

// Snapshot returns the current window, if a conversation is open.
func (c *Controller) Snapshot() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return Snapshot{}, false
	}
	return c.cur.window.Snapshot(), true
}

// Conversation returns the open conversation and its epoch.
func (c *Controller) Conversation() (domain.ConversationID, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return domain.ConversationID{}, 0, false
	}
	return c.cur.conv, c.cur.epoch, true
}

// OnScroll records the viewer's position and reports what to do next.
func (c *Controller) OnScroll(pos ScrollPosition) ScrollIntent {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.cur
	if s == nil {
		return IntentNone
	}
	w := s.window
	w.anchoredToBottom = c.anchor.NearBottom(pos)
	busy := w.loadingHistory || s.refreshing
	switch {
	case AtTop(pos.Offset) && w.HasMoreHistory() && !busy:
		return IntentLoadOlder
	case w.anchoredToBottom && w.cursor != 0 && w.HasNewerThanLoaded():
		return IntentResumeLive
	}
	return IntentNone
}

// Dispatch performs m against the open conversation and, on success,
// refetches the live page. Nothing is applied locally before the refetch.
func (c *Controller) Dispatch(ctx context.Context, m domain.Mutation) error {
	c.mu.Lock()
	s := c.cur
	if s == nil {
		c.mu.Unlock()
		return domain.ErrClosed
	}
	snap := s.window.Snapshot()
	c.mu.Unlock()

	name := domain.MutationName(m)
	log := c.log.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("mutation", name),
		zap.Stringer("conversation", s.conv),
	)
	resolve := func(id string) (app.MessageRef, bool) {
		msg, ok := snap.Find(id)
		if !ok {
			return app.MessageRef{}, false
		}
		return app.MessageRef{ID: msg.ID, Sequence: msg.Sequence}, true
	}

	err := c.dispatcher.Dispatch(ctx, s.conv, m, resolve)
	c.metrics.mutation(name, err)
	if err != nil {
		log.Warn("mutation failed", zap.Error(err))
		return err
	}
	log.Debug("mutation applied")

	c.mu.Lock()
	if !c.isCurrent(s) {
		c.mu.Unlock()
		return nil
	}
	s.window.ForceLive()
	switch m.(type) {
	case domain.Send, domain.CreatePoll:
		s.window.anchoredToBottom = true
	}
	c.mu.Unlock()

	if err := c.refresh(context.WithoutCancel(ctx), s, refreshForced); err != nil && !errors.Is(err, domain.ErrClosed) {
		log.Debug("refresh after mutation failed", zap.Error(err))
	}
	return nil
}

func (c *Controller) isCurrent(s *session) bool {
	return c.cur == s && !s.closed
}

func (c *Controller) current() (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return nil, domain.ErrClosed
	}
	return c.cur, nil
}

// publishLocked must be called with c.mu held so updates leave in the order
// they were applied. When the buffer is full, every pending update is folded
// into u so the consumer jumps straight to the newest snapshot with a Change
// that still covers what it skipped.
func (c *Controller) publishLocked(s *session, change Change, err error) {
	u := Update{
		Conversation: s.conv,
		Epoch:        s.epoch,
		Change:       change,
		Snapshot:     s.window.Snapshot(),
		Err:          err,
	}
	select {
	case c.updates <- u:
		return
	default:
	}

	folded, have := ChangeNone, false
	for draining := true; draining; {
		select {
		case old := <-c.updates:
			if old.Epoch != u.Epoch {
				continue
			}
			if !have {
				folded, have = old.Change, true
			} else {
				folded = coalesce(folded, old.Change)
			}
		default:
			draining = false
		}
	}
	if have {
		u.Change = coalesce(folded, u.Change)
	}
	for {
		select {
		case c.updates <- u:
			return
		default:
		}
		select {
		case <-c.updates:
		default:
		}
	}
}

// coalesce merges two consecutive changes into the one a consumer that saw
// neither should anchor by. A live replacement resets the window, so it
// wins when it comes last; otherwise a history prepend is never lost.
func coalesce(earlier, later Change) Change {
	switch {
	case later == ChangeLive || later == ChangeHistory:
		return later
	case earlier == ChangeLive || earlier == ChangeHistory:
		return earlier
	}
	return later
}

type fetchResult struct {
	page domain.Page
	err  error
}

// fetch requests one page with the configured timeout. The timeout holds
// even when the service ignores ctx.
func (c *Controller) fetch(ctx context.Context, conv domain.ConversationID, offset int) (domain.Page, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan fetchResult, 1)
	go func() {
		page, err := c.feed.FetchPage(ctx, conv, offset, c.cfg.PageSize)
		done <- fetchResult{page: page, err: err}
	}()

	select {
	case r := <-done:
		took := time.Since(start)
		if r.err != nil {
			if !errors.Is(r.err, domain.ErrNetwork) {
				r.err = fmt.Errorf("%w: %w", domain.ErrNetwork, r.err)
			}
			return domain.Page{}, took, fmt.Errorf("fetch %s at offset %d: %w", conv, offset, r.err)
		}
		return r.page, took, nil
	case <-ctx.Done():
		return domain.Page{}, time.Since(start), fmt.Errorf("fetch %s at offset %d: %w: %v", conv, offset, domain.ErrNetwork, ctx.Err())
	}
}
