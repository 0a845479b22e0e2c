package feedsync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/CrestNiraj12/novaterm/domain"
)

type refreshMode int

const (
	refreshScheduled refreshMode = iota
	refreshInitial
	refreshManual
	refreshForced
)

func (m refreshMode) String() string {
	switch m {
	case refreshInitial:
		return "initial"
	case refreshManual:
		return "manual"
	case refreshForced:
		return "forced"
	default:
		return "scheduled"
	}
}

// Tick runs one scheduled live refresh of the open conversation. It is a
// no-op while another fetch for the window is in flight.
func (c *Controller) Tick(ctx context.Context) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	return c.refresh(ctx, s, refreshScheduled)
}

// Refresh is a viewer-requested live refresh, limited to one per poll
// interval.
func (c *Controller) Refresh(ctx context.Context) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	return c.refresh(ctx, s, refreshManual)
}

// ResumeLive moves a history-positioned window back onto the live page.
func (c *Controller) ResumeLive(ctx context.Context) error {
	c.mu.Lock()
	s := c.cur
	if s == nil {
		c.mu.Unlock()
		return domain.ErrClosed
	}
	if s.window.cursor == 0 {
		c.mu.Unlock()
		return nil
	}
	s.window.ForceLive()
	s.window.anchoredToBottom = true
	c.mu.Unlock()
	return c.refresh(ctx, s, refreshForced)
}

func (c *Controller) poll(s *session) {
	t := time.NewTicker(c.cfg.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			_ = c.refresh(context.Background(), s, refreshScheduled)
		}
	}
}

// refresh fetches the live page and applies it. A forced refresh that finds
// another fetch in flight is queued and re-run by that fetch on completion,
// whether or not the running fetch succeeded.
func (c *Controller) refresh(ctx context.Context, s *session, mode refreshMode) error {
	c.mu.Lock()
	if !c.isCurrent(s) {
		c.mu.Unlock()
		return domain.ErrClosed
	}
	if mode == refreshManual && !s.limiter.Allow() {
		c.mu.Unlock()
		c.metrics.skip("rate")
		return domain.ErrRateExceeded
	}
	if s.window.loadingHistory || s.refreshing {
		reason := "inflight"
		if s.window.loadingHistory {
			reason = "history"
		}
		if mode == refreshForced {
			s.pendingLive = true
		}
		c.mu.Unlock()
		c.metrics.skip(reason)
		return nil
	}
	s.refreshing = true
	if s.state == StateLive {
		s.state = StateRefreshing
	}
	c.mu.Unlock()

	log := c.log.With(zap.Stringer("conversation", s.conv), zap.Stringer("mode", mode))
	for {
		page, took, err := c.fetch(ctx, s.conv, 0)

		c.mu.Lock()
		if !c.isCurrent(s) {
			c.mu.Unlock()
			c.metrics.fetch(kindLive, "discarded", took)
			log.Debug("discarding live page for closed conversation")
			return domain.ErrClosed
		}
		if err != nil && s.pendingLive {
			// A queued forced refresh still owes the viewer a fresh page.
			s.pendingLive = false
			c.mu.Unlock()
			c.metrics.fetch(kindLive, "error", took)
			log.Debug("live refresh failed, running queued refresh", zap.Error(err))
			ctx = context.WithoutCancel(ctx)
			continue
		}
		if err != nil {
			s.refreshing = false
			if s.state == StateRefreshing {
				s.state = StateLive
			}
			if s.state == StateLoading {
				c.publishLocked(s, ChangeNone, err)
			}
			c.mu.Unlock()
			c.metrics.fetch(kindLive, "error", took)
			log.Debug("live refresh failed", zap.Error(err))
			return err
		}

		change := ChangeTotal
		if s.window.cursor == 0 {
			_ = s.window.ReplaceLive(page)
			change = ChangeLive
		} else {
			s.window.ObserveTotal(page)
		}
		again := s.pendingLive
		s.pendingLive = false
		if again {
			s.state = StateRefreshing
		} else {
			s.refreshing = false
			s.state = StateLive
		}
		c.publishLocked(s, change, nil)
		c.mu.Unlock()

		c.metrics.fetch(kindLive, "ok", took)
		if !again {
			return nil
		}
		log.Debug("re-running queued live refresh")
	}
}

const (
	kindLive    = "live"
	kindHistory = "history"
)
