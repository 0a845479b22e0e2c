package feedsync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/CrestNiraj12/novaterm/domain"
)

// LoadOlder fetches the page right before the oldest loaded record and
// prepends it. It is refused with ErrBusy while any fetch for the window is
// in flight. A page that no longer chains onto the window is dropped and
// reported as ErrStaleFetch; callers should not show that to the viewer.
func (c *Controller) LoadOlder(ctx context.Context) error {
	c.mu.Lock()
	s := c.cur
	if s == nil {
		c.mu.Unlock()
		return domain.ErrClosed
	}
	w := s.window
	if w.loadingHistory || s.refreshing {
		c.mu.Unlock()
		return domain.ErrBusy
	}
	if !w.HasMoreHistory() {
		c.mu.Unlock()
		return domain.ErrNoHistory
	}
	w.loadingHistory = true
	s.state = StateLoadingHistory
	gen := w.generation
	offset := w.NextHistoryOffset()
	c.mu.Unlock()

	log := c.log.With(zap.Stringer("conversation", s.conv), zap.Int("offset", offset))
	page, took, err := c.fetch(ctx, s.conv, offset)

	c.mu.Lock()
	if !c.isCurrent(s) {
		c.mu.Unlock()
		c.metrics.fetch(kindHistory, "discarded", took)
		return domain.ErrClosed
	}
	w.loadingHistory = false
	if s.state == StateLoadingHistory {
		s.state = StateLive
	}
	pending := s.pendingLive
	s.pendingLive = false

	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case w.generation != gen:
		err = fmt.Errorf("%w: window replaced while loading", domain.ErrStaleFetch)
		result = "stale"
	default:
		if err = w.PrependHistory(page, offset); err != nil {
			result = "stale"
		} else {
			c.publishLocked(s, ChangeHistory, nil)
		}
	}
	c.mu.Unlock()

	c.metrics.fetch(kindHistory, result, took)
	if err != nil {
		log.Debug("history load failed", zap.String("result", result), zap.Error(err))
	}
	if pending {
		_ = c.refresh(context.WithoutCancel(ctx), s, refreshForced)
	}
	return err
}
