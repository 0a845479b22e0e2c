package novacom

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/CrestNiraj12/novaterm/domain"
)

// feedService implements app.FeedService on top of a Caller.
type feedService struct {
	caller   Caller
	viewerID string
	group    singleflight.Group
	shared   time.Duration // bound on a shared backend call
	now      func() time.Time
}

const sharedCallTimeout = 30 * time.Second

// NewFeedService creates a FeedService reading as viewerID. Identical reads
// issued concurrently share one backend call; each caller still waits only
// as long as its own context allows.
func NewFeedService(caller Caller, viewerID string) *feedService {
	return &feedService{caller: caller, viewerID: viewerID, shared: sharedCallTimeout, now: time.Now}
}

func (s *feedService) FetchPage(ctx context.Context, conv domain.ConversationID, offset, limit int) (domain.Page, error) {
	if s.viewerID == "" {
		return domain.Page{}, domain.ErrUnauthorized
	}
	action, params, err := s.pageRequest(conv, offset, limit)
	if err != nil {
		return domain.Page{}, err
	}

	key := action + "\x00" + strings.Join(params, "\x00")
	ch := s.group.DoChan(key, func() (any, error) {
		// Detached from the first caller so its cancellation does not fail
		// the callers that joined.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shared)
		defer cancel()
		data, err := s.caller.Call(callCtx, action, params...)
		if err != nil {
			return nil, err
		}
		var page wirePage
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("%w: parsing %s page: %v", domain.ErrNetwork, conv, err)
		}
		return page, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return domain.Page{}, fmt.Errorf("fetching %s: %w", conv, r.Err)
		}
		return toPage(r.Val.(wirePage), offset, limit, s.now()), nil
	case <-ctx.Done():
		return domain.Page{}, fmt.Errorf("fetching %s: %w: %v", conv, domain.ErrNetwork, ctx.Err())
	}
}

func (s *feedService) pageRequest(conv domain.ConversationID, offset, limit int) (string, []string, error) {
	switch conv.Kind {
	case domain.KindCommunity:
		return "get_community", []string{conv.Ref, s.viewerID, itoa(offset), itoa(limit)}, nil
	case domain.KindDirect:
		return "get_dm", []string{s.viewerID, conv.Ref, itoa(offset), itoa(limit)}, nil
	}
	return "", nil, fmt.Errorf("%s: %w", conv, domain.ErrUnsupported)
}
