package app

import (
	"context"

	"github.com/CrestNiraj12/novaterm/domain"
)

// FeedService reads pages of a conversation log.
type FeedService interface {
	// FetchPage returns up to limit records ending offset records before the
	// newest one (offset 0 is the live page). Records are oldest-first.
	FetchPage(ctx context.Context, conv domain.ConversationID, offset, limit int) (domain.Page, error)
}
