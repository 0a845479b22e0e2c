package app

import (
	"context"

	"github.com/CrestNiraj12/novaterm/domain"
)

// DirectoryService lists the conversations available to the viewer.
type DirectoryService interface {
	// Inbox returns the viewer's active direct chats.
	Inbox(ctx context.Context) ([]domain.InboxEntry, error)

	// Communities returns the communities the viewer has joined.
	Communities(ctx context.Context) ([]domain.CommunitySummary, error)
}
