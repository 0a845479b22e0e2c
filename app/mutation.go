package app

import (
	"context"

	"github.com/CrestNiraj12/novaterm/domain"
)

// MessageRef addresses a loaded message. Some backends address messages by
// their position in the log rather than by ID, so both are carried.
type MessageRef struct {
	ID       string
	Sequence int
}

// MutationService performs writes against a conversation. Every method is a
// single remote call and returns nothing beyond success or failure.
type MutationService interface {
	SendMessage(ctx context.Context, conv domain.ConversationID, msg domain.Send) error
	VoteMessage(ctx context.Context, conv domain.ConversationID, ref MessageRef) error
	PinMessage(ctx context.Context, conv domain.ConversationID, ref MessageRef) error
	DeleteMessage(ctx context.Context, conv domain.ConversationID, ref MessageRef) error
	BanUser(ctx context.Context, conv domain.ConversationID, userID string) error
	LeaveConversation(ctx context.Context, conv domain.ConversationID) error
	JoinConversation(ctx context.Context, conv domain.ConversationID) error
	CreatePoll(ctx context.Context, conv domain.ConversationID, poll domain.CreatePoll) error
	VotePoll(ctx context.Context, conv domain.ConversationID, ref MessageRef, optionID string) error
	React(ctx context.Context, conv domain.ConversationID, ref MessageRef, reaction string) error
}
