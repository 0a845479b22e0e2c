package novacom

import (
	"context"
	"fmt"

	"github.com/CrestNiraj12/novaterm/app"
	"github.com/CrestNiraj12/novaterm/domain"
)

// mutationService implements app.MutationService. Community messages are
// addressed by their index in the log, direct messages by ID.
type mutationService struct {
	caller   Caller
	viewerID string
}

func NewMutationService(caller Caller, viewerID string) *mutationService {
	return &mutationService{caller: caller, viewerID: viewerID}
}

func (s *mutationService) SendMessage(ctx context.Context, conv domain.ConversationID, msg domain.Send) error {
	replyTo := msg.ReplyToID
	if replyTo == "" {
		replyTo = "-1"
	}
	msgType := string(msg.Type)
	if msgType == "" {
		msgType = string(domain.MessageText)
	}
	switch conv.Kind {
	case domain.KindCommunity:
		return s.do(ctx, "send_message", conv.Ref, s.viewerID, msg.Content, msgType, msg.MediaURL, replyTo)
	case domain.KindDirect:
		return s.do(ctx, "send_dm", s.viewerID, conv.Ref, replyTo, msg.Content, msgType, msg.MediaURL)
	}
	return fmt.Errorf("send to %s: %w", conv, domain.ErrUnsupported)
}

func (s *mutationService) VoteMessage(ctx context.Context, conv domain.ConversationID, ref app.MessageRef) error {
	return s.do(ctx, "upvote_message", conv.Ref, s.viewerID, itoa(ref.Sequence))
}

func (s *mutationService) PinMessage(ctx context.Context, conv domain.ConversationID, ref app.MessageRef) error {
	return s.do(ctx, "pin_message", conv.Ref, s.viewerID, itoa(ref.Sequence))
}

func (s *mutationService) DeleteMessage(ctx context.Context, conv domain.ConversationID, ref app.MessageRef) error {
	if conv.Kind == domain.KindDirect {
		return s.do(ctx, "delete_dm", s.viewerID, conv.Ref, ref.ID)
	}
	return s.do(ctx, "delete_message", conv.Ref, s.viewerID, itoa(ref.Sequence))
}

func (s *mutationService) BanUser(ctx context.Context, conv domain.ConversationID, userID string) error {
	return s.do(ctx, "ban_user", conv.Ref, s.viewerID, userID)
}

func (s *mutationService) LeaveConversation(ctx context.Context, conv domain.ConversationID) error {
	return s.do(ctx, "leave_community", s.viewerID, conv.Ref)
}

func (s *mutationService) JoinConversation(ctx context.Context, conv domain.ConversationID) error {
	return s.do(ctx, "join_community", s.viewerID, conv.Ref)
}

func (s *mutationService) CreatePoll(ctx context.Context, conv domain.ConversationID, poll domain.CreatePoll) error {
	multi := "0"
	if poll.Multi {
		multi = "1"
	}
	params := append([]string{conv.Ref, s.viewerID, poll.Question, multi}, poll.Options...)
	return s.do(ctx, "create_poll", params...)
}

func (s *mutationService) VotePoll(ctx context.Context, conv domain.ConversationID, ref app.MessageRef, optionID string) error {
	return s.do(ctx, "vote_poll", conv.Ref, s.viewerID, ref.ID, optionID)
}

func (s *mutationService) React(ctx context.Context, conv domain.ConversationID, ref app.MessageRef, reaction string) error {
	return s.do(ctx, "react_dm", s.viewerID, conv.Ref, ref.ID, reaction)
}

func (s *mutationService) do(ctx context.Context, action string, params ...string) error {
	if s.viewerID == "" {
		return domain.ErrUnauthorized
	}
	if _, err := s.caller.Call(ctx, action, params...); err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}
