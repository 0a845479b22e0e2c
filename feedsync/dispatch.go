package feedsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/CrestNiraj12/novaterm/app"
	"github.com/CrestNiraj12/novaterm/domain"
)

// Resolver maps a loaded message ID to its backend address.
type Resolver func(id string) (app.MessageRef, bool)

// Dispatcher validates a mutation and performs its single remote call.
// It never touches a Window; refreshing after success is the Controller's job.
type Dispatcher struct {
	svc app.MutationService
}

func NewDispatcher(svc app.MutationService) *Dispatcher {
	return &Dispatcher{svc: svc}
}

// Dispatch runs m against conv. Message IDs are resolved through resolve so
// services that address messages by position receive a Sequence.
func (d *Dispatcher) Dispatch(ctx context.Context, conv domain.ConversationID, m domain.Mutation, resolve Resolver) error {
	if d.svc == nil {
		return fmt.Errorf("%s: %w", domain.MutationName(m), domain.ErrUnsupported)
	}
	switch m := m.(type) {
	case domain.Send:
		if strings.TrimSpace(m.Content) == "" && m.MediaURL == "" {
			return domain.ErrEmptyMessage
		}
		if m.Type == "" {
			m.Type = domain.MessageText
		}
		return d.svc.SendMessage(ctx, conv, m)

	case domain.Vote:
		if err := requireKind(conv, domain.KindCommunity); err != nil {
			return err
		}
		ref, err := lookup(resolve, m.MessageID)
		if err != nil {
			return err
		}
		return d.svc.VoteMessage(ctx, conv, ref)

	case domain.Pin:
		if err := requireKind(conv, domain.KindCommunity); err != nil {
			return err
		}
		ref, err := lookup(resolve, m.MessageID)
		if err != nil {
			return err
		}
		return d.svc.PinMessage(ctx, conv, ref)

	case domain.Delete:
		ref, err := lookup(resolve, m.MessageID)
		if err != nil {
			return err
		}
		return d.svc.DeleteMessage(ctx, conv, ref)

	case domain.Ban:
		if err := requireKind(conv, domain.KindCommunity); err != nil {
			return err
		}
		if strings.TrimSpace(m.UserID) == "" {
			return fmt.Errorf("ban: missing user id")
		}
		return d.svc.BanUser(ctx, conv, m.UserID)

	case domain.Leave:
		if err := requireKind(conv, domain.KindCommunity); err != nil {
			return err
		}
		return d.svc.LeaveConversation(ctx, conv)

	case domain.Join:
		if err := requireKind(conv, domain.KindCommunity); err != nil {
			return err
		}
		return d.svc.JoinConversation(ctx, conv)

	case domain.CreatePoll:
		if err := requireKind(conv, domain.KindCommunity); err != nil {
			return err
		}
		poll, err := cleanPoll(m)
		if err != nil {
			return err
		}
		return d.svc.CreatePoll(ctx, conv, poll)

	case domain.VotePoll:
		if err := requireKind(conv, domain.KindCommunity); err != nil {
			return err
		}
		ref, err := lookup(resolve, m.MessageID)
		if err != nil {
			return err
		}
		return d.svc.VotePoll(ctx, conv, ref, m.OptionID)

	case domain.React:
		if err := requireKind(conv, domain.KindDirect); err != nil {
			return err
		}
		ref, err := lookup(resolve, m.MessageID)
		if err != nil {
			return err
		}
		return d.svc.React(ctx, conv, ref, m.Reaction)
	}
	return fmt.Errorf("%s: %w", domain.MutationName(m), domain.ErrUnsupported)
}

// cleanPoll trims the question and drops blank options. A poll needs a
// question and at least two options.
func cleanPoll(p domain.CreatePoll) (domain.CreatePoll, error) {
	out := domain.CreatePoll{Question: strings.TrimSpace(p.Question), Multi: p.Multi}
	for _, o := range p.Options {
		if o = strings.TrimSpace(o); o != "" {
			out.Options = append(out.Options, o)
		}
	}
	if out.Question == "" || len(out.Options) < 2 {
		return domain.CreatePoll{}, domain.ErrInvalidPoll
	}
	return out, nil
}

func requireKind(conv domain.ConversationID, kind domain.ConversationKind) error {
	if conv.Kind != kind {
		return fmt.Errorf("%s conversation: %w", conv.Kind, domain.ErrUnsupported)
	}
	return nil
}

func lookup(resolve Resolver, id string) (app.MessageRef, error) {
	if resolve != nil {
		if ref, ok := resolve(id); ok {
			return ref, nil
		}
	}
	return app.MessageRef{}, fmt.Errorf("message %q: %w", id, domain.ErrUnknownMessage)
}
