package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/CrestNiraj12/novaterm/domain"
	"github.com/CrestNiraj12/novaterm/feedsync"
	"github.com/CrestNiraj12/novaterm/infra/novacom"
)

// tail opens conv and prints records as the live window advances. When the
// first fetch cannot reach the backend it keeps waiting for the poll loop to
// succeed; a refusal from the backend itself ends the command.
func tail(ctx context.Context, ctrl *feedsync.Controller, conv domain.ConversationID, p *tailPrinter, errOut io.Writer, once bool) error {
	if err := ctrl.Open(ctx, conv); err != nil {
		if !unreachable(err) {
			return fmt.Errorf("opening %s: %w", conv, err)
		}
		fmt.Fprintf(errOut, "waiting for %s: %v\n", conv, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-ctrl.Updates():
			if u.Conversation != conv || u.Err != nil {
				continue
			}
			p.print(u.Snapshot)
			if once {
				return nil
			}
		}
	}
}

// unreachable reports whether err means the backend could not be reached,
// as opposed to the backend answering with a refusal.
func unreachable(err error) bool {
	var backendErr *novacom.BackendError
	switch {
	case errors.As(err, &backendErr):
		return false
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrUnsupported):
		return false
	}
	return errors.Is(err, domain.ErrNetwork)
}

type tailPrinter struct {
	w        io.Writer
	viewerID string
	lastSeq  int
}

func newTailPrinter(w io.Writer, viewerID string) *tailPrinter {
	return &tailPrinter{w: w, viewerID: viewerID, lastSeq: -1}
}

// print writes the records newer than anything printed before.
func (p *tailPrinter) print(s feedsync.Snapshot) {
	for _, m := range s.Messages {
		if m.Sequence <= p.lastSeq {
			continue
		}
		p.lastSeq = m.Sequence
		fmt.Fprintln(p.w, p.format(m))
	}
}

func (p *tailPrinter) format(m domain.Message) string {
	ts := "--:--"
	if !m.CreatedAt.IsZero() {
		ts = m.CreatedAt.Format("15:04")
	}
	name := m.SenderName
	if m.SenderID == p.viewerID {
		name = "you"
	}

	body := m.Content
	switch m.Type {
	case domain.MessagePoll:
		if m.Poll != nil {
			body = "[poll] " + m.Poll.Question
		}
	case domain.MessageImage, domain.MessageAudio:
		body = "[" + string(m.Type) + "] " + m.MediaURL
	}
	if m.IsReply() {
		body = "(reply) " + body
	}
	if m.Pinned {
		body = "[pinned] " + body
	}
	return fmt.Sprintf("%s %s: %s", ts, name, body)
}
