package feedsync

import (
	"context"
	"errors"
	"testing"

	"github.com/CrestNiraj12/novaterm/app"
	"github.com/CrestNiraj12/novaterm/domain"
)

func resolverFor(msgs ...domain.Message) Resolver {
	return func(id string) (app.MessageRef, bool) {
		for _, m := range msgs {
			if m.ID == id {
				return app.MessageRef{ID: m.ID, Sequence: m.Sequence}, true
			}
		}
		return app.MessageRef{}, false
	}
}

func TestDispatcherValidation(t *testing.T) {
	resolve := resolverFor(testMessage(4))
	tests := []struct {
		name    string
		conv    domain.ConversationID
		m       domain.Mutation
		wantErr error
	}{
		{name: "empty send", conv: testConv, m: domain.Send{Content: "  \n"}, wantErr: domain.ErrEmptyMessage},
		{name: "vote in direct chat", conv: domain.Direct("7"), m: domain.Vote{MessageID: "m-4"}, wantErr: domain.ErrUnsupported},
		{name: "pin in direct chat", conv: domain.Direct("7"), m: domain.Pin{MessageID: "m-4"}, wantErr: domain.ErrUnsupported},
		{name: "ban in direct chat", conv: domain.Direct("7"), m: domain.Ban{UserID: "2"}, wantErr: domain.ErrUnsupported},
		{name: "react in community", conv: testConv, m: domain.React{MessageID: "m-4", Reaction: "👍"}, wantErr: domain.ErrUnsupported},
		{name: "unknown message", conv: testConv, m: domain.Vote{MessageID: "m-99"}, wantErr: domain.ErrUnknownMessage},
		{name: "join direct chat", conv: domain.Direct("7"), m: domain.Join{}, wantErr: domain.ErrUnsupported},
		{name: "poll in direct chat", conv: domain.Direct("7"), m: domain.CreatePoll{Question: "q", Options: []string{"a", "b"}}, wantErr: domain.ErrUnsupported},
		{name: "poll without question", conv: testConv, m: domain.CreatePoll{Question: " ", Options: []string{"a", "b"}}, wantErr: domain.ErrInvalidPoll},
		{name: "poll with one real option", conv: testConv, m: domain.CreatePoll{Question: "q", Options: []string{"a", "  "}}, wantErr: domain.ErrInvalidPoll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			muts := &stubMutations{}
			err := NewDispatcher(muts).Dispatch(context.Background(), tt.conv, tt.m, resolve)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error: got %v want %v", err, tt.wantErr)
			}
			if calls := muts.recorded(); len(calls) != 0 {
				t.Fatalf("service called for invalid mutation: %+v", calls)
			}
		})
	}
}

func TestDispatcherRoutesToService(t *testing.T) {
	resolve := resolverFor(testMessage(4), testMessage(5))
	tests := []struct {
		name       string
		conv       domain.ConversationID
		m          domain.Mutation
		wantCall   string
		wantSeq    int
		wantDetail string
	}{
		{name: "send", conv: testConv, m: domain.Send{Content: "hi"}, wantCall: "send", wantDetail: "hi"},
		{name: "vote", conv: testConv, m: domain.Vote{MessageID: "m-4"}, wantCall: "vote", wantSeq: 4},
		{name: "pin", conv: testConv, m: domain.Pin{MessageID: "m-5"}, wantCall: "pin", wantSeq: 5},
		{name: "delete dm", conv: domain.Direct("7"), m: domain.Delete{MessageID: "m-5"}, wantCall: "delete", wantSeq: 5},
		{name: "ban", conv: testConv, m: domain.Ban{UserID: "9"}, wantCall: "ban", wantDetail: "9"},
		{name: "leave", conv: testConv, m: domain.Leave{}, wantCall: "leave"},
		{name: "join", conv: testConv, m: domain.Join{}, wantCall: "join"},
		{name: "create poll", conv: testConv, m: domain.CreatePoll{Question: " Lunch? ", Options: []string{"pizza", "", " tacos "}}, wantCall: "create_poll", wantDetail: "Lunch?|pizza|tacos"},
		{name: "poll vote", conv: testConv, m: domain.VotePoll{MessageID: "m-4", OptionID: "2"}, wantCall: "vote_poll", wantSeq: 4, wantDetail: "2"},
		{name: "react", conv: domain.Direct("7"), m: domain.React{MessageID: "m-4", Reaction: "🔥"}, wantCall: "react", wantSeq: 4, wantDetail: "🔥"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			muts := &stubMutations{}
			if err := NewDispatcher(muts).Dispatch(context.Background(), tt.conv, tt.m, resolve); err != nil {
				t.Fatalf("dispatch: %v", err)
			}
			calls := muts.recorded()
			if len(calls) != 1 {
				t.Fatalf("calls: got %d want 1", len(calls))
			}
			got := calls[0]
			if got.name != tt.wantCall || got.ref.Sequence != tt.wantSeq || got.detail != tt.wantDetail {
				t.Fatalf("call: got %+v want %s seq=%d detail=%q", got, tt.wantCall, tt.wantSeq, tt.wantDetail)
			}
		})
	}
}

func TestDispatcherPropagatesServiceError(t *testing.T) {
	muts := &stubMutations{err: domain.ErrNetwork}
	err := NewDispatcher(muts).Dispatch(context.Background(), testConv, domain.Send{Content: "hi"}, nil)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("error: got %v want ErrNetwork", err)
	}
}
