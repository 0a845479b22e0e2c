package domain

import (
	"fmt"
	"strings"
)

// ConversationKind distinguishes community channels from direct chats.
type ConversationKind int

const (
	KindCommunity ConversationKind = iota
	KindDirect
)

func (k ConversationKind) String() string {
	switch k {
	case KindDirect:
		return "dm"
	default:
		return "community"
	}
}

// ConversationID identifies one message log. Ref is the community ID for
// community channels and the peer's user ID for direct chats.
type ConversationID struct {
	Kind ConversationKind
	Ref  string
}

func Community(id string) ConversationID {
	return ConversationID{Kind: KindCommunity, Ref: id}
}

func Direct(peerID string) ConversationID {
	return ConversationID{Kind: KindDirect, Ref: peerID}
}

func (c ConversationID) String() string {
	return c.Kind.String() + ":" + c.Ref
}

// IsZero reports whether the ID is unset.
func (c ConversationID) IsZero() bool {
	return c.Ref == ""
}

// ParseConversationID parses "community:42" or "dm:7". A bare ID is taken
// as a community.
func ParseConversationID(s string) (ConversationID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ConversationID{}, fmt.Errorf("empty conversation id")
	}
	kind, ref, found := strings.Cut(s, ":")
	if !found {
		return Community(s), nil
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ConversationID{}, fmt.Errorf("conversation id %q has no ref", s)
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "community", "c":
		return Community(ref), nil
	case "dm", "direct", "d":
		return Direct(ref), nil
	default:
		return ConversationID{}, fmt.Errorf("unknown conversation kind %q", kind)
	}
}

// CommunitySummary is a community the viewer has joined.
type CommunitySummary struct {
	ID   string
	Name string
}
