package domain

// Mutation is a write the viewer issues against a conversation.
// The concrete types below are the only implementations.
type Mutation interface {
	mutation()
}

// Send posts a new message. ReplyToID is empty for a top-level message.
type Send struct {
	Content   string
	Type      MessageType
	MediaURL  string
	ReplyToID string
}

// Vote toggles the viewer's upvote on a message.
type Vote struct{ MessageID string }

// Pin pins a message (moderators and admins only).
type Pin struct{ MessageID string }

// Delete removes a message.
type Delete struct{ MessageID string }

// Ban removes a user from a community and blocks re-entry.
type Ban struct{ UserID string }

// Leave leaves the conversation.
type Leave struct{}

// Join makes the viewer a member of a community.
type Join struct{}

// CreatePoll posts a poll. Options are the choice labels in display order.
type CreatePoll struct {
	Question string
	Multi    bool
	Options  []string
}

// VotePoll toggles the viewer's vote on one poll option.
type VotePoll struct {
	MessageID string
	OptionID  string
}

// React sets an emoji reaction on a direct message.
type React struct {
	MessageID string
	Reaction  string
}

func (Send) mutation()       {}
func (Vote) mutation()       {}
func (Pin) mutation()        {}
func (Delete) mutation()     {}
func (Ban) mutation()        {}
func (Leave) mutation()      {}
func (Join) mutation()       {}
func (CreatePoll) mutation() {}
func (VotePoll) mutation()   {}
func (React) mutation()      {}

// MutationName is a stable label for logs and metrics.
func MutationName(m Mutation) string {
	switch m.(type) {
	case Send:
		return "send"
	case Vote:
		return "vote"
	case Pin:
		return "pin"
	case Delete:
		return "delete"
	case Ban:
		return "ban"
	case Leave:
		return "leave"
	case Join:
		return "join"
	case CreatePoll:
		return "create_poll"
	case VotePoll:
		return "vote_poll"
	case React:
		return "react"
	default:
		return "unknown"
	}
}
