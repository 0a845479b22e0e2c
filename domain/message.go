package domain

import (
	"math"
	"time"
)

// MessageType is the payload kind of a chat message.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageAudio MessageType = "audio"
	MessagePoll  MessageType = "poll"
)

// ParseMessageType maps a wire value to a MessageType, defaulting to text.
func ParseMessageType(s string) MessageType {
	switch MessageType(s) {
	case MessageImage, MessageAudio, MessagePoll:
		return MessageType(s)
	default:
		return MessageText
	}
}

// Message is one record of a conversation log as last observed from the
// backend. The client never edits a Message; a changed vote count or pin
// flag is only seen by fetching the record again.
type Message struct {
	ID             string
	Sequence       int // Position in the conversation's total order
	SenderID       string
	SenderName     string
	Type           MessageType
	Content        string
	MediaURL       string // Out-of-band payload for image/audio messages
	ReplyToID      string // Empty when the message is not a reply
	ReplyPreview   string
	Pinned         bool
	VoteCount      int
	ViewerHasVoted bool
	Reaction       string
	Seen           bool
	CreatedAt      time.Time
	Poll           *Poll
}

// IsReply reports whether the message answers another message.
func (m Message) IsReply() bool {
	return m.ReplyToID != ""
}

// Poll is the payload of a poll message.
type Poll struct {
	Question string
	Multi    bool
	Options  []PollOption
}

type PollOption struct {
	ID    string
	Text  string
	Count int
	Voted bool
}

// TotalVotes sums the votes across all options.
func (p Poll) TotalVotes() int {
	total := 0
	for _, o := range p.Options {
		total += o.Count
	}
	return total
}

// Percent returns the rounded share of votes an option received.
func (p Poll) Percent(o PollOption) int {
	total := p.TotalVotes()
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(o.Count) * 100 / float64(total)))
}

// Page is one slice of a conversation returned by the backend.
// Records are oldest-first; Total is the size of the whole conversation.
type Page struct {
	Records []Message
	Total   int
	Title   string // Community name; empty for direct chats
	Access  Access
}

// Access is the viewer's standing in a conversation as of the last page.
// A Guest can read a community but must join before writing.
type Access struct {
	Guest     bool
	Moderator bool
	Admin     bool
}

// CanModerate reports whether the viewer may pin messages and ban users.
func (a Access) CanModerate() bool {
	return a.Moderator || a.Admin
}

// Newest returns the newest record of the page.
func (p Page) Newest() (Message, bool) {
	if len(p.Records) == 0 {
		return Message{}, false
	}
	return p.Records[len(p.Records)-1], true
}
