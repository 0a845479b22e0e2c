package domain

import "fmt"

// InboxEntry summarizes one direct chat for the inbox list.
type InboxEntry struct {
	PeerID       string
	PeerName     string
	AvatarURL    string
	Unread       int
	LastSenderID string
	LastSeen     bool
	LastMessage  string
	Time         string
}

// StatusLabel is the one-line status shown under the peer name.
func (e InboxEntry) StatusLabel(viewerID string) string {
	if e.Unread > 0 {
		switch {
		case e.Unread > 3:
			return "4+ new messages"
		case e.Unread == 1:
			return "1 new message"
		default:
			return fmt.Sprintf("%d new messages", e.Unread)
		}
	}
	if e.LastSenderID != "" && e.LastSenderID == viewerID {
		if e.LastSeen {
			return "Seen"
		}
		return "Sent"
	}
	return e.LastMessage
}

// Conversation returns the direct conversation for this entry.
func (e InboxEntry) Conversation() ConversationID {
	return Direct(e.PeerID)
}
