package novacom

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/CrestNiraj12/novaterm/domain"
)

// Wire shapes of the backend's JSON output. The same types are encoded by
// MemoryBackend, so both directions stay in step.

type wirePage struct {
	FriendID json.Number   `json:"friend_id,omitempty"`
	Name     string        `json:"name,omitempty"`
	IsMember *bool         `json:"is_member,omitempty"`
	IsMod    *bool         `json:"is_mod,omitempty"`
	IsAdmin  *bool         `json:"is_admin,omitempty"`
	Total    int           `json:"total_msgs"`
	Messages []wireMessage `json:"messages"`
}

type wireMessage struct {
	Index        *int        `json:"index,omitempty"`
	ID           json.Number `json:"id"`
	Sender       string      `json:"sender,omitempty"`
	SenderID     json.Number `json:"senderId"`
	SenderAvatar string      `json:"senderAvatar,omitempty"`
	Content      string      `json:"content"`
	Type         string      `json:"type"`
	MediaURL     string      `json:"mediaUrl"`
	Poll         *wirePoll   `json:"poll,omitempty"`
	Time         string      `json:"time"`
	Votes        int         `json:"votes"`
	HasVoted     bool        `json:"has_voted"`
	Pinned       bool        `json:"pinned"`
	ReplyTo      json.Number `json:"replyTo"`
	ReplyPreview string      `json:"replyPreview"`
	Reaction     string      `json:"reaction,omitempty"`
	IsSeen       bool        `json:"isSeen,omitempty"`
}

type wirePoll struct {
	Question string           `json:"question"`
	Multi    bool             `json:"multi"`
	Options  []wirePollOption `json:"options"`
}

type wirePollOption struct {
	ID    json.Number `json:"id"`
	Text  string      `json:"text"`
	Count int         `json:"count"`
	Voted bool        `json:"voted"`
}

type wireInboxEntry struct {
	ID         json.Number `json:"id"`
	Name       string      `json:"name"`
	Avatar     string      `json:"avatar"`
	LastMsg    string      `json:"last_msg"`
	Time       string      `json:"time"`
	Unread     int         `json:"unread"`
	LastSender json.Number `json:"lastSender"`
	LastSeen   bool        `json:"lastSeen"`
}

type wireCommunity struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

type wireLogin struct {
	ID json.Number `json:"id"`
}

type wireStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// toPage maps a backend page. Records without an index get their position
// from the paging window the backend used.
func toPage(w wirePage, offset, limit int, now time.Time) domain.Page {
	end := max(w.Total-offset, 0)
	start := max(end-limit, 0)
	if n := len(w.Messages); end-start != n {
		start = max(end-n, 0)
	}

	records := make([]domain.Message, 0, len(w.Messages))
	for i, m := range w.Messages {
		seq := start + i
		if m.Index != nil {
			seq = *m.Index
		}
		records = append(records, toMessage(m, seq, now))
	}
	return domain.Page{Records: records, Total: w.Total, Title: w.Name, Access: w.access()}
}

// access reads the viewer's role flags. Direct chats carry none and are
// always writable.
func (w wirePage) access() domain.Access {
	var a domain.Access
	if w.IsMember != nil {
		a.Guest = !*w.IsMember
	}
	if w.IsMod != nil {
		a.Moderator = *w.IsMod
	}
	if w.IsAdmin != nil {
		a.Admin = *w.IsAdmin
	}
	return a
}

func toMessage(m wireMessage, seq int, now time.Time) domain.Message {
	msg := domain.Message{
		ID:             m.ID.String(),
		Sequence:       seq,
		SenderID:       m.SenderID.String(),
		SenderName:     m.Sender,
		Type:           domain.ParseMessageType(strings.ToLower(m.Type)),
		Content:        m.Content,
		MediaURL:       cleanMediaURL(m.MediaURL),
		ReplyToID:      cleanRef(m.ReplyTo),
		ReplyPreview:   m.ReplyPreview,
		Pinned:         m.Pinned,
		VoteCount:      m.Votes,
		ViewerHasVoted: m.HasVoted,
		Reaction:       m.Reaction,
		Seen:           m.IsSeen,
		CreatedAt:      parseWireTime(m.Time, now),
	}
	if m.Poll != nil {
		poll := &domain.Poll{Question: m.Poll.Question, Multi: m.Poll.Multi}
		for _, o := range m.Poll.Options {
			poll.Options = append(poll.Options, domain.PollOption{
				ID:    o.ID.String(),
				Text:  o.Text,
				Count: o.Count,
				Voted: o.Voted,
			})
		}
		msg.Poll = poll
		msg.Type = domain.MessagePoll
	}
	return msg
}

func toInboxEntry(w wireInboxEntry) domain.InboxEntry {
	return domain.InboxEntry{
		PeerID:       w.ID.String(),
		PeerName:     w.Name,
		AvatarURL:    cleanMediaURL(w.Avatar),
		Unread:       w.Unread,
		LastSenderID: cleanRef(w.LastSender),
		LastSeen:     w.LastSeen,
		LastMessage:  w.LastMsg,
		Time:         w.Time,
	}
}

// cleanRef maps the backend's -1 "no reference" marker to "".
func cleanRef(n json.Number) string {
	s := n.String()
	if s == "" || strings.HasPrefix(s, "-") {
		return ""
	}
	return s
}

func cleanMediaURL(s string) string {
	if strings.EqualFold(s, "NONE") {
		return ""
	}
	return s
}

// parseWireTime accepts RFC 3339 or the backend's bare "15:04" clock,
// which is taken as today in local time.
func parseWireTime(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.ParseInLocation("15:04", s, now.Location()); err == nil {
		y, mo, d := now.Date()
		return time.Date(y, mo, d, t.Hour(), t.Minute(), 0, 0, now.Location())
	}
	return time.Time{}
}

func itoa(n int) string { return strconv.Itoa(n) }

func number(n int) json.Number { return json.Number(strconv.Itoa(n)) }
