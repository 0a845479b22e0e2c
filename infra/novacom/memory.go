package novacom

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

const defaultMemoryPageSize = 50

// MemoryBackend is an in-process NovaCom backend. It answers the same
// actions with the same JSON as the real executable and keeps everything
// in memory. Used by tests and demo mode.
type MemoryBackend struct {
	mu          sync.Mutex
	users       map[int]*memUser
	communities map[int]*memCommunity
	threads     map[string]*memThread
	calls       map[string]int
	now         func() time.Time
}

type memUser struct {
	id       int
	name     string
	password string
	avatar   string
}

type memCommunity struct {
	id       int
	name     string
	members  map[int]bool
	mods     map[int]bool
	admins   map[int]bool
	banned   map[int]bool
	nextID   int
	messages []*memMessage
}

type memThread struct {
	nextID   int
	messages []*memMessage
}

type memMessage struct {
	id       int
	senderID int
	content  string
	kind     string
	mediaURL string
	time     string
	replyTo  int
	pinned   bool
	upvoters map[int]bool
	reaction string
	seen     bool
	poll     *memPoll
}

type memPoll struct {
	question string
	multi    bool
	options  []memPollOption
}

type memPollOption struct {
	id     int
	text   string
	voters map[int]bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		users:       map[int]*memUser{},
		communities: map[int]*memCommunity{},
		threads:     map[string]*memThread{},
		calls:       map[string]int{},
		now:         time.Now,
	}
}

// AddUser registers a user that can log in with password.
func (b *MemoryBackend) AddUser(id int, name, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[id] = &memUser{id: id, name: name, password: password}
}

// AddCommunity creates a community with the given members.
func (b *MemoryBackend) AddCommunity(id int, name string, members ...int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := &memCommunity{
		id:      id,
		name:    name,
		members: map[int]bool{},
		mods:    map[int]bool{},
		admins:  map[int]bool{},
		banned:  map[int]bool{},
	}
	for _, m := range members {
		c.members[m] = true
	}
	b.communities[id] = c
}

// AddModerator grants userID moderator rights in commID.
func (b *MemoryBackend) AddModerator(commID, userID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.communities[commID]; ok {
		c.mods[userID] = true
		c.members[userID] = true
	}
}

// Post appends a text message to a community and returns its index.
func (b *MemoryBackend) Post(commID, senderID int, content string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.communities[commID]
	if !ok {
		return -1
	}
	c.messages = append(c.messages, b.newMessage(&c.nextID, senderID, content, "text", "", -1))
	return len(c.messages) - 1
}

// PostPoll appends a poll to a community and returns its index.
func (b *MemoryBackend) PostPoll(commID, senderID int, question string, multi bool, options ...string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.communities[commID]
	if !ok {
		return -1
	}
	b.appendPoll(c, senderID, question, multi, options)
	return len(c.messages) - 1
}

func (b *MemoryBackend) appendPoll(c *memCommunity, senderID int, question string, multi bool, options []string) {
	m := b.newMessage(&c.nextID, senderID, question, "poll", "", -1)
	m.poll = &memPoll{question: question, multi: multi}
	for i, text := range options {
		m.poll.options = append(m.poll.options, memPollOption{id: i, text: text, voters: map[int]bool{}})
	}
	c.messages = append(c.messages, m)
}

// PostDirect appends a direct message and returns its ID.
func (b *MemoryBackend) PostDirect(from, to int, content string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.thread(from, to)
	m := b.newMessage(&t.nextID, from, content, "text", "", -1)
	t.messages = append(t.messages, m)
	return m.id
}

// Calls reports how many times action was invoked.
func (b *MemoryBackend) Calls(action string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[action]
}

// SetClock replaces the time source used for message timestamps.
func (b *MemoryBackend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

type memHandler func(b *MemoryBackend, p params) (any, error)

var memHandlers = map[string]memHandler{
	"get_community":          (*MemoryBackend).getCommunity,
	"get_dm":                 (*MemoryBackend).getDM,
	"send_message":           (*MemoryBackend).sendMessage,
	"send_dm":                (*MemoryBackend).sendDM,
	"upvote_message":         (*MemoryBackend).upvoteMessage,
	"pin_message":            (*MemoryBackend).pinMessage,
	"delete_message":         (*MemoryBackend).deleteMessage,
	"delete_dm":              (*MemoryBackend).deleteDM,
	"ban_user":               (*MemoryBackend).banUser,
	"join_community":         (*MemoryBackend).joinCommunity,
	"create_poll":            (*MemoryBackend).createPoll,
	"leave_community":        (*MemoryBackend).leaveCommunity,
	"vote_poll":              (*MemoryBackend).votePoll,
	"react_dm":               (*MemoryBackend).reactDM,
	"get_my_dms":             (*MemoryBackend).getMyDMs,
	"get_joined_communities": (*MemoryBackend).getJoinedCommunities,
	"login":                  (*MemoryBackend).login,
}

// Call implements Caller.
func (b *MemoryBackend) Call(ctx context.Context, action string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[action]++

	h, ok := memHandlers[action]
	if !ok {
		return nil, &BackendError{Action: action, Message: "Unknown command"}
	}
	out, err := h(b, params(args))
	if err != nil {
		return nil, &BackendError{Action: action, Message: err.Error()}
	}
	return json.Marshal(out)
}

type params []string

func (p params) int(i int) (int, error) {
	if i >= len(p) {
		return 0, fmt.Errorf("missing parameter %d", i)
	}
	n, err := strconv.Atoi(p[i])
	if err != nil {
		return 0, fmt.Errorf("parameter %d: %q is not a number", i, p[i])
	}
	return n, nil
}

func (p params) intOr(i, def int) int {
	if n, err := p.int(i); err == nil {
		return n
	}
	return def
}

func (p params) str(i int) string {
	if i >= len(p) {
		return ""
	}
	return p[i]
}

func (p params) ints(n int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		v, err := p.int(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

var statusOK = wireStatus{Status: "success"}

func (b *MemoryBackend) newMessage(next *int, senderID int, content, kind, mediaURL string, replyTo int) *memMessage {
	m := &memMessage{
		id:       *next,
		senderID: senderID,
		content:  content,
		kind:     kind,
		mediaURL: mediaURL,
		time:     b.now().Format("15:04"),
		replyTo:  replyTo,
		upvoters: map[int]bool{},
	}
	*next++
	return m
}

func (b *MemoryBackend) community(id int) (*memCommunity, error) {
	c, ok := b.communities[id]
	if !ok {
		return nil, fmt.Errorf("community %d not found", id)
	}
	return c, nil
}

func (c *memCommunity) message(index int) (*memMessage, error) {
	if index < 0 || index >= len(c.messages) {
		return nil, fmt.Errorf("message index %d out of range", index)
	}
	return c.messages[index], nil
}

func (c *memCommunity) canModerate(userID int) bool {
	return c.mods[userID] || c.admins[userID]
}

func threadKey(u, v int) string {
	return fmt.Sprintf("%d_%d", min(u, v), max(u, v))
}

func (b *MemoryBackend) thread(u, v int) *memThread {
	key := threadKey(u, v)
	t, ok := b.threads[key]
	if !ok {
		t = &memThread{}
		b.threads[key] = t
	}
	return t
}

// pageBounds mirrors the backend: offset counts back from the newest record.
func pageBounds(total, offset, limit int) (int, int) {
	end := min(max(total-offset, 0), total)
	start := max(end-limit, 0)
	return start, end
}

func replyPreview(msgs []*memMessage, replyTo int) string {
	if replyTo < 0 {
		return ""
	}
	for _, m := range msgs {
		if m.id != replyTo {
			continue
		}
		text := m.content
		if m.kind == "image" {
			text = "[Image]"
		}
		if r := []rune(text); len(r) > 30 {
			text = string(r[:30])
		}
		return text
	}
	return ""
}

func (b *MemoryBackend) userName(id int) string {
	if u, ok := b.users[id]; ok {
		return u.name
	}
	return ""
}

func (b *MemoryBackend) getCommunity(p params) (any, error) {
	ids, err := p.ints(2)
	if err != nil {
		return nil, err
	}
	c, err := b.community(ids[0])
	if err != nil {
		return nil, err
	}
	viewer := ids[1]
	offset := p.intOr(2, 0)
	limit := p.intOr(3, defaultMemoryPageSize)
	isMember, isMod, isAdmin := c.members[viewer], c.mods[viewer], c.admins[viewer]

	page := wirePage{
		Name:     c.name,
		IsMember: &isMember,
		IsMod:    &isMod,
		IsAdmin:  &isAdmin,
		Total:    len(c.messages),
		Messages: []wireMessage{},
	}
	start, end := pageBounds(len(c.messages), offset, limit)
	for i := start; i < end; i++ {
		m := c.messages[i]
		index := i
		wm := wireMessage{
			Index:        &index,
			ID:           number(m.id),
			Sender:       b.userName(m.senderID),
			SenderID:     number(m.senderID),
			Content:      m.content,
			Type:         m.kind,
			MediaURL:     m.mediaURL,
			Time:         m.time,
			Votes:        len(m.upvoters),
			HasVoted:     m.upvoters[viewer],
			Pinned:       m.pinned,
			ReplyTo:      number(m.replyTo),
			ReplyPreview: replyPreview(c.messages, m.replyTo),
		}
		if m.poll != nil {
			wp := &wirePoll{Question: m.poll.question, Multi: m.poll.multi}
			for _, o := range m.poll.options {
				wp.Options = append(wp.Options, wirePollOption{
					ID:    number(o.id),
					Text:  o.text,
					Count: len(o.voters),
					Voted: o.voters[viewer],
				})
			}
			wm.Poll = wp
		}
		page.Messages = append(page.Messages, wm)
	}
	return page, nil
}

func (b *MemoryBackend) getDM(p params) (any, error) {
	ids, err := p.ints(2)
	if err != nil {
		return nil, err
	}
	viewer, friend := ids[0], ids[1]
	offset := p.intOr(2, 0)
	limit := p.intOr(3, defaultMemoryPageSize)

	page := wirePage{FriendID: number(friend), Messages: []wireMessage{}}
	t, ok := b.threads[threadKey(viewer, friend)]
	if !ok {
		return page, nil
	}
	for _, m := range t.messages {
		if m.senderID == friend {
			m.seen = true
		}
	}
	page.Total = len(t.messages)
	start, end := pageBounds(len(t.messages), offset, limit)
	for i := start; i < end; i++ {
		m := t.messages[i]
		page.Messages = append(page.Messages, wireMessage{
			ID:           number(m.id),
			SenderID:     number(m.senderID),
			Content:      m.content,
			Type:         m.kind,
			MediaURL:     m.mediaURL,
			Time:         m.time,
			ReplyTo:      number(m.replyTo),
			ReplyPreview: replyPreview(t.messages, m.replyTo),
			Reaction:     m.reaction,
			IsSeen:       m.seen,
		})
	}
	return page, nil
}

func (b *MemoryBackend) sendMessage(p params) (any, error) {
	ids, err := p.ints(2)
	if err != nil {
		return nil, err
	}
	c, err := b.community(ids[0])
	if err != nil {
		return nil, err
	}
	sender := ids[1]
	if !c.members[sender] {
		return nil, fmt.Errorf("user %d is not a member", sender)
	}
	kind := p.str(3)
	if kind == "" {
		kind = "text"
	}
	c.messages = append(c.messages, b.newMessage(&c.nextID, sender, p.str(2), kind, p.str(4), p.intOr(5, -1)))
	return statusOK, nil
}

func (b *MemoryBackend) sendDM(p params) (any, error) {
	ids, err := p.ints(3)
	if err != nil {
		return nil, err
	}
	kind := p.str(4)
	if kind == "" {
		kind = "text"
	}
	t := b.thread(ids[0], ids[1])
	t.messages = append(t.messages, b.newMessage(&t.nextID, ids[0], p.str(3), kind, p.str(5), ids[2]))
	return statusOK, nil
}

func (b *MemoryBackend) upvoteMessage(p params) (any, error) {
	ids, err := p.ints(3)
	if err != nil {
		return nil, err
	}
	c, err := b.community(ids[0])
	if err != nil {
		return nil, err
	}
	m, err := c.message(ids[2])
	if err != nil {
		return nil, err
	}
	user := ids[1]
	if m.upvoters[user] {
		delete(m.upvoters, user)
	} else {
		m.upvoters[user] = true
	}
	return statusOK, nil
}

// pinMessage toggles a pin. At most two messages stay pinned; pinning a
// third unpins the oldest.
func (b *MemoryBackend) pinMessage(p params) (any, error) {
	ids, err := p.ints(3)
	if err != nil {
		return nil, err
	}
	c, err := b.community(ids[0])
	if err != nil {
		return nil, err
	}
	if !c.canModerate(ids[1]) {
		return nil, fmt.Errorf("user %d cannot pin messages", ids[1])
	}
	target, err := c.message(ids[2])
	if err != nil {
		return nil, err
	}
	if target.pinned {
		target.pinned = false
		return statusOK, nil
	}
	pinned := 0
	first := -1
	for i, m := range c.messages {
		if m.pinned {
			pinned++
			if first == -1 {
				first = i
			}
		}
	}
	if pinned >= 2 {
		c.messages[first].pinned = false
	}
	target.pinned = true
	return statusOK, nil
}

func (b *MemoryBackend) deleteMessage(p params) (any, error) {
	ids, err := p.ints(3)
	if err != nil {
		return nil, err
	}
	c, err := b.community(ids[0])
	if err != nil {
		return nil, err
	}
	if !c.canModerate(ids[1]) {
		return nil, fmt.Errorf("user %d cannot delete messages", ids[1])
	}
	if _, err := c.message(ids[2]); err != nil {
		return nil, err
	}
	c.messages = append(c.messages[:ids[2]], c.messages[ids[2]+1:]...)
	return statusOK, nil
}

func (b *MemoryBackend) deleteDM(p params) (any, error) {
	ids, err := p.ints(3)
	if err != nil {
		return nil, err
	}
	t, found := b.threads[threadKey(ids[0], ids[1])]
	if !found {
		return nil, fmt.Errorf("no conversation with user %d", ids[1])
	}
	for i, m := range t.messages {
		if m.id == ids[2] {
			if m.senderID != ids[0] {
				return nil, fmt.Errorf("message %d was not sent by user %d", m.id, ids[0])
			}
			t.messages = append(t.messages[:i], t.messages[i+1:]...)
			return statusOK, nil
		}
	}
	return nil, fmt.Errorf("message %d not found", ids[2])
}

func (b *MemoryBackend) banUser(p params) (any, error) {
	ids, err := p.ints(3)
	if err != nil {
		return nil, err
	}
	c, err := b.community(ids[0])
	if err != nil {
		return nil, err
	}
	actor, target := ids[1], ids[2]
	switch {
	case c.mods[target]:
		return nil, fmt.Errorf("moderators cannot be banned")
	case c.mods[actor]:
		delete(c.admins, target)
	case c.admins[actor] && !c.admins[target]:
	default:
		return nil, fmt.Errorf("user %d cannot ban user %d", actor, target)
	}
	delete(c.members, target)
	c.banned[target] = true
	return statusOK, nil
}

func (b *MemoryBackend) joinCommunity(p params) (any, error) {
	ids, err := p.ints(2)
	if err != nil {
		return nil, err
	}
	c, err := b.community(ids[1])
	if err != nil {
		return nil, err
	}
	if c.banned[ids[0]] {
		return nil, fmt.Errorf("user %d is banned", ids[0])
	}
	c.members[ids[0]] = true
	if len(c.mods) == 0 {
		c.mods[ids[0]] = true
	}
	return statusOK, nil
}

// createPoll takes comm, sender, question, multi ("1" or "0") and the
// option labels.
func (b *MemoryBackend) createPoll(p params) (any, error) {
	ids, err := p.ints(2)
	if err != nil {
		return nil, err
	}
	c, err := b.community(ids[0])
	if err != nil {
		return nil, err
	}
	if !c.members[ids[1]] {
		return nil, fmt.Errorf("user %d is not a member", ids[1])
	}
	question := p.str(2)
	var options []string
	for i := 4; i < len(p); i++ {
		options = append(options, p[i])
	}
	if question == "" || len(options) < 2 {
		return nil, fmt.Errorf("poll needs a question and two options")
	}
	b.appendPoll(c, ids[1], question, p.str(3) == "1", options)
	return statusOK, nil
}

func (b *MemoryBackend) leaveCommunity(p params) (any, error) {
	ids, err := p.ints(2)
	if err != nil {
		return nil, err
	}
	c, err := b.community(ids[1])
	if err != nil {
		return nil, err
	}
	delete(c.members, ids[0])
	delete(c.admins, ids[0])
	delete(c.mods, ids[0])
	return statusOK, nil
}

// votePoll toggles the user's vote on one option. Single-choice polls drop
// the user's other votes.
func (b *MemoryBackend) votePoll(p params) (any, error) {
	ids, err := p.ints(4)
	if err != nil {
		return nil, err
	}
	c, err := b.community(ids[0])
	if err != nil {
		return nil, err
	}
	user, msgID, optID := ids[1], ids[2], ids[3]
	for _, m := range c.messages {
		if m.id != msgID || m.poll == nil {
			continue
		}
		for i := range m.poll.options {
			o := &m.poll.options[i]
			switch {
			case o.id == optID && o.voters[user]:
				delete(o.voters, user)
			case o.id == optID:
				o.voters[user] = true
			case !m.poll.multi:
				delete(o.voters, user)
			}
		}
		return statusOK, nil
	}
	return nil, fmt.Errorf("poll %d not found", msgID)
}

func (b *MemoryBackend) reactDM(p params) (any, error) {
	ids, err := p.ints(3)
	if err != nil {
		return nil, err
	}
	t, found := b.threads[threadKey(ids[0], ids[1])]
	if !found {
		return nil, fmt.Errorf("no conversation with user %d", ids[1])
	}
	for _, m := range t.messages {
		if m.id == ids[2] {
			m.reaction = p.str(3)
			return statusOK, nil
		}
	}
	return nil, fmt.Errorf("message %d not found", ids[2])
}

func (b *MemoryBackend) getMyDMs(p params) (any, error) {
	viewer, err := p.int(0)
	if err != nil {
		return nil, err
	}
	peers := make([]int, 0)
	for id := range b.users {
		if id == viewer {
			continue
		}
		if t, ok := b.threads[threadKey(viewer, id)]; ok && len(t.messages) > 0 {
			peers = append(peers, id)
		}
	}
	sort.Ints(peers)

	out := make([]wireInboxEntry, 0, len(peers))
	for _, peer := range peers {
		t := b.threads[threadKey(viewer, peer)]
		last := t.messages[len(t.messages)-1]
		unread := 0
		for _, m := range t.messages {
			if m.senderID == peer && !m.seen {
				unread++
			}
		}
		preview := last.content
		if r := []rune(preview); len(r) > 30 {
			preview = string(r[:30]) + "..."
		}
		out = append(out, wireInboxEntry{
			ID:         number(peer),
			Name:       b.userName(peer),
			Avatar:     b.users[peer].avatar,
			LastMsg:    preview,
			Time:       last.time,
			Unread:     unread,
			LastSender: number(last.senderID),
			LastSeen:   last.seen,
		})
	}
	return out, nil
}

func (b *MemoryBackend) getJoinedCommunities(p params) (any, error) {
	viewer, err := p.int(0)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0)
	for id, c := range b.communities {
		if c.members[viewer] {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := make([]wireCommunity, 0, len(ids))
	for _, id := range ids {
		out = append(out, wireCommunity{ID: number(id), Name: b.communities[id].name})
	}
	return out, nil
}

func (b *MemoryBackend) login(p params) (any, error) {
	name, password := p.str(0), p.str(1)
	for _, u := range b.users {
		if u.name == name && u.password == password {
			return wireLogin{ID: number(u.id)}, nil
		}
	}
	return nil, fmt.Errorf("invalid credentials")
}
