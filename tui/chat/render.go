package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"

	"github.com/CrestNiraj12/novaterm/domain"
	"github.com/CrestNiraj12/novaterm/tui/common"
)

const pollBarWidth = 16

// renderContent lays out the loaded messages oldest-first and returns the
// viewport content with the first line of every message.
func (m Model) renderContent(now time.Time) (string, []int) {
	var lines []string
	lines = append(lines, m.topBanner())

	offsets := make([]int, len(m.snap.Messages))
	for i, msg := range m.snap.Messages {
		offsets[i] = len(lines)
		block := m.renderMessage(msg, msg.ID == m.selected && m.focus == focusBrowse, now)
		lines = append(lines, strings.Split(block, "\n")...)
	}
	return strings.Join(lines, "\n"), offsets
}

// topBanner is always exactly one line so history prepends shift the
// content by the height of the new messages only.
func (m Model) topBanner() string {
	switch {
	case m.loadingOlder:
		return common.TimestampStyle.Render(m.spinner.View() + " Loading older messages...")
	case m.snap.HasMoreHistory:
		return common.HintStyle.Render("↑ scroll up for older messages")
	case m.hasSnap && len(m.snap.Messages) == 0:
		return common.HintStyle.Render("No messages yet. Say hi!")
	default:
		return common.HintStyle.Render("· start of conversation ·")
	}
}

func (m Model) renderMessage(msg domain.Message, selected bool, now time.Time) string {
	width := max(m.viewport.Width-4, 20)

	var b strings.Builder
	b.WriteString(m.renderHeader(msg, now))

	if msg.IsReply() {
		preview := msg.ReplyPreview
		if preview == "" {
			preview = "a message"
		}
		b.WriteString("\n")
		b.WriteString(common.ReplyStyle.Render(common.Truncate("↳ "+common.OneLine(preview), width)))
	}

	if body := m.renderBody(msg, width); body != "" {
		b.WriteString("\n")
		b.WriteString(body)
	}

	style := common.UnselectedStyle
	if selected {
		style = common.SelectedStyle
	}
	return style.Render(b.String()) + "\n"
}

func (m Model) renderHeader(msg domain.Message, now time.Time) string {
	name := msg.SenderName
	if name == "" {
		name = "user " + msg.SenderID
	}
	author := common.AuthorStyle.Render(name)
	if msg.SenderID == m.viewerID {
		author = common.OwnAuthorStyle.Render("You")
	}

	parts := []string{author}
	if m.showTimes && !msg.CreatedAt.IsZero() {
		parts = append(parts, common.TimestampStyle.Render(relativeTime(msg.CreatedAt, now)))
	}
	if msg.Pinned {
		parts = append(parts, common.PinnedStyle.Render("📌"))
	}
	if m.conv.Kind == domain.KindCommunity && (msg.VoteCount > 0 || msg.ViewerHasVoted) {
		badge := fmt.Sprintf("▲ %d", msg.VoteCount)
		if msg.ViewerHasVoted {
			badge += " ✓"
		}
		parts = append(parts, common.BadgeStyle.Render(badge))
	}
	if msg.Reaction != "" {
		parts = append(parts, msg.Reaction)
	}
	if m.conv.Kind == domain.KindDirect && msg.SenderID == m.viewerID && msg.Seen {
		parts = append(parts, common.TimestampStyle.Render("seen"))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderBody(msg domain.Message, width int) string {
	switch msg.Type {
	case domain.MessageImage, domain.MessageAudio:
		label := "[" + string(msg.Type) + "]"
		if msg.MediaURL != "" {
			label += " " + msg.MediaURL
		}
		body := common.TimestampStyle.Render(common.Truncate(label, width))
		if msg.Content != "" {
			body += "\n" + common.ContentStyle.Render(wordwrap.String(msg.Content, width))
		}
		return body
	case domain.MessagePoll:
		if msg.Poll != nil {
			return renderPoll(*msg.Poll, width)
		}
	}
	if msg.Content == "" {
		return ""
	}
	return common.ContentStyle.Render(wordwrap.String(msg.Content, width))
}

func renderPoll(p domain.Poll, width int) string {
	var b strings.Builder
	question := p.Question
	if p.Multi {
		question += " (multiple choice)"
	}
	b.WriteString(common.ContentStyle.Render(wordwrap.String("📊 "+question, width)))

	for i, o := range p.Options {
		pct := p.Percent(o)
		filled := pct * pollBarWidth / 100
		bar := common.PollBarStyle.Render(strings.Repeat("█", filled)) +
			common.HintStyle.Render(strings.Repeat("░", pollBarWidth-filled))
		mark := " "
		if o.Voted {
			mark = "✓"
		}
		label := common.Truncate(o.Text, max(width-pollBarWidth-16, 8))
		fmt.Fprintf(&b, "\n%s %d. %s %s %3d%% (%d)", mark, i+1, label, bar, pct, o.Count)
	}
	b.WriteString("\n")
	b.WriteString(common.HintStyle.Render(common.Plural(p.TotalVotes(), "vote", "votes")))
	return b.String()
}

func relativeTime(t, now time.Time) string {
	if now.Sub(t) < time.Minute {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
