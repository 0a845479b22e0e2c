package chat

import (
	"fmt"
	"strings"

	"github.com/CrestNiraj12/novaterm/domain"
	"github.com/CrestNiraj12/novaterm/tui/common"
)

// View renders the header, pinned bar, message viewport, input and status.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderTitle())
	b.WriteString("\n")

	for _, p := range m.snap.Pinned {
		line := "📌 " + p.SenderName + ": " + common.OneLine(p.Content)
		b.WriteString(common.PinnedStyle.Render(common.Truncate(line, max(m.width-2, 10))))
		b.WriteString("\n")
	}

	switch {
	case m.loadErr != nil && !m.hasSnap:
		b.WriteString(common.ErrorStyle.Render("Could not load conversation: " + m.loadErr.Error()))
		b.WriteString("\n")
		b.WriteString(common.HintStyle.Render("ctrl+r to retry • esc to go back"))
		b.WriteString(strings.Repeat("\n", max(m.viewport.Height-1, 1)))
	case !m.hasSnap:
		b.WriteString(common.TimestampStyle.Render(m.spinner.View() + " Loading messages..."))
		b.WriteString(strings.Repeat("\n", max(m.viewport.Height, 1)))
	default:
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	if m.showHints {
		b.WriteString("\n")
		b.WriteString(common.HintStyle.Render(m.hints()))
	}
	return b.String()
}

func (m Model) renderTitle() string {
	icon := "#"
	if m.conv.Kind == domain.KindDirect {
		icon = "@"
	}
	title := common.AppTitleStyle.Render("novaterm") + common.ConversationStyle.Render(icon+m.title)
	if m.hasSnap {
		title += "  " + common.TimestampStyle.Render(common.Plural(m.snap.KnownTotal, "message", "messages"))
	}
	return title
}

func (m Model) renderStatus() string {
	if m.confirm != nil {
		return common.ConfirmStyle.Render(m.confirm.prompt + " (y/n)")
	}

	var parts []string
	if m.guest() {
		parts = append(parts, common.UnreadStyle.Render("Not a member • J to join"))
	}
	if m.hasSnap && m.snap.Cursor > 0 {
		newer := m.snap.KnownTotal - m.snap.Cursor
		if n := len(m.snap.Messages); n > 0 {
			newer = m.snap.KnownTotal - (m.snap.Messages[n-1].Sequence + 1)
		}
		if newer > 0 {
			parts = append(parts, common.UnreadStyle.Render(fmt.Sprintf("↓ %d newer (G to jump)", newer)))
		}
	}
	if m.status != "" {
		style := common.StatusBarStyle
		if strings.HasPrefix(m.status, "Error") || strings.HasPrefix(m.status, "Connection") {
			style = common.ErrorStyle
		}
		parts = append(parts, style.Render(m.status))
	}
	if len(parts) == 0 {
		mode := "browse"
		if m.focus == focusInput {
			mode = "write"
		}
		parts = append(parts, common.StatusBarStyle.Render(mode+" • tab to switch • ? for keys"))
	}
	return strings.Join(parts, "  ")
}

func (m Model) hints() string {
	if m.focus == focusInput {
		return "enter send • ctrl+e editor • esc browse • ctrl+r refresh"
	}
	h := "j/k select • r reply • v vote • e react • 1-9 poll • d delete • G latest • t times • esc back"
	switch {
	case m.guest():
		h += " • J join"
	case m.conv.Kind == domain.KindCommunity:
		h += " • P poll"
		if m.canModerate() {
			h += " • p pin • B ban"
		}
		h += " • L leave"
	}
	return h
}
