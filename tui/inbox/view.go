package inbox

import (
	"fmt"
	"strings"

	"github.com/CrestNiraj12/novaterm/tui/common"
)

// View renders both sections with the cursor row highlighted.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(common.AppTitleStyle.Render("novaterm"))
	if n := m.UnreadTotal(); n > 0 {
		b.WriteString(common.UnreadStyle.Render(fmt.Sprintf(" %d unread", n)))
	}
	b.WriteString("\n\n")

	if !m.loaded {
		if m.err != nil {
			b.WriteString(common.ErrorStyle.Render("Could not load inbox: " + m.err.Error()))
		} else {
			b.WriteString(common.TimestampStyle.Render(m.spinner.View() + " Loading conversations..."))
		}
		b.WriteString("\n")
		return b.String()
	}

	width := max(m.width-4, 20)
	rows := m.rows()

	b.WriteString(common.SectionStyle.Render("Communities"))
	b.WriteString("\n")
	if len(m.communities) == 0 {
		b.WriteString(common.HintStyle.Render("  You haven't joined any communities."))
		b.WriteString("\n")
	}
	for i, r := range rows {
		if i == len(m.communities) {
			b.WriteString("\n")
			b.WriteString(common.SectionStyle.Render("Direct messages"))
			b.WriteString("\n")
		}
		b.WriteString(m.renderRow(r, i == m.cursor, width))
		b.WriteString("\n")
	}
	if len(m.dms) == 0 {
		b.WriteString("\n")
		b.WriteString(common.SectionStyle.Render("Direct messages"))
		b.WriteString("\n")
		b.WriteString(common.HintStyle.Render("  No conversations yet."))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(common.ErrorStyle.Render("Refresh failed: " + m.err.Error()))
	}
	b.WriteString("\n")
	b.WriteString(common.HintStyle.Render("↑/↓ select • enter open • ctrl+r refresh • q quit"))
	return b.String()
}

func (m Model) renderRow(r row, selected bool, width int) string {
	style := common.ActionInactiveStyle
	prefix := "  "
	if selected {
		style = common.ActionActiveStyle
		prefix = "> "
	}

	if r.dm == nil {
		return style.Render(common.Truncate(prefix+"# "+r.title, width))
	}

	line := prefix + "@ " + r.title
	status := r.dm.StatusLabel(m.viewerID)
	label := common.TimestampStyle.Render(common.Truncate(common.OneLine(status), max(width-len(line)-10, 8)))
	if r.dm.Unread > 0 {
		label = common.UnreadStyle.Render(status)
	}
	out := style.Render(line) + "  " + label
	if r.dm.Time != "" {
		out += "  " + common.TimestampStyle.Render(r.dm.Time)
	}
	return out
}
