package compose

import (
	"fmt"
	"strings"

	"github.com/CrestNiraj12/novaterm/tui/common"
)

// View renders the reply target (if any), the textarea and a char counter.
func (m Model) View() string {
	if m.editing {
		return common.StatusBarStyle.Render("Editing in $EDITOR...")
	}

	var b strings.Builder
	if m.replyTo != "" {
		b.WriteString(common.ReplyStyle.Render("↳ replying to " + m.replyLabel))
		b.WriteString("\n")
	}
	b.WriteString(m.textarea.View())
	if m.textarea.Focused() {
		b.WriteString("\n")
		b.WriteString(common.HintStyle.Render(
			fmt.Sprintf("enter: send • alt+enter: newline • ctrl+e: $EDITOR • %d/%d", len([]rune(m.textarea.Value())), charLimit),
		))
	}
	return b.String()
}
