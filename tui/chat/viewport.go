package chat

import "github.com/charmbracelet/bubbles/viewport"

// viewportAdapter lets feedsync.ScrollAnchor move a bubbles viewport.
type viewportAdapter struct {
	vp *viewport.Model
}

func (a viewportAdapter) MeasureExtent() int { return a.vp.TotalLineCount() }

func (a viewportAdapter) SetScrollOffset(offset int) { a.vp.SetYOffset(offset) }
