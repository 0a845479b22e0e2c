package feedsync

// Change classifies an applied window update for scroll anchoring.
type Change int

const (
	ChangeNone Change = iota
	ChangeLive
	ChangeHistory
	ChangeTotal
)

func (c Change) String() string {
	switch c {
	case ChangeLive:
		return "live"
	case ChangeHistory:
		return "history"
	case ChangeTotal:
		return "total"
	default:
		return "none"
	}
}

// Viewport is the scrolling surface the presentation layer renders into.
type Viewport interface {
	// MeasureExtent returns the full content height after the latest render.
	MeasureExtent() int
	SetScrollOffset(offset int)
}

// ScrollPosition is a viewer's scroll state, in lines.
type ScrollPosition struct {
	Offset     int
	ViewHeight int
	Extent     int
}

// Resolve computes where the viewport should scroll after a change was
// rendered. History prepends keep the first visible record in place; live
// changes follow the bottom only when the viewer was already there.
func Resolve(change Change, wasAnchored bool, prevOffset, prevExtent, newExtent, viewHeight int) (int, bool) {
	switch change {
	case ChangeHistory:
		return max(prevOffset+(newExtent-prevExtent), 0), true
	case ChangeLive:
		if wasAnchored {
			return max(newExtent-viewHeight, 0), true
		}
	}
	return prevOffset, false
}

// IsNearBottom reports whether the visible area ends within tolerance lines
// of the content end.
func IsNearBottom(offset, viewHeight, extent, tolerance int) bool {
	return extent-(offset+viewHeight) <= tolerance
}

// AtTop reports whether the viewer reached the top of the content.
func AtTop(offset int) bool { return offset <= 0 }

// ScrollAnchor keeps a viewer's visual position stable across updates.
type ScrollAnchor struct {
	Tolerance int
}

// NearBottom applies IsNearBottom with the anchor's tolerance.
func (a ScrollAnchor) NearBottom(pos ScrollPosition) bool {
	return IsNearBottom(pos.Offset, pos.ViewHeight, pos.Extent, a.Tolerance)
}

// Apply re-anchors vp after content for change has been set. prev is the
// position captured before the new content was rendered.
func (a ScrollAnchor) Apply(vp Viewport, change Change, wasAnchored bool, prev ScrollPosition) (int, bool) {
	offset, move := Resolve(change, wasAnchored, prev.Offset, prev.Extent, vp.MeasureExtent(), prev.ViewHeight)
	if move {
		vp.SetScrollOffset(offset)
	}
	return offset, move
}
