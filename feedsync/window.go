package feedsync

import (
	"errors"
	"fmt"
	"sort"

	"github.com/CrestNiraj12/novaterm/domain"
)

var errNotLive = errors.New("window is not on the live page")

// Window is the loaded slice of one conversation plus its paging state.
// It is not safe for concurrent use; the Controller serializes access.
type Window struct {
	conv             domain.ConversationID
	loaded           []domain.Message // ascending by Sequence, unique IDs
	knownTotal       int
	cursor           int // offset of the last history page; 0 = live
	loadingHistory   bool
	anchoredToBottom bool
	pinned           []domain.Message
	title            string
	access           domain.Access
	generation       uint64
}

// NewWindow returns an empty window that starts anchored to the bottom.
func NewWindow(conv domain.ConversationID) *Window {
	return &Window{conv: conv, anchoredToBottom: true}
}

// ReplaceLive swaps the loaded records for a fresh live page.
// Callers must only use it while the cursor is 0.
func (w *Window) ReplaceLive(page domain.Page) error {
	if w.cursor != 0 {
		return errNotLive
	}
	records := normalizeRecords(page.Records)
	w.loaded = records
	w.knownTotal = max(page.Total, len(records))
	w.pinned = pinnedOf(records)
	w.observeAccess(page)
	w.generation++
	return nil
}

// PrependHistory merges an older page in front of the loaded records and
// moves the cursor to newCursor. The page must end right before the oldest
// loaded record; otherwise the window is left untouched and ErrStaleFetch is
// returned.
func (w *Window) PrependHistory(page domain.Page, newCursor int) error {
	records := normalizeRecords(page.Records)
	if len(records) == 0 {
		return fmt.Errorf("%w: empty history page", domain.ErrStaleFetch)
	}
	if len(w.loaded) == 0 {
		w.loaded = records
		w.cursor = newCursor
		w.knownTotal = max(page.Total, len(w.loaded))
		return nil
	}

	oldest := w.loaded[0]
	newest := records[len(records)-1]
	if newest.Sequence != oldest.Sequence-1 {
		return fmt.Errorf("%w: page ends at %d, window starts at %d", domain.ErrStaleFetch, newest.Sequence, oldest.Sequence)
	}

	present := make(map[string]struct{}, len(w.loaded))
	for _, m := range w.loaded {
		present[m.ID] = struct{}{}
	}
	older := make([]domain.Message, 0, len(records)+len(w.loaded))
	for _, m := range records {
		if m.Sequence >= oldest.Sequence {
			continue
		}
		if _, ok := present[m.ID]; ok {
			continue
		}
		older = append(older, m)
	}
	w.loaded = append(older, w.loaded...)
	w.cursor = newCursor
	w.knownTotal = max(page.Total, len(w.loaded))
	return nil
}

// ObserveTotal records the total and pinned subset of a live page without
// touching the loaded records. Used while the viewer is reading history.
func (w *Window) ObserveTotal(page domain.Page) {
	w.knownTotal = max(page.Total, len(w.loaded))
	w.pinned = pinnedOf(normalizeRecords(page.Records))
	w.observeAccess(page)
}

// observeAccess keeps the title and the viewer's role from the newest page.
func (w *Window) observeAccess(page domain.Page) {
	if page.Title != "" {
		w.title = page.Title
	}
	w.access = page.Access
}

// ForceLive resets the cursor so the next live page replaces the window.
func (w *Window) ForceLive() {
	w.cursor = 0
	w.generation++
}

// NextHistoryOffset is the backward offset of the page that ends right
// before the oldest loaded record.
func (w *Window) NextHistoryOffset() int {
	if len(w.loaded) == 0 {
		return 0
	}
	return max(w.knownTotal-w.loaded[0].Sequence, 0)
}

// HasMoreHistory reports whether older records exist on the backend.
func (w *Window) HasMoreHistory() bool {
	if len(w.loaded) == 0 {
		return false
	}
	return len(w.loaded) < w.knownTotal && w.loaded[0].Sequence > 0
}

// HasNewerThanLoaded reports whether the backend holds records newer than
// the newest loaded one.
func (w *Window) HasNewerThanLoaded() bool {
	if len(w.loaded) == 0 {
		return w.knownTotal > 0
	}
	return w.loaded[len(w.loaded)-1].Sequence < w.knownTotal-1
}

func (w *Window) Conversation() domain.ConversationID { return w.conv }
func (w *Window) KnownTotal() int                     { return w.knownTotal }
func (w *Window) Cursor() int                         { return w.cursor }
func (w *Window) LoadingHistory() bool                { return w.loadingHistory }
func (w *Window) AnchoredToBottom() bool              { return w.anchoredToBottom }
func (w *Window) Access() domain.Access               { return w.access }
func (w *Window) Len() int                            { return len(w.loaded) }

// Loaded returns a copy of the loaded records.
func (w *Window) Loaded() []domain.Message {
	return append([]domain.Message(nil), w.loaded...)
}

// Find looks up a loaded record by ID.
func (w *Window) Find(id string) (domain.Message, bool) {
	for _, m := range w.loaded {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Message{}, false
}

// Snapshot is an immutable view of a Window for the presentation layer.
type Snapshot struct {
	Conversation     domain.ConversationID
	Messages         []domain.Message
	Pinned           []domain.Message
	KnownTotal       int
	Cursor           int
	LoadingHistory   bool
	AnchoredToBottom bool
	HasMoreHistory   bool
	Title            string
	Access           domain.Access
}

// Snapshot copies the window state.
func (w *Window) Snapshot() Snapshot {
	return Snapshot{
		Conversation:     w.conv,
		Messages:         w.Loaded(),
		Pinned:           append([]domain.Message(nil), w.pinned...),
		KnownTotal:       w.knownTotal,
		Cursor:           w.cursor,
		LoadingHistory:   w.loadingHistory,
		AnchoredToBottom: w.anchoredToBottom,
		HasMoreHistory:   w.HasMoreHistory(),
		Title:            w.title,
		Access:           w.access,
	}
}

// Find looks up a record in the snapshot by ID.
func (s Snapshot) Find(id string) (domain.Message, bool) {
	for _, m := range s.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Message{}, false
}

// normalizeRecords sorts by Sequence and drops repeated IDs or sequences,
// keeping the first occurrence.
func normalizeRecords(in []domain.Message) []domain.Message {
	out := append([]domain.Message(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sequence < out[j].Sequence
	})
	seen := make(map[string]struct{}, len(out))
	n := 0
	for i, m := range out {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		if n > 0 && out[n-1].Sequence == m.Sequence {
			continue
		}
		seen[m.ID] = struct{}{}
		out[n] = out[i]
		n++
	}
	return out[:n]
}

func pinnedOf(records []domain.Message) []domain.Message {
	var out []domain.Message
	for _, m := range records {
		if m.Pinned {
			out = append(out, m)
		}
	}
	return out
}
