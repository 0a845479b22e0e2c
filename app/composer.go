package app

import "os/exec"

// Composer drafts a message in an external editor.
// Implemented by infrastructure (infra/editor spawning $EDITOR). The inline
// input box lives entirely in the Bubble Tea layer and falls back to this
// only when the user asks for the full editor.
type Composer interface {
	// Cmd prepares the editor process and returns the draft file it edits.
	Cmd(draft, replyTo string) (*exec.Cmd, string, error)

	// ReadContent returns the edited draft without the instruction header.
	ReadContent(path string) (string, error)
}
