package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/CrestNiraj12/novaterm/app"
)

// EnvEditor prepares an external editor command using $EDITOR (fallback: "vi").
// It does not run the editor; callers hand the *exec.Cmd to tea.ExecProcess
// so Bubble Tea releases the terminal first.
type EnvEditor struct{}

var _ app.Composer = (*EnvEditor)(nil)

// NewEnvEditor creates an EnvEditor.
func NewEnvEditor() *EnvEditor {
	return &EnvEditor{}
}

const instructionComment = `<!--
novaterm: write your message below.

- SAVE and EXIT to send (e.g., :wq in vi).
- An empty file cancels.
-->

`

// Cmd writes draft (and a reply header when replyTo is set) to a temp file
// and returns the editor command for it together with the file path.
func (e *EnvEditor) Cmd(draft, replyTo string) (*exec.Cmd, string, error) {
	editorCmd := strings.TrimSpace(os.Getenv("EDITOR"))
	if editorCmd == "" {
		editorCmd = "vi"
	}

	tmpFile, err := os.CreateTemp("", "novaterm-*.md")
	if err != nil {
		return nil, "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer tmpFile.Close()

	header := instructionComment
	if replyTo != "" {
		header = strings.Replace(header, "-->", "Replying to "+replyTo+"\n-->", 1)
	}
	if _, err := tmpFile.WriteString(header + draft); err != nil {
		os.Remove(tmpPath)
		return nil, "", fmt.Errorf("writing to temp file: %w", err)
	}

	fields := strings.Fields(editorCmd)
	args := append(fields[1:], tmpPath)
	return exec.Command(fields[0], args...), tmpPath, nil
}

// ReadContent reads the temp file, strips the instruction comment, trims
// whitespace, and removes the file.
func (e *EnvEditor) ReadContent(path string) (string, error) {
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading temp file: %w", err)
	}

	content := string(data)
	if idx := strings.Index(content, "-->"); idx != -1 {
		content = content[idx+3:]
	}
	return strings.TrimSpace(content), nil
}
