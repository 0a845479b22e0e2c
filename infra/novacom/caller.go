// Package novacom talks to the NovaCom backend, either through its HTTP
// bridge or by running the backend executable directly. Every backend
// action takes positional string parameters and prints one JSON document.
package novacom

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Caller invokes one backend action and returns its raw JSON output.
type Caller interface {
	Call(ctx context.Context, action string, params ...string) ([]byte, error)
}

// BackendError is an {"error": ...} reply. The backend understood the
// request and refused it.
type BackendError struct {
	Action  string
	Message string
	Details string
}

func (e *BackendError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Action, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

type request struct {
	Action string   `json:"action"`
	Params []string `json:"params"`
}

type errorEnvelope struct {
	Error   *string `json:"error"`
	Details string  `json:"details"`
}

// checkEnvelope returns a *BackendError when data is an error reply.
func checkEnvelope(action string, data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil
	}
	if env.Error == nil {
		return nil
	}
	return &BackendError{Action: action, Message: *env.Error, Details: strings.TrimSpace(env.Details)}
}

// errorText extracts a readable message from a failed reply body.
func errorText(data []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err == nil && env.Error != nil {
		if env.Details != "" {
			return *env.Error + ": " + strings.TrimSpace(env.Details)
		}
		return *env.Error
	}
	text := strings.TrimSpace(string(data))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
