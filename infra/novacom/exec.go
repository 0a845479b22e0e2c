package novacom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/CrestNiraj12/novaterm/domain"
)

// ExecCaller runs the backend executable once per action, the same way
// the bridge does, so no bridge process is needed locally.
type ExecCaller struct {
	path string
	dir  string
	log  *zap.Logger
}

// NewExecCaller runs path with its own directory as the working directory,
// where the backend expects its data files.
func NewExecCaller(path string, log *zap.Logger) *ExecCaller {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExecCaller{path: path, dir: filepath.Dir(path), log: log}
}

func (c *ExecCaller) Call(ctx context.Context, action string, params ...string) ([]byte, error) {
	args := append([]string{action}, params...)
	cmd := exec.CommandContext(ctx, c.path, args...)
	cmd.Dir = c.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		c.log.Debug("backend exec failed", zap.String("action", action), zap.Error(err), zap.String("stderr", stderr.String()))
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if envErr := checkEnvelope(action, bytes.TrimSpace(out)); envErr != nil {
				return nil, envErr
			}
		}
		return nil, fmt.Errorf("%w: backend %s: %v: %s", domain.ErrNetwork, action, err, strings.TrimSpace(stderr.String()))
	}

	data := bytes.TrimSpace(out)
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: backend %s printed invalid JSON: %s", domain.ErrNetwork, action, errorText(data))
	}
	if err := checkEnvelope(action, data); err != nil {
		return nil, err
	}
	return data, nil
}
