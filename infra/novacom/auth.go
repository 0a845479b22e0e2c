package novacom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/CrestNiraj12/novaterm/app"
	"github.com/CrestNiraj12/novaterm/domain"
)

var _ app.Authenticator = (*authenticator)(nil)

// authenticator implements app.Authenticator with the backend's login action.
type authenticator struct {
	caller Caller
}

func NewAuthenticator(caller Caller) *authenticator {
	return &authenticator{caller: caller}
}

// Login returns the viewer's user ID.
func (a *authenticator) Login(ctx context.Context, username, password string) (string, error) {
	data, err := a.caller.Call(ctx, "login", username, password)
	if err != nil {
		var backendErr *BackendError
		if errors.As(err, &backendErr) {
			return "", fmt.Errorf("%w: %s", domain.ErrUnauthorized, backendErr.Message)
		}
		return "", fmt.Errorf("login: %w", err)
	}
	var res wireLogin
	if err := json.Unmarshal(data, &res); err != nil {
		return "", fmt.Errorf("parsing login response: %w", err)
	}
	id, err := strconv.Atoi(res.ID.String())
	if err != nil || id <= 0 {
		return "", fmt.Errorf("%w: invalid username or password", domain.ErrUnauthorized)
	}
	return strconv.Itoa(id), nil
}
