package app

import "context"

// Authenticator exchanges credentials for the viewer's user ID.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// ViewerSource supplies the logged-in user's ID.
type ViewerSource interface {
	// ViewerID returns domain.ErrUnauthorized when nobody is logged in.
	ViewerID() (string, error)
}

// Session is a ViewerSource that can be replaced or forgotten.
type Session interface {
	ViewerSource
	Save(id string) error
	Clear() error
}
