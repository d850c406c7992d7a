// Package auth issues and resolves login tokens. A username is the player id
// used at tables, so a resolved token names whose hole cards the caller may
// see and on whose behalf they may act.
package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service is the auth contract consumed by the HTTP API and the gateway.
type Service interface {
	Register(ctx context.Context, username, password string) (sessionToken string, err error)
	Login(ctx context.Context, username, password string) (sessionToken string, err error)
	ResolveSession(token string) (username string, ok bool)
	Logout(token string)
}
