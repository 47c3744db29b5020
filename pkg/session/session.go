package session

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Store issues opaque bearer tokens and resolves them back to a login.
type Store interface {
	Issue(ctx context.Context, login string) (string, error)
	Lookup(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}
