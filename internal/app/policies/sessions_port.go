package policies

import (
	"context"
	"errors"
)

var ErrSessionNotFound = errors.New("policies: session not found")

// Principal is the authenticated caller as resolved by the session
// collaborator. Authentication itself is external; the app only needs
// the identity attached to a bearer token.
type Principal struct {
	ID    string
	Email string
	Name  string
	Roles []string
}

type SessionPort interface {
	Resolve(ctx context.Context, token string) (Principal, error)
}
