package wilderblog

import (
	"context"
	"errors"
)

// ErrAuthenticationFailed is returned for an unknown user, a wrong password,
// or a throttled client. Callers cannot tell these apart.
var ErrAuthenticationFailed = errors.New("wilderblog: authentication failed")

// CredentialStore looks up publishing accounts.
type CredentialStore interface {
	// FindByUsername returns ErrNotFound when no such user exists.
	FindByUsername(ctx context.Context, username string) (User, error)
	CheckPassword(ctx context.Context, u User, password string) (bool, error)
}

// Gate verifies the credentials passed with every call.
type Gate struct {
	store   CredentialStore
	limiter *LoginLimiter
}

// NewGate returns a Gate backed by store. limiter may be nil.
func NewGate(store CredentialStore, limiter *LoginLimiter) *Gate {
	return &Gate{store: store, limiter: limiter}
}

// Authenticate blocks until the store has answered and returns nil only for
// a known user with a matching password.
func (g *Gate) Authenticate(ctx context.Context, username, password string) error {
	key := clientIP(ctx)
	if g.limiter != nil && key != "" && !g.limiter.Check(key) {
		return ErrAuthenticationFailed
	}
	if g.check(ctx, username, password) {
		if g.limiter != nil && key != "" {
			g.limiter.Reset(key)
		}
		return nil
	}
	if g.limiter != nil && key != "" {
		g.limiter.Record(key)
	}
	return ErrAuthenticationFailed
}

func (g *Gate) check(ctx context.Context, username, password string) bool {
	u, err := g.store.FindByUsername(ctx, username)
	if err != nil {
		return false
	}
	ok, err := g.store.CheckPassword(ctx, u, password)
	return err == nil && ok
}
