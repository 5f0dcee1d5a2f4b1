// Package auth verifies credentials. The rest of the system only depends
// on one thing: a valid login yields a stable opaque identity used as the
// owner key for every local and remote record.
package auth

import (
	"context"
	"errors"
	"strings"

	"budgetbox/internal/core"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Fallback is the identity that must stay usable without any network
// access, so the app is fully operable offline.
var Fallback = core.Identity{
	ID:    "demo-user-123",
	Email: "hire-me@anshumat.org",
}

// bcrypt hash of the fallback password.
const fallbackPasswordHash = "$2b$10$BWuT0qP9ZMZxZrc0mWKDNuJzVuHbOCwGZ9PcnIIjweVIboBN/fO42"

type credential struct {
	identity     core.Identity
	passwordHash string
}

// Authenticator verifies email/password pairs against an in-process
// credential table.
type Authenticator struct {
	users map[string]credential
}

// NewAuthenticator returns an authenticator pre-seeded with the fallback
// identity.
func NewAuthenticator() *Authenticator {
	a := &Authenticator{users: make(map[string]credential)}
	a.users[Fallback.Email] = credential{
		identity:     Fallback,
		passwordHash: fallbackPasswordHash,
	}
	return a
}

// Register adds or replaces a credential. The hash must be a bcrypt hash.
func (a *Authenticator) Register(id core.Identity, passwordHash string) {
	a.users[normalizeEmail(id.Email)] = credential{
		identity:     id,
		passwordHash: passwordHash,
	}
}

// Authenticate verifies the email and password, returning the identity if
// valid. Credential verification failures all map to ErrInvalidCredentials;
// callers get no hint whether the email exists.
func (a *Authenticator) Authenticate(_ context.Context, email, password string) (core.Identity, error) {
	cred, ok := a.users[normalizeEmail(email)]
	if !ok {
		return core.Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.passwordHash), []byte(password)); err != nil {
		return core.Identity{}, ErrInvalidCredentials
	}
	return cred.identity, nil
}

// CheckFallback verifies credentials against the embedded fallback
// identity without touching the network. The client tries this before any
// login request so the fallback user can log in while offline.
func CheckFallback(email, password string) (core.Identity, bool) {
	if normalizeEmail(email) != Fallback.Email {
		return core.Identity{}, false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(fallbackPasswordHash), []byte(password)); err != nil {
		return core.Identity{}, false
	}
	return Fallback, true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
