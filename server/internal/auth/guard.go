package auth

import (
	"crypto/subtle"
	"errors"
	"sync/atomic"
)

// ErrUnauthorized is returned when the supplied admin password does not match.
var ErrUnauthorized = errors.New("auth: invalid admin password")

// Guard checks the shared admin password of the mutating endpoints.
//
// The password can be replaced at runtime (config hot reload); Guard is safe
// for concurrent use. An empty configured password rejects every request.
type Guard struct {
	password atomic.Value // string
}

// NewGuard returns a Guard expecting password.
func NewGuard(password string) *Guard {
	g := &Guard{}
	g.SetPassword(password)
	return g
}

// SetPassword replaces the expected password.
func (g *Guard) SetPassword(password string) {
	g.password.Store(password)
}

// Configured reports whether a non-empty password is set.
func (g *Guard) Configured() bool {
	return g.password.Load().(string) != ""
}

// Check compares supplied against the configured password in constant time.
func (g *Guard) Check(supplied string) error {
	want := g.password.Load().(string)
	if want == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(want)) != 1 {
		return ErrUnauthorized
	}
	return nil
}
