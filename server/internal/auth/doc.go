// Package auth guards the admin endpoints of the standings server.
//
// Guard compares the admin_password field of a load request with the
// configured password in constant time and returns ErrUnauthorized on a
// mismatch or when no password is configured. Throttle wraps the same
// endpoints in a golang.org/x/time/rate token bucket and answers 429 when
// it is exhausted. Both can be reconfigured while the server runs.
package auth
