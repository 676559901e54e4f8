package domain

// SessionState is the outcome of resolving a request's session.
type SessionState int

// Session states.
const (
	SessionAnonymous SessionState = iota
	SessionAuthenticated
	SessionError
)

// Session is the typed result of resolving a session token once per request.
// User is set only when State is SessionAuthenticated; Err carries the reason
// for SessionError and, for diagnostics, why a presented token was rejected.
type Session struct {
	State SessionState
	User  *User
	Err   error
}

// IsAuthenticated reports whether the session resolved to a user.
func (s Session) IsAuthenticated() bool {
	return s.State == SessionAuthenticated && s.User != nil
}
