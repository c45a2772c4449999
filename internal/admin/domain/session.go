package domain

import "time"

// Session is the server-side state behind the admin_session cookie. Only the
// SHA-256 fingerprint of the opaque cookie token is stored. The three flags
// AccountID / TwoFactorPending / TwoFactorVerified drive every access-control
// decision; handlers receive the Session as an explicit value, never through
// a singleton.
//
// Login always creates a fresh session row with a fresh token. Logout deletes
// the row outright, so a fixated pre-login token can never become an
// authenticated session.
type Session struct {
	ID                string
	TokenHash         string
	AccountID         string
	Pool              Pool
	TwoFactorPending  bool
	TwoFactorVerified bool
	IPAddress         string
	UserAgent         string
	CreatedAt         time.Time
	ExpiresAt         time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
