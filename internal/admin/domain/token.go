package domain

import "time"

// VerificationTokenTTL is how long an email verification token stays valid.
const VerificationTokenTTL = 24 * time.Hour

// VerificationToken is a single-use email verification token. Only the
// SHA-256 fingerprint of the raw token is persisted; the raw value travels
// out-of-band (email) exactly once. At most one token is active per account:
// issuing a new one deletes all prior tokens first.
type VerificationToken struct {
	ID        string
	AccountID string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at the given time.
func (t VerificationToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
