package domain

import "time"

// MaxUserAgentLen caps the persisted user agent string. Longer values are
// truncated, not rejected.
const MaxUserAgentLen = 500

// AuditEntry is one append-only record of a security-relevant action.
// Entries are write-once: no component exposes an update or delete on them.
type AuditEntry struct {
	ID         string
	ActorID    string
	Action     string // dotted action, e.g. "root_user.created", "auth.login"
	EntityType *string
	EntityID   *string
	OldValues  map[string]any
	NewValues  map[string]any
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
}

// AuditFilter narrows an audit listing. Zero values mean "no filter".
type AuditFilter struct {
	ActorID string
	Action  string
	Limit   int
	Offset  int
}
