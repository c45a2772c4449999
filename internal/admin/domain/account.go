package domain

import "time"

// Pool identifies which account namespace an account belongs to. Root
// accounts administer the platform; tenant accounts administer a single
// tenant. The two pools are structurally identical but have independent
// uniqueness and last-active-user scopes.
type Pool string

const (
	PoolRoot   Pool = "root"
	PoolTenant Pool = "tenant"
)

// AuditAction returns the dotted action prefix used for audit entries in
// this pool, e.g. "root_user.created".
func (p Pool) AuditAction(verb string) string {
	if p == PoolRoot {
		return "root_user." + verb
	}
	return "user." + verb
}

// Account is an administrative login identity. Accounts are created without
// a password; they acquire one via the email verification flow, which is the
// only path that sets PasswordHash for the first time. An account with
// EmailVerifiedAt == nil therefore has PasswordHash == nil and cannot log in.
//
// TwoFactorSecret is plaintext in memory. The sqlite adapter encrypts it
// before writing and decrypts it after reading; nothing outside the adapter
// ever sees the ciphertext.
type Account struct {
	ID                   string
	Pool                 Pool
	TenantID             *string // set only for tenant-pool accounts
	Username             Username
	FirstName            string
	LastName             string
	Email                string
	PasswordHash         *string // argon2 encoded, nil until email verified
	AvatarPath           *string
	Active               bool
	TwoFactorEnabled     bool
	TwoFactorSecret      *string // base32 TOTP secret
	TwoFactorConfirmedAt *time.Time
	EmailVerifiedAt      *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CanAuthenticate reports whether the account is allowed to start a login.
// It intentionally does not distinguish the reasons; callers that need the
// precise failure order use the individual fields.
func (a Account) CanAuthenticate() bool {
	return a.EmailVerifiedAt != nil && a.PasswordHash != nil && a.Active
}

// TwoFactorPending reports whether a secret has been generated but not yet
// confirmed with a valid code.
func (a Account) TwoFactorPending() bool {
	return a.TwoFactorSecret != nil && !a.TwoFactorEnabled
}
