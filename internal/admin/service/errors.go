package service

import "errors"

// Sentinel errors returned by the service layer. The HTTP boundary maps each
// one to a status code and a machine-readable code field; nothing else leaks.
var (
	// Login. The first three credential cases (unknown email, no password
	// yet, wrong password) all collapse into ErrInvalidCredentials so a
	// caller cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAccountDeactivated = errors.New("account deactivated")

	// Session / 2FA.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidCode     = errors.New("invalid two-factor code")
	ErrSetupRequired   = errors.New("two-factor setup required")
	ErrAlreadyEnabled  = errors.New("two-factor already enabled")

	// Email verification tokens.
	ErrInvalidToken    = errors.New("invalid verification token")
	ErrExpiredToken    = errors.New("expired verification token")
	ErrAlreadyVerified = errors.New("email already verified")

	// Guard rules.
	ErrSelfDeletion   = errors.New("cannot delete own account")
	ErrLastActiveUser = errors.New("cannot remove the last active account")

	// Lifecycle validation.
	ErrDuplicateEmail         = errors.New("email already in use")
	ErrDuplicateUsername      = errors.New("username already in use")
	ErrInvalidCurrentPassword = errors.New("current password does not match")

	// Tenants.
	ErrDuplicateDomain = errors.New("tenant domain already in use")
	ErrAdminExists     = errors.New("tenant already has an admin account")

	ErrNotFound = errors.New("not found")
)
