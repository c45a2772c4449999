package store

import (
	"context"
	"errors"
	"time"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
)

var (
	ErrNotFound = errors.New("store: not found")

	// Unique-constraint violations, mapped from the driver so the service
	// layer can classify races the same way as its fast-path checks.
	ErrDuplicateEmail    = errors.New("store: email already exists")
	ErrDuplicateUsername = errors.New("store: username already exists")
	ErrDuplicateDomain   = errors.New("store: tenant domain already exists")
	ErrDuplicateAdmin    = errors.New("store: tenant already has an admin account")
)

// Store is the root data access interface. Concrete drivers implement this.
// It exposes sub-repositories to keep concerns tidy and testable.
type Store interface {
	Accounts() Accounts
	Sessions() Sessions
	VerificationTokens() VerificationTokens
	RecoveryCodes() RecoveryCodes
	Audit() Audit
	Tenants() Tenants

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Multi-step
	// operations that must be atomic (guard checks + mutation, token
	// consumption) go through here.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetByID returns an account by id.
	GetByID(ctx context.Context, id string) (domain.Account, error)

	// GetByEmail looks up an account by email within one pool.
	GetByEmail(ctx context.Context, pool domain.Pool, email string) (domain.Account, error)

	// GetByUsername looks up an account by username within one pool.
	GetByUsername(ctx context.Context, pool domain.Pool, username string) (domain.Account, error)

	// FindByEmail searches both pools, root pool first. Used by login where
	// the caller only has an email address.
	FindByEmail(ctx context.Context, email string) (domain.Account, error)

	// GetTenantAdmin returns the single tenant-pool account owned by a tenant.
	GetTenantAdmin(ctx context.Context, tenantID string) (domain.Account, error)

	// List returns all accounts in a pool ordered by creation date.
	List(ctx context.Context, pool domain.Pool) ([]domain.Account, error)

	// Create inserts a new account. Unique violations come back as
	// ErrDuplicateEmail / ErrDuplicateUsername / ErrDuplicateAdmin.
	Create(ctx context.Context, a domain.Account) error

	// UpdateProfile persists the mutable identity fields.
	UpdateProfile(ctx context.Context, id string, username domain.Username, firstName, lastName, email string) error

	// UpdateAvatarPath sets or clears the avatar reference.
	UpdateAvatarPath(ctx context.Context, id string, path *string) error

	// UpdatePasswordHash sets the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, id string, hash string) error

	// SetActive flips the is_active flag.
	SetActive(ctx context.Context, id string, active bool) error

	// CountActive returns the number of currently active accounts in a pool.
	// Run inside a transaction together with the mutation it guards.
	CountActive(ctx context.Context, pool domain.Pool) (int64, error)

	// MarkEmailVerified sets email_verified_at and the first password hash
	// as one atomic update.
	MarkEmailVerified(ctx context.Context, id string, verifiedAt time.Time, passwordHash string) error

	// ClearEmailVerified nulls email_verified_at (email changed, must re-verify).
	ClearEmailVerified(ctx context.Context, id string) error

	// SetTwoFactorSecret stores an unconfirmed TOTP secret. The driver
	// encrypts it at rest.
	SetTwoFactorSecret(ctx context.Context, id string, secret string) error

	// EnableTwoFactor flips two_factor_enabled and records the confirmation time.
	EnableTwoFactor(ctx context.Context, id string, confirmedAt time.Time) error

	// DisableTwoFactor clears the secret, the flag and the confirmation time.
	DisableTwoFactor(ctx context.Context, id string) error

	// Delete removes the account. Sessions, tokens and recovery codes
	// cascade per schema.
	Delete(ctx context.Context, id string) error
}

type Sessions interface {
	Create(ctx context.Context, s domain.Session) error

	// GetByTokenHash returns a session by its hashed cookie token,
	// excluding expired rows.
	GetByTokenHash(ctx context.Context, hash string) (domain.Session, error)

	// MarkVerified clears two_fa_pending and sets two_fa_verified.
	MarkVerified(ctx context.Context, id string) error

	Delete(ctx context.Context, id string) error

	// DeleteForAccount invalidates every session of an account except keepID.
	// Pass an empty keepID to drop them all.
	DeleteForAccount(ctx context.Context, accountID, keepID string) error

	DeleteExpired(ctx context.Context) error
}

type VerificationTokens interface {
	Create(ctx context.Context, t domain.VerificationToken) error
	GetByHash(ctx context.Context, hash string) (domain.VerificationToken, error)

	// DeleteForAccount drops every token for an account. Called before a new
	// token is issued and after one is consumed.
	DeleteForAccount(ctx context.Context, accountID string) error

	// CountForAccount returns the number of live tokens for an account.
	CountForAccount(ctx context.Context, accountID string) (int64, error)

	DeleteExpired(ctx context.Context) error
}

type RecoveryCodes interface {
	// Insert stores one recovery code hash for an account.
	Insert(ctx context.Context, accountID, codeHash string) error

	// Consume deletes the code hash if present and reports whether a row was
	// removed. The find-and-delete is a single conditional statement so two
	// concurrent submissions of the same code cannot both succeed.
	Consume(ctx context.Context, accountID, codeHash string) (bool, error)

	DeleteAll(ctx context.Context, accountID string) error
	Count(ctx context.Context, accountID string) (int, error)
}

type Audit interface {
	// Insert appends one entry. There is deliberately no update or delete.
	Insert(ctx context.Context, e domain.AuditEntry) error

	List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error)
}

type Tenants interface {
	GetByID(ctx context.Context, id string) (domain.Tenant, error)
	GetByDomain(ctx context.Context, dom string) (domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)

	// Create inserts a tenant. Domain collisions come back as ErrDuplicateDomain.
	Create(ctx context.Context, t domain.Tenant) error

	Update(ctx context.Context, t domain.Tenant) error

	// Delete removes the tenant; its admin account cascades per schema.
	Delete(ctx context.Context, id string) error
}
