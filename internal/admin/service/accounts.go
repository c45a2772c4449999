package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
	"github.com/lodgeworks/backoffice/internal/admin/store"
	"github.com/lodgeworks/backoffice/pkg/cryptox"
	"github.com/lodgeworks/backoffice/pkg/idx"
)

// AccountService is the lifecycle manager for both account pools. Every
// mutation runs the guard rules first, then persists, then records an audit
// entry. Accounts are born unverified and passwordless; the verification
// flow sets the first password.
type AccountService struct {
	Store        store.Store
	Audit        *AuditRecorder
	Verification *VerificationService
}

type CreateAccountInput struct {
	Pool      domain.Pool
	TenantID  *string
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// UpdateAccountInput uses nil for "leave unchanged".
type UpdateAccountInput struct {
	Username  *string
	FirstName *string
	LastName  *string
	Email     *string
}

func (s *AccountService) Get(ctx context.Context, id string) (domain.Account, error) {
	account, err := s.Store.Accounts().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrNotFound
		}
		return domain.Account{}, err
	}
	return account, nil
}

func (s *AccountService) List(ctx context.Context, pool domain.Pool) ([]domain.Account, error) {
	return s.Store.Accounts().List(ctx, pool)
}

// Create validates and persists a new account, then triggers the
// verification email. Uniqueness is checked email-first, then username; the
// first violation wins. The storage constraints back the same checks, so a
// concurrent insert racing past the fast path still maps to the same error.
func (s *AccountService) Create(ctx context.Context, in CreateAccountInput, actorID string, meta RequestMeta) (domain.Account, error) {
	username, err := domain.NewUsername(in.Username)
	if err != nil {
		return domain.Account{}, err
	}

	if _, err := s.Store.Accounts().GetByEmail(ctx, in.Pool, in.Email); err == nil {
		return domain.Account{}, ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, err
	}
	if _, err := s.Store.Accounts().GetByUsername(ctx, in.Pool, username.String()); err == nil {
		return domain.Account{}, ErrDuplicateUsername
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, err
	}

	account := domain.Account{
		ID:        idx.New().String(),
		Pool:      in.Pool,
		TenantID:  in.TenantID,
		Username:  username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Active:    true,
	}
	if err := s.Store.Accounts().Create(ctx, account); err != nil {
		return domain.Account{}, mapStoreConflict(err)
	}

	if err := s.Verification.IssueAndSend(ctx, account.ID, account.Email); err != nil {
		return domain.Account{}, err
	}

	created, err := s.Store.Accounts().GetByID(ctx, account.ID)
	if err != nil {
		return domain.Account{}, err
	}

	s.Audit.Record(ctx, actorID, in.Pool.AuditAction("created"),
		WithEntity("account", created.ID),
		WithNewValues(accountSnapshot(created)),
		WithRequestMeta(meta),
	)
	return created, nil
}

// Update persists changed fields. Uniqueness re-checks run only for values
// that actually changed. Changing the email always clears the verified
// state and reissues a verification token, even if the new address was used
// by this same account before.
func (s *AccountService) Update(ctx context.Context, id string, in UpdateAccountInput, actorID string, meta RequestMeta) (domain.Account, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	username := existing.Username
	if in.Username != nil {
		username, err = domain.NewUsername(*in.Username)
		if err != nil {
			return domain.Account{}, err
		}
	}

	firstName := existing.FirstName
	if in.FirstName != nil {
		firstName = *in.FirstName
	}
	lastName := existing.LastName
	if in.LastName != nil {
		lastName = *in.LastName
	}
	email := existing.Email
	if in.Email != nil {
		email = *in.Email
	}

	emailChanged := email != existing.Email
	if emailChanged {
		if _, err := s.Store.Accounts().GetByEmail(ctx, existing.Pool, email); err == nil {
			return domain.Account{}, ErrDuplicateEmail
		} else if !errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, err
		}
	}
	if username != existing.Username {
		if _, err := s.Store.Accounts().GetByUsername(ctx, existing.Pool, username.String()); err == nil {
			return domain.Account{}, ErrDuplicateUsername
		} else if !errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, err
		}
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().UpdateProfile(ctx, id, username, firstName, lastName, email); err != nil {
			return mapStoreConflict(err)
		}
		if emailChanged {
			return tx.Accounts().ClearEmailVerified(ctx, id)
		}
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}

	if emailChanged {
		if err := s.Verification.IssueAndSend(ctx, id, email); err != nil {
			return domain.Account{}, err
		}
	}

	updated, err := s.Store.Accounts().GetByID(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	s.Audit.Record(ctx, actorID, existing.Pool.AuditAction("updated"),
		WithEntity("account", id),
		WithOldValues(accountSnapshot(existing)),
		WithNewValues(accountSnapshot(updated)),
		WithRequestMeta(meta),
	)
	return updated, nil
}

// Delete removes an account. The self-deletion check runs first (actor-local
// and cheap); the last-active-user count runs inside the delete transaction
// so two concurrent deletions cannot both observe two active accounts and
// leave the pool empty.
func (s *AccountService) Delete(ctx context.Context, id, actorID string, meta RequestMeta) error {
	if id == actorID {
		return ErrSelfDeletion
	}

	target, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if target.Active {
			count, err := tx.Accounts().CountActive(ctx, target.Pool)
			if err != nil {
				return err
			}
			if count <= 1 {
				return ErrLastActiveUser
			}
		}
		return tx.Accounts().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.Audit.Record(ctx, actorID, target.Pool.AuditAction("deleted"),
		WithEntity("account", id),
		WithOldValues(accountSnapshot(target)),
		WithRequestMeta(meta),
	)
	return nil
}

// Deactivate flips an account inactive, guarded by the last-active-user rule
// under the same transaction discipline as Delete. Live sessions of the
// account die with it.
func (s *AccountService) Deactivate(ctx context.Context, id, actorID string, meta RequestMeta) (domain.Account, error) {
	target, err := s.Get(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if target.Active {
			count, err := tx.Accounts().CountActive(ctx, target.Pool)
			if err != nil {
				return err
			}
			if count <= 1 {
				return ErrLastActiveUser
			}
		}
		if err := tx.Accounts().SetActive(ctx, id, false); err != nil {
			return err
		}
		return tx.Sessions().DeleteForAccount(ctx, id, "")
	})
	if err != nil {
		return domain.Account{}, err
	}

	s.Audit.Record(ctx, actorID, target.Pool.AuditAction("deactivated"),
		WithEntity("account", id),
		WithRequestMeta(meta),
	)
	return s.Get(ctx, id)
}

// Activate re-enables a deactivated account.
func (s *AccountService) Activate(ctx context.Context, id, actorID string, meta RequestMeta) (domain.Account, error) {
	target, err := s.Get(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	if err := s.Store.Accounts().SetActive(ctx, id, true); err != nil {
		return domain.Account{}, err
	}

	s.Audit.Record(ctx, actorID, target.Pool.AuditAction("activated"),
		WithEntity("account", id),
		WithRequestMeta(meta),
	)
	return s.Get(ctx, id)
}

// ChangePassword sets a new password. Self-service changes must present the
// current password; an administrator changing someone else's password does
// not. Every other session of the account is invalidated.
func (s *AccountService) ChangePassword(ctx context.Context, id, currentPassword, newPassword, actorID, keepSessionID string, meta RequestMeta) error {
	account, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if actorID == id {
		if account.PasswordHash == nil {
			return ErrInvalidCurrentPassword
		}
		if err := cryptox.VerifyPassword(currentPassword, *account.PasswordHash); err != nil {
			return ErrInvalidCurrentPassword
		}
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().UpdatePasswordHash(ctx, id, hash); err != nil {
			return err
		}
		return tx.Sessions().DeleteForAccount(ctx, id, keepSessionID)
	})
	if err != nil {
		return err
	}

	s.Audit.Record(ctx, actorID, account.Pool.AuditAction("password_changed"),
		WithEntity("account", id),
		WithRequestMeta(meta),
	)
	return nil
}

// mapStoreConflict converts constraint-level duplicates into the service
// sentinels, for races that slip past the fast-path checks.
func mapStoreConflict(err error) error {
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		return ErrDuplicateEmail
	case errors.Is(err, store.ErrDuplicateUsername):
		return ErrDuplicateUsername
	case errors.Is(err, store.ErrDuplicateDomain):
		return ErrDuplicateDomain
	case errors.Is(err, store.ErrDuplicateAdmin):
		return ErrAdminExists
	}
	return err
}

// accountSnapshot is the structured view persisted in audit old/new values.
// Secrets and hashes never appear here.
func accountSnapshot(a domain.Account) map[string]any {
	snap := map[string]any{
		"username":           a.Username.String(),
		"first_name":         a.FirstName,
		"last_name":          a.LastName,
		"email":              a.Email,
		"is_active":          a.Active,
		"two_factor_enabled": a.TwoFactorEnabled,
	}
	if a.TenantID != nil {
		snap["tenant_id"] = *a.TenantID
	}
	return snap
}
