package service

import (
	"context"
	"testing"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
	"github.com/lodgeworks/backoffice/pkg/cryptox"

	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, _, accounts, _, _ := newTestServices(t, st)

	actor := seedAccount(t, st, seedOpts{email: "admin@example.com", username: "admin", password: "pw-123456", active: true, verified: true})

	created, err := accounts.Create(ctx, CreateAccountInput{
		Pool:      domain.PoolRoot,
		Username:  "jdoe",
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jdoe@example.com",
	}, actor.ID, RequestMeta{})
	require.NoError(t, err)
	require.True(t, created.Active)
	require.Nil(t, created.PasswordHash)
	require.Nil(t, created.EmailVerifiedAt)

	t.Run("a verification token is waiting", func(t *testing.T) {
		count, err := st.VerificationTokens().CountForAccount(ctx, created.ID)
		require.NoError(t, err)
		require.EqualValues(t, 1, count)
	})

	t.Run("creation is audited", func(t *testing.T) {
		entries, err := st.Audit().List(ctx, domain.AuditFilter{Action: "root_user.created"})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, actor.ID, entries[0].ActorID)
		require.Equal(t, "jdoe", entries[0].NewValues["username"])
	})

	t.Run("invalid username rejected", func(t *testing.T) {
		_, err := accounts.Create(ctx, CreateAccountInput{
			Pool: domain.PoolRoot, Username: "john doe", Email: "jd2@example.com",
		}, actor.ID, RequestMeta{})
		require.ErrorIs(t, err, domain.ErrInvalidUsername)
	})

	t.Run("duplicate email wins over duplicate username", func(t *testing.T) {
		_, err := accounts.Create(ctx, CreateAccountInput{
			Pool: domain.PoolRoot, Username: "jdoe", Email: "jdoe@example.com",
		}, actor.ID, RequestMeta{})
		require.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("duplicate username alone", func(t *testing.T) {
		_, err := accounts.Create(ctx, CreateAccountInput{
			Pool: domain.PoolRoot, Username: "jdoe", Email: "different@example.com",
		}, actor.ID, RequestMeta{})
		require.ErrorIs(t, err, ErrDuplicateUsername)
	})

	t.Run("same identity is free in the other pool", func(t *testing.T) {
		tenant := domain.Tenant{ID: "t-1", Name: "Acme", Domain: "acme.example.com", Active: true}
		require.NoError(t, st.Tenants().Create(ctx, tenant))

		_, err := accounts.Create(ctx, CreateAccountInput{
			Pool: domain.PoolTenant, TenantID: &tenant.ID, Username: "jdoe", Email: "jdoe@example.com",
		}, actor.ID, RequestMeta{})
		require.NoError(t, err)
	})
}

func TestUpdateAccountEmailChange(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, _, accounts, _, _ := newTestServices(t, st)

	actor := seedAccount(t, st, seedOpts{email: "admin@example.com", username: "admin", password: "pw-123456", active: true, verified: true})
	target := seedAccount(t, st, seedOpts{email: "old@example.com", username: "target", password: "pw-123456", active: true, verified: true})

	t.Run("name-only change keeps verified state and issues no token", func(t *testing.T) {
		newName := "Renamed"
		updated, err := accounts.Update(ctx, target.ID, UpdateAccountInput{LastName: &newName}, actor.ID, RequestMeta{})
		require.NoError(t, err)
		require.Equal(t, "Renamed", updated.LastName)
		require.NotNil(t, updated.EmailVerifiedAt)

		count, err := st.VerificationTokens().CountForAccount(ctx, target.ID)
		require.NoError(t, err)
		require.Zero(t, count)
	})

	t.Run("email change clears verification and issues exactly one token", func(t *testing.T) {
		newEmail := "new@example.com"
		updated, err := accounts.Update(ctx, target.ID, UpdateAccountInput{Email: &newEmail}, actor.ID, RequestMeta{})
		require.NoError(t, err)
		require.Equal(t, newEmail, updated.Email)
		require.Nil(t, updated.EmailVerifiedAt)

		count, err := st.VerificationTokens().CountForAccount(ctx, target.ID)
		require.NoError(t, err)
		require.EqualValues(t, 1, count)
	})

	t.Run("email change to an address in use", func(t *testing.T) {
		taken := "admin@example.com"
		_, err := accounts.Update(ctx, target.ID, UpdateAccountInput{Email: &taken}, actor.ID, RequestMeta{})
		require.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("unknown account", func(t *testing.T) {
		name := "x"
		_, err := accounts.Update(ctx, "missing", UpdateAccountInput{FirstName: &name}, actor.ID, RequestMeta{})
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteGuards(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, _, accounts, _, _ := newTestServices(t, st)

	first := seedAccount(t, st, seedOpts{email: "one@example.com", username: "one", password: "pw-123456", active: true, verified: true})
	second := seedAccount(t, st, seedOpts{email: "two@example.com", username: "two", password: "pw-123456", active: true, verified: true})

	t.Run("self-deletion rejected before any other guard", func(t *testing.T) {
		err := accounts.Delete(ctx, first.ID, first.ID, RequestMeta{})
		require.ErrorIs(t, err, ErrSelfDeletion)
	})

	t.Run("2 -> 1 active is allowed", func(t *testing.T) {
		require.NoError(t, accounts.Delete(ctx, second.ID, first.ID, RequestMeta{}))
	})

	t.Run("1 -> 0 active is rejected", func(t *testing.T) {
		third := seedAccount(t, st, seedOpts{email: "three@example.com", username: "three", password: "pw-123456", active: true, verified: true})

		err := accounts.Delete(ctx, first.ID, third.ID, RequestMeta{})
		require.NoError(t, err)

		err = accounts.Delete(ctx, third.ID, first.ID, RequestMeta{})
		require.ErrorIs(t, err, ErrLastActiveUser)
	})

	t.Run("deleting an inactive account skips the count guard", func(t *testing.T) {
		inactive := seedAccount(t, st, seedOpts{email: "four@example.com", username: "four", active: false})
		require.NoError(t, accounts.Delete(ctx, inactive.ID, "someone-else", RequestMeta{}))
	})
}

func TestDeactivateGuards(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth, _, accounts, _, _ := newTestServices(t, st)

	first := seedAccount(t, st, seedOpts{email: "one@example.com", username: "one", password: "pw-123456", active: true, verified: true})
	second := seedAccount(t, st, seedOpts{email: "two@example.com", username: "two", password: "pw-123456", active: true, verified: true})

	t.Run("deactivation kills live sessions", func(t *testing.T) {
		login, err := auth.Login(ctx, "two@example.com", "pw-123456", RequestMeta{})
		require.NoError(t, err)

		updated, err := accounts.Deactivate(ctx, second.ID, first.ID, RequestMeta{})
		require.NoError(t, err)
		require.False(t, updated.Active)

		_, _, err = auth.Resolve(ctx, login.RawToken)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("last active account cannot be deactivated", func(t *testing.T) {
		_, err := accounts.Deactivate(ctx, first.ID, first.ID, RequestMeta{})
		require.ErrorIs(t, err, ErrLastActiveUser)
	})

	t.Run("reactivation restores login", func(t *testing.T) {
		_, err := accounts.Activate(ctx, second.ID, first.ID, RequestMeta{})
		require.NoError(t, err)

		_, err = auth.Login(ctx, "two@example.com", "pw-123456", RequestMeta{})
		require.NoError(t, err)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth, _, accounts, _, _ := newTestServices(t, st)

	acct := seedAccount(t, st, seedOpts{email: "pw@example.com", username: "pwuser", password: "old-pw-123", active: true, verified: true})
	admin := seedAccount(t, st, seedOpts{email: "root@example.com", username: "root", password: "pw-123456", active: true, verified: true})

	t.Run("self change with wrong current password leaves hash untouched", func(t *testing.T) {
		err := accounts.ChangePassword(ctx, acct.ID, "wrong", "new-pw-456", acct.ID, "", RequestMeta{})
		require.ErrorIs(t, err, ErrInvalidCurrentPassword)

		reloaded, err := accounts.Get(ctx, acct.ID)
		require.NoError(t, err)
		require.NoError(t, cryptox.VerifyPassword("old-pw-123", *reloaded.PasswordHash))
	})

	t.Run("self change keeps the current session, drops the rest", func(t *testing.T) {
		keep, err := auth.Login(ctx, "pw@example.com", "old-pw-123", RequestMeta{})
		require.NoError(t, err)
		other, err := auth.Login(ctx, "pw@example.com", "old-pw-123", RequestMeta{})
		require.NoError(t, err)

		err = accounts.ChangePassword(ctx, acct.ID, "old-pw-123", "new-pw-456", acct.ID, keep.Session.ID, RequestMeta{})
		require.NoError(t, err)

		_, _, err = auth.Resolve(ctx, keep.RawToken)
		require.NoError(t, err)
		_, _, err = auth.Resolve(ctx, other.RawToken)
		require.ErrorIs(t, err, ErrUnauthenticated)

		_, err = auth.Login(ctx, "pw@example.com", "new-pw-456", RequestMeta{})
		require.NoError(t, err)
	})

	t.Run("admin change needs no current password", func(t *testing.T) {
		err := accounts.ChangePassword(ctx, acct.ID, "", "admin-set-789", admin.ID, "", RequestMeta{})
		require.NoError(t, err)

		_, err = auth.Login(ctx, "pw@example.com", "admin-set-789", RequestMeta{})
		require.NoError(t, err)
	})
}
