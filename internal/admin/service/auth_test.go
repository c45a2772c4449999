package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
	"github.com/lodgeworks/backoffice/internal/admin/store"
	"github.com/lodgeworks/backoffice/pkg/cryptox"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// totpCode produces the six-digit code for a secret at a given instant.
func totpCode(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestLoginCheckOrder(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth, _, _, _, _ := newTestServices(t, st)

	t.Run("unknown email", func(t *testing.T) {
		_, err := auth.Login(ctx, "nobody@example.com", "whatever", RequestMeta{})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unverified account has no password and fails as credentials", func(t *testing.T) {
		seedAccount(t, st, seedOpts{email: "new@example.com", username: "newbie", active: true})

		_, err := auth.Login(ctx, "new@example.com", "anything", RequestMeta{})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password beats unverified email", func(t *testing.T) {
		// Verified=false but with a password would be an impossible state in
		// production; instead assert the order with a deactivated account:
		// wrong password must report invalid credentials, not deactivated.
		seedAccount(t, st, seedOpts{email: "off@example.com", username: "off", password: "correct-pw", active: false, verified: true})

		_, err := auth.Login(ctx, "off@example.com", "wrong-pw", RequestMeta{})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("right password on unverified email", func(t *testing.T) {
		acct := seedAccount(t, st, seedOpts{email: "pending@example.com", username: "pending", password: "correct-pw", active: true, verified: true})
		require.NoError(t, st.Accounts().ClearEmailVerified(ctx, acct.ID))

		_, err := auth.Login(ctx, "pending@example.com", "correct-pw", RequestMeta{})
		require.ErrorIs(t, err, ErrEmailNotVerified)
	})

	t.Run("right password on deactivated account", func(t *testing.T) {
		_, err := auth.Login(ctx, "off@example.com", "correct-pw", RequestMeta{})
		require.ErrorIs(t, err, ErrAccountDeactivated)
	})

	t.Run("success without enrollment flags setup", func(t *testing.T) {
		seedAccount(t, st, seedOpts{email: "ok@example.com", username: "ok", password: "correct-pw", active: true, verified: true})

		result, err := auth.Login(ctx, "ok@example.com", "correct-pw", RequestMeta{})
		require.NoError(t, err)
		require.True(t, result.RequiresTwoFactorSetup)
		require.False(t, result.Session.TwoFactorPending)
		require.NotEmpty(t, result.RawToken)
	})
}

func TestLoginMintsFreshSession(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth, _, _, _, _ := newTestServices(t, st)

	seedAccount(t, st, seedOpts{email: "a@example.com", username: "alice", password: "pw-123456", active: true, verified: true})

	first, err := auth.Login(ctx, "a@example.com", "pw-123456", RequestMeta{})
	require.NoError(t, err)
	second, err := auth.Login(ctx, "a@example.com", "pw-123456", RequestMeta{})
	require.NoError(t, err)

	require.NotEqual(t, first.RawToken, second.RawToken)
	require.NotEqual(t, first.Session.ID, second.Session.ID)

	// Only the fingerprint is persisted.
	require.Equal(t, cryptox.FingerprintToken(first.RawToken), first.Session.TokenHash)
}

func TestVerifyTOTPPromotesSession(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth, twoFactor, _, _, _ := newTestServices(t, st)

	seedAccount(t, st, seedOpts{email: "b@example.com", username: "bob", password: "pw-123456", active: true, verified: true})
	secret, _, _ := enrollTwoFactor(t, st, twoFactor, auth, "b@example.com", "pw-123456")

	login, err := auth.Login(ctx, "b@example.com", "pw-123456", RequestMeta{})
	require.NoError(t, err)
	require.True(t, login.Session.TwoFactorPending)
	require.False(t, login.RequiresTwoFactorSetup)

	t.Run("wrong code leaves session pending", func(t *testing.T) {
		_, err := auth.VerifyTOTP(ctx, login.Session, "000000", RequestMeta{})
		require.ErrorIs(t, err, ErrInvalidCode)

		sess, _, err := auth.Resolve(ctx, login.RawToken)
		require.NoError(t, err)
		require.False(t, sess.TwoFactorVerified)
	})

	t.Run("valid code verifies in place", func(t *testing.T) {
		_, err := auth.VerifyTOTP(ctx, login.Session, totpCode(t, secret, time.Now()), RequestMeta{})
		require.NoError(t, err)

		sess, _, err := auth.Resolve(ctx, login.RawToken)
		require.NoError(t, err)
		require.True(t, sess.TwoFactorVerified)
		require.False(t, sess.TwoFactorPending)
	})

	t.Run("verification is audited as a login", func(t *testing.T) {
		entries, err := st.Audit().List(ctx, domain.AuditFilter{Action: "auth.login"})
		require.NoError(t, err)
		require.NotEmpty(t, entries)
	})
}

func TestTOTPSkewWindow(t *testing.T) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "test", AccountName: "skew@example.com"})
	require.NoError(t, err)
	secret := key.Secret()

	now := time.Now()

	t.Run("accepts one step either side", func(t *testing.T) {
		require.True(t, verifyTOTP(secret, totpCode(t, secret, now), now))
		require.True(t, verifyTOTP(secret, totpCode(t, secret, now.Add(-30*time.Second)), now))
		require.True(t, verifyTOTP(secret, totpCode(t, secret, now.Add(30*time.Second)), now))
	})

	t.Run("rejects beyond one step", func(t *testing.T) {
		require.False(t, verifyTOTP(secret, totpCode(t, secret, now.Add(-90*time.Second)), now))
		require.False(t, verifyTOTP(secret, totpCode(t, secret, now.Add(90*time.Second)), now))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		require.False(t, verifyTOTP(secret, "", now))
		require.False(t, verifyTOTP(secret, "abcdef", now))
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth, _, _, _, _ := newTestServices(t, st)

	seedAccount(t, st, seedOpts{email: "c@example.com", username: "carol", password: "pw-123456", active: true, verified: true})

	login, err := auth.Login(ctx, "c@example.com", "pw-123456", RequestMeta{})
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, login.RawToken, RequestMeta{}))

	_, _, err = auth.Resolve(ctx, login.RawToken)
	require.ErrorIs(t, err, ErrUnauthenticated)

	t.Run("repeat logout is not an error", func(t *testing.T) {
		require.NoError(t, auth.Logout(ctx, login.RawToken, RequestMeta{}))
	})
}

func TestResolveRejectsDeactivatedAccount(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth, _, _, _, _ := newTestServices(t, st)

	acct := seedAccount(t, st, seedOpts{email: "d@example.com", username: "dave", password: "pw-123456", active: true, verified: true})

	login, err := auth.Login(ctx, "d@example.com", "pw-123456", RequestMeta{})
	require.NoError(t, err)

	require.NoError(t, st.Accounts().SetActive(ctx, acct.ID, false))

	_, _, err = auth.Resolve(ctx, login.RawToken)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

// verifyFailStore wraps a real store so session writes inside a transaction
// fail while every other repository keeps working.
type verifyFailStore struct {
	store.Store
}

func (s verifyFailStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		return fn(verifyFailTx{tx})
	})
}

// storeTx lets verifyFailTx embed store.Tx without the embedded field name
// colliding with the interface's Tx method.
type storeTx = store.Tx

type verifyFailTx struct {
	storeTx
}

func (t verifyFailTx) Sessions() store.Sessions {
	return verifyFailSessions{t.storeTx.Sessions()}
}

type verifyFailSessions struct {
	store.Sessions
}

func (verifyFailSessions) MarkVerified(context.Context, string) error {
	return errors.New("session write refused")
}

func TestVerifyRecoveryCodeKeepsCodeOnSessionFailure(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth, twoFactor, _, _, _ := newTestServices(t, st)

	seedAccount(t, st, seedOpts{email: "recover@example.com", username: "recover", password: "pw-123456", active: true, verified: true})
	_, codes, _ := enrollTwoFactor(t, st, twoFactor, auth, "recover@example.com", "pw-123456")

	login, err := auth.Login(ctx, "recover@example.com", "pw-123456", RequestMeta{})
	require.NoError(t, err)

	failing := &AuthService{Store: verifyFailStore{st}, TwoFactor: twoFactor, Audit: auth.Audit}
	_, err = failing.VerifyRecoveryCode(ctx, login.Session, codes[0], RequestMeta{})
	require.Error(t, err)

	// The failed session promotion rolled back, so the code is not burned.
	count, err := st.RecoveryCodes().Count(ctx, login.Account.ID)
	require.NoError(t, err)
	require.Equal(t, recoveryCodeCount, count)

	account, err := auth.VerifyRecoveryCode(ctx, login.Session, codes[0], RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, login.Account.ID, account.ID)
}
