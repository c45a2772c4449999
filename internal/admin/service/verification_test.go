package service

import (
	"context"
	"testing"
	"time"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
	"github.com/lodgeworks/backoffice/pkg/cryptox"
	"github.com/lodgeworks/backoffice/pkg/idx"

	"github.com/stretchr/testify/require"
)

func TestVerificationTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth, _, _, verification, _ := newTestServices(t, st)

	acct := seedAccount(t, st, seedOpts{email: "fresh@example.com", username: "fresh", active: true})

	t.Run("issuing again leaves exactly one live token", func(t *testing.T) {
		first, err := verification.Issue(ctx, acct.ID)
		require.NoError(t, err)
		second, err := verification.Issue(ctx, acct.ID)
		require.NoError(t, err)
		require.NotEqual(t, first, second)

		count, err := st.VerificationTokens().CountForAccount(ctx, acct.ID)
		require.NoError(t, err)
		require.EqualValues(t, 1, count)

		// The first token died when the second was issued.
		_, err = verification.VerifyAndSetPassword(ctx, first, "initial-pw-1")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("consuming the token sets password and verified state", func(t *testing.T) {
		raw, err := verification.Issue(ctx, acct.ID)
		require.NoError(t, err)

		verified, err := verification.VerifyAndSetPassword(ctx, raw, "initial-pw-1")
		require.NoError(t, err)
		require.NotNil(t, verified.EmailVerifiedAt)
		require.NotNil(t, verified.PasswordHash)

		// Consumed means gone.
		_, err = verification.VerifyAndSetPassword(ctx, raw, "initial-pw-2")
		require.ErrorIs(t, err, ErrInvalidToken)

		// The account can now log in.
		_, err = auth.Login(ctx, "fresh@example.com", "initial-pw-1", RequestMeta{})
		require.NoError(t, err)
	})

	t.Run("resend after verification is rejected", func(t *testing.T) {
		err := verification.Resend(ctx, acct.ID)
		require.ErrorIs(t, err, ErrAlreadyVerified)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := verification.VerifyAndSetPassword(ctx, "not-a-token", "pw-123456")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestVerificationTokenExpiry(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, _, _, verification, _ := newTestServices(t, st)

	acct := seedAccount(t, st, seedOpts{email: "late@example.com", username: "late", active: true})

	// Plant an already-expired token directly.
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	require.NoError(t, st.VerificationTokens().Create(ctx, domain.VerificationToken{
		ID:        idx.New().String(),
		AccountID: acct.ID,
		TokenHash: cryptox.FingerprintToken(raw),
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
		CreatedAt: time.Now().UTC().Add(-25 * time.Hour),
	}))

	_, err = verification.VerifyAndSetPassword(ctx, raw, "pw-123456")
	require.ErrorIs(t, err, ErrExpiredToken)

	t.Run("expired token is not consumed by the attempt", func(t *testing.T) {
		count, err := st.VerificationTokens().CountForAccount(ctx, acct.ID)
		require.NoError(t, err)
		require.EqualValues(t, 1, count)
	})
}

func TestResendForUnknownAccount(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, _, _, verification, _ := newTestServices(t, st)

	err := verification.Resend(ctx, "no-such-id")
	require.ErrorIs(t, err, ErrNotFound)
}
