package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
	"github.com/lodgeworks/backoffice/internal/admin/store"
	"github.com/lodgeworks/backoffice/internal/admin/store/drivers/sqlite"
	"github.com/lodgeworks/backoffice/pkg/cryptox"
	"github.com/lodgeworks/backoffice/pkg/idx"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "service-test")
	if err != nil {
		os.Exit(1)
	}
	defer os.RemoveAll(tmpDir)

	cryptox.SetPepperPath(filepath.Join(tmpDir, "pepper"))
	os.Setenv("BACKOFFICE_MASTER_KEY", "service-test-master-key")
	cryptox.ResetMasterKeyForTesting()

	os.Exit(m.Run())
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestServices(t *testing.T, st store.Store) (*AuthService, *TwoFactorService, *AccountService, *VerificationService, *TenantService) {
	t.Helper()

	audit := &AuditRecorder{Store: st}
	twoFactor := &TwoFactorService{Store: st, Issuer: "backoffice-test", Audit: audit}
	auth := &AuthService{Store: st, TwoFactor: twoFactor, Audit: audit}
	verification := &VerificationService{Store: st, Mailer: &LogMailer{}, Audit: audit}
	accounts := &AccountService{Store: st, Audit: audit, Verification: verification}
	tenants := &TenantService{Store: st, Accounts: accounts, Audit: audit}
	return auth, twoFactor, accounts, verification, tenants
}

type seedOpts struct {
	pool     domain.Pool
	email    string
	username string
	password string
	active   bool
	verified bool
	tenantID *string
}

// seedAccount inserts an account directly through the store with the login
// preconditions already satisfied unless the options say otherwise.
func seedAccount(t *testing.T, st store.Store, opts seedOpts) domain.Account {
	t.Helper()
	ctx := context.Background()

	if opts.pool == "" {
		opts.pool = domain.PoolRoot
	}
	username, err := domain.NewUsername(opts.username)
	require.NoError(t, err)

	account := domain.Account{
		ID:       idx.New().String(),
		Pool:     opts.pool,
		TenantID: opts.tenantID,
		Username: username,
		Email:    opts.email,
		Active:   opts.active,
	}
	require.NoError(t, st.Accounts().Create(ctx, account))

	if opts.verified {
		hash, err := cryptox.HashPassword(opts.password)
		require.NoError(t, err)
		require.NoError(t, st.Accounts().MarkEmailVerified(ctx, account.ID, time.Now().UTC(), hash))
	}

	created, err := st.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	return created
}

// enrollTwoFactor walks the full enrollment flow for an account and returns
// the decrypted secret and the plaintext recovery codes.
func enrollTwoFactor(t *testing.T, st store.Store, twoFactor *TwoFactorService, auth *AuthService, email, password string) (string, []string, domain.Session) {
	t.Helper()
	ctx := context.Background()

	login, err := auth.Login(ctx, email, password, RequestMeta{})
	require.NoError(t, err)
	require.True(t, login.RequiresTwoFactorSetup)

	setup, err := twoFactor.BeginSetup(ctx, login.Account.ID)
	require.NoError(t, err)

	code := totpCode(t, setup.Secret, time.Now())
	codes, err := twoFactor.ConfirmSetup(ctx, login.Session, code, RequestMeta{})
	require.NoError(t, err)
	require.Len(t, codes, recoveryCodeCount)

	return setup.Secret, codes, login.Session
}
