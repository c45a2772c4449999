package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
	"github.com/lodgeworks/backoffice/internal/admin/store"
	"github.com/lodgeworks/backoffice/pkg/cryptox"
	"github.com/lodgeworks/backoffice/pkg/idx"
)

// DefaultSessionTTL is how long an admin session lives without re-login.
const DefaultSessionTTL = 12 * time.Hour

// AuthService drives the login state machine:
//
//	UNAUTHENTICATED -> CREDENTIALS_OK (2fa pending) -> 2FA_VERIFIED
//
// Each successful login mints a brand-new session token; logout deletes the
// session row outright. Session state is always passed in explicitly.
type AuthService struct {
	Store      store.Store
	TwoFactor  *TwoFactorService
	Audit      *AuditRecorder
	SessionTTL time.Duration
}

// LoginResult is what a successful credential check hands back. RawToken is
// the opaque cookie value; it is never persisted, only its fingerprint.
type LoginResult struct {
	Account  domain.Account
	Session  domain.Session
	RawToken string

	// RequiresTwoFactorSetup tells the client to branch into enrollment
	// instead of code verification.
	RequiresTwoFactorSetup bool
}

// Login checks credentials and establishes a pending session.
//
// The failure order is deliberate: unknown email, missing password and wrong
// password are indistinguishable (ErrInvalidCredentials) so responses cannot
// be used to enumerate accounts. Only after the password matches do the
// email-verified and active checks run.
func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (LoginResult, error) {
	account, err := s.Store.Accounts().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("failed to look up account: %w", err)
	}

	if account.PasswordHash == nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := cryptox.VerifyPassword(password, *account.PasswordHash); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if account.EmailVerifiedAt == nil {
		return LoginResult{}, ErrEmailNotVerified
	}
	if !account.Active {
		return LoginResult{}, ErrAccountDeactivated
	}

	rawToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := time.Now().UTC()
	sess := domain.Session{
		ID:               idx.New().String(),
		TokenHash:        cryptox.FingerprintToken(rawToken),
		AccountID:        account.ID,
		Pool:             account.Pool,
		TwoFactorPending: account.TwoFactorEnabled,
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.sessionTTL()),
	}
	if err := s.Store.Sessions().Create(ctx, sess); err != nil {
		return LoginResult{}, fmt.Errorf("failed to create session: %w", err)
	}

	return LoginResult{
		Account:                account,
		Session:                sess,
		RawToken:               rawToken,
		RequiresTwoFactorSetup: !account.TwoFactorEnabled,
	}, nil
}

// VerifyTOTP completes the pending session with a time-based code. The
// session is untouched on failure.
func (s *AuthService) VerifyTOTP(ctx context.Context, sess domain.Session, code string, meta RequestMeta) (domain.Account, error) {
	account, err := s.Store.Accounts().GetByID(ctx, sess.AccountID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("failed to load account: %w", err)
	}
	if account.TwoFactorSecret == nil {
		return domain.Account{}, ErrSetupRequired
	}
	if !verifyTOTP(*account.TwoFactorSecret, code, time.Now()) {
		return domain.Account{}, ErrInvalidCode
	}

	if err := s.Store.Sessions().MarkVerified(ctx, sess.ID); err != nil {
		return domain.Account{}, fmt.Errorf("failed to update session: %w", err)
	}

	s.Audit.Record(ctx, account.ID, "auth.login",
		WithEntity("account", account.ID),
		WithRequestMeta(meta),
	)
	return account, nil
}

// VerifyRecoveryCode completes the pending session by burning a one-time
// recovery code. The state transition is identical to VerifyTOTP, including
// the auth.login audit entry, so the two paths are indistinguishable in the
// trail.
func (s *AuthService) VerifyRecoveryCode(ctx context.Context, sess domain.Session, code string, meta RequestMeta) (domain.Account, error) {
	account, err := s.Store.Accounts().GetByID(ctx, sess.AccountID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("failed to load account: %w", err)
	}

	// Burning the code and promoting the session commit together; a failed
	// promotion must not leave the code spent.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		ok, err := s.TwoFactor.ConsumeRecoveryCode(ctx, tx, account.ID, code)
		if err != nil {
			return fmt.Errorf("failed to consume recovery code: %w", err)
		}
		if !ok {
			return ErrInvalidCode
		}
		if err := tx.Sessions().MarkVerified(ctx, sess.ID); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}

	s.Audit.Record(ctx, account.ID, "auth.login",
		WithEntity("account", account.ID),
		WithRequestMeta(meta),
	)
	return account, nil
}

// Logout records the logout with the pre-invalidation actor id, then deletes
// the session. A missing or already-dead session is not an error.
func (s *AuthService) Logout(ctx context.Context, rawToken string, meta RequestMeta) error {
	sess, err := s.resolveToken(ctx, rawToken)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return nil
		}
		return err
	}

	s.Audit.Record(ctx, sess.AccountID, "auth.logout",
		WithEntity("account", sess.AccountID),
		WithRequestMeta(meta),
	)
	return s.Store.Sessions().Delete(ctx, sess.ID)
}

// Resolve turns a raw cookie token into the live session and its account.
// Used by the session middleware on every guarded request.
func (s *AuthService) Resolve(ctx context.Context, rawToken string) (domain.Session, domain.Account, error) {
	sess, err := s.resolveToken(ctx, rawToken)
	if err != nil {
		return domain.Session{}, domain.Account{}, err
	}

	account, err := s.Store.Accounts().GetByID(ctx, sess.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, domain.Account{}, ErrUnauthenticated
		}
		return domain.Session{}, domain.Account{}, err
	}
	if !account.Active {
		return domain.Session{}, domain.Account{}, ErrUnauthenticated
	}

	return sess, account, nil
}

func (s *AuthService) resolveToken(ctx context.Context, rawToken string) (domain.Session, error) {
	if rawToken == "" {
		return domain.Session{}, ErrUnauthenticated
	}
	sess, err := s.Store.Sessions().GetByTokenHash(ctx, cryptox.FingerprintToken(rawToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrUnauthenticated
		}
		return domain.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

func (s *AuthService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return DefaultSessionTTL
}
