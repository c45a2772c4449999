package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
	"github.com/lodgeworks/backoffice/internal/admin/store"
	"github.com/lodgeworks/backoffice/pkg/cryptox"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	recoveryCodeCount = 8
	// Two 4-character groups joined by a hyphen, e.g. "AB3D-99ZK".
	recoveryCodeGroupLen = 4
	recoveryCodeCharset  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	totpPeriod = 30
	// One step of clock skew either side: a code minted at T validates for
	// T±30s but not T±90s. Deliberate drift tolerance, keep as is.
	totpSkew = 1
)

// TwoFactorService owns TOTP enrollment, code verification and recovery
// codes.
type TwoFactorService struct {
	Store  store.Store
	Issuer string // issuer label in the otpauth:// URI, e.g. "Lodgeworks"
	Audit  *AuditRecorder
}

// SetupResponse carries a freshly generated, unconfirmed TOTP secret. The
// QRCode field is the otpauth:// URI the console renders as a QR image;
// nothing is enabled until the user confirms with a valid code.
type SetupResponse struct {
	Secret string
	QRCode string
}

// BeginSetup generates a TOTP secret for the account and stores it
// unconfirmed. Calling it again before confirmation rotates the secret.
func (s *TwoFactorService) BeginSetup(ctx context.Context, accountID string) (SetupResponse, error) {
	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return SetupResponse{}, fmt.Errorf("failed to load account: %w", err)
	}
	if account.TwoFactorEnabled {
		return SetupResponse{}, ErrAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: account.Email,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return SetupResponse{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	if err := s.Store.Accounts().SetTwoFactorSecret(ctx, account.ID, key.Secret()); err != nil {
		return SetupResponse{}, fmt.Errorf("failed to store TOTP secret: %w", err)
	}

	return SetupResponse{Secret: key.Secret(), QRCode: key.URL()}, nil
}

// ConfirmSetup verifies the first code against the pending secret and, in one
// transaction, persists hashed recovery codes and enables two-factor auth.
// The session is promoted to verified. The returned plaintext codes are shown
// exactly once and cannot be retrieved again.
func (s *TwoFactorService) ConfirmSetup(ctx context.Context, sess domain.Session, code string, meta RequestMeta) ([]string, error) {
	account, err := s.Store.Accounts().GetByID(ctx, sess.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account.TwoFactorEnabled {
		return nil, ErrAlreadyEnabled
	}
	if account.TwoFactorSecret == nil {
		return nil, ErrSetupRequired
	}
	if !verifyTOTP(*account.TwoFactorSecret, code, time.Now()) {
		return nil, ErrInvalidCode
	}

	plain, hashed, err := generateRecoveryCodes(recoveryCodeCount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, hash := range hashed {
			if err := tx.RecoveryCodes().Insert(ctx, account.ID, hash); err != nil {
				return fmt.Errorf("failed to store recovery code: %w", err)
			}
		}
		if err := tx.Accounts().EnableTwoFactor(ctx, account.ID, now); err != nil {
			return fmt.Errorf("failed to enable two-factor: %w", err)
		}
		return tx.Sessions().MarkVerified(ctx, sess.ID)
	})
	if err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, account.ID, "auth.2fa_enabled",
		WithEntity("account", account.ID),
		WithRequestMeta(meta),
	)

	return plain, nil
}

// Status reports whether two-factor auth is enabled and when it was confirmed.
func (s *TwoFactorService) Status(ctx context.Context, accountID string) (bool, *time.Time, error) {
	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil, ErrNotFound
		}
		return false, nil, err
	}
	return account.TwoFactorEnabled, account.TwoFactorConfirmedAt, nil
}

// ConsumeRecoveryCode burns a one-time recovery code against repos, which may
// be a transaction when the burn must commit together with other writes. The
// lookup and removal are a single conditional delete, so the code can never
// succeed twice.
func (s *TwoFactorService) ConsumeRecoveryCode(ctx context.Context, repos store.Store, accountID, submitted string) (bool, error) {
	normalized := strings.ToUpper(strings.TrimSpace(submitted))
	if normalized == "" {
		return false, nil
	}
	return repos.RecoveryCodes().Consume(ctx, accountID, cryptox.FingerprintToken(normalized))
}

// verifyTOTP checks a six-digit code against the secret with one step of
// clock skew either side of now.
func verifyTOTP(secret, code string, at time.Time) bool {
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// generateRecoveryCodes returns count plaintext codes and their SHA-256
// fingerprints in matching order.
func generateRecoveryCodes(count int) (plain []string, hashed []string, err error) {
	plain = make([]string, count)
	hashed = make([]string, count)
	for i := range count {
		code, err := generateRecoveryCode()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate recovery code: %w", err)
		}
		plain[i] = code
		hashed[i] = cryptox.FingerprintToken(code)
	}
	return plain, hashed, nil
}

func generateRecoveryCode() (string, error) {
	buf := make([]byte, 0, recoveryCodeGroupLen*2+1)
	for i := range recoveryCodeGroupLen * 2 {
		if i == recoveryCodeGroupLen {
			buf = append(buf, '-')
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(recoveryCodeCharset))))
		if err != nil {
			return "", err
		}
		buf = append(buf, recoveryCodeCharset[n.Int64()])
	}
	return string(buf), nil
}
