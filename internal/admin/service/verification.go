package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
	"github.com/lodgeworks/backoffice/internal/admin/store"
	"github.com/lodgeworks/backoffice/pkg/cryptox"
	"github.com/lodgeworks/backoffice/pkg/idx"
)

// VerificationService owns the email verification token lifecycle. A token
// is the only path by which an account acquires its first password.
type VerificationService struct {
	Store  store.Store
	Mailer Mailer
	Audit  *AuditRecorder
	Logger *slog.Logger
}

// Issue mints a fresh token for the account, invalidating every prior one so
// exactly one token is ever live. Returns the raw token for out-of-band
// delivery; only its fingerprint is stored.
func (s *VerificationService) Issue(ctx context.Context, accountID string) (string, error) {
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}

	now := time.Now().UTC()
	token := domain.VerificationToken{
		ID:        idx.New().String(),
		AccountID: accountID,
		TokenHash: cryptox.FingerprintToken(raw),
		ExpiresAt: now.Add(domain.VerificationTokenTTL),
		CreatedAt: now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.VerificationTokens().DeleteForAccount(ctx, accountID); err != nil {
			return err
		}
		return tx.VerificationTokens().Create(ctx, token)
	})
	if err != nil {
		return "", fmt.Errorf("failed to store verification token: %w", err)
	}

	return raw, nil
}

// IssueAndSend mints a token and emails it. Delivery failures are logged and
// swallowed; the caller's operation has already committed.
func (s *VerificationService) IssueAndSend(ctx context.Context, accountID, email string) error {
	raw, err := s.Issue(ctx, accountID)
	if err != nil {
		return err
	}
	if err := s.Mailer.SendVerification(ctx, email, raw); err != nil {
		s.logger().Error("verification email delivery failed", "email", email, "err", err)
	}
	return nil
}

// Resend reissues the verification email for an unverified account.
func (s *VerificationService) Resend(ctx context.Context, accountID string) error {
	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if account.EmailVerifiedAt != nil {
		return ErrAlreadyVerified
	}
	return s.IssueAndSend(ctx, account.ID, account.Email)
}

// VerifyAndSetPassword consumes a raw token and sets the account's first
// password. Marking the email verified and storing the hash are one atomic
// update; every token for the account is deleted in the same transaction so
// a token can be consumed at most once.
func (s *VerificationService) VerifyAndSetPassword(ctx context.Context, rawToken, newPassword string) (domain.Account, error) {
	hash := cryptox.FingerprintToken(rawToken)

	passwordHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return domain.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	var accountID string
	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		token, err := tx.VerificationTokens().GetByHash(ctx, hash)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidToken
			}
			return err
		}
		if token.Expired(now) {
			return ErrExpiredToken
		}

		accountID = token.AccountID
		if err := tx.Accounts().MarkEmailVerified(ctx, token.AccountID, now, passwordHash); err != nil {
			return err
		}
		return tx.VerificationTokens().DeleteForAccount(ctx, token.AccountID)
	})
	if err != nil {
		return domain.Account{}, err
	}

	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, err
	}

	s.Audit.Record(ctx, account.ID, "auth.email_verified",
		WithEntity("account", account.ID),
	)
	return account, nil
}

func (s *VerificationService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
