package service

import (
	"context"
	"log/slog"
)

// Mailer delivers verification emails. Delivery is fire-and-forget: callers
// log failures but never fail the triggering operation on them.
type Mailer interface {
	// SendVerification sends the raw verification token to the given address.
	// The raw token exists only in this email; the store keeps its hash.
	SendVerification(ctx context.Context, email, rawToken string) error
}

// LogMailer is the development Mailer: it logs instead of delivering. The
// token itself is deliberately not logged.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendVerification(ctx context.Context, email, rawToken string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("verification email (not delivered, log mailer)",
		"email", email,
		"token_len", len(rawToken),
	)
	return nil
}
