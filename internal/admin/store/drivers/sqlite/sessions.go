package sqlite

import (
	"context"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) Create(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (
			id, token_hash, account_id, pool, two_fa_pending, two_fa_verified,
			ip_address, user_agent, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.TokenHash, s.AccountID, string(s.Pool), s.TwoFactorPending,
		s.TwoFactorVerified, s.IPAddress, s.UserAgent, s.ExpiresAt,
	)
	return err
}

func (r *sessionsRepo) GetByTokenHash(ctx context.Context, hash string) (domain.Session, error) {
	var (
		s    domain.Session
		pool string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, token_hash, account_id, pool, two_fa_pending, two_fa_verified,
			ip_address, user_agent, created_at, expires_at
		 FROM sessions
		 WHERE token_hash = ? AND expires_at > CURRENT_TIMESTAMP`, hash,
	).Scan(
		&s.ID, &s.TokenHash, &s.AccountID, &pool, &s.TwoFactorPending,
		&s.TwoFactorVerified, &s.IPAddress, &s.UserAgent, &s.CreatedAt, &s.ExpiresAt,
	)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.Pool = domain.Pool(pool)
	return s, nil
}

func (r *sessionsRepo) MarkVerified(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET two_fa_pending = 0, two_fa_verified = 1 WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) DeleteForAccount(ctx context.Context, accountID, keepID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE account_id = ? AND id != ?`, accountID, keepID)
	return err
}

func (r *sessionsRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= CURRENT_TIMESTAMP`)
	return err
}
