package sqlite

import (
	"context"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
)

type tokensRepo struct {
	db dbtx
}

func (r *tokensRepo) Create(ctx context.Context, t domain.VerificationToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO verification_tokens (id, account_id, token_hash, expires_at)
		 VALUES (?, ?, ?, ?)`,
		t.ID, t.AccountID, t.TokenHash, t.ExpiresAt)
	return err
}

func (r *tokensRepo) GetByHash(ctx context.Context, hash string) (domain.VerificationToken, error) {
	var t domain.VerificationToken
	err := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, token_hash, expires_at, created_at
		 FROM verification_tokens WHERE token_hash = ?`, hash,
	).Scan(&t.ID, &t.AccountID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.VerificationToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *tokensRepo) DeleteForAccount(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM verification_tokens WHERE account_id = ?`, accountID)
	return err
}

func (r *tokensRepo) CountForAccount(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verification_tokens WHERE account_id = ?`, accountID,
	).Scan(&count)
	return count, err
}

func (r *tokensRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM verification_tokens WHERE expires_at <= CURRENT_TIMESTAMP`)
	return err
}
