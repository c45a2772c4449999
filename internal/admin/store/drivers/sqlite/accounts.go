package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
	"github.com/lodgeworks/backoffice/pkg/cryptox"
)

// accountColumns is the scan order every account query uses.
const accountColumns = `id, pool, tenant_id, username, first_name, last_name, email,
	password_hash, avatar_path, is_active, two_factor_enabled, two_factor_secret,
	two_factor_confirmed_at, email_verified_at, created_at, updated_at`

type accountsRepo struct {
	db dbtx
}

// scanAccount reads one row and decrypts the TOTP secret. This is the only
// place ciphertext leaves the database; everything above the store sees the
// plaintext secret.
func scanAccount(row interface{ Scan(dest ...any) error }) (domain.Account, error) {
	var (
		a           domain.Account
		tenantID    sql.NullString
		passHash    sql.NullString
		avatarPath  sql.NullString
		encSecret   sql.NullString
		confirmedAt sql.NullTime
		verifiedAt  sql.NullTime
		username    string
		pool        string
	)

	err := row.Scan(
		&a.ID, &pool, &tenantID, &username, &a.FirstName, &a.LastName, &a.Email,
		&passHash, &avatarPath, &a.Active, &a.TwoFactorEnabled, &encSecret,
		&confirmedAt, &verifiedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}

	a.Pool = domain.Pool(pool)
	a.Username = domain.Username(username)
	a.TenantID = mapNullString(tenantID)
	a.PasswordHash = mapNullString(passHash)
	a.AvatarPath = mapNullString(avatarPath)
	a.TwoFactorConfirmedAt = mapNullTime(confirmedAt)
	a.EmailVerifiedAt = mapNullTime(verifiedAt)

	if encSecret.Valid {
		secret, err := cryptox.DecryptSecret(encSecret.String)
		if err != nil {
			return domain.Account{}, fmt.Errorf("decrypt two-factor secret: %w", err)
		}
		a.TwoFactorSecret = &secret
	}

	return a, nil
}

func (r *accountsRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) GetByEmail(ctx context.Context, pool domain.Pool, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE pool = ? AND email = ?`,
		string(pool), email)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) GetByUsername(ctx context.Context, pool domain.Pool, username string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE pool = ? AND username = ?`,
		string(pool), username)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	// Root pool wins when the same email exists in both pools.
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?
		 ORDER BY CASE pool WHEN 'root' THEN 0 ELSE 1 END LIMIT 1`, email)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) GetTenantAdmin(ctx context.Context, tenantID string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE tenant_id = ?`, tenantID)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) List(ctx context.Context, pool domain.Pool) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE pool = ? ORDER BY created_at`,
		string(pool))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) error {
	var encSecret sql.NullString
	if a.TwoFactorSecret != nil {
		enc, err := cryptox.EncryptSecret(*a.TwoFactorSecret)
		if err != nil {
			return fmt.Errorf("encrypt two-factor secret: %w", err)
		}
		encSecret = sql.NullString{String: enc, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (
			id, pool, tenant_id, username, first_name, last_name, email,
			password_hash, avatar_path, is_active, two_factor_enabled,
			two_factor_secret, two_factor_confirmed_at, email_verified_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Pool), mapOptionalString(a.TenantID), a.Username.String(),
		a.FirstName, a.LastName, a.Email,
		mapOptionalString(a.PasswordHash), mapOptionalString(a.AvatarPath),
		a.Active, a.TwoFactorEnabled, encSecret,
		mapOptionalTime(a.TwoFactorConfirmedAt), mapOptionalTime(a.EmailVerifiedAt),
	)
	return mapConflict(err)
}

func (r *accountsRepo) UpdateProfile(ctx context.Context, id string, username domain.Username, firstName, lastName, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET username = ?, first_name = ?, last_name = ?, email = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		username.String(), firstName, lastName, email, id)
	return mapConflict(err)
}

func (r *accountsRepo) UpdateAvatarPath(ctx context.Context, id string, path *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET avatar_path = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		mapOptionalString(path), id)
	return err
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		hash, id)
	return err
}

func (r *accountsRepo) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, id)
	return err
}

func (r *accountsRepo) CountActive(ctx context.Context, pool domain.Pool) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE pool = ? AND is_active = 1`,
		string(pool)).Scan(&count)
	return count, err
}

func (r *accountsRepo) MarkEmailVerified(ctx context.Context, id string, verifiedAt time.Time, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET email_verified_at = ?, password_hash = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		verifiedAt, passwordHash, id)
	return err
}

func (r *accountsRepo) ClearEmailVerified(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET email_verified_at = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, id)
	return err
}

func (r *accountsRepo) SetTwoFactorSecret(ctx context.Context, id string, secret string) error {
	enc, err := cryptox.EncryptSecret(secret)
	if err != nil {
		return fmt.Errorf("encrypt two-factor secret: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE accounts SET two_factor_secret = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, enc, id)
	return err
}

func (r *accountsRepo) EnableTwoFactor(ctx context.Context, id string, confirmedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET two_factor_enabled = 1, two_factor_confirmed_at = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		confirmedAt, id)
	return err
}

func (r *accountsRepo) DisableTwoFactor(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET two_factor_enabled = 0, two_factor_secret = NULL,
		 two_factor_confirmed_at = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

func (r *accountsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	return err
}
