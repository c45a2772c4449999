package sqlite

import "context"

type recoveryCodesRepo struct {
	db dbtx
}

func (r *recoveryCodesRepo) Insert(ctx context.Context, accountID, codeHash string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recovery_codes (account_id, code_hash) VALUES (?, ?)`,
		accountID, codeHash)
	return err
}

// Consume removes the code in one conditional DELETE. RowsAffected tells us
// whether this caller won; a concurrent request submitting the same code
// sees zero rows and fails.
func (r *recoveryCodesRepo) Consume(ctx context.Context, accountID, codeHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recovery_codes WHERE account_id = ? AND code_hash = ?`,
		accountID, codeHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *recoveryCodesRepo) DeleteAll(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM recovery_codes WHERE account_id = ?`, accountID)
	return err
}

func (r *recoveryCodesRepo) Count(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recovery_codes WHERE account_id = ?`, accountID,
	).Scan(&count)
	return count, err
}
