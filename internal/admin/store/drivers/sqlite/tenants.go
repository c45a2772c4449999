package sqlite

import (
	"context"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
)

type tenantsRepo struct {
	db dbtx
}

func (r *tenantsRepo) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	return r.getOne(ctx, `WHERE id = ?`, id)
}

func (r *tenantsRepo) GetByDomain(ctx context.Context, dom string) (domain.Tenant, error) {
	return r.getOne(ctx, `WHERE domain = ?`, dom)
}

func (r *tenantsRepo) getOne(ctx context.Context, where string, arg any) (domain.Tenant, error) {
	var t domain.Tenant
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, domain, plan, is_active, created_at, updated_at
		 FROM tenants `+where, arg,
	).Scan(&t.ID, &t.Name, &t.Domain, &t.Plan, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Tenant{}, mapNotFound(err)
	}
	return t, nil
}

func (r *tenantsRepo) List(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, domain, plan, is_active, created_at, updated_at
		 FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Domain, &t.Plan, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (r *tenantsRepo) Create(ctx context.Context, t domain.Tenant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (id, name, domain, plan, is_active) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Domain, t.Plan, t.Active)
	return mapConflict(err)
}

func (r *tenantsRepo) Update(ctx context.Context, t domain.Tenant) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET name = ?, domain = ?, plan = ?, is_active = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		t.Name, t.Domain, t.Plan, t.Active, t.ID)
	return mapConflict(err)
}

func (r *tenantsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, id)
	return err
}
