package service

import (
	"context"
	"errors"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
	"github.com/lodgeworks/backoffice/internal/admin/store"
	"github.com/lodgeworks/backoffice/pkg/idx"
)

// TenantService manages tenant records and the single admin account each
// tenant may own. The admin account goes through the regular lifecycle
// manager, so all guard rules, verification emails and audit entries apply.
type TenantService struct {
	Store    store.Store
	Accounts *AccountService
	Audit    *AuditRecorder
}

type TenantInput struct {
	Name   string
	Domain string
	Plan   string
}

func (s *TenantService) Get(ctx context.Context, id string) (domain.Tenant, error) {
	tenant, err := s.Store.Tenants().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Tenant{}, ErrNotFound
		}
		return domain.Tenant{}, err
	}
	return tenant, nil
}

func (s *TenantService) List(ctx context.Context) ([]domain.Tenant, error) {
	return s.Store.Tenants().List(ctx)
}

func (s *TenantService) Create(ctx context.Context, in TenantInput, actorID string, meta RequestMeta) (domain.Tenant, error) {
	if _, err := s.Store.Tenants().GetByDomain(ctx, in.Domain); err == nil {
		return domain.Tenant{}, ErrDuplicateDomain
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Tenant{}, err
	}

	plan := in.Plan
	if plan == "" {
		plan = "standard"
	}
	tenant := domain.Tenant{
		ID:     idx.New().String(),
		Name:   in.Name,
		Domain: in.Domain,
		Plan:   plan,
		Active: true,
	}
	if err := s.Store.Tenants().Create(ctx, tenant); err != nil {
		return domain.Tenant{}, mapStoreConflict(err)
	}

	s.Audit.Record(ctx, actorID, "tenant.created",
		WithEntity("tenant", tenant.ID),
		WithNewValues(tenantSnapshot(tenant)),
		WithRequestMeta(meta),
	)
	return s.Get(ctx, tenant.ID)
}

func (s *TenantService) Update(ctx context.Context, id string, in TenantInput, actorID string, meta RequestMeta) (domain.Tenant, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return domain.Tenant{}, err
	}

	if in.Domain != "" && in.Domain != existing.Domain {
		if _, err := s.Store.Tenants().GetByDomain(ctx, in.Domain); err == nil {
			return domain.Tenant{}, ErrDuplicateDomain
		} else if !errors.Is(err, store.ErrNotFound) {
			return domain.Tenant{}, err
		}
		existing.Domain = in.Domain
	}
	if in.Name != "" {
		existing.Name = in.Name
	}
	if in.Plan != "" {
		existing.Plan = in.Plan
	}

	if err := s.Store.Tenants().Update(ctx, existing); err != nil {
		return domain.Tenant{}, mapStoreConflict(err)
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return domain.Tenant{}, err
	}

	s.Audit.Record(ctx, actorID, "tenant.updated",
		WithEntity("tenant", id),
		WithOldValues(tenantSnapshot(existing)),
		WithNewValues(tenantSnapshot(updated)),
		WithRequestMeta(meta),
	)
	return updated, nil
}

func (s *TenantService) Delete(ctx context.Context, id, actorID string, meta RequestMeta) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	// Admin account, sessions and tokens cascade with the tenant row.
	if err := s.Store.Tenants().Delete(ctx, id); err != nil {
		return err
	}

	s.Audit.Record(ctx, actorID, "tenant.deleted",
		WithEntity("tenant", id),
		WithOldValues(tenantSnapshot(existing)),
		WithRequestMeta(meta),
	)
	return nil
}

// CreateAdmin creates the tenant's single admin account in the tenant pool.
func (s *TenantService) CreateAdmin(ctx context.Context, tenantID string, in CreateAccountInput, actorID string, meta RequestMeta) (domain.Account, error) {
	tenant, err := s.Get(ctx, tenantID)
	if err != nil {
		return domain.Account{}, err
	}

	if _, err := s.Store.Accounts().GetTenantAdmin(ctx, tenantID); err == nil {
		return domain.Account{}, ErrAdminExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, err
	}

	in.Pool = domain.PoolTenant
	in.TenantID = &tenant.ID
	return s.Accounts.Create(ctx, in, actorID, meta)
}

// GetAdmin returns the tenant's admin account, if one exists.
func (s *TenantService) GetAdmin(ctx context.Context, tenantID string) (domain.Account, error) {
	account, err := s.Store.Accounts().GetTenantAdmin(ctx, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrNotFound
		}
		return domain.Account{}, err
	}
	return account, nil
}

func tenantSnapshot(t domain.Tenant) map[string]any {
	return map[string]any{
		"name":      t.Name,
		"domain":    t.Domain,
		"plan":      t.Plan,
		"is_active": t.Active,
	}
}
