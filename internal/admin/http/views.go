package http

import (
	"time"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
)

// AccountView is the JSON shape for an account. Password hashes, TOTP
// secrets and recovery material never appear here.
type AccountView struct {
	ID               string     `json:"id"`
	Pool             string     `json:"pool"`
	TenantID         *string    `json:"tenantId,omitempty"`
	Username         string     `json:"username"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Email            string     `json:"email"`
	AvatarPath       *string    `json:"avatarPath"`
	IsActive         bool       `json:"isActive"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	EmailVerifiedAt  *time.Time `json:"emailVerifiedAt"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func newAccountView(a domain.Account) AccountView {
	return AccountView{
		ID:               a.ID,
		Pool:             string(a.Pool),
		TenantID:         a.TenantID,
		Username:         string(a.Username),
		FirstName:        a.FirstName,
		LastName:         a.LastName,
		Email:            a.Email,
		AvatarPath:       a.AvatarPath,
		IsActive:         a.Active,
		TwoFactorEnabled: a.TwoFactorEnabled,
		EmailVerifiedAt:  a.EmailVerifiedAt,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func newAccountViews(accounts []domain.Account) []AccountView {
	views := make([]AccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, newAccountView(a))
	}
	return views
}

// TenantView is the JSON shape for a tenant.
type TenantView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	Plan      string    `json:"plan"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newTenantView(t domain.Tenant) TenantView {
	return TenantView{
		ID:        t.ID,
		Name:      t.Name,
		Domain:    t.Domain,
		Plan:      t.Plan,
		IsActive:  t.Active,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// AuditEntryView is the JSON shape for one audit record.
type AuditEntryView struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actorId"`
	Action     string         `json:"action"`
	EntityType *string        `json:"entityType"`
	EntityID   *string        `json:"entityId"`
	OldValues  map[string]any `json:"oldValues,omitempty"`
	NewValues  map[string]any `json:"newValues,omitempty"`
	IPAddress  string         `json:"ipAddress"`
	UserAgent  string         `json:"userAgent"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func newAuditEntryView(e domain.AuditEntry) AuditEntryView {
	return AuditEntryView{
		ID:         e.ID,
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		OldValues:  e.OldValues,
		NewValues:  e.NewValues,
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
		CreatedAt:  e.CreatedAt,
	}
}
