package domain

import "time"

// Tenant is an isolated customer namespace. A tenant owns at most one admin
// account in the tenant pool, managed as a side effect of tenant admin
// endpoints.
type Tenant struct {
	ID        string
	Name      string
	Domain    string // unique across tenants
	Plan      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
