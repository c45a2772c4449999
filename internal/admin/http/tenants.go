package http

import (
	"errors"
	"net/http"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
	"github.com/lodgeworks/backoffice/internal/admin/service"
	"github.com/lodgeworks/backoffice/pkg/httpx"
)

// TenantsHandler covers tenant CRUD plus the tenant admin sub-resource.
type TenantsHandler struct {
	TenantService *service.TenantService
}

type tenantRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Plan   string `json:"plan"`
}

// HandleCreate handles POST /tenants.
func (h *TenantsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req tenantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body.")
		return
	}
	if req.Name == "" || req.Domain == "" {
		writeBadRequest(w, "Name and domain are required.")
		return
	}

	tenant, err := h.TenantService.Create(r.Context(), service.TenantInput(req), actorID(r), requestMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"tenant": newTenantView(tenant)})
}

// HandleList handles GET /tenants.
func (h *TenantsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.TenantService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	views := make([]TenantView, 0, len(tenants))
	for _, t := range tenants {
		views = append(views, newTenantView(t))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"tenants": views})
}

// HandleGet handles GET /tenants/{id}.
func (h *TenantsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.TenantService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"tenant": newTenantView(tenant)})
}

// HandleUpdate handles PATCH /tenants/{id}.
func (h *TenantsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req tenantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body.")
		return
	}

	tenant, err := h.TenantService.Update(r.Context(), r.PathValue("id"), service.TenantInput(req), actorID(r), requestMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"tenant": newTenantView(tenant)})
}

// HandleDelete handles DELETE /tenants/{id}.
func (h *TenantsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.TenantService.Delete(r.Context(), r.PathValue("id"), actorID(r), requestMeta(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleCreateAdmin handles POST /tenants/{id}/admin. A tenant owns at most
// one admin account.
func (h *TenantsHandler) HandleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body.")
		return
	}
	if req.Username == "" || req.Email == "" {
		writeBadRequest(w, "Username and email are required.")
		return
	}

	account, err := h.TenantService.CreateAdmin(r.Context(), r.PathValue("id"), service.CreateAccountInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}, actorID(r), requestMeta(r))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidUsername) {
			writeInvalidUsername(w)
			return
		}
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"user": newAccountView(account)})
}

// HandleGetAdmin handles GET /tenants/{id}/admin.
func (h *TenantsHandler) HandleGetAdmin(w http.ResponseWriter, r *http.Request) {
	account, err := h.TenantService.GetAdmin(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": newAccountView(account)})
}
