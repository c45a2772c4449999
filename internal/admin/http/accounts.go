package http

import (
	"errors"
	"net/http"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
	"github.com/lodgeworks/backoffice/internal/admin/service"
	"github.com/lodgeworks/backoffice/pkg/httpx"
)

// AccountsHandler serves the account CRUD for one pool. The root-user and
// tenant-user surfaces are identical except for the pool they operate on, so
// the router mounts this handler twice.
type AccountsHandler struct {
	Pool                domain.Pool
	AccountService      *service.AccountService
	VerificationService *service.VerificationService
}

type createAccountRequest struct {
	Username  string  `json:"username"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	TenantID  *string `json:"tenantId,omitempty"`
}

// HandleCreate handles POST /{users|root-users}. The account is created
// without a password; a verification email carrying the one active token is
// sent out-of-band.
func (h *AccountsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body.")
		return
	}
	if req.Username == "" || req.Email == "" {
		writeBadRequest(w, "Username and email are required.")
		return
	}
	if h.Pool == domain.PoolTenant && req.TenantID == nil {
		writeBadRequest(w, "A tenantId is required for tenant users.")
		return
	}
	if h.Pool == domain.PoolRoot && req.TenantID != nil {
		writeBadRequest(w, "Root users cannot belong to a tenant.")
		return
	}

	account, err := h.AccountService.Create(r.Context(), service.CreateAccountInput{
		Pool:      h.Pool,
		TenantID:  req.TenantID,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}, actorID(r), requestMeta(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"user": newAccountView(account)})
}

// HandleList handles GET /{users|root-users}.
func (h *AccountsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.AccountService.List(r.Context(), h.Pool)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"users": newAccountViews(accounts)})
}

// HandleGet handles GET /{users|root-users}/{id}.
func (h *AccountsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	account, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": newAccountView(account)})
}

type updateAccountRequest struct {
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// HandleUpdate handles PATCH /{users|root-users}/{id}. Absent fields are
// left untouched. An email change clears the verified state and triggers a
// fresh verification email.
func (h *AccountsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.load(w, r); !ok {
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body.")
		return
	}

	account, err := h.AccountService.Update(r.Context(), r.PathValue("id"), service.UpdateAccountInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}, actorID(r), requestMeta(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": newAccountView(account)})
}

// HandleDelete handles DELETE /{users|root-users}/{id}.
func (h *AccountsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.load(w, r); !ok {
		return
	}
	if err := h.AccountService.Delete(r.Context(), r.PathValue("id"), actorID(r), requestMeta(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeactivate handles PATCH /{users|root-users}/{id}/deactivate.
func (h *AccountsHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.load(w, r); !ok {
		return
	}
	account, err := h.AccountService.Deactivate(r.Context(), r.PathValue("id"), actorID(r), requestMeta(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": newAccountView(account)})
}

// HandleActivate handles PATCH /{users|root-users}/{id}/activate.
func (h *AccountsHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.load(w, r); !ok {
		return
	}
	account, err := h.AccountService.Activate(r.Context(), r.PathValue("id"), actorID(r), requestMeta(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": newAccountView(account)})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChangePassword handles PATCH /{users|root-users}/{id}/password.
// Changing your own password requires the current one and keeps the current
// session alive; every other session for the account is revoked.
func (h *AccountsHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.load(w, r); !ok {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil || req.NewPassword == "" {
		writeBadRequest(w, "A new password is required.")
		return
	}

	sess, _ := sessionFromContext(r.Context())
	err := h.AccountService.ChangePassword(r.Context(), r.PathValue("id"),
		req.CurrentPassword, req.NewPassword, actorID(r), sess.ID, requestMeta(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated."})
}

// HandleResendVerification handles POST /{users|root-users}/{id}/resend-verification.
func (h *AccountsHandler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.load(w, r); !ok {
		return
	}
	if err := h.VerificationService.Resend(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Verification email sent."})
}

// load fetches the target account and enforces that it belongs to this
// handler's pool; an account from the other pool is a 404, never a leak.
func (h *AccountsHandler) load(w http.ResponseWriter, r *http.Request) (domain.Account, bool) {
	account, err := h.AccountService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return domain.Account{}, false
	}
	if account.Pool != h.Pool {
		writeServiceError(w, r, service.ErrNotFound)
		return domain.Account{}, false
	}
	return account, true
}

func (h *AccountsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrInvalidUsername) {
		writeInvalidUsername(w)
		return
	}
	writeServiceError(w, r, err)
}

func actorID(r *http.Request) string {
	id, _ := r.Context().Value(httpx.CtxKeyUserID).(string)
	return id
}
