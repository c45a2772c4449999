package http

import (
	"net/http"

	"github.com/lodgeworks/backoffice/internal/admin/service"
	"github.com/lodgeworks/backoffice/pkg/httpx"
)

// AuthHandler covers the session lifecycle: login, the two second-factor
// verification paths, logout, whoami and email verification.
type AuthHandler struct {
	AuthService         *service.AuthService
	VerificationService *service.VerificationService
	Cookies             CookieSettings
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /auth/login. On success the response carries a
// fresh session cookie; the session starts in the pending state and must be
// upgraded via /auth/verify-2fa or /auth/verify-recovery before it grants
// access to anything beyond the auth surface.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body.")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "Email and password are required.")
		return
	}

	result, err := h.AuthService.Login(r.Context(), req.Email, req.Password, requestMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Cookies.write(w, result.RawToken, result.Session.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user":                   newAccountView(result.Account),
		"twoFactorEnabled":       result.Account.TwoFactorEnabled,
		"requiresTwoFactorSetup": result.RequiresTwoFactorSetup,
	})
}

type verifyCodeRequest struct {
	Code string `json:"code"`
}

// HandleVerifyTOTP handles POST /auth/verify-2fa. Requires a pending
// session; a valid code upgrades it to verified in place.
func (h *AuthHandler) HandleVerifyTOTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	var req verifyCodeRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		writeBadRequest(w, "A code is required.")
		return
	}

	account, err := h.AuthService.VerifyTOTP(r.Context(), sess, req.Code, requestMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user":     newAccountView(account),
		"verified": true,
	})
}

// HandleVerifyRecovery handles POST /auth/verify-recovery. The recovery
// code is burned on success and can never be used again.
func (h *AuthHandler) HandleVerifyRecovery(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	var req verifyCodeRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		writeBadRequest(w, "A recovery code is required.")
		return
	}

	account, err := h.AuthService.VerifyRecoveryCode(r.Context(), sess, req.Code, requestMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user":     newAccountView(account),
		"verified": true,
	})
}

// HandleLogout handles POST /auth/logout. Deleting an already-gone session
// is still a success; the cookie is cleared either way.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if token, ok := sessionToken(r); ok {
		if err := h.AuthService.Logout(r.Context(), token, requestMeta(r)); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	h.Cookies.clear(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out."})
}

// HandleMe handles GET /auth/me.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthenticated)
		return
	}
	account, _ := accountFromContext(r.Context())

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user":              newAccountView(account),
		"twoFactorVerified": sess.TwoFactorVerified,
		"twoFactorPending":  sess.TwoFactorPending,
	})
}

type verifyEmailRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// HandleVerifyEmail handles POST /auth/verify-email. This is the only path
// that sets an account's first password.
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body.")
		return
	}
	if req.Token == "" || req.Password == "" {
		writeBadRequest(w, "Token and password are required.")
		return
	}

	account, err := h.VerificationService.VerifyAndSetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user": newAccountView(account),
	})
}
