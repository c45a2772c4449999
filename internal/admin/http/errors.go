package http

import (
	"errors"
	"net/http"

	"github.com/lodgeworks/backoffice/internal/admin/service"
	"github.com/lodgeworks/backoffice/pkg/httpx"
	"github.com/lodgeworks/backoffice/pkg/slogx"
)

// writeServiceError maps service sentinels 1:1 onto HTTP status codes and
// machine-readable codes. Anything unrecognized becomes an opaque 500; the
// details stay in the server log.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password.")
	case errors.Is(err, service.ErrEmailNotVerified):
		httpx.WriteError(w, http.StatusUnauthorized, "email_not_verified", "Email address has not been verified.")
	case errors.Is(err, service.ErrAccountDeactivated):
		httpx.WriteError(w, http.StatusUnauthorized, "account_deactivated", "This account has been deactivated.")
	case errors.Is(err, service.ErrUnauthenticated):
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required.")
	case errors.Is(err, service.ErrInvalidCode):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_code", "The code is invalid or has expired.")
	case errors.Is(err, service.ErrSetupRequired):
		httpx.WriteError(w, http.StatusBadRequest, "two_factor_setup_required", "Two-factor authentication has not been set up.")
	case errors.Is(err, service.ErrAlreadyEnabled):
		httpx.WriteError(w, http.StatusBadRequest, "two_factor_already_enabled", "Two-factor authentication is already enabled.")
	case errors.Is(err, service.ErrInvalidToken):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_token", "The verification token is invalid.")
	case errors.Is(err, service.ErrExpiredToken):
		httpx.WriteError(w, http.StatusBadRequest, "expired_token", "The verification token has expired.")
	case errors.Is(err, service.ErrAlreadyVerified):
		httpx.WriteError(w, http.StatusConflict, "already_verified", "Email address is already verified.")
	case errors.Is(err, service.ErrSelfDeletion):
		httpx.WriteError(w, http.StatusForbidden, "self_deletion", "You cannot delete your own account.")
	case errors.Is(err, service.ErrLastActiveUser):
		httpx.WriteError(w, http.StatusConflict, "last_active_user", "The last active account cannot be removed or deactivated.")
	case errors.Is(err, service.ErrDuplicateEmail):
		httpx.WriteValidationError(w, "duplicate_email", "Validation failed.",
			map[string][]string{"email": {"This email address is already in use."}})
	case errors.Is(err, service.ErrDuplicateUsername):
		httpx.WriteValidationError(w, "duplicate_username", "Validation failed.",
			map[string][]string{"username": {"This username is already in use."}})
	case errors.Is(err, service.ErrInvalidCurrentPassword):
		httpx.WriteError(w, http.StatusForbidden, "invalid_current_password", "The current password does not match.")
	case errors.Is(err, service.ErrDuplicateDomain):
		httpx.WriteValidationError(w, "duplicate_domain", "Validation failed.",
			map[string][]string{"domain": {"This domain is already in use."}})
	case errors.Is(err, service.ErrAdminExists):
		httpx.WriteError(w, http.StatusConflict, "admin_exists", "This tenant already has an admin account.")
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Resource not found.")
	default:
		slogx.FromContext(r.Context()).Error("unhandled service error", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "An internal error occurred.")
	}
}

func writeInvalidUsername(w http.ResponseWriter) {
	httpx.WriteValidationError(w, "invalid_username", "Validation failed.",
		map[string][]string{"username": {"Usernames may only contain letters, digits, underscores and dashes."}})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	httpx.WriteError(w, http.StatusBadRequest, "invalid_request", message)
}
