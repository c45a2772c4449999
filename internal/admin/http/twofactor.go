package http

import (
	"errors"
	"net/http"

	"github.com/lodgeworks/backoffice/internal/admin/service"
	"github.com/lodgeworks/backoffice/pkg/httpx"
)

// TwoFactorHandler covers TOTP enrollment and status.
type TwoFactorHandler struct {
	TwoFactorService *service.TwoFactorService
}

// HandleSetup handles GET /auth/2fa/setup. Returns a fresh secret and
// otpauth URL; repeating the call before confirmation rotates the secret.
func (h *TwoFactorHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	setup, err := h.TwoFactorService.BeginSetup(r.Context(), sess.AccountID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"secret": setup.Secret,
		"qrCode": setup.QRCode,
	})
}

// HandleConfirm handles POST /auth/2fa/confirm. A valid code enables 2FA,
// marks the session verified and returns the recovery codes. The plaintext
// codes appear in this response and nowhere else, ever.
func (h *TwoFactorHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
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

	codes, err := h.TwoFactorService.ConfirmSetup(r.Context(), sess, req.Code, requestMeta(r))
	if err != nil {
		// During enrollment a wrong code is a request problem, not an
		// authentication failure.
		if errors.Is(err, service.ErrInvalidCode) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_code", "The code is invalid.")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"enabled":       true,
		"recoveryCodes": codes,
	})
}

// HandleStatus handles GET /auth/2fa/status.
func (h *TwoFactorHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	enabled, confirmedAt, err := h.TwoFactorService.Status(r.Context(), sess.AccountID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"enabled":     enabled,
		"confirmedAt": confirmedAt,
	})
}
