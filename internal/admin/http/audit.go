package http

import (
	"net/http"
	"strconv"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
	"github.com/lodgeworks/backoffice/internal/admin/service"
	"github.com/lodgeworks/backoffice/pkg/httpx"
)

// AuditHandler exposes the append-only audit trail, read side only.
type AuditHandler struct {
	Audit *service.AuditRecorder
}

// HandleList handles GET /audit-logs. Supports actorId, action, limit and
// offset query parameters.
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AuditFilter{
		ActorID: q.Get("actorId"),
		Action:  q.Get("action"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer.")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "offset must be a non-negative integer.")
			return
		}
		filter.Offset = n
	}

	entries, err := h.Audit.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	views := make([]AuditEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newAuditEntryView(e))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"entries": views})
}
