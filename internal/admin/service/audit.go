package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
	"github.com/lodgeworks/backoffice/internal/admin/store"
	"github.com/lodgeworks/backoffice/pkg/idx"
)

// RequestMeta carries the request-scoped attribution every audit entry wants.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuditRecorder appends security-relevant actions to the audit log. Recording
// is best-effort: a persistence failure is logged and never propagated, so a
// business operation that already completed cannot be rolled back by its own
// audit trail.
type AuditRecorder struct {
	Store  store.Store
	Logger *slog.Logger
}

// Record appends one entry. Safe to call with a nil entity; oversized user
// agents are truncated to the persisted limit rather than rejected.
func (a *AuditRecorder) Record(ctx context.Context, actorID, action string, opts ...AuditOption) {
	e := domain.AuditEntry{
		ID:        idx.New().String(),
		ActorID:   actorID,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&e)
	}

	if ua := []rune(e.UserAgent); len(ua) > domain.MaxUserAgentLen {
		e.UserAgent = string(ua[:domain.MaxUserAgentLen])
	}

	if err := a.Store.Audit().Insert(ctx, e); err != nil {
		a.logger().Error("audit record failed",
			"action", action,
			"actor_id", actorID,
			"err", err,
		)
	}
}

// List returns audit entries matching the filter, newest first.
func (a *AuditRecorder) List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	return a.Store.Audit().List(ctx, f)
}

func (a *AuditRecorder) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// AuditOption attaches optional fields to an audit entry.
type AuditOption func(*domain.AuditEntry)

func WithEntity(entityType, entityID string) AuditOption {
	return func(e *domain.AuditEntry) {
		e.EntityType = &entityType
		e.EntityID = &entityID
	}
}

func WithOldValues(v map[string]any) AuditOption {
	return func(e *domain.AuditEntry) { e.OldValues = v }
}

func WithNewValues(v map[string]any) AuditOption {
	return func(e *domain.AuditEntry) { e.NewValues = v }
}

func WithRequestMeta(meta RequestMeta) AuditOption {
	return func(e *domain.AuditEntry) {
		e.IPAddress = meta.IPAddress
		e.UserAgent = meta.UserAgent
	}
}
