package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
)

type auditRepo struct {
	db dbtx
}

// Insert appends one entry. The repo exposes no update or delete; the table
// is write-once by construction.
func (r *auditRepo) Insert(ctx context.Context, e domain.AuditEntry) error {
	oldValues, err := marshalValues(e.OldValues)
	if err != nil {
		return err
	}
	newValues, err := marshalValues(e.NewValues)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO audit_log (
			id, actor_id, action, entity_type, entity_id,
			old_values, new_values, ip_address, user_agent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ActorID, e.Action, mapOptionalString(e.EntityType),
		mapOptionalString(e.EntityID), oldValues, newValues,
		e.IPAddress, e.UserAgent,
	)
	return err
}

func (r *auditRepo) List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	var (
		conds []string
		args  []any
	)
	if f.ActorID != "" {
		conds = append(conds, "actor_id = ?")
		args = append(args, f.ActorID)
	}
	if f.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, f.Action)
	}

	query := `SELECT id, actor_id, action, entity_type, entity_id,
		old_values, new_values, ip_address, user_agent, created_at FROM audit_log`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			e          domain.AuditEntry
			entityType sql.NullString
			entityID   sql.NullString
			oldValues  sql.NullString
			newValues  sql.NullString
		)
		err := rows.Scan(
			&e.ID, &e.ActorID, &e.Action, &entityType, &entityID,
			&oldValues, &newValues, &e.IPAddress, &e.UserAgent, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		e.EntityType = mapNullString(entityType)
		e.EntityID = mapNullString(entityID)
		if e.OldValues, err = unmarshalValues(oldValues); err != nil {
			return nil, err
		}
		if e.NewValues, err = unmarshalValues(newValues); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func marshalValues(v map[string]any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalValues(ns sql.NullString) (map[string]any, error) {
	if !ns.Valid {
		return nil, nil
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(ns.String), &v); err != nil {
		return nil, err
	}
	return v, nil
}
