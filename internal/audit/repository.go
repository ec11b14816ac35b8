// Package audit is the write-only observability trail. Every mutating engine
// operation appends here; nothing in business logic reads it back.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/google/uuid"
)

type Repository struct {
	db store.DBTX
}

func NewRepository(db store.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) q(q store.DBTX) store.DBTX {
	if q != nil {
		return q
	}
	return r.db
}

// Append inserts one audit record. oldValues and newValues are marshalled to
// jsonb; nil values are stored as NULL.
func (r *Repository) Append(ctx context.Context, q store.DBTX, entityType, action string, entityID *string, actor string, oldValues, newValues any) error {
	oldJSON, err := marshalValues(oldValues)
	if err != nil {
		return err
	}
	newJSON, err := marshalValues(newValues)
	if err != nil {
		return err
	}
	_, err = r.q(q).Exec(ctx, `
		INSERT INTO audit_log (id, entity_type, action, entity_id, actor, old_values, new_values)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), entityType, action, entityID, actor, oldJSON, newJSON)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest audit entries, most recent first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, entity_type, action, entity_id, actor, old_values, new_values, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.EntityType, &e.Action, &e.EntityID, &e.Actor, &e.OldValues, &e.NewValues, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func marshalValues(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		if len(raw) == 0 {
			return nil, nil
		}
		return raw, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit values: %w", err)
	}
	return data, nil
}
