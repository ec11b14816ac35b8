package leagueconfig

import (
	"context"
	"fmt"
	"time"

	"github.com/breakawayhl/breakaway/internal/store"
)

// Entry is one row of the league configuration table.
type Entry struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description *string   `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

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

// Get returns the raw value for key, or store.ErrNotFound.
func (r *Repository) Get(ctx context.Context, q store.DBTX, key string) (string, error) {
	var value string
	err := r.q(q).QueryRow(ctx, `SELECT value FROM config WHERE key = $1`, key).Scan(&value)
	if err != nil {
		return "", store.MapNotFound(err)
	}
	return value, nil
}

// Set upserts a config key.
func (r *Repository) Set(ctx context.Context, q store.DBTX, key, value string) error {
	_, err := r.q(q).Exec(ctx, `
		INSERT INTO config (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set config %s: %w", key, err)
	}
	return nil
}

// All returns every config entry ordered by key.
func (r *Repository) All(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value, description, updated_at FROM config ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list config: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value, &e.Description, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
