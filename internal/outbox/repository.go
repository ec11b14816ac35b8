// Package outbox implements the transactional outbox: engines stage domain
// events (role sync requests, trade/draft/game notifications) in the same
// transaction as the state change, and the worker delivers them to NATS
// with retry. Delivery failure never fails the originating operation.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

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

// Insert stages an event. Call inside the transaction that produced it.
func (r *Repository) Insert(ctx context.Context, q store.DBTX, eventType string, aggregateID uuid.UUID, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	_, err = r.q(q).Exec(ctx, `
		INSERT INTO outbox (id, event_type, aggregate_id, payload)
		VALUES ($1, $2, $3, $4)
	`, uuid.New(), eventType, aggregateID, data)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// FetchUnsent locks and returns up to limit undelivered events in creation
// order. Row locks are skipped so concurrent workers never double-deliver.
func (r *Repository) FetchUnsent(ctx context.Context, q store.DBTX, limit int32) ([]models.OutboxEvent, error) {
	rows, err := r.q(q).Query(ctx, `
		SELECT id, event_type, aggregate_id, payload, created_at, sent_at
		FROM outbox
		WHERE sent_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent events: %w", err)
	}
	defer rows.Close()

	var events []models.OutboxEvent
	for rows.Next() {
		var e models.OutboxEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.AggregateID, &e.Payload, &e.CreatedAt, &e.SentAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// MarkSent stamps delivered events.
func (r *Repository) MarkSent(ctx context.Context, q store.DBTX, ids []uuid.UUID) error {
	_, err := r.q(q).Exec(ctx, `
		UPDATE outbox SET sent_at = $1 WHERE id = ANY($2)
	`, time.Now().UTC(), ids)
	if err != nil {
		return fmt.Errorf("failed to mark events sent: %w", err)
	}
	return nil
}
