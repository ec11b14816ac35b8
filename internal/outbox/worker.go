package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// WorkerConfig controls the outbox polling loop.
type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int32
	MaxRetries   int
	RetryDelay   time.Duration
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    100,
		MaxRetries:   3,
		RetryDelay:   time.Second,
	}
}

// OutboxRepository defines what the worker needs from the repository.
type OutboxRepository interface {
	FetchUnsent(ctx context.Context, q store.DBTX, limit int32) ([]models.OutboxEvent, error)
	MarkSent(ctx context.Context, q store.DBTX, ids []uuid.UUID) error
}

// Worker drains the outbox table to the message bus. Events that fail all
// retry attempts stay unsent and are picked up on a later poll.
type Worker struct {
	txr       store.TxRunner
	repo      OutboxRepository
	publisher EventPublisher
	config    WorkerConfig
	clock     clockwork.Clock
	log       zerolog.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewWorker(txr store.TxRunner, repo OutboxRepository, publisher EventPublisher, cfg WorkerConfig, clock clockwork.Clock, log zerolog.Logger) *Worker {
	return &Worker{
		txr:       txr,
		repo:      repo,
		publisher: publisher,
		config:    cfg,
		clock:     clock,
		log:       log.With().Str("component", "outbox_worker").Logger(),
		stopChan:  make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	w.log.Info().
		Dur("poll_interval", w.config.PollInterval).
		Int32("batch_size", w.config.BatchSize).
		Msg("outbox worker started")
	return nil
}

func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker not running")
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()

	w.log.Info().Msg("outbox worker stopped")
	return nil
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := w.clock.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on start
	w.ProcessOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.Chan():
			w.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce drains one batch. The fetch locks rows for the duration of
// the transaction, so a crash before MarkSent redelivers rather than loses.
func (w *Worker) ProcessOnce(ctx context.Context) {
	err := w.txr.WithTx(ctx, func(tx pgx.Tx) error {
		events, err := w.repo.FetchUnsent(ctx, tx, w.config.BatchSize)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		w.log.Debug().Int("count", len(events)).Msg("processing outbox events")

		var sent []uuid.UUID
		for _, event := range events {
			if err := w.publishWithRetry(ctx, event); err != nil {
				w.log.Error().
					Err(err).
					Str("event_id", event.ID.String()).
					Str("event_type", event.EventType).
					Msg("failed to publish event")
				continue
			}
			sent = append(sent, event.ID)
		}

		if len(sent) > 0 {
			if err := w.repo.MarkSent(ctx, tx, sent); err != nil {
				return err
			}
			w.log.Info().
				Int("total", len(events)).
				Int("successful", len(sent)).
				Msg("processed outbox events")
		}
		return nil
	})
	if err != nil {
		w.log.Error().Err(err).Msg("outbox poll failed")
	}
}

func (w *Worker) publishWithRetry(ctx context.Context, event models.OutboxEvent) error {
	var lastErr error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.clock.After(w.config.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := w.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			w.log.Warn().
				Err(err).
				Str("event_id", event.ID.String()).
				Int("attempt", attempt+1).
				Msg("failed to publish event, retrying")
			continue
		}
		return nil
	}
	return fmt.Errorf("failed after %d attempts: %w", w.config.MaxRetries+1, lastErr)
}
