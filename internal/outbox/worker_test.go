package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type stubOutboxRepo struct {
	unsent []models.OutboxEvent
	marked []uuid.UUID
}

func (s *stubOutboxRepo) FetchUnsent(ctx context.Context, q store.DBTX, limit int32) ([]models.OutboxEvent, error) {
	if int32(len(s.unsent)) > limit {
		return s.unsent[:limit], nil
	}
	return s.unsent, nil
}

func (s *stubOutboxRepo) MarkSent(ctx context.Context, q store.DBTX, ids []uuid.UUID) error {
	s.marked = append(s.marked, ids...)
	return nil
}

type recordingPublisher struct {
	published []models.OutboxEvent
	failFor   map[uuid.UUID]int
}

func (p *recordingPublisher) Publish(ctx context.Context, event models.OutboxEvent) error {
	if remaining, ok := p.failFor[event.ID]; ok && remaining > 0 {
		p.failFor[event.ID] = remaining - 1
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, event)
	return nil
}

func testEvent(eventType string) models.OutboxEvent {
	return models.OutboxEvent{
		ID:          uuid.New(),
		EventType:   eventType,
		AggregateID: uuid.New(),
		Payload:     []byte(`{}`),
	}
}

func newTestWorker(repo *stubOutboxRepo, pub *recordingPublisher, cfg WorkerConfig) *Worker {
	return NewWorker(fakeTxRunner{}, repo, pub, cfg, clockwork.NewRealClock(), zerolog.Nop())
}

func TestProcessOncePublishesAndMarks(t *testing.T) {
	events := []models.OutboxEvent{testEvent(models.EventTradeCompleted), testEvent(models.EventDraftPick)}
	repo := &stubOutboxRepo{unsent: events}
	pub := &recordingPublisher{}

	w := newTestWorker(repo, pub, DefaultWorkerConfig())
	w.ProcessOnce(context.Background())

	if len(pub.published) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(pub.published))
	}
	if len(repo.marked) != 2 {
		t.Fatalf("expected 2 marked events, got %d", len(repo.marked))
	}
	if repo.marked[0] != events[0].ID || repo.marked[1] != events[1].ID {
		t.Fatalf("marked ids do not match published events")
	}
}

func TestProcessOnceRespectsBatchSize(t *testing.T) {
	repo := &stubOutboxRepo{unsent: []models.OutboxEvent{
		testEvent(models.EventRoleGrant),
		testEvent(models.EventRoleRevoke),
		testEvent(models.EventGameCompleted),
	}}
	pub := &recordingPublisher{}

	cfg := DefaultWorkerConfig()
	cfg.BatchSize = 2
	w := newTestWorker(repo, pub, cfg)
	w.ProcessOnce(context.Background())

	if len(pub.published) != 2 {
		t.Fatalf("expected batch of 2, got %d", len(pub.published))
	}
}

func TestFailedEventStaysUnsent(t *testing.T) {
	ok := testEvent(models.EventTradeCompleted)
	bad := testEvent(models.EventDraftStatus)
	repo := &stubOutboxRepo{unsent: []models.OutboxEvent{ok, bad}}
	pub := &recordingPublisher{failFor: map[uuid.UUID]int{bad.ID: 10}}

	cfg := DefaultWorkerConfig()
	cfg.MaxRetries = 1
	cfg.RetryDelay = time.Millisecond
	w := newTestWorker(repo, pub, cfg)
	w.ProcessOnce(context.Background())

	if len(repo.marked) != 1 || repo.marked[0] != ok.ID {
		t.Fatalf("only the delivered event should be marked sent, marked=%v", repo.marked)
	}
}

func TestPublishRetriesTransientFailure(t *testing.T) {
	ev := testEvent(models.EventGameCompleted)
	repo := &stubOutboxRepo{unsent: []models.OutboxEvent{ev}}
	pub := &recordingPublisher{failFor: map[uuid.UUID]int{ev.ID: 2}}

	cfg := DefaultWorkerConfig()
	cfg.MaxRetries = 3
	cfg.RetryDelay = time.Millisecond
	w := newTestWorker(repo, pub, cfg)
	w.ProcessOnce(context.Background())

	if len(pub.published) != 1 {
		t.Fatalf("event should publish after retries, got %d", len(pub.published))
	}
	if len(repo.marked) != 1 {
		t.Fatalf("retried event should be marked sent")
	}
}

func TestStartStop(t *testing.T) {
	repo := &stubOutboxRepo{}
	pub := &recordingPublisher{}
	clock := clockwork.NewFakeClock()
	w := NewWorker(fakeTxRunner{}, repo, pub, DefaultWorkerConfig(), clock, zerolog.Nop())

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := w.Start(context.Background()); err == nil {
		t.Fatal("second start should fail")
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := w.Stop(); err == nil {
		t.Fatal("second stop should fail")
	}
}
