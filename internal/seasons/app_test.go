package seasons

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type memSeasonRepo struct {
	seasons map[uuid.UUID]*models.Season
}

func newMemSeasonRepo() *memSeasonRepo {
	return &memSeasonRepo{seasons: make(map[uuid.UUID]*models.Season)}
}

func (m *memSeasonRepo) Create(ctx context.Context, q store.DBTX, name string, startDate time.Time) (*models.Season, error) {
	s := &models.Season{ID: uuid.New(), Name: name, StartDate: startDate, IsActive: true}
	m.seasons[s.ID] = s
	return s, nil
}

func (m *memSeasonRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Season, error) {
	s, ok := m.seasons[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (m *memSeasonRepo) GetActive(ctx context.Context) (*models.Season, error) {
	for _, s := range m.seasons {
		if s.IsActive {
			return s, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memSeasonRepo) End(ctx context.Context, q store.DBTX, id uuid.UUID) error {
	s, ok := m.seasons[id]
	if !ok {
		return store.ErrNotFound
	}
	s.IsActive = false
	return nil
}

type stubAudit struct{}

func (stubAudit) Append(ctx context.Context, q store.DBTX, entityType, action string, entityID *string, actor string, oldValues, newValues any) error {
	return nil
}

func newTestApp(repo *memSeasonRepo) *App {
	return NewApp(fakeTxRunner{}, repo, stubAudit{}, zerolog.Nop())
}

func TestOnlyOneActiveSeason(t *testing.T) {
	app := newTestApp(newMemSeasonRepo())
	start := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	first, err := app.Create(context.Background(), "Season 5", start, "admin-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := app.Create(context.Background(), "Season 6", start, "admin-1"); !errors.Is(err, ErrActiveSeasonExists) {
		t.Fatalf("expected ErrActiveSeasonExists, got %v", err)
	}

	if err := app.End(context.Background(), first.ID, "admin-1"); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if _, err := app.GetActive(context.Background()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected no active season, got %v", err)
	}

	second, err := app.Create(context.Background(), "Season 6", start, "admin-1")
	if err != nil {
		t.Fatalf("create after end failed: %v", err)
	}

	active, err := app.GetActive(context.Background())
	if err != nil {
		t.Fatalf("get active failed: %v", err)
	}
	if active.ID != second.ID {
		t.Fatalf("expected %s active, got %s", second.ID, active.ID)
	}
}
