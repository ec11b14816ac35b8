package draft

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

// memDraftRepo is an in-memory draft store for exercising the pick
// sequence.
type memDraftRepo struct {
	draft    *models.Draft
	order    []models.DraftOrderSlot
	picks    []models.DraftPick
	eligible map[uuid.UUID]bool
}

func newMemDraftRepo(seasonID uuid.UUID, rounds int) *memDraftRepo {
	return &memDraftRepo{
		draft: &models.Draft{
			ID:               uuid.New(),
			SeasonID:         seasonID,
			ScheduledAt:      time.Now(),
			TotalRounds:      rounds,
			Status:           models.DraftStatusScheduled,
			CurrentPick:      1,
			PickTimeLimitSec: 120,
		},
		eligible: make(map[uuid.UUID]bool),
	}
}

func (m *memDraftRepo) Create(ctx context.Context, q store.DBTX, seasonID uuid.UUID, scheduledAt time.Time, totalRounds, pickTimeLimitSec int) (*models.Draft, error) {
	return m.draft, nil
}

func (m *memDraftRepo) GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.Draft, error) {
	if id != m.draft.ID {
		return nil, store.ErrNotFound
	}
	cp := *m.draft
	return &cp, nil
}

func (m *memDraftRepo) SetStatus(ctx context.Context, q store.DBTX, id uuid.UUID, status models.DraftStatus) error {
	m.draft.Status = status
	return nil
}

func (m *memDraftRepo) AdvancePick(ctx context.Context, q store.DBTX, id uuid.UUID) error {
	m.draft.CurrentPick++
	return nil
}

func (m *memDraftRepo) ReplaceOrder(ctx context.Context, q store.DBTX, draftID uuid.UUID, slots []models.DraftOrderSlot) error {
	m.order = slots
	return nil
}

func (m *memDraftRepo) Order(ctx context.Context, q store.DBTX, draftID uuid.UUID) ([]models.DraftOrderSlot, error) {
	return m.order, nil
}

func (m *memDraftRepo) SlotAt(ctx context.Context, q store.DBTX, draftID uuid.UUID, pickNumber int) (*models.DraftOrderSlot, error) {
	for _, s := range m.order {
		if s.PickNumber == pickNumber {
			cp := s
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memDraftRepo) CountPicks(ctx context.Context, q store.DBTX, draftID uuid.UUID) (int, error) {
	return len(m.picks), nil
}

func (m *memDraftRepo) InsertPick(ctx context.Context, q store.DBTX, draftID uuid.UUID, slot models.DraftOrderSlot, playerID uuid.UUID, pickedBy string) (*models.DraftPick, error) {
	p := models.DraftPick{
		ID:         uuid.New(),
		DraftID:    draftID,
		PickNumber: slot.PickNumber,
		Round:      slot.Round,
		TeamID:     slot.TeamID,
		PlayerID:   playerID,
		PickedBy:   pickedBy,
	}
	m.picks = append(m.picks, p)
	return &p, nil
}

func (m *memDraftRepo) Picks(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error) {
	return m.picks, nil
}

func (m *memDraftRepo) AddEligible(ctx context.Context, q store.DBTX, draftID, playerID uuid.UUID) error {
	m.eligible[playerID] = true
	return nil
}

func (m *memDraftRepo) RemoveEligible(ctx context.Context, q store.DBTX, draftID, playerID uuid.UUID) error {
	delete(m.eligible, playerID)
	return nil
}

func (m *memDraftRepo) ListEligible(ctx context.Context, draftID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range m.eligible {
		ids = append(ids, id)
	}
	return ids, nil
}

type stubRosterEngine struct {
	signed []uuid.UUID
	err    error
}

func (s *stubRosterEngine) SignInTx(ctx context.Context, tx pgx.Tx, seasonID, playerID, teamID uuid.UUID, origin models.TransactionType, executedBy string, notes *string) (*models.RosterEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.signed = append(s.signed, playerID)
	return &models.RosterEntry{ID: uuid.New(), PlayerID: playerID, TeamID: teamID, IsActive: true}, nil
}

type stubOutbox struct {
	events []string
}

func (s *stubOutbox) Insert(ctx context.Context, q store.DBTX, eventType string, aggregateID uuid.UUID, payload any) error {
	s.events = append(s.events, eventType)
	return nil
}

type stubConfig struct{}

func (stubConfig) Int(ctx context.Context, q store.DBTX, key string, def int) int {
	return def
}

type stubAudit struct{}

func (stubAudit) Append(ctx context.Context, q store.DBTX, entityType, action string, entityID *string, actor string, oldValues, newValues any) error {
	return nil
}

type fixture struct {
	app    *App
	repo   *memDraftRepo
	engine *stubRosterEngine
	outbox *stubOutbox
	clock  *clockwork.FakeClock

	teamA uuid.UUID
	teamB uuid.UUID
}

func newFixture(t *testing.T, rounds int) *fixture {
	t.Helper()

	f := &fixture{
		repo:   newMemDraftRepo(uuid.New(), rounds),
		engine: &stubRosterEngine{},
		outbox: &stubOutbox{},
		clock:  clockwork.NewFakeClock(),
		teamA:  uuid.New(),
		teamB:  uuid.New(),
	}
	f.app = NewApp(fakeTxRunner{}, f.repo, f.engine, f.outbox, stubConfig{}, stubAudit{}, f.clock, zerolog.Nop())
	return f
}

func (f *fixture) startDraft(t *testing.T) {
	t.Helper()
	rounds := make([][]uuid.UUID, f.repo.draft.TotalRounds)
	for i := range rounds {
		rounds[i] = []uuid.UUID{f.teamA, f.teamB}
	}
	if err := f.app.SetOrder(context.Background(), f.repo.draft.ID, rounds, "admin"); err != nil {
		t.Fatalf("set order failed: %v", err)
	}
	if err := f.app.Start(context.Background(), f.repo.draft.ID, "admin"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
}

func (f *fixture) eligiblePlayer() uuid.UUID {
	id := uuid.New()
	f.repo.eligible[id] = true
	return id
}

func TestSetOrderTakesPerRoundLists(t *testing.T) {
	f := newFixture(t, 3)

	// Snake order: the second round reverses the first.
	rounds := [][]uuid.UUID{
		{f.teamA, f.teamB},
		{f.teamB, f.teamA},
		{f.teamA, f.teamB},
	}
	if err := f.app.SetOrder(context.Background(), f.repo.draft.ID, rounds, "admin"); err != nil {
		t.Fatalf("set order failed: %v", err)
	}
	if len(f.repo.order) != 6 {
		t.Fatalf("expected 6 slots for 2 teams x 3 rounds, got %d", len(f.repo.order))
	}
	for i, slot := range f.repo.order {
		if slot.PickNumber != i+1 {
			t.Fatalf("pick numbers must run sequentially across rounds, slot %d: %+v", i, slot)
		}
	}
	if f.repo.order[2].Round != 2 || f.repo.order[2].TeamID != f.teamB {
		t.Fatalf("slot 3 should open round 2 with the reversed order: %+v", f.repo.order[2])
	}
	if f.repo.order[3].Round != 2 || f.repo.order[3].TeamID != f.teamA {
		t.Fatalf("slot 4 should close round 2 with the reversed order: %+v", f.repo.order[3])
	}
}

func TestSetOrderLockedAfterPick(t *testing.T) {
	f := newFixture(t, 1)
	f.startDraft(t)

	player := f.eligiblePlayer()
	if _, err := f.app.Pick(context.Background(), f.repo.draft.ID, f.teamA, player, "gm-a"); err != nil {
		t.Fatalf("pick failed: %v", err)
	}

	err := f.app.SetOrder(context.Background(), f.repo.draft.ID, [][]uuid.UUID{{f.teamB, f.teamA}}, "admin")
	if !errors.Is(err, ErrOrderLocked) {
		t.Fatalf("expected ErrOrderLocked, got %v", err)
	}
}

func TestStartRequiresOrder(t *testing.T) {
	f := newFixture(t, 1)

	err := f.app.Start(context.Background(), f.repo.draft.ID, "admin")
	if !errors.Is(err, ErrNoOrder) {
		t.Fatalf("expected ErrNoOrder, got %v", err)
	}
}

func TestPickWrongTeam(t *testing.T) {
	f := newFixture(t, 1)
	f.startDraft(t)

	_, err := f.app.Pick(context.Background(), f.repo.draft.ID, f.teamB, f.eligiblePlayer(), "gm-b")
	if !errors.Is(err, ErrWrongTeam) {
		t.Fatalf("expected ErrWrongTeam, got %v", err)
	}
}

func TestPickOutsidePoolAccepted(t *testing.T) {
	f := newFixture(t, 1)
	f.startDraft(t)

	// The eligible pool filters display only; a pick of any player the
	// roster engine accepts is valid.
	player := uuid.New()
	pick, err := f.app.Pick(context.Background(), f.repo.draft.ID, f.teamA, player, "gm-a")
	if err != nil {
		t.Fatalf("pick outside the pool failed: %v", err)
	}
	if pick.PlayerID != player {
		t.Fatalf("unexpected pick: %+v", pick)
	}
	if len(f.engine.signed) != 1 || f.engine.signed[0] != player {
		t.Fatalf("pick should sign the player, got %v", f.engine.signed)
	}
}

func TestPickWhilePaused(t *testing.T) {
	f := newFixture(t, 1)
	f.startDraft(t)
	if err := f.app.Pause(context.Background(), f.repo.draft.ID, "admin"); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	_, err := f.app.Pick(context.Background(), f.repo.draft.ID, f.teamA, f.eligiblePlayer(), "gm-a")
	if !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("expected ErrNotInProgress, got %v", err)
	}

	// Resume keeps the same pick on the clock.
	if err := f.app.Resume(context.Background(), f.repo.draft.ID, "admin"); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if _, err := f.app.Pick(context.Background(), f.repo.draft.ID, f.teamA, f.eligiblePlayer(), "gm-a"); err != nil {
		t.Fatalf("pick after resume failed: %v", err)
	}
}

func TestPickAdvancesAndSigns(t *testing.T) {
	f := newFixture(t, 1)
	f.startDraft(t)

	player := f.eligiblePlayer()
	pick, err := f.app.Pick(context.Background(), f.repo.draft.ID, f.teamA, player, "gm-a")
	if err != nil {
		t.Fatalf("pick failed: %v", err)
	}
	if pick.PickNumber != 1 || pick.TeamID != f.teamA {
		t.Fatalf("unexpected pick: %+v", pick)
	}
	if len(f.engine.signed) != 1 || f.engine.signed[0] != player {
		t.Fatalf("pick should sign the player, got %v", f.engine.signed)
	}
	if f.repo.draft.CurrentPick != 2 {
		t.Fatalf("clock should advance to pick 2, got %d", f.repo.draft.CurrentPick)
	}
	if f.repo.eligible[player] {
		t.Fatalf("picked player should leave the eligible pool")
	}
	if len(f.outbox.events) == 0 || f.outbox.events[len(f.outbox.events)-1] != models.EventDraftPick {
		t.Fatalf("expected draft pick event, got %v", f.outbox.events)
	}
}

func TestLastPickCompletesDraft(t *testing.T) {
	f := newFixture(t, 1)
	f.startDraft(t)

	if _, err := f.app.Pick(context.Background(), f.repo.draft.ID, f.teamA, f.eligiblePlayer(), "gm-a"); err != nil {
		t.Fatalf("first pick failed: %v", err)
	}
	if _, err := f.app.Pick(context.Background(), f.repo.draft.ID, f.teamB, f.eligiblePlayer(), "gm-b"); err != nil {
		t.Fatalf("second pick failed: %v", err)
	}

	if f.repo.draft.Status != models.DraftStatusCompleted {
		t.Fatalf("draft should complete after the last pick, got %s", f.repo.draft.Status)
	}

	_, err := f.app.Pick(context.Background(), f.repo.draft.ID, f.teamA, f.eligiblePlayer(), "gm-a")
	if !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("completed draft should reject picks, got %v", err)
	}
}

func TestFailedSignAbortsPick(t *testing.T) {
	f := newFixture(t, 1)
	f.startDraft(t)
	f.engine.err = errors.New("already rostered")

	// The error must surface so the real transaction runner rolls the
	// whole pick back.
	if _, err := f.app.Pick(context.Background(), f.repo.draft.ID, f.teamA, f.eligiblePlayer(), "gm-a"); err == nil {
		t.Fatalf("expected pick to fail")
	}
}

func TestInvalidTransitions(t *testing.T) {
	f := newFixture(t, 1)

	if err := f.app.Pause(context.Background(), f.repo.draft.ID, "admin"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pausing a scheduled draft should fail, got %v", err)
	}
	if err := f.app.Resume(context.Background(), f.repo.draft.ID, "admin"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("resuming a scheduled draft should fail, got %v", err)
	}
}
