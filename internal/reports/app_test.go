package reports

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/breakawayhl/breakaway/internal/authz"
	"github.com/breakawayhl/breakaway/internal/games"
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

type memReportRepo struct {
	reports map[uuid.UUID]*models.PendingReport
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{reports: make(map[uuid.UUID]*models.PendingReport)}
}

func (m *memReportRepo) Create(ctx context.Context, q store.DBTX, p CreateReportParams) (*models.PendingReport, error) {
	r := &models.PendingReport{
		ID:             uuid.New(),
		GameID:         p.GameID,
		ExternalGameID: p.ExternalGameID,
		HomeTeamID:     p.HomeTeamID,
		AwayTeamID:     p.AwayTeamID,
		HomeScore:      p.HomeScore,
		AwayScore:      p.AwayScore,
		Overtime:       p.Overtime,
		Shootout:       p.Shootout,
		PlayerStats:    p.PlayerStats,
		Status:         models.ReportStatusPending,
	}
	m.reports[r.ID] = r
	return r, nil
}

func (m *memReportRepo) GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.PendingReport, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memReportRepo) Resolve(ctx context.Context, q store.DBTX, id uuid.UUID, status models.ReportStatus, reviewedBy string) error {
	r, ok := m.reports[id]
	if !ok || r.Status != models.ReportStatusPending {
		return store.ErrNotFound
	}
	r.Status = status
	r.ReviewedBy = &reviewedBy
	return nil
}

func (m *memReportRepo) ListPending(ctx context.Context) ([]models.PendingReport, error) {
	var out []models.PendingReport
	for _, r := range m.reports {
		if r.Status == models.ReportStatusPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

type stubTeams struct {
	byAbbr map[string]*models.Team
}

func (s stubTeams) GetByAbbreviation(ctx context.Context, abbr string) (*models.Team, error) {
	t, ok := s.byAbbr[abbr]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

type stubPlayers struct {
	byRoblox map[string]*models.Player
}

func (s stubPlayers) GetByRobloxUser(ctx context.Context, robloxUserID string) (*models.Player, error) {
	p, ok := s.byRoblox[robloxUserID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

type stubGameEngine struct {
	scheduled *models.Game
	completed []games.CompleteParams
	findErr   error
}

func (s *stubGameEngine) FindScheduledMatch(ctx context.Context, q store.DBTX, seasonID, homeTeamID, awayTeamID uuid.UUID) (*models.Game, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.scheduled == nil || s.scheduled.HomeTeamID != homeTeamID || s.scheduled.AwayTeamID != awayTeamID {
		return nil, store.ErrNotFound
	}
	return s.scheduled, nil
}

func (s *stubGameEngine) CompleteInTx(ctx context.Context, tx pgx.Tx, gameID uuid.UUID, p games.CompleteParams, actor string) (*models.Game, error) {
	s.completed = append(s.completed, p)
	g := *s.scheduled
	g.Status = models.GameStatusCompleted
	g.HomeScore = &p.HomeScore
	g.AwayScore = &p.AwayScore
	return &g, nil
}

type stubConfig struct {
	bools map[string]bool
}

func (s stubConfig) Bool(ctx context.Context, q store.DBTX, key string, def bool) bool {
	if v, ok := s.bools[key]; ok {
		return v
	}
	return def
}

type stubAuth struct {
	staff map[string]bool
}

func (s stubAuth) Can(actor string, cap authz.Capability, teamID *uuid.UUID) bool {
	return s.staff[actor]
}

type stubAudit struct{}

func (stubAudit) Append(ctx context.Context, q store.DBTX, entityType, action string, entityID *string, actor string, oldValues, newValues any) error {
	return nil
}

type fixture struct {
	app    *App
	repo   *memReportRepo
	engine *stubGameEngine

	seasonID uuid.UUID
	home     *models.Team
	away     *models.Team
}

func newFixture(t *testing.T, cfg stubConfig) *fixture {
	t.Helper()

	f := &fixture{
		repo:     newMemReportRepo(),
		seasonID: uuid.New(),
		home:     &models.Team{ID: uuid.New(), Abbreviation: "ICE"},
		away:     &models.Team{ID: uuid.New(), Abbreviation: "FRZ"},
	}
	f.engine = &stubGameEngine{scheduled: &models.Game{
		ID:         uuid.New(),
		SeasonID:   f.seasonID,
		HomeTeamID: f.home.ID,
		AwayTeamID: f.away.ID,
		GameType:   models.GameTypeRegular,
		Status:     models.GameStatusScheduled,
	}}

	teams := stubTeams{byAbbr: map[string]*models.Team{"ICE": f.home, "FRZ": f.away}}
	players := stubPlayers{byRoblox: map[string]*models.Player{}}
	auth := stubAuth{staff: map[string]bool{"mod-1": true}}

	f.app = NewApp(fakeTxRunner{}, f.repo, teams, players, f.engine, cfg, auth, stubAudit{}, zerolog.Nop())
	return f
}

func submitParams(f *fixture) SubmitParams {
	return SubmitParams{
		SeasonID:       f.seasonID,
		ExternalGameID: "roblox-123",
		HomeTeamAbbr:   "ICE",
		AwayTeamAbbr:   "FRZ",
		HomeScore:      4,
		AwayScore:      2,
	}
}

func TestSubmitStagesPendingReport(t *testing.T) {
	f := newFixture(t, stubConfig{})

	report, err := f.app.Submit(context.Background(), submitParams(f))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if report.Status != models.ReportStatusPending {
		t.Fatalf("expected pending, got %s", report.Status)
	}
	if report.GameID == nil || *report.GameID != f.engine.scheduled.ID {
		t.Fatalf("report should match the scheduled game")
	}
	if len(f.engine.completed) != 0 {
		t.Fatalf("submission must not complete the game directly")
	}
}

func TestSubmitUnknownTeam(t *testing.T) {
	f := newFixture(t, stubConfig{})

	p := submitParams(f)
	p.AwayTeamAbbr = "XXX"
	if _, err := f.app.Submit(context.Background(), p); !errors.Is(err, ErrUnknownTeam) {
		t.Fatalf("expected ErrUnknownTeam, got %v", err)
	}
}

func TestSubmitReportingDisabled(t *testing.T) {
	f := newFixture(t, stubConfig{bools: map[string]bool{"ingame_reporting_enabled": false}})

	if _, err := f.app.Submit(context.Background(), submitParams(f)); !errors.Is(err, ErrReportingDisabled) {
		t.Fatalf("expected ErrReportingDisabled, got %v", err)
	}
}

func TestSubmitWithoutMatchStillStages(t *testing.T) {
	f := newFixture(t, stubConfig{})
	f.engine.scheduled = &models.Game{
		ID:         uuid.New(),
		SeasonID:   f.seasonID,
		HomeTeamID: uuid.New(),
		AwayTeamID: uuid.New(),
	}

	report, err := f.app.Submit(context.Background(), submitParams(f))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if report.GameID != nil {
		t.Fatalf("unmatched report should have no game id")
	}
}

func TestAutoApproveWhenNotRequired(t *testing.T) {
	f := newFixture(t, stubConfig{bools: map[string]bool{"require_staff_approval": false}})

	report, err := f.app.Submit(context.Background(), submitParams(f))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(f.engine.completed) != 1 {
		t.Fatalf("auto-approval should complete the game")
	}
	after, _ := f.repo.GetByID(context.Background(), nil, report.ID)
	if after.Status != models.ReportStatusApproved {
		t.Fatalf("expected approved, got %s", after.Status)
	}
}

func TestApproveCompletesGame(t *testing.T) {
	f := newFixture(t, stubConfig{})
	report, _ := f.app.Submit(context.Background(), submitParams(f))

	game, err := f.app.Approve(context.Background(), report.ID, f.seasonID, "mod-1")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if game.Status != models.GameStatusCompleted {
		t.Fatalf("expected completed game, got %s", game.Status)
	}
	if len(f.engine.completed) != 1 || f.engine.completed[0].HomeScore != 4 {
		t.Fatalf("unexpected completion params: %+v", f.engine.completed)
	}

	// Second approval of the same report must fail.
	if _, err := f.app.Approve(context.Background(), report.ID, f.seasonID, "mod-1"); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestApproveRequiresCapability(t *testing.T) {
	f := newFixture(t, stubConfig{})
	report, _ := f.app.Submit(context.Background(), submitParams(f))

	if _, err := f.app.Approve(context.Background(), report.ID, f.seasonID, "rando"); !errors.Is(err, authz.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRejectLeavesGameUntouched(t *testing.T) {
	f := newFixture(t, stubConfig{})
	report, _ := f.app.Submit(context.Background(), submitParams(f))

	if err := f.app.Reject(context.Background(), report.ID, "mod-1", "scores look wrong"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if len(f.engine.completed) != 0 {
		t.Fatalf("rejection must not complete the game")
	}
	after, _ := f.repo.GetByID(context.Background(), nil, report.ID)
	if after.Status != models.ReportStatusRejected {
		t.Fatalf("expected rejected, got %s", after.Status)
	}
}

func TestApprovePassesPlayerStats(t *testing.T) {
	f := newFixture(t, stubConfig{})

	playerID := uuid.New()
	f.app.players = stubPlayers{byRoblox: map[string]*models.Player{
		"rbx-9": {ID: playerID, ChatUserID: "user-9", Verified: true},
	}}

	stats, _ := json.Marshal([]ReportedPlayerStats{
		{RobloxUserID: "rbx-9", TeamAbbr: "ICE", Goals: 2, Assists: 1},
		{RobloxUserID: "rbx-unknown", TeamAbbr: "FRZ", Goals: 1},
	})
	p := submitParams(f)
	p.PlayerStats = stats

	report, err := f.app.Submit(context.Background(), p)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := f.app.Approve(context.Background(), report.ID, f.seasonID, "mod-1"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	got := f.engine.completed[0].PlayerStats
	if len(got) != 1 {
		t.Fatalf("unknown players should be skipped, got %d lines", len(got))
	}
	if got[0].PlayerID != playerID || got[0].Goals != 2 {
		t.Fatalf("unexpected stats line: %+v", got[0])
	}
}
