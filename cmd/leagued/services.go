package main

import (
	"github.com/breakawayhl/breakaway/clients"
	"github.com/breakawayhl/breakaway/internal/audit"
	"github.com/breakawayhl/breakaway/internal/authz"
	"github.com/breakawayhl/breakaway/internal/draft"
	"github.com/breakawayhl/breakaway/internal/games"
	"github.com/breakawayhl/breakaway/internal/identity"
	"github.com/breakawayhl/breakaway/internal/leagueconfig"
	"github.com/breakawayhl/breakaway/internal/outbox"
	"github.com/breakawayhl/breakaway/internal/reports"
	"github.com/breakawayhl/breakaway/internal/roster"
	"github.com/breakawayhl/breakaway/internal/seasons"
	"github.com/breakawayhl/breakaway/internal/standings"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/breakawayhl/breakaway/internal/teams"
	"github.com/breakawayhl/breakaway/internal/trade"
	"github.com/breakawayhl/breakaway/internal/translog"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Services holds every wired engine.
type Services struct {
	Seasons   *seasons.App
	Teams     *teams.App
	Identity  *identity.App
	Roster    *roster.App
	Trade     *trade.App
	Draft     *draft.App
	Standings *standings.App
	Games     *games.App
	Reports   *reports.App
	Config    *leagueconfig.App

	OutboxRepo *outbox.Repository
	Audit      *audit.Repository
}

// BuildServices wires repositories and engines against the store.
func BuildServices(st *store.Store, cfg Config, log zerolog.Logger) *Services {
	txr := store.NewTxRunner(st.Pool)
	clock := clockwork.NewRealClock()
	auth := authz.NewStaticAuthorizer(cfg.AdminUsers, cfg.StaffUsers)

	auditRepo := audit.NewRepository(st.Pool)
	tlogRepo := translog.NewRepository(st.Pool)
	outboxRepo := outbox.NewRepository(st.Pool)
	configApp := leagueconfig.NewApp(leagueconfig.NewRepository(st.Pool), auditRepo, log)

	seasonRepo := seasons.NewRepository(st.Pool)
	teamRepo := teams.NewRepository(st.Pool)
	playerRepo := identity.NewRepository(st.Pool)
	rosterRepo := roster.NewRepository(st.Pool)
	tradeRepo := trade.NewRepository(st.Pool)
	draftRepo := draft.NewRepository(st.Pool)
	standingsRepo := standings.NewRepository(st.Pool)
	gameRepo := games.NewRepository(st.Pool)
	reportRepo := reports.NewRepository(st.Pool)

	seasonApp := seasons.NewApp(txr, seasonRepo, auditRepo, log)
	teamApp := teams.NewApp(txr, teamRepo, auditRepo, log)
	identityApp := identity.NewApp(txr, playerRepo, clients.NewRobloxClient(), auditRepo, log)
	rosterApp := roster.NewApp(txr, rosterRepo, playerRepo, teamRepo, tlogRepo, outboxRepo, configApp, auditRepo, log)
	tradeApp := trade.NewApp(txr, tradeRepo, rosterApp, rosterRepo, outboxRepo, configApp, auth, auditRepo, log)
	draftApp := draft.NewApp(txr, draftRepo, rosterApp, outboxRepo, configApp, auditRepo, clock, log)
	standingsApp := standings.NewApp(standingsRepo, configApp, log)
	gamesApp := games.NewApp(txr, gameRepo, standingsApp, outboxRepo, auditRepo, log)
	reportsApp := reports.NewApp(txr, reportRepo, teamRepo, playerRepo, gamesApp, configApp, auth, auditRepo, log)

	return &Services{
		Seasons:    seasonApp,
		Teams:      teamApp,
		Identity:   identityApp,
		Roster:     rosterApp,
		Trade:      tradeApp,
		Draft:      draftApp,
		Standings:  standingsApp,
		Games:      gamesApp,
		Reports:    reportsApp,
		Config:     configApp,
		OutboxRepo: outboxRepo,
		Audit:      auditRepo,
	}
}
