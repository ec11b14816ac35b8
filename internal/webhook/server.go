package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/reports"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReportGate is the slice of the report engine the ingest server calls.
type ReportGate interface {
	Submit(ctx context.Context, p reports.SubmitParams) (*models.PendingReport, error)
}

type SeasonSource interface {
	GetActive(ctx context.Context) (*models.Season, error)
}

type StandingsSource interface {
	Table(ctx context.Context, seasonID uuid.UUID) ([]models.StandingsRow, error)
}

// Server is the HTTP ingest surface for the Roblox game server. Every
// request except /health must carry a valid body signature.
type Server struct {
	reports   ReportGate
	seasons   SeasonSource
	standings StandingsSource
	secret    string
	log       zerolog.Logger
}

func NewServer(reports ReportGate, seasons SeasonSource, standings StandingsSource, secret string, log zerolog.Logger) *Server {
	return &Server{
		reports:   reports,
		seasons:   seasons,
		standings: standings,
		secret:    secret,
		log:       log.With().Str("component", "webhook").Logger(),
	}
}

// Router builds the chi router with the signature middleware applied.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(RequireSignature(s.secret))

	r.Get("/health", s.handleHealth)
	r.Post("/game/report", s.handleGameReport)
	r.Get("/standings", s.handleStandings)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// gameReportPayload is the wire format the game server posts.
type gameReportPayload struct {
	RobloxGameID string          `json:"roblox_game_id"`
	HomeTeamAbbr string          `json:"home_team_abbr"`
	AwayTeamAbbr string          `json:"away_team_abbr"`
	HomeScore    int             `json:"home_score"`
	AwayScore    int             `json:"away_score"`
	Overtime     bool            `json:"overtime"`
	Shootout     bool            `json:"shootout"`
	PlayerStats  json.RawMessage `json:"player_stats,omitempty"`
}

func (s *Server) handleGameReport(w http.ResponseWriter, r *http.Request) {
	var payload gameReportPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if payload.RobloxGameID == "" || payload.HomeTeamAbbr == "" || payload.AwayTeamAbbr == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	season, err := s.seasons.GetActive(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusConflict, "no_active_season")
			return
		}
		s.log.Error().Err(err).Msg("failed to load active season")
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	report, err := s.reports.Submit(r.Context(), reports.SubmitParams{
		SeasonID:       season.ID,
		ExternalGameID: payload.RobloxGameID,
		HomeTeamAbbr:   payload.HomeTeamAbbr,
		AwayTeamAbbr:   payload.AwayTeamAbbr,
		HomeScore:      payload.HomeScore,
		AwayScore:      payload.AwayScore,
		Overtime:       payload.Overtime,
		Shootout:       payload.Shootout,
		PlayerStats:    payload.PlayerStats,
	})
	if err != nil {
		switch {
		case errors.Is(err, reports.ErrReportingDisabled):
			writeError(w, http.StatusForbidden, "reporting_disabled")
		case errors.Is(err, reports.ErrUnknownTeam):
			writeError(w, http.StatusBadRequest, "unknown_team")
		default:
			s.log.Error().Err(err).Msg("failed to stage game report")
			writeError(w, http.StatusInternalServerError, "internal_error")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"report_id": report.ID,
		"status":    report.Status,
	})
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	season, err := s.seasons.GetActive(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusConflict, "no_active_season")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	table, err := s.standings.Table(r.Context(), season.ID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load standings")
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": table})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"error": code})
}
