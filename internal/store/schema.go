package store

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Default league configuration, seeded once. Values are strings because the
// config surface is a flat key -> string mapping.
var defaultConfig = [][3]string{
	{"roster_size_min", "8", "Minimum roster size"},
	{"roster_size_max", "15", "Maximum roster size"},
	{"trades_enabled", "true", "Whether trades are currently allowed"},
	{"signings_enabled", "true", "Whether free agent signings are allowed"},
	{"draft_pick_time", "120", "Default draft pick time in seconds"},
	{"points_win", "2", "Points awarded for a win"},
	{"points_otl", "1", "Points awarded for an overtime/shootout loss"},
	{"points_loss", "0", "Points awarded for a regulation loss"},
	{"playoff_teams", "8", "Number of teams that make playoffs"},
	{"regular_season_games", "24", "Games each team plays in regular season"},
	{"auto_assign_roles", "true", "Sync chat roles on roster changes"},
	{"ingame_reporting_enabled", "true", "Whether in-game score reporting is enabled"},
	{"require_staff_approval", "true", "Whether in-game reports need staff approval"},
	{"league_name", "Breakaway Hockey League", "Full league name"},
	{"league_abbreviation", "BHL", "League abbreviation"},
}

// Bootstrap applies the schema and seeds default config keys that are not
// already present. Safe to run on every startup.
func (s *Store) Bootstrap(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	for _, kv := range defaultConfig {
		_, err := s.Pool.Exec(ctx, `
			INSERT INTO config (key, value, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (key) DO NOTHING
		`, kv[0], kv[1], kv[2])
		if err != nil {
			return fmt.Errorf("seed config %s: %w", kv[0], err)
		}
	}
	return nil
}
