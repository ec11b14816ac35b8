// Package authz defines the authorization oracle consumed by the engines.
// The role taxonomy (admin, commissioner, staff, GM) lives outside the
// core; engines only ask whether an actor holds a capability.
package authz

import (
	"errors"

	"github.com/google/uuid"
)

// ErrUnauthorized is returned when an actor lacks the required capability.
var ErrUnauthorized = errors.New("unauthorized")

// Capability names an action class that can be granted to an actor.
type Capability string

const (
	CapManageLeague   Capability = "manage_league"   // seasons, teams, config
	CapManageTeam     Capability = "manage_team"     // sign, cut, trades for a team
	CapRunDraft       Capability = "run_draft"       // draft control and picks
	CapApproveReports Capability = "approve_reports" // moderate pending reports
)

// Authorizer answers whether actor may perform cap, optionally scoped to a
// team. Implementations resolve roles in the presentation layer; the core
// only consumes the verdict.
type Authorizer interface {
	Can(actor string, cap Capability, teamID *uuid.UUID) bool
}
