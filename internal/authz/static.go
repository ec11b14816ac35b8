package authz

import (
	"github.com/google/uuid"
)

// StaticAuthorizer grants capabilities from fixed user-id lists, loaded from
// the environment at startup. Admins hold every capability; staff hold
// report moderation and draft control.
type StaticAuthorizer struct {
	admins map[string]bool
	staff  map[string]bool
}

func NewStaticAuthorizer(adminIDs, staffIDs []string) *StaticAuthorizer {
	a := &StaticAuthorizer{
		admins: make(map[string]bool, len(adminIDs)),
		staff:  make(map[string]bool, len(staffIDs)),
	}
	for _, id := range adminIDs {
		if id != "" {
			a.admins[id] = true
		}
	}
	for _, id := range staffIDs {
		if id != "" {
			a.staff[id] = true
		}
	}
	return a
}

func (a *StaticAuthorizer) Can(actor string, cap Capability, teamID *uuid.UUID) bool {
	if a.admins[actor] {
		return true
	}
	switch cap {
	case CapApproveReports, CapRunDraft:
		return a.staff[actor]
	default:
		return false
	}
}
