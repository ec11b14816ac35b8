package authz

import "testing"

func TestStaticAuthorizer(t *testing.T) {
	a := NewStaticAuthorizer([]string{"admin-1", ""}, []string{"staff-1"})

	cases := []struct {
		actor string
		cap   Capability
		want  bool
	}{
		{"admin-1", CapManageLeague, true},
		{"admin-1", CapManageTeam, true},
		{"admin-1", CapRunDraft, true},
		{"admin-1", CapApproveReports, true},
		{"staff-1", CapApproveReports, true},
		{"staff-1", CapRunDraft, true},
		{"staff-1", CapManageLeague, false},
		{"staff-1", CapManageTeam, false},
		{"rando", CapApproveReports, false},
		{"", CapManageLeague, false},
	}
	for _, c := range cases {
		if got := a.Can(c.actor, c.cap, nil); got != c.want {
			t.Errorf("Can(%q, %s) = %v, want %v", c.actor, c.cap, got, c.want)
		}
	}
}
