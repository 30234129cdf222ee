package routes

import (
	"testing"

	"banking-client/internal/domain"
)

func TestLookup(t *testing.T) {
	r, ok := Lookup(PathApprovals)
	if !ok {
		t.Fatal("approvals route should be declared")
	}
	if !r.Requirements.RequiresAuth || r.Requirements.RequiresRole != domain.RoleEmployee {
		t.Errorf("approvals requirements = %+v", r.Requirements)
	}

	if _, ok := Lookup("/nope"); ok {
		t.Error("unknown path should not resolve")
	}
}

func TestNavigation_UnknownPathHasEmptyRequirements(t *testing.T) {
	nav := Navigation("/nope")
	if nav.Path != "/nope" {
		t.Errorf("Path = %q", nav.Path)
	}
	if nav.Requirements != (domain.RouteRequirements{}) {
		t.Errorf("Requirements = %+v, want zero", nav.Requirements)
	}
}

func TestTable_GuestOnlyEntryPages(t *testing.T) {
	for _, path := range []string{PathLogin, PathRegister} {
		r, ok := Lookup(path)
		if !ok || !r.Requirements.RequiresGuest {
			t.Errorf("%s should be guest-only", path)
		}
	}
}

func TestTable_AwaitingApprovalAllowsPending(t *testing.T) {
	r, _ := Lookup(PathAwaitingApproval)
	if !r.Requirements.AllowPending {
		t.Error("awaiting-approval must be reachable for pending accounts")
	}
}
