package guard

import (
	"testing"

	"banking-client/internal/domain"
	"banking-client/internal/routes"
)

func testGuard() Guard {
	return New(routes.PathLogin, routes.PathAwaitingApproval, routes.PathDashboard)
}

func authedSession(role domain.Role, status domain.RegistrationStatus) domain.Session {
	return domain.Session{
		Token: "t1",
		User: &domain.UserProfile{
			ID:                 1,
			Email:              "a@x.com",
			Role:               role,
			RegistrationStatus: status,
		},
	}
}

func TestDecide_RuleOrder(t *testing.T) {
	g := testGuard()

	tests := []struct {
		name     string
		session  domain.Session
		nav      domain.NavigationRequest
		allowed  bool
		redirect string
	}{
		{
			name:     "guest_page_redirects_authenticated_user",
			session:  authedSession(domain.RoleCustomer, domain.StatusApproved),
			nav:      routes.Navigation(routes.PathLogin),
			redirect: routes.PathDashboard,
		},
		{
			name:     "auth_page_redirects_unauthenticated_user",
			session:  domain.Session{},
			nav:      routes.Navigation(routes.PathDashboard),
			redirect: routes.PathLogin,
		},
		{
			name: "stale_cached_user_without_token_is_unauthenticated",
			session: domain.Session{
				User: &domain.UserProfile{ID: 1, Role: domain.RoleEmployee, RegistrationStatus: domain.StatusApproved},
			},
			nav:      routes.Navigation(routes.PathDashboard),
			redirect: routes.PathLogin,
		},
		{
			name:     "pending_account_held_at_awaiting_approval",
			session:  authedSession(domain.RoleCustomer, domain.StatusPending),
			nav:      routes.Navigation(routes.PathDashboard),
			redirect: routes.PathAwaitingApproval,
		},
		{
			name:    "pending_account_may_see_awaiting_approval",
			session: authedSession(domain.RoleCustomer, domain.StatusPending),
			nav:     routes.Navigation(routes.PathAwaitingApproval),
			allowed: true,
		},
		{
			name:    "pending_account_may_see_allow_pending_targets",
			session: authedSession(domain.RoleCustomer, domain.StatusPending),
			nav: domain.NavigationRequest{
				Path:         "/profile",
				Requirements: domain.RouteRequirements{RequiresAuth: true, AllowPending: true},
			},
			allowed: true,
		},
		{
			name:     "approved_account_bounced_off_awaiting_approval",
			session:  authedSession(domain.RoleCustomer, domain.StatusApproved),
			nav:      routes.Navigation(routes.PathAwaitingApproval),
			redirect: routes.PathDashboard,
		},
		{
			name:     "customer_denied_employee_target",
			session:  authedSession(domain.RoleCustomer, domain.StatusApproved),
			nav:      routes.Navigation(routes.PathApprovals),
			redirect: routes.PathDashboard,
		},
		{
			name:    "employee_allowed_employee_target",
			session: authedSession(domain.RoleEmployee, domain.StatusApproved),
			nav:     routes.Navigation(routes.PathApprovals),
			allowed: true,
		},
		{
			name: "role_comparison_is_case_insensitive",
			session: domain.Session{
				Token: "t1",
				User:  &domain.UserProfile{Role: domain.Role("Employee"), RegistrationStatus: domain.StatusApproved},
			},
			nav:     routes.Navigation(routes.PathApprovals),
			allowed: true,
		},
		{
			name: "missing_role_matches_nothing",
			session: domain.Session{
				Token: "t1",
				User:  &domain.UserProfile{RegistrationStatus: domain.StatusApproved},
			},
			nav:      routes.Navigation(routes.PathApprovals),
			redirect: routes.PathDashboard,
		},
		{
			name:    "declined_account_treated_as_active",
			session: authedSession(domain.RoleCustomer, domain.StatusDeclined),
			nav:     routes.Navigation(routes.PathDashboard),
			allowed: true,
		},
		{
			name:    "legacy_account_without_status_treated_as_active",
			session: authedSession(domain.RoleCustomer, domain.StatusUnknown),
			nav:     routes.Navigation(routes.PathDashboard),
			allowed: true,
		},
		{
			name:    "unauthenticated_user_on_guest_page_allowed",
			session: domain.Session{},
			nav:     routes.Navigation(routes.PathLogin),
			allowed: true,
		},
		{
			name:    "unknown_path_allowed_for_active_session",
			session: authedSession(domain.RoleCustomer, domain.StatusApproved),
			nav:     routes.Navigation("/nowhere"),
			allowed: true,
		},
		{
			name:     "unknown_path_still_holds_pending_account",
			session:  authedSession(domain.RoleCustomer, domain.StatusPending),
			nav:      routes.Navigation("/nowhere"),
			redirect: routes.PathAwaitingApproval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.Decide(tt.session, tt.nav)
			if d.Allowed != tt.allowed {
				t.Fatalf("Allowed = %v, want %v (decision %s)", d.Allowed, tt.allowed, d)
			}
			if d.RedirectTo != tt.redirect {
				t.Errorf("RedirectTo = %q, want %q", d.RedirectTo, tt.redirect)
			}
		})
	}
}

func TestDecide_GuestCheckPrecedesPendingCheck(t *testing.T) {
	g := testGuard()

	// A pending user hitting the login page must land on the dashboard
	// via rule 1, then be held by rule 3 on the follow-up navigation,
	// not loop between the two rules in a single decision.
	d := g.Decide(authedSession(domain.RoleCustomer, domain.StatusPending), routes.Navigation(routes.PathLogin))
	if d.Allowed || d.RedirectTo != routes.PathDashboard {
		t.Errorf("decision = %s, want redirect to dashboard", d)
	}
}

func TestDecide_AuthCheckPrecedesRoleCheck(t *testing.T) {
	g := testGuard()

	// An unauthenticated session evaluated against an employee-only
	// target must hit the auth rule, never the role logic (which would
	// dereference an absent profile in a careless implementation).
	d := g.Decide(domain.Session{}, routes.Navigation(routes.PathApprovals))
	if d.RedirectTo != routes.PathLogin {
		t.Errorf("RedirectTo = %q, want %q", d.RedirectTo, routes.PathLogin)
	}
}

func TestDecide_MalformedInputsNeverPanic(t *testing.T) {
	g := testGuard()

	sessions := []domain.Session{
		{},
		{Token: "t1"}, // token without profile
		{Token: "t1", User: &domain.UserProfile{}},
		{User: &domain.UserProfile{Role: domain.Role("weird")}},
	}
	navs := []domain.NavigationRequest{
		{},
		{Path: routes.PathAwaitingApproval},
		{Path: "x", Requirements: domain.RouteRequirements{RequiresAuth: true, RequiresGuest: true}},
		{Requirements: domain.RouteRequirements{RequiresRole: domain.Role("weird")}},
	}

	for _, s := range sessions {
		for _, nav := range navs {
			_ = g.Decide(s, nav) // must not panic
		}
	}
}

func TestDecisionString(t *testing.T) {
	if got := (Decision{Allowed: true}).String(); got != "allow" {
		t.Errorf("String() = %q", got)
	}
	if got := (Decision{RedirectTo: "/login"}).String(); got != "redirect:/login" {
		t.Errorf("String() = %q", got)
	}
}
