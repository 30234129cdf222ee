// Package guard decides whether a navigation attempt proceeds, given a
// session snapshot and the target's declared requirements. Decide is a
// pure function: it never mutates the session and never errors.
// Every input, however malformed, maps to a decision.
package guard

import "banking-client/internal/domain"

// Decision is the outcome of evaluating one navigation attempt.
type Decision struct {
	Allowed    bool
	RedirectTo string // set only when not allowed
}

// String renders the decision for logs and metrics labels.
func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	return "redirect:" + d.RedirectTo
}

// Guard evaluates navigation attempts. The three paths are the fixed
// redirect targets of the decision rules.
type Guard struct {
	LoginPath   string
	PendingPath string
	HomePath    string
}

// New creates a guard redirecting to the given login, awaiting-approval
// and default landing paths.
func New(loginPath, pendingPath, homePath string) Guard {
	return Guard{
		LoginPath:   loginPath,
		PendingPath: pendingPath,
		HomePath:    homePath,
	}
}

// Decide evaluates the rules in precedence order; the first match wins.
// Guest and auth checks run before the pending/role checks so an
// unauthenticated session is never evaluated against rules that assume
// a profile exists.
func (g Guard) Decide(s domain.Session, nav domain.NavigationRequest) Decision {
	authed := s.Authenticated()
	req := nav.Requirements

	// 1. Authenticated users do not re-see guest-only pages.
	if req.RequiresGuest && authed {
		return redirect(g.HomePath)
	}

	// 2. Unauthenticated sessions go to login, whatever the cached
	// profile claims.
	if req.RequiresAuth && !authed {
		return redirect(g.LoginPath)
	}

	// 3. A pending account only ever sees the holding page.
	if authed && s.User != nil &&
		s.User.RegistrationStatus == domain.StatusPending &&
		nav.Path != g.PendingPath && !req.AllowPending {
		return redirect(g.PendingPath)
	}

	// 4. An approved account has no business on the holding page.
	if authed && s.User != nil &&
		s.User.RegistrationStatus == domain.StatusApproved &&
		nav.Path == g.PendingPath {
		return redirect(g.HomePath)
	}

	// 5. Wrong or missing role is a soft denial to a safe default, not
	// an error page.
	if req.RequiresRole != domain.RoleUnknown {
		if s.User == nil || !s.User.Role.Matches(req.RequiresRole) {
			return redirect(g.HomePath)
		}
	}

	return Decision{Allowed: true}
}

func redirect(path string) Decision {
	return Decision{RedirectTo: path}
}
