package domain

// RouteRequirements is the static access declaration a navigable target
// carries. All fields default to "no requirement".
type RouteRequirements struct {
	RequiresAuth  bool `json:"requiresAuth,omitempty"`
	RequiresGuest bool `json:"requiresGuest,omitempty"`
	// RequiresRole is RoleUnknown when the target has no role
	// requirement.
	RequiresRole Role `json:"requiresRole,omitempty"`
	// AllowPending lets an account awaiting approval reach the target.
	AllowPending bool `json:"allowPending,omitempty"`
}

// NavigationRequest describes one attempted route transition. It is
// constructed per attempt by the routing layer and only ever read by
// the guard.
type NavigationRequest struct {
	Path         string
	Requirements RouteRequirements
}
