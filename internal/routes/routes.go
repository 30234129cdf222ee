// Package routes declares the navigable targets of the banking client
// and the access requirements each one carries.
package routes

import "banking-client/internal/domain"

const (
	PathLogin            = "/login"
	PathRegister         = "/register"
	PathDashboard        = "/dashboard"
	PathAccounts         = "/accounts"
	PathTransfers        = "/transfers"
	PathATM              = "/atm"
	PathAwaitingApproval = "/awaiting-approval"
	PathApprovals        = "/approvals"
)

// Route pairs a path with its static requirement set.
type Route struct {
	Path         string
	Requirements domain.RouteRequirements
}

var table = []Route{
	{Path: PathLogin, Requirements: domain.RouteRequirements{RequiresGuest: true}},
	{Path: PathRegister, Requirements: domain.RouteRequirements{RequiresGuest: true}},
	{Path: PathDashboard, Requirements: domain.RouteRequirements{RequiresAuth: true}},
	{Path: PathAccounts, Requirements: domain.RouteRequirements{RequiresAuth: true}},
	{Path: PathTransfers, Requirements: domain.RouteRequirements{RequiresAuth: true}},
	{Path: PathATM, Requirements: domain.RouteRequirements{RequiresAuth: true}},
	{Path: PathAwaitingApproval, Requirements: domain.RouteRequirements{RequiresAuth: true, AllowPending: true}},
	{Path: PathApprovals, Requirements: domain.RouteRequirements{RequiresAuth: true, RequiresRole: domain.RoleEmployee}},
}

// Table returns a copy of the route table.
func Table() []Route {
	out := make([]Route, len(table))
	copy(out, table)
	return out
}

// Lookup finds a declared route by path.
func Lookup(path string) (Route, bool) {
	for _, r := range table {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Navigation builds the navigation request for a path. Unknown paths
// carry empty requirements; the guard still applies the session-wide
// rules to them.
func Navigation(path string) domain.NavigationRequest {
	if r, ok := Lookup(path); ok {
		return domain.NavigationRequest{Path: r.Path, Requirements: r.Requirements}
	}
	return domain.NavigationRequest{Path: path}
}
