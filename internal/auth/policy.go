package auth

import (
	"net/http"
	"strings"
)

const (
	RouteReports    = "/api/v1/reports"
	RouteCategories = "/api/v1/categories"
)

// routeRoles maps report API routes to the role each method requires.
var routeRoles = map[string]map[string]Role{
	RouteReports: {
		http.MethodPost: RoleOperator,
	},
	RouteCategories: {
		http.MethodGet:  RoleViewer,
		http.MethodHead: RoleViewer,
	},
}

// Policy decides which requests need a token and which role they need.
type Policy struct {
	ExemptPaths map[string]struct{}
}

// NewPolicy builds a policy; exempt paths (health, metrics) skip auth entirely.
func NewPolicy(exemptPaths ...string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set}
}

// IsExempt returns true when a request should skip auth.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	_, ok := p.ExemptPaths[r.URL.Path]
	return ok
}

// RequiredRole resolves the role a request needs. Unlisted methods on a
// report route and any other /api/ path fall back to operator for writes and
// viewer for reads; paths outside /api/ need no role.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	if methods, ok := routeRoles[r.URL.Path]; ok {
		if role, ok := methods[r.Method]; ok {
			return role, true
		}
	}
	if !strings.HasPrefix(r.URL.Path, "/api/") {
		return "", false
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return RoleViewer, true
	default:
		return RoleOperator, true
	}
}
