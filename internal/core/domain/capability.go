package domain

import "strings"

// Capability tokens are page/action paths.
const (
	CapabilityDashboard     = "/dashboard"
	CapabilityProjects      = "/projects"
	CapabilityTasks         = "/tasks"
	CapabilityReviews       = "/reviews"
	CapabilityRequests      = "/requests"
	CapabilityQuotes        = "/quotes"
	CapabilityPayments      = "/payments"
	CapabilityUsers         = "/users"
	CapabilityRoles         = "/cargos"
	CapabilityNotifications = "/notifications"

	// DefaultCapability is the landing page for a user whose role grants nothing.
	DefaultCapability = CapabilityDashboard
	// LoginCapability is returned when there is no authenticated user.
	LoginCapability = "/login"
)

// legacyCapabilities is the single name→capabilities table used when a role
// carries no explicit page list. The first entry is the landing page.
var legacyCapabilities = map[string][]string{
	RoleDiretor: {
		CapabilityDashboard, CapabilityProjects, CapabilityTasks, CapabilityReviews,
		CapabilityRequests, CapabilityQuotes, CapabilityPayments, CapabilityUsers, CapabilityRoles,
	},
	RoleGM: {
		CapabilityDashboard, CapabilityProjects, CapabilityTasks, CapabilityReviews,
		CapabilityRequests, CapabilityQuotes, CapabilityPayments, CapabilityUsers,
	},
	RoleSupervisor: {
		CapabilityDashboard, CapabilityProjects, CapabilityTasks, CapabilityReviews, CapabilityRequests,
	},
	RoleExecutor: {CapabilityTasks, CapabilityProjects, CapabilityRequests},
	RoleCotador:  {CapabilityQuotes, CapabilityRequests},
	RolePagador:  {CapabilityPayments, CapabilityRequests},
}

// ResolveCapabilities returns the role's explicit page list verbatim when it
// has one, otherwise the legacy table entry for its name. Unknown names
// resolve to an empty list. The result is always a fresh slice.
func ResolveCapabilities(role Role) []string {
	if len(role.AllowedPages) > 0 {
		return append([]string(nil), role.AllowedPages...)
	}
	caps := legacyCapabilities[strings.ToUpper(strings.TrimSpace(role.Name))]
	return append([]string{}, caps...)
}

// FirstAllowedCapability returns the landing capability for u.
func FirstAllowedCapability(u *User) string {
	if u == nil {
		return LoginCapability
	}
	return landing(ResolveCapabilities(u.Role))
}

// HasCapability reports whether u's role grants path.
func HasCapability(u *User, path string) bool {
	if u == nil {
		return false
	}
	return Grants(ResolveCapabilities(u.Role), path)
}

// Grants reports whether caps allow path. A path under a granted collection
// ("/projects/42" under "/projects") is granted too.
func Grants(caps []string, path string) bool {
	p := normalizePath(path)
	if p == "" {
		return false
	}
	for _, c := range caps {
		c = normalizePath(c)
		if c == "" {
			continue
		}
		if p == c || strings.HasPrefix(p, c+"/") {
			return true
		}
	}
	return false
}

func landing(caps []string) string {
	if len(caps) == 0 {
		return DefaultCapability
	}
	return caps[0]
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
