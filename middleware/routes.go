package middleware

import "strings"

// RouteClass is the access policy a path falls under.
type RouteClass uint8

const (
	RoutePublic RouteClass = iota
	RouteProtected
	RouteRoleRestricted
	RouteAuthOnly
)

func (c RouteClass) String() string {
	switch c {
	case RoutePublic:
		return "public"
	case RouteProtected:
		return "protected"
	case RouteRoleRestricted:
		return "role_restricted"
	case RouteAuthOnly:
		return "auth_only"
	default:
		return "unknown"
	}
}

// RouteTable is the static route policy applied by [Gate]. Prefixes match
// whole path segments: "/cart" matches "/cart" and "/cart/items" but not
// "/cartography".
type RouteTable struct {
	// Bypass prefixes are never gated (API proxies, static assets).
	Bypass []string
	// RoleRestricted prefixes require the admin role.
	RoleRestricted []string
	// Protected prefixes require a session.
	Protected []string
	// StoreOnly prefixes are shopper surfaces an admin is sent away from.
	StoreOnly []string
	// AuthOnly paths (exact match) are for signed-out visitors.
	AuthOnly []string

	ShopperHome string
	AdminHome   string
	SignIn      string
}

// DefaultRouteTable returns the storefront's route policy.
func DefaultRouteTable() RouteTable {
	return RouteTable{
		Bypass:         []string{"/api", "/static", "/favicon.ico", "/healthz", "/metrics"},
		RoleRestricted: []string{"/admin"},
		Protected:      []string{"/account", "/orders", "/checkout", "/wishlist", "/prebook", "/cart"},
		StoreOnly:      []string{"/cart", "/orders", "/checkout", "/wishlist", "/prebook", "/account"},
		AuthOnly:       []string{"/login", "/register"},
		ShopperHome:    "/",
		AdminHome:      "/admin/overview",
		SignIn:         "/login",
	}
}

// Classify returns the class of path. Role-restricted prefixes are checked
// before protected ones.
func (t RouteTable) Classify(path string) RouteClass {
	switch {
	case matchAny(path, t.Bypass):
		return RoutePublic
	case matchAny(path, t.RoleRestricted):
		return RouteRoleRestricted
	case matchAny(path, t.Protected):
		return RouteProtected
	}
	for _, p := range t.AuthOnly {
		if path == p {
			return RouteAuthOnly
		}
	}
	return RoutePublic
}

// isStoreOnly reports whether path is a shopper-only surface.
func (t RouteTable) isStoreOnly(path string) bool {
	return !matchAny(path, t.Bypass) && matchAny(path, t.StoreOnly)
}

// passesSignedOut reports whether a signed-out request for path is served
// rather than redirected: bypassed prefixes, auth-only pages and the
// sign-in page.
func (t RouteTable) passesSignedOut(path string) bool {
	if path == t.SignIn || matchAny(path, t.Bypass) {
		return true
	}
	return t.Classify(path) == RouteAuthOnly
}

func matchAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if hasSegmentPrefix(path, p) {
			return true
		}
	}
	return false
}

func hasSegmentPrefix(path, prefix string) bool {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return false
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
