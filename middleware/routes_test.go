package middleware

import "testing"

func TestClassify(t *testing.T) {
	table := DefaultRouteTable()

	tests := []struct {
		path string
		want RouteClass
	}{
		{"/", RoutePublic},
		{"/products/42", RoutePublic},
		{"/admin", RouteRoleRestricted},
		{"/admin/overview", RouteRoleRestricted},
		{"/administrator", RoutePublic},
		{"/account", RouteProtected},
		{"/cart/items", RouteProtected},
		{"/cartography", RoutePublic},
		{"/login", RouteAuthOnly},
		{"/login/help", RoutePublic},
		{"/register", RouteAuthOnly},
		{"/api/orders", RoutePublic},
	}

	for _, tc := range tests {
		if got := table.Classify(tc.path); got != tc.want {
			t.Fatalf("Classify(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestSignInWithCallback(t *testing.T) {
	table := DefaultRouteTable()
	if got := table.signInWithCallback("/account"); got != "/login?callbackUrl=/account" {
		t.Fatalf("unexpected callback url %q", got)
	}
	if got := table.signInWithCallback("/orders/a b"); got != "/login?callbackUrl=/orders/a+b" {
		t.Fatalf("unexpected escaped callback url %q", got)
	}
}

func TestIsStoreOnly(t *testing.T) {
	table := DefaultRouteTable()

	tests := []struct {
		path string
		want bool
	}{
		{"/cart", true},
		{"/orders/12", true},
		{"/account", true},
		{"/admin/overview", false},
		{"/", false},
		{"/cartography", false},
		{"/api/orders", false},
	}
	for _, tc := range tests {
		if got := table.isStoreOnly(tc.path); got != tc.want {
			t.Fatalf("isStoreOnly(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestPassesSignedOut(t *testing.T) {
	table := DefaultRouteTable()

	for _, path := range []string{"/login", "/register", "/api/auth/login", "/static/app.css", "/healthz"} {
		if !table.passesSignedOut(path) {
			t.Fatalf("expected %q served while signed out", path)
		}
	}
	for _, path := range []string{"/", "/orders", "/admin/overview", "/login/help"} {
		if table.passesSignedOut(path) {
			t.Fatalf("expected %q redirected while signed out", path)
		}
	}
}
