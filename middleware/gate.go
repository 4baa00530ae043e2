package middleware

import (
	"net/http"
	"net/url"
	"strings"

	goSession "github.com/MrEthical07/goSession"
)

// Gate applies table to every request. It reads the view stored by
// [Resolve] and resolves the session itself when none is present.
//
// A terminal session is treated as signed out. Every redirect is a 307.
func Gate(engine *goSession.Engine, table RouteTable) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				sess = engine.ResolveSession(r.Context())
			}

			path := r.URL.Path
			target := table.redirectFor(path, sess)
			if target == "" {
				next.ServeHTTP(w, r)
				return
			}

			engine.RecordGateRedirect(r.Context(), path, target)
			http.Redirect(w, r, target, http.StatusTemporaryRedirect)
		})
	}
}

// redirectFor returns where path must send sess, or "" to let it through.
func (t RouteTable) redirectFor(path string, sess *goSession.Session) string {
	signedIn := sess.Authenticated()
	admin := sess.IsAdmin()

	switch t.Classify(path) {
	case RouteRoleRestricted:
		if !admin {
			return t.ShopperHome
		}
	case RouteProtected:
		if !signedIn {
			return t.signInWithCallback(path)
		}
		if admin && t.isStoreOnly(path) {
			return t.AdminHome
		}
	case RouteAuthOnly:
		if signedIn {
			return t.home(sess)
		}
	default:
		if admin && t.isStoreOnly(path) {
			return t.AdminHome
		}
	}
	return ""
}

func (t RouteTable) home(sess *goSession.Session) string {
	if sess.IsAdmin() {
		return t.AdminHome
	}
	return t.ShopperHome
}

// signInWithCallback keeps slashes readable: /login?callbackUrl=/account.
func (t RouteTable) signInWithCallback(path string) string {
	return t.SignIn + "?callbackUrl=" + strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
}
