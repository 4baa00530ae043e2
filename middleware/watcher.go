package middleware

import (
	"errors"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// WatchSessionErrors signs out a session whose refresh has failed and clears
// the cookie. Page navigations are redirected to the table's sign-in page;
// bypassed and auth-only paths are served as signed out, so a sign-in
// request carrying a stale cookie still reaches its handler. Concurrent
// requests carrying the same failed session each see this; the sign-out
// itself happens once.
func WatchSessionErrors(engine *goSession.Engine, table RouteTable) func(http.Handler) http.Handler {
	if table.SignIn == "" {
		table.SignIn = "/login"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := SessionFromContext(r.Context())
			if sess.Error != goSession.SessionErrorRefreshFailed {
				next.ServeHTTP(w, r)
				return
			}

			// SignOut logs its own store failures.
			_, _ = engine.SignOut(r.Context())
			ClearSessionCookie(w, engine.CookieConfig())
			if table.passesSignedOut(r.URL.Path) {
				next.ServeHTTP(w, r.WithContext(withSession(r.Context(), &goSession.Session{State: goSession.StateAnonymous})))
				return
			}
			http.Redirect(w, r, table.SignIn, http.StatusTemporaryRedirect)
		})
	}
}

// RedirectOnRevoked handles an [goSession.ErrAccessRevoked] returned by
// Engine.Do: the session is already gone, so it clears the cookie and
// redirects to signIn. It reports whether it wrote a response.
func RedirectOnRevoked(engine *goSession.Engine, w http.ResponseWriter, r *http.Request, err error, signIn string) bool {
	if !errors.Is(err, goSession.ErrAccessRevoked) {
		return false
	}
	if signIn == "" {
		signIn = "/login"
	}
	ClearSessionCookie(w, engine.CookieConfig())
	http.Redirect(w, r, signIn, http.StatusTemporaryRedirect)
	return true
}
