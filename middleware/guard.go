package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// RequireAdmin re-resolves the session through Engine.AuthorizeAdmin and
// serves next only to admins. A view cached by [Resolve] is not trusted.
// Denials redirect to home exactly like the [Gate] does.
func RequireAdmin(engine *goSession.Engine, home string) func(http.Handler) http.Handler {
	if home == "" {
		home = "/"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := engine.AuthorizeAdmin(r.Context())
			if err != nil {
				http.Redirect(w, r, home, http.StatusTemporaryRedirect)
				return
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
		})
	}
}
