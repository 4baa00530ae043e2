package middleware

import (
	"context"
	"net"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

type sessionContextKey struct{}

// SessionFromContext returns the view resolved by [Resolve]. Without one it
// returns an anonymous view and false.
func SessionFromContext(ctx context.Context) (*goSession.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*goSession.Session)
	if !ok || sess == nil {
		return &goSession.Session{State: goSession.StateAnonymous}, false
	}
	return sess, true
}

func withSession(ctx context.Context, sess *goSession.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// Resolve binds the session cookie, client IP and user agent to the request
// context and resolves the session once. An empty cookieName uses the
// engine's configured cookie.
func Resolve(engine *goSession.Engine, cookieName string) func(http.Handler) http.Handler {
	if cookieName == "" && engine != nil {
		cookieName = engine.CookieConfig().Name
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := goSession.WithClientIP(r.Context(), clientIP(r))
			ctx = goSession.WithUserAgent(ctx, r.UserAgent())
			if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
				ctx = goSession.WithSessionID(ctx, c.Value)
			}

			sess := engine.ResolveSession(ctx)
			next.ServeHTTP(w, r.WithContext(withSession(ctx, sess)))
		})
	}
}

// SetSessionCookie binds sess to the user agent.
func SetSessionCookie(w http.ResponseWriter, cfg goSession.CookieConfig, sess *goSession.Session) {
	if sess == nil || sess.ID == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    sess.ID,
		Path:     cfg.Path,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg goSession.CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     cfg.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
