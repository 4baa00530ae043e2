package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/gorilla/mux"
)

type server struct {
	engine *goSession.Engine
	routes middleware.RouteTable
	logger *slog.Logger
}

func newRouter(engine *goSession.Engine, logger *slog.Logger) *mux.Router {
	s := &server{
		engine: engine,
		routes: middleware.DefaultRouteTable(),
		logger: logger,
	}

	r := mux.NewRouter()
	r.Use(
		mux.MiddlewareFunc(middleware.Resolve(engine, "")),
		mux.MiddlewareFunc(middleware.WatchSessionErrors(engine, s.routes)),
		mux.MiddlewareFunc(middleware.Gate(engine, s.routes)),
	)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", prometheus.NewPrometheusExporter(engine).Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", s.signIn).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/google", s.signInFederated).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.signOut).Methods(http.MethodPost)
	api.HandleFunc("/session", s.session).Methods(http.MethodGet)

	r.HandleFunc("/orders", s.proxy("/orders")).Methods(http.MethodGet)
	r.HandleFunc("/account", s.proxy("/users/me")).Methods(http.MethodGet)
	r.Handle("/admin/overview",
		middleware.RequireAdmin(engine, s.routes.ShopperHome)(s.proxy("/admin/stats")),
	).Methods(http.MethodGet)

	r.PathPrefix("/").HandlerFunc(s.page).Methods(http.MethodGet)
	return r
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	SubjectID string `json:"subject_id,omitempty"`
	Role      string `json:"role,omitempty"`
	State     string `json:"state"`
	Error     string `json:"error,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	status := s.engine.Health(r.Context())
	code := http.StatusOK
	if !status.StoreAvailable {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"store_available":  status.StoreAvailable,
		"store_latency_ms": status.StoreLatency.Milliseconds(),
	})
}

func (s *server) signIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := s.engine.SignIn(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		s.established(w, sess)
	case errors.Is(err, goSession.ErrInvalidSignInInput):
		writeError(w, http.StatusBadRequest, "Enter a valid email and a password of at least 8 characters")
	case errors.Is(err, goSession.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, goSession.ErrSignInRateLimited):
		writeError(w, http.StatusTooManyRequests, "Too many attempts, try again later")
	default:
		s.logger.ErrorContext(r.Context(), "sign-in failed", slog.Any("error", err))
		writeError(w, http.StatusBadGateway, "Sign-in is unavailable")
	}
}

func (s *server) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := s.engine.Register(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		s.established(w, sess)
	case errors.Is(err, goSession.ErrInvalidSignInInput):
		writeError(w, http.StatusBadRequest, "Enter a valid email and a password of at least 8 characters")
	case errors.Is(err, goSession.ErrAccountExists):
		writeError(w, http.StatusConflict, "An account with this email already exists")
	case errors.Is(err, goSession.ErrRegistrationRejected):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "registration failed", slog.Any("error", err))
		writeError(w, http.StatusBadGateway, "Registration is unavailable")
	}
}

func (s *server) signInFederated(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"id_token"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := s.engine.SignInFederated(r.Context(), req.IDToken)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, sessionResponse{
			State: sess.State.String(),
			Error: string(sess.Error),
		})
		return
	}
	s.established(w, sess)
}

func (s *server) signOut(w http.ResponseWriter, r *http.Request) {
	if _, err := s.engine.SignOut(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), "sign-out failed", slog.Any("error", err))
	}
	middleware.ClearSessionCookie(w, s.engine.CookieConfig())
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) session(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, viewResponse(sess))
}

func (s *server) established(w http.ResponseWriter, sess *goSession.Session) {
	middleware.SetSessionCookie(w, s.engine.CookieConfig(), sess)
	resp := viewResponse(sess)
	resp.Redirect = s.routes.ShopperHome
	if sess.IsAdmin() {
		resp.Redirect = s.routes.AdminHome
	}
	writeJSON(w, http.StatusOK, resp)
}

// proxy forwards a GET to the storefront API with the session's credential.
func (s *server) proxy(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, path, nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		req.URL.RawQuery = r.URL.RawQuery

		resp, err := s.engine.Do(r.Context(), req)
		if err != nil {
			if middleware.RedirectOnRevoked(s.engine, w, r, err, s.routes.SignIn) {
				return
			}
			if errors.Is(err, goSession.ErrUnauthenticated) || errors.Is(err, goSession.ErrSessionTerminal) {
				http.Redirect(w, r, s.routes.SignIn, http.StatusTemporaryRedirect)
				return
			}
			s.logger.WarnContext(r.Context(), "proxy failed", slog.String("path", path), slog.Any("error", err))
			writeError(w, http.StatusBadGateway, "Storefront API unavailable")
			return
		}
		defer resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.WriteHeader(resp.StatusCode)
		_, _ = io.Copy(w, resp.Body)
	}
}

func (s *server) page(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"path":    r.URL.Path,
		"session": viewResponse(sess),
	})
}

func viewResponse(sess *goSession.Session) sessionResponse {
	resp := sessionResponse{State: sess.State.String(), Error: string(sess.Error)}
	if sess.Authenticated() {
		resp.SubjectID = sess.SubjectID
		resp.Role = string(sess.Role)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
