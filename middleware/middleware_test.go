package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	gjwt "github.com/golang-jwt/jwt/v5"
)

type testAPI struct {
	srv           *httptest.Server
	seq           atomic.Int64
	refreshStatus atomic.Int64
	logoutCalls   atomic.Int64
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	api := &testAPI{}

	roles := map[string]string{"shopper@example.com": "user", "admin@example.com": "admin"}
	issue := func(w http.ResponseWriter, role string) {
		n := api.seq.Add(1)
		token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{
			"sub":  strconv.FormatInt(n, 10),
			"role": role,
		}).SignedString([]byte("api-signing-key"))
		if err != nil {
			t.Errorf("sign token: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token":  token,
			"refresh_token": "rt-" + strconv.FormatInt(n, 10),
			"token_type":    "bearer",
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email string `json:"email"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		role, ok := roles[body.Email]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		issue(w, role)
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		if status := api.refreshStatus.Load(); status != 0 {
			w.WriteHeader(int(status))
			return
		}
		issue(w, "user")
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		api.logoutCalls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})

	api.srv = httptest.NewServer(mux)
	t.Cleanup(api.srv.Close)
	return api
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestEngine(t *testing.T) (*goSession.Engine, *testAPI, *fixedClock) {
	t.Helper()
	api := newTestAPI(t)
	clock := &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	cfg := goSession.DefaultConfig()
	cfg.Backend.BaseURL = api.srv.URL
	cfg.Metrics.Enabled = true

	engine, err := goSession.New().WithConfig(cfg).WithClock(clock.Now).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, api, clock
}

func signIn(t *testing.T, engine *goSession.Engine, email string) *http.Cookie {
	t.Helper()
	sess, err := engine.SignIn(context.Background(), email, "correct-horse-1")
	if err != nil {
		t.Fatalf("SignIn(%s) failed: %v", email, err)
	}
	return &http.Cookie{Name: engine.CookieConfig().Name, Value: sess.ID}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
