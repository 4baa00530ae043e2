package goSession

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const (
	testPassword    = "correct-horse-1"
	testGoogleToken = "google-id-token"
)

var testSealSecret = bytes.Repeat([]byte("s"), 32)

type fakeUser struct {
	id       string
	password string
	role     string
}

// fakeAPI is an in-process stand-in for the storefront API. Refresh
// credentials are single use, like the real one.
type fakeAPI struct {
	t   *testing.T
	srv *httptest.Server

	mu             sync.Mutex
	users          map[string]fakeUser
	live           map[string]string
	revoked        []string
	lastAuth       string
	refreshStatus  int
	exchangeStatus int
	resourceStatus int
	refreshGate    chan struct{}

	seq           atomic.Int64
	refreshCalls  atomic.Int64
	resourceCalls atomic.Int64
	logoutCalls   atomic.Int64
	loginCalls    atomic.Int64
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{
		t: t,
		users: map[string]fakeUser{
			"shopper@example.com": {id: "7", password: testPassword, role: "user"},
			"admin@example.com":   {id: "1", password: testPassword, role: "admin"},
			"google@example.com":  {id: "99", password: "", role: "user"},
		},
		live: map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", api.login)
	mux.HandleFunc("POST /auth/register", api.register)
	mux.HandleFunc("POST /auth/refresh", api.refresh)
	mux.HandleFunc("POST /auth/google-token-exchange", api.exchange)
	mux.HandleFunc("POST /auth/logout", api.logout)
	mux.HandleFunc("GET /orders", api.orders)

	api.srv = httptest.NewServer(mux)
	t.Cleanup(api.srv.Close)
	return api
}

func (a *fakeAPI) issue(w http.ResponseWriter, email string) {
	a.issueStatus(w, email, http.StatusOK)
}

func (a *fakeAPI) issueStatus(w http.ResponseWriter, email string, status int) {
	a.mu.Lock()
	user := a.users[email]
	n := a.seq.Add(1)
	rt := "rt-" + strconv.FormatInt(n, 10)
	a.live[rt] = email
	a.mu.Unlock()

	access, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{
		"sub":  user.id,
		"role": user.role,
		"jti":  strconv.FormatInt(n, 10),
		"exp":  time.Now().Add(15 * time.Minute).Unix(),
	}).SignedString([]byte("api-signing-key"))
	if err != nil {
		a.t.Errorf("sign access token: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, status, map[string]string{
		"access_token":  access,
		"refresh_token": rt,
		"token_type":    "bearer",
	})
}

func (a *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	a.loginCalls.Add(1)
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	a.mu.Lock()
	user, ok := a.users[body.Email]
	a.mu.Unlock()
	if !ok || user.password == "" || user.password != body.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
		return
	}
	a.issue(w, body.Email)
}

func (a *fakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	a.mu.Lock()
	if _, exists := a.users[body.Email]; exists {
		a.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"detail": "Email already registered"})
		return
	}
	a.users[body.Email] = fakeUser{
		id:       strconv.Itoa(100 + len(a.users)),
		password: body.Password,
		role:     "user",
	}
	a.mu.Unlock()
	a.issueStatus(w, body.Email, http.StatusCreated)
}

func (a *fakeAPI) refresh(w http.ResponseWriter, r *http.Request) {
	a.refreshCalls.Add(1)

	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	a.mu.Lock()
	gate := a.refreshGate
	status := a.refreshStatus
	a.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if status != 0 {
		writeJSON(w, status, map[string]string{"detail": "Refresh failed"})
		return
	}

	a.mu.Lock()
	email, ok := a.live[body.RefreshToken]
	delete(a.live, body.RefreshToken)
	a.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid refresh token"})
		return
	}
	a.issue(w, email)
}

func (a *fakeAPI) exchange(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDToken string `json:"id_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	a.mu.Lock()
	status := a.exchangeStatus
	a.mu.Unlock()
	if status != 0 {
		writeJSON(w, status, map[string]string{"detail": "Exchange failed"})
		return
	}
	if body.IDToken != testGoogleToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid Google token"})
		return
	}
	a.issue(w, "google@example.com")
}

func (a *fakeAPI) logout(w http.ResponseWriter, r *http.Request) {
	a.logoutCalls.Add(1)

	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	a.mu.Lock()
	a.revoked = append(a.revoked, body.RefreshToken)
	delete(a.live, body.RefreshToken)
	a.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (a *fakeAPI) orders(w http.ResponseWriter, r *http.Request) {
	a.resourceCalls.Add(1)

	a.mu.Lock()
	a.lastAuth = r.Header.Get("Authorization")
	status := a.resourceStatus
	a.mu.Unlock()
	if status != 0 {
		writeJSON(w, status, map[string]string{"detail": "Forbidden"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": []string{}})
}

func (a *fakeAPI) setRefreshStatus(status int) {
	a.mu.Lock()
	a.refreshStatus = status
	a.mu.Unlock()
}

func (a *fakeAPI) setExchangeStatus(status int) {
	a.mu.Lock()
	a.exchangeStatus = status
	a.mu.Unlock()
}

func (a *fakeAPI) setResourceStatus(status int) {
	a.mu.Lock()
	a.resourceStatus = status
	a.mu.Unlock()
}

func (a *fakeAPI) holdRefresh() chan struct{} {
	gate := make(chan struct{})
	a.mu.Lock()
	a.refreshGate = gate
	a.mu.Unlock()
	return gate
}

func (a *fakeAPI) revokedTokens() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.revoked...)
}

func (a *fakeAPI) authorization() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastAuth
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// testClock is a manually advanced clock shared by the engine and its
// refresher.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type engineHarness struct {
	engine *Engine
	api    *fakeAPI
	clock  *testClock
	mr     *miniredis.Miniredis
	redis  *redis.Client
}

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.Backend.BaseURL = baseURL
	cfg.Session.SealSecret = testSealSecret
	cfg.Metrics.Enabled = true
	return cfg
}

func newEngineHarness(t *testing.T, mutate func(*Config), sink AuditSink) *engineHarness {
	t.Helper()

	api := newFakeAPI(t)
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := testConfig(api.srv.URL)
	cfg.Audit.Enabled = sink != nil
	if mutate != nil {
		mutate(&cfg)
	}

	clock := newTestClock()
	builder := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithClock(clock.Now)
	if sink != nil {
		builder = builder.WithAuditSink(sink)
	}

	engine, err := builder.Build()
	if err != nil {
		_ = rdb.Close()
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})

	return &engineHarness{engine: engine, api: api, clock: clock, mr: mr, redis: rdb}
}

func (h *engineHarness) signIn(t *testing.T, email string) (*Session, context.Context) {
	t.Helper()
	sess, err := h.engine.SignIn(context.Background(), email, testPassword)
	if err != nil {
		t.Fatalf("SignIn(%s) failed: %v", email, err)
	}
	return sess, WithSessionID(context.Background(), sess.ID)
}

type captureSink struct {
	events chan AuditEvent
}

func newCaptureSink(buffer int) *captureSink {
	return &captureSink{events: make(chan AuditEvent, buffer)}
}

func (s *captureSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *captureSink) next(t *testing.T, eventType string) AuditEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-s.events:
			if ev.EventType == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s audit event", eventType)
			return AuditEvent{}
		}
	}
}
