package goSession

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"
	"time"
)

func TestSignInCreatesAuthenticatedSession(t *testing.T) {
	h := newEngineHarness(t, nil, nil)

	sess, err := h.engine.SignIn(context.Background(), "  shopper@example.com ", testPassword)
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("expected a session handle")
	}
	if sess.State != StateAuthenticated || !sess.Authenticated() {
		t.Fatalf("expected authenticated view, got %+v", sess)
	}
	if sess.SubjectID != "7" || sess.Role != RoleUser {
		t.Fatalf("unexpected identity %q/%q", sess.SubjectID, sess.Role)
	}
	if want := h.clock.Now().Add(14 * time.Minute); !sess.AccessExpiry.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, sess.AccessExpiry)
	}

	ctx := WithSessionID(context.Background(), sess.ID)
	if resolved := h.engine.ResolveSession(ctx); resolved.AccessToken != sess.AccessToken {
		t.Fatal("resolved session does not match the signed-in one")
	}
	if got := h.engine.MetricsSnapshot().Counters[MetricSignInSuccess]; got != 1 {
		t.Fatalf("expected sign-in success metric 1, got %d", got)
	}
}

func TestSignInAdminRole(t *testing.T) {
	h := newEngineHarness(t, nil, nil)
	sess, _ := h.signIn(t, "admin@example.com")
	if sess.Role != RoleAdmin || !sess.IsAdmin() {
		t.Fatalf("expected admin role, got %q", sess.Role)
	}
}

func TestSignInRejectedCredentials(t *testing.T) {
	h := newEngineHarness(t, nil, nil)

	sess, err := h.engine.SignIn(context.Background(), "shopper@example.com", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if sess != nil {
		t.Fatalf("expected no session, got %+v", sess)
	}
	if n := h.redis.DBSize(context.Background()).Val(); n != 0 {
		t.Fatalf("expected nothing stored, found %d keys", n)
	}
	if got := h.engine.MetricsSnapshot().Counters[MetricSignInFailure]; got != 1 {
		t.Fatalf("expected sign-in failure metric 1, got %d", got)
	}
}

func TestSignInValidatesInputLocally(t *testing.T) {
	h := newEngineHarness(t, nil, nil)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "empty email", email: "", password: testPassword},
		{name: "not an address", email: "shopper", password: testPassword},
		{name: "display name form", email: "Shopper <shopper@example.com>", password: testPassword},
		{name: "short password", email: "shopper@example.com", password: "short"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.engine.SignIn(context.Background(), tc.email, tc.password)
			if !errors.Is(err, ErrInvalidSignInInput) {
				t.Fatalf("expected ErrInvalidSignInInput, got %v", err)
			}
		})
	}
}

func TestSignInReplacesPreviousSession(t *testing.T) {
	h := newEngineHarness(t, nil, nil)
	first, ctx := h.signIn(t, "shopper@example.com")

	second, err := h.engine.SignIn(ctx, "admin@example.com", testPassword)
	if err != nil {
		t.Fatalf("second SignIn failed: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh session handle")
	}
	if _, err := h.engine.GetSessionInfo(context.Background(), first.ID); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("previous session still stored: %v", err)
	}
	if !slices.Contains(h.api.revokedTokens(), "rt-1") {
		t.Fatalf("previous refresh credential not revoked: %v", h.api.revokedTokens())
	}
}

func TestSignInThrottle(t *testing.T) {
	h := newEngineHarness(t, func(cfg *Config) {
		cfg.SignIn.EnableThrottle = true
		cfg.SignIn.MaxAttempts = 3
	}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := h.engine.SignIn(ctx, "shopper@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	attempts, err := h.engine.GetSignInAttempts(ctx, "shopper@example.com")
	if err != nil {
		t.Fatalf("GetSignInAttempts failed: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}

	if _, err := h.engine.SignIn(ctx, "shopper@example.com", testPassword); !errors.Is(err, ErrSignInRateLimited) {
		t.Fatalf("expected ErrSignInRateLimited, got %v", err)
	}
	if got := h.engine.MetricsSnapshot().Counters[MetricSignInRateLimited]; got != 1 {
		t.Fatalf("expected rate limited metric 1, got %d", got)
	}

	h.mr.FastForward(16 * time.Minute)
	if _, err := h.engine.SignIn(ctx, "shopper@example.com", testPassword); err != nil {
		t.Fatalf("expected sign-in after cooldown, got %v", err)
	}
	if attempts, _ := h.engine.GetSignInAttempts(ctx, "shopper@example.com"); attempts != 0 {
		t.Fatalf("expected counter reset after success, got %d", attempts)
	}
}

func TestSignInStoreFailureRevokesIssuedPair(t *testing.T) {
	h := newEngineHarness(t, nil, nil)
	h.mr.SetError("READONLY replica")
	defer h.mr.SetError("")

	_, err := h.engine.SignIn(context.Background(), "shopper@example.com", testPassword)
	if !errors.Is(err, ErrSessionCreationFailed) {
		t.Fatalf("expected ErrSessionCreationFailed, got %v", err)
	}
	if !slices.Contains(h.api.revokedTokens(), "rt-1") {
		t.Fatalf("orphaned refresh credential not revoked: %v", h.api.revokedTokens())
	}
}

func TestSignInFederated(t *testing.T) {
	h := newEngineHarness(t, nil, nil)

	sess, err := h.engine.SignInFederated(context.Background(), testGoogleToken)
	if err != nil {
		t.Fatalf("SignInFederated failed: %v", err)
	}
	if sess.SubjectID != "99" || !sess.Authenticated() {
		t.Fatalf("unexpected federated session %+v", sess)
	}
	if got := h.engine.MetricsSnapshot().Counters[MetricFederatedExchangeSuccess]; got != 1 {
		t.Fatalf("expected federated success metric 1, got %d", got)
	}
}

func TestSignInFederatedFailureStoresNothing(t *testing.T) {
	h := newEngineHarness(t, nil, nil)
	h.api.setExchangeStatus(http.StatusBadGateway)

	for _, token := range []string{testGoogleToken, "", "forged"} {
		sess, err := h.engine.SignInFederated(context.Background(), token)
		if !errors.Is(err, ErrFederatedExchangeFailed) {
			t.Fatalf("token %q: expected ErrFederatedExchangeFailed, got %v", token, err)
		}
		if sess == nil || sess.State != StateFailed || sess.Error != SessionErrorExchangeFailed {
			t.Fatalf("token %q: expected failed exchange view, got %+v", token, sess)
		}
		if sess.ID != "" || sess.AccessToken != "" {
			t.Fatalf("token %q: failed view leaked session data", token)
		}
	}

	if n := h.redis.DBSize(context.Background()).Val(); n != 0 {
		t.Fatalf("expected nothing stored, found %d keys", n)
	}
}

func TestRegisterSignsIn(t *testing.T) {
	h := newEngineHarness(t, nil, nil)

	sess, err := h.engine.Register(context.Background(), "new@example.com", "long-enough-pw")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !sess.Authenticated() || sess.Role != RoleUser {
		t.Fatalf("expected authenticated user session, got %+v", sess)
	}
	if got := h.engine.MetricsSnapshot().Counters[MetricRegisterSuccess]; got != 1 {
		t.Fatalf("expected register success metric 1, got %d", got)
	}
	if got := h.api.loginCalls.Load(); got != 0 {
		t.Fatalf("registration must use its own pair, saw %d logins", got)
	}
	if got := h.api.seq.Load(); got != 1 {
		t.Fatalf("expected exactly one issued pair, got %d", got)
	}
}

func TestRegisterExistingAccount(t *testing.T) {
	h := newEngineHarness(t, nil, nil)

	_, err := h.engine.Register(context.Background(), "shopper@example.com", testPassword)
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
	if _, err := h.engine.Register(context.Background(), "bad", testPassword); !errors.Is(err, ErrInvalidSignInInput) {
		t.Fatalf("expected ErrInvalidSignInInput, got %v", err)
	}
}
