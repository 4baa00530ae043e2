package goSession

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/backend"
	"github.com/MrEthical07/goSession/session"
)

// Config is the complete Engine configuration. Start from [DefaultConfig].
type Config struct {
	Backend BackendConfig
	Session SessionConfig
	Refresh RefreshConfig
	SignIn  SignInConfig
	Cookie  CookieConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig locates the remote API.
type BackendConfig struct {
	BaseURL string
	Paths   backend.Paths
	Timeout time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls credential lifetimes and record storage.
//
// The access credential is treated as expired AccessTTL - ExpiryMargin
// after issuance. RecordTTL bounds how long an idle record survives in the
// store and should match the refresh credential lifetime.
type SessionConfig struct {
	AccessTTL    time.Duration
	ExpiryMargin time.Duration
	RecordTTL    time.Duration
	RedisPrefix  string
	// SealSecret keys the encryption of records kept in Redis.
	SealSecret []byte
}

// RefreshConfig tunes the single-flight refresher.
type RefreshConfig struct {
	ReuseWindow time.Duration
}

/*
====================================
SIGN-IN CONFIG
====================================
*/

// SignInConfig controls local input validation and the Redis throttle.
type SignInConfig struct {
	MinPasswordLength int
	EnableThrottle    bool
	EnableIPThrottle  bool
	MaxAttempts       int
	Cooldown          time.Duration
}

// CookieConfig describes the session cookie written by the middleware.
type CookieConfig struct {
	Name     string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the storefront defaults: 15 minute access
// credentials treated as expired one minute early, 7 day records.
func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
			Paths:   backend.DefaultPaths(),
			Timeout: 10 * time.Second,
		},
		Session: SessionConfig{
			AccessTTL:    15 * time.Minute,
			ExpiryMargin: time.Minute,
			RecordTTL:    7 * 24 * time.Hour,
			RedisPrefix:  "ss",
		},
		Refresh: RefreshConfig{
			ReuseWindow: 30 * time.Second,
		},
		SignIn: SignInConfig{
			MinPasswordLength: 8,
			EnableThrottle:    false,
			EnableIPThrottle:  false,
			MaxAttempts:       5,
			Cooldown:          15 * time.Minute,
		},
		Cookie: CookieConfig{
			Name:     "storefront_session",
			Path:     "/",
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func defaultConfig() Config {
	return DefaultConfig()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.SealSecret = cloneBytes(cfg.Session.SealSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// AccessLifetime is how long after issuance an access credential is used.
func (c *Config) AccessLifetime() time.Duration {
	return c.Session.AccessTTL - c.Session.ExpiryMargin
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	// Backend
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("Backend BaseURL required")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("Backend Timeout must be > 0")
	}

	// Session
	if c.Session.AccessTTL <= 0 {
		return errors.New("Session AccessTTL must be > 0")
	}
	if c.Session.ExpiryMargin < 0 {
		return errors.New("Session ExpiryMargin must be >= 0")
	}
	if c.Session.ExpiryMargin >= c.Session.AccessTTL {
		return errors.New("Session ExpiryMargin must be shorter than AccessTTL")
	}
	if c.Session.RecordTTL < c.Session.AccessTTL {
		return errors.New("Session RecordTTL must be >= AccessTTL")
	}
	if len(c.Session.SealSecret) > 0 && len(c.Session.SealSecret) < session.MinSealSecretSize {
		return fmt.Errorf("Session SealSecret must be at least %d bytes", session.MinSealSecretSize)
	}

	// Refresh
	if c.Refresh.ReuseWindow >= c.AccessLifetime() {
		return errors.New("Refresh ReuseWindow must be shorter than the access lifetime")
	}

	// Sign-in
	if c.SignIn.MinPasswordLength < 1 {
		return errors.New("SignIn MinPasswordLength must be >= 1")
	}
	if c.SignIn.EnableThrottle {
		if c.SignIn.MaxAttempts <= 0 {
			return errors.New("SignIn MaxAttempts must be > 0 when throttling")
		}
		if c.SignIn.Cooldown <= 0 {
			return errors.New("SignIn Cooldown must be > 0 when throttling")
		}
	}
	if c.SignIn.EnableIPThrottle && !c.SignIn.EnableThrottle {
		return errors.New("SignIn EnableIPThrottle requires EnableThrottle")
	}

	// Cookie
	if c.Cookie.Name == "" || strings.ContainsAny(c.Cookie.Name, " \t\r\n;,=\"") {
		return errors.New("Cookie Name must be a valid cookie token")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
