// Package envconfig loads the edge server's settings from the environment
// and an optional .env file using Viper.
package envconfig

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/spf13/viper"
)

// Env holds the settings read from the environment.
type Env struct {
	// APIURL is the storefront API base URL.
	APIURL string `mapstructure:"STOREFRONT_API_URL"`
	// EdgeAddr is the listen address of the edge server (e.g. :3000).
	EdgeAddr string `mapstructure:"EDGE_ADDR"`
	// RedisAddr selects the Redis credential store; empty keeps records in memory.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// SealSecret seals records at rest; required with RedisAddr.
	SealSecret string `mapstructure:"SESSION_SEAL_SECRET"`
	// AccessTTL is the remote API's access credential lifetime.
	AccessTTL time.Duration `mapstructure:"ACCESS_TTL"`
	// ExpiryMargin is how much earlier than AccessTTL a credential is refreshed.
	ExpiryMargin time.Duration `mapstructure:"ACCESS_EXPIRY_MARGIN"`
	CookieName   string        `mapstructure:"SESSION_COOKIE_NAME"`
	CookieSecure bool          `mapstructure:"SESSION_COOKIE_SECURE"`
	// BackendTimeout bounds every remote API call.
	BackendTimeout time.Duration `mapstructure:"BACKEND_TIMEOUT"`
	// SignInThrottle enables Redis-backed sign-in throttling.
	SignInThrottle bool   `mapstructure:"SIGNIN_THROTTLE"`
	AuditEnabled   bool   `mapstructure:"AUDIT_ENABLED"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
}

// Load reads .env (if present), then the environment. Env vars override
// .env.
func Load() (*Env, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()

	def := goSession.DefaultConfig()
	v.SetDefault("STOREFRONT_API_URL", def.Backend.BaseURL)
	v.SetDefault("EDGE_ADDR", ":3000")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("SESSION_SEAL_SECRET", "")
	v.SetDefault("ACCESS_TTL", def.Session.AccessTTL.String())
	v.SetDefault("ACCESS_EXPIRY_MARGIN", def.Session.ExpiryMargin.String())
	v.SetDefault("SESSION_COOKIE_NAME", def.Cookie.Name)
	v.SetDefault("SESSION_COOKIE_SECURE", def.Cookie.Secure)
	v.SetDefault("BACKEND_TIMEOUT", def.Backend.Timeout.String())
	v.SetDefault("SIGNIN_THROTTLE", false)
	v.SetDefault("AUDIT_ENABLED", true)
	v.SetDefault("LOG_LEVEL", "info")

	var env Env
	if err := v.Unmarshal(&env); err != nil {
		return nil, err
	}

	if env.EdgeAddr == "" {
		return nil, errors.New("envconfig: EDGE_ADDR must be set")
	}
	if env.RedisAddr != "" && env.SealSecret == "" {
		return nil, errors.New("envconfig: SESSION_SEAL_SECRET is required with REDIS_ADDR")
	}
	if env.SignInThrottle && env.RedisAddr == "" {
		return nil, errors.New("envconfig: SIGNIN_THROTTLE requires REDIS_ADDR")
	}

	return &env, nil
}

// SessionConfig maps the environment onto an engine configuration.
func (e *Env) SessionConfig() goSession.Config {
	cfg := goSession.DefaultConfig()
	cfg.Backend.BaseURL = e.APIURL
	cfg.Backend.Timeout = e.BackendTimeout
	cfg.Session.AccessTTL = e.AccessTTL
	cfg.Session.ExpiryMargin = e.ExpiryMargin
	if e.SealSecret != "" {
		cfg.Session.SealSecret = []byte(e.SealSecret)
	}
	cfg.Cookie.Name = e.CookieName
	cfg.Cookie.Secure = e.CookieSecure
	cfg.SignIn.EnableThrottle = e.SignInThrottle
	cfg.SignIn.EnableIPThrottle = e.SignInThrottle
	cfg.Audit.Enabled = e.AuditEnabled
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

// SlogLevel parses LogLevel. Unknown values are info.
func (e *Env) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(e.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
