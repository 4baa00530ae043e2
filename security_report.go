package goSession

import (
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// SecurityReport summarizes the security posture an Engine was built with.
type SecurityReport struct {
	StoreKind          string
	RecordsSealed      bool
	AccessLifetime     time.Duration
	RecordTTL          time.Duration
	RefreshReuseWindow time.Duration
	ThrottleActive     bool
	IPThrottleActive   bool
	MinPasswordLength  int
	CookieSecure       bool
	CookieSameSite     http.SameSite
	AuditEnabled       bool
	RemoteAPIEncrypted bool
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	kind := "custom"
	switch e.store.(type) {
	case *session.RedisStore:
		kind = "redis"
	case *session.MemoryStore:
		kind = "memory"
	}

	return SecurityReport{
		StoreKind:          kind,
		RecordsSealed:      kind == "redis",
		AccessLifetime:     e.config.AccessLifetime(),
		RecordTTL:          e.config.Session.RecordTTL,
		RefreshReuseWindow: e.config.Refresh.ReuseWindow,
		ThrottleActive:     e.limiter != nil,
		IPThrottleActive:   e.limiter != nil && e.config.SignIn.EnableIPThrottle,
		MinPasswordLength:  e.config.SignIn.MinPasswordLength,
		CookieSecure:       e.config.Cookie.Secure,
		CookieSameSite:     e.config.Cookie.SameSite,
		AuditEnabled:       e.config.Audit.Enabled,
		RemoteAPIEncrypted: strings.HasPrefix(strings.ToLower(e.config.Backend.BaseURL), "https://"),
	}
}
