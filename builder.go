package goSession

import (
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/backend"
	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/refresh"
	"github.com/MrEthical07/goSession/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder is single use.
type Builder struct {
	config  Config
	redis   redis.UniversalClient
	store   session.Store
	backend Backend

	auditSink AuditSink
	logger    *slog.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis stores records in Redis and enables the sign-in throttle when
// configured. Records are sealed with Config.Session.SealSecret.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore overrides the credential store. It takes precedence over
// WithRedis for records; Redis is then only used by the throttle.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithBackend overrides the remote API client built from Config.Backend.
func (b *Builder) WithBackend(be Backend) *Builder {
	b.backend = be
	return b
}

// WithAuditSink enables delivery of audit events to sink when
// Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. The default is slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces the wall clock, for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the resolve latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SignIn.EnableThrottle && b.redis == nil {
		return nil, errors.New("SignIn throttle requires redis client")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	// -------- REMOTE API --------
	be := b.backend
	if be == nil {
		client, err := backend.New(backend.Config{
			BaseURL: cfg.Backend.BaseURL,
			Paths:   cfg.Backend.Paths,
			Timeout: cfg.Backend.Timeout,
		})
		if err != nil {
			return nil, err
		}
		be = client
	}

	// -------- CREDENTIAL STORE --------
	store := b.store
	if store == nil {
		if b.redis != nil {
			if len(cfg.Session.SealSecret) == 0 {
				return nil, errors.New("Session SealSecret required with redis store")
			}
			sealer, err := session.NewSealer(cfg.Session.SealSecret)
			if err != nil {
				return nil, err
			}
			rs, err := session.NewRedisStore(b.redis, cfg.Session.RedisPrefix, cfg.Session.RecordTTL, sealer)
			if err != nil {
				return nil, err
			}
			store = rs
		} else {
			store = session.NewMemoryStore(cfg.Session.RecordTTL)
		}
	}

	engine := &Engine{
		config:  cloneConfig(cfg),
		store:   store,
		backend: be,
		refresher: refresh.New(be, refresh.Config{
			ReuseWindow: cfg.Refresh.ReuseWindow,
			Now:         now,
		}),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
			Now:        now,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger.With(slog.String("component", "gosession")),
		now:     now,
		newID:   func() string { return uuid.NewString() },
	}

	if cfg.SignIn.EnableThrottle {
		engine.limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle: cfg.SignIn.EnableIPThrottle,
			MaxAttempts:      cfg.SignIn.MaxAttempts,
			Cooldown:         cfg.SignIn.Cooldown,
		})
	}

	b.built = true

	return engine, nil
}
