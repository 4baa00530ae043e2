package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/backend"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultReuseWindow is how long a settled outcome is served to late
	// arrivals presenting the consumed credential.
	DefaultReuseWindow = 30 * time.Second

	sweepThreshold = 256
)

// ErrExchangeFailed wraps every failed exchange. The cause is
// backend.ErrRejected or backend.ErrUnavailable.
var ErrExchangeFailed = errors.New("refresh exchange failed")

// Exchanger performs the remote refresh exchange.
type Exchanger interface {
	Refresh(ctx context.Context, refreshToken string) (backend.TokenPair, error)
}

// Pair is the outcome of a successful exchange. IssuedAt is stamped once
// when the exchange completes and is identical for every sharer.
type Pair struct {
	AccessToken  string
	RefreshToken string
	IssuedAt     time.Time
}

// Config configures a [Refresher].
type Config struct {
	// ReuseWindow bounds how long settled outcomes are kept. Zero means
	// DefaultReuseWindow; negative disables the memo.
	ReuseWindow time.Duration
	Now         func() time.Time
}

type settled struct {
	consumed string
	pair     Pair
	err      error
	at       time.Time
}

// Refresher de-duplicates refresh exchanges per key. It is safe for
// concurrent use.
type Refresher struct {
	exchanger Exchanger
	group     singleflight.Group
	window    time.Duration
	now       func() time.Time

	mu   sync.Mutex
	memo map[string]settled

	exchanges atomic.Uint64
}

// New creates a [Refresher] backed by ex.
func New(ex Exchanger, cfg Config) *Refresher {
	window := cfg.ReuseWindow
	if window == 0 {
		window = DefaultReuseWindow
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Refresher{
		exchanger: ex,
		window:    window,
		now:       now,
		memo:      make(map[string]settled),
	}
}

// Refresh exchanges refreshToken for a new pair, sharing the exchange with
// every concurrent caller for key. shared reports that this caller received
// an outcome produced by another caller's exchange.
//
// The exchange runs detached from ctx cancellation; deadlines are enforced
// by the Exchanger.
func (r *Refresher) Refresh(ctx context.Context, key, refreshToken string) (pair Pair, shared bool, err error) {
	if out, ok := r.lookup(key, refreshToken); ok {
		return out.pair, true, out.err
	}

	led := false
	v, err, _ := r.group.Do(key, func() (any, error) {
		if out, ok := r.lookup(key, refreshToken); ok {
			return out.pair, out.err
		}
		led = true
		r.exchanges.Add(1)

		tp, err := r.exchanger.Refresh(context.WithoutCancel(ctx), refreshToken)
		out := settled{consumed: refreshToken, at: r.now()}
		if err != nil {
			out.err = fmt.Errorf("%w: %w", ErrExchangeFailed, err)
		} else {
			out.pair = Pair{
				AccessToken:  tp.AccessToken,
				RefreshToken: tp.RefreshToken,
				IssuedAt:     out.at,
			}
		}
		r.remember(key, out)
		return out.pair, out.err
	})

	pair, _ = v.(Pair)
	return pair, !led, err
}

// Forget drops the settled outcome kept for key.
func (r *Refresher) Forget(key string) {
	r.group.Forget(key)
	r.mu.Lock()
	delete(r.memo, key)
	r.mu.Unlock()
}

// Exchanges reports how many remote exchanges have been issued.
func (r *Refresher) Exchanges() uint64 {
	return r.exchanges.Load()
}

func (r *Refresher) lookup(key, refreshToken string) (settled, bool) {
	if r.window < 0 {
		return settled{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out, ok := r.memo[key]
	if !ok || out.consumed != refreshToken {
		return settled{}, false
	}
	if r.now().Sub(out.at) >= r.window {
		delete(r.memo, key)
		return settled{}, false
	}
	return out, true
}

func (r *Refresher) remember(key string, out settled) {
	if r.window < 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.memo) >= sweepThreshold {
		for k, v := range r.memo {
			if out.at.Sub(v.at) >= r.window {
				delete(r.memo, k)
			}
		}
	}
	r.memo[key] = out
}
