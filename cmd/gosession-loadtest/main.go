package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	mrand "math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/alicebob/miniredis/v2"
	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// offsetClock lets the refresh phase jump past credential expiry.
type offsetClock struct {
	offset atomic.Int64
}

func (c *offsetClock) Now() time.Time {
	return time.Now().Add(time.Duration(c.offset.Load()))
}

func main() {
	var (
		sessions    = flag.Int("sessions", 2000, "number of sessions to sign in")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "resolutions per phase")
		apiLatency  = flag.Duration("api-latency", 20*time.Millisecond, "simulated remote API latency")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	api := newSimulatedAPI(*apiLatency)
	defer api.srv.Close()

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		fmt.Fprintf(os.Stderr, "seal secret: %v\n", err)
		os.Exit(1)
	}

	cfg := goSession.DefaultConfig()
	cfg.Backend.BaseURL = api.srv.URL
	cfg.Session.SealSecret = secret
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	clock := &offsetClock{}
	engine, err := goSession.New().
		WithConfig(cfg).
		WithRedis(client).
		WithClock(clock.Now).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ids := make([]string, *sessions)
	fmt.Printf("signing in %d sessions...\n", *sessions)
	startSeed := time.Now()
	for i := range ids {
		sess, err := engine.SignIn(ctx, fmt.Sprintf("shopper%d@example.com", i), "load-test-password")
		if err != nil {
			fmt.Fprintf(os.Stderr, "sign-in failed: %v\n", err)
			os.Exit(1)
		}
		ids[i] = sess.ID
	}
	fmt.Printf("signed in in %s\n", time.Since(startSeed).Round(time.Millisecond))

	resolveStats := runResolvePhase(ctx, engine, ids, *ops, *concurrency)

	clock.offset.Store(int64(cfg.AccessLifetime() + time.Second))
	before := api.refreshes.Load()
	refreshStats := runResolvePhase(ctx, engine, ids, *ops, *concurrency)
	exchanges := api.refreshes.Load() - before

	fmt.Println("---- results ----")
	printStats("resolve", resolveStats)
	printStats("refresh", refreshStats)
	fmt.Printf("refresh exchanges=%d sessions=%d shared=%d\n",
		exchanges,
		len(ids),
		engine.MetricsSnapshot().Counters[goSession.MetricRefreshShared],
	)
}

func runResolvePhase(ctx context.Context, engine *goSession.Engine, ids []string, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := mrand.New(mrand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				reqCtx := goSession.WithSessionID(ctx, ids[r.Intn(len(ids))])
				t0 := time.Now()
				sess := engine.ResolveSession(reqCtx)
				d := time.Since(t0)
				if !sess.Authenticated() {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type simulatedAPI struct {
	srv       *httptest.Server
	latency   time.Duration
	seq       atomic.Int64
	refreshes atomic.Int64
}

func newSimulatedAPI(latency time.Duration) *simulatedAPI {
	api := &simulatedAPI{latency: latency}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		api.issue(w)
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		api.refreshes.Add(1)
		time.Sleep(api.latency)
		api.issue(w)
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	api.srv = httptest.NewServer(mux)
	return api
}

func (a *simulatedAPI) issue(w http.ResponseWriter) {
	n := a.seq.Add(1)
	access, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{
		"sub":  strconv.FormatInt(n, 10),
		"role": "user",
	}).SignedString([]byte("load-test-signing-key"))
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"access_token":  access,
		"refresh_token": "rt-" + strconv.FormatInt(n, 10),
		"token_type":    "bearer",
	})
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
