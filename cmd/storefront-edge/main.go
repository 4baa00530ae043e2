// Command storefront-edge serves the storefront's session edge: sign-in,
// sign-out, the request gate and an authenticated proxy to the storefront
// API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/envconfig"
	"github.com/redis/go-redis/v9"
)

func main() {
	env, err := envconfig.Load()
	if err != nil {
		slog.Error("loading config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: env.SlogLevel()}))
	slog.SetDefault(logger)

	builder := goSession.New().
		WithConfig(env.SessionConfig()).
		WithLogger(logger).
		WithAuditSink(goSession.NewSlogSink(logger.With(slog.String("component", "audit"))))

	var rdb *redis.Client
	if env.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: env.RedisAddr})
		defer rdb.Close()
		builder = builder.WithRedis(rdb)
	}

	engine, err := builder.Build()
	if err != nil {
		logger.Error("building session engine", slog.Any("error", err))
		os.Exit(1)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if rdb != nil {
		if status := engine.Health(ctx); !status.StoreAvailable {
			logger.Warn("credential store unreachable at startup", slog.String("redis_addr", env.RedisAddr))
		}
	}

	srv := &http.Server{
		Addr:              env.EdgeAddr,
		Handler:           newRouter(engine, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("storefront edge listening",
			slog.String("addr", env.EdgeAddr),
			slog.String("api", env.APIURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
	}
}
