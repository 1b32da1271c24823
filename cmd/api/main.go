package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/EnzoTheBrown/bribe/internal/app/migrate"
	"github.com/EnzoTheBrown/bribe/internal/app/store"
	httpx "github.com/EnzoTheBrown/bribe/internal/http"
	"github.com/EnzoTheBrown/bribe/internal/service/auth"
	"github.com/EnzoTheBrown/bribe/internal/service/user"
	"github.com/EnzoTheBrown/bribe/pkg/config"
	"github.com/EnzoTheBrown/bribe/pkg/crypto"
	"github.com/EnzoTheBrown/bribe/pkg/jwt"
	"github.com/EnzoTheBrown/bribe/pkg/logger"
)

func main() {
	bootLog := logger.New("api", slog.LevelInfo)
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		bootLog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		bootLog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New("api", cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	if cfg.MigrateOnStart {
		runner, err := migrate.New(st.DB, st.Dialect, log)
		if err != nil {
			log.Error("failed to configure migrations", "error", err)
			os.Exit(1)
		}
		if err := runner.Ensure(ctx); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	hasher := crypto.NewHasher(cfg.HashParams())
	codec := jwt.NewCodec(cfg.SecretKey, jwt.WithTTL(cfg.AccessTokenTTL), jwt.WithLeeway(cfg.TokenLeeway))

	authSvc := auth.New(st.Users, hasher, codec, log)
	userSvc := user.New(st.Users, hasher, log)

	var limiter httpx.RateLimiter
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable, using in-memory limiter", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, authSvc, userSvc, httpx.Options{
		Limiter: limiter,
		Limits: httpx.RateLimits{
			Login:  cfg.RateLimitLogin,
			Signup: cfg.RateLimitSignup,
			User:   cfg.RateLimitUser,
		},
		DBHealth: st.Ping,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "env", cfg.Environment, "dialect", st.Dialect)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
