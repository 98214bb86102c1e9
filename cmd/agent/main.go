package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopnow/auth-agent/internal/api"
	"github.com/shopnow/auth-agent/internal/core/service"
	mongodb "github.com/shopnow/auth-agent/internal/infrastructure/db/mongo"
	redisdb "github.com/shopnow/auth-agent/internal/infrastructure/db/redis"
	"github.com/shopnow/auth-agent/internal/infrastructure/identity"
	"github.com/shopnow/auth-agent/internal/pkg/config"
	"github.com/shopnow/auth-agent/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- Backing stores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Error().Err(err).Msg("mongo connect failed")
		os.Exit(1)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Error().Err(err).Msg("redis connect failed")
		os.Exit(1)
	}
	defer func() { _ = rdb.Close() }()

	accounts := mongodb.NewAccountRepository(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure account indexes")
	}
	profiles := mongodb.NewProfileRepository(db)
	registry := redisdb.NewSessionRegistry(rdb)
	stateStore := redisdb.NewStateStore(rdb, cfg.Session.StateKey)

	// --- Identity provider with the profile trigger ---
	trigger := identity.NewProfileTrigger(profiles, cfg.Trigger.Delay, log)
	provider := identity.NewProvider(accounts, registry, trigger, identity.Config{
		JWTSecret:      cfg.JWTSecret,
		SessionTTL:     cfg.Session.TTL,
		TriggerEnabled: cfg.Trigger.Enabled,
		TriggerDelay:   cfg.Trigger.Delay,
	}, log)

	// --- Session store, listener, gate ---
	store := service.NewSessionStore(ctx, provider, profiles, stateStore, log,
		service.WithTriggerGrace(cfg.Session.TriggerGrace))

	listener := service.NewAuthChangeListener(store, provider, log)
	go listener.Run(ctx)

	gate := service.NewAccessGate(ctx, store, log)

	// --- HTTP surface ---
	e := api.NewRouter(store, gate, db, rdb, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("auth agent started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("auth agent stopped")
}
