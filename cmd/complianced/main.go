package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"tendercomply/internal/app"
	"tendercomply/internal/config"
	"tendercomply/internal/ratelimit"
	"tendercomply/internal/server"
	"tendercomply/internal/util"
	"tendercomply/pkg/notify"
	"tendercomply/pkg/storage"
	"tendercomply/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var dataStore store.Store
	if cfg.DatabaseURL != "" {
		gormStore, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to init postgres store: %v", err)
		}
		dataStore = gormStore
	} else {
		slog.Warn("no databaseURL configured, using in-memory store")
		dataStore = store.NewMemoryStore()
	}

	var objects storage.ObjectStore
	if cfg.MinioEndpoint != "" {
		minioStore, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init object store: %v", err)
		}
		objects = minioStore
	}

	pager := notify.NewWebhookPager(notify.WebhookPagerConfig{
		URL:           cfg.PagerWebhookURL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		Window:        time.Duration(cfg.PagerWindowSeconds) * time.Second,
	})
	if pager == nil {
		slog.Warn("no pager webhook configured, critical events will only be logged")
	}

	appCore, err := app.New(app.Config{
		Store:          dataStore,
		Objects:        objects,
		Pager:          pagerOrNil(pager),
		Scoring:        scoringPolicy(cfg),
		ExtractTimeout: time.Duration(cfg.ExtractTimeoutSeconds) * time.Second,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "", cfg.RateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
	}

	httpServer := server.New(server.Config{
		App:     appCore,
		Limiter: limiter,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("compliance server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}

func pagerOrNil(p *notify.WebhookPager) notify.Pager {
	if p == nil {
		return nil
	}
	return p
}

func scoringPolicy(cfg config.FileConfig) app.ScoringPolicy {
	policy := app.DefaultScoringPolicy()
	if cfg.GreenThreshold > 0 {
		policy.GreenThreshold = cfg.GreenThreshold
	}
	if cfg.AmberThreshold > 0 {
		policy.AmberThreshold = cfg.AmberThreshold
	}
	if cfg.ExpiryWarningDays > 0 {
		policy.ExpiryWarning = time.Duration(cfg.ExpiryWarningDays) * 24 * time.Hour
	}
	return policy
}
