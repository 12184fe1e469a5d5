package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nimasrn/webhook-gateway/internal/config"
	"github.com/nimasrn/webhook-gateway/internal/dedupe"
	"github.com/nimasrn/webhook-gateway/internal/handlers"
	"github.com/nimasrn/webhook-gateway/internal/repository"
	"github.com/nimasrn/webhook-gateway/internal/services"
	xhttp "github.com/nimasrn/webhook-gateway/pkg/http"
	"github.com/nimasrn/webhook-gateway/pkg/logger"
	"github.com/nimasrn/webhook-gateway/pkg/pg"
	"github.com/nimasrn/webhook-gateway/pkg/prom"
	"github.com/nimasrn/webhook-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	if config.Get().WebhookSecret == "" {
		// still serve: the readiness probe reports 503 until the
		// secret is configured
		logger.Warn("WEBHOOK_SECRET is not set, gateway will not report ready")
	}

	if config.Get().PromNamespace != "" {
		if err := prom.Create(hostname(), config.Get().AppEnv, config.Get().PromNamespace); err != nil {
			logger.Error("failed to register metrics", "error", err)
			return
		}
		if config.Get().MetricsListenAddr != "" {
			go prom.ListenAndServe(config.Get().MetricsListenAddr, config.Get().MetricsURI)
		}
	}

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(prom.HTTPMetricsMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := config.Get().AppEnv == "dev"
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	messageRepo := repository.NewMessageRepository(db)

	// optional duplicate fast path; the DB constraint stays authoritative
	var dedupeCache services.DedupeCache
	if config.Get().RedisAddr != "" {
		redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{config.Get().RedisAddr},
			ClientName: "default",
			DB:         config.Get().RedisDatabase,
			Username:   config.Get().RedisUsername,
			Password:   config.Get().RedisPassword,
		})
		if err != nil {
			logger.Error("failed connecting to redis", "error", err)
			return
		}
		dedupeCache = dedupe.NewCache(redisAdap, dedupe.DefaultConfig())
	}

	// services
	webhookService := services.NewWebhookService(messageRepo, dedupeCache, config.Get().WebhookSecret)
	messageService := services.NewMessageService(messageRepo)
	healthService := services.NewHealthService(config.Get().WebhookSecret, messageRepo)

	// handlers
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	messageHandler := handlers.NewMessageHandler(messageService)
	healthHandler := handlers.NewHealthHandler(healthService)

	handlers.RegisterWebhookRoutes(s.Router, webhookHandler)
	handlers.RegisterMessageRoutes(s.Router, messageHandler)
	handlers.RegisterHealthRoutes(s.Router, healthHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting webhook gateway", "version", version, "commit", commit, "built", date)
		if err := s.ListenAndServe(config.Get().HttpListenAddr); err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	s.Shutdown()
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
