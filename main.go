package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-events-web/internal/backend"
	"ms-events-web/internal/cache"
	"ms-events-web/internal/config"
	"ms-events-web/internal/feed"
	"ms-events-web/internal/kafka"
	"ms-events-web/internal/logger"
	"ms-events-web/internal/models"
	"ms-events-web/internal/qr"
	"ms-events-web/internal/sse"
	"ms-events-web/internal/subscription"
	"ms-events-web/internal/web"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	level := logger.ParseLevel(cfg.Log.Level)
	logger := logger.NewLogger(cfg.Log.Dir)
	defer logger.Close()
	logger.SetLevel(level)

	logger.Info("APP", "Starting events-web initialization")
	if envErr != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &http.Client{
		Timeout: cfg.Backend.Timeout,
	}
	backendClient := backend.NewClient(cfg.Backend.URL, client, logger)
	logger.Info("BACKEND", fmt.Sprintf("Using events backend at %s", backendClient.BaseURL()))

	var source cache.Source = backendClient
	var eventCache *cache.EventCache
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr, logger)
		if err != nil {
			logger.Warn("CACHE", fmt.Sprintf("Event cache disabled: %v", err))
		} else {
			redisClient = rdb
			eventCache = cache.NewEventCache(backendClient, rdb, cfg.Redis.CacheTTL, logger)
			source = eventCache
		}
	} else {
		logger.Info("CACHE", "REDIS_ADDR not set, event cache disabled")
	}

	var publisher subscription.ClickthroughPublisher
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		logger.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
		requiredTopics := []string{cfg.Kafka.Topics.Clickthrough, cfg.Kafka.Topics.CatalogUpdated}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics, logger); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Clickthrough, logger)
		publisher = producer
		logger.Info("KAFKA", "Kafka producer initialized successfully")
	}

	emitter := sse.NewFeedEventEmitter()
	sessions := feed.NewSessions(func(sessionID string) *feed.Controller {
		return feed.NewController(source, feed.Options{
			SessionID:       sessionID,
			PageSize:        cfg.Feed.PageSize,
			Upcoming:        cfg.Feed.Upcoming,
			RefreshInterval: cfg.Feed.RefreshInterval,
			OnChange:        web.BackgroundNotifier(emitter, sessionID),
			Logger:          logger,
		})
	}, cfg.Feed.SessionTTL, cfg.Feed.MaxSessions, logger)
	go sessions.Run(ctx)
	logger.Info("FEED", fmt.Sprintf("Feed sessions ready (paging=%s, refresh=%s, ttl=%s)", cfg.Feed.Paging, cfg.Feed.RefreshInterval, cfg.Feed.SessionTTL))

	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		consumer = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.CatalogUpdated, cfg.Kafka.GroupID, logger)
		go consumer.Start(ctx, func(ctx context.Context, update models.CatalogUpdate) {
			if eventCache != nil {
				if err := eventCache.Invalidate(ctx); err != nil {
					logger.Warn("CACHE", fmt.Sprintf("Failed to invalidate event cache: %v", err))
				}
			}
			sessions.Broadcast(ctx, feed.TriggerCatalog)
		})
	}

	handler := &web.Handler{
		Sessions:      sessions,
		Events:        source,
		Subscriptions: subscription.NewService(backendClient, publisher, logger),
		QR:            qr.NewQRGenerator(cfg.Server.PublicBaseURL),
		Emitter:       emitter,
		Infinite:      cfg.Feed.Paging == config.PagingInfinite,
		Logger:        logger,
	}

	logger.Info("HTTP", "Setting up router and middleware")
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      web.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		// cancelling ctx on shutdown ends open SSE streams
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("events-web running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	}
	sessions.Close()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Failed to close consumer: %v", err))
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
		}
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logger.Info("HTTP", "events-web shutdown complete")
}
