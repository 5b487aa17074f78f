package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/nytproxy/bestsellers-proxy/internal/auth"
	"github.com/nytproxy/bestsellers-proxy/internal/server"
	"github.com/nytproxy/bestsellers-proxy/pkg/cache"
	"github.com/nytproxy/bestsellers-proxy/pkg/config"
	"github.com/nytproxy/bestsellers-proxy/pkg/logging"
	"github.com/nytproxy/bestsellers-proxy/pkg/nytimes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup(logging.DefaultConfig())
		fallbackLogger := logging.NewLogger("main")
		fallbackLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
	}
	cancel()
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

	cacheManager := cache.NewManager(redisClient, cfg.Cache.TTL)

	nytClient, err := nytimes.New(nytimes.Config{
		EndpointURL: cfg.Upstream.EndpointURL,
		APIKey:      cfg.Upstream.APIKey,
		Timeout:     cfg.Upstream.Timeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create NYT client")
	}

	authn := auth.NewTokenAuthenticator(cfg.Auth.Tokens)
	if len(cfg.Auth.Tokens) == 0 {
		logger.Warn().Msg("No auth tokens configured, every request will be denied")
	}

	gin.SetMode(gin.ReleaseMode)
	handler := server.NewHandler(nytClient, cacheManager, logging.NewLogger("server"))
	router := server.NewRouter(handler, authn, logging.NewLogger("http"))

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Dur("cache_ttl", cfg.Cache.TTL).Msg("Starting best-sellers proxy")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown did not complete cleanly")
	}
}
