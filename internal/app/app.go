// Package app wires the coin cache, the Binance provider, the refresh
// scheduler and the prediction service into one component graph shared by
// the server, SSH and MCP binaries.
package app

import (
	"context"
	"time"

	"coin-pulse/internal/cache"
	"coin-pulse/internal/config"
	"coin-pulse/internal/job"
	"coin-pulse/internal/provider"
	"coin-pulse/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

var initRedisFunc = cache.InitRedis

type App struct {
	Coins       *cache.CoinCache
	Provider    *provider.BinanceProvider
	Scheduler   *job.RefreshScheduler
	Predictions *service.PredictionService

	logger *logrus.Logger
	redis  *redis.Client
}

// New builds the component graph. A Redis connection failure disables the
// close-series cache instead of failing startup.
func New(ctx context.Context, cfg *config.Config, tracer trace.Tracer, logger *logrus.Logger) *App {
	redisClient, err := initRedisFunc(ctx, cfg.RedisURL, logger)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, close-series cache disabled")
		redisClient = nil
	}

	binance := provider.NewBinanceProvider(tracer, logger, provider.BinanceOptions{
		BaseURL:           cfg.BinanceBaseURL,
		QuoteAsset:        cfg.QuoteAsset,
		TopN:              cfg.TopN,
		Timeout:           time.Duration(cfg.HTTPTimeoutSecs) * time.Second,
		RetryCount:        cfg.BinanceRetryCount,
		RequestsPerSecond: cfg.BinanceRequestsPerSec,
	})
	coins := cache.NewCoinCache()
	scheduler := job.NewRefreshScheduler(tracer, logger, binance, coins, cfg.RefreshInterval)

	// a typed nil client must not reach the service as a non-nil interface
	var closesCache service.RedisClient
	if redisClient != nil {
		closesCache = redisClient
	}

	predictions := service.NewPredictionService(tracer, logger, coins, binance, scheduler, closesCache, service.PredictionOptions{
		QuoteAsset: cfg.QuoteAsset,
		Period:     cfg.RSIPeriod,
		Interval:   cfg.CandleInterval,
		ClosesTTL:  time.Duration(cfg.ClosesCacheTTLSec) * time.Second,
	})

	return &App{
		Coins:       coins,
		Provider:    binance,
		Scheduler:   scheduler,
		Predictions: predictions,
		logger:      logger,
		redis:       redisClient,
	}
}

// Start begins background refreshing.
func (a *App) Start(ctx context.Context) error {
	return a.Scheduler.Start(ctx)
}

// Close stops the scheduler and releases the Redis connection.
func (a *App) Close() {
	a.Scheduler.Stop()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.WithError(err).Warn("error closing Redis client")
		}
	}
}
