package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coin-pulse/internal/app"
	"coin-pulse/internal/bot"
	"coin-pulse/internal/config"
	"coin-pulse/internal/handler"
	"coin-pulse/pkg/logging"
	"coin-pulse/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "coin-pulse/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	newLoggerFunc          = logging.NewLogger
	initTracerFunc         = tracing.InitTracer
	newAppFunc             = app.New
	startAppFunc           = func(a *app.App, ctx context.Context) error { return a.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Coin Pulse API
// @version         1.0
// @description     RSI-based direction signals for the top Binance pairs.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	logger := newLoggerFunc("coin-pulse")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		logger.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Cache, provider, scheduler and prediction service
	a := newAppFunc(ctx, cfg, tracer, logger)
	if err := startAppFunc(a, ctx); err != nil {
		logger.Fatalf("failed to start refresh scheduler: %v", err)
	}
	defer a.Close()

	telegram, err := startTelegramBotFunc(cfg.TelegramBotToken, a.Predictions, logger)
	if err != nil {
		logger.WithError(err).Error("Telegram bot disabled")
	}

	h := newHandlerFunc(tracer, a.Predictions, a.Scheduler, a.Coins)

	r := newRouterFunc()
	r.Use(handler.RequestID())
	r.Use(otelgin.Middleware("coin-pulse"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Info("Shutting down server...")

	cancel()
	if telegram != nil {
		telegram.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exiting")
}
