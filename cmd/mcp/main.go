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
	"coin-pulse/internal/config"
	"coin-pulse/internal/mcpserver"
	"coin-pulse/pkg/logging"
	"coin-pulse/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	newLoggerFunc  = logging.NewLogger
	initTracerFunc = tracing.InitTracer
	newAppFunc     = app.New
	startAppFunc   = func(a *app.App, ctx context.Context) error { return a.Start(ctx) }
	runStdioFunc   = func(ctx context.Context, server *mcp.Server) error {
		return server.Run(ctx, &mcp.StdioTransport{})
	}
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(ctx context.Context, quit <-chan os.Signal) {
		select {
		case <-quit:
		case <-ctx.Done():
		}
	}
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	logger := newLoggerFunc("coin-pulse-mcp")

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

	a := newAppFunc(ctx, cfg, tracer, logger)
	if err := startAppFunc(a, ctx); err != nil {
		logger.Fatalf("failed to start refresh scheduler: %v", err)
	}
	defer a.Close()

	server := mcpserver.New(tracer, logger, a.Predictions)

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)

	switch cfg.MCPTransport {
	case "http":
		serveHTTP(ctx, cancel, cfg, server, logger, quit)
	default:
		go func() {
			waitForSignalFunc(ctx, quit)
			cancel()
		}()
		logger.Info("MCP server running on stdio")
		if err := runStdioFunc(ctx, server); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("MCP stdio session ended")
		}
	}

	logger.Info("MCP server exited")
}

func serveHTTP(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, server *mcp.Server, logger *logrus.Logger, quit <-chan os.Signal) {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("MCP server listening")
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("MCP HTTP server stopped")
			cancel()
		}
	}()

	waitForSignalFunc(ctx, quit)
	logger.Info("Shutting down MCP server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		logger.WithError(err).Warn("MCP server forced to shutdown")
	}
}
