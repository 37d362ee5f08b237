package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"coin-pulse/internal/app"
	"coin-pulse/internal/config"
	"coin-pulse/internal/tui"
	applog "coin-pulse/pkg/logging"
	"coin-pulse/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
)

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	newLoggerFunc     = applog.NewLogger
	initTracerFunc    = tracing.InitTracer
	newAppFunc        = app.New
	startAppFunc      = func(a *app.App, ctx context.Context) error { return a.Start(ctx) }
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	logger := newLoggerFunc("coin-pulse-ssh")

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

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)
	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(dashboardHandler(a)),
			logging.Middleware(),
		),
	)
	if err != nil {
		logger.Fatalf("failed to create SSH server: %v", err)
	}

	if srv != nil {
		go func() {
			logger.WithField("addr", addr).Info("SSH server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
				logger.WithError(err).Error("SSH server stopped")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Info("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("SSH server shutdown error")
		}
	}

	logger.Info("SSH server exited")
}

func dashboardHandler(a *app.App) bubbletea.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		model := tui.NewModel(tui.Services{
			Predictions: a.Predictions,
			Refresher:   a.Scheduler,
			Username:    s.User(),
		})
		pty, _, _ := s.Pty()
		model.SetSize(pty.Window.Width, pty.Window.Height)
		return model, []tea.ProgramOption{tea.WithAltScreen()}
	}
}

