package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tg-filedrop/internal/app"
	"tg-filedrop/internal/bot"
	"tg-filedrop/internal/config"
	"tg-filedrop/internal/crash"
	"tg-filedrop/internal/handler"
	"tg-filedrop/internal/httpapi"
	"tg-filedrop/internal/logger"
	"tg-filedrop/internal/transport"
)

func main() {
	defer crash.RecoverWithStackAndExit("main")
	crash.SetupCrashHandler()

	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Setup(cfg); err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	botService, server, err := bot.Initialize(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize bot: %v", err)
	}

	appCtx, err := app.New(ctx, cfg, transport.New(botService.Bot), botService.Username)
	if err != nil {
		logger.Fatalf("Failed to initialize application: %v", err)
	}
	defer appCtx.Close()

	h := handler.New(appCtx, botService.Bot)
	h.Register(botService.Handler)

	deps := httpapi.Deps{
		Stats:         appCtx.Stats,
		Status:        h.Status(),
		Scheduler:     appCtx.Scheduler,
		ActiveUploads: appCtx.Uploads.Active,
		DebugInfo: func(ctx context.Context) string {
			return bot.DebugInfo(ctx, botService.Bot, botService.Username)
		},
	}
	router := httpapi.NewRouter(deps)
	httpapi.MountDebug(router, cfg.Bot.Webhook.DebugPath, deps)
	httpapi.Mount(server.Mux, router, cfg.Bot.Webhook.DebugPath)

	crash.SafeGoroutine("http-server", func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server error: %v", err)
		}
	})

	crash.SafeGoroutine("status-logger", func() {
		h.Status().LogPeriodically(ctx, 30*time.Minute)
	})

	crash.SafeGoroutine("bot-handler", botService.Start)
	logger.Infof("Bot @%s is running", botService.Username)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigChan
	logger.Infof("Received signal: %v, shutting down...", sig)

	botService.Stop()

	logger.Info("Waiting for message handlers to complete...")
	if h.WaitForHandlers(30 * time.Second) {
		logger.Info("All message handlers completed")
	} else {
		logger.Warning("Timeout waiting for message handlers, proceeding with shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown error: %v", err)
	}

	cancel()
	logger.Info("Server gracefully stopped")
}
