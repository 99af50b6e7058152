package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/nanafuji/estimail/internal/config"
	"github.com/nanafuji/estimail/internal/database"
	"github.com/nanafuji/estimail/internal/mailbox"
	"github.com/nanafuji/estimail/internal/notify"
	"github.com/nanafuji/estimail/internal/parser"
	"github.com/nanafuji/estimail/internal/sync"
	"github.com/nanafuji/estimail/internal/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting estimate mail sync service")

	// Open database; the schema is applied on open
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database ready", "path", cfg.DatabasePath)

	// Create sync engine; every pass opens a fresh mailbox session
	mailboxCfg := mailbox.Config{
		Addr:        cfg.IMAPAddr(),
		Username:    cfg.IMAPUser,
		Password:    cfg.IMAPPassword,
		Mailbox:     cfg.IMAPMailbox,
		DialTimeout: cfg.IMAPDialTimeout,
	}
	opener := func() (sync.Session, error) {
		return mailbox.Open(mailboxCfg, logger.With("component", "mailbox"))
	}
	engine := sync.NewEngine(opener, db, cfg.SubjectFilter, logger)

	// Optional Telegram notifications
	if cfg.TelegramEnabled() {
		notifier, err := notify.New(cfg.TelegramToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Error("failed to create telegram notifier", "error", err)
			os.Exit(1)
		}
		engine.SetNotifier(notifier)
		logger.Info("telegram notifications enabled", "chat_id", cfg.TelegramChatID)
	}

	// Web server
	server, err := web.NewServer(web.Deps{
		DB:              db,
		Engine:          engine,
		Extractor:       parser.NewFormExtractor(),
		UploadDir:       cfg.UploadDir,
		ManualSyncLimit: cfg.ManualSyncLimit,
		ProxyTimeout:    cfg.ProxyTimeout,
		Logger:          logger,
	})
	if err != nil {
		logger.Error("failed to create web server", "error", err)
		os.Exit(1)
	}

	// Scheduler: initial window backfill, then periodic incremental passes
	scheduler := sync.NewScheduler(engine, cfg.SyncInterval, cfg.SyncLimit, cfg.InitialWindowDays, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go scheduler.Run(ctx)

	go func() {
		if err := server.Run(cfg.ListenAddr); err != nil {
			logger.Error("web server stopped", "error", err)
			cancel()
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
	}

	scheduler.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down web server", "error", err)
	}

	logger.Info("service stopped")
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		// Pretty colored output for console
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
			NoColor:    false,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
