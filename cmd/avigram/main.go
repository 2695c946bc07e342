package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"avigram/internal/config"
	"avigram/internal/constants"
	"avigram/internal/database"
	"avigram/internal/retry"
	"avigram/internal/service"
	"avigram/internal/tracing"
	"avigram/pkg/chat"
	"avigram/pkg/marketplace"

	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("avigram %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting avigram")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
			logger.SetLevel(logrus.InfoLevel)
		} else {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	tracingManager := tracing.NewManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	// Initialize database with exponential backoff retry
	var db *database.Database
	backoff := retry.NewBackoff(retry.BackoffConfig{
		InitialDelay: time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  constants.DefaultDatabaseRetryAttempts,
		Jitter:       true,
	})

	err = backoff.Retry(ctx, func() error {
		var initErr error
		db, initErr = database.New(cfg.Database.Path)
		if initErr != nil {
			logger.Warnf("Failed to initialize database: %v", initErr)
		}
		return initErr
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database after retries: %w", err)
	}
	defer db.Close()

	gatewayHTTPClient := &http.Client{
		Timeout: time.Duration(cfg.Marketplace.TimeoutSec) * time.Second,
	}
	gateway := marketplace.NewClientWithLogger(cfg.Marketplace.APIBaseURL, cfg.Marketplace.TokenURL, gatewayHTTPClient, logger)

	chatHTTPClient := &http.Client{
		Timeout: time.Duration(cfg.Chat.TimeoutSec) * time.Second,
	}
	chatClient := chat.NewClientWithLogger(cfg.Chat.APIBaseURL, cfg.Chat.BotToken, chatHTTPClient, logger)

	creds := service.NewCredentialCache(gateway, logger)
	reconciler := service.NewReconciler(db, gateway, chatClient, creds, logger)
	relay := service.NewReplyRelay(db, gateway, creds, logger)

	sweeper := service.NewSweeper(db, int64(cfg.Retention.Ceiling), cfg.Retention.SweepIntervalHours, logger)
	go sweeper.Start(ctx)

	poller := service.NewPoller(reconciler, cfg.Marketplace.PollIntervalSec, cfg.Retry, logger)
	if err := poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start poller: %w", err)
	}
	defer poller.Stop()

	// Reply events arrive over the websocket gateway, the webhook, or both.
	if cfg.Chat.EventsEnabled {
		events := chat.NewEventStream(cfg.Chat.EventsURL, cfg.Chat.BotToken, func(ctx context.Context, event chat.ReplyEvent) error {
			_, err := relay.Relay(ctx, service.ReplyRequest{
				LocalMessageID:   event.MessageID,
				ReplyToMessageID: event.ReplyToMessageID,
				Text:             event.Text,
			})
			return err
		}, time.Duration(constants.DefaultEventStreamRetrySec)*time.Second, logger)

		if err := events.Start(ctx); err != nil {
			logger.Warnf("Failed to start chat event stream: %v", err)
		} else {
			defer events.Stop()
		}
	}

	server := NewServer(relay, cfg.Server.WebhookToken, logger)
	serverErrCh := make(chan error, constants.ServerErrorChannelSize)
	go func() {
		if err := server.Start(cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(constants.DefaultGracefulShutdownSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}
