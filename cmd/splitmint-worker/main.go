package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"splitmint/internal/amqp"
	"splitmint/internal/backend"
	"splitmint/internal/categorize"
	"splitmint/internal/cli"
	"splitmint/internal/config"
	"splitmint/internal/gmail"
	"splitmint/internal/log"
	"splitmint/internal/notify"
	"splitmint/internal/services"
	"splitmint/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting splitmint-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res := cli.OpenBackend(logger, cfg)
	if res.Cleanup != nil {
		defer res.Cleanup()
	}

	g, gctx := errgroup.WithContext(ctx)
	started := 0

	// Email monitor: poll the mailbox and ingest new transactions.
	if cfg.MonitorEnabled {
		monitor, err := buildMonitor(ctx, cfg, res, logger)
		if err != nil {
			logger.Error("Failed to initialize email monitor", "error", err)
			os.Exit(1)
		}
		if monitor != nil {
			g.Go(func() error { return monitor.Run(gctx) })
			started++
		}
	}

	// Reminder consumer: drain the AMQP queue into the SMS gateway.
	if cfg.AMQPURL != "" && cfg.SMTPHost != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP broker", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		sender := notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
		dispatcher := notify.NewDispatcher(sender, cfg.SMSGatewayDomain, cfg.ReminderDelay)
		reminders := worker.NewReminderWorker(amqpClient, dispatcher)

		g.Go(func() error { return reminders.Run(gctx) })
		started++
		logger.Info("Reminder consumer started", "queue", cfg.AMQPQueue)
	}

	if started == 0 {
		logger.Error("Nothing to run: enable the monitor or configure AMQP and SMTP")
		os.Exit(1)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("splitmint-worker stopped gracefully")
}

// buildMonitor wires the ingestion pipeline for the monitor loop. Returns
// (nil, nil) when Gmail credentials are absent so the binary can still run
// the reminder consumer alone.
func buildMonitor(ctx context.Context, cfg *config.Config, res *backend.Result, logger *log.Logger) (*worker.Monitor, error) {
	if cfg.GoogleOAuthClientJSON == "" && cfg.GoogleOAuthClientFile == "" {
		logger.Warn("No Gmail credentials configured, email monitor disabled")
		return nil, nil
	}

	gm, err := gmail.New(ctx, gmail.Config{
		ClientJSON: cfg.GoogleOAuthClientJSON,
		ClientFile: cfg.GoogleOAuthClientFile,
		TokenJSON:  cfg.GoogleOAuthTokenJSON,
		TokenFile:  cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		return nil, fmt.Errorf("create gmail client: %w", err)
	}

	categorizer, err := categorize.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		return nil, fmt.Errorf("create categorizer: %w", err)
	}

	ingest := services.NewIngestService(gm, categorizer, res.Store, cfg.FetchWindow, cfg.FetchLimit)
	logger.Info("Email monitor configured",
		"user_id", cfg.GmailUser,
		"interval", cfg.MonitorInterval)

	return worker.NewMonitor(ingest, cfg.GmailUser, cfg.MonitorInterval), nil
}
