package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"splitmint/internal/amqp"
	"splitmint/internal/categorize"
	"splitmint/internal/cli"
	"splitmint/internal/config"
	"splitmint/internal/gmail"
	apphttp "splitmint/internal/http"
	"splitmint/internal/notify"
	"splitmint/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	res := cli.OpenBackend(logger, cfg)
	if res.Cleanup != nil {
		defer res.Cleanup()
	}

	categorizer, err := categorize.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		logger.Error("Failed to initialize categorizer", "error", err)
		os.Exit(1)
	}

	// Gmail ingestion is optional; without credentials the fetch endpoint
	// reports the pipeline as unconfigured.
	var ingest *services.IngestService
	if gm, err := newGmailClient(ctx, cfg); err != nil {
		logger.Warn("Gmail client unavailable, email ingestion disabled", "error", err)
	} else if gm != nil {
		ingest = services.NewIngestService(gm, categorizer, res.Store, cfg.FetchWindow, cfg.FetchLimit)
	}

	// Reminders go through AMQP when a broker is configured, otherwise
	// straight to the SMS gateway, otherwise they are compute-only.
	var publisher services.ReminderPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP broker", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("Reminder publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	var dispatcher *notify.Dispatcher
	if publisher == nil && cfg.SMTPHost != "" {
		sender := notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
		dispatcher = notify.NewDispatcher(sender, cfg.SMSGatewayDomain, cfg.ReminderDelay)
		logger.Info("Direct SMS dispatch enabled", "gateway", cfg.SMSGatewayDomain)
	}

	splits := services.NewSplitService(res.Store, publisher, dispatcher)

	srv := apphttp.NewServer(":"+cfg.Port, res.Store, splits, ingest)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-sigCtx.Done()
		logger.Info("Shutdown signal received")

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()

		if err := srv.Shutdown(stopCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting splitmint server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"ingestion_enabled", ingest != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-shutdownCtx.Done()
	logger.Info("Server stopped gracefully")
}

// newGmailClient builds the Gmail client when OAuth material is present.
// Returns (nil, nil) when no credentials are configured at all.
func newGmailClient(ctx context.Context, cfg *config.Config) (*gmail.Client, error) {
	if cfg.GoogleOAuthClientJSON == "" && cfg.GoogleOAuthClientFile == "" {
		return nil, nil
	}
	return gmail.New(ctx, gmail.Config{
		ClientJSON: cfg.GoogleOAuthClientJSON,
		ClientFile: cfg.GoogleOAuthClientFile,
		TokenJSON:  cfg.GoogleOAuthTokenJSON,
		TokenFile:  cfg.GoogleOAuthTokenFile,
	})
}
