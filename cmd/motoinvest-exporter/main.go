package main

import (
	"context"
	"errors"
	"os"
	"time"

	"motoinvest/internal/amqp"
	"motoinvest/internal/cli"
	"motoinvest/internal/config"
	"motoinvest/internal/exporter"
	"motoinvest/internal/log"
	"motoinvest/internal/sheets/google"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentExporter)

	cfg := config.Load()
	if err := cfg.ValidateExporter(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	sheetsClient, err := google.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, google.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exp := exporter.New(sheetsClient, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, done := cli.GracefulShutdown(logger, 15*time.Second, func(context.Context) { cancel() })

	if err := exp.Prepare(ctx); err != nil {
		logger.Warn("Ledger sheet header not verified", log.FieldError, err)
	}

	logger.Info("Starting ledger exporter",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName,
		"queue", cfg.AMQPQueue)

	if err := amqpClient.ConsumeWithRetry(ctx, exp.HandleLedgerEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Ledger event consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	<-done
	logger.Info("Exporter stopped gracefully")
}
