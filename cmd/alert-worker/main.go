package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/josh-kwaku/heritage-ledger/internal/config"
	"github.com/josh-kwaku/heritage-ledger/internal/logging"
	"github.com/josh-kwaku/heritage-ledger/internal/notify"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("heritage-alert-worker", cfg.LogLevel, cfg.AppEnv)

	mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		logger.Error("failed to build mailer", "error", err)
		os.Exit(1)
	}

	lambda.Start(notify.NewWorker(mailer, logger).Handle)
}
