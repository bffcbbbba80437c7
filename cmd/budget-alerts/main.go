// Command budget-alerts consumes budget_exceeded events from RabbitMQ and
// logs them. It is a starting point for downstream consumers (push
// notifications, audit trails) and a way to watch alerts during development.
package main

import (
	"context"
	"os"

	"budgetmaster/internal/amqp"
	"budgetmaster/internal/cli"
	"budgetmaster/internal/config"
	"budgetmaster/internal/log"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for budget-alerts")
		os.Exit(1)
	}

	ctx, cancel := cli.ShutdownContext(logger)
	code := run(ctx, cfg, logger)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) int {
	client, err := amqp.NewClient(ctx, amqp.Config{
		URL:         cfg.AMQPURL,
		Exchange:    cfg.AMQPExchange,
		Queue:       cfg.AMQPQueue,
		DialRetries: 10,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		return 1
	}
	defer cli.Close(logger, "AMQP consumer", client)

	alerts := logger.WithComponent(log.ComponentNotify)
	handle := func(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
		alerts.InfoContext(ctx, "Budget alert received",
			"message_id", msg.MessageID,
			log.FieldUserID, msg.UserID,
			log.FieldRecipient, msg.UserEmail,
			log.FieldCategory, msg.CategoryName,
			log.FieldPeriod, msg.Period,
			"limit", msg.Limit,
			"spent", msg.Spent)
		return nil
	}

	logger.Info("Starting budget-alerts", "queue", cfg.AMQPQueue)
	if err := client.ConsumeBudgetAlerts(ctx, handle); err != nil {
		logger.Error("Alert consumption failed", log.FieldError, err)
		return 1
	}
	logger.Info("budget-alerts stopped")
	return 0
}
