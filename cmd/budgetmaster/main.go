package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"budgetmaster/internal/amqp"
	"budgetmaster/internal/auth"
	"budgetmaster/internal/budget"
	"budgetmaster/internal/cache"
	"budgetmaster/internal/cli"
	"budgetmaster/internal/config"
	apphttp "budgetmaster/internal/http"
	"budgetmaster/internal/log"
	"budgetmaster/internal/mail"
	"budgetmaster/internal/notify"
	"budgetmaster/internal/services"
	"budgetmaster/internal/storage"
)

const (
	categoryCacheTTL = 30 * time.Minute
	cacheSweepEvery  = 10 * time.Minute
	shutdownTimeout  = 30 * time.Second
	amqpDialRetries  = 5
)

func main() {
	cli.LoadEnvFile()

	// Level and format are needed before the full config is validated.
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.UsesDefaultSecret() {
		logger.Warn("SECRET_KEY is the built-in placeholder; set a real secret before exposing the API")
	}

	ctx, cancel := cli.ShutdownContext(logger)
	code := run(ctx, cfg, logger)
	cancel()
	os.Exit(code)
}

// run wires the service and blocks until ctx is cancelled or a component
// fails. It returns the process exit code so deferred closes always run.
func run(ctx context.Context, cfg *config.Config, logger *log.Logger) int {
	store, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		return 1
	}
	defer cli.Close(logger, "database", store)

	cacheManager := cache.NewManager(logger)
	categories := storage.NewCachedCategories(store, categoryCacheTTL)
	categories.Register(cacheManager)

	mailCfg := mail.Config{
		Host:     cfg.EmailHost,
		Port:     cfg.EmailPort,
		User:     cfg.EmailUser,
		Password: cfg.EmailPassword,
		From:     cfg.EmailFrom,
		Timeout:  cfg.EmailTimeout,
	}
	sender := mail.NewSMTPSender(mailCfg, logger)
	if cfg.EmailUser == "" || cfg.EmailPassword == "" {
		logger.Warn("EMAIL_USER or EMAIL_PASSWORD not set; budget alerts will not be delivered")
	}

	var notifyOpts []notify.Option
	if cfg.AMQPURL != "" {
		publisher, err := amqp.NewClient(ctx, amqp.Config{
			URL:         cfg.AMQPURL,
			Exchange:    cfg.AMQPExchange,
			Queue:       cfg.AMQPQueue,
			DialRetries: amqpDialRetries,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			return 1
		}
		defer cli.Close(logger, "AMQP publisher", publisher)
		notifyOpts = append(notifyOpts, notify.WithPublisher(publisher))
		logger.Info("Budget alert events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	notifier := notify.New(sender, store, logger, notifyOpts...)
	evaluator := budget.NewEvaluator(store, categories, notifier, logger)
	tokens := auth.NewTokenService(cfg.SecretKey, cfg.TokenTTL)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		DebugEndpoints:     cfg.DebugEndpoints,
		AuthRequired:       cfg.AuthRequired,
	}, apphttp.Deps{
		Accounts:   services.NewAccountService(store, auth.NewBcryptHasher(bcrypt.DefaultCost), tokens, logger),
		Expenses:   services.NewExpenseService(store, categories, evaluator, logger),
		Budgets:    services.NewBudgetService(store, evaluator, logger),
		Email:      sender,
		MailConfig: sender.Config(),
		Tokens:     tokens,
		Health:     store,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		return 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return cli.ServeHTTP(gctx, logger, &srv.Server, shutdownTimeout) })
	g.Go(func() error { return cacheManager.Run(gctx, cacheSweepEvery) })
	g.Go(func() error { return srv.RunMaintenance(gctx) })

	logger.Info("Starting budgetmaster",
		"port", cfg.Port,
		"dialect", store.Dialect(),
		"auth_required", cfg.AuthRequired,
		"debug_endpoints", cfg.DebugEndpoints)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", log.FieldError, err)
		return 1
	}

	m := srv.Metrics()
	logger.Info("Server stopped gracefully",
		"requests", m.Requests.TotalRequests,
		"rate_limited", m.RateLimit.Rejected,
		"suspicious", m.Suspicious)
	return 0
}
