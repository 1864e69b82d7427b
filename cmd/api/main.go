package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/heritage-ledger/internal/config"
	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/handler"
	"github.com/josh-kwaku/heritage-ledger/internal/logging"
	"github.com/josh-kwaku/heritage-ledger/internal/notify"
	"github.com/josh-kwaku/heritage-ledger/internal/redisstore"
	"github.com/josh-kwaku/heritage-ledger/internal/refgen"
	"github.com/josh-kwaku/heritage-ledger/internal/repository"
	"github.com/josh-kwaku/heritage-ledger/internal/service"
	"github.com/josh-kwaku/heritage-ledger/internal/service/gate"
	"github.com/josh-kwaku/heritage-ledger/internal/service/transfer"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("heritage-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	fees, err := feeDefaults(cfg)
	if err != nil {
		return err
	}

	pool, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		ConnectAttempts:  cfg.DBConnectAttempts,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	rdb, err := redisstore.NewClient(ctx, redisstore.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	dispatcher, err := newDispatcher(ctx, cfg)
	if err != nil {
		return err
	}
	alerts := notify.NewAsync(dispatcher, cfg.NotifyTimeout)

	db := repository.NewDB(pool)
	accountRepo := repository.NewAccountRepository(pool)
	entryRepo := repository.NewTransactionRepository(pool)
	transferRepo := repository.NewTransferRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	auditRepo := repository.NewAdminLogRepository(pool)
	idemRepo := repository.NewIdempotencyRepository(pool)
	refs := refgen.New()

	authGate := gate.New(userRepo, redisstore.NewAuthCodeStore(rdb, cfg.AuthCodeTTL), alerts, refs, fees)
	accounts := service.NewAccountService(db, accountRepo, entryRepo, refs)
	transfers := transfer.NewService(db, accountRepo, entryRepo, transferRepo, userRepo, authGate, refs, alerts)
	approvals := service.NewApprovalQueue(db, transferRepo, accountRepo, entryRepo, userRepo, auditRepo, refs, alerts, cfg.RefundFeeOnReject)
	admin := service.NewAdminService(db, accountRepo, accounts, entryRepo, userRepo, auditRepo, refs, alerts)

	defaults := domain.DefaultAccount
	if c := domain.Currency(cfg.Currency); c.IsValid() {
		defaults.Currency = c
	}

	router := newRouter(routes{
		jwtSecret:      cfg.JWTSecret,
		idempotency:    idemRepo,
		locks:          redisstore.NewLocker(rdb),
		idempotencyTTL: cfg.IdempotencyTTL,
		auth:           handler.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.JWTExpiry),
		users:          handler.NewUserHandler(userRepo),
		accounts:       handler.NewAccountHandler(accounts, defaults),
		pins:           handler.NewPinHandler(authGate),
		transfers:      handler.NewTransferHandler(transfers, authGate),
		admin:          handler.NewAdminHandler(approvals, admin),
		health: handler.NewHealthHandler(map[string]handler.Pinger{
			"database": db,
			"redis":    redisstore.NewHealth(rdb),
		}),
	})

	janitor := service.NewIdempotencyJanitor(idemRepo, logger, cfg.JanitorInterval)
	go janitor.Start(ctx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	alerts.Wait(shutdownCtx)

	logger.Info("server stopped")
	return nil
}

func feeDefaults(cfg *config.Config) (gate.FeeDefaults, error) {
	bank, err := decimal.NewFromString(cfg.DefaultBankTransferFee)
	if err != nil {
		return gate.FeeDefaults{}, fmt.Errorf("DEFAULT_BANK_TRANSFER_FEE: %w", err)
	}
	crypto, err := decimal.NewFromString(cfg.DefaultCryptoTransferFee)
	if err != nil {
		return gate.FeeDefaults{}, fmt.Errorf("DEFAULT_CRYPTO_TRANSFER_FEE: %w", err)
	}
	return gate.FeeDefaults{Bank: bank, Crypto: crypto}, nil
}

func newDispatcher(ctx context.Context, cfg *config.Config) (notify.Dispatcher, error) {
	if cfg.NotifyQueueURL == "" {
		slog.Warn("NOTIFY_QUEUE_URL not set, notifications will only be logged")
		return notify.NewLogDispatcher(), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return notify.NewSQSDispatcher(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL), nil
}
