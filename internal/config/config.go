package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string        `env:"DATABASE_URL,required"`
	JWTSecret   string        `env:"JWT_SECRET,required"`
	JWTExpiry   time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	Port        int           `env:"PORT" envDefault:"8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string        `env:"APP_ENV" envDefault:"production"`
	Currency    string        `env:"LEDGER_CURRENCY" envDefault:"USD"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Empty queue URL logs notifications instead of publishing them.
	NotifyQueueURL string        `env:"NOTIFY_QUEUE_URL"`
	NotifyTimeout  time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`

	DefaultBankTransferFee   string        `env:"DEFAULT_BANK_TRANSFER_FEE" envDefault:"25.00"`
	DefaultCryptoTransferFee string        `env:"DEFAULT_CRYPTO_TRANSFER_FEE" envDefault:"10.00"`
	RefundFeeOnReject        bool          `env:"REFUND_FEE_ON_REJECT" envDefault:"true"`
	AuthCodeTTL              time.Duration `env:"AUTH_CODE_TTL" envDefault:"10m"`

	IdempotencyTTL  time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"10m"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	DBConnectAttempts  int `env:"DB_CONNECT_ATTEMPTS" envDefault:"30"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// WorkerConfig configures the alert worker.
type WorkerConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	SMTPHost     string `env:"SMTP_HOST,required"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"alerts@heritagebank.example"`
}

func LoadWorker() (*WorkerConfig, error) {
	cfg, err := env.ParseAs[WorkerConfig]()
	if err != nil {
		return nil, fmt.Errorf("config.LoadWorker: %w", err)
	}
	return &cfg, nil
}
