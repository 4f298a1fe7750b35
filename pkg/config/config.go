package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SMARTKART_DB_DSN"
	EnvDBHost = "SMARTKART_DB_HOST"
	EnvDBUser = "SMARTKART_DB_USER"
	EnvDBName = "SMARTKART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Gateway      GatewayConfig
	Cancellation CancellationConfig
	Rewards      RewardsConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SMARTKART_APP_ENV" required:"true"`
	Port         string `envconfig:"SMARTKART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SMARTKART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SMARTKART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SMARTKART_DB_DSN"`
	Driver string `envconfig:"SMARTKART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SMARTKART_DB_HOST"`
	LegacyPort     int    `envconfig:"SMARTKART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SMARTKART_DB_USER"`
	LegacyPassword string `envconfig:"SMARTKART_DB_PASSWORD"`
	LegacyName     string `envconfig:"SMARTKART_DB_NAME"`
	LegacySSLMode  string `envconfig:"SMARTKART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SMARTKART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SMARTKART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SMARTKART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SMARTKART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SMARTKART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SMARTKART_REDIS_ADDR"`
	Password     string        `envconfig:"SMARTKART_REDIS_PASSWORD"`
	DB           int           `envconfig:"SMARTKART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SMARTKART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SMARTKART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SMARTKART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SMARTKART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SMARTKART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// GatewayConfig configures the payment gateway (Square) collaborator.
type GatewayConfig struct {
	AccessToken       string        `envconfig:"SMARTKART_GATEWAY_ACCESS_TOKEN"`
	Env               string        `envconfig:"SMARTKART_GATEWAY_ENV" default:"sandbox"`
	LocationID        string        `envconfig:"SMARTKART_GATEWAY_LOCATION_ID"`
	Currency          string        `envconfig:"SMARTKART_GATEWAY_CURRENCY" default:"INR"`
	Timeout           time.Duration `envconfig:"SMARTKART_GATEWAY_TIMEOUT" default:"15s"`
	IntentAmountMinor int64         `envconfig:"SMARTKART_GATEWAY_INTENT_AMOUNT_MINOR" default:"100"`
}

// Environment returns the normalized gateway environment (sandbox/production).
func (g GatewayConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(g.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

// CancellationConfig bounds the self-service cancellation window.
type CancellationConfig struct {
	SelfServiceWindow time.Duration `envconfig:"SMARTKART_CANCEL_SELF_SERVICE_WINDOW" default:"24h"`
	LockTTL           time.Duration `envconfig:"SMARTKART_ORDER_LOCK_TTL" default:"30s"`
}

// RewardsConfig controls loyalty card issuance.
type RewardsConfig struct {
	StartingPoints   int           `envconfig:"SMARTKART_REWARDS_STARTING_POINTS" default:"100"`
	StartingCashback string        `envconfig:"SMARTKART_REWARDS_STARTING_CASHBACK" default:"0"`
	Validity         time.Duration `envconfig:"SMARTKART_REWARDS_VALIDITY" default:"17520h"`
	IssuingSeller    string        `envconfig:"SMARTKART_REWARDS_ISSUING_SELLER" default:"smartkart"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SMARTKART_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
