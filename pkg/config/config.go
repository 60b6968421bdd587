package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Commission   CommissionConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Commission.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARKETADMIN_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKETADMIN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MARKETADMIN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKETADMIN_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"MARKETADMIN_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARKETADMIN_DB_DSN"`
	Driver string `envconfig:"MARKETADMIN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARKETADMIN_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKETADMIN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKETADMIN_DB_USER"`
	LegacyPassword string `envconfig:"MARKETADMIN_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKETADMIN_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKETADMIN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKETADMIN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKETADMIN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKETADMIN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKETADMIN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL            string        `envconfig:"MARKETADMIN_REDIS_URL" required:"true"`
	Address        string        `envconfig:"MARKETADMIN_REDIS_ADDR"`
	Password       string        `envconfig:"MARKETADMIN_REDIS_PASSWORD"`
	DB             int           `envconfig:"MARKETADMIN_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"MARKETADMIN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"MARKETADMIN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"MARKETADMIN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"MARKETADMIN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"MARKETADMIN_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"MARKETADMIN_IDEMPOTENCY_TTL" default:"24h"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MARKETADMIN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MARKETADMIN_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MARKETADMIN_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARKETADMIN_AUTO_MIGRATE" default:"false"`
}

// CommissionConfig bounds the commission listing endpoints.
type CommissionConfig struct {
	DefaultPageSize int `envconfig:"MARKETADMIN_COMMISSION_PAGE_SIZE" default:"25"`
	MaxPageSize     int `envconfig:"MARKETADMIN_COMMISSION_MAX_PAGE_SIZE" default:"100"`
}

func (c CommissionConfig) validate() error {
	if c.DefaultPageSize <= 0 || c.MaxPageSize <= 0 {
		return fmt.Errorf("%s and %s must be positive", EnvCommissionPageSize, EnvCommissionMaxPageSize)
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("%s cannot exceed %s", EnvCommissionPageSize, EnvCommissionMaxPageSize)
	}
	return nil
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
