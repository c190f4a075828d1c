package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix scopes every environment variable consumed by the platform.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names shared with tests and deploy tooling.
const (
	EnvAppEnv                 = "VENDORHUB_APP_ENV"
	EnvPort                   = "VENDORHUB_APP_PORT"
	EnvDBDSN                  = "VENDORHUB_DB_DSN"
	EnvRedisURL               = "VENDORHUB_REDIS_URL"
	EnvJWTSecret              = "VENDORHUB_JWT_SECRET"
	EnvJWTIssuer              = "VENDORHUB_JWT_ISSUER"
	EnvJWTExpMins             = "VENDORHUB_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "VENDORHUB_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "VENDORHUB_GCP_PROJECT_ID"
	EnvPubSubApprovalsTopic   = "VENDORHUB_PUBSUB_APPROVALS_TOPIC"
	EnvPubSubNotifTopic       = "VENDORHUB_PUBSUB_NOTIFICATIONS_TOPIC"
	EnvPubSubDomainSub        = "VENDORHUB_PUBSUB_DOMAIN_SUBSCRIPTION"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Approvals     ApprovalsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"VENDORHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"VENDORHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VENDORHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENDORHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VENDORHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VENDORHUB_DB_DSN"`
	Driver string `envconfig:"VENDORHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VENDORHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"VENDORHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VENDORHUB_DB_USER"`
	LegacyPassword string `envconfig:"VENDORHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"VENDORHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"VENDORHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENDORHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENDORHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENDORHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENDORHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"VENDORHUB_DB_AUTO_MIGRATE" default:"false"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either %s or the discrete DB host/user/name variables are required", EnvDBDSN)
	}
	userInfo := url.User(d.LegacyUser)
	if d.LegacyPassword != "" {
		userInfo = url.UserPassword(d.LegacyUser, d.LegacyPassword)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:     "/" + d.LegacyName,
		RawQuery: "sslmode=" + d.LegacySSLMode,
	}
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"VENDORHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VENDORHUB_REDIS_ADDR"`
	Password     string        `envconfig:"VENDORHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENDORHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENDORHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENDORHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENDORHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENDORHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENDORHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"VENDORHUB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"VENDORHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"VENDORHUB_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"VENDORHUB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VENDORHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VENDORHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VENDORHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VENDORHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VENDORHUB_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"VENDORHUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"VENDORHUB_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"VENDORHUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

// ApprovalsConfig tunes the approval workflow engine.
type ApprovalsConfig struct {
	// BulkMaxDocuments caps how many documents one bulk decision may target.
	BulkMaxDocuments int `envconfig:"VENDORHUB_APPROVALS_BULK_MAX_DOCUMENTS" default:"50"`
	// OwnerVisibilityRole is the role whose holders always see documents they own.
	OwnerVisibilityRole string `envconfig:"VENDORHUB_APPROVALS_OWNER_VISIBILITY_ROLE" default:"vendor"`
	// AdminRole bypasses matrix-derived visibility.
	AdminRole string `envconfig:"VENDORHUB_APPROVALS_ADMIN_ROLE" default:"admin"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"VENDORHUB_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	ApprovalsTopic     string `envconfig:"VENDORHUB_PUBSUB_APPROVALS_TOPIC"`
	NotificationTopic  string `envconfig:"VENDORHUB_PUBSUB_NOTIFICATIONS_TOPIC"`
	DomainSubscription string `envconfig:"VENDORHUB_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"VENDORHUB_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"VENDORHUB_OUTBOX_POLL_INTERVAL_MS" default:"500"`
	MaxAttempts    int `envconfig:"VENDORHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
}
