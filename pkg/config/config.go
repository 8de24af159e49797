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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Submission   SubmissionConfig
	Retention    RetentionConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"VOUCHERS_APP_ENV" required:"true"`
	Port         string `envconfig:"VOUCHERS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VOUCHERS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VOUCHERS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VOUCHERS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VOUCHERS_DB_DSN"`
	Driver string `envconfig:"VOUCHERS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VOUCHERS_DB_HOST"`
	LegacyPort     int    `envconfig:"VOUCHERS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VOUCHERS_DB_USER"`
	LegacyPassword string `envconfig:"VOUCHERS_DB_PASSWORD"`
	LegacyName     string `envconfig:"VOUCHERS_DB_NAME"`
	LegacySSLMode  string `envconfig:"VOUCHERS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VOUCHERS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VOUCHERS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VOUCHERS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VOUCHERS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VOUCHERS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VOUCHERS_REDIS_ADDR"`
	Password     string        `envconfig:"VOUCHERS_REDIS_PASSWORD"`
	DB           int           `envconfig:"VOUCHERS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VOUCHERS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VOUCHERS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VOUCHERS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VOUCHERS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VOUCHERS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VOUCHERS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VOUCHERS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VOUCHERS_JWT_EXPIRATION_MINUTES" default:"60"`
}

// SubmissionConfig tunes the order submission safety rails.
type SubmissionConfig struct {
	DedupTTL           time.Duration `envconfig:"VOUCHERS_SUBMISSION_DEDUP_TTL" default:"5m"`
	DedupBucket        time.Duration `envconfig:"VOUCHERS_SUBMISSION_DEDUP_BUCKET" default:"5m"`
	LockTTL            time.Duration `envconfig:"VOUCHERS_SUBMISSION_LOCK_TTL" default:"10s"`
	ThrottleMaxBackoff time.Duration `envconfig:"VOUCHERS_SUBMISSION_THROTTLE_MAX_BACKOFF" default:"60s"`
	ThrottleIdleExpiry time.Duration `envconfig:"VOUCHERS_SUBMISSION_THROTTLE_IDLE_EXPIRY" default:"1h"`
}

// RetentionConfig controls how long forensic rows are kept before the
// maintenance worker purges them.
type RetentionConfig struct {
	FailedAttemptDays int `envconfig:"VOUCHERS_RETENTION_FAILED_ATTEMPT_DAYS" default:"90"`
	OutboxDays        int `envconfig:"VOUCHERS_RETENTION_OUTBOX_DAYS" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VOUCHERS_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VOUCHERS_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"VOUCHERS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	AuditTopic        string `envconfig:"VOUCHERS_PUBSUB_AUDIT_TOPIC" default:"voucher-audit-events"`
	AuditSubscription string `envconfig:"VOUCHERS_PUBSUB_AUDIT_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"VOUCHERS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"VOUCHERS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"VOUCHERS_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
