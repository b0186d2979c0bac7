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
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Worker       WorkerConfig
	Idempotency  IdempotencyConfig
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
	Env          string `envconfig:"STOREYARD_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREYARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREYARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREYARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOREYARD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOREYARD_DB_DSN"`
	Driver string `envconfig:"STOREYARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREYARD_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREYARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREYARD_DB_USER"`
	LegacyPassword string `envconfig:"STOREYARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREYARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREYARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREYARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREYARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREYARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREYARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREYARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREYARD_REDIS_ADDR"`
	Password     string        `envconfig:"STOREYARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREYARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREYARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREYARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREYARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREYARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREYARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREYARD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREYARD_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOREYARD_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOREYARD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOREYARD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	RestockTopic        string `envconfig:"STOREYARD_PUBSUB_RESTOCK_TOPIC" default:"sy-restock-events"`
	RestockSubscription string `envconfig:"STOREYARD_PUBSUB_RESTOCK_SUBSCRIPTION"`
}

type WorkerConfig struct {
	RestockPollInterval time.Duration `envconfig:"STOREYARD_RESTOCK_POLL_INTERVAL" default:"5m"`
	RestockBatchSize    int           `envconfig:"STOREYARD_RESTOCK_BATCH_SIZE" default:"100"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"STOREYARD_IDEMPOTENCY_TTL" default:"24h"`
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
